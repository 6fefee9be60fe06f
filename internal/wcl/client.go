package wcl

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"northstar/internal/config"
	apperrors "northstar/internal/errors"
	"northstar/internal/infrastructure"
)

// Client talks to the Warcraft Logs v2 API: it acquires an OAuth2
// client-credentials token and runs GraphQL queries with it. A client is
// safe for concurrent use.
type Client struct {
	cfg        config.APIConfig
	httpClient *http.Client
	limiter    *rate.Limiter
	logger     *slog.Logger
	telemetry  *infrastructure.OTelProviders

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client, used by tests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithTelemetry attaches request metrics.
func WithTelemetry(t *infrastructure.OTelProviders) Option {
	return func(c *Client) { c.telemetry = t }
}

// NewClient creates an API client from configuration. Credentials are
// validated lazily on the first token request so read-only commands can
// construct a client without them.
func NewClient(cfg config.APIConfig, fetch config.FetchConfig, logger *slog.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = slog.Default()
	}

	c := &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(fetch.RateLimitRPS), fetch.RateLimitBurst),
		logger:     infrastructure.WithComponent(logger, "wcl_client"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// tokenResponse is the OAuth2 token endpoint reply.
type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// Token returns a valid access token, requesting one from the provider
// when no unexpired token is cached.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry) {
		return c.token, nil
	}

	if c.cfg.ClientID == "" || c.cfg.ClientSecret == "" {
		return "", apperrors.NewAuthError(
			"missing API credentials: set NORTHSTAR_API_CLIENT_ID and NORTHSTAR_API_CLIENT_SECRET (or WCL_CLIENT_ID / WCL_CLIENT_SECRET)", nil)
	}

	form := url.Values{
		"grant_type":    {"client_credentials"},
		"client_id":     {c.cfg.ClientID},
		"client_secret": {c.cfg.ClientSecret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.TokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", apperrors.NewAuthError("failed to build token request", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", apperrors.NewFetchError("token request failed", err, true)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", apperrors.NewFetchError("failed to read token response", err, true)
	}

	if resp.StatusCode != http.StatusOK {
		if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
			return "", apperrors.NewAuthError(
				fmt.Sprintf("provider rejected credentials (status %d)", resp.StatusCode), nil)
		}
		return "", apperrors.NewFetchError(
			fmt.Sprintf("token endpoint returned status %d", resp.StatusCode), nil,
			retryableStatus(resp.StatusCode))
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", apperrors.NewMalformedResponseError("unexpected token response shape", err)
	}
	if tr.AccessToken == "" {
		return "", apperrors.NewAuthError("token response carried no access token", nil)
	}

	c.token = tr.AccessToken
	// Refresh one minute ahead of expiry; tokens normally last a year.
	if tr.ExpiresIn > 60 {
		c.tokenExpiry = time.Now().Add(time.Duration(tr.ExpiresIn-60) * time.Second)
	} else {
		c.tokenExpiry = time.Now().Add(time.Hour)
	}

	c.logger.InfoContext(ctx, "access token acquired",
		slog.Time("expires", c.tokenExpiry))

	return c.token, nil
}

// graphQLRequest is the POST body of a query.
type graphQLRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// graphQLError is one entry in the response errors array.
type graphQLError struct {
	Message string `json:"message"`
}

// graphQLEnvelope is the outer response shape.
type graphQLEnvelope struct {
	Data   json.RawMessage `json:"data"`
	Errors []graphQLError  `json:"errors"`
}

// Query runs a GraphQL query and decodes the data payload into out.
// Rate-limit and server errors surface as retryable fetch errors; a
// GraphQL-level error list is surfaced verbatim and is not retryable.
func (c *Client) Query(ctx context.Context, operation, query string, variables map[string]interface{}, out interface{}) error {
	start := time.Now()
	err := c.query(ctx, query, variables, out)
	if c.telemetry != nil {
		c.telemetry.RecordAPIRequest(ctx, operation, time.Since(start), err)
	}
	if err != nil {
		return err
	}
	c.logger.DebugContext(ctx, "query completed",
		slog.String("operation", operation),
		slog.Duration("duration", time.Since(start)))
	return nil
}

func (c *Client) query(ctx context.Context, query string, variables map[string]interface{}, out interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.NewFetchError("rate limiter wait aborted", err, false)
	}

	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	payload, err := json.Marshal(graphQLRequest{Query: query, Variables: variables})
	if err != nil {
		return fmt.Errorf("failed to encode query: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.GraphQLURL,
		bytes.NewReader(payload))
	if err != nil {
		return apperrors.NewFetchError("failed to build query request", err, false)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewFetchError("query request failed", err, true)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 32<<20))
	if err != nil {
		return apperrors.NewFetchError("failed to read query response", err, true)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		// Cached token may have been revoked; drop it so the next
		// invocation re-authenticates.
		c.mu.Lock()
		c.token = ""
		c.mu.Unlock()
		return apperrors.NewAuthError("provider rejected access token", nil)
	case resp.StatusCode == http.StatusTooManyRequests:
		return apperrors.NewFetchError("provider rate limit exceeded", nil, true)
	case resp.StatusCode != http.StatusOK:
		return apperrors.NewFetchError(
			fmt.Sprintf("query returned status %d", resp.StatusCode), nil,
			retryableStatus(resp.StatusCode)).
			WithContext("body", truncate(string(body), 512))
	}

	var envelope graphQLEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return apperrors.NewMalformedResponseError("response is not a GraphQL envelope", err)
	}

	if len(envelope.Errors) > 0 {
		messages := make([]string, 0, len(envelope.Errors))
		for _, e := range envelope.Errors {
			messages = append(messages, e.Message)
		}
		return apperrors.NewFetchError("provider returned GraphQL errors", nil, false).
			WithContext("errors", messages)
	}

	if out == nil {
		return nil
	}
	if len(envelope.Data) == 0 {
		return apperrors.NewMalformedResponseError("response envelope carried no data", nil)
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return apperrors.NewMalformedResponseError("failed to decode query data", err)
	}
	return nil
}

// retryableStatus reports whether an HTTP status is worth retrying:
// rate limits and server-side failures.
func retryableStatus(status int) bool {
	return status == http.StatusTooManyRequests || status >= 500
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}

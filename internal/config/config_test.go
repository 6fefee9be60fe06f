package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// clearEnv unsets every variable Load reads so tests see a clean slate.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"NORTHSTAR_API_CLIENT_ID", "NORTHSTAR_API_CLIENT_SECRET",
		"NORTHSTAR_API_TOKEN_URL", "NORTHSTAR_API_GRAPHQL_URL", "NORTHSTAR_API_TIMEOUT",
		"NORTHSTAR_FETCH_RATE_LIMIT_RPS", "NORTHSTAR_FETCH_PAGE_LIMIT", "NORTHSTAR_FETCH_CONCURRENCY",
		"NORTHSTAR_LOGGING_LEVEL", "NORTHSTAR_CONFIG_FILE",
		"WCL_CLIENT_ID", "WCL_CLIENT_SECRET",
	} {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	// Point at a missing file so a stray northstar.yaml in the working
	// directory cannot leak into the test.
	t.Setenv("NORTHSTAR_CONFIG_FILE", filepath.Join(t.TempDir(), "missing.yaml"))
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "https://www.warcraftlogs.com/oauth/token", cfg.API.TokenURL)
	assert.Equal(t, "https://www.warcraftlogs.com/api/v2/client", cfg.API.GraphQLURL)
	assert.Equal(t, 30*time.Second, cfg.API.Timeout)
	assert.Equal(t, float64(5), cfg.Fetch.RateLimitRPS)
	assert.Equal(t, 10, cfg.Fetch.RateLimitBurst)
	assert.Equal(t, 100, cfg.Fetch.PageLimit)
	assert.Equal(t, 1, cfg.Fetch.Concurrency)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "data/reports", cfg.Paths.ReportsDir)
	assert.Empty(t, cfg.API.ClientID, "credentials have no default")
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("NORTHSTAR_API_CLIENT_ID", "env-id")
	t.Setenv("NORTHSTAR_API_CLIENT_SECRET", "env-secret")
	t.Setenv("NORTHSTAR_FETCH_PAGE_LIMIT", "25")
	t.Setenv("NORTHSTAR_LOGGING_LEVEL", "debug")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "env-id", cfg.API.ClientID)
	assert.Equal(t, "env-secret", cfg.API.ClientSecret)
	assert.Equal(t, 25, cfg.Fetch.PageLimit)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadLegacyCredentialFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("WCL_CLIENT_ID", "legacy-id")
	t.Setenv("WCL_CLIENT_SECRET", "legacy-secret")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "legacy-id", cfg.API.ClientID)
	assert.Equal(t, "legacy-secret", cfg.API.ClientSecret)
}

func TestLoadPrefixedCredentialsWin(t *testing.T) {
	clearEnv(t)
	t.Setenv("NORTHSTAR_API_CLIENT_ID", "prefixed")
	t.Setenv("WCL_CLIENT_ID", "legacy")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "prefixed", cfg.API.ClientID)
}

func TestLoadConfigFile(t *testing.T) {
	clearEnv(t)

	file := filepath.Join(t.TempDir(), "northstar.yaml")
	require.NoError(t, os.WriteFile(file, []byte(`
api:
  client_id: file-id
  client_secret: file-secret
fetch:
  page_limit: 50
logging:
  level: warn
`), 0644))
	t.Setenv("NORTHSTAR_CONFIG_FILE", file)

	t.Run("file values apply", func(t *testing.T) {
		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "file-id", cfg.API.ClientID)
		assert.Equal(t, 50, cfg.Fetch.PageLimit)
		assert.Equal(t, "warn", cfg.Logging.Level)
		assert.Equal(t, 30*time.Second, cfg.API.Timeout, "unset file values keep defaults")
	})

	t.Run("environment beats the file", func(t *testing.T) {
		t.Setenv("NORTHSTAR_API_CLIENT_ID", "env-id")
		t.Setenv("NORTHSTAR_FETCH_PAGE_LIMIT", "10")

		cfg, err := Load()
		require.NoError(t, err)

		assert.Equal(t, "env-id", cfg.API.ClientID)
		assert.Equal(t, 10, cfg.Fetch.PageLimit)
		assert.Equal(t, "file-secret", cfg.API.ClientSecret, "file still fills what env leaves unset")
	})
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"zero page limit", "NORTHSTAR_FETCH_PAGE_LIMIT", "0"},
		{"page limit above provider cap", "NORTHSTAR_FETCH_PAGE_LIMIT", "500"},
		{"zero rate limit", "NORTHSTAR_FETCH_RATE_LIMIT_RPS", "0"},
		{"zero concurrency", "NORTHSTAR_FETCH_CONCURRENCY", "0"},
		{"negative timeout", "NORTHSTAR_API_TIMEOUT", "-5s"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}

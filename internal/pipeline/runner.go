package pipeline

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"northstar/internal/config"
	"northstar/internal/deaths"
	"northstar/internal/infrastructure"
	"northstar/internal/reports"
	"northstar/internal/table"
	"northstar/pkg/contracts/domain"
)

// Result is the outcome of one pipeline invocation.
type Result struct {
	Table    *domain.AggregatedTable
	Summary  domain.Summary
	Selected []domain.SelectedReport
}

// Runner executes the report-selection and aggregation pipeline: locate
// the best report per day, extract per-player tallies, fold them into
// one wide table. A runner holds no state between invocations; an
// invocation either completes all stages or fails with the first error,
// producing no partial output.
type Runner struct {
	client    deaths.QueryClient
	extractor *deaths.Extractor
	fetch     config.FetchConfig
	logger    *slog.Logger
	telemetry *infrastructure.OTelProviders
}

// NewRunner wires a pipeline runner around the given API client.
func NewRunner(client deaths.QueryClient, fetch config.FetchConfig, logger *slog.Logger, telemetry *infrastructure.OTelProviders) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	return &Runner{
		client:    client,
		extractor: deaths.NewExtractor(client, logger, telemetry),
		fetch:     fetch,
		logger:    infrastructure.WithComponent(logger, "pipeline"),
		telemetry: telemetry,
	}
}

// Run executes the pipeline for one request.
func (r *Runner) Run(ctx context.Context, req Request) (*Result, error) {
	ctx = infrastructure.EnsureTraceID(ctx)
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, err
	}

	ctx, span := r.telemetry.StartSpan(ctx, "pipeline.run",
		attribute.Int("guild_id", req.GuildID),
		attribute.String("boss", req.Boss.Name),
		attribute.String("metric", string(req.Metric)))
	var runErr error
	defer func() { infrastructure.EndSpan(span, runErr) }()

	r.logger.InfoContext(ctx, "pipeline started",
		slog.Int("guild_id", req.GuildID),
		slog.String("boss", req.Boss.Name),
		slog.String("range_start", req.Range.Start.Format(config.DateFormat)),
		slog.String("range_end", req.Range.End.Format(config.DateFormat)),
		slog.String("metric", string(req.Metric)))

	extractCfg := deaths.ExtractorConfig{
		Difficulty: req.Difficulty,
		WipesOnly:  req.WipesOnly,
	}

	// The counter memoizes per-report death mappings so the extraction
	// stage never refetches what candidate ranking already pulled.
	counter := newMemoCounter(r.extractor, req.Ability, extractCfg)

	locator := reports.NewLocator(r.client, counter, r.fetch.PageLimit, r.logger, r.telemetry)
	selected, err := locator.SelectReports(ctx, req.GuildID, req.Range, req.Boss)
	if err != nil {
		runErr = err
		return nil, err
	}

	var result *Result
	switch req.Metric {
	case MetricDamage:
		result, err = r.runDamage(ctx, req, extractCfg, selected)
	default:
		result, err = r.runDeaths(ctx, req, counter, selected)
	}
	if err != nil {
		runErr = err
		return nil, err
	}

	r.logger.InfoContext(ctx, "pipeline completed",
		slog.Int("reports_processed", result.Summary.ReportsProcessed),
		slog.Int("distinct_players", result.Summary.DistinctPlayers))

	return result, nil
}

// runDeaths builds the death-count table from the memoized mappings.
func (r *Runner) runDeaths(ctx context.Context, req Request, counter *memoCounter, selected []domain.SelectedReport) (*Result, error) {
	start := time.Now()

	entries := make([]table.Entry, 0, len(selected))
	for _, report := range selected {
		mapping, err := counter.mapping(ctx, report.Code, req.Boss)
		if err != nil {
			return nil, err
		}
		entries = append(entries, table.Entry{Report: report, Deaths: mapping})
	}

	t := table.BuildTable(req.Boss, req.Ability, entries)
	if r.telemetry != nil {
		r.telemetry.RecordStage(ctx, "aggregate", time.Since(start))
	}

	return &Result{Table: t, Summary: table.Summarize(t), Selected: selected}, nil
}

// runDamage fetches damage-taken mappings for the selected reports.
// Fetches may run concurrently; entries are assembled by index so
// completion order never leaks into the table.
func (r *Runner) runDamage(ctx context.Context, req Request, extractCfg deaths.ExtractorConfig, selected []domain.SelectedReport) (*Result, error) {
	start := time.Now()

	mappings := make([]domain.DamageMapping, len(selected))
	g, gctx := errgroup.WithContext(ctx)
	limit := r.fetch.Concurrency
	if limit <= 0 {
		limit = 1
	}
	g.SetLimit(limit)
	for i, report := range selected {
		i, report := i, report
		g.Go(func() error {
			m, err := r.extractor.ExtractDamageTaken(gctx, report.Code, req.Boss, req.Ability, extractCfg)
			if err != nil {
				return err
			}
			mappings[i] = m
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	entries := make([]table.DamageEntry, 0, len(selected))
	for i, report := range selected {
		entries = append(entries, table.DamageEntry{Report: report, Damage: mappings[i]})
	}

	t := table.BuildDamageTable(req.Boss, req.Ability, entries)
	if r.telemetry != nil {
		r.telemetry.RecordStage(ctx, "aggregate", time.Since(start))
	}

	return &Result{Table: t, Summary: table.Summarize(t), Selected: selected}, nil
}

// memoCounter ranks candidates by their death totals while caching the
// underlying mappings for reuse during aggregation. Selection stays
// idempotent: a cache hit and a refetch see the same provider data
// within one invocation.
type memoCounter struct {
	extractor *deaths.Extractor
	ability   domain.Ability
	cfg       deaths.ExtractorConfig

	mu       sync.Mutex
	mappings map[string]domain.DeathMapping
}

func newMemoCounter(extractor *deaths.Extractor, ability domain.Ability, cfg deaths.ExtractorConfig) *memoCounter {
	return &memoCounter{
		extractor: extractor,
		ability:   ability,
		cfg:       cfg,
		mappings:  make(map[string]domain.DeathMapping),
	}
}

// CountDeaths implements reports.DeathCounter.
func (c *memoCounter) CountDeaths(ctx context.Context, reportCode string, boss domain.Boss) (int, error) {
	mapping, err := c.mapping(ctx, reportCode, boss)
	if err != nil {
		return 0, err
	}
	return mapping.TotalDeaths(), nil
}

func (c *memoCounter) mapping(ctx context.Context, reportCode string, boss domain.Boss) (domain.DeathMapping, error) {
	c.mu.Lock()
	cached, ok := c.mappings[reportCode]
	c.mu.Unlock()
	if ok {
		return cached, nil
	}

	mapping, err := c.extractor.ExtractDeaths(ctx, reportCode, boss, c.ability, c.cfg)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.mappings[reportCode] = mapping
	c.mu.Unlock()
	return mapping, nil
}

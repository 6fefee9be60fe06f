// Package app wires shared startup for the Northstar commands: config,
// paths, logging and telemetry, plus the arguments-to-request assembly
// the report commands have in common.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"northstar/internal/bossconfig"
	"northstar/internal/config"
	apperrors "northstar/internal/errors"
	"northstar/internal/infrastructure"
	"northstar/internal/pipeline"
	"northstar/internal/wcl"
	"northstar/pkg/contracts/domain"
)

// App holds the wired shared components of one command invocation.
type App struct {
	Config    *config.Config
	Paths     *config.Paths
	Logger    *slog.Logger
	Telemetry *infrastructure.OTelProviders
	Client    *wcl.Client
}

// Bootstrap loads configuration and initializes logging, telemetry and
// the API client. logFile names the command's log file inside the logs
// directory; enableTracing turns on debug span export.
func Bootstrap(logFile string, enableTracing bool) (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, apperrors.NewConfigError("failed to load configuration", err)
	}

	paths, err := config.NewPaths(cfg.Paths)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to initialize paths", err)
	}

	if cfg.Logging.FilePath == "" {
		cfg.Logging.FilePath = paths.GetLogPath(logFile)
	}
	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to initialize logger", err)
	}

	otelCfg := infrastructure.DefaultOTelConfig()
	otelCfg.EnableTracing = enableTracing
	telemetry, err := infrastructure.InitializeOTel(otelCfg, logger)
	if err != nil {
		return nil, apperrors.NewConfigError("failed to initialize telemetry", err)
	}

	client := wcl.NewClient(cfg.API, cfg.Fetch, logger, wcl.WithTelemetry(telemetry))

	return &App{
		Config:    cfg,
		Paths:     paths,
		Logger:    logger,
		Telemetry: telemetry,
		Client:    client,
	}, nil
}

// Shutdown flushes telemetry and closes the log file.
func (a *App) Shutdown(ctx context.Context) {
	if a.Telemetry != nil {
		if err := a.Telemetry.Shutdown(ctx); err != nil {
			a.Logger.Warn("telemetry shutdown failed", "error", err)
		}
	}
	infrastructure.CloseLogFile()
}

// Registry opens the boss registry under the config directory.
func (a *App) Registry() (*bossconfig.Registry, error) {
	return bossconfig.Load(a.Paths.GetBossRegistryPath(), a.Logger)
}

// RequestFlags carries a report command's parsed flags into request
// assembly.
type RequestFlags struct {
	Guild      string
	From, To   string
	BossName   string
	BossID     int
	AbilityID  int
	Difficulty int
	WipesOnly  bool
	Metric     pipeline.Metric
}

// BuildRequest resolves flags into a pipeline request, consulting the
// boss registry for names the command line leaves implicit.
func (a *App) BuildRequest(f RequestFlags) (pipeline.Request, error) {
	guildID, err := pipeline.ParseGuildID(f.Guild)
	if err != nil {
		return pipeline.Request{}, err
	}

	rng, err := ParseRange(f.From, f.To)
	if err != nil {
		return pipeline.Request{}, err
	}

	registry, err := a.Registry()
	if err != nil {
		return pipeline.Request{}, err
	}

	boss := domain.Boss{Name: f.BossName, EncounterID: f.BossID}
	if boss.EncounterID == 0 {
		resolved, ok := registry.BossByName(f.BossName)
		if !ok {
			return pipeline.Request{}, apperrors.NewValidationError(
				fmt.Sprintf("unknown boss %q: add it with bosscfg or pass -boss-id", f.BossName), nil)
		}
		boss = resolved
	}
	if boss.Name == "" {
		boss.Name = fmt.Sprintf("Encounter %d", boss.EncounterID)
	}

	ability := domain.Ability{ID: f.AbilityID}
	if ability.Targeted() {
		ability.Name = registry.AbilityName(ability.ID)
		if ability.Name == "" {
			ability.Name = fmt.Sprintf("Ability %d", ability.ID)
		}
	}

	return pipeline.Request{
		GuildID:    guildID,
		Range:      rng,
		Boss:       boss,
		Ability:    ability,
		Difficulty: f.Difficulty,
		WipesOnly:  f.WipesOnly,
		Metric:     f.Metric,
	}, nil
}

// ParseRange interprets the date flags, defaulting to the trailing week.
func ParseRange(from, to string) (domain.DateRange, error) {
	now := time.Now().UTC()
	start := now.AddDate(0, 0, -7)
	end := now

	var err error
	if from != "" {
		start, err = time.Parse(config.DateFormat, from)
		if err != nil {
			return domain.DateRange{}, apperrors.NewValidationError(
				fmt.Sprintf("invalid -from date %q, expected YYYY-MM-DD", from), err)
		}
	}
	if to != "" {
		end, err = time.Parse(config.DateFormat, to)
		if err != nil {
			return domain.DateRange{}, apperrors.NewValidationError(
				fmt.Sprintf("invalid -to date %q, expected YYYY-MM-DD", to), err)
		}
	}

	rng, err := domain.NewDateRange(start, end)
	if err != nil {
		return domain.DateRange{}, apperrors.NewValidationError(err.Error(), nil)
	}
	return rng, nil
}

// ExitOnPipelineError renders a pipeline failure and exits. No reports
// in range is a valid empty state, not a failure.
func ExitOnPipelineError(logger *slog.Logger, err error) {
	switch {
	case apperrors.IsNoData(err):
		fmt.Println("No reports found for the given parameters. Nothing to do.")
		os.Exit(0)
	case apperrors.IsAuth(err):
		infrastructure.WithError(logger, err).Error("Authentication failed")
		fmt.Fprintln(os.Stderr, "Authentication failed: check your API credentials and try again.")
	case apperrors.IsRetryable(err):
		infrastructure.WithError(logger, err).Error("Provider request failed")
		fmt.Fprintln(os.Stderr, "The log provider is unavailable or rate limiting; retry in a moment.")
	default:
		infrastructure.WithError(logger, err).Error("Report generation failed")
		fmt.Fprintln(os.Stderr, "Report generation failed:", err)
	}
	os.Exit(1)
}

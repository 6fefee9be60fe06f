package deaths

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	apperrors "northstar/internal/errors"
	"northstar/internal/infrastructure"
	"northstar/pkg/contracts/domain"
)

// Extractor resolves per-player death (and damage-taken) tallies for a
// single report, scoped to one boss and optionally one ability. It holds
// no state between calls; repeated extraction with unchanged provider
// data yields identical results.
type Extractor struct {
	client    QueryClient
	logger    *slog.Logger
	telemetry *infrastructure.OTelProviders
}

// ExtractorConfig holds the per-request extraction options.
type ExtractorConfig struct {
	Difficulty int  // encounter difficulty filter, 0 = any
	WipesOnly  bool // count deaths on non-kill pulls only
}

// NewExtractor creates a death extractor backed by the given API client.
func NewExtractor(client QueryClient, logger *slog.Logger, telemetry *infrastructure.OTelProviders) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{
		client:    client,
		logger:    infrastructure.WithComponent(logger, "death_extractor"),
		telemetry: telemetry,
	}
}

// BossFights lists the pulls of the targeted boss inside a report,
// filtered by difficulty and optionally reduced to wipes.
func (e *Extractor) BossFights(ctx context.Context, reportCode string, boss domain.Boss, cfg ExtractorConfig) ([]domain.Fight, error) {
	var data fightsData
	vars := map[string]interface{}{"code": reportCode}
	if err := e.client.Query(ctx, "report_fights", fightsQuery, vars, &data); err != nil {
		return nil, err
	}

	fights := make([]domain.Fight, 0, len(data.ReportData.Report.Fights))
	for _, f := range data.ReportData.Report.Fights {
		if f.EncounterID != boss.EncounterID {
			continue
		}
		if cfg.Difficulty != 0 && f.Difficulty != cfg.Difficulty {
			continue
		}
		if cfg.WipesOnly && f.Kill {
			continue
		}
		fights = append(fights, f.toDomain())
	}

	e.logger.DebugContext(ctx, "boss fights resolved",
		slog.String("report", reportCode),
		slog.Int("encounter_id", boss.EncounterID),
		slog.Int("fights", len(fights)))

	return fights, nil
}

// ActorNames builds the actor-ID to name map for a report from its
// master data.
func (e *Extractor) ActorNames(ctx context.Context, reportCode string) (map[int]string, error) {
	var data actorsData
	vars := map[string]interface{}{"code": reportCode}
	if err := e.client.Query(ctx, "report_actors", actorsQuery, vars, &data); err != nil {
		return nil, err
	}

	names := make(map[int]string, len(data.ReportData.Report.MasterData.Actors))
	for _, actor := range data.ReportData.Report.MasterData.Actors {
		if actor.ID == nil || actor.Name == "" {
			continue
		}
		names[*actor.ID] = actor.Name
	}
	return names, nil
}

// ExtractDeaths returns the player → death-count mapping for the given
// report, boss and ability. Players without deaths are absent from the
// mapping; zero-filling is the aggregator's concern. A death event whose
// player identity cannot be resolved aborts with a malformed-response
// error rather than being dropped, since it signals a provider contract
// change.
func (e *Extractor) ExtractDeaths(ctx context.Context, reportCode string, boss domain.Boss, ability domain.Ability, cfg ExtractorConfig) (domain.DeathMapping, error) {
	fights, err := e.BossFights(ctx, reportCode, boss, cfg)
	if err != nil {
		return nil, err
	}
	if len(fights) == 0 {
		e.logger.DebugContext(ctx, "no qualifying fights in report",
			slog.String("report", reportCode))
		return domain.DeathMapping{}, nil
	}

	fightIDs, start, end := fightWindow(fights)

	raw, err := e.fetchEventPages(ctx, "death_events", deathEventsQuery, map[string]interface{}{
		"code":      reportCode,
		"startTime": float64(start),
		"endTime":   float64(end),
		"fightIDs":  fightIDs,
	})
	if err != nil {
		return nil, err
	}

	names, err := e.ActorNames(ctx, reportCode)
	if err != nil {
		return nil, err
	}

	counts := domain.DeathMapping{}
	processed := 0
	for _, page := range raw {
		var events []deathEvent
		if err := json.Unmarshal(page, &events); err != nil {
			return nil, apperrors.NewMalformedResponseError("death events page is not an event array", err).
				WithContext("report", reportCode)
		}
		for _, ev := range events {
			if ability.Targeted() && ev.KillingAbilityGameID != ability.ID {
				continue
			}
			name, err := resolvePlayer(ev.TargetID, names, reportCode)
			if err != nil {
				return nil, err
			}
			counts[name]++
			processed++
		}
	}

	if e.telemetry != nil {
		e.telemetry.RecordDeathEvents(ctx, processed)
	}

	e.logger.InfoContext(ctx, "deaths extracted",
		slog.String("report", reportCode),
		slog.Int("deaths", counts.TotalDeaths()),
		slog.Int("players", len(counts)))

	return counts, nil
}

// fetchEventPages walks the event pagination, returning each page's raw
// data array. Pages are combined transparently; callers never see the
// nextPageTimestamp protocol.
func (e *Extractor) fetchEventPages(ctx context.Context, operation, query string, vars map[string]interface{}) ([]json.RawMessage, error) {
	var pages []json.RawMessage
	for {
		var data eventsData
		if err := e.client.Query(ctx, operation, query, vars, &data); err != nil {
			return nil, err
		}

		events := data.ReportData.Report.Events
		if len(events.Data) > 0 {
			pages = append(pages, events.Data)
		}

		if events.NextPageTimestamp == nil || *events.NextPageTimestamp == 0 {
			return pages, nil
		}
		vars["startTime"] = *events.NextPageTimestamp
	}
}

// resolvePlayer maps an event target to a player name, failing loudly
// when the identity cannot be resolved.
func resolvePlayer(targetID *int, names map[int]string, reportCode string) (string, error) {
	if targetID == nil {
		return "", apperrors.NewMalformedResponseError(
			"death event carries no target ID", nil).
			WithContext("report", reportCode)
	}
	name, ok := names[*targetID]
	if !ok {
		return "", apperrors.NewMalformedResponseError(
			fmt.Sprintf("death event references unknown actor %d", *targetID), nil).
			WithContext("report", reportCode)
	}
	return name, nil
}

// fightWindow returns the fight IDs plus the covering time window.
func fightWindow(fights []domain.Fight) (ids []int, start, end int64) {
	ids = make([]int, 0, len(fights))
	start = fights[0].StartTime
	end = fights[0].EndTime
	for _, f := range fights {
		ids = append(ids, f.ID)
		if f.StartTime < start {
			start = f.StartTime
		}
		if f.EndTime > end {
			end = f.EndTime
		}
	}
	return ids, start, end
}

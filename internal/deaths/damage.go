package deaths

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	apperrors "northstar/internal/errors"
	"northstar/pkg/contracts/domain"
)

// ExtractDamageTaken returns per-player damage taken for the given
// report, boss and ability. The error contract matches ExtractDeaths;
// amounts are post-mitigation, as recorded by the provider.
func (e *Extractor) ExtractDamageTaken(ctx context.Context, reportCode string, boss domain.Boss, ability domain.Ability, cfg ExtractorConfig) (domain.DamageMapping, error) {
	fights, err := e.BossFights(ctx, reportCode, boss, cfg)
	if err != nil {
		return nil, err
	}
	if len(fights) == 0 {
		return domain.DamageMapping{}, nil
	}

	fightIDs, start, end := fightWindow(fights)

	vars := map[string]interface{}{
		"code":      reportCode,
		"startTime": float64(start),
		"endTime":   float64(end),
		"fightIDs":  fightIDs,
	}
	if ability.Targeted() {
		// abilityID is a Float in the provider schema.
		vars["abilityID"] = float64(ability.ID)
	}

	raw, err := e.fetchEventPages(ctx, "damage_taken_events", damageTakenEventsQuery, vars)
	if err != nil {
		return nil, err
	}

	names, err := e.ActorNames(ctx, reportCode)
	if err != nil {
		return nil, err
	}

	inFight := make(map[int]bool, len(fightIDs))
	for _, id := range fightIDs {
		inFight[id] = true
	}

	damage := domain.DamageMapping{}
	for _, page := range raw {
		var events []damageEvent
		if err := json.Unmarshal(page, &events); err != nil {
			return nil, apperrors.NewMalformedResponseError("damage events page is not an event array", err).
				WithContext("report", reportCode)
		}
		for _, ev := range events {
			// The server-side time window can overlap pulls of other
			// encounters; keep only events from the boss fights.
			if !inFight[ev.Fight] {
				continue
			}
			if ability.Targeted() && ev.AbilityGameID != ability.ID {
				continue
			}
			if ev.TargetID == nil {
				return nil, apperrors.NewMalformedResponseError(
					"damage event carries no target ID", nil).
					WithContext("report", reportCode)
			}
			name, ok := names[*ev.TargetID]
			if !ok {
				return nil, apperrors.NewMalformedResponseError(
					fmt.Sprintf("damage event references unknown actor %d", *ev.TargetID), nil).
					WithContext("report", reportCode)
			}
			entry := damage[name]
			entry.Amount += ev.Amount
			entry.Hits++
			damage[name] = entry
		}
	}

	e.logger.InfoContext(ctx, "damage taken extracted",
		slog.String("report", reportCode),
		slog.Int("players", len(damage)))

	return damage, nil
}

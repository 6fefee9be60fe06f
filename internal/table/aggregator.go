// Package table folds per-report player tallies into the wide
// players × dates summary table.
package table

import (
	"northstar/pkg/contracts/domain"
)

// Entry pairs a selected report with its extracted death mapping.
// Entries must already be in ascending date order; the aggregator
// preserves whatever order it is given.
type Entry struct {
	Report domain.SelectedReport
	Deaths domain.DeathMapping
}

// BuildTable merges the per-report mappings into one table. It is a
// pure function: identical ordered input always produces byte-identical
// row and column ordering. Rows appear in first-seen player order across
// the input sequence; a player absent from a report's mapping gets an
// explicit zero for that date.
func BuildTable(boss domain.Boss, ability domain.Ability, entries []Entry) *domain.AggregatedTable {
	t := &domain.AggregatedTable{
		BossName:    boss.Name,
		AbilityName: ability.Name,
		Dates:       make([]string, 0, len(entries)),
	}

	players := make([]string, 0)
	seen := make(map[string]bool)
	for _, entry := range entries {
		t.Dates = append(t.Dates, entry.Report.DateString())
		for _, name := range sortedPlayers(entry.Deaths) {
			if !seen[name] {
				seen[name] = true
				players = append(players, name)
			}
		}
	}

	t.Rows = make([]domain.TableRow, 0, len(players))
	for _, name := range players {
		row := domain.TableRow{
			Player: name,
			Values: make([]int64, 0, len(entries)),
		}
		for _, entry := range entries {
			v := int64(entry.Deaths[name])
			row.Values = append(row.Values, v)
			row.Total += v
		}
		t.Rows = append(t.Rows, row)
	}

	return t
}

// DamageEntry pairs a selected report with its damage-taken mapping.
type DamageEntry struct {
	Report domain.SelectedReport
	Damage domain.DamageMapping
}

// BuildDamageTable is the damage-taken counterpart of BuildTable; cells
// hold post-mitigation amounts instead of death counts.
func BuildDamageTable(boss domain.Boss, ability domain.Ability, entries []DamageEntry) *domain.AggregatedTable {
	t := &domain.AggregatedTable{
		BossName:    boss.Name,
		AbilityName: ability.Name,
		Dates:       make([]string, 0, len(entries)),
	}

	players := make([]string, 0)
	seen := make(map[string]bool)
	for _, entry := range entries {
		t.Dates = append(t.Dates, entry.Report.DateString())
		for _, name := range sortedDamagePlayers(entry.Damage) {
			if !seen[name] {
				seen[name] = true
				players = append(players, name)
			}
		}
	}

	t.Rows = make([]domain.TableRow, 0, len(players))
	for _, name := range players {
		row := domain.TableRow{
			Player: name,
			Values: make([]int64, 0, len(entries)),
		}
		for _, entry := range entries {
			v := entry.Damage[name].Amount
			row.Values = append(row.Values, v)
			row.Total += v
		}
		t.Rows = append(t.Rows, row)
	}

	return t
}

// Summarize derives the run summary from the aggregated entries.
func Summarize(t *domain.AggregatedTable) domain.Summary {
	return domain.Summary{
		ReportsProcessed: len(t.Dates),
		DistinctPlayers:  len(t.Rows),
	}
}

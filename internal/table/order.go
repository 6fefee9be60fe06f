package table

import (
	"sort"

	"northstar/pkg/contracts/domain"
)

// Within a single report the extraction mapping has no inherent order,
// so player names are introduced alphabetically. Across reports the
// first report a player appears in still decides their row position.

func sortedPlayers(m domain.DeathMapping) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedDamagePlayers(m domain.DamageMapping) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

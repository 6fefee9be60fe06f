package domain

// DeathMapping maps player name to death count within a single report,
// scoped to one boss and one ability. A player absent from the mapping
// recorded no deaths there; zero-filling happens during aggregation,
// not here.
type DeathMapping map[string]int

// TotalDeaths sums all player deaths in the mapping.
func (m DeathMapping) TotalDeaths() int {
	total := 0
	for _, n := range m {
		total += n
	}
	return total
}

// DamageTaken is the per-player damage-taken tally within a single
// report, scoped to one boss and one ability.
type DamageTaken struct {
	Amount int64 `json:"amount"`
	Hits   int   `json:"hits"`
}

// DamageMapping maps player name to damage taken within a single report.
type DamageMapping map[string]DamageTaken

// Boss identifies a named encounter within a report.
type Boss struct {
	Name        string `json:"name" validate:"required"`
	EncounterID int    `json:"encounter_id" validate:"required,gt=0"`
}

// Ability identifies a damage/mechanic source used to scope death
// attribution. A zero ID means "all abilities on this boss".
type Ability struct {
	Name string `json:"name,omitempty"`
	ID   int    `json:"id"`
}

// Targeted reports whether a specific ability is selected.
func (a Ability) Targeted() bool {
	return a.ID != 0
}

// Fight is one pull of a boss inside a report.
type Fight struct {
	ID          int   `json:"id"`
	EncounterID int   `json:"encounter_id"`
	Difficulty  int   `json:"difficulty"`
	Kill        bool  `json:"kill"`
	StartTime   int64 `json:"start_time"`
	EndTime     int64 `json:"end_time"`
}

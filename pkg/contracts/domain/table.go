package domain

// AggregatedTable is the wide players × dates result of one pipeline
// invocation. Row order is first-seen order across reports processed in
// date order; column order is ascending date. Cells for (player, date)
// pairs with no recorded value are zero, never absent.
type AggregatedTable struct {
	BossName    string   `json:"boss_name"`
	AbilityName string   `json:"ability_name"`
	Dates       []string `json:"dates"`
	Rows        []TableRow `json:"rows"`
}

// TableRow is one player's per-date values plus the row total.
type TableRow struct {
	Player string  `json:"player"`
	Values []int64 `json:"values"`
	Total  int64   `json:"total"`
}

// MetadataRow is the leading CSV row identifying boss and ability,
// padded with blanks to the table width.
func (t *AggregatedTable) MetadataRow() []string {
	row := make([]string, t.Width())
	if len(row) > 1 {
		row[1] = t.BossName
	}
	if len(row) > 2 {
		row[2] = t.AbilityName
	}
	return row
}

// HeaderRow is the column header row: Player, one column per date, Total.
func (t *AggregatedTable) HeaderRow() []string {
	header := make([]string, 0, t.Width())
	header = append(header, "Player")
	header = append(header, t.Dates...)
	header = append(header, "Total")
	return header
}

// Width is the number of columns in the serialized table.
func (t *AggregatedTable) Width() int {
	return len(t.Dates) + 2
}

// Summary carries the counts reported back to the caller after a run.
type Summary struct {
	ReportsProcessed int `json:"reports_processed"`
	DistinctPlayers  int `json:"distinct_players"`
}

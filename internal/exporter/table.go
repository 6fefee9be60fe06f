package exporter

import (
	"strconv"

	"northstar/pkg/contracts/domain"
)

// TableRows serializes an aggregated table into CSV rows: the metadata
// row identifying boss and ability, the column header row, then one row
// per player. Numeric cells are plain integers without separators.
func TableRows(t *domain.AggregatedTable) [][]string {
	rows := make([][]string, 0, len(t.Rows)+2)
	rows = append(rows, t.MetadataRow())
	rows = append(rows, t.HeaderRow())

	for _, r := range t.Rows {
		row := make([]string, 0, t.Width())
		row = append(row, r.Player)
		for _, v := range r.Values {
			row = append(row, strconv.FormatInt(v, 10))
		}
		row = append(row, strconv.FormatInt(r.Total, 10))
		rows = append(rows, row)
	}

	return rows
}

// ExportTableCSV writes the aggregated table to a CSV file.
func (w *CSVWriter) ExportTableCSV(t *domain.AggregatedTable, filename string) error {
	return w.WriteCSV(filename, WriteOptions{
		Rows:      TableRows(t),
		BOMPrefix: true,
	})
}

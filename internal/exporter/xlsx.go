package exporter

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"northstar/internal/config"
	"northstar/pkg/contracts/domain"
)

// XLSXWriter exports aggregated tables as Excel workbooks for operators
// who want native spreadsheets instead of BOM-prefixed CSV.
type XLSXWriter struct {
	paths *config.Paths
}

// NewXLSXWriter creates a new XLSX writer instance
func NewXLSXWriter(paths *config.Paths) *XLSXWriter {
	return &XLSXWriter{paths: paths}
}

// ExportTableXLSX writes the aggregated table to a single-sheet
// workbook. Layout matches the CSV export: metadata row, header row,
// one row per player; numeric cells are written as numbers so Excel
// can sum them.
func (w *XLSXWriter) ExportTableXLSX(t *domain.AggregatedTable, filename string) error {
	fullPath := w.resolvePath(filename)

	if err := os.MkdirAll(filepath.Dir(fullPath), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Summary"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("failed to drop default sheet: %w", err)
	}

	writeRow := func(rowNum int, values []interface{}) error {
		cell, err := excelize.CoordinatesToCellName(1, rowNum)
		if err != nil {
			return err
		}
		return f.SetSheetRow(sheet, cell, &values)
	}

	if err := writeRow(1, stringsToCells(t.MetadataRow())); err != nil {
		return fmt.Errorf("failed to write metadata row: %w", err)
	}
	if err := writeRow(2, stringsToCells(t.HeaderRow())); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, r := range t.Rows {
		cells := make([]interface{}, 0, t.Width())
		cells = append(cells, r.Player)
		for _, v := range r.Values {
			cells = append(cells, v)
		}
		cells = append(cells, r.Total)
		if err := writeRow(i+3, cells); err != nil {
			return fmt.Errorf("failed to write row %d: %w", i, err)
		}
	}

	if err := f.SaveAs(fullPath); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}

	slog.Info("XLSX file written",
		slog.String("path", fullPath),
		slog.Int("players", len(t.Rows)))

	return nil
}

func (w *XLSXWriter) resolvePath(filePath string) string {
	if filepath.IsAbs(filePath) || w.paths == nil {
		return filePath
	}
	return w.paths.GetReportPath(filePath)
}

func stringsToCells(values []string) []interface{} {
	cells := make([]interface{}, len(values))
	for i, v := range values {
		cells[i] = v
	}
	return cells
}

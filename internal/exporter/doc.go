// Package exporter writes aggregated summary tables to disk.
//
// Two writers are provided: CSVWriter emits UTF-8 CSV with an optional
// BOM prefix for Excel compatibility, and XLSXWriter emits a
// single-sheet Excel workbook with the same layout. Both resolve
// relative file names into the configured reports directory.
package exporter

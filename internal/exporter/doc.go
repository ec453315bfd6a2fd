// Package exporter writes result tables to CSV and XLSX files.
//
// A Table is a named grid of typed cells. CSVWriter renders one table per
// file, optionally with a UTF-8 BOM for Excel. WriteXLSX renders one sheet
// per table. Floats are written at full precision in both formats, so
// ReadCSV and ReadXLSX reproduce the exact float64 values that were
// written.
//
// Example usage:
//
//	t := exporter.NewTable("result", "year", "quarter", "mean")
//	t.AddRow(exporter.Int(2022), exporter.Int(1), exporter.Float(0.0012))
//
//	w := exporter.NewCSVWriter(paths.VaRDir, logger)
//	err := w.WriteTable("result.csv", t, exporter.WriteOptions{})
//
//	err = exporter.WriteXLSX(filepath.Join(paths.VaRDir, "result.xlsx"), t)
package exporter

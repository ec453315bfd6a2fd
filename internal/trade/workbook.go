package trade

import (
	"gasrisk/internal/exporter"
)

// Sheet names of the merged trade workbook
const (
	SheetLNG      = "LNG"
	SheetGas      = "Gaseous Gas"
	SheetCombined = "Combined Data"
	SheetNet      = "Net Trade"
)

// RecordsTable renders records in the merged layout
func RecordsTable(name string, records []Record) *exporter.Table {
	t := exporter.NewTable(name, "Country", "Trade Value", "direction", "year", "type")
	for _, r := range records {
		t.AddRow(
			exporter.String(r.Country),
			exporter.Float(r.Value),
			exporter.String(string(r.Direction)),
			exporter.Int(r.Year),
			exporter.String(r.Type),
		)
	}
	return t
}

// NetTable renders net-trade rows
func NetTable(rows []NetRow) *exporter.Table {
	t := exporter.NewTable(SheetNet, "year", "country", "type", "exp", "imp", "net_trade")
	for _, r := range rows {
		t.AddRow(
			exporter.Int(r.Year),
			exporter.String(r.Country),
			exporter.String(r.Type),
			exporter.Float(r.Exports),
			exporter.Float(r.Imports),
			exporter.Float(r.Net),
		)
	}
	return t
}

// WeightsTable renders the weights of one year
func WeightsTable(name string, weights []Weight) *exporter.Table {
	t := exporter.NewTable(name, "country", "net_trade", "weight")
	for _, w := range weights {
		t.AddRow(exporter.String(w.Country), exporter.Float(w.Net), exporter.Float(w.Percent))
	}
	return t
}

// WorkbookTables returns the sheets of the merged workbook. Per-type sheets
// are omitted when the type has no records.
func WorkbookTables(records []Record, net []NetRow) []*exporter.Table {
	var lng, gas []Record
	for _, r := range records {
		switch r.Type {
		case TypeLNG:
			lng = append(lng, r)
		case TypeGas:
			gas = append(gas, r)
		}
	}

	var tables []*exporter.Table
	if len(lng) > 0 {
		tables = append(tables, RecordsTable(SheetLNG, lng))
	}
	if len(gas) > 0 {
		tables = append(tables, RecordsTable(SheetGas, gas))
	}
	return append(tables, RecordsTable(SheetCombined, records), NetTable(net))
}

// WriteWorkbook writes the merged workbook to path
func WriteWorkbook(path string, records []Record, net []NetRow) error {
	return exporter.WriteXLSX(path, WorkbookTables(records, net)...)
}

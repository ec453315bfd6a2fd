package exporter

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// WriteXLSX writes each table to its own sheet of a new workbook at path.
// Floats keep full float64 precision.
func WriteXLSX(path string, tables ...*Table) error {
	if len(tables) == 0 {
		return fmt.Errorf("no tables to write")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	defaultSheet := f.GetSheetName(0)
	for i, t := range tables {
		name := sheetName(t.Name, i)
		if i == 0 {
			if err := f.SetSheetName(defaultSheet, name); err != nil {
				return fmt.Errorf("rename sheet: %w", err)
			}
		} else if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
		if err := writeSheet(f, name, t); err != nil {
			return fmt.Errorf("write sheet %s: %w", name, err)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook: %w", err)
	}
	return nil
}

func writeSheet(f *excelize.File, sheet string, t *Table) error {
	for col, h := range t.Headers {
		ref, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellStr(sheet, ref, h); err != nil {
			return err
		}
	}

	for r, row := range t.Rows {
		for col, c := range row {
			ref, err := excelize.CoordinatesToCellName(col+1, r+2)
			if err != nil {
				return err
			}
			switch c.Kind {
			case KindFloat:
				err = f.SetCellFloat(sheet, ref, c.F, -1, 64)
			case KindInt:
				err = f.SetCellValue(sheet, ref, c.I)
			case KindBool:
				err = f.SetCellValue(sheet, ref, c.B)
			case KindString, KindTime:
				err = f.SetCellStr(sheet, ref, c.Text())
			}
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// sheetName returns a valid sheet name; Excel limits names to 31 characters
func sheetName(name string, idx int) string {
	if name == "" {
		return fmt.Sprintf("Sheet%d", idx+1)
	}
	if r := []rune(name); len(r) > 31 {
		return string(r[:31])
	}
	return name
}

// ReadXLSX reads one sheet as text cells; an empty sheet name selects the
// first sheet. Numeric cells are returned unformatted.
func ReadXLSX(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return textTable(sheet, rows), nil
}

// SheetNames lists the sheets of a workbook in order
func SheetNames(path string) ([]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return f.GetSheetList(), nil
}

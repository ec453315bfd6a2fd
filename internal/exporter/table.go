package exporter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// CellKind is the type of value held by a Cell
type CellKind int

const (
	KindBlank CellKind = iota
	KindFloat
	KindInt
	KindString
	KindTime
	KindBool
)

// Cell is one typed table value
type Cell struct {
	Kind CellKind
	F    float64
	I    int64
	S    string
	T    time.Time
	B    bool
}

// Blank returns an empty cell
func Blank() Cell { return Cell{} }

// Float returns a float cell; NaN and infinities become blank
func Float(v float64) Cell {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Blank()
	}
	return Cell{Kind: KindFloat, F: v}
}

// OptionalFloat returns a float cell when ok, otherwise a blank cell
func OptionalFloat(v float64, ok bool) Cell {
	if !ok {
		return Blank()
	}
	return Float(v)
}

// Int returns an integer cell
func Int(v int) Cell { return Cell{Kind: KindInt, I: int64(v)} }

// String returns a text cell
func String(s string) Cell { return Cell{Kind: KindString, S: s} }

// Time returns a date cell; the zero time becomes blank
func Time(t time.Time) Cell {
	if t.IsZero() {
		return Blank()
	}
	return Cell{Kind: KindTime, T: t}
}

// Bool returns a boolean cell
func Bool(b bool) Cell { return Cell{Kind: KindBool, B: b} }

// Text renders the cell the way it is written to CSV
func (c Cell) Text() string {
	switch c.Kind {
	case KindFloat:
		return formatFloat(c.F)
	case KindInt:
		return formatInt(c.I)
	case KindString:
		return c.S
	case KindTime:
		return formatTime(c.T)
	case KindBool:
		return formatBool(c.B)
	default:
		return ""
	}
}

// Table is a named grid of cells with a header row
type Table struct {
	Name    string
	Headers []string
	Rows    [][]Cell
}

// NewTable creates an empty table
func NewTable(name string, headers ...string) *Table {
	return &Table{Name: name, Headers: headers}
}

// AddRow appends a row. Short rows are padded with blank cells.
func (t *Table) AddRow(cells ...Cell) {
	row := make([]Cell, max(len(t.Headers), len(cells)))
	copy(row, cells)
	t.Rows = append(t.Rows, row)
}

// Len returns the number of data rows
func (t *Table) Len() int {
	return len(t.Rows)
}

// ColumnIndex returns the position of a header, matched case-insensitively
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, h := range t.Headers {
		if strings.EqualFold(h, name) {
			return i, nil
		}
	}
	return -1, fmt.Errorf("table %s has no column %q", t.Name, name)
}

// Floats returns a column as float64 values. Blank cells are NaN; text
// cells, as produced by ReadCSV and ReadXLSX, are parsed.
func (t *Table) Floats(name string) ([]float64, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		var c Cell
		if idx < len(row) {
			c = row[idx]
		}
		switch c.Kind {
		case KindFloat:
			out[i] = c.F
		case KindInt:
			out[i] = float64(c.I)
		case KindBlank:
			out[i] = math.NaN()
		case KindString:
			if strings.TrimSpace(c.S) == "" {
				out[i] = math.NaN()
				continue
			}
			v, err := strconv.ParseFloat(strings.TrimSpace(c.S), 64)
			if err != nil {
				return nil, fmt.Errorf("column %s row %d: %w", name, i+1, err)
			}
			out[i] = v
		default:
			return nil, fmt.Errorf("column %s row %d is not numeric", name, i+1)
		}
	}
	return out, nil
}

// Strings returns a column rendered as text
func (t *Table) Strings(name string) ([]string, error) {
	idx, err := t.ColumnIndex(name)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if idx < len(row) {
			out[i] = row[idx].Text()
		}
	}
	return out, nil
}

// records renders the data rows as text
func (t *Table) records() [][]string {
	out := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rec := make([]string, len(row))
		for j, c := range row {
			rec[j] = c.Text()
		}
		out[i] = rec
	}
	return out
}

// textTable builds a table of text cells from raw rows, the first being the
// header.
func textTable(name string, rows [][]string) *Table {
	t := &Table{Name: name}
	if len(rows) == 0 {
		return t
	}
	t.Headers = append([]string(nil), rows[0]...)
	for _, rec := range rows[1:] {
		cells := make([]Cell, len(rec))
		for i, v := range rec {
			if v == "" {
				cells[i] = Blank()
				continue
			}
			cells[i] = String(v)
		}
		t.AddRow(cells...)
	}
	return t
}

package exporter

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// resultTable mirrors the columns of the VaR result table
func resultTable() *Table {
	t := NewTable("result", "year", "quarter", "date", "mean", "long_var", "long_cvar", "abs_ratio")
	t.AddRow(Int(2022), Int(1), Time(time.Date(2022, 1, 15, 0, 0, 0, 0, time.UTC)),
		Float(0.0012345678901234567), Float(-0.0712345678901234), Float(-0.08512345678901234), Float(12.5))
	t.AddRow(Int(2022), Int(2), Time(time.Date(2022, 4, 15, 0, 0, 0, 0, time.UTC)),
		Float(0), Float(-1.0/3.0), Float(-math.Pi/10), OptionalFloat(0, false))
	return t
}

func TestTable_AddRowPads(t *testing.T) {
	tbl := NewTable("t", "a", "b", "c")
	tbl.AddRow(Int(1))
	require.Len(t, tbl.Rows[0], 3)
	assert.Equal(t, KindBlank, tbl.Rows[0][2].Kind)
}

func TestTable_Floats(t *testing.T) {
	tbl := resultTable()

	got, err := tbl.Floats("abs_ratio")
	require.NoError(t, err)
	assert.Equal(t, 12.5, got[0])
	assert.True(t, math.IsNaN(got[1]))

	_, err = tbl.Floats("missing")
	assert.Error(t, err)

	_, err = tbl.Floats("date")
	assert.Error(t, err, "time cells are not numeric")
}

func TestCSVWriter_WriteTable(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, nil)

	tests := []struct {
		name    string
		file    string
		options WriteOptions
		check   func(t *testing.T, content []byte)
	}{
		{
			name:    "plain",
			file:    "result.csv",
			options: WriteOptions{},
			check: func(t *testing.T, content []byte) {
				assert.Contains(t, string(content), "year,quarter,date,mean,long_var,long_cvar,abs_ratio\n")
				assert.Contains(t, string(content), "2022,2,2022-04-15,0,-0.3333333333333333,")
				assert.Contains(t, string(content), ",\n", "undefined ratio is a blank cell")
			},
		},
		{
			name:    "with BOM",
			file:    "nested/bom.csv",
			options: WriteOptions{BOMPrefix: true},
			check: func(t *testing.T, content []byte) {
				assert.Equal(t, []byte{0xEF, 0xBB, 0xBF}, content[:3])
			},
		},
		{
			name:    "semicolon",
			file:    "semi.csv",
			options: WriteOptions{Comma: ';'},
			check: func(t *testing.T, content []byte) {
				assert.Contains(t, string(content), "year;quarter;date")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path, err := writer.WriteTable(tt.file, resultTable(), tt.options)
			require.NoError(t, err)
			assert.Equal(t, filepath.Join(dir, tt.file), path)

			content, err := os.ReadFile(path)
			require.NoError(t, err)
			tt.check(t, content)
		})
	}
}

func TestCSVWriter_Overwrites(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, nil)

	_, err := writer.WriteCSV("log.csv", WriteOptions{Headers: []string{"a"}, Records: [][]string{{"1"}, {"3"}}})
	require.NoError(t, err)
	path, err := writer.WriteCSV("log.csv", WriteOptions{Headers: []string{"a"}, Records: [][]string{{"2"}}})
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a\n2\n", string(content))
}

func TestCSVRoundTrip(t *testing.T) {
	dir := t.TempDir()
	writer := NewCSVWriter(dir, nil)
	want := resultTable()

	path, err := writer.WriteTable("result.csv", want, WriteOptions{BOMPrefix: true})
	require.NoError(t, err)

	got, err := ReadCSV(path, 0)
	require.NoError(t, err)
	assert.Equal(t, want.Headers, got.Headers)
	require.Equal(t, want.Len(), got.Len())

	for _, col := range []string{"year", "quarter", "mean", "long_var", "long_cvar"} {
		w, err := want.Floats(col)
		require.NoError(t, err)
		g, err := got.Floats(col)
		require.NoError(t, err)
		assert.Equal(t, w, g, "column %s", col)
	}

	dates, err := got.Strings("date")
	require.NoError(t, err)
	assert.Equal(t, []string{"2022-01-15", "2022-04-15"}, dates)
}

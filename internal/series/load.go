package series

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	apperrors "gasrisk/internal/errors"
)

// Default column names of the price table
const (
	DefaultTimeColumn   = "time"
	DefaultCloseColumn  = "close"
	DefaultRegimeColumn = "Dummy"
)

// LoadOptions controls how a price table is read
type LoadOptions struct {
	// Sheet selects the workbook sheet; empty uses the first sheet.
	Sheet string
	// Separator is the field delimiter of text tables; zero means ','.
	Separator rune

	TimeColumn   string
	CloseColumn  string
	RegimeColumn string
}

func (o LoadOptions) withDefaults() LoadOptions {
	if o.Separator == 0 {
		o.Separator = ','
	}
	if o.TimeColumn == "" {
		o.TimeColumn = DefaultTimeColumn
	}
	if o.CloseColumn == "" {
		o.CloseColumn = DefaultCloseColumn
	}
	if o.RegimeColumn == "" {
		o.RegimeColumn = DefaultRegimeColumn
	}
	return o
}

// Loader reads price tables from workbooks and delimited text files
type Loader struct {
	logger *slog.Logger
}

// NewLoader creates a new price table loader
func NewLoader(logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger.With("component", "series_loader")}
}

// Load reads the table at path, dispatching on its extension
func (l *Loader) Load(ctx context.Context, path string, opts LoadOptions) (*Series, error) {
	opts = opts.withDefaults()
	start := time.Now()

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("price file").WithContext("path", path)
		}
		return nil, apperrors.NewStorageError("stat price file", err).WithContext("path", path)
	}

	var (
		rows [][]string
		err  error
	)
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".xlsx", ".xlsm":
		rows, err = readWorkbookRows(path, opts.Sheet)
	case ".csv", ".txt":
		rows, err = readDelimitedRows(path, opts.Separator)
	default:
		return nil, apperrors.NewAppValidationError(fmt.Sprintf("unsupported price file extension %q", ext)).
			WithContext("path", path)
	}
	if err != nil {
		return nil, apperrors.NewParsingError("read price table", err).WithContext("path", path)
	}

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("context cancelled during price loading: %w", err)
	}

	obs, skipped, err := parseRows(rows, opts)
	if err != nil {
		var bad *NonPositiveCloseError
		if errors.As(err, &bad) {
			return nil, apperrors.NewAppError(apperrors.ErrTypeValidation, "price table has a non-positive close", err).
				WithContext("path", path).
				WithContext("line", bad.Line)
		}
		return nil, apperrors.NewParsingError("parse price table", err).WithContext("path", path)
	}

	s, err := New(obs)
	if err != nil {
		var dup *DuplicateTimestampError
		if errors.As(err, &dup) {
			return nil, apperrors.NewAppError(apperrors.ErrTypeValidation, "price table has duplicate timestamps", err).
				WithContext("path", path)
		}
		return nil, err
	}

	if skipped > 0 {
		l.logger.WarnContext(ctx, "skipped incomplete price rows",
			"path", path,
			"skipped", skipped,
		)
	}
	l.logger.InfoContext(ctx, "price table loaded",
		"path", path,
		"observations", s.Len(),
		"first", s.First().Format("2006-01-02"),
		"last", s.Last().Format("2006-01-02"),
		"duration", time.Since(start),
	)

	return s, nil
}

// readWorkbookRows returns raw cell values so date cells arrive as serials
func readWorkbookRows(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	return rows, nil
}

func readDelimitedRows(path string, sep rune) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = sep
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read CSV: %w", err)
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// parseRows maps the header row and converts every data row. Rows with a
// blank time or close are counted as skipped.
func parseRows(rows [][]string, opts LoadOptions) ([]Observation, int, error) {
	if len(rows) == 0 {
		return nil, 0, fmt.Errorf("table is empty")
	}

	cols := mapHeader(rows[0])
	timeIdx, ok := cols[strings.ToLower(opts.TimeColumn)]
	if !ok {
		return nil, 0, fmt.Errorf("missing column %q", opts.TimeColumn)
	}
	closeIdx, ok := cols[strings.ToLower(opts.CloseColumn)]
	if !ok {
		return nil, 0, fmt.Errorf("missing column %q", opts.CloseColumn)
	}
	regimeIdx, hasRegime := cols[strings.ToLower(opts.RegimeColumn)]

	obs := make([]Observation, 0, len(rows)-1)
	skipped := 0
	for i, record := range rows[1:] {
		lineNum := i + 2
		timeStr := cell(record, timeIdx)
		closeStr := cell(record, closeIdx)
		if timeStr == "" || closeStr == "" {
			skipped++
			continue
		}

		t, err := ParseDate(timeStr)
		if err != nil {
			return nil, 0, fmt.Errorf("parse %s (line %d): %w", opts.TimeColumn, lineNum, err)
		}
		closePrice, err := parseFloat(closeStr, opts.CloseColumn, lineNum)
		if err != nil {
			return nil, 0, err
		}

		if closePrice <= 0 {
			return nil, 0, &NonPositiveCloseError{Line: lineNum, Close: closePrice}
		}

		o := Observation{Time: t, Close: closePrice}
		if hasRegime {
			if s := cell(record, regimeIdx); s != "" {
				flag, err := parseFloat(s, opts.RegimeColumn, lineNum)
				if err != nil {
					return nil, 0, err
				}
				if flag != 0 {
					o.Regime = War
				}
			}
		}
		if !o.IsValid() {
			skipped++
			continue
		}
		obs = append(obs, o)
	}
	return obs, skipped, nil
}

func mapHeader(header []string) map[string]int {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimPrefix(h, "\ufeff")
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return cols
}

func cell(record []string, idx int) string {
	if idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

// dateFormats are tried in order by ParseDate
var dateFormats = []string{
	"2006-01-02",
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339,
	"02/01/2006",
	"2/1/2006",
	"02.01.2006",
	"2006.01.02",
}

// ParseDate parses ISO dates, day/month/year dates and Excel serial numbers
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateFormats {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}

	// Excel serial date, as returned for raw date cells
	if serial, err := strconv.ParseFloat(s, 64); err == nil && serial > 0 {
		t, err := excelize.ExcelDateToTime(serial, false)
		if err == nil {
			return t.Round(time.Second), nil
		}
	}

	return time.Time{}, fmt.Errorf("unable to parse date: %s", s)
}

// parseFloat parses a float value with error context. A decimal comma is
// accepted when no dot is present.
func parseFloat(str, fieldName string, lineNum int) (float64, error) {
	str = strings.TrimSpace(str)
	value, err := strconv.ParseFloat(str, 64)
	if err != nil && strings.Contains(str, ",") && !strings.Contains(str, ".") {
		value, err = strconv.ParseFloat(strings.Replace(str, ",", ".", 1), 64)
	}
	if err != nil {
		return 0, fmt.Errorf("parse %s (line %d): %w", fieldName, lineNum, err)
	}
	if math.IsInf(value, 0) {
		return 0, fmt.Errorf("parse %s (line %d): infinite value", fieldName, lineNum)
	}
	return value, nil
}

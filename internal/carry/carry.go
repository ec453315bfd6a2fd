// Package carry expresses historical prices at a common reference date
// using a risk-free rate table and continuous compounding.
package carry

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	apperrors "gasrisk/internal/errors"
	"gasrisk/internal/series"
)

// Defaults of the rate table format
const (
	DefaultSeparator  = ';'
	DefaultDateLayout = "02/01/2006"
	DefaultDayCount   = 360
)

// Rate is one rate observation in percent
type Rate struct {
	Time    time.Time `json:"time"`
	Percent float64   `json:"percent"`
}

// Table is a time-ordered rate table
type Table struct {
	rates []Rate
}

// NewTable sorts rates by time. For duplicate dates the last one wins.
func NewTable(rates []Rate) *Table {
	sorted := append([]Rate(nil), rates...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Time.Before(sorted[j].Time) })

	out := sorted[:0]
	for _, r := range sorted {
		if n := len(out); n > 0 && out[n-1].Time.Equal(r.Time) {
			out[n-1] = r
			continue
		}
		out = append(out, r)
	}
	return &Table{rates: out}
}

// Len returns the number of rates
func (t *Table) Len() int {
	return len(t.rates)
}

// Rates returns a copy of the table
func (t *Table) Rates() []Rate {
	return append([]Rate(nil), t.rates...)
}

// RateAt returns the rate of the latest date not after at. ok is false
// when the table has no such date.
func (t *Table) RateAt(at time.Time) (rate float64, ok bool) {
	i := sort.Search(len(t.rates), func(i int) bool { return t.rates[i].Time.After(at) })
	if i == 0 {
		return 0, false
	}
	return t.rates[i-1].Percent, true
}

// LoadOptions controls how a rate table is read
type LoadOptions struct {
	Separator  rune
	DateLayout string
}

// LoadRates reads a "time;close" rate table
func LoadRates(ctx context.Context, path string, opts LoadOptions, logger *slog.Logger) (*Table, error) {
	if opts.Separator == 0 {
		opts.Separator = DefaultSeparator
	}
	if opts.DateLayout == "" {
		opts.DateLayout = DefaultDateLayout
	}
	if logger == nil {
		logger = slog.Default()
	}

	file, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, apperrors.NewNotFoundError("carry rate file").WithContext("path", path)
		}
		return nil, apperrors.NewStorageError("open carry rate file", err).WithContext("path", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.Comma = opts.Separator
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewParsingError("read carry rate header", err).WithContext("path", path)
	}
	timeIdx, closeIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "time":
			timeIdx = i
		case "close":
			closeIdx = i
		}
	}
	if timeIdx < 0 || closeIdx < 0 {
		return nil, apperrors.NewParsingError("carry rate table needs time and close columns", nil).
			WithContext("path", path)
	}

	var rates []Rate
	for lineNum := 2; ; lineNum++ {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during rate loading: %w", err)
		}
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("read carry rate table", err).WithContext("path", path)
		}
		if timeIdx >= len(record) || closeIdx >= len(record) {
			continue
		}
		ts, value := strings.TrimSpace(record[timeIdx]), strings.TrimSpace(record[closeIdx])
		if ts == "" || value == "" {
			continue
		}

		t, err := time.Parse(opts.DateLayout, ts)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("parse time (line %d)", lineNum), err).
				WithContext("path", path)
		}
		pct, err := strconv.ParseFloat(strings.Replace(value, ",", ".", 1), 64)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("parse close (line %d)", lineNum), err).
				WithContext("path", path)
		}
		rates = append(rates, Rate{Time: t, Percent: pct})
	}

	table := NewTable(rates)
	logger.InfoContext(ctx, "carry rates loaded", "path", path, "rates", table.Len())
	return table, nil
}

// AdjustedPrice is a price expressed at the reference date
type AdjustedPrice struct {
	series.Observation
	Rate      float64 `json:"carry_rate"`
	DaysToRef int     `json:"days_to_ref"`
	// Adjusted is close*exp(rate/100*days/dayCount); NaN when HasRate is false.
	Adjusted float64 `json:"price_with_carry"`
	HasRate  bool    `json:"has_rate"`
}

// Adjust carries every close of s forward to the last observation's date.
// Observations before the first rate keep HasRate false and a NaN price.
func Adjust(s *series.Series, table *Table, dayCount int) []AdjustedPrice {
	if dayCount <= 0 {
		dayCount = DefaultDayCount
	}
	ref := s.Last()
	out := make([]AdjustedPrice, 0, s.Len())
	for _, o := range s.Observations() {
		days := int(ref.Sub(o.Time).Hours() / 24)
		p := AdjustedPrice{Observation: o, DaysToRef: days, Adjusted: math.NaN()}
		if rate, ok := table.RateAt(o.Time); ok {
			p.Rate = rate
			p.HasRate = true
			p.Adjusted = o.Close * math.Exp(rate/100*float64(days)/float64(dayCount))
		}
		out = append(out, p)
	}
	return out
}

// AdjustedValues returns the adjusted prices of one regime, skipping
// observations without a rate.
func AdjustedValues(prices []AdjustedPrice, regime series.Regime) []float64 {
	var out []float64
	for _, p := range prices {
		if p.HasRate && p.Regime == regime {
			out = append(out, p.Adjusted)
		}
	}
	return out
}

// Package trade merges natural-gas export and import tables and derives
// net-trade weights per country.
package trade

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	apperrors "gasrisk/internal/errors"
)

// Direction of a trade flow
type Direction string

const (
	Export Direction = "export"
	Import Direction = "import"
)

// Gas types
const (
	TypeLNG = "LNG"
	TypeGas = "GAS"
)

// productNames are the product parts of the source file names
var productNames = map[string]string{
	TypeLNG: "Natural-gas-liquefied",
	TypeGas: "Natural-gas-in-gaseous-state",
}

// Record is one country row of a trade table
type Record struct {
	Country   string    `json:"country"`
	Value     float64   `json:"trade_value"`
	Direction Direction `json:"direction"`
	Year      int       `json:"year"`
	Type      string    `json:"type"`
}

// Source identifies one trade table file
type Source struct {
	Direction Direction
	Year      int
	Type      string
}

// FileName returns the file name of the source under its type directory
func (s Source) FileName() string {
	prefix := "Exporters"
	if s.Direction == Import {
		prefix = "Importers"
	}
	return fmt.Sprintf("%s-of-%s-%d-Click-to-Select-a-Country.csv", prefix, productNames[s.Type], s.Year)
}

// Path returns the location of the source under dir
func (s Source) Path(dir string) string {
	return filepath.Join(dir, s.Type, s.FileName())
}

// Sources lists both directions of every year and type
func Sources(years []int, types []string) []Source {
	var out []Source
	for _, typ := range types {
		for _, y := range years {
			out = append(out,
				Source{Direction: Export, Year: y, Type: typ},
				Source{Direction: Import, Year: y, Type: typ},
			)
		}
	}
	return out
}

// Loader reads trade tables from a directory tree
type Loader struct {
	dir    string
	logger *slog.Logger
}

// NewLoader creates a loader for tables under dir
func NewLoader(dir string, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{dir: dir, logger: logger.With("component", "trade_loader")}
}

// Load reads every source. Missing files are logged and skipped.
func (l *Loader) Load(ctx context.Context, sources []Source) ([]Record, error) {
	var records []Record
	missing := 0
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during trade loading: %w", err)
		}
		path := src.Path(l.dir)
		recs, err := readTable(path, src)
		if err != nil {
			if apperrors.IsType(err, apperrors.ErrTypeNotFound) {
				l.logger.WarnContext(ctx, "trade file not found", "path", path)
				missing++
				continue
			}
			return nil, err
		}
		records = append(records, recs...)
	}

	l.logger.InfoContext(ctx, "trade tables loaded",
		"sources", len(sources),
		"missing", missing,
		"records", len(records),
	)
	return records, nil
}

func readTable(path string, src Source) ([]Record, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, apperrors.NewNotFoundError("trade file").WithContext("path", path)
		}
		return nil, apperrors.NewStorageError("open trade file", err).WithContext("path", path)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	header, err := reader.Read()
	if err != nil {
		return nil, apperrors.NewParsingError("read trade header", err).WithContext("path", path)
	}
	countryIdx, valueIdx := -1, -1
	for i, h := range header {
		switch strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))) {
		case "country":
			countryIdx = i
		case "trade value":
			valueIdx = i
		}
	}
	if countryIdx < 0 || valueIdx < 0 {
		return nil, apperrors.NewParsingError("trade table needs Country and Trade Value columns", nil).
			WithContext("path", path)
	}

	var out []Record
	for line := 2; ; line++ {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, apperrors.NewParsingError("read trade table", err).WithContext("path", path)
		}
		if countryIdx >= len(rec) || valueIdx >= len(rec) {
			continue
		}
		country := strings.TrimSpace(rec[countryIdx])
		raw := strings.TrimSpace(rec[valueIdx])
		if country == "" || raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return nil, apperrors.NewParsingError(fmt.Sprintf("parse Trade Value (line %d)", line), err).
				WithContext("path", path)
		}
		out = append(out, Record{Country: country, Value: v, Direction: src.Direction, Year: src.Year, Type: src.Type})
	}
	return out, nil
}

// NetRow is the trade balance of one country, year and type
type NetRow struct {
	Year    int     `json:"year"`
	Country string  `json:"country"`
	Type    string  `json:"type"`
	Exports float64 `json:"exp"`
	Imports float64 `json:"imp"`
	Net     float64 `json:"net_trade"`
}

// NetTrade sums exports and imports for every country (in order of first
// appearance) and every year and type combination. Absent flows count as 0.
func NetTrade(records []Record, years []int, types []string) []NetRow {
	type key struct {
		country string
		year    int
		typ     string
	}
	exp := make(map[key]float64)
	imp := make(map[key]float64)
	var countries []string
	seen := make(map[string]bool)
	for _, r := range records {
		if !seen[r.Country] {
			seen[r.Country] = true
			countries = append(countries, r.Country)
		}
		k := key{r.Country, r.Year, r.Type}
		if r.Direction == Export {
			exp[k] += r.Value
		} else {
			imp[k] += r.Value
		}
	}

	out := make([]NetRow, 0, len(countries)*len(years)*len(types))
	for _, c := range countries {
		for _, y := range years {
			for _, typ := range types {
				k := key{c, y, typ}
				out = append(out, NetRow{
					Year:    y,
					Country: c,
					Type:    typ,
					Exports: exp[k],
					Imports: imp[k],
					Net:     exp[k] - imp[k],
				})
			}
		}
	}
	return out
}

// Weight is a country's share of the selected absolute net trade
type Weight struct {
	Country string  `json:"country"`
	Net     float64 `json:"net_trade"`
	// Percent is Net over the summed absolute Net of all selected countries.
	Percent float64 `json:"weight"`
}

// TopWeights combines all types per country for year and keeps the k
// largest net exporters followed by the k largest net importers.
func TopWeights(rows []NetRow, year, k int) []Weight {
	totals := make(map[string]float64)
	var order []string
	for _, r := range rows {
		if r.Year != year {
			continue
		}
		if _, ok := totals[r.Country]; !ok {
			order = append(order, r.Country)
		}
		totals[r.Country] += r.Net
	}

	var exporters, importers []Weight
	for _, c := range order {
		switch n := totals[c]; {
		case n > 0:
			exporters = append(exporters, Weight{Country: c, Net: n})
		case n < 0:
			importers = append(importers, Weight{Country: c, Net: n})
		}
	}
	sort.SliceStable(exporters, func(i, j int) bool { return exporters[i].Net > exporters[j].Net })
	sort.SliceStable(importers, func(i, j int) bool { return importers[i].Net < importers[j].Net })
	if len(exporters) > k {
		exporters = exporters[:k]
	}
	if len(importers) > k {
		importers = importers[:k]
	}

	selected := append(exporters, importers...)
	var totalAbs float64
	for _, w := range selected {
		if w.Net < 0 {
			totalAbs -= w.Net
		} else {
			totalAbs += w.Net
		}
	}
	for i := range selected {
		selected[i].Percent = selected[i].Net / totalAbs * 100
	}
	return selected
}

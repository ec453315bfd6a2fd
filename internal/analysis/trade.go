package analysis

import (
	"context"
	"fmt"

	"gasrisk/internal/chart"
	"gasrisk/internal/config"
	"gasrisk/internal/exporter"
	"gasrisk/internal/trade"
	"gasrisk/internal/validation"
)

// TradeAnalysis merges gas trade tables and charts net-trade weights
type TradeAnalysis struct{}

// CheckInputs implements InputChecker. Individual trade files may be
// missing; the directory may not.
func (TradeAnalysis) CheckInputs(v *validation.FileValidator, paths *config.Paths) error {
	_, err := v.ValidateInputDirectory("trade directory", paths.TradeDir, "*/*.csv")
	return err
}

// Kind implements Analysis
func (TradeAnalysis) Kind() Kind { return KindTrade }

// Run implements Analysis
func (TradeAnalysis) Run(ctx context.Context, env *Env) (*Result, error) {
	cfg := env.Config.Trade
	out := env.artifacts(KindTrade, env.Paths.TradeOutputDir)

	loader := trade.NewLoader(env.Paths.TradeDir, env.Logger)
	records, err := loader.Load(ctx, trade.Sources(cfg.Years, cfg.Types))
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("no trade tables found under %s", env.Paths.TradeDir)
	}

	// Net trade uses the GAS, LNG order of the merged workbook
	types := orderedTypes(cfg.Types)
	net := trade.NetTrade(records, cfg.Years, types)
	if err := out.xlsx(ctx, "merged_data.xlsx", trade.WorkbookTables(records, net)...); err != nil {
		return nil, err
	}

	var weightTables []*exporter.Table
	for _, year := range cfg.Years {
		weights := trade.TopWeights(net, year, cfg.TopN)
		if len(weights) == 0 {
			env.Logger.WarnContext(ctx, "no net trade for year", "year", year)
			continue
		}
		weightTables = append(weightTables, trade.WeightsTable(fmt.Sprintf("Weights %d", year), weights))

		labels := make([]string, len(weights))
		values := make([]float64, len(weights))
		for i, w := range weights {
			labels[i], values[i] = w.Country, w.Percent
		}
		if err := out.chart(ctx, fmt.Sprintf("weights_%d.png", year), chart.Bars{
			Title:  fmt.Sprintf("Global shares of LNG and pipeline net gas balance (+/- top %d) - %d", cfg.TopN, year),
			XLabel: "Country",
			YLabel: "World trade share (natural gas) (%)",
			Labels: labels,
			Series: []chart.BarSeries{{
				Label:         "Positive weights",
				Values:        values,
				Color:         chart.Green,
				NegativeColor: chart.Orange,
			}},
			ValueFormat: "%.1f%%",
			Size:        chart.Size{Width: 15, Height: 8},
		}); err != nil {
			return nil, err
		}
	}
	if len(weightTables) > 0 {
		if err := out.xlsx(ctx, "weights.xlsx", weightTables...); err != nil {
			return nil, err
		}
	}
	return out.result, nil
}

func orderedTypes(types []string) []string {
	var out []string
	for _, want := range []string{trade.TypeGas, trade.TypeLNG} {
		for _, t := range types {
			if t == want {
				out = append(out, t)
				break
			}
		}
	}
	return out
}

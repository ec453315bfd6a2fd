package analysis

import (
	"context"
	"math"

	"gasrisk/internal/carry"
	"gasrisk/internal/chart"
	"gasrisk/internal/config"
	"gasrisk/internal/exporter"
	"gasrisk/internal/series"
	"gasrisk/internal/stats"
	"gasrisk/internal/validation"
)

// DescriptiveAnalysis summarizes carry-adjusted prices per regime
type DescriptiveAnalysis struct{}

// CheckInputs implements InputChecker
func (DescriptiveAnalysis) CheckInputs(v *validation.FileValidator, paths *config.Paths) error {
	if err := v.ValidatePriceFile(paths.PriceFile); err != nil {
		return err
	}
	return v.ValidateFile("carry rate file", paths.CarryFile)
}

// Kind implements Analysis
func (DescriptiveAnalysis) Kind() Kind { return KindDescriptive }

// Run implements Analysis
func (DescriptiveAnalysis) Run(ctx context.Context, env *Env) (*Result, error) {
	s, err := env.Inputs.Series(ctx)
	if err != nil {
		return nil, err
	}
	rates, err := env.Inputs.Rates(ctx)
	if err != nil {
		return nil, err
	}
	dayCount := env.Config.Carry.DayCount
	out := env.artifacts(KindDescriptive, env.Paths.DescriptiveDir)

	adjusted := carry.Adjust(s, rates, dayCount)
	missing := 0
	pricesTable := exporter.NewTable("prices_with_carry", "time", "close", "Dummy", "year",
		"carry_rate", "days_to_ref", "time_fraction", "price_with_carry")
	for _, p := range adjusted {
		if !p.HasRate {
			missing++
		}
		pricesTable.AddRow(
			exporter.Time(p.Time),
			exporter.Float(p.Close),
			exporter.Int(int(p.Regime)),
			exporter.Int(p.Time.Year()),
			exporter.OptionalFloat(p.Rate, p.HasRate),
			exporter.Int(p.DaysToRef),
			exporter.Float(float64(p.DaysToRef)/float64(dayCount)),
			exporter.Float(p.Adjusted),
		)
	}
	if missing > 0 {
		env.Logger.WarnContext(ctx, "observations without a prior carry rate",
			"missing", missing,
			"first_rate", firstRate(rates),
		)
	}
	if err := out.csv(ctx, "prices_with_carry.csv", pricesTable); err != nil {
		return nil, err
	}

	war := carry.AdjustedValues(adjusted, series.War)
	nonWar := carry.AdjustedValues(adjusted, series.NonWar)
	warSummary := stats.Describe(war)
	nonWarSummary := stats.Describe(nonWar)

	summaryTable := exporter.NewTable("Summary", "regime", "count", "mean", "std", "min",
		"25%", "50%", "75%", "max", "skew")
	for _, row := range []struct {
		regime series.Regime
		s      stats.Summary
	}{{series.War, warSummary}, {series.NonWar, nonWarSummary}} {
		summaryTable.AddRow(
			exporter.String(row.regime.String()),
			exporter.Int(row.s.Count),
			exporter.Float(row.s.Mean),
			exporter.Float(row.s.Std),
			exporter.Float(row.s.Min),
			exporter.Float(row.s.Q25),
			exporter.Float(row.s.Q50),
			exporter.Float(row.s.Q75),
			exporter.Float(row.s.Max),
			exporter.Float(row.s.Skew),
		)
		env.Logger.InfoContext(ctx, "descriptive statistics with cost of carry",
			"regime", row.regime.String(),
			"count", row.s.Count,
			"mean", finiteOrZero(row.s.Mean),
			"std", finiteOrZero(row.s.Std),
			"skew", finiteOrZero(row.s.Skew),
		)
	}
	if err := out.xlsx(ctx, "descriptive.xlsx", summaryTable); err != nil {
		return nil, err
	}

	if stats.NewKDE(war) == nil && stats.NewKDE(nonWar) == nil {
		env.Logger.WarnContext(ctx, "not enough carry-adjusted prices for a density chart")
		return out.result, nil
	}
	if err := out.chart(ctx, "distributions_with_carry.png", chart.Density{
		Title:  "Price distribution comparison (cost of carry adjusted)",
		XLabel: "Close (EUR)",
		Groups: []chart.DensityGroup{
			{Label: "War period", Values: war, Color: chart.Red, MeanLabel: "Mean (war): %.2f EUR"},
			{Label: "Non-war period", Values: nonWar, Color: chart.Blue, MeanLabel: "Mean (non-war): %.2f EUR"},
		},
		MeanMarkers: true,
		Size:        chart.Size{Width: 10, Height: 6},
	}); err != nil {
		return nil, err
	}
	return out.result, nil
}

func firstRate(t *carry.Table) string {
	rates := t.Rates()
	if len(rates) == 0 {
		return ""
	}
	return rates[0].Time.Format("2006-01-02")
}

// finiteOrZero keeps log values JSON-encodable
func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

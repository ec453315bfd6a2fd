package analysis

import (
	"context"
	"fmt"
	"math"

	"gasrisk/internal/chart"
	"gasrisk/internal/config"
	"gasrisk/internal/exporter"
	"gasrisk/internal/risk"
	"gasrisk/internal/series"
	"gasrisk/internal/stats"
	"gasrisk/internal/validation"
)

// SemiVarianceAnalysis reports short-position downside risk two ways: the
// rolling variance of negative-filtered returns, and the rolling downside
// semi-variance split by regime.
type SemiVarianceAnalysis struct{}

// CheckInputs implements InputChecker
func (SemiVarianceAnalysis) CheckInputs(v *validation.FileValidator, paths *config.Paths) error {
	return v.ValidatePriceFile(paths.PriceFile)
}

// Kind implements Analysis
func (SemiVarianceAnalysis) Kind() Kind { return KindSemiVariance }

// Run implements Analysis
func (SemiVarianceAnalysis) Run(ctx context.Context, env *Env) (*Result, error) {
	s, err := env.Inputs.Series(ctx)
	if err != nil {
		return nil, err
	}
	cfg := env.Config.SemiVariance
	out := env.artifacts(KindSemiVariance, env.Paths.SemiVarianceDir)

	// Filtered rolling variance, returns recomputed on the year range
	sub := s.FilterYears(cfg.StartYear, cfg.EndYear)
	if sub.Len() == 0 {
		return nil, fmt.Errorf("no observations between %d and %d", cfg.StartYear, cfg.EndYear)
	}
	short := sub.ShortReturns()
	filtered := risk.NegativeFilter(short)
	sv := risk.RollingFilteredVariance(short, cfg.Window)

	priceTable := exporter.NewTable("Price Analysis", "time", "close", "Dummy", "year", "month", "day",
		"returns", "filtered_ret", "semi_variance")
	for i, o := range sub.Observations() {
		priceTable.AddRow(
			exporter.Time(o.Time),
			exporter.Float(o.Close),
			exporter.Int(int(o.Regime)),
			exporter.Int(o.Time.Year()),
			exporter.Int(int(o.Time.Month())),
			exporter.Int(o.Time.Day()),
			exporter.Float(short[i]),
			exporter.Float(filtered[i]),
			exporter.Float(sv[i]),
		)
	}

	// Downside semi-variance over the full series
	times := s.Times()[1:]
	regimes := s.Regimes()[1:]
	downside := risk.RollingDownsideSemiVariance(series.DropNaN(s.ShortReturns()), cfg.DownsideWindow)

	downsideTable := exporter.NewTable("Downside", "time", "Dummy", "semi_variance")
	var war, nonWar []float64
	for i, v := range downside {
		downsideTable.AddRow(exporter.Time(times[i]), exporter.Int(int(regimes[i])), exporter.Float(v))
		if math.IsNaN(v) {
			continue
		}
		if regimes[i] == series.War {
			war = append(war, v)
		} else {
			nonWar = append(nonWar, v)
		}
	}

	if err := out.xlsx(ctx, "semivariance.xlsx", priceTable, downsideTable); err != nil {
		return nil, err
	}

	env.Logger.InfoContext(ctx, "downside semi-variance by regime",
		"war_mean", meanOf(war),
		"non_war_mean", meanOf(nonWar),
		"window", cfg.DownsideWindow,
	)

	if !hasFinite(sv) || !hasFinite(downside) {
		env.Logger.WarnContext(ctx, "series shorter than the rolling windows, charts skipped",
			"observations", s.Len(),
			"window", cfg.Window,
			"downside_window", cfg.DownsideWindow,
		)
		return out.result, nil
	}

	if err := out.chart(ctx, "SV.png", chart.TimeSeries{
		Title:      fmt.Sprintf("%d-day rolling SV (%d - %d), short", cfg.Window, cfg.StartYear, cfg.EndYear),
		XLabel:     "Year",
		YLabel:     "Semi-variance",
		Lines:      []chart.Line{{Label: "Semi-variance", Times: sub.Times(), Values: sv, Color: chart.Blue}},
		Events:     env.Events,
		TimeFormat: "2006",
	}); err != nil {
		return nil, err
	}

	if err := out.chart(ctx, "short_semi_variance_timeseries.png", chart.TimeSeries{
		Title:  "Short exposure semi-variance, price increase = loss",
		YLabel: "Semi-variance",
		Lines:  []chart.Line{{Times: times, Values: downside, Color: darkRed}},
		Events: env.Events,
		Size:   chart.Size{Width: 14, Height: 5},
	}); err != nil {
		return nil, err
	}

	if stats.NewKDE(war) == nil && stats.NewKDE(nonWar) == nil {
		env.Logger.WarnContext(ctx, "not enough semi-variance values for a density chart")
		return out.result, nil
	}
	if err := out.chart(ctx, "short_semi_variance_density.png", chart.Density{
		Title:  "Short exposure semi-variance distribution",
		XLabel: "Semi-variance",
		Groups: []chart.DensityGroup{
			{Label: "Non-conflict periods", Values: nonWar, Color: chart.Green, MeanLabel: "Mean (non-conflict): %.5f"},
			{Label: "Conflict periods", Values: war, Color: darkRed, MeanLabel: "Mean (conflict): %.5f"},
		},
		MeanMarkers: true,
		Size:        chart.Size{Width: 10, Height: 5},
	}); err != nil {
		return nil, err
	}
	return out.result, nil
}

package analysis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"gasrisk/internal/chart"
	"gasrisk/internal/config"
	apperrors "gasrisk/internal/errors"
	"gasrisk/internal/exporter"
	"gasrisk/internal/series"
	"gasrisk/internal/stats"
	"gasrisk/internal/validation"
)

// VarianceAnalysis compares price variance between war and non-war
// periods: per regime, per year, over a rolling time window, and by Levene
// tests against a pre-conflict baseline.
type VarianceAnalysis struct{}

// CheckInputs implements InputChecker
func (VarianceAnalysis) CheckInputs(v *validation.FileValidator, paths *config.Paths) error {
	return v.ValidatePriceFile(paths.PriceFile)
}

// Kind implements Analysis
func (VarianceAnalysis) Kind() Kind { return KindVariance }

// Run implements Analysis
func (VarianceAnalysis) Run(ctx context.Context, env *Env) (*Result, error) {
	s, err := env.Inputs.Series(ctx)
	if err != nil {
		return nil, err
	}
	cfg := env.Config.Variance
	out := env.artifacts(KindVariance, env.Paths.VarianceDir)

	regime := stats.RegimeVariance(s)
	annual := stats.AnnualVariance(s, cfg.AnnualFromYear)
	byYear := stats.AnnualRegimeVariance(s)

	war, nonWar := s.Split()
	leveneTable := exporter.NewTable("Levene", "comparison", "baseline_end", "year",
		"group_a", "group_a_n", "group_b", "group_b_n", "statistic", "p_value", "significant")

	overall, err := stats.Levene(war.Closes(), nonWar.Closes())
	switch {
	case err == nil:
		leveneTable.AddRow(
			exporter.String("war vs non-war"), exporter.Blank(), exporter.Blank(),
			exporter.String(series.War.String()), exporter.Int(war.Len()),
			exporter.String(series.NonWar.String()), exporter.Int(nonWar.Len()),
			exporter.Float(overall.Statistic), exporter.Float(overall.PValue), exporter.Bool(overall.Significant()),
		)
		env.Logger.InfoContext(ctx, "variance equality test",
			"war_variance", regime.War,
			"non_war_variance", regime.NonWar,
			"statistic", overall.Statistic,
			"p_value", overall.PValue,
			"significant", overall.Significant(),
		)
	case apperrors.IsType(err, apperrors.ErrTypeInsufficientData):
		env.Logger.WarnContext(ctx, "variance equality test skipped", "error", err)
	default:
		return nil, err
	}

	baselineEnd := cfg.BaselineEndTime()
	for _, year := range cfg.CompareYears {
		cmp, err := stats.CompareVolatility(s, baselineEnd, year)
		if err != nil {
			if apperrors.IsType(err, apperrors.ErrTypeInsufficientData) {
				env.Logger.WarnContext(ctx, "volatility comparison skipped", "year", year, "error", err)
				continue
			}
			return nil, err
		}
		env.Logger.InfoContext(ctx, "volatility comparison",
			"year", year,
			"baseline_end", cfg.BaselineEnd,
			"statistic", cmp.Statistic,
			"p_value", cmp.PValue,
			"significant", cmp.Significant(),
		)
		leveneTable.AddRow(
			exporter.String(fmt.Sprintf("baseline vs %d", year)),
			exporter.Time(baselineEnd),
			exporter.Int(year),
			exporter.String("baseline"),
			exporter.Int(cmp.BaselineN),
			exporter.String(strconv.Itoa(year)),
			exporter.Int(cmp.YearN),
			exporter.Float(cmp.Statistic),
			exporter.Float(cmp.PValue),
			exporter.Bool(cmp.Significant()),
		)
	}

	span := time.Duration(cfg.RollingDays) * 24 * time.Hour
	var rolling []stats.TimePoint
	for _, p := range stats.TimeRollingVariance(s.Times(), s.Closes(), span) {
		if y := p.Time.Year(); y >= cfg.RollingFromYear && y <= cfg.RollingToYear {
			rolling = append(rolling, p)
		}
	}

	regimeTable := exporter.NewTable("Regime Variance", "regime", "variance", "observations")
	regimeTable.AddRow(exporter.String(series.War.String()), exporter.Float(regime.War), exporter.Int(war.Len()))
	regimeTable.AddRow(exporter.String(series.NonWar.String()), exporter.Float(regime.NonWar), exporter.Int(nonWar.Len()))

	annualTable := exporter.NewTable("Annual Variance", "Year", "Annual_Variance")
	for _, a := range annual {
		annualTable.AddRow(exporter.Int(a.Year), exporter.Float(a.Value))
	}

	comparisonTable := exporter.NewTable("War Comparison", "year", "Non_War_Variance", "War_Variance")
	for _, y := range byYear {
		comparisonTable.AddRow(exporter.Int(y.Year), exporter.Float(y.NonWar), exporter.Float(y.War))
	}

	rollingTable := exporter.NewTable("Rolling Variance", "time", "variance")
	for _, p := range rolling {
		rollingTable.AddRow(exporter.Time(p.Time), exporter.Float(p.Value))
	}

	if err := out.xlsx(ctx, "variance.xlsx",
		regimeTable, annualTable, comparisonTable, leveneTable, rollingTable); err != nil {
		return nil, err
	}

	if err := varianceCharts(ctx, env, out, s, annual, byYear, rolling); err != nil {
		return nil, err
	}
	return out.result, nil
}

func varianceCharts(ctx context.Context, env *Env, out *artifacts, s *series.Series,
	annual []stats.YearValue, byYear []stats.YearRegimeValue, rolling []stats.TimePoint) error {
	cfg := env.Config.Variance

	timeline := s.Filter(func(o series.Observation) bool { return o.Time.Year() >= cfg.TimelineFromYear })
	if timeline.Len() > 0 {
		shade := make([]bool, timeline.Len())
		for i, r := range timeline.Regimes() {
			shade[i] = r == series.War
		}
		if err := out.chart(ctx, "1_timeline.png", chart.TimeSeries{
			Title:  "TFN1! time series",
			XLabel: "Time",
			YLabel: "EUR/MWh/day * 24",
			Lines: []chart.Line{{
				Label:      "Close",
				Times:      timeline.Times(),
				Values:     timeline.Closes(),
				Color:      chart.Blue,
				Shade:      shade,
				ShadeLabel: "War period",
				ShadeColor: chart.Red,
			}},
			Events: env.Events,
		}); err != nil {
			return err
		}
	}

	if len(annual) > 0 {
		labels := make([]string, len(annual))
		values := make([]float64, len(annual))
		for i, a := range annual {
			labels[i] = strconv.Itoa(a.Year)
			values[i] = a.Value
		}
		if hasFinite(values) {
			if err := out.chart(ctx, "2_annual_variance_log.png", chart.Bars{
				Title:  "Annual price variance (log scale)",
				XLabel: "Year",
				YLabel: "Annual variance",
				Labels: labels,
				Series: []chart.BarSeries{{Values: values, Color: chart.SteelBlue}},
				LogY:   true,
				Size:   chart.Size{Width: 10, Height: 6},
			}); err != nil {
				return err
			}
		}
	}

	if len(byYear) > 0 {
		labels := make([]string, len(byYear))
		warV := make([]float64, len(byYear))
		nonWarV := make([]float64, len(byYear))
		for i, y := range byYear {
			labels[i] = strconv.Itoa(y.Year)
			warV[i], nonWarV[i] = y.War, y.NonWar
		}
		if hasFinite(warV) || hasFinite(nonWarV) {
			if err := out.chart(ctx, "3_war_comparison.png", chart.Bars{
				Title:  "Annual variance of war and non-war periods",
				XLabel: "Year",
				Labels: labels,
				Series: []chart.BarSeries{
					{Label: "War", Values: warV, Color: chart.Red},
					{Label: "Non-war", Values: nonWarV, Color: chart.Blue},
				},
			}); err != nil {
				return err
			}
		}
	}

	war, nonWar := s.Split()
	if stats.NewKDE(war.Closes()) != nil || stats.NewKDE(nonWar.Closes()) != nil {
		if err := out.chart(ctx, "4_distributions.png", chart.Density{
			Title:  "Price distribution comparison",
			XLabel: "Close",
			Groups: []chart.DensityGroup{
				{Label: "War period", Values: war.Closes(), Color: chart.Red, MeanLabel: "Mean (war): %.2f"},
				{Label: "Non-war period", Values: nonWar.Closes(), Color: chart.Blue, MeanLabel: "Mean (non-war): %.2f"},
			},
			MeanMarkers: true,
			Size:        chart.Size{Width: 10, Height: 6},
		}); err != nil {
			return err
		}
	}

	if len(rolling) > 0 {
		times := make([]time.Time, len(rolling))
		values := make([]float64, len(rolling))
		for i, p := range rolling {
			times[i], values[i] = p.Time, p.Value
		}
		if err := out.chart(ctx, "5_rolling_variance.png", chart.TimeSeries{
			Title: fmt.Sprintf("%d-day rolling variance with key events (%d-%d)",
				cfg.RollingDays, cfg.RollingFromYear, cfg.RollingToYear),
			XLabel: "Date",
			YLabel: "Variance",
			Lines:  []chart.Line{{Label: "Rolling variance", Times: times, Values: values, Color: chart.SteelBlue}},
			Events: env.Events,
			Size:   chart.Size{Width: 14, Height: 7},
		}); err != nil {
			return err
		}
	}
	return nil
}

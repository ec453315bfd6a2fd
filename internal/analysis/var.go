package analysis

import (
	"context"
	"fmt"
	"time"

	"gasrisk/internal/chart"
	"gasrisk/internal/config"
	"gasrisk/internal/exporter"
	"gasrisk/internal/risk"
	"gasrisk/internal/series"
	"gasrisk/internal/validation"
)

// VaRAnalysis estimates windowed VaR/CVaR for long and short positions
type VaRAnalysis struct{}

// CheckInputs implements InputChecker
func (VaRAnalysis) CheckInputs(v *validation.FileValidator, paths *config.Paths) error {
	return v.ValidatePriceFile(paths.PriceFile)
}

// Kind implements Analysis
func (VaRAnalysis) Kind() Kind { return KindVaR }

// RiskParams converts the risk configuration into estimator parameters
func RiskParams(cfg config.RiskConfig) (risk.Params, error) {
	mode, err := risk.ParseMode(cfg.Mode)
	if err != nil {
		return risk.Params{}, err
	}
	return risk.Params{
		Confidence:          cfg.Confidence,
		LookbackQuarters:    cfg.LookbackQuarters,
		MinSamples:          cfg.MinSamples,
		InQuarterMinSamples: cfg.InQuarterMinSamples,
		TrailingWindow:      cfg.TrailingWindow,
		Mode:                mode,
	}, nil
}

// Run implements Analysis
func (VaRAnalysis) Run(ctx context.Context, env *Env) (*Result, error) {
	s, err := env.Inputs.Series(ctx)
	if err != nil {
		return nil, err
	}
	params, err := RiskParams(env.Config.Risk)
	if err != nil {
		return nil, err
	}
	est, err := risk.NewEstimator(params, env.Logger)
	if err != nil {
		return nil, err
	}

	report, err := est.Run(ctx, s)
	if err != nil {
		return nil, err
	}
	env.Metrics.RecordWindows(ctx, params.Mode.String(), len(report.Results), len(report.Skipped))
	if len(report.Skipped) > 0 {
		env.Logger.InfoContext(ctx, "risk windows skipped",
			"skipped", len(report.Skipped),
			"required", params.RequiredSamples(),
		)
	}

	out := env.artifacts(KindVaR, env.Paths.VaRDir)
	if err := out.xlsx(ctx, "basis.xlsx", basisTable(s)); err != nil {
		return nil, err
	}
	results := resultTable(report)
	if err := out.xlsx(ctx, "result.xlsx", results, skippedTable(report)); err != nil {
		return nil, err
	}
	if err := out.csv(ctx, "result.csv", results); err != nil {
		return nil, err
	}

	if len(report.Results) == 0 {
		env.Logger.WarnContext(ctx, "no risk windows computed, charts skipped")
		return out.result, nil
	}

	metrics, spread := riskCharts(report, params, regimeStart(s))
	if err := out.chart(ctx, "risk_metrics_over_time.png", metrics); err != nil {
		return nil, err
	}
	if err := out.chart(ctx, "var_spread_and_mean.png", spread); err != nil {
		return nil, err
	}
	return out.result, nil
}

// basisTable lists the observations with derived return columns
func basisTable(s *series.Series) *exporter.Table {
	t := exporter.NewTable("basis", "time", "close", "Dummy", "year", "month", "quarter",
		"long_return", "short_return", "year_quarter", "date_index")
	long := s.Returns()
	short := s.ShortReturns()
	for i, o := range s.Observations() {
		q := series.QuarterOf(o.Time)
		t.AddRow(
			exporter.Time(o.Time),
			exporter.Float(o.Close),
			exporter.Int(int(o.Regime)),
			exporter.Int(o.Time.Year()),
			exporter.Int(int(o.Time.Month())),
			exporter.Int(q.Q),
			exporter.Float(long[i]),
			exporter.Float(short[i]),
			exporter.String(fmt.Sprintf("%d-Q%d", q.Year, q.Q)),
			exporter.Time(q.Start()),
		)
	}
	return t
}

// resultTable lists one row per computed window in plot order
func resultTable(report *risk.Report) *exporter.Table {
	t := exporter.NewTable("result", "year", "quarter", "index", "plot_date", "window_start", "window_end",
		"n", "std.s", "mean", "long_var", "short_var", "long_cvar", "short_cvar",
		"var_spread", "abs_ratio", "Dummy")
	for _, r := range report.Results {
		t.AddRow(
			exporter.Int(r.Quarter.Year),
			exporter.Int(r.Quarter.Q),
			exporter.Int(r.Index),
			exporter.Time(r.PlotDate),
			exporter.Time(r.Start),
			exporter.Time(r.End),
			exporter.Int(r.Long.N),
			exporter.Float(r.Long.Std),
			exporter.Float(r.Long.Mean),
			exporter.Float(r.Long.VaR),
			exporter.Float(r.Short.VaR),
			exporter.Float(r.Long.CVaR),
			exporter.Float(r.Short.CVaR),
			exporter.Float(r.VaRSpread),
			exporter.OptionalFloat(r.AbsRatio, r.AbsRatioDefined),
			exporter.Int(int(r.Regime)),
		)
	}
	return t
}

func skippedTable(report *risk.Report) *exporter.Table {
	t := exporter.NewTable("skipped", "year", "quarter", "index", "n", "required", "reason")
	for _, s := range report.Skipped {
		t.AddRow(
			exporter.Int(s.Quarter.Year),
			exporter.Int(s.Quarter.Q),
			exporter.Int(s.Index),
			exporter.Int(s.N),
			exporter.Int(s.Required),
			exporter.String(s.Reason),
		)
	}
	return t
}

// regimeStart returns the first war observation, or the zero time
func regimeStart(s *series.Series) time.Time {
	for _, o := range s.Observations() {
		if o.Regime == series.War {
			return o.Time
		}
	}
	return time.Time{}
}

func riskCharts(report *risk.Report, params risk.Params, warStart time.Time) (chart.TimeSeries, chart.TimeSeries) {
	n := len(report.Results)
	dates := make([]time.Time, n)
	longVaR, shortVaR := make([]float64, n), make([]float64, n)
	longCVaR, shortCVaR := make([]float64, n), make([]float64, n)
	spread, mean := make([]float64, n), make([]float64, n)
	for i, r := range report.Results {
		dates[i] = r.PlotDate
		longVaR[i], shortVaR[i] = r.Long.VaR, r.Short.VaR
		longCVaR[i], shortCVaR[i] = r.Long.CVaR, r.Short.CVaR
		spread[i], mean[i] = r.VaRSpread, r.Long.Mean
	}

	var events []chart.Event
	if !warStart.IsZero() {
		events = append(events, chart.Event{Time: warStart, Label: "Dummy = 1", Color: chart.Red})
	}

	metrics := chart.TimeSeries{
		Title:  fmt.Sprintf("VaR and CVaR (%s)", windowLabel(params)),
		XLabel: "Time",
		YLabel: fmt.Sprintf("Expected loss, confidence = %.1f%%", params.Confidence*100),
		Lines: []chart.Line{
			{Label: "Long VaR", Times: dates, Values: longVaR, Color: chart.Blue},
			{Label: "Short VaR", Times: dates, Values: shortVaR, Color: chart.Orange},
			{Label: "Long CVaR", Times: dates, Values: longCVaR, Color: chart.Green},
			{Label: "Short CVaR", Times: dates, Values: shortCVaR, Color: chart.Red},
		},
		Events:  events,
		InvertY: true,
	}
	spreadChart := chart.TimeSeries{
		Title:  "Long-short VaR spread and mean return",
		XLabel: "Time",
		YLabel: "Ratio",
		Lines: []chart.Line{
			{Label: "VaR spread (long - short)", Times: dates, Values: spread, Color: chart.Blue},
			{Label: "Mean return", Times: dates, Values: mean, Color: chart.Orange},
		},
		InvertY:  true,
		ZeroLine: true,
	}
	return metrics, spreadChart
}

func windowLabel(p risk.Params) string {
	switch p.Mode {
	case risk.ModeInQuarter:
		return "in-quarter"
	case risk.ModeTrailing:
		return fmt.Sprintf("trailing %d", p.TrailingWindow)
	default:
		return fmt.Sprintf("lookback = %d quarters", p.LookbackQuarters)
	}
}

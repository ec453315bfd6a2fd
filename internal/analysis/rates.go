package analysis

import (
	"context"
	"fmt"
	"time"

	"gasrisk/internal/chart"
	"gasrisk/internal/config"
	"gasrisk/internal/exporter"
	"gasrisk/internal/validation"
)

// RatesAnalysis charts the risk-free rate used for the carry adjustment
type RatesAnalysis struct{}

// CheckInputs implements InputChecker
func (RatesAnalysis) CheckInputs(v *validation.FileValidator, paths *config.Paths) error {
	return v.ValidateFile("carry rate file", paths.CarryFile)
}

// Kind implements Analysis
func (RatesAnalysis) Kind() Kind { return KindRates }

// Run implements Analysis
func (RatesAnalysis) Run(ctx context.Context, env *Env) (*Result, error) {
	table, err := env.Inputs.Rates(ctx)
	if err != nil {
		return nil, err
	}
	if table.Len() == 0 {
		return nil, fmt.Errorf("carry rate table %s is empty", env.Paths.CarryFile)
	}
	out := env.artifacts(KindRates, env.Paths.RatesDir)

	rates := table.Rates()
	times := make([]time.Time, len(rates))
	values := make([]float64, len(rates))
	t := exporter.NewTable("rates", "time", "close")
	for i, r := range rates {
		times[i], values[i] = r.Time, r.Percent
		t.AddRow(exporter.Time(r.Time), exporter.Float(r.Percent))
	}
	if err := out.xlsx(ctx, "rates.xlsx", t); err != nil {
		return nil, err
	}

	if err := out.chart(ctx, "interest_rate_over_time.png", chart.TimeSeries{
		Title:  "Risk-free interest rate over time",
		XLabel: "Time",
		YLabel: "Rate (%)",
		Lines:  []chart.Line{{Label: "Risk-free rate (ECONOMICS:EUINTR)", Times: times, Values: values, Color: chart.Blue}},
	}); err != nil {
		return nil, err
	}
	return out.result, nil
}

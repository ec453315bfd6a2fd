package infrastructure

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
)

// RunMetrics holds the instruments recorded by one report run
type RunMetrics struct {
	AnalysisRuns       metric.Int64Counter
	AnalysisDuration   metric.Float64Histogram
	ObservationsLoaded metric.Int64Counter
	WindowsComputed    metric.Int64Counter
	WindowsSkipped     metric.Int64Counter
	ArtifactsWritten   metric.Int64Counter
}

// NewRunMetrics creates the run instruments on meter
func NewRunMetrics(meter metric.Meter) (*RunMetrics, error) {
	analysisRuns, err := meter.Int64Counter(
		"analysis_runs",
		metric.WithDescription("Number of analyses executed, by analysis and status"),
	)
	if err != nil {
		return nil, err
	}

	analysisDuration, err := meter.Float64Histogram(
		"analysis_duration",
		metric.WithDescription("Analysis wall time"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, err
	}

	observationsLoaded, err := meter.Int64Counter(
		"observations_loaded",
		metric.WithDescription("Price observations loaded from input tables"),
	)
	if err != nil {
		return nil, err
	}

	windowsComputed, err := meter.Int64Counter(
		"risk_windows_computed",
		metric.WithDescription("Risk windows with a VaR/CVaR result"),
	)
	if err != nil {
		return nil, err
	}

	windowsSkipped, err := meter.Int64Counter(
		"risk_windows_skipped",
		metric.WithDescription("Risk windows skipped for undersized samples"),
	)
	if err != nil {
		return nil, err
	}

	artifactsWritten, err := meter.Int64Counter(
		"artifacts_written",
		metric.WithDescription("Tables and charts written"),
	)
	if err != nil {
		return nil, err
	}

	return &RunMetrics{
		AnalysisRuns:       analysisRuns,
		AnalysisDuration:   analysisDuration,
		ObservationsLoaded: observationsLoaded,
		WindowsComputed:    windowsComputed,
		WindowsSkipped:     windowsSkipped,
		ArtifactsWritten:   artifactsWritten,
	}, nil
}

// NoopRunMetrics returns instruments that record nothing, for tests and
// callers without telemetry.
func NoopRunMetrics() *RunMetrics {
	m, _ := NewRunMetrics(noop.NewMeterProvider().Meter(InstrumentationName))
	return m
}

// RecordAnalysis records one finished analysis
func (m *RunMetrics) RecordAnalysis(ctx context.Context, analysis string, started time.Time, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("analysis", analysis),
		attribute.String("status", status),
	)
	m.AnalysisRuns.Add(ctx, 1, attrs)
	m.AnalysisDuration.Record(ctx, time.Since(started).Seconds(), attrs)
}

// RecordWindows records computed and skipped window counts for a mode
func (m *RunMetrics) RecordWindows(ctx context.Context, mode string, computed, skipped int) {
	attrs := metric.WithAttributes(attribute.String("mode", mode))
	m.WindowsComputed.Add(ctx, int64(computed), attrs)
	m.WindowsSkipped.Add(ctx, int64(skipped), attrs)
}

// RecordArtifact records one written output file
func (m *RunMetrics) RecordArtifact(ctx context.Context, analysis, kind string) {
	m.ArtifactsWritten.Add(ctx, 1, metric.WithAttributes(
		attribute.String("analysis", analysis),
		attribute.String("kind", kind),
	))
}

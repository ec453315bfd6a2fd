package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"gasrisk/internal/config"
)

// InstrumentationName identifies the tracer and meter of this module.
const InstrumentationName = "gasrisk"

// TelemetryOptions holds the resolved telemetry settings
type TelemetryOptions struct {
	ServiceName    string
	ServiceVersion string
	EnableTracing  bool
	// TraceFile receives spans as JSON; empty keeps spans in memory only.
	TraceFile string
	// MetricsFile receives a Prometheus textfile on Shutdown; empty skips it.
	MetricsFile string
}

// NewTelemetryOptions builds options from configuration and resolved paths.
func NewTelemetryOptions(cfg config.TelemetryConfig, paths *config.Paths) TelemetryOptions {
	return TelemetryOptions{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: config.AppVersion,
		EnableTracing:  cfg.TracesEnabled,
		TraceFile:      paths.TraceFile,
		MetricsFile:    paths.MetricsFile,
	}
}

// Telemetry holds the OpenTelemetry providers and the metrics registry
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prometheus.Registry
	Metrics        *RunMetrics
	Logger         *slog.Logger

	opts      TelemetryOptions
	traceFile *os.File
}

// InitializeTelemetry sets up tracing (stdouttrace to a file) and metrics
// (OTel meter exported into a Prometheus registry).
func InitializeTelemetry(opts TelemetryOptions, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = slog.Default()
	}
	ctx := context.Background()

	logger.InfoContext(ctx, "Initializing telemetry",
		slog.String("service", opts.ServiceName),
		slog.String("version", opts.ServiceVersion),
		slog.Bool("tracing_enabled", opts.EnableTracing),
		slog.String("metrics_file", opts.MetricsFile))

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(opts.ServiceName),
		semconv.ServiceVersion(opts.ServiceVersion),
	)

	t := &Telemetry{Logger: logger, opts: opts}

	if err := t.initializeTracing(res); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}
	if err := t.initializeMetrics(res); err != nil {
		_ = t.TracerProvider.Shutdown(ctx)
		t.closeTraceFile()
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	return t, nil
}

func (t *Telemetry) initializeTracing(res *resource.Resource) error {
	tpOpts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	if t.opts.EnableTracing && t.opts.TraceFile != "" {
		if err := os.MkdirAll(filepath.Dir(t.opts.TraceFile), 0755); err != nil {
			return fmt.Errorf("create trace directory: %w", err)
		}
		f, err := os.Create(t.opts.TraceFile)
		if err != nil {
			return fmt.Errorf("create trace file: %w", err)
		}
		exporter, err := stdouttrace.New(
			stdouttrace.WithWriter(f),
			stdouttrace.WithPrettyPrint(),
		)
		if err != nil {
			f.Close()
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		t.traceFile = f
		tpOpts = append(tpOpts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(tpOpts...)
	t.TracerProvider = tp
	t.Tracer = tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(t.opts.ServiceVersion))
	otel.SetTracerProvider(tp)
	return nil
}

func (t *Telemetry) initializeMetrics(res *resource.Resource) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())

	exporter, err := otelprom.New(otelprom.WithRegisterer(reg))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)
	t.MeterProvider = mp
	t.Registry = reg
	t.Meter = mp.Meter(InstrumentationName, metric.WithInstrumentationVersion(t.opts.ServiceVersion))
	otel.SetMeterProvider(mp)

	t.Metrics, err = NewRunMetrics(t.Meter)
	return err
}

// WriteMetrics writes the current registry contents as a Prometheus textfile.
func (t *Telemetry) WriteMetrics() error {
	if t.opts.MetricsFile == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(t.opts.MetricsFile), 0755); err != nil {
		return fmt.Errorf("create metrics directory: %w", err)
	}
	if err := prometheus.WriteToTextfile(t.opts.MetricsFile, t.Registry); err != nil {
		return fmt.Errorf("write metrics textfile: %w", err)
	}
	return nil
}

// Shutdown writes the metrics textfile and flushes all providers
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if err := t.WriteMetrics(); err != nil {
		errs = append(errs, err)
	}
	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}
	if err := t.closeTraceFile(); err != nil {
		errs = append(errs, fmt.Errorf("close trace file: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("telemetry shutdown errors: %w", errors.Join(errs...))
	}

	t.Logger.InfoContext(ctx, "Telemetry shutdown complete")
	return nil
}

func (t *Telemetry) closeTraceFile() error {
	if t.traceFile == nil {
		return nil
	}
	err := t.traceFile.Close()
	t.traceFile = nil
	return err
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// AddSpanEvent adds an event to the current span with structured attributes
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}

package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"gasrisk/internal/config"
	"gasrisk/internal/infrastructure"
	"gasrisk/internal/validation"
)

// Runner executes analyses concurrently over shared, read-only inputs
type Runner struct {
	cfg      *config.Config
	paths    *config.Paths
	registry *Registry
	logger   *slog.Logger
	tracer   trace.Tracer
	metrics  *infrastructure.RunMetrics
}

// RunnerOption configures a Runner
type RunnerOption func(*Runner)

// WithTelemetry records spans and metrics through t
func WithTelemetry(t *infrastructure.Telemetry) RunnerOption {
	return func(r *Runner) {
		if t == nil {
			return
		}
		r.tracer = t.Tracer
		if t.Metrics != nil {
			r.metrics = t.Metrics
		}
	}
}

// WithRegistry replaces the default analyses
func WithRegistry(reg *Registry) RunnerOption {
	return func(r *Runner) {
		r.registry = reg
	}
}

// NewRunner creates a runner for cfg
func NewRunner(cfg *config.Config, logger *slog.Logger, opts ...RunnerOption) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	r := &Runner{
		cfg:      cfg,
		paths:    cfg.GetPaths(),
		registry: DefaultRegistry(),
		logger:   infrastructure.WithComponent(logger, "analysis_runner"),
		tracer:   otel.Tracer(infrastructure.InstrumentationName),
		metrics:  infrastructure.NoopRunMetrics(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes kinds concurrently. The first failure cancels the others
// and is returned. Results are in the order of kinds.
func (r *Runner) Run(ctx context.Context, kinds ...Kind) ([]*Result, error) {
	if len(kinds) == 0 {
		kinds = ReportKinds
	}
	if r.cfg.Risk.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.cfg.Risk.Timeout)
		defer cancel()
	}

	ctx = infrastructure.EnsureRunID(ctx)
	ctx, span := r.tracer.Start(ctx, "report.run",
		trace.WithAttributes(
			attribute.String("run.id", infrastructure.GetRunID(ctx)),
			attribute.Int("analyses", len(kinds)),
		))
	defer span.End()

	analyses := make([]Analysis, len(kinds))
	for i, k := range kinds {
		a, err := r.registry.Get(k)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return nil, err
		}
		analyses[i] = a
	}

	if err := r.paths.EnsureDirectories(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("prepare output directories: %w", err)
	}
	if err := r.preflight(analyses); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	env := &Env{
		Config:  r.cfg,
		Paths:   r.paths,
		Inputs:  NewInputs(r.cfg, r.paths, r.logger, r.metrics),
		Logger:  r.logger,
		Metrics: r.metrics,
		Events:  chartEvents(r.cfg.Events),
	}

	start := time.Now()
	r.logger.InfoContext(ctx, "report run started", "analyses", kinds)

	results := make([]*Result, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, a := range analyses {
		i, a := i, a
		g.Go(func() error {
			res, err := r.runOne(gctx, env, a)
			if err != nil {
				return fmt.Errorf("analysis %s: %w", a.Kind(), err)
			}
			results[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		r.logger.ErrorContext(ctx, "report run failed", "error", err, "duration", time.Since(start))
		return nil, err
	}

	artifacts := 0
	for _, res := range results {
		artifacts += len(res.Artifacts)
	}
	span.SetAttributes(attribute.Int("artifacts", artifacts))
	r.logger.InfoContext(ctx, "report run completed",
		"analyses", len(kinds),
		"artifacts", artifacts,
		"duration", time.Since(start),
	)
	return results, nil
}

// preflight checks every input the selected analyses read and that the
// output directory is writable
func (r *Runner) preflight(analyses []Analysis) error {
	v := validation.NewFileValidator(r.logger)
	if err := v.ValidateOutputDirectory(r.paths.OutputDir); err != nil {
		return err
	}
	for _, a := range analyses {
		c, ok := a.(InputChecker)
		if !ok {
			continue
		}
		if err := c.CheckInputs(v, r.paths); err != nil {
			return fmt.Errorf("analysis %s: %w", a.Kind(), err)
		}
	}
	return nil
}

func (r *Runner) runOne(ctx context.Context, env *Env, a Analysis) (res *Result, err error) {
	kind := a.Kind().String()
	ctx, span := r.tracer.Start(ctx, "analysis."+kind,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(attribute.String("analysis", kind)),
	)
	defer span.End()

	started := time.Now()
	defer func() {
		r.metrics.RecordAnalysis(ctx, kind, started, err)
		if err != nil {
			infrastructure.RecordError(ctx, err)
			return
		}
		span.SetAttributes(attribute.Int("artifacts", len(res.Artifacts)))
		span.SetStatus(codes.Ok, "")
	}()

	r.logger.InfoContext(ctx, "analysis started", "analysis", kind)
	res, err = a.Run(ctx, env)
	if err != nil {
		return nil, err
	}
	r.logger.InfoContext(ctx, "analysis completed",
		"analysis", kind,
		"artifacts", len(res.Artifacts),
		"duration", time.Since(started),
	)
	return res, nil
}

// Package analysis runs the risk report analyses over a loaded price series
// and writes their tables and charts.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sort"
	"sync"

	"go.opentelemetry.io/otel/attribute"

	"gasrisk/internal/carry"
	"gasrisk/internal/chart"
	"gasrisk/internal/config"
	"gasrisk/internal/exporter"
	"gasrisk/internal/infrastructure"
	"gasrisk/internal/series"
	"gasrisk/internal/validation"
)

// Analysis produces the artifacts of one Kind
type Analysis interface {
	Kind() Kind
	Run(ctx context.Context, env *Env) (*Result, error)
}

// InputChecker is implemented by analyses that read input files. The
// runner checks them all before any analysis starts.
type InputChecker interface {
	CheckInputs(v *validation.FileValidator, paths *config.Paths) error
}

// ArtifactType classifies written files
type ArtifactType string

const (
	ArtifactTable ArtifactType = "table"
	ArtifactChart ArtifactType = "chart"
)

// Artifact is one written file
type Artifact struct {
	Path string       `json:"path"`
	Type ArtifactType `json:"type"`
}

// Result lists what an analysis wrote
type Result struct {
	Kind      Kind       `json:"kind"`
	Artifacts []Artifact `json:"artifacts"`
}

// Env is what an analysis needs from the run: configuration, resolved
// paths, shared inputs and instrumentation.
type Env struct {
	Config  *config.Config
	Paths   *config.Paths
	Inputs  *Inputs
	Logger  *slog.Logger
	Metrics *infrastructure.RunMetrics
	Events  []chart.Event
}

// artifacts collects the files written by one analysis and records them
type artifacts struct {
	env    *Env
	kind   Kind
	dir    string
	result *Result
}

func (env *Env) artifacts(kind Kind, dir string) *artifacts {
	return &artifacts{env: env, kind: kind, dir: dir, result: &Result{Kind: kind}}
}

func (a *artifacts) path(name string) string {
	return filepath.Join(a.dir, name)
}

func (a *artifacts) add(ctx context.Context, path string, typ ArtifactType) {
	a.result.Artifacts = append(a.result.Artifacts, Artifact{Path: path, Type: typ})
	a.env.Metrics.RecordArtifact(ctx, a.kind.String(), string(typ))
	infrastructure.AddSpanEvent(ctx, "artifact.written",
		attribute.String("path", path),
		attribute.String("type", string(typ)))
	a.env.Logger.DebugContext(ctx, "artifact written", "analysis", a.kind, "path", path)
}

// xlsx writes tables to one workbook in the analysis directory
func (a *artifacts) xlsx(ctx context.Context, name string, tables ...*exporter.Table) error {
	p := a.path(name)
	if err := exporter.WriteXLSX(p, tables...); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	a.add(ctx, p, ArtifactTable)
	return nil
}

// csv writes one table to a CSV file in the analysis directory
func (a *artifacts) csv(ctx context.Context, name string, t *exporter.Table) error {
	w := exporter.NewCSVWriter(a.dir, a.env.Logger)
	p, err := w.WriteTable(name, t, exporter.WriteOptions{BOMPrefix: true})
	if err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	a.add(ctx, p, ArtifactTable)
	return nil
}

// renderer is implemented by every chart type
type renderer interface {
	Render(path string) error
}

func (a *artifacts) chart(ctx context.Context, name string, c renderer) error {
	p := a.path(name)
	if err := c.Render(p); err != nil {
		return fmt.Errorf("render %s: %w", name, err)
	}
	a.add(ctx, p, ArtifactChart)
	return nil
}

// Inputs loads the run's input tables once and shares them between
// concurrently running analyses. Loaded values are never modified.
type Inputs struct {
	cfg    *config.Config
	paths  *config.Paths
	logger *slog.Logger
	loaded func(ctx context.Context, n int)

	seriesOnce sync.Once
	series     *series.Series
	seriesErr  error

	ratesOnce sync.Once
	rates     *carry.Table
	ratesErr  error
}

// NewInputs creates lazy loaders for the configured input files
func NewInputs(cfg *config.Config, paths *config.Paths, logger *slog.Logger, metrics *infrastructure.RunMetrics) *Inputs {
	return &Inputs{
		cfg:    cfg,
		paths:  paths,
		logger: logger,
		loaded: func(ctx context.Context, n int) {
			metrics.ObservationsLoaded.Add(ctx, int64(n))
		},
	}
}

// Series returns the price series, loading it on first use
func (in *Inputs) Series(ctx context.Context) (*series.Series, error) {
	in.seriesOnce.Do(func() {
		opts := series.LoadOptions{Sheet: in.cfg.Paths.PriceSheet}
		if sep := in.cfg.Paths.PriceSeparator; sep != "" {
			opts.Separator = []rune(sep)[0]
		}
		in.series, in.seriesErr = series.NewLoader(in.logger).Load(ctx, in.paths.PriceFile, opts)
		if in.seriesErr == nil {
			in.loaded(ctx, in.series.Len())
		}
	})
	return in.series, in.seriesErr
}

// Rates returns the carry rate table, loading it on first use
func (in *Inputs) Rates(ctx context.Context) (*carry.Table, error) {
	in.ratesOnce.Do(func() {
		opts := carry.LoadOptions{}
		if sep := in.cfg.Paths.CarrySeparator; sep != "" {
			opts.Separator = []rune(sep)[0]
		}
		in.rates, in.ratesErr = carry.LoadRates(ctx, in.paths.CarryFile, opts, in.logger)
	})
	return in.rates, in.ratesErr
}

// Registry holds the available analyses by kind
type Registry struct {
	mu       sync.RWMutex
	analyses map[Kind]Analysis
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{analyses: make(map[Kind]Analysis)}
}

// DefaultRegistry registers every analysis of this package
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, a := range []Analysis{
		VaRAnalysis{},
		SemiVarianceAnalysis{},
		VarianceAnalysis{},
		DescriptiveAnalysis{},
		RatesAnalysis{},
		TradeAnalysis{},
	} {
		// Kinds are distinct, Register cannot fail here
		_ = r.Register(a)
	}
	return r
}

// Register adds an analysis
func (r *Registry) Register(a Analysis) error {
	if a == nil {
		return fmt.Errorf("cannot register nil analysis")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.analyses[a.Kind()]; exists {
		return fmt.Errorf("analysis %s already registered", a.Kind())
	}
	r.analyses[a.Kind()] = a
	return nil
}

// Get retrieves an analysis by kind
func (r *Registry) Get(kind Kind) (Analysis, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, exists := r.analyses[kind]
	if !exists {
		return nil, fmt.Errorf("analysis %s not registered", kind)
	}
	return a, nil
}

// Kinds returns the registered kinds in name order
func (r *Registry) Kinds() []Kind {
	r.mu.RLock()
	defer r.mu.RUnlock()

	kinds := make([]Kind, 0, len(r.analyses))
	for k := range r.analyses {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	return kinds
}

// chartEvents converts configured events. Colors are validated at load.
func chartEvents(events []config.EventConfig) []chart.Event {
	out := make([]chart.Event, 0, len(events))
	for _, e := range events {
		ev := chart.Event{Time: e.Time(), Label: e.Label}
		if c, err := config.ParseColor(e.Color); err == nil && e.Color != "" {
			ev.Color = c
		}
		out = append(out, ev)
	}
	return out
}

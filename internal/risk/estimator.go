package risk

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	apperrors "gasrisk/internal/errors"
	"gasrisk/internal/series"
)

// Estimate computes mean, Bessel-corrected std, VaR and CVaR of sample
// under a Normal(mean, std) assumption.
//
// VaR is the signed quantile at 1-confidence; CVaR is the closed-form
// expected shortfall mean - std*φ(z)/α with α = 1-confidence.
func Estimate(sample []float64, confidence float64) (Stats, error) {
	if !(confidence > 0 && confidence < 1) {
		return Stats{}, ErrInvalidConfidence
	}
	n := len(sample)
	if n < MinDefinedSamples {
		return Stats{}, apperrors.NewInsufficientDataError(n, MinDefinedSamples)
	}
	for _, v := range sample {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Stats{}, apperrors.NewCalculationError("sample contains non-finite values", nil).
				WithContext("n", n)
		}
	}

	mean, std := stat.MeanStdDev(sample, nil)
	alpha := 1 - confidence

	return Stats{
		N:    n,
		Mean: mean,
		Std:  std,
		VaR:  VaR(mean, std, confidence),
		CVaR: mean - std*distuv.UnitNormal.Prob(distuv.UnitNormal.Quantile(alpha))/alpha,
	}, nil
}

// VaR returns the Normal(mean, std) quantile at 1-confidence
func VaR(mean, std, confidence float64) float64 {
	if std == 0 {
		return mean
	}
	return distuv.Normal{Mu: mean, Sigma: std}.Quantile(1 - confidence)
}

// Estimator applies Estimate over the windows selected by Params.Mode
type Estimator struct {
	params Params
	logger *slog.Logger
}

// NewEstimator creates a new windowed estimator
func NewEstimator(params Params, logger *slog.Logger) (*Estimator, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Estimator{
		params: params,
		logger: logger.With("component", "risk_estimator", "mode", params.Mode.String()),
	}, nil
}

// Params returns the estimator configuration
func (e *Estimator) Params() Params {
	return e.params
}

// window is one candidate sample before the size check
type window struct {
	id       WindowID
	from, to int // observation indices, to exclusive
	plotDate time.Time
	regime   series.Regime
}

// Run estimates every window of s. Undersized windows and windows whose
// returns are not finite are reported in Report.Skipped and never produce
// a result row.
func (e *Estimator) Run(ctx context.Context, s *series.Series) (*Report, error) {
	start := time.Now()

	var windows []window
	switch e.params.Mode {
	case ModeQuarterLookback:
		windows = quarterLookbackWindows(s, e.params.LookbackQuarters)
	case ModeInQuarter:
		windows = inQuarterWindows(s)
	case ModeTrailing:
		windows = trailingWindows(s, e.params.TrailingWindow)
	default:
		return nil, fmt.Errorf("unsupported window mode %s", e.params.Mode)
	}

	returns := s.Returns()
	required := e.params.RequiredSamples()
	report := &Report{Params: e.params}

	for _, w := range windows {
		if err := ctx.Err(); err != nil {
			return nil, fmt.Errorf("context cancelled during estimation: %w", err)
		}

		long := series.DropNaN(returns[w.from:w.to])
		if len(long) < required {
			report.Skipped = append(report.Skipped, SkippedWindow{
				WindowID: w.id,
				N:        len(long),
				Required: required,
				Reason:   fmt.Sprintf("sample of %d below minimum %d", len(long), required),
			})
			e.logger.DebugContext(ctx, "window skipped",
				"quarter", w.id.Quarter.String(),
				"index", w.id.Index,
				"n", len(long),
				"required", required,
			)
			continue
		}

		result, err := e.estimateWindow(long)
		if apperrors.TypeOf(err) == apperrors.ErrTypeCalculation {
			report.Skipped = append(report.Skipped, SkippedWindow{
				WindowID: w.id,
				N:        len(long),
				Required: required,
				Reason:   "sample contains non-finite returns",
			})
			e.logger.WarnContext(ctx, "window skipped",
				"quarter", w.id.Quarter.String(),
				"index", w.id.Index,
				"error", err,
			)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("estimate %s: %w", w.id.Quarter, err)
		}
		result.WindowID = w.id
		result.Start = s.At(w.from).Time
		result.End = s.At(w.to - 1).Time
		result.PlotDate = w.plotDate
		result.Regime = w.regime
		report.Results = append(report.Results, result)
	}

	e.logger.InfoContext(ctx, "risk estimation completed",
		"windows", len(windows),
		"computed", len(report.Results),
		"skipped", len(report.Skipped),
		"duration", time.Since(start),
	)
	return report, nil
}

// estimateWindow computes both orientations independently and derives the
// spread and ratio.
func (e *Estimator) estimateWindow(long []float64) (WindowResult, error) {
	longStats, err := Estimate(long, e.params.Confidence)
	if err != nil {
		return WindowResult{}, err
	}
	shortStats, err := Estimate(series.Negate(long), e.params.Confidence)
	if err != nil {
		return WindowResult{}, err
	}

	r := WindowResult{
		Long:      longStats,
		Short:     shortStats,
		VaRSpread: longStats.VaR - shortStats.VaR,
	}
	if longStats.Mean != 0 {
		r.AbsRatio = math.Abs(r.VaRSpread) / math.Abs(longStats.Mean)
		r.AbsRatioDefined = true
	}
	return r, nil
}

// quarterLookbackWindows covers, for each quarter, all observations from the
// start of the quarter lookback-1 quarters earlier to the quarter's last row.
func quarterLookbackWindows(s *series.Series, lookback int) []window {
	groups := s.GroupByQuarter()
	times := s.Times()
	out := make([]window, 0, len(groups))
	for _, g := range groups {
		from := g.Quarter.Add(-(lookback - 1)).Start()
		lo := sort.Search(len(times), func(i int) bool { return !times[i].Before(from) })
		out = append(out, window{
			id:       WindowID{Quarter: g.Quarter, Index: g.To - 1},
			from:     lo,
			to:       g.To,
			plotDate: g.Quarter.PlotDate(),
			regime:   groupRegime(s, g.From, g.To),
		})
	}
	return out
}

// inQuarterWindows is one window per calendar quarter, no lookback
func inQuarterWindows(s *series.Series) []window {
	groups := s.GroupByQuarter()
	out := make([]window, 0, len(groups))
	for _, g := range groups {
		out = append(out, window{
			id:       WindowID{Quarter: g.Quarter, Index: g.To - 1},
			from:     g.From,
			to:       g.To,
			plotDate: g.Quarter.MidMonth(),
			regime:   groupRegime(s, g.From, g.To),
		})
	}
	return out
}

// trailingWindows ends one window at every row after the first, covering
// the returns r[i-size+1 : i+1]. Rows 1..size-1 hold fewer than size
// returns and are skipped by Run.
func trailingWindows(s *series.Series, size int) []window {
	var out []window
	for i := 1; i < s.Len(); i++ {
		o := s.At(i)
		from := i - size + 1
		if from < 0 {
			from = 0
		}
		out = append(out, window{
			id:       WindowID{Quarter: series.QuarterOf(o.Time), Index: i},
			from:     from,
			to:       i + 1,
			plotDate: o.Time,
			regime:   o.Regime,
		})
	}
	return out
}

// groupRegime flags a quarter as war when any of its observations is.
func groupRegime(s *series.Series, from, to int) series.Regime {
	for i := from; i < to; i++ {
		if s.At(i).Regime == series.War {
			return series.War
		}
	}
	return series.NonWar
}

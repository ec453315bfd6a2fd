package risk

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gasrisk/internal/series"
)

// Mode selects how returns are grouped into estimation windows
type Mode int

const (
	// ModeQuarterLookback uses the current calendar quarter plus the
	// preceding LookbackQuarters-1 quarters, up to the group's last timestamp.
	ModeQuarterLookback Mode = iota
	// ModeInQuarter uses strictly the quarter's own returns.
	ModeInQuarter
	// ModeTrailing slides a fixed window of TrailingWindow returns one
	// observation at a time.
	ModeTrailing
)

// String returns the configuration name of the mode
func (m Mode) String() string {
	switch m {
	case ModeQuarterLookback:
		return "quarter_lookback"
	case ModeInQuarter:
		return "in_quarter"
	case ModeTrailing:
		return "trailing"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode parses a configuration mode name
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "quarter_lookback", "lookback":
		return ModeQuarterLookback, nil
	case "in_quarter", "quarter":
		return ModeInQuarter, nil
	case "trailing", "rolling":
		return ModeTrailing, nil
	default:
		return 0, fmt.Errorf("unknown window mode %q", s)
	}
}

// Estimator constants
const (
	DefaultConfidence       = 0.975
	DefaultLookbackQuarters = 4
	DefaultMinSamples       = 20
	// MinDefinedSamples is the smallest n with a Bessel-corrected std.
	MinDefinedSamples     = 2
	DefaultTrailingWindow = 60
)

// ErrInvalidConfidence is returned for a confidence outside (0, 1)
var ErrInvalidConfidence = errors.New("confidence must be in (0, 1)")

// Params configures the windowed estimator
type Params struct {
	Confidence       float64
	LookbackQuarters int
	// MinSamples applies to ModeQuarterLookback.
	MinSamples int
	// InQuarterMinSamples applies to ModeInQuarter.
	InQuarterMinSamples int
	// TrailingWindow is the window length of ModeTrailing.
	TrailingWindow int
	Mode           Mode
}

// DefaultParams returns the quarterly lookback configuration
func DefaultParams() Params {
	return Params{
		Confidence:          DefaultConfidence,
		LookbackQuarters:    DefaultLookbackQuarters,
		MinSamples:          DefaultMinSamples,
		InQuarterMinSamples: MinDefinedSamples,
		TrailingWindow:      DefaultTrailingWindow,
		Mode:                ModeQuarterLookback,
	}
}

// Validate checks parameter ranges
func (p Params) Validate() error {
	if !(p.Confidence > 0 && p.Confidence < 1) {
		return ErrInvalidConfidence
	}
	if p.LookbackQuarters < 1 {
		return &ValidationError{Field: "LookbackQuarters", Value: p.LookbackQuarters, Message: "must be at least 1"}
	}
	if p.MinSamples < MinDefinedSamples {
		return &ValidationError{Field: "MinSamples", Value: p.MinSamples, Message: "must be at least 2"}
	}
	if p.InQuarterMinSamples < MinDefinedSamples {
		return &ValidationError{Field: "InQuarterMinSamples", Value: p.InQuarterMinSamples, Message: "must be at least 2"}
	}
	if p.Mode == ModeTrailing && p.TrailingWindow < MinDefinedSamples {
		return &ValidationError{Field: "TrailingWindow", Value: p.TrailingWindow, Message: "must be at least 2"}
	}
	return nil
}

// RequiredSamples returns the minimum sample size for the configured mode
func (p Params) RequiredSamples() int {
	switch p.Mode {
	case ModeInQuarter:
		return p.InQuarterMinSamples
	case ModeTrailing:
		return p.TrailingWindow
	default:
		return p.MinSamples
	}
}

// ValidationError represents a parameter validation error
type ValidationError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation error for %s (value: %v): %s", e.Field, e.Value, e.Message)
}

// Stats holds the parametric-normal statistics of one sample
type Stats struct {
	N    int     `json:"n"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	VaR  float64 `json:"var"`
	CVaR float64 `json:"cvar"`
}

// WindowID identifies a window: a calendar quarter, or a row index for
// trailing windows.
type WindowID struct {
	Quarter series.Quarter `json:"quarter"`
	Index   int            `json:"index"`
}

// WindowResult is the estimate for one window in both orientations
type WindowResult struct {
	WindowID
	Start    time.Time     `json:"start"`
	End      time.Time     `json:"end"`
	PlotDate time.Time     `json:"plot_date"`
	Regime   series.Regime `json:"regime"`

	Long  Stats `json:"long"`
	Short Stats `json:"short"`

	VaRSpread float64 `json:"var_spread"`
	// AbsRatio is |VaRSpread|/|Long.Mean|; meaningless unless AbsRatioDefined.
	AbsRatio        float64 `json:"abs_ratio"`
	AbsRatioDefined bool    `json:"abs_ratio_defined"`
}

// SkippedWindow marks a window whose sample was below the minimum size
type SkippedWindow struct {
	WindowID
	N        int    `json:"n"`
	Required int    `json:"required"`
	Reason   string `json:"reason"`
}

// Report collects all windows of one estimation run
type Report struct {
	Params  Params
	Results []WindowResult
	Skipped []SkippedWindow
}

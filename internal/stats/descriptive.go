// Package stats provides descriptive statistics and variance comparisons
// over price series.
package stats

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Summary holds descriptive statistics of one sample
type Summary struct {
	Count int     `json:"count"`
	Mean  float64 `json:"mean"`
	Std   float64 `json:"std"`
	Min   float64 `json:"min"`
	Q25   float64 `json:"q25"`
	Q50   float64 `json:"q50"`
	Q75   float64 `json:"q75"`
	Max   float64 `json:"max"`
	Skew  float64 `json:"skew"`
}

// Describe summarizes x, ignoring NaN values. Std and Skew are NaN when the
// sample is too small to define them (n < 2 and n < 3).
func Describe(x []float64) Summary {
	clean := dropNaN(x)
	n := len(clean)
	s := Summary{Count: n}
	if n == 0 {
		nan := math.NaN()
		s.Mean, s.Std, s.Min, s.Q25, s.Q50, s.Q75, s.Max, s.Skew = nan, nan, nan, nan, nan, nan, nan, nan
		return s
	}

	sorted := append([]float64(nil), clean...)
	sort.Float64s(sorted)

	s.Mean = stat.Mean(clean, nil)
	s.Std = math.NaN()
	if n > 1 {
		s.Std = stat.StdDev(clean, nil)
	}
	s.Min = sorted[0]
	s.Max = sorted[n-1]
	s.Q25 = Quantile(sorted, 0.25)
	s.Q50 = Quantile(sorted, 0.50)
	s.Q75 = Quantile(sorted, 0.75)
	s.Skew = math.NaN()
	if n > 2 {
		s.Skew = stat.Skew(clean, nil)
	}
	return s
}

// Quantile returns the p-quantile of sorted data by linear interpolation
// between closest ranks, position (n-1)*p.
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := p * float64(n-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	return sorted[lo] + (sorted[hi]-sorted[lo])*(pos-float64(lo))
}

// Median of x; x is not modified
func Median(x []float64) float64 {
	sorted := append([]float64(nil), x...)
	sort.Float64s(sorted)
	return Quantile(sorted, 0.5)
}

// Variance is the Bessel-corrected variance of x ignoring NaN values, or NaN
// with fewer than two values.
func Variance(x []float64) float64 {
	clean := dropNaN(x)
	if len(clean) < 2 {
		return math.NaN()
	}
	return stat.Variance(clean, nil)
}

func dropNaN(x []float64) []float64 {
	if !floats.HasNaN(x) {
		return x
	}
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

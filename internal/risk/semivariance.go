package risk

import (
	"math"

	"gonum.org/v1/gonum/stat"
)

// RollingDownsideSemiVariance returns, for every index i >= w, the mean of
// the squared negative values of the w observations before i (r[i-w:i]).
// A window without negative values yields 0. The result is aligned with r;
// indices below w are NaN.
func RollingDownsideSemiVariance(r []float64, w int) []float64 {
	out := make([]float64, len(r))
	for i := range out {
		if i < w || w < 1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = DownsideSemiVariance(r[i-w : i])
	}
	return out
}

// DownsideSemiVariance is the mean of squared negative values of x, or 0
// when x has none. NaN values are ignored.
func DownsideSemiVariance(x []float64) float64 {
	var sum float64
	var n int
	for _, v := range x {
		if v < 0 {
			sum += v * v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// RollingFilteredVariance replaces non-negative (and NaN) values of r by 0
// and returns the Bessel-corrected variance over each window of w values
// ending at i (r[i-w+1:i+1]). The result is aligned with r; indices below
// w-1 are NaN.
//
// This is not the downside semi-variance: zeros count towards the mean and
// the divisor.
func RollingFilteredVariance(r []float64, w int) []float64 {
	filtered := NegativeFilter(r)
	out := make([]float64, len(r))
	for i := range out {
		if w < 2 || i < w-1 {
			out[i] = math.NaN()
			continue
		}
		out[i] = stat.Variance(filtered[i-w+1:i+1], nil)
	}
	return out
}

// NegativeFilter maps each value to min(v, 0), with NaN mapped to 0
func NegativeFilter(r []float64) []float64 {
	out := make([]float64, len(r))
	for i, v := range r {
		if v < 0 {
			out[i] = v
		}
	}
	return out
}

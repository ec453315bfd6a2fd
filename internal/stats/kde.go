package stats

import (
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// KDE is a one-dimensional Gaussian kernel density estimate
type KDE struct {
	data      []float64
	bandwidth float64
}

// NewKDE builds an estimate over x (NaN ignored) with Scott's rule
// bandwidth std*n^(-1/5). It returns nil when fewer than two distinct
// values are present.
func NewKDE(x []float64) *KDE {
	clean := dropNaN(x)
	if len(clean) < 2 {
		return nil
	}
	std := stat.StdDev(clean, nil)
	if std == 0 {
		return nil
	}
	bw := std * math.Pow(float64(len(clean)), -0.2)
	return &KDE{data: append([]float64(nil), clean...), bandwidth: bw}
}

// Bandwidth returns the kernel standard deviation
func (k *KDE) Bandwidth() float64 {
	return k.bandwidth
}

// Density evaluates the estimate at x
func (k *KDE) Density(x float64) float64 {
	kernel := distuv.Normal{Mu: 0, Sigma: k.bandwidth}
	var sum float64
	for _, v := range k.data {
		sum += kernel.Prob(x - v)
	}
	return sum / float64(len(k.data))
}

// Grid evaluates the estimate at n evenly spaced points spanning the data
// range extended by cut bandwidths on both sides.
func (k *KDE) Grid(n int, cut float64) (xs, ys []float64) {
	if n < 2 {
		n = 2
	}
	lo := floats.Min(k.data) - cut*k.bandwidth
	hi := floats.Max(k.data) + cut*k.bandwidth
	xs = floats.Span(make([]float64, n), lo, hi)
	ys = make([]float64, n)
	for i, x := range xs {
		ys[i] = k.Density(x)
	}
	return xs, ys
}

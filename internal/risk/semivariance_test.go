package risk

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRollingDownsideSemiVariance(t *testing.T) {
	r := []float64{0.01, -0.02, -0.01, 0.03, -0.005}

	sv := RollingDownsideSemiVariance(r, 3)
	require.Len(t, sv, len(r))

	for i := 0; i < 3; i++ {
		assert.True(t, math.IsNaN(sv[i]), "index %d", i)
	}
	// window [-0.02, -0.01, 0.03]: mean(0.0004, 0.0001)
	assert.InDelta(t, 0.00025, sv[4], 1e-15)
	// window [0.01, -0.02, -0.01]
	assert.InDelta(t, 0.00025, sv[3], 1e-15)
}

func TestDownsideSemiVariance(t *testing.T) {
	tests := []struct {
		name string
		x    []float64
		want float64
	}{
		{name: "no negatives", x: []float64{0.01, 0.02, 0}, want: 0},
		{name: "empty", x: nil, want: 0},
		{name: "single negative", x: []float64{-0.03, 0.01}, want: 0.0009},
		{name: "nan ignored", x: []float64{math.NaN(), -0.01}, want: 0.0001},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, DownsideSemiVariance(tt.x), 1e-15)
		})
	}
}

func TestRollingFilteredVariance(t *testing.T) {
	r := []float64{math.NaN(), 0.01, -0.02, -0.01, 0.03, -0.005}

	v := RollingFilteredVariance(r, 3)
	require.Len(t, v, len(r))
	assert.True(t, math.IsNaN(v[0]))
	assert.True(t, math.IsNaN(v[1]))

	// filtered window at i=3: [0, -0.02, -0.01], mean -0.01
	want := (0.0001 + 0.0001 + 0) / 2
	assert.InDelta(t, want, v[3], 1e-15)

	// zeros count: differs from downside semi-variance of the same window
	assert.NotEqual(t, DownsideSemiVariance(r[1:4]), v[3])

	// NaN is treated as zero
	assert.InDelta(t, varianceOf(0, 0, -0.02), v[2], 1e-15)
}

func varianceOf(x ...float64) float64 {
	var mean float64
	for _, v := range x {
		mean += v
	}
	mean /= float64(len(x))
	var ss float64
	for _, v := range x {
		ss += (v - mean) * (v - mean)
	}
	return ss / float64(len(x)-1)
}

func TestNegativeFilter(t *testing.T) {
	got := NegativeFilter([]float64{math.NaN(), 0.5, -0.5, 0})
	assert.Equal(t, []float64{0, 0, -0.5, 0}, got)
}

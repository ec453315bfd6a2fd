package stats

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "gasrisk/internal/errors"
	"gasrisk/internal/series"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func buildSeries(t *testing.T, obs ...series.Observation) *series.Series {
	t.Helper()
	s, err := series.New(obs)
	require.NoError(t, err)
	return s
}

func TestDescribe(t *testing.T) {
	tests := []struct {
		name  string
		input []float64
		check func(t *testing.T, s Summary)
	}{
		{
			name:  "four values",
			input: []float64{4, 1, 3, 2},
			check: func(t *testing.T, s Summary) {
				assert.Equal(t, 4, s.Count)
				assert.InDelta(t, 2.5, s.Mean, 1e-15)
				assert.InDelta(t, math.Sqrt(5.0/3.0), s.Std, 1e-12)
				assert.Equal(t, 1.0, s.Min)
				assert.InDelta(t, 1.75, s.Q25, 1e-15)
				assert.InDelta(t, 2.5, s.Q50, 1e-15)
				assert.InDelta(t, 3.25, s.Q75, 1e-15)
				assert.Equal(t, 4.0, s.Max)
				assert.InDelta(t, 0, s.Skew, 1e-12)
			},
		},
		{
			name:  "NaN ignored",
			input: []float64{math.NaN(), 1, 2, 3},
			check: func(t *testing.T, s Summary) {
				assert.Equal(t, 3, s.Count)
				assert.InDelta(t, 2, s.Mean, 1e-15)
				assert.InDelta(t, 2, s.Q50, 1e-15)
			},
		},
		{
			name:  "right skewed",
			input: []float64{1, 1, 1, 1, 10},
			check: func(t *testing.T, s Summary) {
				assert.Greater(t, s.Skew, 0.0)
			},
		},
		{
			name:  "single value",
			input: []float64{7},
			check: func(t *testing.T, s Summary) {
				assert.Equal(t, 1, s.Count)
				assert.Equal(t, 7.0, s.Mean)
				assert.True(t, math.IsNaN(s.Std))
				assert.True(t, math.IsNaN(s.Skew))
			},
		},
		{
			name:  "empty",
			input: nil,
			check: func(t *testing.T, s Summary) {
				assert.Equal(t, 0, s.Count)
				assert.True(t, math.IsNaN(s.Mean))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.check(t, Describe(tt.input))
		})
	}
}

func TestMedian(t *testing.T) {
	x := []float64{5, 1, 3, 2}
	assert.Equal(t, 2.5, Median(x))
	assert.Equal(t, []float64{5, 1, 3, 2}, x, "input must not be reordered")
}

func TestRegimeVariance(t *testing.T) {
	s := buildSeries(t,
		series.Observation{Time: day(2021, 1, 4), Close: 1},
		series.Observation{Time: day(2021, 1, 5), Close: 3},
		series.Observation{Time: day(2022, 3, 1), Close: 10, Regime: series.War},
		series.Observation{Time: day(2022, 3, 2), Close: 20, Regime: series.War},
		series.Observation{Time: day(2022, 3, 3), Close: 30, Regime: series.War},
	)

	v := RegimeVariance(s)
	assert.InDelta(t, 100, v.War, 1e-12)
	assert.InDelta(t, 2, v.NonWar, 1e-12)
}

func TestAnnualVariance(t *testing.T) {
	s := buildSeries(t,
		series.Observation{Time: day(2013, 6, 1), Close: 5},
		series.Observation{Time: day(2013, 6, 2), Close: 9},
		series.Observation{Time: day(2014, 1, 2), Close: 1},
		series.Observation{Time: day(2014, 1, 3), Close: 2},
		series.Observation{Time: day(2014, 1, 4), Close: 3},
		series.Observation{Time: day(2015, 1, 2), Close: 4},
	)

	got := AnnualVariance(s, 2014)
	require.Len(t, got, 2)
	assert.Equal(t, 2014, got[0].Year)
	assert.InDelta(t, 1, got[0].Value, 1e-12)
	assert.Equal(t, 2015, got[1].Year)
	assert.True(t, math.IsNaN(got[1].Value), "one observation has no variance")
}

func TestAnnualRegimeVariance(t *testing.T) {
	s := buildSeries(t,
		series.Observation{Time: day(2022, 1, 3), Close: 1},
		series.Observation{Time: day(2022, 1, 4), Close: 3},
		series.Observation{Time: day(2022, 3, 1), Close: 10, Regime: series.War},
		series.Observation{Time: day(2022, 3, 2), Close: 14, Regime: series.War},
		series.Observation{Time: day(2023, 1, 2), Close: 20, Regime: series.War},
		series.Observation{Time: day(2023, 1, 3), Close: 26, Regime: series.War},
	)

	got := AnnualRegimeVariance(s)
	require.Len(t, got, 2)
	assert.Equal(t, 2022, got[0].Year)
	assert.InDelta(t, 8, got[0].War, 1e-12)
	assert.InDelta(t, 2, got[0].NonWar, 1e-12)
	assert.Equal(t, 2023, got[1].Year)
	assert.InDelta(t, 18, got[1].War, 1e-12)
	assert.True(t, math.IsNaN(got[1].NonWar))
}

func TestTimeRollingVariance(t *testing.T) {
	times := []time.Time{day(2022, 1, 1), day(2022, 1, 2), day(2022, 1, 3), day(2022, 1, 4), day(2022, 1, 5)}
	values := []float64{1, 2, 4, 7, 11}

	// (t-2d, t] holds the current and the previous day
	got := TimeRollingVariance(times, values, 48*time.Hour)
	require.Len(t, got, 4)
	assert.Equal(t, day(2022, 1, 2), got[0].Time)
	assert.InDelta(t, 0.5, got[0].Value, 1e-12)
	assert.InDelta(t, 2, got[1].Value, 1e-12)
	assert.InDelta(t, 4.5, got[2].Value, 1e-12)
	assert.InDelta(t, 8, got[3].Value, 1e-12)

	// Gaps shrink the window below two points
	sparse := []time.Time{day(2022, 1, 1), day(2022, 2, 1), day(2022, 2, 2)}
	got = TimeRollingVariance(sparse, []float64{1, 5, 6}, 48*time.Hour)
	require.Len(t, got, 1)
	assert.Equal(t, day(2022, 2, 2), got[0].Time)
}

func TestLevene(t *testing.T) {
	t.Run("different spread", func(t *testing.T) {
		res, err := Levene([]float64{1, 2, 3, 4, 5}, []float64{2, 4, 6, 8, 10})
		require.NoError(t, err)
		assert.Equal(t, 1, res.DF1)
		assert.Equal(t, 8, res.DF2)
		assert.InDelta(t, 8.0*3.6/14.0, res.Statistic, 1e-12)
		assert.Greater(t, res.PValue, 0.1)
		assert.Less(t, res.PValue, 0.3)
		assert.False(t, res.Significant())
	})

	t.Run("equal spread", func(t *testing.T) {
		res, err := Levene([]float64{1, 2, 3}, []float64{11, 12, 13})
		require.NoError(t, err)
		assert.InDelta(t, 0, res.Statistic, 1e-12)
		assert.InDelta(t, 1, res.PValue, 1e-12)
	})

	t.Run("clearly different spread", func(t *testing.T) {
		narrow := make([]float64, 50)
		wide := make([]float64, 50)
		for i := range narrow {
			sign := float64(1 - 2*(i%2))
			narrow[i] = 100 + sign*0.1*float64(i%5)
			wide[i] = 100 + sign*10*float64(i%5)
		}
		res, err := Levene(narrow, wide)
		require.NoError(t, err)
		assert.True(t, res.Significant())
	})

	t.Run("one group", func(t *testing.T) {
		_, err := Levene([]float64{1, 2})
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeValidation))
	})

	t.Run("empty group", func(t *testing.T) {
		_, err := Levene([]float64{1, 2}, nil)
		require.Error(t, err)
		assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInsufficientData))
	})
}

func TestCompareVolatility(t *testing.T) {
	s := buildSeries(t,
		series.Observation{Time: day(2020, 12, 29), Close: 1},
		series.Observation{Time: day(2020, 12, 30), Close: 2},
		series.Observation{Time: day(2020, 12, 31), Close: 3},
		series.Observation{Time: day(2021, 1, 4), Close: 50},
		series.Observation{Time: day(2023, 1, 2), Close: 10},
		series.Observation{Time: day(2023, 1, 3), Close: 20},
		series.Observation{Time: day(2023, 1, 4), Close: 30},
	)

	cmp, err := CompareVolatility(s, day(2020, 12, 31), 2023)
	require.NoError(t, err)
	assert.Equal(t, 3, cmp.BaselineN, "baseline end date is inclusive")
	assert.Equal(t, 3, cmp.YearN)
	want, err := Levene([]float64{1, 2, 3}, []float64{10, 20, 30})
	require.NoError(t, err)
	assert.Equal(t, want, cmp.LeveneResult)

	_, err = CompareVolatility(s, day(2020, 12, 31), 2025)
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrTypeInsufficientData))
}

func TestKDE(t *testing.T) {
	assert.Nil(t, NewKDE([]float64{1}))
	assert.Nil(t, NewKDE([]float64{2, 2, 2}))

	k := NewKDE([]float64{-1, 0, 1})
	require.NotNil(t, k)
	assert.InDelta(t, math.Pow(3, -0.2), k.Bandwidth(), 1e-12)
	assert.InDelta(t, k.Density(-0.5), k.Density(0.5), 1e-12)

	xs, ys := k.Grid(2001, 5)
	require.Len(t, xs, 2001)
	var mass float64
	for i := 1; i < len(xs); i++ {
		mass += (xs[i] - xs[i-1]) * (ys[i] + ys[i-1]) / 2
	}
	assert.InDelta(t, 1, mass, 1e-3)
}

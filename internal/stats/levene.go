package stats

import (
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	apperrors "gasrisk/internal/errors"
	"gasrisk/internal/series"
)

// SignificanceLevel is the p-value threshold used when reporting tests
const SignificanceLevel = 0.05

// LeveneResult is the outcome of a Levene test for equal variances
type LeveneResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
	DF1       int     `json:"df1"`
	DF2       int     `json:"df2"`
}

// Significant reports whether the variances differ at SignificanceLevel
func (r LeveneResult) Significant() bool {
	return r.PValue < SignificanceLevel
}

// Levene performs the median-centred (Brown-Forsythe) Levene test on two or
// more groups. NaN values are ignored.
func Levene(groups ...[]float64) (LeveneResult, error) {
	if len(groups) < 2 {
		return LeveneResult{}, apperrors.NewAppValidationError("levene test needs at least two groups")
	}

	k := len(groups)
	dev := make([][]float64, k)
	means := make([]float64, k)
	var total int
	for i, g := range groups {
		g = dropNaN(g)
		if len(g) == 0 {
			return LeveneResult{}, apperrors.NewInsufficientDataError(0, 1).
				WithContext("group", i)
		}
		med := Median(g)
		d := make([]float64, len(g))
		for j, v := range g {
			d[j] = math.Abs(v - med)
		}
		dev[i] = d
		means[i] = stat.Mean(d, nil)
		total += len(g)
	}
	if total <= k {
		return LeveneResult{}, apperrors.NewInsufficientDataError(total, k+1)
	}

	var grand float64
	for i := range dev {
		grand += means[i] * float64(len(dev[i]))
	}
	grand /= float64(total)

	var between, within float64
	for i, d := range dev {
		diff := means[i] - grand
		between += float64(len(d)) * diff * diff
		for _, v := range d {
			within += (v - means[i]) * (v - means[i])
		}
	}

	d1, d2 := k-1, total-k
	res := LeveneResult{DF1: d1, DF2: d2}
	if within == 0 {
		res.Statistic = math.Inf(1)
		res.PValue = 0
		if between == 0 {
			res.Statistic, res.PValue = math.NaN(), math.NaN()
		}
		return res, nil
	}
	res.Statistic = float64(d2) / float64(d1) * between / within
	res.PValue = distuv.F{D1: float64(d1), D2: float64(d2)}.Survival(res.Statistic)
	return res, nil
}

// VolatilityComparison is a Levene test of a year against a baseline period
type VolatilityComparison struct {
	Year        int       `json:"year"`
	BaselineEnd time.Time `json:"baseline_end"`
	BaselineN   int       `json:"baseline_n"`
	YearN       int       `json:"year_n"`
	LeveneResult
}

// CompareVolatility tests the closes up to and including the day of
// baselineEnd against the closes of year.
func CompareVolatility(s *series.Series, baselineEnd time.Time, year int) (VolatilityComparison, error) {
	cutoff := baselineEnd.Truncate(24 * time.Hour).AddDate(0, 0, 1)
	baseline := s.Filter(func(o series.Observation) bool { return o.Time.Before(cutoff) })
	target := s.FilterYears(year, year)

	cmp := VolatilityComparison{
		Year:        year,
		BaselineEnd: baselineEnd,
		BaselineN:   baseline.Len(),
		YearN:       target.Len(),
	}
	if baseline.Len() == 0 || target.Len() == 0 {
		return cmp, apperrors.NewInsufficientDataError(min(baseline.Len(), target.Len()), 1).
			WithContext("year", year)
	}

	res, err := Levene(baseline.Closes(), target.Closes())
	if err != nil {
		return cmp, fmt.Errorf("levene test for %d: %w", year, err)
	}
	cmp.LeveneResult = res
	return cmp, nil
}

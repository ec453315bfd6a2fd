package stats

import (
	"math"
	"sort"
	"time"

	"gasrisk/internal/series"
)

// RegimeSplit holds a statistic computed separately for both regimes
type RegimeSplit struct {
	War    float64 `json:"war"`
	NonWar float64 `json:"non_war"`
}

// RegimeVariance is the variance of closes within each regime
func RegimeVariance(s *series.Series) RegimeSplit {
	war, nonWar := s.Split()
	return RegimeSplit{
		War:    Variance(war.Closes()),
		NonWar: Variance(nonWar.Closes()),
	}
}

// YearValue is one per-year statistic
type YearValue struct {
	Year  int     `json:"year"`
	Value float64 `json:"value"`
}

// AnnualVariance returns the variance of closes for every year >= fromYear
// present in s, in year order.
func AnnualVariance(s *series.Series, fromYear int) []YearValue {
	byYear := closesByYear(s, func(series.Observation) bool { return true })
	var out []YearValue
	for _, y := range sortedYears(byYear) {
		if y < fromYear {
			continue
		}
		out = append(out, YearValue{Year: y, Value: Variance(byYear[y])})
	}
	return out
}

// YearRegimeValue is one per-year statistic split by regime. A regime with
// fewer than two observations in the year has a NaN value.
type YearRegimeValue struct {
	Year int `json:"year"`
	RegimeSplit
}

// AnnualRegimeVariance returns, for every year of s, the variance of closes
// in each regime.
func AnnualRegimeVariance(s *series.Series) []YearRegimeValue {
	war := closesByYear(s, func(o series.Observation) bool { return o.Regime == series.War })
	nonWar := closesByYear(s, func(o series.Observation) bool { return o.Regime == series.NonWar })

	out := make([]YearRegimeValue, 0, len(s.Years()))
	for _, y := range s.Years() {
		out = append(out, YearRegimeValue{
			Year:        y,
			RegimeSplit: RegimeSplit{War: Variance(war[y]), NonWar: Variance(nonWar[y])},
		})
	}
	return out
}

// TimePoint is a value at a timestamp
type TimePoint struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// TimeRollingVariance computes, at every times[i], the variance of the
// values whose timestamp lies in (times[i]-span, times[i]]. Points whose
// window holds fewer than two values are omitted. times must be sorted.
func TimeRollingVariance(times []time.Time, values []float64, span time.Duration) []TimePoint {
	out := make([]TimePoint, 0, len(times))
	lo := 0
	for i, t := range times {
		from := t.Add(-span)
		for lo < i && !times[lo].After(from) {
			lo++
		}
		v := Variance(values[lo : i+1])
		if math.IsNaN(v) {
			continue
		}
		out = append(out, TimePoint{Time: t, Value: v})
	}
	return out
}

func closesByYear(s *series.Series, keep func(series.Observation) bool) map[int][]float64 {
	out := make(map[int][]float64)
	for _, o := range s.Observations() {
		if keep(o) {
			out[o.Time.Year()] = append(out[o.Time.Year()], o.Close)
		}
	}
	return out
}

func sortedYears(m map[int][]float64) []int {
	years := make([]int, 0, len(m))
	for y := range m {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}

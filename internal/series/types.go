package series

import (
	"fmt"
	"math"
	"sort"
	"time"
)

// Regime is the binary conflict flag of an observation ("Dummy" column)
type Regime int

const (
	NonWar Regime = 0
	War    Regime = 1
)

// String returns the string representation of the regime
func (r Regime) String() string {
	if r == War {
		return "war"
	}
	return "non-war"
}

// Observation represents one row of the price table
type Observation struct {
	Time   time.Time `json:"time"`
	Close  float64   `json:"close"`
	Regime Regime    `json:"regime"`
}

// IsValid reports whether the observation carries a usable price: a
// finite, strictly positive close.
func (o Observation) IsValid() bool {
	return !o.Time.IsZero() && !math.IsNaN(o.Close) && !math.IsInf(o.Close, 0) && o.Close > 0
}

// Series is an immutable, time-ordered price table. Timestamps are unique.
type Series struct {
	obs []Observation
}

// New sorts observations by time and rejects duplicate timestamps.
func New(obs []Observation) (*Series, error) {
	sorted := make([]Observation, len(obs))
	copy(sorted, obs)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Time.Before(sorted[j].Time)
	})
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Time.Equal(sorted[i-1].Time) {
			return nil, &DuplicateTimestampError{Time: sorted[i].Time}
		}
	}
	return &Series{obs: sorted}, nil
}

// DuplicateTimestampError reports two rows sharing a timestamp
type DuplicateTimestampError struct {
	Time time.Time
}

func (e *DuplicateTimestampError) Error() string {
	return fmt.Sprintf("duplicate timestamp %s", e.Time.Format("2006-01-02 15:04:05"))
}

// NonPositiveCloseError reports a close at or below zero. Percentage
// returns are undefined after such a price.
type NonPositiveCloseError struct {
	Line  int
	Close float64
}

func (e *NonPositiveCloseError) Error() string {
	return fmt.Sprintf("non-positive close %v on line %d", e.Close, e.Line)
}

// Len returns the number of observations
func (s *Series) Len() int {
	return len(s.obs)
}

// At returns the i-th observation
func (s *Series) At(i int) Observation {
	return s.obs[i]
}

// Observations returns a copy of the observations
func (s *Series) Observations() []Observation {
	out := make([]Observation, len(s.obs))
	copy(out, s.obs)
	return out
}

// Times returns the observation timestamps
func (s *Series) Times() []time.Time {
	out := make([]time.Time, len(s.obs))
	for i, o := range s.obs {
		out[i] = o.Time
	}
	return out
}

// Closes returns the closing prices
func (s *Series) Closes() []float64 {
	out := make([]float64, len(s.obs))
	for i, o := range s.obs {
		out[i] = o.Close
	}
	return out
}

// Regimes returns the regime flags
func (s *Series) Regimes() []Regime {
	out := make([]Regime, len(s.obs))
	for i, o := range s.obs {
		out[i] = o.Regime
	}
	return out
}

// First returns the earliest timestamp, or the zero time for an empty series
func (s *Series) First() time.Time {
	if len(s.obs) == 0 {
		return time.Time{}
	}
	return s.obs[0].Time
}

// Last returns the latest timestamp, or the zero time for an empty series
func (s *Series) Last() time.Time {
	if len(s.obs) == 0 {
		return time.Time{}
	}
	return s.obs[len(s.obs)-1].Time
}

// Filter returns the observations for which keep is true
func (s *Series) Filter(keep func(Observation) bool) *Series {
	out := make([]Observation, 0, len(s.obs))
	for _, o := range s.obs {
		if keep(o) {
			out = append(out, o)
		}
	}
	return &Series{obs: out}
}

// FilterYears keeps observations whose calendar year is within [from, to]
func (s *Series) FilterYears(from, to int) *Series {
	return s.Filter(func(o Observation) bool {
		y := o.Time.Year()
		return y >= from && y <= to
	})
}

// Split partitions the series by regime
func (s *Series) Split() (war, nonWar *Series) {
	war = s.Filter(func(o Observation) bool { return o.Regime == War })
	nonWar = s.Filter(func(o Observation) bool { return o.Regime != War })
	return war, nonWar
}

// Years returns the distinct calendar years in ascending order
func (s *Series) Years() []int {
	var years []int
	for _, o := range s.obs {
		y := o.Time.Year()
		if len(years) == 0 || years[len(years)-1] != y {
			years = append(years, y)
		}
	}
	return years
}

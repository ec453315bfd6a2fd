package series

import (
	"fmt"
	"time"
)

// Quarter identifies a calendar quarter
type Quarter struct {
	Year int `json:"year"`
	Q    int `json:"quarter"`
}

// QuarterOf returns the calendar quarter containing t
func QuarterOf(t time.Time) Quarter {
	return Quarter{Year: t.Year(), Q: (int(t.Month())-1)/3 + 1}
}

// String formats the quarter as 2022Q1
func (q Quarter) String() string {
	return fmt.Sprintf("%dQ%d", q.Year, q.Q)
}

// Start returns the first instant of the quarter in UTC
func (q Quarter) Start() time.Time {
	return time.Date(q.Year, time.Month(3*(q.Q-1)+1), 1, 0, 0, 0, 0, time.UTC)
}

// Add moves the quarter by n quarters (negative goes back)
func (q Quarter) Add(n int) Quarter {
	idx := q.Year*4 + (q.Q - 1) + n
	return Quarter{Year: floorDiv(idx, 4), Q: idx - floorDiv(idx, 4)*4 + 1}
}

// MidMonth returns the first day of the quarter's middle month.
func (q Quarter) MidMonth() time.Time {
	return time.Date(q.Year, time.Month(3*(q.Q-1)+2), 1, 0, 0, 0, 0, time.UTC)
}

// PlotDate is the chart position of a quarter: the 15th of its first month.
func (q Quarter) PlotDate() time.Time {
	return time.Date(q.Year, time.Month(3*q.Q-2), 15, 0, 0, 0, 0, time.UTC)
}

func floorDiv(a, b int) int {
	d := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		d--
	}
	return d
}

// QuarterGroup is the contiguous run of observation indices in one quarter
type QuarterGroup struct {
	Quarter Quarter
	// From and To bound the group's indices, To exclusive.
	From, To int
}

// GroupByQuarter groups the series into calendar quarters in time order
func (s *Series) GroupByQuarter() []QuarterGroup {
	var groups []QuarterGroup
	for i, o := range s.obs {
		q := QuarterOf(o.Time)
		if n := len(groups); n > 0 && groups[n-1].Quarter == q {
			groups[n-1].To = i + 1
			continue
		}
		groups = append(groups, QuarterGroup{Quarter: q, From: i, To: i + 1})
	}
	return groups
}

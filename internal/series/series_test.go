package series

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func mustSeries(t *testing.T, obs ...Observation) *Series {
	t.Helper()
	s, err := New(obs)
	require.NoError(t, err)
	return s
}

func TestNew_SortsAndRejectsDuplicates(t *testing.T) {
	s := mustSeries(t,
		Observation{Time: day(2022, 1, 3), Close: 3},
		Observation{Time: day(2022, 1, 1), Close: 1},
		Observation{Time: day(2022, 1, 2), Close: 2},
	)
	assert.Equal(t, []float64{1, 2, 3}, s.Closes())
	assert.Equal(t, day(2022, 1, 1), s.First())
	assert.Equal(t, day(2022, 1, 3), s.Last())

	_, err := New([]Observation{
		{Time: day(2022, 1, 1), Close: 1},
		{Time: day(2022, 1, 1), Close: 2},
	})
	var dup *DuplicateTimestampError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, day(2022, 1, 1), dup.Time)
}

func TestObservation_IsValid(t *testing.T) {
	tests := []struct {
		name string
		obs  Observation
		want bool
	}{
		{name: "positive close", obs: Observation{Time: day(2022, 1, 3), Close: 80}, want: true},
		{name: "zero close", obs: Observation{Time: day(2022, 1, 3), Close: 0}},
		{name: "negative close", obs: Observation{Time: day(2022, 1, 3), Close: -2}},
		{name: "nan close", obs: Observation{Time: day(2022, 1, 3), Close: math.NaN()}},
		{name: "infinite close", obs: Observation{Time: day(2022, 1, 3), Close: math.Inf(1)}},
		{name: "zero time", obs: Observation{Close: 80}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.obs.IsValid())
		})
	}
}

func TestReturns(t *testing.T) {
	s := mustSeries(t,
		Observation{Time: day(2022, 1, 1), Close: 100},
		Observation{Time: day(2022, 1, 2), Close: 110},
		Observation{Time: day(2022, 1, 3), Close: 99},
	)

	r := s.Returns()
	require.Len(t, r, 3)
	assert.True(t, math.IsNaN(r[0]))
	assert.InDelta(t, 0.10, r[1], 1e-12)
	assert.InDelta(t, -0.10, r[2], 1e-12)

	short := s.ShortReturns()
	assert.True(t, math.IsNaN(short[0]))
	assert.InDelta(t, -0.10, short[1], 1e-12)
	assert.InDelta(t, 0.10, short[2], 1e-12)

	assert.Len(t, DropNaN(r), 2)
}

func TestFilterAndSplit(t *testing.T) {
	s := mustSeries(t,
		Observation{Time: day(2020, 6, 1), Close: 1},
		Observation{Time: day(2021, 6, 1), Close: 2},
		Observation{Time: day(2022, 3, 1), Close: 3, Regime: War},
		Observation{Time: day(2023, 6, 1), Close: 4, Regime: War},
	)

	assert.Equal(t, []float64{2, 3}, s.FilterYears(2021, 2022).Closes())
	assert.Equal(t, []int{2020, 2021, 2022, 2023}, s.Years())

	war, nonWar := s.Split()
	assert.Equal(t, []float64{3, 4}, war.Closes())
	assert.Equal(t, []float64{1, 2}, nonWar.Closes())
	assert.Equal(t, "war", War.String())
	assert.Equal(t, "non-war", NonWar.String())
}

func TestQuarter(t *testing.T) {
	tests := []struct {
		name string
		t    time.Time
		want Quarter
	}{
		{name: "january", t: day(2022, 1, 1), want: Quarter{2022, 1}},
		{name: "end of march", t: day(2022, 3, 31), want: Quarter{2022, 1}},
		{name: "april", t: day(2022, 4, 1), want: Quarter{2022, 2}},
		{name: "december", t: day(2022, 12, 31), want: Quarter{2022, 4}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, QuarterOf(tt.t))
		})
	}

	q := Quarter{2022, 1}
	assert.Equal(t, Quarter{2021, 2}, q.Add(-3))
	assert.Equal(t, Quarter{2023, 1}, q.Add(4))
	assert.Equal(t, day(2022, 1, 1), q.Start())
	assert.Equal(t, day(2022, 1, 15), q.PlotDate())
	assert.Equal(t, day(2022, 2, 1), q.MidMonth())
	assert.Equal(t, day(2022, 11, 1), Quarter{2022, 4}.MidMonth())
	assert.Equal(t, "2022Q1", q.String())
}

func TestGroupByQuarter(t *testing.T) {
	s := mustSeries(t,
		Observation{Time: day(2022, 1, 3), Close: 1},
		Observation{Time: day(2022, 2, 3), Close: 1},
		Observation{Time: day(2022, 4, 3), Close: 1},
		Observation{Time: day(2023, 1, 3), Close: 1},
	)

	groups := s.GroupByQuarter()
	require.Len(t, groups, 3)
	assert.Equal(t, QuarterGroup{Quarter: Quarter{2022, 1}, From: 0, To: 2}, groups[0])
	assert.Equal(t, QuarterGroup{Quarter: Quarter{2022, 2}, From: 2, To: 3}, groups[1])
	assert.Equal(t, QuarterGroup{Quarter: Quarter{2023, 1}, From: 3, To: 4}, groups[2])
}

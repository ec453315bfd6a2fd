package chart

import (
	"fmt"
	"image/color"
	"math"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Line is one time series. NaN values are left out.
type Line struct {
	Label  string
	Times  []time.Time
	Values []float64
	Color  color.Color
	Dashed bool
	// Shade fills the area under the line where the mask is true.
	Shade      []bool
	ShadeLabel string
	ShadeColor color.Color
}

// TimeSeries is a line chart over time with optional event markers
type TimeSeries struct {
	Title, XLabel, YLabel string
	Lines                 []Line
	Events                []Event
	InvertY               bool
	ZeroLine              bool
	// TimeFormat formats x tick labels; empty uses "2006-01".
	TimeFormat string
	Size       Size
}

// Render draws the chart to path
func (ts TimeSeries) Render(path string) error {
	p := newPlot(ts.Title, ts.XLabel, ts.YLabel)
	format := ts.TimeFormat
	if format == "" {
		format = "2006-01"
	}
	p.X.Tick.Marker = plot.TimeTicks{Format: format}

	xmin, xmax := math.Inf(1), math.Inf(-1)
	ymin, ymax := math.Inf(1), math.Inf(-1)

	for _, ln := range ts.Lines {
		xys := make(plotter.XYs, 0, len(ln.Values))
		for i, v := range ln.Values {
			if i >= len(ln.Times) || !finite(v) {
				continue
			}
			x := unix(ln.Times[i])
			xys = append(xys, plotter.XY{X: x, Y: v})
			xmin, xmax = math.Min(xmin, x), math.Max(xmax, x)
			ymin, ymax = math.Min(ymin, v), math.Max(ymax, v)
		}
		if len(xys) == 0 {
			continue
		}

		if len(ln.Shade) > 0 {
			if err := addShade(p, ln); err != nil {
				return err
			}
		}

		l, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("line %s: %w", ln.Label, err)
		}
		c := ln.Color
		if c == nil {
			c = Blue
		}
		l.LineStyle.Color = c
		l.LineStyle.Width = vg.Points(1.5)
		if ln.Dashed {
			dashed(l, c)
		}
		p.Add(l)
		if ln.Label != "" {
			p.Legend.Add(ln.Label, l)
		}
	}

	if math.IsInf(ymin, 1) {
		return fmt.Errorf("chart %q has no finite values", ts.Title)
	}

	if ts.ZeroLine {
		z, err := plotter.NewLine(plotter.XYs{{X: xmin, Y: 0}, {X: xmax, Y: 0}})
		if err != nil {
			return err
		}
		z.LineStyle.Color = Gray
		z.LineStyle.Width = vg.Points(0.75)
		p.Add(z)
		ymin, ymax = math.Min(ymin, 0), math.Max(ymax, 0)
	}

	for _, ev := range ts.Events {
		c := ev.Color
		if c == nil {
			c = Black
		}
		l, err := verticalLine(unix(ev.Time), ymin, ymax, withAlpha(c, 0xb3))
		if err != nil {
			return fmt.Errorf("event %s: %w", ev.Label, err)
		}
		p.Add(l)
		p.Legend.Add(ev.Label, l)
	}

	if ts.InvertY {
		p.Y.Scale = plot.InvertedScale{Normalizer: p.Y.Scale}
	}

	return save(p, ts.Size, path)
}

// addShade fills every contiguous masked run of ln
func addShade(p *plot.Plot, ln Line) error {
	fill := ln.ShadeColor
	if fill == nil {
		fill = Red
	}
	fill = withAlpha(fill, 0x4d)

	labelled := false
	var run plotter.XYs
	flush := func() error {
		if len(run) < 2 {
			run = run[:0]
			return nil
		}
		l, err := plotter.NewLine(append(plotter.XYs(nil), run...))
		if err != nil {
			return err
		}
		l.FillColor = fill
		l.LineStyle.Width = 0
		p.Add(l)
		if !labelled && ln.ShadeLabel != "" {
			p.Legend.Add(ln.ShadeLabel, l)
			labelled = true
		}
		run = run[:0]
		return nil
	}

	for i, v := range ln.Values {
		if i >= len(ln.Times) || i >= len(ln.Shade) || !ln.Shade[i] || !finite(v) {
			if err := flush(); err != nil {
				return err
			}
			continue
		}
		run = append(run, plotter.XY{X: unix(ln.Times[i]), Y: v})
	}
	return flush()
}

func unix(t time.Time) float64 {
	return float64(t.Unix())
}

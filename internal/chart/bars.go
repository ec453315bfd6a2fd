package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// BarSeries is one group of bars, one value per label
type BarSeries struct {
	Label  string
	Values []float64
	Color  color.Color
	// NegativeColor, when set, colors bars below zero.
	NegativeColor color.Color
}

// Bars is a grouped bar chart over nominal labels
type Bars struct {
	Title, XLabel, YLabel string
	Labels                []string
	Series                []BarSeries
	LogY                  bool
	// ValueFormat, when set, prints each value above its bar.
	ValueFormat string
	Size        Size
}

// Render draws the chart to path
func (b Bars) Render(path string) error {
	if len(b.Series) == 0 || len(b.Labels) == 0 {
		return fmt.Errorf("bar chart %q has no data", b.Title)
	}

	p := newPlot(b.Title, b.XLabel, b.YLabel)
	if b.LogY {
		p.Y.Scale = plot.LogScale{}
		p.Y.Tick.Marker = plot.LogTicks{Prec: -1}
	}

	width := 0.8 / float64(len(b.Series))
	for i, s := range b.Series {
		c := s.Color
		if c == nil {
			c = Blue
		}
		bp := &barPlotter{
			values:   s.Values,
			color:    c,
			negColor: s.NegativeColor,
			offset:   (float64(i) - float64(len(b.Series)-1)/2) * width,
			width:    width,
			log:      b.LogY,
		}
		if !bp.hasData() {
			continue
		}
		p.Add(bp)
		if s.Label != "" {
			p.Legend.Add(s.Label, bp)
		}

		if b.ValueFormat != "" {
			labels, err := valueLabels(bp, b.ValueFormat)
			if err != nil {
				return err
			}
			p.Add(labels)
		}
	}
	p.NominalX(b.Labels...)
	p.X.Tick.Label.Rotation = math.Pi / 4
	p.X.Tick.Label.XAlign = draw.XRight
	p.X.Tick.Label.YAlign = draw.YCenter

	return save(p, b.Size, path)
}

func valueLabels(bp *barPlotter, format string) (*plotter.Labels, error) {
	var xyl plotter.XYLabels
	for i, v := range bp.values {
		if !bp.drawable(v) {
			continue
		}
		xyl.XYs = append(xyl.XYs, plotter.XY{X: float64(i) + bp.offset, Y: v})
		xyl.Labels = append(xyl.Labels, fmt.Sprintf(format, v))
	}
	labels, err := plotter.NewLabels(xyl)
	if err != nil {
		return nil, fmt.Errorf("bar labels: %w", err)
	}
	for i := range labels.TextStyle {
		labels.TextStyle[i].XAlign = draw.XCenter
	}
	return labels, nil
}

// barPlotter draws bars from zero, or from the bottom of the plot on a log
// axis where zero has no position.
type barPlotter struct {
	values        []float64
	color         color.Color
	negColor      color.Color
	offset, width float64
	log           bool
}

func (b *barPlotter) drawable(v float64) bool {
	return finite(v) && (!b.log || v > 0)
}

func (b *barPlotter) hasData() bool {
	for _, v := range b.values {
		if b.drawable(v) {
			return true
		}
	}
	return false
}

// Plot implements plot.Plotter
func (b *barPlotter) Plot(c draw.Canvas, plt *plot.Plot) {
	trX, trY := plt.Transforms(&c)
	for i, v := range b.values {
		if !b.drawable(v) {
			continue
		}
		x0 := trX(float64(i) + b.offset - b.width/2)
		x1 := trX(float64(i) + b.offset + b.width/2)
		y0 := c.Min.Y
		if !b.log {
			y0 = trY(0)
		}
		y1 := trY(v)

		fill := b.color
		if v < 0 && b.negColor != nil {
			fill = b.negColor
		}
		pts := []vg.Point{{X: x0, Y: y0}, {X: x0, Y: y1}, {X: x1, Y: y1}, {X: x1, Y: y0}}
		c.FillPolygon(fill, c.ClipPolygonXY(pts))
	}
}

// DataRange implements plot.DataRanger
func (b *barPlotter) DataRange() (xmin, xmax, ymin, ymax float64) {
	xmin = b.offset - b.width/2
	xmax = float64(len(b.values)-1) + b.offset + b.width/2
	ymin, ymax = math.Inf(1), math.Inf(-1)
	if !b.log {
		ymin, ymax = 0, 0
	}
	for _, v := range b.values {
		if !b.drawable(v) {
			continue
		}
		ymin, ymax = math.Min(ymin, v), math.Max(ymax, v)
	}
	return xmin, xmax, ymin, ymax
}

// Thumbnail implements plot.Thumbnailer
func (b *barPlotter) Thumbnail(c *draw.Canvas) {
	pts := []vg.Point{
		{X: c.Min.X, Y: c.Min.Y},
		{X: c.Min.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Max.Y},
		{X: c.Max.X, Y: c.Min.Y},
	}
	c.FillPolygon(b.color, c.ClipPolygonXY(pts))
}

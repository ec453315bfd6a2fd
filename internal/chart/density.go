package chart

import (
	"fmt"
	"image/color"
	"math"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"

	"gasrisk/internal/stats"
)

// densityPoints is the evaluation grid size of each estimate
const densityPoints = 256

// DensityGroup is one sample drawn as a filled kernel density
type DensityGroup struct {
	Label  string
	Values []float64
	Color  color.Color
	// MeanLabel formats the mean marker legend entry, e.g. "Mean: %.2f".
	MeanLabel string
}

// Density overlays Gaussian kernel densities of several samples
type Density struct {
	Title, XLabel, YLabel string
	Groups                []DensityGroup
	MeanMarkers           bool
	Size                  Size
}

// Render draws the chart to path
func (d Density) Render(path string) error {
	yLabel := d.YLabel
	if yLabel == "" {
		yLabel = "Density"
	}
	p := newPlot(d.Title, d.XLabel, yLabel)

	ymax := 0.0
	type marker struct {
		mean  float64
		label string
		color color.Color
	}
	var markers []marker

	for _, g := range d.Groups {
		kde := stats.NewKDE(g.Values)
		if kde == nil {
			continue
		}
		c := g.Color
		if c == nil {
			c = Blue
		}

		xs, ys := kde.Grid(densityPoints, 3)
		xys := make(plotter.XYs, len(xs))
		for i := range xs {
			xys[i] = plotter.XY{X: xs[i], Y: ys[i]}
			ymax = math.Max(ymax, ys[i])
		}
		l, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("density %s: %w", g.Label, err)
		}
		l.LineStyle.Color = c
		l.LineStyle.Width = vg.Points(1.5)
		l.FillColor = withAlpha(c, 0x40)
		p.Add(l)
		if g.Label != "" {
			p.Legend.Add(g.Label, l)
		}

		if d.MeanMarkers {
			label := g.MeanLabel
			if label == "" {
				label = "Mean: %.2f"
			}
			mean := stat.Mean(finiteValues(g.Values), nil)
			markers = append(markers, marker{mean: mean, label: fmt.Sprintf(label, mean), color: c})
		}
	}
	if ymax == 0 {
		return fmt.Errorf("density chart %q has no data", d.Title)
	}

	for _, m := range markers {
		l, err := verticalLine(m.mean, 0, ymax, m.color)
		if err != nil {
			return err
		}
		l.LineStyle.Width = vg.Points(2)
		p.Add(l)
		p.Legend.Add(m.label, l)
	}

	return save(p, d.Size, path)
}

func finiteValues(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if finite(v) {
			out = append(out, v)
		}
	}
	return out
}

// Package chart renders time-series, bar and density charts to image files.
//
// Every chart is a plain value describing what to draw; Render writes it to
// a file whose extension selects the format (png, svg, pdf).
package chart

import (
	"fmt"
	"image/color"
	"math"
	"os"
	"path/filepath"
	"time"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
)

// Default image size in inches
const (
	DefaultWidth  = 12.0
	DefaultHeight = 6.0
)

// Common colors
var (
	Blue      = color.RGBA{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff}
	Red       = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
	Green     = color.RGBA{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff}
	Orange    = color.RGBA{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff}
	SteelBlue = color.RGBA{R: 70, G: 130, B: 180, A: 0xff}
	Gray      = color.RGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xff}
	Black     = color.RGBA{A: 0xff}
)

// Event is a dated vertical marker
type Event struct {
	Time  time.Time
	Label string
	Color color.Color
}

// Size is an image size in inches; zero fields use the defaults
type Size struct {
	Width, Height float64
}

func (s Size) lengths() (vg.Length, vg.Length) {
	w, h := s.Width, s.Height
	if w <= 0 {
		w = DefaultWidth
	}
	if h <= 0 {
		h = DefaultHeight
	}
	return vg.Length(w) * vg.Inch, vg.Length(h) * vg.Inch
}

// save writes p to path, creating the directory
func save(p *plot.Plot, size Size, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	w, h := size.lengths()
	if err := p.Save(w, h, path); err != nil {
		return fmt.Errorf("save chart %s: %w", filepath.Base(path), err)
	}
	return nil
}

func newPlot(title, xLabel, yLabel string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xLabel
	p.Y.Label.Text = yLabel
	p.Legend.Top = true
	p.Legend.Left = true
	p.Add(plotter.NewGrid())
	return p
}

// withAlpha returns c with its alpha channel replaced
func withAlpha(c color.Color, a uint8) color.Color {
	n := color.NRGBAModel.Convert(c).(color.NRGBA)
	n.A = a
	return n
}

func dashed(l *plotter.Line, c color.Color) {
	l.LineStyle.Color = c
	l.LineStyle.Width = vg.Points(1.5)
	l.LineStyle.Dashes = []vg.Length{vg.Points(6), vg.Points(4)}
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// verticalLine spans [lo, hi] at x
func verticalLine(x, lo, hi float64, c color.Color) (*plotter.Line, error) {
	l, err := plotter.NewLine(plotter.XYs{{X: x, Y: lo}, {X: x, Y: hi}})
	if err != nil {
		return nil, err
	}
	dashed(l, c)
	return l, nil
}

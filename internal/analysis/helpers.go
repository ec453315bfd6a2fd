package analysis

import (
	"image/color"
	"math"

	"gonum.org/v1/gonum/stat"
)

var darkRed = color.RGBA{R: 0x8b, A: 0xff}

func hasFinite(x []float64) bool {
	for _, v := range x {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			return true
		}
	}
	return false
}

// meanOf is the mean of x, or NaN when empty
func meanOf(x []float64) float64 {
	if len(x) == 0 {
		return math.NaN()
	}
	return stat.Mean(x, nil)
}

package series

import "math"

// Returns computes simple percentage changes between consecutive closes.
// The result is aligned with the observations; element 0 is NaN.
func (s *Series) Returns() []float64 {
	out := make([]float64, len(s.obs))
	for i := range s.obs {
		if i == 0 {
			out[i] = math.NaN()
			continue
		}
		out[i] = s.obs[i].Close/s.obs[i-1].Close - 1
	}
	return out
}

// ShortReturns is the element-wise negation of Returns
func (s *Series) ShortReturns() []float64 {
	return Negate(s.Returns())
}

// Negate returns -x element-wise; NaN stays NaN
func Negate(x []float64) []float64 {
	out := make([]float64, len(x))
	for i, v := range x {
		out[i] = -v
	}
	return out
}

// DropNaN returns the non-NaN values of x in order
func DropNaN(x []float64) []float64 {
	out := make([]float64, 0, len(x))
	for _, v := range x {
		if !math.IsNaN(v) {
			out = append(out, v)
		}
	}
	return out
}

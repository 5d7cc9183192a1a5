package mathx

import (
	"math"

	"golang.org/x/exp/constraints"
)

// Wrap returns x mod m in [0, m) for any sign of x; m must be > 0.
func Wrap[T constraints.Signed](x, m T) T {
	r := x % m
	if r < 0 {
		r += m
	}
	return r
}

// Frac returns the fractional part of x in [0, 1), counting negative x
// back from the next integer up.
func Frac[T constraints.Float](x T) T {
	return x - T(math.Floor(float64(x)))
}

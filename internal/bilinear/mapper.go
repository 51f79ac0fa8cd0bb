package bilinear

import "math"

// Weight is a Q8.8 interpolation weight. Only the low 9 bits are meaningful:
// the valid range is [0, One].
type Weight uint16

const (
	// One is the weight 1.0 in Q8.8.
	One Weight = 256
	// MaxFrac is the largest fraction the mapper emits.
	MaxFrac Weight = 255
)

// Coord is the sampling footprint of one output pixel.
type Coord struct {
	X0, X1 int
	Y0, Y1 int
	TX, TY Weight
}

// Map returns the taps and weights for output pixel (xo, yo) of a w x h input.
// The scale is assumed to be validated.
func Map(xo, yo, w, h int, s Scale) Coord {
	x0, x1, tx := MapAxis(xo, w, s)
	y0, y1, ty := MapAxis(yo, h, s)
	return Coord{X0: x0, X1: x1, Y0: y0, Y1: y1, TX: tx, TY: ty}
}

// MapAxis maps output index o onto an input axis of length dim using centre
// alignment: src = (o+0.5)/s - 0.5.
//
// The base index floor(src) is clamped into [0, dim-1] and the adjacent tap
// is base+1, replicated at the last index. The fraction is taken from the
// unclamped src against the clamped base, quantized with
// round-half-away-from-zero and saturated to [0, MaxFrac].
func MapAxis(o, dim int, s Scale) (i0, i1 int, t Weight) {
	src := (float64(o)+0.5)/float64(s) - 0.5

	i0 = int(math.Floor(src))
	if i0 < 0 {
		i0 = 0
	} else if i0 > dim-1 {
		i0 = dim - 1
	}
	i1 = min(i0+1, dim-1)
	return i0, i1, quantize(src - float64(i0))
}

func quantize(frac float64) Weight {
	q := math.Round(frac * float64(One))
	if q > float64(MaxFrac) {
		return MaxFrac
	}
	if q < 0 {
		return 0
	}
	return Weight(q)
}

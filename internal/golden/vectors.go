package golden

import (
	"context"
	"errors"
	"fmt"

	"github.com/andresmejia3/scaleref/internal/bilinear"
	"github.com/andresmejia3/scaleref/internal/raster"
)

// ErrPathMismatch means the full-image and isolated-vector paths disagree.
var ErrPathMismatch = errors.New("golden paths disagree")

// Vector is a self-contained sampler stimulus and its expected output.
type Vector struct {
	I00, I10, I01, I11 uint8
	TX, TY             bilinear.Weight
	Expected           uint8
}

// Eval re-runs the sampler on the vector's taps and weights.
func (v Vector) Eval() uint8 {
	return bilinear.Sample(v.I00, v.I10, v.I01, v.I11, v.TX, v.TY)
}

// CoordRow is one line of the coordinate table.
type CoordRow struct {
	YO, XO int
	bilinear.Coord
}

// VectorAt builds the vector for output pixel (xo, yo).
func VectorAt(src *raster.Grid, s bilinear.Scale, xo, yo int) Vector {
	c := bilinear.Map(xo, yo, src.Width, src.Height, s)
	v := Vector{
		I00: src.At(c.X0, c.Y0),
		I10: src.At(c.X1, c.Y0),
		I01: src.At(c.X0, c.Y1),
		I11: src.At(c.X1, c.Y1),
		TX:  c.TX,
		TY:  c.TY,
	}
	v.Expected = v.Eval()
	return v
}

// Vectors emits one vector per output pixel in row-major order.
func Vectors(src *raster.Grid, s bilinear.Scale) ([]Vector, error) {
	w2, h2, err := bilinear.OutputDims(src.Width, src.Height, s)
	if err != nil {
		return nil, err
	}
	vs := make([]Vector, 0, w2*h2)
	for yo := 0; yo < h2; yo++ {
		for xo := 0; xo < w2; xo++ {
			vs = append(vs, VectorAt(src, s, xo, yo))
		}
	}
	return vs, nil
}

// Coordinates emits the mapper output for every output pixel of a w x h
// input. No image is needed.
func Coordinates(w, h int, s bilinear.Scale) ([]CoordRow, error) {
	w2, h2, err := bilinear.OutputDims(w, h, s)
	if err != nil {
		return nil, err
	}
	rows := make([]CoordRow, 0, w2*h2)
	for yo := 0; yo < h2; yo++ {
		for xo := 0; xo < w2; xo++ {
			rows = append(rows, CoordRow{YO: yo, XO: xo, Coord: bilinear.Map(xo, yo, w, h, s)})
		}
	}
	return rows, nil
}

// CheckEquivalence runs both golden paths on src and fails on the first pixel
// where the vector's expected value, the vector re-evaluated in isolation and
// the full-image output are not all equal.
func CheckEquivalence(ctx context.Context, src *raster.Grid, p Params) error {
	out, err := Downscale(ctx, src, p)
	if err != nil {
		return err
	}
	vs, err := Vectors(src, p.Scale)
	if err != nil {
		return err
	}
	if len(vs) != len(out.Pix) {
		return fmt.Errorf("%w: %d vectors for a %s image", ErrPathMismatch, len(vs), out)
	}
	for i, v := range vs {
		if got := v.Eval(); got != v.Expected || out.Pix[i] != v.Expected {
			return fmt.Errorf("%w at (y=%d, x=%d): vector=%d isolated=%d image=%d",
				ErrPathMismatch, i/out.Width, i%out.Width, v.Expected, got, out.Pix[i])
		}
	}
	return nil
}

// ReplayVectors checks every stored expected value against the sampler.
// It returns the zero-based index of the first bad row with the error.
func ReplayVectors(vs []Vector) (int, error) {
	for i, v := range vs {
		if got := v.Eval(); got != v.Expected {
			return i, fmt.Errorf("%w: row %d expected %d, sampler gives %d", ErrPathMismatch, i, v.Expected, got)
		}
	}
	return -1, nil
}

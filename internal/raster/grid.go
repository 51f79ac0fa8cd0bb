package raster

import (
	"errors"
	"fmt"
)

var (
	// ErrSizeMismatch is returned when a byte count or a pair of grids does not
	// agree with the declared dimensions.
	ErrSizeMismatch = errors.New("size mismatch")
	// ErrInvalidDims is returned for a width or height below 1.
	ErrInvalidDims = errors.New("invalid dimensions")
)

// Grid is a row-major 2D buffer of unsigned 8-bit samples.
// len(Pix) is always Width*Height.
type Grid struct {
	Width  int
	Height int
	Pix    []uint8
}

// New allocates a zeroed grid.
func New(w, h int) (*Grid, error) {
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDims, w, h)
	}
	return &Grid{Width: w, Height: h, Pix: make([]uint8, w*h)}, nil
}

// FromBytes wraps b as a w x h grid without copying.
func FromBytes(w, h int, b []byte) (*Grid, error) {
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDims, w, h)
	}
	if len(b) != w*h {
		return nil, fmt.Errorf("%w: got %d bytes, expected %dx%d = %d", ErrSizeMismatch, len(b), w, h, w*h)
	}
	return &Grid{Width: w, Height: h, Pix: b}, nil
}

// At returns the sample at column x, row y.
func (g *Grid) At(x, y int) uint8 {
	return g.Pix[y*g.Width+x]
}

func (g *Grid) Set(x, y int, v uint8) {
	g.Pix[y*g.Width+x] = v
}

// Row returns the backing slice of row y.
func (g *Grid) Row(y int) []uint8 {
	off := y * g.Width
	return g.Pix[off : off+g.Width]
}

func (g *Grid) Clone() *Grid {
	pix := make([]uint8, len(g.Pix))
	copy(pix, g.Pix)
	return &Grid{Width: g.Width, Height: g.Height, Pix: pix}
}

// SameSize reports whether both grids declare the same dimensions.
func (g *Grid) SameSize(o *Grid) bool {
	return g.Width == o.Width && g.Height == o.Height
}

func (g *Grid) String() string {
	return fmt.Sprintf("%dx%d", g.Width, g.Height)
}

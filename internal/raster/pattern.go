package raster

import "fmt"

// Gradient builds a horizontal ramp from 0 at the left edge to 255 at the
// right edge. Each column holds round(255*x/(w-1)).
func Gradient(w, h int) (*Grid, error) {
	g, err := New(w, h)
	if err != nil {
		return nil, err
	}
	den := w - 1
	if den < 1 {
		den = 1
	}
	for y := 0; y < h; y++ {
		row := g.Row(y)
		for x := range row {
			row[x] = uint8((510*x + den) / (2 * den))
		}
	}
	return g, nil
}

// Checker builds a black and white checkerboard with square cells of the
// given size. The top-left cell is white.
func Checker(w, h, cell int) (*Grid, error) {
	if cell < 1 {
		return nil, fmt.Errorf("checker cell size must be >= 1, got %d", cell)
	}
	g, err := New(w, h)
	if err != nil {
		return nil, err
	}
	for y := 0; y < h; y++ {
		row := g.Row(y)
		for x := range row {
			if (x/cell+y/cell)%2 == 0 {
				row[x] = 255
			}
		}
	}
	return g, nil
}

// Package compare implements the pixel-exact comparator used to judge a
// candidate image against the golden output.
package compare

import (
	"fmt"
	"sync"

	"github.com/andresmejia3/scaleref/internal/raster"
)

// PixelDiff is one differing pixel. Diff is candidate minus golden.
type PixelDiff struct {
	Y, X      int
	Golden    uint8
	Candidate uint8
	Diff      int
}

// Stats is the reducible part of a comparison. Merging is commutative and
// associative, so bands can be reduced in any order.
type Stats struct {
	Matches int
	Total   int
	MaxDiff int
}

// Merge folds o into s.
func (s *Stats) Merge(o Stats) {
	s.Matches += o.Matches
	s.Total += o.Total
	if o.MaxDiff > s.MaxDiff {
		s.MaxDiff = o.MaxDiff
	}
}

// Result is the outcome of one comparison.
type Result struct {
	Stats
	Width  int
	Height int
	// Diffs is only populated with WithDetails, in row-major order.
	Diffs []PixelDiff
}

// MatchPercent returns 100 * matches / total.
func (r *Result) MatchPercent() float64 {
	if r.Total == 0 {
		return 100
	}
	return 100 * float64(r.Matches) / float64(r.Total)
}

// OK reports a bit-exact match.
func (r *Result) OK() bool {
	return r.MaxDiff == 0
}

// Option configures Compare.
type Option func(*options)

type options struct {
	details bool
	workers int
}

// WithDetails records every differing pixel.
func WithDetails() Option {
	return func(o *options) { o.details = true }
}

// WithWorkers splits the rows into n bands compared concurrently.
func WithWorkers(n int) Option {
	return func(o *options) { o.workers = n }
}

// Compare walks both grids pixel by pixel. Grids whose declared dimensions
// differ fail with raster.ErrSizeMismatch before any pixel is read.
func Compare(golden, candidate *raster.Grid, opts ...Option) (*Result, error) {
	o := options{workers: 1}
	for _, opt := range opts {
		opt(&o)
	}
	if !golden.SameSize(candidate) {
		return nil, fmt.Errorf("%w: golden %s, candidate %s", raster.ErrSizeMismatch, golden, candidate)
	}

	n := o.workers
	if n < 1 {
		n = 1
	}
	if n > golden.Height {
		n = golden.Height
	}

	type band struct {
		stats Stats
		diffs []PixelDiff
	}
	bands := make([]band, n)
	rowsPer := (golden.Height + n - 1) / n

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		y0 := i * rowsPer
		y1 := min(y0+rowsPer, golden.Height)
		wg.Add(1)
		go func(b *band) {
			defer wg.Done()
			b.stats, b.diffs = compareRows(golden, candidate, y0, y1, o.details)
		}(&bands[i])
	}
	wg.Wait()

	// Bands are contiguous and ordered, so appending keeps row-major order.
	res := &Result{Width: golden.Width, Height: golden.Height}
	for _, b := range bands {
		res.Merge(b.stats)
		res.Diffs = append(res.Diffs, b.diffs...)
	}
	return res, nil
}

func compareRows(a, b *raster.Grid, y0, y1 int, details bool) (Stats, []PixelDiff) {
	var s Stats
	var diffs []PixelDiff
	for y := y0; y < y1; y++ {
		ra, rb := a.Row(y), b.Row(y)
		for x := range ra {
			d := int(rb[x]) - int(ra[x])
			s.Total++
			if d == 0 {
				s.Matches++
				continue
			}
			abs := d
			if abs < 0 {
				abs = -abs
			}
			if abs > s.MaxDiff {
				s.MaxDiff = abs
			}
			if details {
				diffs = append(diffs, PixelDiff{Y: y, X: x, Golden: ra[x], Candidate: rb[x], Diff: d})
			}
		}
	}
	return s, diffs
}

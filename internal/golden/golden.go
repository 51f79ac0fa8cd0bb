// Package golden drives the fixed-point model across whole images and emits
// the isolated per-pixel vectors used to validate other implementations.
package golden

import (
	"context"
	"fmt"
	"sync"

	"github.com/andresmejia3/scaleref/internal/bilinear"
	"github.com/andresmejia3/scaleref/internal/meta"
	"github.com/andresmejia3/scaleref/internal/raster"
	"github.com/andresmejia3/scaleref/internal/types"
)

// Params is the explicit configuration of one transform.
type Params struct {
	Width  int
	Height int
	Scale  bilinear.Scale
	Mode   meta.Mode
	Units  int // parallel row workers; values < 1 mean one
}

// Validate checks dimensions and the scale contract.
func (p Params) Validate() error {
	_, _, err := bilinear.OutputDims(p.Width, p.Height, p.Scale)
	return err
}

// OutputDims returns the size of the downscaled image.
func (p Params) OutputDims() (int, int, error) {
	return bilinear.OutputDims(p.Width, p.Height, p.Scale)
}

func (p Params) workers() int {
	if p.Units < 1 {
		return 1
	}
	return p.Units
}

func (p Params) checkGrid(src *raster.Grid) error {
	if err := p.Validate(); err != nil {
		return err
	}
	if src.Width != p.Width || src.Height != p.Height {
		return fmt.Errorf("%w: grid is %s, params declare %dx%d", raster.ErrSizeMismatch, src, p.Width, p.Height)
	}
	return nil
}

// Option tweaks Downscale.
type Option func(*config)

type config struct {
	progress func(rows int)
}

// WithProgress calls fn from the aggregator goroutine after each finished row
// with the number of rows completed so far.
func WithProgress(fn func(rows int)) Option {
	return func(c *config) { c.progress = fn }
}

// PixelAt computes one output sample. It depends only on src and the output
// index, so any number of calls may run concurrently.
func PixelAt(src *raster.Grid, s bilinear.Scale, xo, yo int) uint8 {
	c := bilinear.Map(xo, yo, src.Width, src.Height, s)
	return bilinear.Sample(
		src.At(c.X0, c.Y0), src.At(c.X1, c.Y0),
		src.At(c.X0, c.Y1), src.At(c.X1, c.Y1),
		c.TX, c.TY,
	)
}

// axisTap is the precomputed mapping of one output column.
type axisTap struct {
	i0, i1 int
	t      bilinear.Weight
}

// Downscale runs the full-image path. Rows are spread across p.Units workers;
// the result is identical for any worker count.
func Downscale(ctx context.Context, src *raster.Grid, p Params, opts ...Option) (*raster.Grid, error) {
	var cfg config
	for _, o := range opts {
		o(&cfg)
	}
	if err := p.checkGrid(src); err != nil {
		return nil, err
	}
	w2, h2, _ := p.OutputDims()
	out, err := raster.New(w2, h2)
	if err != nil {
		return nil, err
	}

	// Column mapping is shared read-only by every worker.
	cols := make([]axisTap, w2)
	for xo := range cols {
		i0, i1, t := bilinear.MapAxis(xo, src.Width, p.Scale)
		cols[xo] = axisTap{i0: i0, i1: i1, t: t}
	}

	n := p.workers()
	taskChan := make(chan types.RowTask, n)
	resultsChan := make(chan types.RowResult, n*2)
	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskChan {
				sampleRow(src, p.Scale, cols, task.Index, task.Dst)
				resultsChan <- types.RowResult{Index: task.Index}
			}
		}()
	}

	// Aggregator drains results so workers never block on a full channel.
	aggDone := make(chan struct{})
	go func() {
		defer close(aggDone)
		done := 0
		for range resultsChan {
			done++
			if cfg.progress != nil {
				cfg.progress(done)
			}
		}
	}()

	var dispatchErr error
dispatch:
	for yo := 0; yo < h2; yo++ {
		select {
		case taskChan <- types.RowTask{Index: yo, Dst: out.Row(yo)}:
		case <-ctx.Done():
			dispatchErr = ctx.Err()
			break dispatch
		}
	}

	close(taskChan)
	wg.Wait()
	close(resultsChan)
	<-aggDone

	if dispatchErr != nil {
		return nil, dispatchErr
	}
	return out, nil
}

func sampleRow(src *raster.Grid, s bilinear.Scale, cols []axisTap, yo int, dst []byte) {
	y0, y1, ty := bilinear.MapAxis(yo, src.Height, s)
	r0, r1 := src.Row(y0), src.Row(y1)
	for xo, c := range cols {
		dst[xo] = bilinear.Sample(r0[c.i0], r0[c.i1], r1[c.i0], r1[c.i1], c.t, ty)
	}
}

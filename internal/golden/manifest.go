package golden

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/andresmejia3/scaleref/internal/bilinear"
	"github.com/andresmejia3/scaleref/internal/raster"
	"golang.org/x/sync/errgroup"
)

// ErrBadManifest is returned for malformed manifest rows.
var ErrBadManifest = errors.New("malformed manifest")

// Job is one manifest row: name,w,h,scale,in_path,out_raw,out_pgm.
type Job struct {
	Name   string
	Width  int
	Height int
	Scale  bilinear.Scale
	InPath string
	OutRaw string
	OutPGM string // optional
}

// ParseManifest reads a golden-generation manifest. Lines starting with '#'
// and blank lines are skipped.
func ParseManifest(r io.Reader) ([]Job, error) {
	cr := csv.NewReader(r)
	cr.Comment = '#'
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	var jobs []Job
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadManifest, err)
		}
		line, _ := cr.FieldPos(0)
		if len(rec) != 6 && len(rec) != 7 {
			return nil, fmt.Errorf("%w: line %d has %d fields, expected 6 or 7", ErrBadManifest, line, len(rec))
		}
		w, errW := strconv.Atoi(strings.TrimSpace(rec[1]))
		h, errH := strconv.Atoi(strings.TrimSpace(rec[2]))
		if errW != nil || errH != nil {
			return nil, fmt.Errorf("%w: line %d: bad dimensions %q x %q", ErrBadManifest, line, rec[1], rec[2])
		}
		s, err := bilinear.ParseScale(rec[3])
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadManifest, line, err)
		}
		job := Job{
			Name:   strings.TrimSpace(rec[0]),
			Width:  w,
			Height: h,
			Scale:  s,
			InPath: strings.TrimSpace(rec[4]),
			OutRaw: strings.TrimSpace(rec[5]),
		}
		if len(rec) == 7 {
			job.OutPGM = strings.TrimSpace(rec[6])
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}

// RunJob loads the job input, runs the full-image path and writes the outputs.
func RunJob(ctx context.Context, job Job, units int) (*raster.Grid, error) {
	src, err := raster.ReadRaw(job.InPath, job.Width, job.Height)
	if err != nil {
		return nil, err
	}
	out, err := Downscale(ctx, src, Params{Width: job.Width, Height: job.Height, Scale: job.Scale, Units: units})
	if err != nil {
		return nil, err
	}
	if err := raster.WriteRaw(job.OutRaw, out); err != nil {
		return nil, err
	}
	if job.OutPGM != "" {
		if err := raster.WritePGM(job.OutPGM, out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// RunBatch runs fn for every job with at most limit jobs in flight. The first
// failure cancels the context passed to the remaining jobs.
func RunBatch(ctx context.Context, jobs []Job, limit int, fn func(ctx context.Context, job Job) error) error {
	if limit < 1 {
		limit = 1
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(ctx, job); err != nil {
				return fmt.Errorf("job %s: %w", job.Name, err)
			}
			return nil
		})
	}
	return g.Wait()
}

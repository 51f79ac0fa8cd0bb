package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/andresmejia3/scaleref/internal/bilinear"
	"github.com/andresmejia3/scaleref/internal/golden"
	"github.com/andresmejia3/scaleref/internal/meta"
	"github.com/andresmejia3/scaleref/internal/raster"
	"github.com/andresmejia3/scaleref/internal/store"
	"github.com/andresmejia3/scaleref/internal/utils"
	"github.com/spf13/cobra"
)

var (
	goldenOpts Options
	goldenMode string
)

var goldenCmd = &cobra.Command{
	Use:   "golden",
	Short: "Downscale a raw image with the fixed-point model",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runGolden(cmd.Context(), goldenOpts, goldenMode)
	},
}

func init() {
	addGeometryFlags(goldenCmd, &goldenOpts)
	goldenCmd.Flags().StringVar(&goldenOpts.OutRaw, "out-raw", "", "Output raw file")
	goldenCmd.Flags().StringVar(&goldenOpts.OutPGM, "out-pgm", "", "Optional PGM preview")
	goldenCmd.Flags().IntVarP(&goldenOpts.Units, "units", "u", 1, "Parallel row workers")
	goldenCmd.Flags().StringVar(&goldenMode, "mode", string(meta.ModeSoftware), "Execution mode label recorded with the run (sw, secuencial, paralelo)")
	goldenCmd.Flags().BoolVar(&goldenOpts.Record, "record", false, "Record the run in the PostgreSQL ledger")

	goldenCmd.MarkFlagRequired("out-raw")
	rootCmd.AddCommand(goldenCmd)
}

// addGeometryFlags registers --in, --w, --h and --scale.
func addGeometryFlags(c *cobra.Command, o *Options) {
	c.Flags().StringVarP(&o.InputPath, "in", "i", "", "Input raw 8-bit grayscale file")
	c.Flags().IntVar(&o.Width, "w", 0, "Input width")
	c.Flags().IntVar(&o.Height, "h", 0, "Input height")
	c.Flags().StringVarP(&o.ScaleText, "scale", "s", "", "Scale factor in [0.5, 1.0], decimal or Q8.8 hex (0x80)")
	c.MarkFlagRequired("in")
	c.MarkFlagRequired("w")
	c.MarkFlagRequired("h")
	c.MarkFlagRequired("scale")
}

// validateGoldenFlags checks everything that can be checked before the
// input is read.
func validateGoldenFlags(opts *Options, mode string) (golden.Params, error) {
	s, err := parseGeometry(opts.Width, opts.Height, opts.ScaleText)
	if err != nil {
		return golden.Params{}, err
	}
	if opts.Units < 1 {
		return golden.Params{}, fmt.Errorf("units must be >= 1, got %d", opts.Units)
	}
	m, err := meta.ParseMode(mode)
	if err != nil {
		return golden.Params{}, err
	}
	info, err := os.Stat(opts.InputPath)
	if err != nil {
		return golden.Params{}, fmt.Errorf("input file not found: %s", opts.InputPath)
	}
	if info.IsDir() {
		return golden.Params{}, fmt.Errorf("input path is a directory: %s", opts.InputPath)
	}
	return golden.Params{Width: opts.Width, Height: opts.Height, Scale: s, Mode: m, Units: opts.Units}, nil
}

func runGolden(ctx context.Context, opts Options, mode string) error {
	p, err := validateGoldenFlags(&opts, mode)
	if err != nil {
		return fail("Invalid arguments", err)
	}
	src, err := raster.ReadRaw(opts.InputPath, opts.Width, opts.Height)
	if err != nil {
		return fail("Failed to read input", err)
	}
	w2, h2, _ := p.OutputDims()
	fmt.Fprintf(os.Stderr, "⚙️  %s -> %dx%d (scale %s, register 0x%03X, %d units)\n", src, w2, h2, p.Scale, p.Scale.Register(), p.Units)

	bar := newProgressBar(h2, "📐 Downscaling rows")
	out, err := golden.Downscale(ctx, src, p, golden.WithProgress(func(rows int) { bar.Set(rows) }))
	bar.Finish()
	if err != nil {
		return fail("Downscale failed", err)
	}
	if err := writeOutputs(out, opts.OutRaw, opts.OutPGM); err != nil {
		return fail("Failed to write output", err)
	}
	fmt.Fprintf(os.Stderr, "\n🏁 Golden output %s written to %s\n", out, opts.OutRaw)

	if opts.Record {
		id, err := recordRun(ctx, opts.InputPath, p)
		if err != nil {
			return fail("Failed to record run", err)
		}
		fmt.Fprintf(os.Stderr, "🗄️  Recorded run %s\n", id[:12])
	}
	return nil
}

// runIDParams is the parameter part hashed into a run id.
func runIDParams(w, h int, s bilinear.Scale) string {
	return fmt.Sprintf("%dx%d@%s", w, h, s)
}

func recordRun(ctx context.Context, inPath string, p golden.Params) (string, error) {
	id, err := utils.GenerateRunID(inPath, runIDParams(p.Width, p.Height, p.Scale))
	if err != nil {
		return "", err
	}
	run, err := meta.NewRun(p.Width, p.Height, p.Scale, p.Mode, max(p.Units, 1))
	if err != nil {
		return "", err
	}
	db, err := openStore(ctx)
	if err != nil {
		return "", err
	}
	err = db.RecordRun(ctx, store.Run{
		ID:        id,
		InputPath: inPath,
		WidthIn:   run.WidthIn,
		HeightIn:  run.HeightIn,
		WidthOut:  run.WidthOut,
		HeightOut: run.HeightOut,
		Scale:     float64(run.Scale),
		Mode:      string(run.Mode),
		Units:     run.Units,
	})
	return id, err
}

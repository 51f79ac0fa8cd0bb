package cmd

import (
	"context"
	"fmt"
	"io"
	"runtime"

	"github.com/andresmejia3/scaleref/internal/compare"
	"github.com/andresmejia3/scaleref/internal/raster"
	"github.com/andresmejia3/scaleref/internal/store"
	"github.com/spf13/cobra"
)

// CompareOptions describes the two images under comparison.
type CompareOptions struct {
	GoldenPath    string
	GoldenW       int
	GoldenH       int
	CandidatePath string
	CandidateW    int
	CandidateH    int
	Details       bool
	Workers       int
	Record        bool
	RunID         string
}

var compareOpts CompareOptions

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare a candidate raw image against the golden output pixel by pixel",
	Long:  "Prints the match rate and maximum difference. Exits non-zero unless both images are bit-exact.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runCompare(cmd.Context(), cmd.OutOrStdout(), compareOpts)
	},
}

func init() {
	compareCmd.Flags().StringVar(&compareOpts.GoldenPath, "a", "", "Golden raw file")
	compareCmd.Flags().IntVar(&compareOpts.GoldenW, "wa", 0, "Golden width")
	compareCmd.Flags().IntVar(&compareOpts.GoldenH, "ha", 0, "Golden height")
	compareCmd.Flags().StringVar(&compareOpts.CandidatePath, "b", "", "Candidate raw file")
	compareCmd.Flags().IntVar(&compareOpts.CandidateW, "wb", 0, "Candidate width")
	compareCmd.Flags().IntVar(&compareOpts.CandidateH, "hb", 0, "Candidate height")
	compareCmd.Flags().BoolVarP(&compareOpts.Details, "details", "d", false, "List every differing pixel")
	compareCmd.Flags().IntVar(&compareOpts.Workers, "workers", runtime.NumCPU(), "Row bands compared concurrently")
	compareCmd.Flags().BoolVar(&compareOpts.Record, "record", false, "Record the comparison in the PostgreSQL ledger")
	compareCmd.Flags().StringVar(&compareOpts.RunID, "run", "", "Ledger run id the comparison belongs to")

	for _, f := range []string{"a", "wa", "ha", "b", "wb", "hb"} {
		compareCmd.MarkFlagRequired(f)
	}
	rootCmd.AddCommand(compareCmd)
}

func runCompare(ctx context.Context, out io.Writer, opts CompareOptions) error {
	res, err := compareFiles(opts)
	if err != nil {
		return fail("Comparison failed", err)
	}
	if err := compare.WriteSummary(out, res); err != nil {
		return err
	}
	if opts.Details {
		if err := compare.WriteDiffs(out, res); err != nil {
			return err
		}
	}

	if opts.Record {
		db, err := openStore(ctx)
		if err != nil {
			return fail("Failed to open ledger", err)
		}
		_, err = db.RecordComparison(ctx, store.Comparison{
			RunID:         opts.RunID,
			GoldenPath:    opts.GoldenPath,
			CandidatePath: opts.CandidatePath,
			Matches:       res.Matches,
			Total:         res.Total,
			MaxDiff:       res.MaxDiff,
		})
		if err != nil {
			return fail("Failed to record comparison", err)
		}
	}

	if !res.OK() {
		return errMismatch
	}
	return nil
}

// compareFiles loads both images at their declared sizes. Mismatched sizes
// fail before either file is read.
func compareFiles(opts CompareOptions) (*compare.Result, error) {
	for _, d := range [][2]int{{opts.GoldenW, opts.GoldenH}, {opts.CandidateW, opts.CandidateH}} {
		if d[0] < 1 || d[1] < 1 {
			return nil, fmt.Errorf("%w: %dx%d", raster.ErrInvalidDims, d[0], d[1])
		}
	}
	if opts.GoldenW != opts.CandidateW || opts.GoldenH != opts.CandidateH {
		return nil, fmt.Errorf("%w: golden %dx%d, candidate %dx%d", raster.ErrSizeMismatch,
			opts.GoldenW, opts.GoldenH, opts.CandidateW, opts.CandidateH)
	}

	a, err := raster.ReadRaw(opts.GoldenPath, opts.GoldenW, opts.GoldenH)
	if err != nil {
		return nil, err
	}
	b, err := raster.ReadRaw(opts.CandidatePath, opts.CandidateW, opts.CandidateH)
	if err != nil {
		return nil, err
	}
	var copts []compare.Option
	if opts.Details {
		copts = append(copts, compare.WithDetails())
	}
	copts = append(copts, compare.WithWorkers(opts.Workers))
	return compare.Compare(a, b, copts...)
}

package cmd

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/andresmejia3/scaleref/internal/store"
	"github.com/spf13/cobra"
)

var historyRun string

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded runs, or the comparisons of one run with --run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runHistory(cmd.Context(), cmd.OutOrStdout(), historyRun)
	},
}

func init() {
	historyCmd.Flags().StringVar(&historyRun, "run", "", "Show the comparisons recorded against this run id")
	rootCmd.AddCommand(historyCmd)
}

func runHistory(ctx context.Context, out io.Writer, runID string) error {
	db, err := openStore(ctx)
	if err != nil {
		return fail("Failed to open ledger", err)
	}

	if runID != "" {
		comps, err := db.GetComparisons(ctx, runID)
		if err != nil {
			return fail("Failed to list comparisons", err)
		}
		return writeComparisons(out, comps)
	}

	runs, err := db.ListRuns(ctx)
	if err != nil {
		return fail("Failed to list runs", err)
	}
	return writeRuns(out, runs)
}

func writeRuns(out io.Writer, runs []store.Run) error {
	if len(runs) == 0 {
		_, err := fmt.Fprintln(out, "No runs recorded.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tINPUT\tSCALE\tOUTPUT\tMODE\tUNITS\tCREATED")
	fmt.Fprintln(w, "--\t-----\t-----\t------\t----\t-----\t-------")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%dx%d\t%g\t%dx%d\t%s\t%d\t%s\n",
			shortID(r.ID), r.WidthIn, r.HeightIn, r.Scale, r.WidthOut, r.HeightOut,
			r.Mode, r.Units, r.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func writeComparisons(out io.Writer, comps []store.Comparison) error {
	if len(comps) == 0 {
		_, err := fmt.Fprintln(out, "No comparisons recorded for this run.")
		return err
	}

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tGOLDEN\tCANDIDATE\tMATCH\tMAX DIFF\tCREATED")
	fmt.Fprintln(w, "--\t------\t---------\t-----\t--------\t-------")
	for _, c := range comps {
		pct := 100.0
		if c.Total > 0 {
			pct = 100 * float64(c.Matches) / float64(c.Total)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%.2f%%\t%d\t%s\n",
			c.ID, c.GoldenPath, c.CandidatePath, pct, c.MaxDiff, c.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return w.Flush()
}

func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}

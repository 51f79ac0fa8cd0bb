package cmd

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/andresmejia3/scaleref/internal/golden"
	"github.com/spf13/cobra"
)

var (
	batchManifest string
	batchJobs     int
	batchUnits    int
)

var batchCmd = &cobra.Command{
	Use:   "batch",
	Short: "Generate golden outputs for every row of a manifest",
	Long: `Each manifest row is name,w,h,scale,in_path,out_raw[,out_pgm].
Lines starting with # and blank lines are ignored. The first failing job
cancels the ones still pending.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runBatch(cmd.Context(), batchManifest, batchJobs, batchUnits)
	},
}

func init() {
	batchCmd.Flags().StringVarP(&batchManifest, "manifest", "m", "", "Manifest CSV")
	batchCmd.Flags().IntVarP(&batchJobs, "jobs", "j", 2, "Jobs run concurrently")
	batchCmd.Flags().IntVarP(&batchUnits, "units", "u", 1, "Row workers per job")

	batchCmd.MarkFlagRequired("manifest")
	rootCmd.AddCommand(batchCmd)
}

func runBatch(ctx context.Context, manifest string, jobs, units int) error {
	f, err := os.Open(manifest)
	if err != nil {
		return fail("Failed to open manifest", err)
	}
	list, err := golden.ParseManifest(f)
	f.Close()
	if err != nil {
		return fail("Failed to parse manifest", err)
	}
	if len(list) == 0 {
		fmt.Fprintln(os.Stderr, "⚠️  Manifest has no jobs.")
		return nil
	}
	fmt.Fprintf(os.Stderr, "📋 %d jobs, %d at a time\n", len(list), jobs)

	bar := newProgressBar(len(list), "🏭 Golden batch")
	var mu sync.Mutex
	err = golden.RunBatch(ctx, list, jobs, func(ctx context.Context, job golden.Job) error {
		out, err := golden.RunJob(ctx, job, units)
		if err != nil {
			return err
		}
		mu.Lock()
		defer mu.Unlock()
		bar.Add(1)
		fmt.Fprintf(os.Stderr, "\n✅ %s: %dx%d -> %s\n", job.Name, job.Width, job.Height, out)
		return nil
	})
	bar.Finish()
	if err != nil {
		return fail("Batch failed", err)
	}
	fmt.Fprintf(os.Stderr, "\n🏁 Batch complete: %d jobs\n", len(list))
	return nil
}

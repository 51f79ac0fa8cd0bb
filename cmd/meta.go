package cmd

import (
	"bytes"
	"fmt"
	"os"

	"github.com/andresmejia3/scaleref/internal/bilinear"
	"github.com/andresmejia3/scaleref/internal/compare"
	"github.com/andresmejia3/scaleref/internal/meta"
	"github.com/andresmejia3/scaleref/internal/raster"
	"github.com/spf13/cobra"
)

var (
	metaOpts    Options
	metaMode    string
	metaPerfCyc int64
	metaPerfPix int64

	summaryMeta string

	reportMeta   string
	reportHW     string
	reportGolden string
	reportOut    string
)

var metaCmd = &cobra.Command{
	Use:   "meta",
	Short: "Write the JSON metadata record of a run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		run, err := buildRun(metaOpts, metaMode)
		if err != nil {
			return fail("Invalid run parameters", err)
		}
		// Perf counters are optional but only meaningful as a pair.
		cycSet, pixSet := cmd.Flags().Changed("perf-cyc"), cmd.Flags().Changed("perf-pix")
		if cycSet != pixSet {
			return fail("Invalid perf counters", fmt.Errorf("--perf-cyc and --perf-pix must be given together"))
		}
		if cycSet {
			run.SetPerf(metaPerfCyc, metaPerfPix)
		}
		if err := run.Save(metaOpts.OutRaw); err != nil {
			return fail("Failed to write metadata", err)
		}
		fmt.Fprintf(os.Stderr, "📝 Metadata written to %s\n", metaOpts.OutRaw)
		return nil
	},
}

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Print the console summary of a run",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		run, err := meta.Load(summaryMeta)
		if err != nil {
			return fail("Failed to load metadata", err)
		}
		return meta.WriteSummary(cmd.OutOrStdout(), run)
	},
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Render a Markdown report comparing a hardware run with the golden output",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runReport(reportMeta, reportHW, reportGolden, reportOut)
	},
}

func init() {
	metaCmd.Flags().IntVar(&metaOpts.Width, "w", 0, "Input width")
	metaCmd.Flags().IntVar(&metaOpts.Height, "h", 0, "Input height")
	metaCmd.Flags().StringVarP(&metaOpts.ScaleText, "scale", "s", "", "Scale factor")
	metaCmd.Flags().StringVar(&metaMode, "mode", string(meta.ModeSoftware), "Execution mode (sw, secuencial, paralelo)")
	metaCmd.Flags().IntVarP(&metaOpts.Units, "units", "u", 1, "Processing units")
	metaCmd.Flags().Int64Var(&metaPerfCyc, "perf-cyc", 0, "Cycle counter")
	metaCmd.Flags().Int64Var(&metaPerfPix, "perf-pix", 0, "Pixel counter")
	metaCmd.Flags().StringVarP(&metaOpts.OutRaw, "out", "o", "", "Output JSON")
	for _, f := range []string{"w", "h", "scale", "out"} {
		metaCmd.MarkFlagRequired(f)
	}

	summaryCmd.Flags().StringVar(&summaryMeta, "meta", "", "Metadata JSON")
	summaryCmd.MarkFlagRequired("meta")

	reportCmd.Flags().StringVar(&reportMeta, "meta", "", "Metadata JSON")
	reportCmd.Flags().StringVar(&reportHW, "hw", "", "Hardware output raw")
	reportCmd.Flags().StringVar(&reportGolden, "golden", "", "Golden output raw")
	reportCmd.Flags().StringVarP(&reportOut, "out", "o", "", "Output Markdown")
	for _, f := range []string{"meta", "hw", "golden", "out"} {
		reportCmd.MarkFlagRequired(f)
	}

	rootCmd.AddCommand(metaCmd, summaryCmd, reportCmd)
}

func buildRun(opts Options, mode string) (*meta.Run, error) {
	s, err := bilinear.ParseScale(opts.ScaleText)
	if err != nil {
		return nil, err
	}
	m, err := meta.ParseMode(mode)
	if err != nil {
		return nil, err
	}
	return meta.NewRun(opts.Width, opts.Height, s, m, opts.Units)
}

// runReport compares both outputs at the size recorded in the metadata and
// embeds the comparator text in the report.
func runReport(metaPath, hwPath, goldenPath, out string) error {
	run, err := meta.Load(metaPath)
	if err != nil {
		return fail("Failed to load metadata", err)
	}
	g, err := raster.ReadRaw(goldenPath, run.WidthOut, run.HeightOut)
	if err != nil {
		return fail("Failed to read golden output", err)
	}
	hw, err := raster.ReadRaw(hwPath, run.WidthOut, run.HeightOut)
	if err != nil {
		return fail("Failed to read hardware output", err)
	}
	res, err := compare.Compare(g, hw, compare.WithDetails())
	if err != nil {
		return fail("Comparison failed", err)
	}

	var text bytes.Buffer
	compare.WriteSummary(&text, res)
	if !res.OK() {
		compare.WriteDiffs(&text, res)
	}

	var doc bytes.Buffer
	if err := meta.WriteReport(&doc, run, text.String()); err != nil {
		return err
	}
	if err := os.WriteFile(out, doc.Bytes(), 0644); err != nil {
		return fail("Failed to write report", err)
	}
	fmt.Fprintf(os.Stderr, "📄 Report written to %s\n", out)
	return nil
}

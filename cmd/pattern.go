package cmd

import (
	"fmt"
	"os"

	"github.com/andresmejia3/scaleref/internal/raster"
	"github.com/spf13/cobra"
)

var (
	patternOpts Options
	patternKind string
	patternCell int
)

var patternCmd = &cobra.Command{
	Use:   "pattern",
	Short: "Write a synthetic raw test image (gradient or checkerboard)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		g, err := makePattern(patternKind, patternOpts.Width, patternOpts.Height, patternCell)
		if err != nil {
			return fail("Failed to build pattern", err)
		}
		if err := writeOutputs(g, patternOpts.OutRaw, patternOpts.OutPGM); err != nil {
			return fail("Failed to write pattern", err)
		}
		fmt.Fprintf(os.Stderr, "🎨 %s pattern %s written to %s\n", patternKind, g, patternOpts.OutRaw)
		return nil
	},
}

func init() {
	patternCmd.Flags().IntVar(&patternOpts.Width, "w", 32, "Width")
	patternCmd.Flags().IntVar(&patternOpts.Height, "h", 32, "Height")
	patternCmd.Flags().StringVarP(&patternKind, "pattern", "p", "grad", "Pattern kind: grad or checker")
	patternCmd.Flags().IntVar(&patternCell, "cell", 4, "Checker cell size in pixels")
	patternCmd.Flags().StringVarP(&patternOpts.OutRaw, "out", "o", "", "Output raw file")
	patternCmd.Flags().StringVar(&patternOpts.OutPGM, "pgm", "", "Optional PGM preview")

	patternCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(patternCmd)
}

func makePattern(kind string, w, h, cell int) (*raster.Grid, error) {
	switch kind {
	case "grad", "gradient":
		return raster.Gradient(w, h)
	case "checker":
		return raster.Checker(w, h, cell)
	default:
		return nil, fmt.Errorf("unknown pattern %q (want grad or checker)", kind)
	}
}

// writeOutputs writes the raw file and, when pgm is set, a PGM preview.
func writeOutputs(g *raster.Grid, raw, pgm string) error {
	if err := raster.WriteRaw(raw, g); err != nil {
		return err
	}
	if pgm != "" {
		return raster.WritePGM(pgm, g)
	}
	return nil
}

package cmd

import (
	"fmt"
	"os"

	"github.com/andresmejia3/scaleref/internal/golden"
	"github.com/andresmejia3/scaleref/internal/raster"
	"github.com/spf13/cobra"
)

var (
	vectorsOpts  Options
	vectorsCheck bool

	coordsOpts Options

	replayPath string
)

var vectorsCmd = &cobra.Command{
	Use:   "vectors",
	Short: "Emit the per-pixel test-vector table for an input image",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		s, err := parseGeometry(vectorsOpts.Width, vectorsOpts.Height, vectorsOpts.ScaleText)
		if err != nil {
			return fail("Invalid geometry", err)
		}
		src, err := raster.ReadRaw(vectorsOpts.InputPath, vectorsOpts.Width, vectorsOpts.Height)
		if err != nil {
			return fail("Failed to read input", err)
		}
		if vectorsCheck {
			p := golden.Params{Width: src.Width, Height: src.Height, Scale: s, Units: 1}
			if err := golden.CheckEquivalence(cmd.Context(), src, p); err != nil {
				return fail("Full-image and per-pixel paths disagree", err)
			}
			fmt.Fprintln(os.Stderr, "🔁 Full-image and per-pixel paths agree")
		}
		vs, err := golden.Vectors(src, s)
		if err != nil {
			return fail("Failed to build vectors", err)
		}
		if err := writeTable(vectorsOpts.OutRaw, func(f *os.File) error { return golden.WriteVectors(f, vs) }); err != nil {
			return fail("Failed to write vector table", err)
		}
		fmt.Fprintf(os.Stderr, "🧪 %d vectors written to %s\n", len(vs), vectorsOpts.OutRaw)
		return nil
	},
}

var coordsCmd = &cobra.Command{
	Use:   "coords",
	Short: "Emit the source coordinate and weight table for every output pixel",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		s, err := parseGeometry(coordsOpts.Width, coordsOpts.Height, coordsOpts.ScaleText)
		if err != nil {
			return fail("Invalid geometry", err)
		}
		rows, err := golden.Coordinates(coordsOpts.Width, coordsOpts.Height, s)
		if err != nil {
			return fail("Failed to map coordinates", err)
		}
		if err := writeTable(coordsOpts.OutRaw, func(f *os.File) error { return golden.WriteCoordinates(f, rows) }); err != nil {
			return fail("Failed to write coordinate table", err)
		}
		fmt.Fprintf(os.Stderr, "🧭 %d coordinates written to %s\n", len(rows), coordsOpts.OutRaw)
		return nil
	},
}

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Re-evaluate a stored vector table against the sampler",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		f, err := os.Open(replayPath)
		if err != nil {
			return fail("Failed to open vector table", err)
		}
		defer f.Close()
		vs, err := golden.ReadVectors(f)
		if err != nil {
			return fail("Failed to read vector table", err)
		}
		if _, err := golden.ReplayVectors(vs); err != nil {
			return fail("Vector table does not match the sampler", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%d vectors OK\n", len(vs))
		return nil
	},
}

func init() {
	addGeometryFlags(vectorsCmd, &vectorsOpts)
	vectorsCmd.Flags().StringVarP(&vectorsOpts.OutRaw, "out", "o", "", "Output CSV (- for stdout)")
	vectorsCmd.Flags().BoolVar(&vectorsCheck, "check", false, "Also verify the full-image and per-pixel paths agree")
	vectorsCmd.MarkFlagRequired("out")

	coordsCmd.Flags().IntVar(&coordsOpts.Width, "w", 0, "Input width")
	coordsCmd.Flags().IntVar(&coordsOpts.Height, "h", 0, "Input height")
	coordsCmd.Flags().StringVarP(&coordsOpts.ScaleText, "scale", "s", "", "Scale factor in [0.5, 1.0], decimal or Q8.8 hex (0x80)")
	coordsCmd.Flags().StringVarP(&coordsOpts.OutRaw, "out", "o", "", "Output CSV (- for stdout)")
	coordsCmd.MarkFlagRequired("w")
	coordsCmd.MarkFlagRequired("h")
	coordsCmd.MarkFlagRequired("scale")
	coordsCmd.MarkFlagRequired("out")

	replayCmd.Flags().StringVar(&replayPath, "vectors", "", "Vector table CSV")
	replayCmd.MarkFlagRequired("vectors")

	rootCmd.AddCommand(vectorsCmd, coordsCmd, replayCmd)
}

// writeTable creates path, or uses stdout for "-", and runs fn on it.
func writeTable(path string, fn func(f *os.File) error) error {
	if path == "-" {
		return fn(os.Stdout)
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := fn(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package cmd

import (
	"fmt"
	"os"

	"github.com/andresmejia3/scaleref/internal/raster"
	"github.com/spf13/cobra"
)

var importOpts Options

var importCmd = &cobra.Command{
	Use:   "import <image>",
	Short: "Convert a PNG/JPEG/GIF/BMP/TIFF/WebP image to raw 8-bit grayscale",
	Long:  "Decodes the image, converts it to luma and resizes it to --w x --h. Zero keeps the source size on that axis.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		if importOpts.Width < 0 || importOpts.Height < 0 {
			return fail("Invalid size", fmt.Errorf("%w: %dx%d", raster.ErrInvalidDims, importOpts.Width, importOpts.Height))
		}
		g, err := raster.LoadImage(args[0], importOpts.Width, importOpts.Height)
		if err != nil {
			return fail("Failed to load image", err)
		}
		if err := writeOutputs(g, importOpts.OutRaw, importOpts.OutPGM); err != nil {
			return fail("Failed to write raw image", err)
		}
		fmt.Fprintf(os.Stderr, "🖼️  %s imported as %s raw (%d bytes)\n", args[0], g, len(g.Pix))
		return nil
	},
}

func init() {
	importCmd.Flags().IntVar(&importOpts.Width, "w", 0, "Target width (0 keeps source)")
	importCmd.Flags().IntVar(&importOpts.Height, "h", 0, "Target height (0 keeps source)")
	importCmd.Flags().StringVarP(&importOpts.OutRaw, "out", "o", "", "Output raw file")
	importCmd.Flags().StringVar(&importOpts.OutPGM, "pgm", "", "Optional PGM preview")

	importCmd.MarkFlagRequired("out")
	rootCmd.AddCommand(importCmd)
}

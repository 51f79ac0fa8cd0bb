package cmd

import (
	"fmt"

	"github.com/andresmejia3/scaleref/internal/bilinear"
	"github.com/spf13/cobra"
)

var dimsOpts Options

var dimsCmd = &cobra.Command{
	Use:   "dims",
	Short: "Print the output size for an input size and scale",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		s, err := parseGeometry(dimsOpts.Width, dimsOpts.Height, dimsOpts.ScaleText)
		if err != nil {
			return fail("Invalid geometry", err)
		}
		w2, h2, _ := bilinear.OutputDims(dimsOpts.Width, dimsOpts.Height, s)
		fmt.Fprintf(cmd.OutOrStdout(), "%d %d\n", w2, h2)
		return nil
	},
}

func init() {
	dimsCmd.Flags().IntVar(&dimsOpts.Width, "w", 0, "Input width")
	dimsCmd.Flags().IntVar(&dimsOpts.Height, "h", 0, "Input height")
	dimsCmd.Flags().StringVarP(&dimsOpts.ScaleText, "scale", "s", "", "Scale factor in [0.5, 1.0], decimal or Q8.8 hex (0x80)")

	dimsCmd.MarkFlagRequired("w")
	dimsCmd.MarkFlagRequired("h")
	dimsCmd.MarkFlagRequired("scale")
	rootCmd.AddCommand(dimsCmd)
}

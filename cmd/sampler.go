package cmd

import (
	"os"

	"github.com/andresmejia3/scaleref/internal/golden"
	"github.com/andresmejia3/scaleref/internal/worker"
	"github.com/spf13/cobra"
)

var samplerCmd = &cobra.Command{
	Use:    "sampler",
	Short:  "Serve the fixed-point sampler over the verify protocol (stdin in, fd 3 out)",
	Long:   "Reference candidate for `scaleref verify --exec \"scaleref sampler\"`. Useful to check a verify setup end to end.",
	Hidden: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		data := os.NewFile(3, "data")
		if data == nil {
			return fail("No data pipe", os.ErrInvalid)
		}
		defer data.Close()
		return worker.Serve(os.Stdin, data, func(v golden.Vector) uint8 { return v.Eval() })
	},
}

func init() {
	rootCmd.AddCommand(samplerCmd)
}

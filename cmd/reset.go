package cmd

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var (
	resetDB    bool
	resetFiles bool
	resetDirs  []string
	resetYes   bool
)

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Reset state (ledger tables, generated outputs)",
	Long:  "Clears all data. By default, it resets everything. Use flags to clear specific components.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		// If no flags are set, default to clearing EVERYTHING
		if !resetDB && !resetFiles {
			resetDB = true
			resetFiles = true
		}

		reader := bufio.NewReader(cmd.InOrStdin())
		out := cmd.OutOrStdout()

		if resetDB && (resetYes || confirm(reader, out, "⚠️  Are you sure you want to DROP all ledger tables?")) {
			fmt.Fprintln(out, "🗑️  Clearing Database...")
			db, err := openStore(cmd.Context())
			if err != nil {
				return fail("Failed to open ledger", err)
			}
			if err := db.Reset(cmd.Context()); err != nil {
				return fail("Failed to reset database", err)
			}
		}

		if resetFiles && (resetYes || confirm(reader, out, fmt.Sprintf("⚠️  Are you sure you want to delete %s?", strings.Join(resetDirs, ", ")))) {
			fmt.Fprintln(out, "🗑️  Clearing Output Files...")
			for _, d := range resetDirs {
				removeDir(d)
			}
		}

		fmt.Fprintln(out, "✨ Reset Complete.")
		return nil
	},
}

func init() {
	resetCmd.Flags().BoolVar(&resetDB, "ledger", false, "Clear PostgreSQL ledger tables")
	resetCmd.Flags().BoolVar(&resetFiles, "files", false, "Clear generated output directories")
	resetCmd.Flags().StringSliceVar(&resetDirs, "dir", []string{"out"}, "Output directories removed by --files")
	resetCmd.Flags().BoolVarP(&resetYes, "yes", "y", false, "Do not ask for confirmation")
	rootCmd.AddCommand(resetCmd)
}

func confirm(r *bufio.Reader, w io.Writer, prompt string) bool {
	fmt.Fprintf(w, "%s [y/N]: ", prompt)
	res, _ := r.ReadString('\n')
	res = strings.TrimSpace(strings.ToLower(res))
	return res == "y" || res == "yes"
}

func removeDir(path string) {
	if err := os.RemoveAll(path); err != nil {
		fmt.Fprintf(os.Stderr, "⚠️  Failed to remove %s: %v\n", path, err)
	}
}

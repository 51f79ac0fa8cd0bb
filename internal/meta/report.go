package meta

import (
	"fmt"
	"io"
	"strings"
)

// WriteSummary prints the console summary of a run.
func WriteSummary(w io.Writer, r *Run) error {
	var b strings.Builder
	fmt.Fprintln(&b, "=== Summary ===")
	fmt.Fprintf(&b, "input   %dx%d\n", r.WidthIn, r.HeightIn)
	fmt.Fprintf(&b, "scale   %s\n", r.Scale)
	fmt.Fprintf(&b, "output  %dx%d\n", r.WidthOut, r.HeightOut)
	fmt.Fprintf(&b, "mode    %s  units %d\n", orDash(string(r.Mode)), r.Units)
	if ppc, ok := r.Throughput(); ok {
		fmt.Fprintf(&b, "pixels per cycle %.3f\n", ppc)
	} else {
		fmt.Fprintln(&b, "pixels per cycle: no data yet")
	}
	fmt.Fprintln(&b, "===============")
	_, err := io.WriteString(w, b.String())
	return err
}

// WriteReport renders the Markdown run report. comparison is the text output
// of the comparator and is embedded verbatim in a fenced block.
func WriteReport(w io.Writer, r *Run, comparison string) error {
	var b strings.Builder
	fmt.Fprintln(&b, "# Run Report")
	fmt.Fprintln(&b)
	fmt.Fprintf(&b, "- Input: %dx%d\n", r.WidthIn, r.HeightIn)
	fmt.Fprintf(&b, "- Scale: %s\n", r.Scale)
	fmt.Fprintf(&b, "- Output: %dx%d\n", r.WidthOut, r.HeightOut)
	fmt.Fprintf(&b, "- Mode: %s  Units: %d\n", orDash(string(r.Mode)), r.Units)
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "## Comparison")
	fmt.Fprintln(&b)
	fmt.Fprintln(&b, "```")
	fmt.Fprintln(&b, strings.TrimSpace(comparison))
	fmt.Fprintln(&b, "```")
	if ppc, ok := r.Throughput(); ok {
		fmt.Fprintln(&b)
		fmt.Fprintln(&b, "## Performance")
		fmt.Fprintln(&b)
		fmt.Fprintf(&b, "- Cycles: %d\n", *r.Cycles)
		fmt.Fprintf(&b, "- Pixels: %d\n", *r.Pixels)
		fmt.Fprintf(&b, "- Pixels per cycle: %.3f\n", ppc)
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

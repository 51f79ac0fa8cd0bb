package compare

import (
	"bufio"
	"fmt"
	"io"
)

// WriteSummary prints the aggregate statistics, one per line.
func WriteSummary(w io.Writer, r *Result) error {
	verdict := "OK"
	if !r.OK() {
		verdict = "MISMATCH"
	}
	_, err := fmt.Fprintf(w, "match %.2f%%\nmax diff %d LSB\n%s\n", r.MatchPercent(), r.MaxDiff, verdict)
	return err
}

// WriteDiffs lists every recorded differing pixel.
func WriteDiffs(w io.Writer, r *Result) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "differing pixels: %d\n", len(r.Diffs))
	for _, d := range r.Diffs {
		fmt.Fprintf(bw, "(y=%d, x=%d) golden=%02x candidate=%02x diff=%d\n", d.Y, d.X, d.Golden, d.Candidate, d.Diff)
	}
	return bw.Flush()
}

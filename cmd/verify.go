package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"github.com/andresmejia3/scaleref/internal/compare"
	"github.com/andresmejia3/scaleref/internal/golden"
	"github.com/andresmejia3/scaleref/internal/raster"
	"github.com/andresmejia3/scaleref/internal/utils"
	"github.com/andresmejia3/scaleref/internal/worker"
	"github.com/spf13/cobra"
)

// VerifyOptions configures a candidate sampler run.
type VerifyOptions struct {
	Options
	Exec       string
	BatchSize  int
	NumEngines int
	Details    bool
}

var verifyOpts VerifyOptions

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Feed every test vector of an image to an external sampler and check its answers",
	Long: `Starts --engines copies of the --exec command. Vectors are written to the
child's stdin in framed batches; answers are read back from file descriptor 3.
The run exits non-zero unless every answer matches the golden model.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cmd.SilenceUsage = true
		return runVerify(cmd.Context(), cmd.OutOrStdout(), verifyOpts)
	},
}

func init() {
	addGeometryFlags(verifyCmd, &verifyOpts.Options)
	verifyCmd.Flags().StringVarP(&verifyOpts.Exec, "exec", "x", "", "Candidate sampler command line")
	verifyCmd.Flags().IntVarP(&verifyOpts.BatchSize, "batch", "b", 1024, "Vectors per request")
	verifyCmd.Flags().IntVarP(&verifyOpts.NumEngines, "engines", "e", 1, "Candidate processes run in parallel")
	verifyCmd.Flags().BoolVarP(&verifyOpts.Details, "details", "d", false, "List every wrong answer")

	verifyCmd.MarkFlagRequired("exec")
	rootCmd.AddCommand(verifyCmd)
}

func validateVerifyFlags(opts *VerifyOptions) ([]string, error) {
	if opts.BatchSize < 1 {
		return nil, fmt.Errorf("batch size must be >= 1, got %d", opts.BatchSize)
	}
	if opts.NumEngines < 1 {
		return nil, fmt.Errorf("engines must be >= 1, got %d", opts.NumEngines)
	}
	argv := strings.Fields(opts.Exec)
	if len(argv) == 0 {
		return nil, fmt.Errorf("empty --exec command")
	}
	return argv, nil
}

// vectorBatch is one request; Index is its position in the vector list.
type vectorBatch struct {
	Index   int
	Vectors []golden.Vector
}

// batchResult carries a candidate's answers, or the failure and the command
// whose logs explain it.
type batchResult struct {
	Index int
	Out   []uint8
	Err   error
	Cmd   *utils.SafeCommand
}

func runVerify(ctx context.Context, out io.Writer, opts VerifyOptions) error {
	argv, err := validateVerifyFlags(&opts)
	if err != nil {
		return fail("Invalid arguments", err)
	}
	s, err := parseGeometry(opts.Width, opts.Height, opts.ScaleText)
	if err != nil {
		return fail("Invalid geometry", err)
	}
	src, err := raster.ReadRaw(opts.InputPath, opts.Width, opts.Height)
	if err != nil {
		return fail("Failed to read input", err)
	}
	vs, err := golden.Vectors(src, s)
	if err != nil {
		return fail("Failed to build vectors", err)
	}
	w2, h2, _ := golden.Params{Width: opts.Width, Height: opts.Height, Scale: s}.OutputDims()

	expected, _ := raster.New(w2, h2)
	for i, v := range vs {
		expected.Pix[i] = v.Expected
	}
	candidate, _ := raster.New(w2, h2)

	fmt.Fprintf(os.Stderr, "⚙️  Spawning %d candidate engines: %s\n", opts.NumEngines, opts.Exec)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	bar := newProgressBar(len(vs), "🔬 Verifying vectors")
	taskChan := make(chan vectorBatch, opts.NumEngines)
	resultsChan := make(chan batchResult, opts.NumEngines*2)
	var wg sync.WaitGroup

	// Aggregator places answers and cancels dispatch on the first failure.
	var firstErr *batchResult
	aggDone := make(chan struct{})
	go func() {
		defer close(aggDone)
		for res := range resultsChan {
			if res.Err != nil {
				if firstErr == nil {
					r := res
					firstErr = &r
					cancel()
				}
				continue
			}
			copy(candidate.Pix[res.Index:], res.Out)
			bar.Add(len(res.Out))
		}
	}()

	for i := 0; i < opts.NumEngines; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			runEngine(ctx, id, argv, taskChan, resultsChan)
		}(i)
	}

dispatch:
	for start := 0; start < len(vs); start += opts.BatchSize {
		end := min(start+opts.BatchSize, len(vs))
		select {
		case taskChan <- vectorBatch{Index: start, Vectors: vs[start:end]}:
		case <-ctx.Done():
			break dispatch
		}
	}

	close(taskChan)
	wg.Wait()
	close(resultsChan)
	<-aggDone
	bar.Finish()
	fmt.Fprintln(os.Stderr)

	if firstErr != nil {
		utils.ShowError("Candidate sampler failed", firstErr.Err, firstErr.Cmd)
		return shownError{firstErr.Err}
	}
	if err := ctx.Err(); err != nil {
		return fail("Verification interrupted", err)
	}

	res, err := compare.Compare(expected, candidate, compare.WithDetails())
	if err != nil {
		return fail("Comparison failed", err)
	}
	compare.WriteSummary(out, res)
	if opts.Details {
		compare.WriteDiffs(out, res)
	}
	if !res.OK() {
		return errMismatch
	}
	return nil
}

// runEngine owns one candidate process for its whole lifetime.
func runEngine(ctx context.Context, id int, argv []string, tasks <-chan vectorBatch, results chan<- batchResult) {
	w, err := worker.NewCandidateWorker(id, argv[0], argv[1:]...)
	if err != nil {
		results <- batchResult{Index: -1, Err: err}
		return
	}
	defer w.Close()

	for task := range tasks {
		if ctx.Err() != nil {
			// Keep draining so dispatch never blocks on a dead engine.
			continue
		}
		resp, err := w.ProcessVectors(task.Vectors)
		if err != nil {
			// Wait for exit so the captured stderr is complete.
			w.Close()
			results <- batchResult{Index: task.Index, Err: fmt.Errorf("engine %d: %w", id, err), Cmd: w.Cmd}
			return
		}
		results <- batchResult{Index: task.Index, Out: resp}
	}
}

package types

// RowTask is one output row handed to a golden-model worker.
// Dst is the destination row inside the output grid; workers own it
// exclusively until they report the matching RowResult.
type RowTask struct {
	Index int
	Dst   []byte
}

// RowResult reports a finished row back to the aggregator.
type RowResult struct {
	Index int
}

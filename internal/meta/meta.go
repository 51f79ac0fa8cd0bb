package meta

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/andresmejia3/scaleref/internal/bilinear"
)

// Mode tags how a run was executed.
type Mode string

const (
	ModeSoftware   Mode = "sw"
	ModeSequential Mode = "secuencial"
	ModeParallel   Mode = "paralelo"
)

// ParseMode validates a mode tag.
func ParseMode(s string) (Mode, error) {
	switch m := Mode(s); m {
	case ModeSoftware, ModeSequential, ModeParallel:
		return m, nil
	}
	return "", fmt.Errorf("invalid mode '%s'. Must be one of: sw, secuencial, paralelo", s)
}

// Run is the metadata record written next to every golden or hardware run.
type Run struct {
	WidthIn   int            `json:"w_in"`
	HeightIn  int            `json:"h_in"`
	Scale     bilinear.Scale `json:"scale"`
	WidthOut  int            `json:"w_out"`
	HeightOut int            `json:"h_out"`
	Mode      Mode           `json:"mode"`
	Units     int            `json:"units"`
	Cycles    *int64         `json:"perf_cyc,omitempty"`
	Pixels    *int64         `json:"perf_pix,omitempty"`
}

// NewRun derives the output size from the input size and scale.
func NewRun(w, h int, s bilinear.Scale, mode Mode, units int) (*Run, error) {
	w2, h2, err := bilinear.OutputDims(w, h, s)
	if err != nil {
		return nil, err
	}
	if units < 1 {
		return nil, fmt.Errorf("units must be >= 1, got %d", units)
	}
	return &Run{
		WidthIn:   w,
		HeightIn:  h,
		Scale:     s,
		WidthOut:  w2,
		HeightOut: h2,
		Mode:      mode,
		Units:     units,
	}, nil
}

// SetPerf records counters reported by the hardware or simulator.
func (r *Run) SetPerf(cycles, pixels int64) {
	r.Cycles = &cycles
	r.Pixels = &pixels
}

// Throughput returns pixels per cycle. ok is false unless both counters are
// present and the cycle count is positive.
func (r *Run) Throughput() (ppc float64, ok bool) {
	if r.Cycles == nil || r.Pixels == nil || *r.Cycles <= 0 {
		return 0, false
	}
	return float64(*r.Pixels) / float64(*r.Cycles), true
}

// Load reads a metadata record from disk.
func Load(path string) (*Run, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var r Run
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &r, nil
}

// Save writes the record as indented JSON, creating parent directories.
func (r *Run) Save(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0644)
}

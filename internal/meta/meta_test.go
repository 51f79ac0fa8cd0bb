package meta

import (
	"bytes"
	"encoding/json"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestNewRun(t *testing.T) {
	r, err := NewRun(32, 24, 0.75, ModeParallel, 4)
	if err != nil {
		t.Fatal(err)
	}
	if r.WidthOut != 24 || r.HeightOut != 18 {
		t.Errorf("output = %dx%d, want 24x18", r.WidthOut, r.HeightOut)
	}

	if _, err := NewRun(32, 32, 1.5, ModeSoftware, 1); err == nil {
		t.Error("expected error for scale 1.5")
	}
	if _, err := NewRun(32, 32, 0.5, ModeSoftware, 0); err == nil {
		t.Error("expected error for zero units")
	}
}

func TestParseMode(t *testing.T) {
	for _, s := range []string{"sw", "secuencial", "paralelo"} {
		if _, err := ParseMode(s); err != nil {
			t.Errorf("ParseMode(%q) error: %v", s, err)
		}
	}
	if _, err := ParseMode("turbo"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestJSONKeys(t *testing.T) {
	r, _ := NewRun(32, 32, 0.5, ModeSoftware, 1)
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatal(err)
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"w_in", "h_in", "scale", "w_out", "h_out", "mode", "units"} {
		if _, ok := m[k]; !ok {
			t.Errorf("missing key %q in %s", k, data)
		}
	}
	for _, k := range []string{"perf_cyc", "perf_pix"} {
		if _, ok := m[k]; ok {
			t.Errorf("unset key %q should be omitted: %s", k, data)
		}
	}

	r.SetPerf(1000, 256)
	data, _ = json.Marshal(r)
	if !bytes.Contains(data, []byte(`"perf_cyc":1000`)) || !bytes.Contains(data, []byte(`"perf_pix":256`)) {
		t.Errorf("perf counters not serialised: %s", data)
	}
}

func TestThroughput(t *testing.T) {
	r, _ := NewRun(32, 32, 0.5, ModeSequential, 1)
	if _, ok := r.Throughput(); ok {
		t.Error("throughput without counters should not be ok")
	}

	r.SetPerf(0, 256)
	if _, ok := r.Throughput(); ok {
		t.Error("throughput with zero cycles should not be ok")
	}

	r.SetPerf(1024, 256)
	ppc, ok := r.Throughput()
	if !ok || math.Abs(ppc-0.25) > 1e-12 {
		t.Errorf("Throughput() = %v, %v, want 0.25, true", ppc, ok)
	}
}

func TestSaveLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "results", "meta.json")
	r, _ := NewRun(64, 64, 0.75, ModeParallel, 8)
	r.SetPerf(4096, 2304)
	if err := r.Save(path); err != nil {
		t.Fatal(err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.WidthOut != 48 || got.Units != 8 || got.Mode != ModeParallel || *got.Cycles != 4096 {
		t.Errorf("Load() = %+v", got)
	}

	os.WriteFile(path, []byte("{not json"), 0644)
	if _, err := Load(path); err == nil {
		t.Error("expected parse error")
	}
}

func TestWriteReport(t *testing.T) {
	r, _ := NewRun(32, 32, 0.5, ModeSoftware, 1)
	var buf bytes.Buffer
	if err := WriteReport(&buf, r, "match 100.00%\nmax diff 0 LSB\nOK\n"); err != nil {
		t.Fatal(err)
	}
	out := buf.String()
	for _, want := range []string{"# Run Report", "- Input: 32x32", "- Output: 16x16", "## Comparison", "match 100.00%"} {
		if !strings.Contains(out, want) {
			t.Errorf("report missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "## Performance") {
		t.Error("performance section should be omitted without counters")
	}

	r.SetPerf(512, 256)
	buf.Reset()
	WriteReport(&buf, r, "OK")
	if !strings.Contains(buf.String(), "- Pixels per cycle: 0.500") {
		t.Errorf("missing throughput line:\n%s", buf.String())
	}
}

func TestWriteSummary(t *testing.T) {
	r, _ := NewRun(32, 32, 0.5, "", 1)
	var buf bytes.Buffer
	WriteSummary(&buf, r)
	if !strings.Contains(buf.String(), "mode    -") || !strings.Contains(buf.String(), "no data yet") {
		t.Errorf("unexpected summary:\n%s", buf.String())
	}
}

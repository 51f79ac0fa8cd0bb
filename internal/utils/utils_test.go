package utils

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
)

func TestWriteErrorBox(t *testing.T) {
	var buf bytes.Buffer
	writeErrorBox(&buf, "Comparison failed", errors.New("size mismatch"), nil)

	out := buf.String()
	if !strings.Contains(out, "SCALEREF ERROR: Comparison failed") {
		t.Errorf("missing context line in %q", out)
	}
	if !strings.Contains(out, "DETAILS: size mismatch") {
		t.Errorf("missing details line in %q", out)
	}
	if strings.Contains(out, "CANDIDATE PROCESS LOGS") {
		t.Error("logs section printed without a command")
	}

	// Captured child stderr is dumped inside the box
	sc := NewSafeCommand("true")
	sc.Stderr.WriteString("segfault in sampler")
	buf.Reset()
	writeErrorBox(&buf, "Candidate crashed", nil, sc)
	if !strings.Contains(buf.String(), "CANDIDATE PROCESS LOGS:\nsegfault in sampler") {
		t.Errorf("logs not included: %q", buf.String())
	}
}

func TestGenerateRunID(t *testing.T) {
	// Integration test using the OS filesystem
	tmp, err := os.CreateTemp("", "raster_test")
	if err != nil {
		t.Fatal(err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write([]byte{0, 1, 2, 3}); err != nil {
		t.Fatal(err)
	}
	tmp.Close()

	id, err := GenerateRunID(tmp.Name(), "2x2@0.5")
	if err != nil || id == "" {
		t.Errorf("Failed to generate ID: %v", err)
	}

	// Verify Determinism
	id2, _ := GenerateRunID(tmp.Name(), "2x2@0.5")
	if id != id2 {
		t.Errorf("Hash is not deterministic. Got %s, then %s", id, id2)
	}

	// Different params, different run
	if id3, _ := GenerateRunID(tmp.Name(), "2x2@0.75"); id == id3 {
		t.Error("Hash did not change with params")
	}

	// Verify Sensitivity (Change content -> Change ID)
	f, _ := os.OpenFile(tmp.Name(), os.O_APPEND|os.O_WRONLY, 0644)
	f.Write([]byte{4})
	f.Close()

	id4, _ := GenerateRunID(tmp.Name(), "2x2@0.5")
	if id == id4 {
		t.Error("Hash did not change after file modification")
	}

	if _, err := GenerateRunID(tmp.Name()+".missing", ""); err == nil {
		t.Error("expected error for missing file")
	}
}

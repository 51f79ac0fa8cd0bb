package worker

import (
	"bytes"
	"encoding/binary"
	"errors"
	"os"
	"testing"

	"github.com/andresmejia3/scaleref/internal/golden"
)

// MockCloser wraps a bytes.Buffer to satisfy io.ReadCloser and io.WriteCloser,
// so in-memory buffers stand in for OS pipes.
type MockCloser struct {
	*bytes.Buffer
}

func (m *MockCloser) Close() error { return nil }

var testVectors = []golden.Vector{
	{I00: 0, I10: 255, I01: 0, I11: 255, TX: 128, TY: 0},
	{I00: 10, I10: 20, I01: 30, I11: 40, TX: 256, TY: 256},
	{I00: 1, I10: 2, I01: 3, I11: 4, TX: 0x0102, TY: 0x00ff},
}

func TestEncodeVectors(t *testing.T) {
	got := EncodeVectors(testVectors[2:])
	want := []byte{1, 2, 3, 4, 0x01, 0x02, 0x00, 0xff}
	if !bytes.Equal(got, want) {
		t.Errorf("EncodeVectors = % x, want % x", got, want)
	}

	back, err := DecodeVectors(EncodeVectors(testVectors))
	if err != nil {
		t.Fatal(err)
	}
	for i := range testVectors {
		if back[i] != testVectors[i] {
			t.Errorf("vector %d = %+v, want %+v", i, back[i], testVectors[i])
		}
	}

	if _, err := DecodeVectors(make([]byte, 9)); err == nil {
		t.Error("expected error for truncated payload")
	}
}

func TestProcessVectors(t *testing.T) {
	// stdinMock simulates the pipe TO the candidate (we write to it)
	stdinMock := &MockCloser{Buffer: new(bytes.Buffer)}
	// dataPipeMock simulates FD 3 FROM the candidate (we read from it)
	dataPipeMock := &MockCloser{Buffer: new(bytes.Buffer)}

	// Protocol: [Len] [Status:0] [out...]
	payload := []byte{statusOK, 128, 40, 7}
	binary.Write(dataPipeMock, binary.BigEndian, uint32(len(payload)))
	dataPipeMock.Write(payload)

	// Cmd is nil because only the protocol is under test
	w := &CandidateWorker{ID: 1, Stdin: stdinMock, DataPipe: dataPipeMock}

	out, err := w.ProcessVectors(testVectors)
	if err != nil {
		t.Fatalf("ProcessVectors failed: %v", err)
	}
	if !bytes.Equal(out, []byte{128, 40, 7}) {
		t.Errorf("outputs = %v", out)
	}

	sent := stdinMock.Bytes()
	if len(sent) != 4+vectorSize*len(testVectors) {
		t.Fatalf("expected %d bytes sent, got %d", 4+vectorSize*len(testVectors), len(sent))
	}
	if n := binary.BigEndian.Uint32(sent); n != uint32(vectorSize*len(testVectors)) {
		t.Errorf("length header = %d", n)
	}
}

func TestProcessVectors_Error(t *testing.T) {
	stdinMock := &MockCloser{Buffer: new(bytes.Buffer)}
	dataPipeMock := &MockCloser{Buffer: new(bytes.Buffer)}

	// Protocol: [Len] [Status:1] [MsgLen] [Msg]
	payload := new(bytes.Buffer)
	payload.WriteByte(statusErr)
	errMsg := "weight out of range"
	binary.Write(payload, binary.BigEndian, uint32(len(errMsg)))
	payload.WriteString(errMsg)

	binary.Write(dataPipeMock, binary.BigEndian, uint32(payload.Len()))
	dataPipeMock.Write(payload.Bytes())

	w := &CandidateWorker{ID: 1, Stdin: stdinMock, DataPipe: dataPipeMock}
	_, err := w.ProcessVectors(testVectors)
	if !errors.Is(err, ErrWorker) {
		t.Fatalf("expected ErrWorker, got %v", err)
	}
	if err.Error() != "candidate worker error: "+errMsg {
		t.Errorf("error message = %q", err.Error())
	}
}

func TestProcessVectors_ShortReply(t *testing.T) {
	dataPipeMock := &MockCloser{Buffer: new(bytes.Buffer)}
	payload := []byte{statusOK, 1}
	binary.Write(dataPipeMock, binary.BigEndian, uint32(len(payload)))
	dataPipeMock.Write(payload)

	w := &CandidateWorker{ID: 2, Stdin: &MockCloser{Buffer: new(bytes.Buffer)}, DataPipe: dataPipeMock}
	if _, err := w.ProcessVectors(testVectors); err == nil {
		t.Error("expected error for short reply")
	}

	// Child died before answering
	w = &CandidateWorker{ID: 3, Stdin: &MockCloser{Buffer: new(bytes.Buffer)}, DataPipe: &MockCloser{Buffer: new(bytes.Buffer)}}
	if _, err := w.ProcessVectors(testVectors); err == nil {
		t.Error("expected error on EOF")
	}
}

func TestProcessVectors_OversizedReply(t *testing.T) {
	// A garbage header must fail before the body is allocated
	dataPipeMock := &MockCloser{Buffer: new(bytes.Buffer)}
	binary.Write(dataPipeMock, binary.BigEndian, uint32(0xFFFFFFFF))

	w := &CandidateWorker{ID: 4, Stdin: &MockCloser{Buffer: new(bytes.Buffer)}, DataPipe: dataPipeMock}
	if _, err := w.ProcessVectors(testVectors); !errors.Is(err, ErrFrameTooLarge) {
		t.Fatalf("expected ErrFrameTooLarge, got %v", err)
	}

	// Just over the batch limit is rejected too, the limit itself is not
	limit := replyLimit(len(testVectors))
	if limit != errReplySlack {
		t.Errorf("replyLimit(%d) = %d, want %d", len(testVectors), limit, errReplySlack)
	}
	if got := replyLimit(10000); got != 10001 {
		t.Errorf("replyLimit(10000) = %d, want 10001", got)
	}
	frame := new(bytes.Buffer)
	writeFrame(frame, make([]byte, limit+1))
	if _, err := readFrame(frame, limit); !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("readFrame(limit+1) error = %v", err)
	}
	frame.Reset()
	writeFrame(frame, make([]byte, limit))
	if body, err := readFrame(frame, limit); err != nil || uint32(len(body)) != limit {
		t.Errorf("readFrame(limit) = %d bytes, %v", len(body), err)
	}
}

func TestServe_OversizedRequest(t *testing.T) {
	in := new(bytes.Buffer)
	binary.Write(in, binary.BigEndian, uint32(maxRequest+1))
	err := Serve(in, new(bytes.Buffer), func(v golden.Vector) uint8 { return 0 })
	if !errors.Is(err, ErrFrameTooLarge) {
		t.Errorf("Serve error = %v, want ErrFrameTooLarge", err)
	}
}

func TestServe(t *testing.T) {
	in := new(bytes.Buffer)
	writeFrame(in, EncodeVectors(testVectors))
	writeFrame(in, []byte{1, 2, 3}) // malformed batch
	writeFrame(in, EncodeVectors(testVectors[:1]))

	out := new(bytes.Buffer)
	if err := Serve(in, out, func(v golden.Vector) uint8 { return v.Eval() }); err != nil {
		t.Fatalf("Serve failed: %v", err)
	}

	first, _ := readFrame(out, maxRequest)
	res, err := decodeReply(first)
	if err != nil {
		t.Fatal(err)
	}
	for i, v := range testVectors {
		if res[i] != v.Eval() {
			t.Errorf("output %d = %d, want %d", i, res[i], v.Eval())
		}
	}

	second, _ := readFrame(out, maxRequest)
	if _, err := decodeReply(second); !errors.Is(err, ErrWorker) {
		t.Errorf("malformed batch reply error = %v", err)
	}

	third, _ := readFrame(out, maxRequest)
	if res, err := decodeReply(third); err != nil || len(res) != 1 {
		t.Errorf("third reply = %v, %v", res, err)
	}
}

// TestHelperProcess is not a real test. It is re-executed by
// TestCandidateWorkerProcess as the candidate sampler.
func TestHelperProcess(t *testing.T) {
	if os.Getenv("SCALEREF_WANT_HELPER_PROCESS") != "1" {
		return
	}
	fd3 := os.NewFile(3, "data")
	err := Serve(os.Stdin, fd3, func(v golden.Vector) uint8 { return v.Eval() })
	fd3.Close()
	if err != nil {
		os.Exit(2)
	}
	os.Exit(0)
}

func TestCandidateWorkerProcess(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping subprocess test in short mode")
	}
	t.Setenv("SCALEREF_WANT_HELPER_PROCESS", "1")

	w, err := NewCandidateWorker(0, os.Args[0], "-test.run=^TestHelperProcess$")
	if err != nil {
		t.Fatal(err)
	}
	defer w.Close()

	for batch := 0; batch < 3; batch++ {
		out, err := w.ProcessVectors(testVectors)
		if err != nil {
			t.Fatalf("batch %d: %v (logs: %s)", batch, err, w.Cmd.Stderr.String())
		}
		for i, v := range testVectors {
			if out[i] != v.Eval() {
				t.Errorf("batch %d output %d = %d, want %d", batch, i, out[i], v.Eval())
			}
		}
	}
}

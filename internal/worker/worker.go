package worker

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/andresmejia3/scaleref/internal/bilinear"
	"github.com/andresmejia3/scaleref/internal/golden"
	"github.com/andresmejia3/scaleref/internal/utils"
)

var (
	// ErrWorker is returned when the candidate replies with an error status.
	ErrWorker = errors.New("candidate worker error")
	// ErrFrameTooLarge is returned when a frame header announces more bytes
	// than the reader accepts.
	ErrFrameTooLarge = errors.New("frame too large")
)

const (
	vectorSize = 8

	// errReplySlack bounds an error reply: status, message length and text.
	errReplySlack = 4096
	// maxRequest bounds one request frame read by Serve.
	maxRequest = 1 << 24

	statusOK  = 0
	statusErr = 1
)

// CandidateWorker drives an external sampler implementation over stdin and a
// side-channel pipe on FD 3.
type CandidateWorker struct {
	ID       int
	Cmd      *utils.SafeCommand
	Stdin    io.WriteCloser
	DataPipe io.ReadCloser

	closeOnce sync.Once
}

// NewCandidateWorker starts name with args and wires the FD 3 reply pipe.
func NewCandidateWorker(id int, name string, args ...string) (*CandidateWorker, error) {
	c := utils.NewSafeCommand(name, args...)

	r, w, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("failed to create pipe: %w", err)
	}
	// The write end appears as FD 3 in the child.
	c.Cmd.ExtraFiles = []*os.File{w}

	stdin, err := c.StdinPipe()
	if err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("failed to create stdin pipe: %w", err)
	}

	if err := c.Start(); err != nil {
		w.Close()
		r.Close()
		return nil, fmt.Errorf("worker %d failed to start: %w", id, err)
	}

	// Only the child holds the write end now, so EOF means it exited.
	w.Close()

	return &CandidateWorker{
		ID:       id,
		Cmd:      c,
		Stdin:    stdin,
		DataPipe: r,
	}, nil
}

// ProcessVectors sends one batch of vectors and returns the candidate's
// output byte for each, in order.
func (w *CandidateWorker) ProcessVectors(vs []golden.Vector) ([]uint8, error) {
	resp, err := w.Communicate(EncodeVectors(vs))
	if err != nil {
		return nil, err
	}
	out, err := decodeReply(resp)
	if err != nil {
		return nil, err
	}
	if len(out) != len(vs) {
		return nil, fmt.Errorf("worker %d returned %d outputs for %d vectors", w.ID, len(out), len(vs))
	}
	return out, nil
}

// Communicate writes one framed request and reads one framed reply.
func (w *CandidateWorker) Communicate(data []byte) ([]byte, error) {
	if err := writeFrame(w.Stdin, data); err != nil {
		return nil, err
	}
	return readFrame(w.DataPipe, replyLimit(len(data)/vectorSize))
}

// replyLimit is the largest reply accepted for a batch of n vectors: one
// status byte and n outputs, or an error reply.
func replyLimit(n int) uint32 {
	return uint32(max(1+n, errReplySlack))
}

// Close releases the pipes and waits for the process to exit. It is safe to
// call more than once.
func (w *CandidateWorker) Close() {
	w.closeOnce.Do(func() {
		w.Stdin.Close()
		w.DataPipe.Close()
		if w.Cmd != nil {
			w.Cmd.Wait()
		}
	})
}

// EncodeVectors packs I00 I10 I01 I11 followed by tx and ty as big-endian
// uint16, eight bytes per vector.
func EncodeVectors(vs []golden.Vector) []byte {
	buf := make([]byte, len(vs)*vectorSize)
	for i, v := range vs {
		b := buf[i*vectorSize:]
		b[0], b[1], b[2], b[3] = v.I00, v.I10, v.I01, v.I11
		binary.BigEndian.PutUint16(b[4:], uint16(v.TX))
		binary.BigEndian.PutUint16(b[6:], uint16(v.TY))
	}
	return buf
}

// DecodeVectors is the inverse of EncodeVectors. Expected is left zero.
func DecodeVectors(data []byte) ([]golden.Vector, error) {
	if len(data)%vectorSize != 0 {
		return nil, fmt.Errorf("payload of %d bytes is not a multiple of %d", len(data), vectorSize)
	}
	vs := make([]golden.Vector, len(data)/vectorSize)
	for i := range vs {
		b := data[i*vectorSize:]
		vs[i] = golden.Vector{
			I00: b[0], I10: b[1], I01: b[2], I11: b[3],
			TX: bilinear.Weight(binary.BigEndian.Uint16(b[4:])),
			TY: bilinear.Weight(binary.BigEndian.Uint16(b[6:])),
		}
	}
	return vs, nil
}

// decodeReply parses [status][body]. Status 1 carries [uint32 len][msg].
func decodeReply(resp []byte) ([]uint8, error) {
	if len(resp) < 1 {
		return nil, fmt.Errorf("empty reply from worker")
	}
	switch resp[0] {
	case statusOK:
		return resp[1:], nil
	case statusErr:
		body := resp[1:]
		if len(body) < 4 {
			return nil, fmt.Errorf("%w: truncated error reply", ErrWorker)
		}
		n := binary.BigEndian.Uint32(body)
		if uint32(len(body)-4) < n {
			return nil, fmt.Errorf("%w: truncated error reply", ErrWorker)
		}
		return nil, fmt.Errorf("%w: %s", ErrWorker, body[4:4+n])
	default:
		return nil, fmt.Errorf("unknown reply status %d", resp[0])
	}
}

func writeFrame(w io.Writer, data []byte) error {
	if err := binary.Write(w, binary.BigEndian, uint32(len(data))); err != nil {
		return err
	}
	_, err := w.Write(data)
	return err
}

func readFrame(r io.Reader, limit uint32) ([]byte, error) {
	header := make([]byte, 4)
	if _, err := io.ReadFull(r, header); err != nil {
		// A crashed child surfaces here as EOF.
		return nil, err
	}
	n := binary.BigEndian.Uint32(header)
	if n > limit {
		return nil, fmt.Errorf("%w: %d bytes announced, limit %d", ErrFrameTooLarge, n, limit)
	}
	body := make([]byte, n)
	_, err := io.ReadFull(r, body)
	return body, err
}

package worker

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"

	"github.com/andresmejia3/scaleref/internal/golden"
)

// SampleFunc evaluates one vector.
type SampleFunc func(v golden.Vector) uint8

// Serve is the child side of the protocol: it reads framed vector batches
// from r and writes one framed reply per batch to w until r reaches EOF.
// Malformed batches get an error reply and the loop continues.
func Serve(r io.Reader, w io.Writer, fn SampleFunc) error {
	for {
		req, err := readFrame(r, maxRequest)
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		reply := new(bytes.Buffer)
		vs, err := DecodeVectors(req)
		if err != nil {
			reply.WriteByte(statusErr)
			binary.Write(reply, binary.BigEndian, uint32(len(err.Error())))
			reply.WriteString(err.Error())
		} else {
			reply.WriteByte(statusOK)
			for _, v := range vs {
				reply.WriteByte(fn(v))
			}
		}
		if err := writeFrame(w, reply.Bytes()); err != nil {
			return err
		}
	}
}

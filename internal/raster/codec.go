package raster

import (
	"bufio"
	"fmt"
	"io"
	"os"
)

// DecodeRaw reads exactly w*h bytes from r. A short stream or trailing data
// fails with ErrSizeMismatch.
func DecodeRaw(r io.Reader, w, h int) (*Grid, error) {
	if w < 1 || h < 1 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidDims, w, h)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return FromBytes(w, h, data)
}

// ReadRaw loads a headerless 8-bit grayscale file.
func ReadRaw(path string, w, h int) (*Grid, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	g, err := DecodeRaw(f, w, h)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// WriteRaw stores the grid body with no header.
func WriteRaw(path string, g *Grid) error {
	return os.WriteFile(path, g.Pix, 0644)
}

// EncodePGM writes a binary portable graymap: "P5\n<W> <H>\n255\n" then the body.
func EncodePGM(w io.Writer, g *Grid) error {
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "P5\n%d %d\n255\n", g.Width, g.Height); err != nil {
		return err
	}
	if _, err := bw.Write(g.Pix); err != nil {
		return err
	}
	return bw.Flush()
}

func WritePGM(path string, g *Grid) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodePGM(f, g); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

package golden

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/andresmejia3/scaleref/internal/bilinear"
)

// ErrBadTable is returned for malformed vector tables.
var ErrBadTable = errors.New("malformed table")

var (
	vectorHeader = []string{"I00", "I10", "I01", "I11", "tx_q", "ty_q", "expected_out"}
	coordHeader  = []string{"yo", "xo", "x0", "y0", "x1", "y1", "tx_q", "ty_q"}
)

// WriteVectors writes the sampler test-vector table.
func WriteVectors(w io.Writer, vs []Vector) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(vectorHeader); err != nil {
		return err
	}
	rec := make([]string, len(vectorHeader))
	for _, v := range vs {
		rec[0] = strconv.Itoa(int(v.I00))
		rec[1] = strconv.Itoa(int(v.I10))
		rec[2] = strconv.Itoa(int(v.I01))
		rec[3] = strconv.Itoa(int(v.I11))
		rec[4] = strconv.Itoa(int(v.TX))
		rec[5] = strconv.Itoa(int(v.TY))
		rec[6] = strconv.Itoa(int(v.Expected))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteCoordinates writes the mapper coordinate table.
func WriteCoordinates(w io.Writer, rows []CoordRow) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(coordHeader); err != nil {
		return err
	}
	rec := make([]string, len(coordHeader))
	for _, r := range rows {
		rec[0] = strconv.Itoa(r.YO)
		rec[1] = strconv.Itoa(r.XO)
		rec[2] = strconv.Itoa(r.X0)
		rec[3] = strconv.Itoa(r.Y0)
		rec[4] = strconv.Itoa(r.X1)
		rec[5] = strconv.Itoa(r.Y1)
		rec[6] = strconv.Itoa(int(r.TX))
		rec[7] = strconv.Itoa(int(r.TY))
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadVectors parses a table produced by WriteVectors. Taps and the expected
// value must fit in 8 bits and weights in [0, 256].
func ReadVectors(r io.Reader) ([]Vector, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = len(vectorHeader)
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: empty input", ErrBadTable)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadTable, err)
	}
	for i, h := range vectorHeader {
		if header[i] != h {
			return nil, fmt.Errorf("%w: column %d is %q, expected %q", ErrBadTable, i, header[i], h)
		}
	}

	var vs []Vector
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadTable, err)
		}
		var f [7]int
		for i, s := range rec {
			n, err := strconv.Atoi(s)
			if err != nil {
				return nil, fmt.Errorf("%w: line %d column %s: %v", ErrBadTable, line, vectorHeader[i], err)
			}
			limit := 255
			if i == 4 || i == 5 {
				limit = int(bilinear.One)
			}
			if n < 0 || n > limit {
				return nil, fmt.Errorf("%w: line %d column %s: %d outside [0, %d]", ErrBadTable, line, vectorHeader[i], n, limit)
			}
			f[i] = n
		}
		vs = append(vs, Vector{
			I00:      uint8(f[0]),
			I10:      uint8(f[1]),
			I01:      uint8(f[2]),
			I11:      uint8(f[3]),
			TX:       bilinear.Weight(f[4]),
			TY:       bilinear.Weight(f[5]),
			Expected: uint8(f[6]),
		})
	}
	return vs, nil
}

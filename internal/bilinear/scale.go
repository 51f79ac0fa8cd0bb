// Package bilinear holds the bit-exact fixed-point model of the downscaling
// datapath: the centre-aligned coordinate mapper and the Q8.8 x Q8.8 sampler.
package bilinear

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidScale is returned for scale factors outside [MinScale, MaxScale].
var ErrInvalidScale = errors.New("invalid scale factor")

const (
	MinScale Scale = 0.5
	MaxScale Scale = 1.0
)

// Scale is the output/input size ratio.
type Scale float64

// ParseScale accepts a decimal ratio ("0.75") or the Q8.8 register encoding
// used by the hardware driver ("0x80" is 0.5, "0x100" is 1.0).
// The parsed value is validated.
func ParseScale(text string) (Scale, error) {
	text = strings.TrimSpace(text)
	var s Scale
	if hex, ok := strings.CutPrefix(strings.ToLower(text), "0x"); ok {
		reg, err := strconv.ParseUint(hex, 16, 16)
		if err != nil {
			return 0, fmt.Errorf("%w: bad Q8.8 register %q: %v", ErrInvalidScale, text, err)
		}
		s = Scale(float64(reg) / 256)
	} else {
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q is not a number", ErrInvalidScale, text)
		}
		s = Scale(f)
	}
	if err := s.Validate(); err != nil {
		return 0, err
	}
	return s, nil
}

// Validate rejects NaN and anything outside [0.5, 1.0].
func (s Scale) Validate() error {
	if math.IsNaN(float64(s)) || s < MinScale || s > MaxScale {
		return fmt.Errorf("%w: %v is outside [%v, %v]", ErrInvalidScale, float64(s), float64(MinScale), float64(MaxScale))
	}
	return nil
}

// Register returns the Q8.8 encoding of s, rounded to the nearest step.
func (s Scale) Register() uint16 {
	return uint16(math.Round(float64(s) * 256))
}

func (s Scale) String() string {
	return strconv.FormatFloat(float64(s), 'g', -1, 64)
}

// OutputDims returns max(1, round(w*s)) and max(1, round(h*s)).
// Rounding is half away from zero.
func OutputDims(w, h int, s Scale) (int, int, error) {
	if w < 1 || h < 1 {
		return 0, 0, fmt.Errorf("input dimensions must be >= 1, got %dx%d", w, h)
	}
	if err := s.Validate(); err != nil {
		return 0, 0, err
	}
	return scaledDim(w, s), scaledDim(h, s), nil
}

func scaledDim(n int, s Scale) int {
	d := int(math.Round(float64(n) * float64(s)))
	if d < 1 {
		d = 1
	}
	return d
}

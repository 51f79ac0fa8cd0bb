package bilinear

import (
	"errors"
	"math"
	"math/rand"
	"testing"
)

// refSample is the accumulator formula evaluated in plain int64.
func refSample(i00, i10, i01, i11, tx, ty int64) int64 {
	wx0, wy0 := 256-tx, 256-ty
	acc := i00*wx0*wy0 + i10*tx*wy0 + i01*wx0*ty + i11*tx*ty
	out := (acc + 1<<15) >> 16
	if out > 255 {
		out = 255
	}
	if out < 0 {
		out = 0
	}
	return out
}

func TestParseScale(t *testing.T) {
	tests := []struct {
		in      string
		want    Scale
		wantErr bool
	}{
		{"0.5", 0.5, false},
		{"0.75", 0.75, false},
		{"1", 1.0, false},
		{" 1.0 ", 1.0, false},
		{"0x80", 0.5, false},
		{"0xC0", 0.75, false},
		{"0x100", 1.0, false},
		{"0x00000080", 0.5, false},
		{"0x7F", 0, true},
		{"0x101", 0, true},
		{"1.01", 0, true},
		{"0.49", 0, true},
		{"2", 0, true},
		{"NaN", 0, true},
		{"abc", 0, true},
		{"0xZZ", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseScale(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidScale) {
					t.Fatalf("ParseScale(%q) error = %v, want ErrInvalidScale", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseScale(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseScale(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestScaleRegister(t *testing.T) {
	if got := Scale(0.5).Register(); got != 0x80 {
		t.Errorf("Register(0.5) = %#x, want 0x80", got)
	}
	if got := Scale(1).Register(); got != 0x100 {
		t.Errorf("Register(1.0) = %#x, want 0x100", got)
	}
}

func TestOutputDims(t *testing.T) {
	tests := []struct {
		w, h   int
		s      Scale
		ww, wh int
	}{
		{32, 32, 0.5, 16, 16},
		{64, 64, 0.75, 48, 48},
		{8, 8, 0.5, 4, 4},
		{1, 1, 1.0, 1, 1},
		{1, 1, 0.5, 1, 1},  // round(0.5) = 1, half away from zero
		{3, 5, 0.5, 2, 3},  // 1.5 -> 2, 2.5 -> 3
		{10, 7, 0.6, 6, 4}, // 4.2 -> 4
		{33, 17, 1.0, 33, 17},
	}
	for _, tt := range tests {
		w2, h2, err := OutputDims(tt.w, tt.h, tt.s)
		if err != nil {
			t.Fatalf("OutputDims(%d,%d,%v) error: %v", tt.w, tt.h, tt.s, err)
		}
		if w2 != tt.ww || h2 != tt.wh {
			t.Errorf("OutputDims(%d,%d,%v) = %dx%d, want %dx%d", tt.w, tt.h, tt.s, w2, h2, tt.ww, tt.wh)
		}
	}

	if _, _, err := OutputDims(32, 32, 0.25); !errors.Is(err, ErrInvalidScale) {
		t.Errorf("expected ErrInvalidScale for 0.25, got %v", err)
	}
	if _, _, err := OutputDims(0, 32, 0.5); err == nil {
		t.Error("expected error for zero width")
	}
}

func TestOutputDimsProperty(t *testing.T) {
	for w := 1; w <= 40; w++ {
		for _, s := range []Scale{0.5, 0.55, 0.6, 0.66, 0.75, 0.8, 0.9, 0.99, 1.0} {
			w2, h2, err := OutputDims(w, w+3, s)
			if err != nil {
				t.Fatal(err)
			}
			want := int(math.Max(1, math.Round(float64(w)*float64(s))))
			wantH := int(math.Max(1, math.Round(float64(w+3)*float64(s))))
			if w2 != want || h2 != wantH {
				t.Fatalf("OutputDims(%d,%d,%v) = %dx%d, want %dx%d", w, w+3, s, w2, h2, want, wantH)
			}
		}
	}
}

func TestQuantizeTieBreak(t *testing.T) {
	tests := []struct {
		frac float64
		want Weight
	}{
		{0, 0},
		{0.5 / 256, 1}, // exact tie rounds away from zero
		{2.5 / 256, 3}, // half-to-even would give 2
		{0.25, 64},
		{0.5, 128},
		{255.4 / 256, 255},
		{255.5 / 256, 255}, // would round to 256, saturated
		{0.9999, 255},
		{-0.001, 0},
	}
	for _, tt := range tests {
		if got := quantize(tt.frac); got != tt.want {
			t.Errorf("quantize(%v) = %d, want %d", tt.frac, got, tt.want)
		}
	}
}

func TestMapInvariants(t *testing.T) {
	scales := []Scale{0.5, 0.51, 0.6, 2.0 / 3.0, 0.7, 0.75, 0.8, 0.875, 0.9, 0.95, 1.0}
	for _, s := range scales {
		for w := 1; w <= 24; w++ {
			h := 25 - w
			w2, h2, err := OutputDims(w, h, s)
			if err != nil {
				t.Fatal(err)
			}
			for yo := 0; yo < h2; yo++ {
				for xo := 0; xo < w2; xo++ {
					c := Map(xo, yo, w, h, s)
					if c.X0 < 0 || c.X0 > c.X1 || c.X1 >= w {
						t.Fatalf("s=%v %dx%d (%d,%d): bad x taps %+v", s, w, h, xo, yo, c)
					}
					if c.Y0 < 0 || c.Y0 > c.Y1 || c.Y1 >= h {
						t.Fatalf("s=%v %dx%d (%d,%d): bad y taps %+v", s, w, h, xo, yo, c)
					}
					if c.TX > One || c.TY > One {
						t.Fatalf("s=%v %dx%d (%d,%d): weight out of range %+v", s, w, h, xo, yo, c)
					}
					if c.X1 != c.X0 && c.X1 != c.X0+1 {
						t.Fatalf("x taps not adjacent: %+v", c)
					}
				}
			}
		}
	}
}

func TestMapDegenerate(t *testing.T) {
	c := Map(0, 0, 1, 1, 1.0)
	want := Coord{}
	if c != want {
		t.Errorf("Map on 1x1 = %+v, want %+v", c, want)
	}
}

func TestMapAxis(t *testing.T) {
	tests := []struct {
		name   string
		o, dim int
		s      Scale
		i0, i1 int
		t      Weight
	}{
		{"Identity scale hits sample centres", 5, 10, 1.0, 5, 6, 0},
		{"Half scale first output", 0, 32, 0.5, 0, 1, 128},
		{"Half scale last output", 15, 32, 0.5, 30, 31, 128},
		{"Three quarter scale", 1, 64, 0.75, 1, 2, 128},
		{"Three quarter scale offset", 2, 64, 0.75, 2, 3, 213},
		{"Right border keeps the raw fraction", 1, 3, 0.5, 2, 2, 128},
		{"Last index replicates", 9, 10, 1.0, 9, 9, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			i0, i1, w := MapAxis(tt.o, tt.dim, tt.s)
			if i0 != tt.i0 || i1 != tt.i1 || w != tt.t {
				t.Errorf("MapAxis(%d,%d,%v) = (%d,%d,%d), want (%d,%d,%d)", tt.o, tt.dim, tt.s, i0, i1, w, tt.i0, tt.i1, tt.t)
			}
		})
	}
}

func TestSampleBoundaries(t *testing.T) {
	// Zero weights select I00 exactly
	for v := 0; v < 256; v++ {
		if got := Sample(uint8(v), 255-uint8(v), 17, 200, 0, 0); got != uint8(v) {
			t.Fatalf("Sample(tx=0,ty=0) = %d, want %d", got, v)
		}
	}

	// Full weights select I11
	if got := Sample(0, 0, 0, 99, One, One); got != 99 {
		t.Errorf("Sample(tx=256,ty=256) = %d, want 99", got)
	}

	// tx=255 stays within one LSB of the ideal 255/256 blend
	for a := 0; a < 256; a += 5 {
		for b := 0; b < 256; b += 7 {
			got := float64(Sample(uint8(a), uint8(b), uint8(a), uint8(b), MaxFrac, 0))
			ideal := float64(a) + (float64(b)-float64(a))*255/256
			if math.Abs(got-ideal) > 1 {
				t.Fatalf("Sample(%d,%d,tx=255) = %v, ideal %v", a, b, got, ideal)
			}
		}
	}

	// Equal taps reproduce the tap for any weight
	for _, w := range []Weight{0, 1, 64, 128, 200, 255, 256} {
		if got := Sample(77, 77, 77, 77, w, 256-w); got != 77 {
			t.Errorf("flat taps with tx=%d: got %d", w, got)
		}
	}
}

func TestSampleClampsOversizedWeights(t *testing.T) {
	if got, want := Sample(10, 20, 30, 40, 1000, 300), Sample(10, 20, 30, 40, One, One); got != want {
		t.Errorf("oversized weights = %d, want %d", got, want)
	}
}

func TestSampleMatchesReference(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200000; i++ {
		i00, i10, i01, i11 := rng.Intn(256), rng.Intn(256), rng.Intn(256), rng.Intn(256)
		tx, ty := rng.Intn(257), rng.Intn(257)
		got := Sample(uint8(i00), uint8(i10), uint8(i01), uint8(i11), Weight(tx), Weight(ty))
		want := refSample(int64(i00), int64(i10), int64(i01), int64(i11), int64(tx), int64(ty))
		if int64(got) != want {
			t.Fatalf("Sample(%d,%d,%d,%d,%d,%d) = %d, want %d", i00, i10, i01, i11, tx, ty, got, want)
		}
	}

	// Corners of the input space
	for _, v := range []int64{0, 255} {
		for _, w := range []int64{0, 1, 128, 255, 256} {
			got := Sample(uint8(v), uint8(v), uint8(v), uint8(v), Weight(w), Weight(w))
			if int64(got) != refSample(v, v, v, v, w, w) {
				t.Errorf("corner v=%d w=%d: got %d", v, w, got)
			}
		}
	}
}

package bilinear

// Acc is the Q16.16 accumulator. The worst case, 255*256*256*4, needs 27 bits.
type Acc uint32

const (
	accShift      = 16
	accHalf   Acc = 1 << (accShift - 1)
	maxSample Acc = 255
)

// Sample blends four taps with Q8.8 weights:
//
//	acc = I00*wx0*wy0 + I10*tx*wy0 + I01*wx0*ty + I11*tx*ty
//	out = clamp((acc + 2^15) >> 16, 0, 255)
//
// with wx0 = 256-tx and wy0 = 256-ty. Weights above One are clamped first,
// matching a 9-bit weight register.
func Sample(i00, i10, i01, i11 uint8, tx, ty Weight) uint8 {
	if tx > One {
		tx = One
	}
	if ty > One {
		ty = One
	}
	wx1, wy1 := Acc(tx), Acc(ty)
	wx0, wy0 := Acc(One)-wx1, Acc(One)-wy1

	acc := Acc(i00)*wx0*wy0 +
		Acc(i10)*wx1*wy0 +
		Acc(i01)*wx0*wy1 +
		Acc(i11)*wx1*wy1

	out := (acc + accHalf) >> accShift
	if out > maxSample {
		out = maxSample
	}
	return uint8(out)
}

package bigint

import (
	"fmt"
	"math/big"

	"github.com/agbru/bigtensor/internal/arith"
	apperrors "github.com/agbru/bigtensor/internal/errors"
)

// Width describes a fixed-width two's complement (Signed) or unsigned
// integer encoding of 1 to 64 bits.
type Width struct {
	Bits   uint
	Signed bool
}

// Common widths.
var (
	Int32Width  = Width{Bits: 32, Signed: true}
	Int64Width  = Width{Bits: 64, Signed: true}
	Uint8Width  = Width{Bits: 8}
	Uint32Width = Width{Bits: 32}
	Uint64Width = Width{Bits: 64}
)

// String returns the Go type name of the width, such as "int32".
func (w Width) String() string {
	if w.Signed {
		return fmt.Sprintf("int%d", w.Bits)
	}
	return fmt.Sprintf("uint%d", w.Bits)
}

// Min returns the smallest value representable in w.
func (w Width) Min() Int {
	if !w.Signed {
		return Int{}
	}
	return FromFixedWidth(uint64(1)<<(w.Bits-1), w)
}

// Max returns the largest value representable in w.
func (w Width) Max() Int {
	return FromUint64(w.mask() >> boolToUint(w.Signed))
}

func (w Width) mask() uint64 {
	if w.Bits == 0 || w.Bits > 64 {
		panic(fmt.Sprintf("bigint: invalid width of %d bits", w.Bits))
	}
	return ^uint64(0) >> (64 - w.Bits)
}

func boolToUint(b bool) uint {
	if b {
		return 1
	}
	return 0
}

// FromFixedWidth interprets the low w.Bits bits of v as a two's complement
// (w.Signed) or unsigned integer. It always succeeds.
func FromFixedWidth(v uint64, w Width) Int {
	mask := w.mask()
	v &= mask
	if w.Signed && (v>>(w.Bits-1))&1 == 1 {
		return Int{neg: true, mag: magFromUint64((-v) & mask)}
	}
	return Int{mag: magFromUint64(v)}
}

// FromInt64 returns v as an Int.
func FromInt64(v int64) Int { return FromFixedWidth(uint64(v), Int64Width) }

// FromUint64 returns v as an Int.
func FromUint64(v uint64) Int { return FromFixedWidth(v, Uint64Width) }

// ToFixedWidth returns the w.Bits-bit pattern of x, zero-extended to 64 bits.
// Values outside the range of w yield an apperrors.RangeError; no value is
// ever truncated.
func (x Int) ToFixedWidth(w Width) (uint64, error) {
	mask := w.mask()
	bl := magBitLen(x.mag)
	bitsAvail := int(w.Bits)
	if w.Signed {
		bitsAvail--
	}
	switch {
	case len(x.mag) == 0:
		return 0, nil
	case !x.neg && bl <= bitsAvail:
		return low64(x.mag), nil
	case x.neg && w.Signed && (bl <= bitsAvail || (bl == int(w.Bits) && isPow2(x.mag))):
		return (-low64(x.mag)) & mask, nil
	}
	return 0, apperrors.RangeError{Value: x.String(), Bits: int(w.Bits), Signed: w.Signed, Index: -1}
}

// Int32 returns x as an int32, or an apperrors.RangeError.
func (x Int) Int32() (int32, error) {
	v, err := x.ToFixedWidth(Int32Width)
	return int32(uint32(v)), err
}

// Int64 returns x as an int64, or an apperrors.RangeError.
func (x Int) Int64() (int64, error) {
	v, err := x.ToFixedWidth(Int64Width)
	return int64(v), err
}

// Uint8 returns x as a uint8, or an apperrors.RangeError.
func (x Int) Uint8() (uint8, error) {
	v, err := x.ToFixedWidth(Uint8Width)
	return uint8(v), err
}

func magFromUint64(u uint64) []big.Word {
	if u == 0 {
		return nil
	}
	if _W == 64 {
		return []big.Word{big.Word(u)}
	}
	return arith.Norm([]big.Word{big.Word(u), big.Word(u >> 32)})
}

// low64 returns the low 64 bits of a magnitude.
func low64(mag []big.Word) uint64 {
	var v uint64
	for i := 0; i < len(mag) && i*_W < 64; i++ {
		v |= uint64(mag[i]) << (uint(i) * _W)
	}
	return v
}

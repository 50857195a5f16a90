package bigint

import (
	"math/big"
	"math/bits"

	"github.com/agbru/bigtensor/internal/arith"
)

const _W = bits.UintSize

// Int is an immutable arbitrary-precision signed integer.
// The zero value is 0.
type Int struct {
	neg bool
	mag []big.Word // normalized: no high zero words
}

// Allocator supplies zeroed word storage for new magnitudes.
// *memory.WordArena implements it.
type Allocator interface {
	Alloc(words int) []big.Word
}

type heapAllocator struct{}

func (heapAllocator) Alloc(words int) []big.Word { return make([]big.Word, words) }

var heap Allocator = heapAllocator{}

// makeInt builds a canonical Int from a sign and a magnitude that may carry
// high zero words.
func makeInt(neg bool, mag []big.Word) Int {
	mag = arith.Norm(mag)
	if len(mag) == 0 {
		return Int{}
	}
	return Int{neg: neg, mag: mag}
}

// Sign returns -1, 0 or +1.
func (x Int) Sign() int {
	switch {
	case len(x.mag) == 0:
		return 0
	case x.neg:
		return -1
	default:
		return 1
	}
}

// IsZero reports whether x == 0.
func (x Int) IsZero() bool { return len(x.mag) == 0 }

// Neg returns -x.
func (x Int) Neg() Int {
	if len(x.mag) == 0 {
		return x
	}
	return Int{neg: !x.neg, mag: x.mag}
}

// Abs returns |x|.
func (x Int) Abs() Int {
	return Int{mag: x.mag}
}

// BitLen returns the length of |x| in bits. BitLen of 0 is 0.
func (x Int) BitLen() int {
	return magBitLen(x.mag)
}

// WordLen returns the number of limbs in the magnitude of x.
func (x Int) WordLen() int { return len(x.mag) }

// Words returns a copy of the little-endian magnitude limbs of x.
func (x Int) Words() []big.Word {
	if len(x.mag) == 0 {
		return nil
	}
	out := make([]big.Word, len(x.mag))
	copy(out, x.mag)
	return out
}

// Cmp compares a and b and returns -1, 0 or +1.
//
// Negative values order before zero, which orders before positive values.
// Between values of the same sign the magnitudes decide, reversed for
// negatives.
func Cmp(a, b Int) int {
	sa, sb := a.Sign(), b.Sign()
	switch {
	case sa < sb:
		return -1
	case sa > sb:
		return 1
	case sa == 0:
		return 0
	}
	c := arith.Cmp(a.mag, b.mag)
	if a.neg {
		return -c
	}
	return c
}

// Equal reports whether a and b have the same value.
func Equal(a, b Int) bool {
	return Cmp(a, b) == 0
}

// Min returns the smaller of a and b.
func Min(a, b Int) Int {
	if Cmp(a, b) <= 0 {
		return a
	}
	return b
}

// Max returns the larger of a and b.
func Max(a, b Int) Int {
	if Cmp(a, b) >= 0 {
		return a
	}
	return b
}

func magBitLen(mag []big.Word) int {
	if len(mag) == 0 {
		return 0
	}
	return (len(mag)-1)*_W + bits.Len(uint(mag[len(mag)-1]))
}

// isPow2 reports whether the non-empty magnitude has exactly one bit set.
func isPow2(mag []big.Word) bool {
	top := mag[len(mag)-1]
	if top&(top-1) != 0 {
		return false
	}
	for _, w := range mag[:len(mag)-1] {
		if w != 0 {
			return false
		}
	}
	return true
}

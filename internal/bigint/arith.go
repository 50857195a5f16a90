package bigint

import (
	"math/big"

	"github.com/agbru/bigtensor/internal/arith"
)

// mulBigThreshold is the operand size in words from which multiplication is
// handed to math/big, whose Karatsuba multiply beats the schoolbook loop.
const mulBigThreshold = 48

// Add returns a + b.
func Add(a, b Int) Int { return AddWith(heap, a, b) }

// Sub returns a - b.
func Sub(a, b Int) Int { return SubWith(heap, a, b) }

// Mul returns a * b.
func Mul(a, b Int) Int { return MulWith(heap, a, b) }

// AddWith returns a + b with the result magnitude taken from al.
//
// Equal signs add magnitudes and keep the sign. Different signs subtract the
// smaller magnitude from the larger and take the sign of the larger; equal
// magnitudes give zero.
func AddWith(al Allocator, a, b Int) Int {
	return addSigned(al, a.neg, a.mag, b.neg, b.mag)
}

// SubWith returns a - b with the result magnitude taken from al.
func SubWith(al Allocator, a, b Int) Int {
	return addSigned(al, a.neg, a.mag, len(b.mag) > 0 && !b.neg, b.mag)
}

func addSigned(al Allocator, aneg bool, x []big.Word, bneg bool, y []big.Word) Int {
	switch {
	case len(x) == 0:
		return Int{neg: bneg, mag: y}
	case len(y) == 0:
		return Int{neg: aneg, mag: x}
	}
	if aneg == bneg {
		return makeInt(aneg, addMag(al, x, y))
	}
	switch arith.Cmp(x, y) {
	case 0:
		return Int{}
	case 1:
		return makeInt(aneg, subMag(al, x, y))
	default:
		return makeInt(bneg, subMag(al, y, x))
	}
}

// addMag returns x + y.
func addMag(al Allocator, x, y []big.Word) []big.Word {
	if len(x) < len(y) {
		x, y = y, x
	}
	m, n := len(x), len(y)
	z := al.Alloc(m + 1)
	c := arith.AddVV(z[:n], x[:n], y)
	c = arith.AddVW(z[n:m], x[n:], c)
	z[m] = c
	return z
}

// subMag returns x - y for x >= y.
func subMag(al Allocator, x, y []big.Word) []big.Word {
	m, n := len(x), len(y)
	z := al.Alloc(m)
	b := arith.SubVV(z[:n], x[:n], y)
	arith.SubVW(z[n:], x[n:], b)
	return z
}

// MulWith returns a * b with the result magnitude taken from al.
func MulWith(al Allocator, a, b Int) Int {
	if len(a.mag) == 0 || len(b.mag) == 0 {
		return Int{}
	}
	neg := a.neg != b.neg
	x, y := a.mag, b.mag
	if len(x) < len(y) {
		x, y = y, x
	}
	if len(y) >= mulBigThreshold {
		z := new(big.Int).Mul(new(big.Int).SetBits(x), new(big.Int).SetBits(y))
		return makeInt(neg, z.Bits())
	}
	z := al.Alloc(len(x) + len(y))
	for i, w := range y {
		if w != 0 {
			z[len(x)+i] = arith.AddMulVVW(z[i:i+len(x)], x, w)
		}
	}
	return makeInt(neg, z)
}

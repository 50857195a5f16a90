package arith

import (
	"math/big"
	"math/bits"
)

// WordBits is the size of a big.Word in bits.
const WordBits = bits.UintSize

// AddVV computes z = x + y element-wise and returns the carry.
// x and y must be at least as long as z.
func AddVV(z, x, y []big.Word) big.Word {
	if len(z) == 0 {
		return 0
	}
	return addVV(z, x, y)
}

// SubVV computes z = x - y element-wise and returns the borrow.
func SubVV(z, x, y []big.Word) big.Word {
	if len(z) == 0 {
		return 0
	}
	return subVV(z, x, y)
}

// AddVW computes z = x + y for a single word y and returns the carry.
// With an empty z the carry is y itself.
func AddVW(z, x []big.Word, y big.Word) big.Word {
	if len(z) == 0 {
		return y
	}
	return addVW(z, x, y)
}

// SubVW computes z = x - y for a single word y and returns the borrow.
func SubVW(z, x []big.Word, y big.Word) big.Word {
	if len(z) == 0 {
		return y
	}
	return subVW(z, x, y)
}

// MulAddVWW computes z = x*y + r and returns the high word.
func MulAddVWW(z, x []big.Word, y, r big.Word) big.Word {
	if len(z) == 0 {
		return r
	}
	return mulAddVWW(z, x, y, r)
}

// AddMulVVW computes z += x*y where y is a single word and returns the carry.
func AddMulVVW(z, x []big.Word, y big.Word) big.Word {
	if len(z) == 0 {
		return 0
	}
	return addMulVVW(z, x, y)
}

// DivW computes z = x / y for a single non-zero word y and returns the
// remainder. z and x may alias.
func DivW(z, x []big.Word, y big.Word) (r big.Word) {
	if y == 0 {
		panic("arith: division by zero")
	}
	for i := len(x) - 1; i >= 0; i-- {
		q, rem := bits.Div(uint(r), uint(x[i]), uint(y))
		z[i] = big.Word(q)
		r = big.Word(rem)
	}
	return r
}

// Cmp compares two normalized magnitudes and returns -1, 0 or +1.
// Longer magnitudes are larger; equal lengths compare from the most
// significant word down.
func Cmp(x, y []big.Word) int {
	switch {
	case len(x) < len(y):
		return -1
	case len(x) > len(y):
		return 1
	}
	for i := len(x) - 1; i >= 0; i-- {
		switch {
		case x[i] < y[i]:
			return -1
		case x[i] > y[i]:
			return 1
		}
	}
	return 0
}

// Norm returns x without its high zero words.
func Norm(x []big.Word) []big.Word {
	n := len(x)
	for n > 0 && x[n-1] == 0 {
		n--
	}
	return x[:n]
}

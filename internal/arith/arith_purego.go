//go:build purego

package arith

import (
	"math/big"
	"math/bits"
)

func addVV(z, x, y []big.Word) (c big.Word) {
	for i := range z {
		zi, cc := bits.Add(uint(x[i]), uint(y[i]), uint(c))
		z[i] = big.Word(zi)
		c = big.Word(cc)
	}
	return c
}

func subVV(z, x, y []big.Word) (c big.Word) {
	for i := range z {
		zi, cc := bits.Sub(uint(x[i]), uint(y[i]), uint(c))
		z[i] = big.Word(zi)
		c = big.Word(cc)
	}
	return c
}

func addVW(z, x []big.Word, y big.Word) (c big.Word) {
	c = y
	for i := range z {
		zi, cc := bits.Add(uint(x[i]), uint(c), 0)
		z[i] = big.Word(zi)
		c = big.Word(cc)
	}
	return c
}

func subVW(z, x []big.Word, y big.Word) (c big.Word) {
	c = y
	for i := range z {
		zi, cc := bits.Sub(uint(x[i]), uint(c), 0)
		z[i] = big.Word(zi)
		c = big.Word(cc)
	}
	return c
}

func mulAddVWW(z, x []big.Word, y, r big.Word) (c big.Word) {
	c = r
	for i := range z {
		hi, lo := bits.Mul(uint(x[i]), uint(y))
		lo, cc := bits.Add(lo, uint(c), 0)
		z[i] = big.Word(lo)
		c = big.Word(hi + cc)
	}
	return c
}

func addMulVVW(z, x []big.Word, y big.Word) (c big.Word) {
	for i := range z {
		hi, lo := bits.Mul(uint(x[i]), uint(y))
		lo, cc := bits.Add(lo, uint(z[i]), 0)
		hi += cc
		lo, cc = bits.Add(lo, uint(c), 0)
		z[i] = big.Word(lo)
		c = big.Word(hi + cc)
	}
	return c
}

//go:build gmp

package bigint

import "github.com/ncw/gmp"

// Backend names the library that performs modular exponentiation.
const Backend = "gmp"

// expMod computes base^exp mod m for exp >= 0 and m > 0 with libgmp.
func expMod(base, exp, m Int) Int {
	x := toGMP(base)
	y := toGMP(exp)
	n := toGMP(m)
	z := new(gmp.Int).Exp(x, y, n)
	// mpz_powm leaves a non-negative result for a negative base.
	return FromBytes(z.Bytes())
}

func toGMP(v Int) *gmp.Int {
	z := new(gmp.Int).SetBytes(v.Bytes())
	if v.neg {
		z.Neg(z)
	}
	return z
}

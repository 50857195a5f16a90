package bigint

import (
	"math/big"

	apperrors "github.com/agbru/bigtensor/internal/errors"
)

// ExpMod returns base^exp mod m, in [0, m). The modulus must be positive.
// A negative exponent uses the modular inverse of base, which must exist.
//
// With secure set, the exponent is processed by a Montgomery ladder that
// performs one multiplication and one squaring per bit of the modulus length,
// whatever the exponent's bit pattern.
func ExpMod(base, exp, m Int, secure bool) (Int, error) {
	if m.Sign() <= 0 {
		return Int{}, apperrors.ArithmeticError{Op: "powmod", Index: -1, Reason: "modulus must be positive"}
	}
	if exp.neg {
		inv, err := ModInverse(base, m)
		if err != nil {
			return Int{}, apperrors.ArithmeticError{Op: "powmod", Index: -1, Reason: "base is not invertible for a negative exponent"}
		}
		base, exp = inv, exp.Abs()
	}
	if secure {
		return ladderExpMod(bigView(base), bigView(exp), bigView(m)), nil
	}
	return expMod(base, exp, m), nil
}

// ladderExpMod computes x^y mod m for y >= 0 and m > 0.
func ladderExpMod(x, y, m *big.Int) Int {
	r0 := new(big.Int).Mod(big.NewInt(1), m)
	r1 := new(big.Int).Mod(x, m)
	n := y.BitLen()
	if mb := m.BitLen(); mb > n {
		n = mb
	}
	for i := n - 1; i >= 0; i-- {
		if y.Bit(i) == 0 {
			r1.Mul(r0, r1).Mod(r1, m)
			r0.Mul(r0, r0).Mod(r0, m)
		} else {
			r0.Mul(r0, r1).Mod(r0, m)
			r1.Mul(r1, r1).Mod(r1, m)
		}
	}
	return fromBigOwned(r0)
}

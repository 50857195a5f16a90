package bigint

import (
	"math/big"

	apperrors "github.com/agbru/bigtensor/internal/errors"
)

func divisionByZero(op string) error {
	return apperrors.ArithmeticError{Op: op, Index: -1, Reason: "division by zero"}
}

// Quo returns the quotient a/b truncated toward zero.
// A zero divisor yields an apperrors.ArithmeticError.
func Quo(a, b Int) (Int, error) {
	if b.IsZero() {
		return Int{}, divisionByZero("quo")
	}
	return fromBigOwned(new(big.Int).Quo(bigView(a), bigView(b))), nil
}

// Rem returns the remainder of the truncated division a/b. The result has the
// sign of a.
func Rem(a, b Int) (Int, error) {
	if b.IsZero() {
		return Int{}, divisionByZero("rem")
	}
	return fromBigOwned(new(big.Int).Rem(bigView(a), bigView(b))), nil
}

// Mod returns the Euclidean modulus of a by b, which lies in [0, |b|).
func Mod(a, b Int) (Int, error) {
	if b.IsZero() {
		return Int{}, divisionByZero("mod")
	}
	return fromBigOwned(new(big.Int).Mod(bigView(a), bigView(b))), nil
}

// ModInverse returns the x in [0, |m|) with a*x ≡ 1 (mod m).
// A zero modulus or an a that shares a factor with m yields an
// apperrors.ArithmeticError.
func ModInverse(a, m Int) (Int, error) {
	if m.IsZero() {
		return Int{}, divisionByZero("inv")
	}
	z := new(big.Int)
	if z.ModInverse(bigView(a), bigView(m)) == nil {
		return Int{}, apperrors.ArithmeticError{Op: "inv", Index: -1, Reason: "value is not invertible"}
	}
	return fromBigOwned(z), nil
}

package bigint

import (
	"crypto/rand"
	"fmt"
	"io"

	apperrors "github.com/agbru/bigtensor/internal/errors"
)

// RandomBelow returns a uniform random value in [0, bound) read from r.
// A nil r selects crypto/rand.Reader.
func RandomBelow(r io.Reader, bound Int) (Int, error) {
	if bound.Sign() <= 0 {
		return Int{}, apperrors.ValidationError{Field: "maxval", Message: "must be positive"}
	}
	if r == nil {
		r = rand.Reader
	}
	v, err := rand.Int(r, bigView(bound))
	if err != nil {
		return Int{}, fmt.Errorf("random value below %d-bit bound: %w", bound.BitLen(), err)
	}
	return fromBigOwned(v), nil
}

// RandomPrime returns a random prime of exactly bits bits read from r.
// A nil r selects crypto/rand.Reader.
func RandomPrime(r io.Reader, bits int) (Int, error) {
	if bits < 2 {
		return Int{}, apperrors.ValidationError{Field: "bits", Message: fmt.Sprintf("prime size must be at least 2 bits, got %d", bits)}
	}
	if r == nil {
		r = rand.Reader
	}
	p, err := rand.Prime(r, bits)
	if err != nil {
		return Int{}, fmt.Errorf("random %d-bit prime: %w", bits, err)
	}
	return fromBigOwned(p), nil
}

package tensor

import (
	"context"
	"fmt"
	"time"

	"github.com/agbru/bigtensor/internal/bigint"
	apperrors "github.com/agbru/bigtensor/internal/errors"
)

// maxRSAAttempts bounds the prime pairs drawn by RandomRSAModulus.
const maxRSAAttempts = 64

// RandomUniform returns an array of the given shape filled with independent
// uniform values in [0, maxval). Generation is sequential: the entropy
// source is read in flat order.
func (e *Engine) RandomUniform(ctx context.Context, shape Shape, maxval bigint.Int) (out *BigArray, err error) {
	start := time.Now()
	defer func() { e.observe("random_uniform", shape.Size(), start, &err) }()

	if err := shape.Validate(); err != nil {
		return nil, err
	}
	values := make([]bigint.Int, shape.Size())
	for i := range values {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		v, err := bigint.RandomBelow(e.opts.Random, maxval)
		if err != nil {
			return nil, err
		}
		values[i] = v
	}
	return newOwned(shape.Clone(), values), nil
}

// RandomRSAModulus draws primes p and q of bits/2 and bits-bits/2 bits until
// their product n has exactly bits bits, and returns the three as scalars.
func (e *Engine) RandomRSAModulus(ctx context.Context, bits int) (p, q, n *BigArray, err error) {
	start := time.Now()
	defer func() { e.observe("random_rsa_modulus", 1, start, &err) }()

	if bits < 4 {
		return nil, nil, nil, apperrors.ValidationError{Field: "bits", Message: fmt.Sprintf("modulus size must be at least 4 bits, got %d", bits)}
	}
	for attempt := 0; attempt < maxRSAAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, nil, nil, err
		}
		pv, err := bigint.RandomPrime(e.opts.Random, bits/2)
		if err != nil {
			return nil, nil, nil, err
		}
		qv, err := bigint.RandomPrime(e.opts.Random, bits-bits/2)
		if err != nil {
			return nil, nil, nil, err
		}
		nv := bigint.Mul(pv, qv)
		if nv.BitLen() == bits {
			return Scalar(pv), Scalar(qv), Scalar(nv), nil
		}
	}
	return nil, nil, nil, fmt.Errorf("no %d-bit modulus after %d attempts", bits, maxRSAAttempts)
}

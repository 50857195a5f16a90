package tensor

import (
	"context"
	"time"

	"github.com/agbru/bigtensor/internal/bigint"
	"github.com/agbru/bigtensor/internal/parallel"
)

// PowMod returns base^exp mod modulus elementwise, with base and exp
// broadcast against each other and a scalar modulus. Results lie in
// [0, modulus). With secure set every element uses the fixed-sequence
// ladder of bigint.ExpMod.
func (e *Engine) PowMod(ctx context.Context, base, exp *BigArray, modulus bigint.Int, secure bool) (out *BigArray, err error) {
	start, n := time.Now(), 0
	defer func() { e.observe("powmod", n, start, &err) }()

	shape, err := Broadcast("powmod", base.shape, exp.shape)
	if err != nil {
		return nil, err
	}
	n = shape.Size()
	ix := newIndexer(shape, base.shape, exp.shape)
	values := make([]bigint.Int, n)
	err = e.run(ctx, n, func(parallel.Range) func(int) error {
		return func(i int) error {
			bi, ei := ix.offsets(i)
			v, err := bigint.ExpMod(base.values[bi], exp.values[ei], modulus, secure)
			if err != nil {
				return annotate(err, i, shape)
			}
			values[i] = v
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return newOwned(shape, values), nil
}

// ModScalar reduces every element of a modulo m into [0, |m|).
func (e *Engine) ModScalar(ctx context.Context, a *BigArray, m bigint.Int) (*BigArray, error) {
	return e.mapScalar(ctx, "mod_scalar", a, m, bigint.Mod)
}

// Inv returns the modular inverse of every element of a modulo m. An element
// without an inverse yields an apperrors.ArithmeticError for its index.
func (e *Engine) Inv(ctx context.Context, a *BigArray, m bigint.Int) (*BigArray, error) {
	return e.mapScalar(ctx, "inv", a, m, bigint.ModInverse)
}

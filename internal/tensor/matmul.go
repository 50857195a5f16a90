package tensor

import (
	"context"
	"fmt"
	"time"

	"github.com/agbru/bigtensor/internal/bigint"
	apperrors "github.com/agbru/bigtensor/internal/errors"
	"github.com/agbru/bigtensor/internal/parallel"
)

// MatMul returns the matrix product of the 2-D arrays a [m, k] and b [k, n].
// Arrays of another rank yield an apperrors.ValidationError and mismatched
// inner dimensions an apperrors.ShapeError on axis 1.
func (e *Engine) MatMul(ctx context.Context, a, b *BigArray) (out *BigArray, err error) {
	start, size := time.Now(), 0
	defer func() { e.observe("matmul", size, start, &err) }()

	if a.Rank() != 2 || b.Rank() != 2 {
		return nil, apperrors.ValidationError{
			Field:   "shape",
			Message: fmt.Sprintf("matmul requires 2-D arrays, got ranks %d and %d", a.Rank(), b.Rank()),
		}
	}
	m, k, n := a.shape[0], a.shape[1], b.shape[1]
	if b.shape[0] != k {
		return nil, apperrors.ShapeError{Op: "matmul", A: []int(a.shape.Clone()), B: []int(b.shape.Clone()), Axis: 1}
	}

	shape := Shape{m, n}
	size = m * n
	values := make([]bigint.Int, size)
	err = e.run(ctx, size, func(parallel.Range) func(int) error {
		return func(idx int) error {
			i, j := idx/n, idx%n
			var acc bigint.Int
			for p := 0; p < k; p++ {
				acc = bigint.Add(acc, bigint.Mul(a.values[i*k+p], b.values[p*n+j]))
			}
			values[idx] = acc
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return newOwned(shape, values), nil
}

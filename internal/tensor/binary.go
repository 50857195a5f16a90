package tensor

import (
	"context"
	"fmt"
	"time"

	"github.com/agbru/bigtensor/internal/bigint"
	apperrors "github.com/agbru/bigtensor/internal/errors"
	"github.com/agbru/bigtensor/internal/memory"
	"github.com/agbru/bigtensor/internal/parallel"
)

// Add returns the elementwise sum of a and b with broadcasting.
//
// Shapes are aligned on their trailing axes; see Broadcast. Incompatible
// shapes yield an apperrors.ShapeError. The inputs are never modified and the
// result is a new array.
func (e *Engine) Add(ctx context.Context, a, b *BigArray) (*BigArray, error) {
	return e.Binary(ctx, OpAdd, a, b)
}

// Binary applies op elementwise to a and b with broadcasting.
// Element failures, such as a division by zero, are reported as
// apperrors.ArithmeticError for the lowest failing output index.
func (e *Engine) Binary(ctx context.Context, op Op, a, b *BigArray) (out *BigArray, err error) {
	if op < 0 || op >= numOps {
		return nil, apperrors.ValidationError{Field: "op", Message: fmt.Sprintf("unknown operation %d", int(op))}
	}
	info := ops[op]
	start, n := time.Now(), 0
	defer func() { e.observe(info.name, n, start, &err) }()

	shape, err := Broadcast(info.name, a.shape, b.shape)
	if err != nil {
		return nil, err
	}
	n = shape.Size()

	ix := newIndexer(shape, a.shape, b.shape)
	values := make([]bigint.Int, n)
	err = e.run(ctx, n, func(r parallel.Range) func(int) error {
		al := e.shardAllocator(r, ix, a, b, info.words)
		return func(i int) error {
			ai, bi := ix.offsets(i)
			v, err := info.fn(al, a.values[ai], b.values[bi])
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

// shardAllocator sizes one word arena for every result of the shard, so the
// magnitudes of a shard share a single allocation. Kernels that do not build
// magnitudes on the limbs get the heap.
func (e *Engine) shardAllocator(r parallel.Range, ix indexer, a, b *BigArray, words sizeHint) bigint.Allocator {
	if words == nil {
		return nil
	}
	total := 0
	for i := r.Lo; i < r.Hi; i++ {
		ai, bi := ix.offsets(i)
		total += words(a.values[ai], b.values[bi])
	}
	return memory.NewWordArena(total)
}

// Neg returns the elementwise negation of a.
func (e *Engine) Neg(ctx context.Context, a *BigArray) (*BigArray, error) {
	return e.unary(ctx, "neg", a, bigint.Int.Neg)
}

// Abs returns the elementwise absolute value of a.
func (e *Engine) Abs(ctx context.Context, a *BigArray) (*BigArray, error) {
	return e.unary(ctx, "abs", a, bigint.Int.Abs)
}

func (e *Engine) unary(ctx context.Context, name string, a *BigArray, fn func(bigint.Int) bigint.Int) (out *BigArray, err error) {
	n := a.Len()
	defer e.observe(name, n, time.Now(), &err)
	values := make([]bigint.Int, n)
	err = e.run(ctx, n, func(parallel.Range) func(int) error {
		return func(i int) error {
			values[i] = fn(a.values[i])
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return newOwned(a.shape.Clone(), values), nil
}

// mapScalar applies fn to every element of a with a fixed right operand.
func (e *Engine) mapScalar(ctx context.Context, name string, a *BigArray, m bigint.Int, fn func(x, m bigint.Int) (bigint.Int, error)) (out *BigArray, err error) {
	n := a.Len()
	defer e.observe(name, n, time.Now(), &err)
	values := make([]bigint.Int, n)
	err = e.run(ctx, n, func(parallel.Range) func(int) error {
		return func(i int) error {
			v, err := fn(a.values[i], m)
			if err != nil {
				return annotate(err, i, a.shape)
			}
			values[i] = v
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return newOwned(a.shape.Clone(), values), nil
}

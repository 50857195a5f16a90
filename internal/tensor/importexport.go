package tensor

import (
	"context"
	"fmt"
	"time"

	"github.com/agbru/bigtensor/internal/bigint"
	"github.com/agbru/bigtensor/internal/codec"
	apperrors "github.com/agbru/bigtensor/internal/errors"
	"github.com/agbru/bigtensor/internal/parallel"
)

// sequential runs the package-level conversions on the calling goroutine.
var sequential = NewEngine(Options{Workers: 1})

// Import decodes values, given in row-major order, into a new array of the
// given shape using the default kind of T.
//
// Every element is decoded. The error for the lowest failing flat index is
// returned with that index and its coordinates attached. A value count that
// does not match the shape, or a negative dimension, yields an
// apperrors.ValidationError.
func Import[T codec.Raw](values []T, shape Shape) (*BigArray, error) {
	return importSlice(context.Background(), sequential, values, shape, codec.KindOf[T]())
}

// Export encodes every element of a as T using the default kind of T.
// Failures are reported like Import's.
func Export[T codec.Raw](a *BigArray) ([]T, error) {
	return exportSlice[T](context.Background(), sequential, a, codec.KindOf[T]())
}

// ImportAny is Import for a value slice of dynamic type ([]string, []int32,
// []int64 or []uint8) with an explicit kind.
func ImportAny(values any, shape Shape, kind codec.Kind) (*BigArray, error) {
	return sequential.Import(context.Background(), values, shape, kind)
}

// ExportAny is Export with an explicit kind. The result is a []string for
// the string and decimal kinds, and a slice of the fixed-width type otherwise.
func ExportAny(a *BigArray, kind codec.Kind) (any, error) {
	return sequential.Export(context.Background(), a, kind)
}

// Import decodes values into a new array, sharding the work above the
// parallel threshold. See the package-level Import for error semantics.
func (e *Engine) Import(ctx context.Context, values any, shape Shape, kind codec.Kind) (arr *BigArray, err error) {
	defer e.observe("import", shape.Size(), time.Now(), &err)
	switch v := values.(type) {
	case []string:
		if kind == codec.KindString || kind == codec.KindDecimal {
			return importSlice(ctx, e, v, shape, kind)
		}
	case []int32:
		if kind == codec.KindInt32 {
			return importSlice(ctx, e, v, shape, kind)
		}
	case []int64:
		if kind == codec.KindInt64 {
			return importSlice(ctx, e, v, shape, kind)
		}
	case []uint8:
		if kind == codec.KindUint8 {
			return importSlice(ctx, e, v, shape, kind)
		}
	default:
		return nil, apperrors.ValidationError{Field: "values", Message: fmt.Sprintf("unsupported value slice %T", values)}
	}
	return nil, apperrors.ValidationError{Field: "values", Message: fmt.Sprintf("%T cannot hold %s elements", values, kind)}
}

// Export encodes every element of a with the given kind, sharding the work
// above the parallel threshold.
func (e *Engine) Export(ctx context.Context, a *BigArray, kind codec.Kind) (out any, err error) {
	defer e.observe("export", a.Len(), time.Now(), &err)
	switch kind {
	case codec.KindString, codec.KindDecimal:
		return exportSlice[string](ctx, e, a, kind)
	case codec.KindInt32:
		return exportSlice[int32](ctx, e, a, kind)
	case codec.KindInt64:
		return exportSlice[int64](ctx, e, a, kind)
	case codec.KindUint8:
		return exportSlice[uint8](ctx, e, a, kind)
	}
	return nil, apperrors.ValidationError{Field: "dtype", Message: fmt.Sprintf("unsupported element kind %s", kind)}
}

func importSlice[T codec.Raw](ctx context.Context, e *Engine, values []T, shape Shape, kind codec.Kind) (*BigArray, error) {
	if err := checkLength(shape, len(values)); err != nil {
		return nil, err
	}
	out := make([]bigint.Int, len(values))
	err := e.run(ctx, len(values), func(parallel.Range) func(int) error {
		return func(i int) error {
			v, err := codec.DecodeElement(values[i], kind)
			if err != nil {
				return annotate(err, i, shape)
			}
			out[i] = v
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return newOwned(shape.Clone(), out), nil
}

func exportSlice[T codec.Raw](ctx context.Context, e *Engine, a *BigArray, kind codec.Kind) ([]T, error) {
	out := make([]T, len(a.values))
	err := e.run(ctx, len(out), func(parallel.Range) func(int) error {
		return func(i int) error {
			raw, err := codec.EncodeElement(a.values[i], kind)
			if err != nil {
				return annotate(err, i, a.shape)
			}
			out[i] = raw.(T)
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

package boundary

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"

	"github.com/agbru/bigtensor/internal/codec"
	apperrors "github.com/agbru/bigtensor/internal/errors"
	"github.com/agbru/bigtensor/internal/tensor"
)

// FromNested converts a JSON-decoded nested list into a RawArray of the given
// kind. The shape is taken from the nesting depth and list lengths; a bare
// leaf is a scalar. Leaves may be strings, json.Number or float64 values.
//
// Every list at the same depth must have the same length, otherwise an
// apperrors.ValidationError is returned. Leaves that are not integers yield an
// apperrors.FormatError and integers too wide for a fixed-width kind an
// apperrors.RangeError, both carrying the leaf's flat index.
func FromNested(v any, kind codec.Kind) (RawArray, error) {
	shape := nestedShape(v)
	leaves := make([]any, 0, shape.Size())
	if err := flatten(v, shape, 0, &leaves); err != nil {
		return RawArray{}, err
	}
	values, err := typedValues(leaves, shape, kind)
	if err != nil {
		return RawArray{}, err
	}
	return RawArray{Kind: kind, Shape: shape, Values: values}, nil
}

// nestedShape follows the first element of every level.
func nestedShape(v any) tensor.Shape {
	shape := tensor.Shape{}
	for {
		list, ok := v.([]any)
		if !ok {
			return shape
		}
		shape = append(shape, len(list))
		if len(list) == 0 {
			return shape
		}
		v = list[0]
	}
}

func flatten(v any, shape tensor.Shape, depth int, out *[]any) error {
	list, isList := v.([]any)
	if depth == len(shape) {
		if isList {
			return raggedError(depth)
		}
		*out = append(*out, v)
		return nil
	}
	if !isList || len(list) != shape[depth] {
		return raggedError(depth)
	}
	for _, item := range list {
		if err := flatten(item, shape, depth+1, out); err != nil {
			return err
		}
	}
	return nil
}

func raggedError(depth int) error {
	return apperrors.ValidationError{Field: "values", Message: fmt.Sprintf("ragged nesting at depth %d", depth)}
}

func leafString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		return x, true
	case json.Number:
		return x.String(), true
	case float64:
		if x != math.Trunc(x) || math.IsInf(x, 0) {
			return strconv.FormatFloat(x, 'g', -1, 64), true
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	}
	return fmt.Sprint(v), false
}

func typedValues(leaves []any, shape tensor.Shape, kind codec.Kind) (any, error) {
	switch kind {
	case codec.KindString, codec.KindDecimal:
		out := make([]string, len(leaves))
		for i, leaf := range leaves {
			s, ok := leafString(leaf)
			if !ok {
				return nil, apperrors.FormatError{Value: s, Index: i, Coords: shape.Coords(i)}
			}
			out[i] = s
		}
		return out, nil
	case codec.KindInt32:
		return parseFixed(leaves, shape, 32, math.MinInt32, math.MaxInt32, func(v int64) int32 { return int32(v) })
	case codec.KindInt64:
		return parseFixed(leaves, shape, 64, math.MinInt64, math.MaxInt64, func(v int64) int64 { return v })
	case codec.KindUint8:
		return parseFixed(leaves, shape, 8, 0, math.MaxUint8, func(v int64) uint8 { return uint8(v) })
	}
	return nil, apperrors.ValidationError{Field: "dtype", Message: fmt.Sprintf("unsupported element kind %s", kind)}
}

func parseFixed[T int32 | int64 | uint8](leaves []any, shape tensor.Shape, bits int, lo, hi int64, conv func(int64) T) ([]T, error) {
	out := make([]T, len(leaves))
	for i, leaf := range leaves {
		s, ok := leafString(leaf)
		if !ok {
			return nil, apperrors.FormatError{Value: s, Index: i, Coords: shape.Coords(i)}
		}
		v, err := strconv.ParseInt(s, 10, 64)
		if errors.Is(err, strconv.ErrRange) || (err == nil && (v < lo || v > hi)) {
			return nil, apperrors.RangeError{Value: s, Bits: bits, Signed: lo < 0, Index: i, Coords: shape.Coords(i)}
		}
		if err != nil {
			return nil, apperrors.FormatError{Value: s, Index: i, Coords: shape.Coords(i)}
		}
		out[i] = conv(v)
	}
	return out, nil
}

// ToNested converts raw into nested lists following its shape, ready for
// JSON encoding. A scalar becomes a bare value.
func ToNested(raw RawArray) (any, error) {
	var leaves []any
	switch v := raw.Values.(type) {
	case []string:
		leaves = boxAll(v)
	case []int32:
		leaves = boxAll(v)
	case []int64:
		leaves = boxAll(v)
	case []uint8:
		leaves = boxAll(v)
	default:
		return nil, apperrors.ValidationError{Field: "values", Message: fmt.Sprintf("unsupported value slice %T", raw.Values)}
	}
	if err := raw.Shape.Validate(); err != nil {
		return nil, err
	}
	if raw.Shape.Size() != len(leaves) {
		return nil, apperrors.ValidationError{
			Field:   "values",
			Message: fmt.Sprintf("got %d values for shape %v", len(leaves), raw.Shape),
		}
	}
	nested, _ := nest(leaves, raw.Shape)
	return nested, nil
}

func boxAll[T codec.Raw](values []T) []any {
	out := make([]any, len(values))
	for i, v := range values {
		out[i] = v
	}
	return out
}

// nest builds the list for shape from the front of leaves and returns the
// remaining leaves.
func nest(leaves []any, shape tensor.Shape) (any, []any) {
	if len(shape) == 0 {
		return leaves[0], leaves[1:]
	}
	list := make([]any, shape[0])
	for i := range list {
		list[i], leaves = nest(leaves, shape[1:])
	}
	return list, leaves
}

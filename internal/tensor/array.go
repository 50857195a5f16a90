package tensor

import (
	"fmt"
	"strings"

	"github.com/agbru/bigtensor/internal/bigint"
	apperrors "github.com/agbru/bigtensor/internal/errors"
)

// BigArray is an immutable N-dimensional array of big integers stored in
// row-major order. len(values) always equals shape.Size().
type BigArray struct {
	shape  Shape
	values []bigint.Int
}

// New builds an array from a shape and its row-major values. Both slices are
// copied.
func New(shape Shape, values []bigint.Int) (*BigArray, error) {
	if err := checkLength(shape, len(values)); err != nil {
		return nil, err
	}
	vals := make([]bigint.Int, len(values))
	copy(vals, values)
	return &BigArray{shape: shape.Clone(), values: vals}, nil
}

// Scalar returns a zero-dimensional array holding v.
func Scalar(v bigint.Int) *BigArray {
	return &BigArray{shape: Shape{}, values: []bigint.Int{v}}
}

// Full returns an array of the given shape with every element set to v.
func Full(shape Shape, v bigint.Int) (*BigArray, error) {
	if err := shape.Validate(); err != nil {
		return nil, err
	}
	vals := make([]bigint.Int, shape.Size())
	for i := range vals {
		vals[i] = v
	}
	return &BigArray{shape: shape.Clone(), values: vals}, nil
}

// newOwned wraps values without copying; callers hand over ownership.
func newOwned(shape Shape, values []bigint.Int) *BigArray {
	return &BigArray{shape: shape, values: values}
}

func checkLength(shape Shape, n int) error {
	if err := shape.Validate(); err != nil {
		return err
	}
	if size := shape.Size(); size != n {
		return apperrors.ValidationError{
			Field:   "values",
			Message: fmt.Sprintf("got %d values for shape %v of %d elements", n, shape, size),
		}
	}
	return nil
}

// Shape returns a copy of the array's shape.
func (a *BigArray) Shape() Shape { return a.shape.Clone() }

// Rank returns the number of dimensions.
func (a *BigArray) Rank() int { return len(a.shape) }

// Len returns the number of elements.
func (a *BigArray) Len() int { return len(a.values) }

// Values returns a copy of the row-major element slice.
func (a *BigArray) Values() []bigint.Int {
	out := make([]bigint.Int, len(a.values))
	copy(out, a.values)
	return out
}

// Flat returns the element at a row-major flat index.
func (a *BigArray) Flat(i int) bigint.Int { return a.values[i] }

// At returns the element at the given coordinates.
func (a *BigArray) At(coords ...int) (bigint.Int, error) {
	if len(coords) != len(a.shape) {
		return bigint.Int{}, apperrors.ValidationError{Field: "coords", Message: fmt.Sprintf("got %d coordinates for rank %d", len(coords), len(a.shape))}
	}
	flat := 0
	for i, c := range coords {
		if c < 0 || c >= a.shape[i] {
			return bigint.Int{}, apperrors.ValidationError{Field: "coords", Message: fmt.Sprintf("coordinate %d out of range for axis %d of size %d", c, i, a.shape[i])}
		}
		flat = flat*a.shape[i] + c
	}
	return a.values[flat], nil
}

// Reshape returns an array with the same values and a new shape of the same
// size. The values are shared, which is safe because arrays are immutable.
func (a *BigArray) Reshape(shape Shape) (*BigArray, error) {
	if err := checkLength(shape, len(a.values)); err != nil {
		return nil, err
	}
	return &BigArray{shape: shape.Clone(), values: a.values}, nil
}

// Equal reports whether a and b have the same shape and values.
func (a *BigArray) Equal(b *BigArray) bool {
	if !a.shape.Equal(b.shape) {
		return false
	}
	for i := range a.values {
		if !bigint.Equal(a.values[i], b.values[i]) {
			return false
		}
	}
	return true
}

// String renders the array as nested brackets, e.g. "[[1 2] [3 4]]".
func (a *BigArray) String() string {
	var sb strings.Builder
	a.format(&sb, 0, 0)
	return sb.String()
}

func (a *BigArray) format(sb *strings.Builder, axis, offset int) {
	if axis == len(a.shape) {
		sb.WriteString(a.values[offset].String())
		return
	}
	stride := 1
	for _, d := range a.shape[axis+1:] {
		stride *= d
	}
	sb.WriteByte('[')
	for i := 0; i < a.shape[axis]; i++ {
		if i > 0 {
			sb.WriteByte(' ')
		}
		a.format(sb, axis+1, offset+i*stride)
	}
	sb.WriteByte(']')
}

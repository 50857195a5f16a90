package tensor

import (
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/agbru/bigtensor/internal/errors"
)

// Shape is the ordered list of dimension sizes of an array. An empty shape
// describes a scalar.
type Shape []int

// Size returns the number of elements: the product of the dimensions, 1 for
// a scalar.
func (s Shape) Size() int {
	n := 1
	for _, d := range s {
		n *= d
	}
	return n
}

// Validate reports a negative dimension as an apperrors.ValidationError.
func (s Shape) Validate() error {
	for i, d := range s {
		if d < 0 {
			return apperrors.ValidationError{Field: "shape", Message: fmt.Sprintf("negative dimension %d at axis %d", d, i)}
		}
	}
	return nil
}

// Clone returns a copy of s.
func (s Shape) Clone() Shape {
	if s == nil {
		return Shape{}
	}
	out := make(Shape, len(s))
	copy(out, s)
	return out
}

// Equal reports whether s and o have the same dimensions.
func (s Shape) Equal(o Shape) bool {
	if len(s) != len(o) {
		return false
	}
	for i := range s {
		if s[i] != o[i] {
			return false
		}
	}
	return true
}

// Strides returns the row-major stride of every axis.
func (s Shape) Strides() []int {
	strides := make([]int, len(s))
	stride := 1
	for i := len(s) - 1; i >= 0; i-- {
		strides[i] = stride
		stride *= s[i]
	}
	return strides
}

// Coords returns the coordinates of the element at a flat row-major index.
func (s Shape) Coords(flat int) []int {
	coords := make([]int, len(s))
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == 0 {
			return coords
		}
		coords[i] = flat % s[i]
		flat /= s[i]
	}
	return coords
}

// String formats s as "[2 3]", or "[]" for a scalar.
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return "[" + strings.Join(parts, " ") + "]"
}

// Broadcast returns the shape that results from combining a and b
// elementwise.
//
// Shapes are aligned on their trailing axes and missing leading axes count
// as 1. Two aligned sizes are compatible when they are equal or either is 1,
// and the output takes the other size. The first incompatible output axis,
// scanning from the left, is reported in an apperrors.ShapeError.
func Broadcast(op string, a, b Shape) (Shape, error) {
	n := max(len(a), len(b))
	out := make(Shape, n)
	for k := 0; k < n; k++ {
		da, db := alignedDim(a, k, n), alignedDim(b, k, n)
		switch {
		case da == db, db == 1:
			out[k] = da
		case da == 1:
			out[k] = db
		default:
			return nil, apperrors.ShapeError{Op: op, A: []int(a.Clone()), B: []int(b.Clone()), Axis: k}
		}
	}
	return out, nil
}

// alignedDim returns the size of s on output axis k of an n-axis shape.
func alignedDim(s Shape, k, n int) int {
	if i := k - (n - len(s)); i >= 0 {
		return s[i]
	}
	return 1
}

// broadcastStrides returns, for every output axis, the stride of s on that
// axis, or 0 where s is broadcast.
func broadcastStrides(s, out Shape) []int {
	n := len(out)
	own := s.Strides()
	strides := make([]int, n)
	for k := 0; k < n; k++ {
		i := k - (n - len(s))
		if i >= 0 && s[i] != 1 {
			strides[k] = own[i]
		}
	}
	return strides
}

// indexer maps output flat indices to the flat indices of two broadcast
// operands.
type indexer struct {
	out      Shape
	aStrides []int
	bStrides []int
}

func newIndexer(out, a, b Shape) indexer {
	return indexer{out: out, aStrides: broadcastStrides(a, out), bStrides: broadcastStrides(b, out)}
}

func (ix indexer) offsets(flat int) (ai, bi int) {
	for k := len(ix.out) - 1; k >= 0; k-- {
		d := ix.out[k]
		c := flat % d
		flat /= d
		ai += c * ix.aStrides[k]
		bi += c * ix.bStrides[k]
	}
	return ai, bi
}

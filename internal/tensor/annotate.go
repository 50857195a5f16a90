package tensor

import apperrors "github.com/agbru/bigtensor/internal/errors"

// annotate attaches the flat index and coordinates of the failing element to
// element-level errors. Other errors are returned unchanged.
func annotate(err error, index int, shape Shape) error {
	switch e := err.(type) {
	case apperrors.FormatError:
		e.Index, e.Coords = index, shape.Coords(index)
		return e
	case apperrors.RangeError:
		e.Index, e.Coords = index, shape.Coords(index)
		return e
	case apperrors.ArithmeticError:
		e.Index = index
		return e
	}
	return err
}

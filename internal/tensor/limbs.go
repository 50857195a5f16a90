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

// ExportLimbs encodes every element of a as a fixed number of limbs of the
// given kind (codec.KindUint8 or codec.KindInt32) sized for values of up to
// maxBitLen bits. The result has the shape of a plus a trailing limb axis,
// and is a []uint8 or an []int32.
func (e *Engine) ExportLimbs(ctx context.Context, a *BigArray, maxBitLen int, kind codec.Kind) (values any, shape Shape, err error) {
	start := time.Now()
	defer func() { e.observe("export_limbs", a.Len(), start, &err) }()

	layout, err := codec.NewLimbLayout(maxBitLen, kind)
	if err != nil {
		return nil, nil, err
	}
	width := layout.ElementBytes()
	buf := make([]byte, a.Len()*width)
	err = e.run(ctx, a.Len(), func(parallel.Range) func(int) error {
		return func(i int) error {
			if err := layout.Encode(buf[i*width:(i+1)*width], a.values[i]); err != nil {
				return annotate(err, i, a.shape)
			}
			return nil
		}
	})
	if err != nil {
		return nil, nil, err
	}

	shape = append(a.shape.Clone(), layout.Count)
	if kind == codec.KindInt32 {
		return codec.PackInt32(buf), shape, nil
	}
	return buf, shape, nil
}

// ImportLimbs decodes limb-encoded values whose trailing axis holds the limbs
// of one element. values must be a []uint8 or an []int32 in row-major order.
// The result drops the limb axis.
func (e *Engine) ImportLimbs(ctx context.Context, values any, shape Shape) (arr *BigArray, err error) {
	start, n := time.Now(), 0
	defer func() { e.observe("import_limbs", n, start, &err) }()

	if len(shape) == 0 {
		return nil, apperrors.ValidationError{Field: "shape", Message: "limb arrays need a trailing limb axis"}
	}
	var (
		buf  []byte
		kind codec.Kind
	)
	switch v := values.(type) {
	case []uint8:
		if err := checkLength(shape, len(v)); err != nil {
			return nil, err
		}
		buf, kind = v, codec.KindUint8
	case []int32:
		if err := checkLength(shape, len(v)); err != nil {
			return nil, err
		}
		buf, kind = codec.UnpackInt32(v), codec.KindInt32
	default:
		return nil, apperrors.ValidationError{Field: "values", Message: fmt.Sprintf("limbs must be []uint8 or []int32, got %T", values)}
	}

	layout, err := codec.LayoutForCount(shape[len(shape)-1], kind)
	if err != nil {
		return nil, err
	}
	outShape := shape[:len(shape)-1].Clone()
	n = outShape.Size()
	width := layout.ElementBytes()
	out := make([]bigint.Int, n)
	err = e.run(ctx, n, func(parallel.Range) func(int) error {
		return func(i int) error {
			v, err := layout.Decode(buf[i*width : (i+1)*width])
			if err != nil {
				return annotate(err, i, outShape)
			}
			out[i] = v
			return nil
		}
	})
	if err != nil {
		return nil, err
	}
	return newOwned(outShape, out), nil
}

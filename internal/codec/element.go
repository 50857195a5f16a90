package codec

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/agbru/bigtensor/internal/bigint"
	apperrors "github.com/agbru/bigtensor/internal/errors"
)

// maxDecimalExponent bounds the exponent accepted by the decimal kind, so
// that an input like "1e999999999" cannot expand into a gigabyte of digits.
const maxDecimalExponent = 1 << 16

// DecodeElement converts one raw element of the given kind to a bigint.Int.
//
// Strings must be well-formed decimals (apperrors.FormatError otherwise).
// Fixed-width values always convert. A raw value whose Go type does not match
// the kind yields an apperrors.ValidationError.
func DecodeElement(raw any, kind Kind) (bigint.Int, error) {
	switch kind {
	case KindString:
		if s, ok := raw.(string); ok {
			return bigint.ParseDecimal(s)
		}
	case KindInt32:
		if v, ok := raw.(int32); ok {
			return bigint.FromFixedWidth(uint64(uint32(v)), bigint.Int32Width), nil
		}
	case KindInt64:
		if v, ok := raw.(int64); ok {
			return bigint.FromInt64(v), nil
		}
	case KindUint8:
		if v, ok := raw.(uint8); ok {
			return bigint.FromFixedWidth(uint64(v), bigint.Uint8Width), nil
		}
	case KindDecimal:
		if s, ok := raw.(string); ok {
			return decodeDecimal(s)
		}
	default:
		return bigint.Int{}, apperrors.ValidationError{Field: "dtype", Message: fmt.Sprintf("unsupported element kind %s", kind)}
	}
	return bigint.Int{}, apperrors.ValidationError{
		Field:   "value",
		Message: fmt.Sprintf("%T is not a valid %s element", raw, kind),
	}
}

func decodeDecimal(s string) (bigint.Int, error) {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return bigint.Int{}, apperrors.FormatError{Value: s, Index: -1}
	}
	if d.Exponent() > maxDecimalExponent || !d.Equal(d.Truncate(0)) {
		return bigint.Int{}, apperrors.FormatError{Value: s, Index: -1}
	}
	return bigint.ParseDecimal(d.Truncate(0).String())
}

// EncodeElement converts v to one raw element of the given kind.
// Strings and decimals always succeed; fixed-width kinds return an
// apperrors.RangeError when v does not fit.
func EncodeElement(v bigint.Int, kind Kind) (any, error) {
	switch kind {
	case KindString:
		return v.String(), nil
	case KindInt32:
		return boxed(v.Int32())
	case KindInt64:
		return boxed(v.Int64())
	case KindUint8:
		return boxed(v.Uint8())
	case KindDecimal:
		return decimal.NewFromBigInt(bigint.ToBig(v), 0).String(), nil
	}
	return nil, apperrors.ValidationError{Field: "dtype", Message: fmt.Sprintf("unsupported element kind %s", kind)}
}

func boxed[T Raw](v T, err error) (any, error) {
	if err != nil {
		return nil, err
	}
	return v, nil
}

// Decode converts a typed raw element using the default kind of its type.
func Decode[T Raw](raw T) (bigint.Int, error) {
	return DecodeElement(raw, KindOf[T]())
}

// Encode converts v to the raw type T using the default kind of that type.
func Encode[T Raw](v bigint.Int) (T, error) {
	var zero T
	out, err := EncodeElement(v, KindOf[T]())
	if err != nil {
		return zero, err
	}
	return out.(T), nil
}

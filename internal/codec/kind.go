package codec

import (
	"fmt"
	"strings"

	apperrors "github.com/agbru/bigtensor/internal/errors"
)

// Kind identifies the caller-side encoding of an array element.
type Kind int

const (
	// KindString is a decimal string with an optional leading '-'.
	KindString Kind = iota
	// KindInt32 is a 32-bit two's complement integer.
	KindInt32
	// KindInt64 is a 64-bit two's complement integer.
	KindInt64
	// KindUint8 is an 8-bit unsigned integer.
	KindUint8
	// KindDecimal is an integral decimal number, exponent notation allowed.
	// Its raw Go type is string.
	KindDecimal
)

var kindNames = [...]string{
	KindString:  "string",
	KindInt32:   "int32",
	KindInt64:   "int64",
	KindUint8:   "uint8",
	KindDecimal: "decimal",
}

// Kinds lists every supported kind in declaration order.
func Kinds() []Kind {
	return []Kind{KindString, KindInt32, KindInt64, KindUint8, KindDecimal}
}

// String returns the kind name used on the command line and in the HTTP API.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// ParseKind returns the kind with the given name. Names are case-insensitive;
// "str" and "int" are accepted as aliases for string and int32.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "string", "str":
		return KindString, nil
	case "int32", "int":
		return KindInt32, nil
	case "int64":
		return KindInt64, nil
	case "uint8", "byte":
		return KindUint8, nil
	case "decimal":
		return KindDecimal, nil
	}
	return 0, apperrors.ValidationError{Field: "dtype", Message: fmt.Sprintf("unknown element kind %q", name)}
}

// MarshalText implements encoding.TextMarshaler.
func (k Kind) MarshalText() ([]byte, error) {
	if k < 0 || int(k) >= len(kindNames) {
		return nil, fmt.Errorf("invalid kind %d", int(k))
	}
	return []byte(kindNames[k]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (k *Kind) UnmarshalText(text []byte) error {
	v, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = v
	return nil
}

// Raw is the set of Go types that carry array elements across the boundary.
type Raw interface {
	string | int32 | int64 | uint8
}

// KindOf returns the default kind for the raw type T.
func KindOf[T Raw]() Kind {
	var zero T
	switch any(zero).(type) {
	case int32:
		return KindInt32
	case int64:
		return KindInt64
	case uint8:
		return KindUint8
	default:
		return KindString
	}
}

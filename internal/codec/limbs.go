package codec

import (
	"encoding/binary"
	"fmt"
	"strconv"

	"github.com/agbru/bigtensor/internal/bigint"
	apperrors "github.com/agbru/bigtensor/internal/errors"
)

// limbHeaderBytes is the size of the big-endian magnitude length header that
// starts every limb-encoded element.
const limbHeaderBytes = 4

// LimbLayout describes the limb encoding of one element: a 4-byte big-endian
// byte count, the big-endian magnitude bytes, then zero padding up to Count
// limbs of Kind (KindUint8 or KindInt32).
//
// int32 limbs are the little-endian 32-bit words of that byte sequence, so a
// uint8 and an int32 layout of the same byte length hold the same bytes.
type LimbLayout struct {
	Kind  Kind
	Count int
}

// NewLimbLayout returns the smallest layout of the given limb kind that holds
// any non-negative value of up to maxBitLen bits plus the header.
func NewLimbLayout(maxBitLen int, kind Kind) (LimbLayout, error) {
	if maxBitLen < 0 {
		return LimbLayout{}, apperrors.ValidationError{Field: "max_bitlen", Message: fmt.Sprintf("must be non-negative, got %d", maxBitLen)}
	}
	limbBits, err := limbBitsOf(kind)
	if err != nil {
		return LimbLayout{}, err
	}
	headerBits := 8 * limbHeaderBytes
	return LimbLayout{Kind: kind, Count: (headerBits + maxBitLen + limbBits - 1) / limbBits}, nil
}

// LayoutForCount returns the layout with count limbs of the given kind, as
// found on the trailing axis of an encoded array.
func LayoutForCount(count int, kind Kind) (LimbLayout, error) {
	limbBits, err := limbBitsOf(kind)
	if err != nil {
		return LimbLayout{}, err
	}
	if count*limbBits < 8*limbHeaderBytes {
		return LimbLayout{}, apperrors.ValidationError{Field: "limbs", Message: fmt.Sprintf("%d %s limbs cannot hold the length header", count, kind)}
	}
	return LimbLayout{Kind: kind, Count: count}, nil
}

func limbBitsOf(kind Kind) (int, error) {
	switch kind {
	case KindUint8:
		return 8, nil
	case KindInt32:
		return 32, nil
	}
	return 0, apperrors.ValidationError{Field: "dtype", Message: fmt.Sprintf("limbs must be uint8 or int32, got %s", kind)}
}

// ElementBytes returns the encoded size of one element in bytes.
func (l LimbLayout) ElementBytes() int {
	if l.Kind == KindInt32 {
		return 4 * l.Count
	}
	return l.Count
}

// CapacityBits returns the largest magnitude bit length the layout holds.
func (l LimbLayout) CapacityBits() int {
	return 8 * (l.ElementBytes() - limbHeaderBytes)
}

// Encode writes v into dst, which must be ElementBytes long. Negative values
// and values wider than CapacityBits yield an apperrors.RangeError.
func (l LimbLayout) Encode(dst []byte, v bigint.Int) error {
	if len(dst) != l.ElementBytes() {
		return fmt.Errorf("limb buffer of %d bytes, want %d", len(dst), l.ElementBytes())
	}
	mag := v.Bytes()
	if v.Sign() < 0 || len(mag) > len(dst)-limbHeaderBytes {
		return apperrors.RangeError{Value: v.String(), Bits: l.CapacityBits(), Index: -1}
	}
	binary.BigEndian.PutUint32(dst, uint32(len(mag)))
	n := copy(dst[limbHeaderBytes:], mag)
	clear(dst[limbHeaderBytes+n:])
	return nil
}

// Decode reads one element from src, which must be ElementBytes long.
func (l LimbLayout) Decode(src []byte) (bigint.Int, error) {
	if len(src) != l.ElementBytes() {
		return bigint.Int{}, fmt.Errorf("limb buffer of %d bytes, want %d", len(src), l.ElementBytes())
	}
	n := int(binary.BigEndian.Uint32(src))
	if n > len(src)-limbHeaderBytes {
		return bigint.Int{}, apperrors.FormatError{
			Value:  strconv.Itoa(n),
			Reason: fmt.Sprintf("limb length header %d exceeds the %d payload bytes", n, len(src)-limbHeaderBytes),
			Index:  -1,
		}
	}
	return bigint.FromBytes(src[limbHeaderBytes : limbHeaderBytes+n]), nil
}

// PackInt32 reinterprets a byte sequence as little-endian int32 limbs.
// len(b) must be a multiple of 4.
func PackInt32(b []byte) []int32 {
	out := make([]int32, len(b)/4)
	for i := range out {
		out[i] = int32(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out
}

// UnpackInt32 is the inverse of PackInt32.
func UnpackInt32(limbs []int32) []byte {
	out := make([]byte, 4*len(limbs))
	for i, v := range limbs {
		binary.LittleEndian.PutUint32(out[4*i:], uint32(v))
	}
	return out
}

package bigint

import (
	"math/big"
	"strconv"

	"github.com/agbru/bigtensor/internal/arith"
	apperrors "github.com/agbru/bigtensor/internal/errors"
)

// decDigitsPerWord is the number of decimal digits converted per limb step:
// 19 on 64-bit platforms, 9 on 32-bit ones.
const decDigitsPerWord = 9 + 10*(_W/64)

// decWordBase is 10^decDigitsPerWord, the largest power of ten below 2^_W.
var decWordBase = func() big.Word {
	b := big.Word(1)
	for i := 0; i < decDigitsPerWord; i++ {
		b *= 10
	}
	return b
}()

// ParseDecimal parses an optional leading '-' followed by one or more ASCII
// digits. Leading zeros are accepted and "-0" parses to zero. Anything else,
// including an empty string, a bare sign, a '+' or surrounding whitespace,
// yields an apperrors.FormatError.
func ParseDecimal(s string) (Int, error) {
	digits := s
	neg := false
	if len(digits) > 0 && digits[0] == '-' {
		neg = true
		digits = digits[1:]
	}
	if len(digits) == 0 {
		return Int{}, apperrors.FormatError{Value: s, Index: -1}
	}
	for i := 0; i < len(digits); i++ {
		if digits[i] < '0' || digits[i] > '9' {
			return Int{}, apperrors.FormatError{Value: s, Index: -1}
		}
	}
	return makeInt(neg, parseMagnitude(digits)), nil
}

// MustParseDecimal is like ParseDecimal but panics on malformed input.
// It is intended for constants and tests.
func MustParseDecimal(s string) Int {
	x, err := ParseDecimal(s)
	if err != nil {
		panic(err)
	}
	return x
}

// parseMagnitude converts a validated digit string, most significant digit
// first, in chunks of decDigitsPerWord digits: z = z*10^k + chunk.
func parseMagnitude(digits string) []big.Word {
	i := 0
	for i < len(digits)-1 && digits[i] == '0' {
		i++
	}
	digits = digits[i:]
	if digits == "0" {
		return nil
	}

	// log2(10) < 3402/1024
	n := len(digits)*3402/(1024*_W) + 2
	buf := arith.AcquireWords(n)
	defer arith.ReleaseWords(buf)

	zl := 0
	end := len(digits) % decDigitsPerWord
	if end == 0 {
		end = decDigitsPerWord
	}
	for start := 0; start < len(digits); start, end = end, end+decDigitsPerWord {
		var chunk big.Word
		for _, d := range []byte(digits[start:end]) {
			chunk = chunk*10 + big.Word(d-'0')
		}
		if c := arith.MulAddVWW(buf[:zl], buf[:zl], decWordBase, chunk); c != 0 {
			buf[zl] = c
			zl++
		}
	}

	out := make([]big.Word, zl)
	copy(out, buf[:zl])
	return out
}

// String returns the canonical decimal form of x: no leading zeros, and a
// leading '-' only for negative non-zero values.
func (x Int) String() string {
	if len(x.mag) == 0 {
		return "0"
	}

	buf := arith.AcquireWords(len(x.mag))
	defer arith.ReleaseWords(buf)
	q := buf[:len(x.mag)]
	copy(q, x.mag)

	// Chunks of decDigitsPerWord digits, least significant first.
	chunks := make([]big.Word, 0, len(x.mag)*_W/(3*decDigitsPerWord)+2)
	for len(q) > 0 {
		chunks = append(chunks, arith.DivW(q, q, decWordBase))
		q = arith.Norm(q)
	}

	out := make([]byte, 0, len(chunks)*decDigitsPerWord+1)
	if x.neg {
		out = append(out, '-')
	}
	last := len(chunks) - 1
	out = strconv.AppendUint(out, uint64(chunks[last]), 10)
	var tmp [20]byte
	for i := last - 1; i >= 0; i-- {
		d := strconv.AppendUint(tmp[:0], uint64(chunks[i]), 10)
		for pad := decDigitsPerWord - len(d); pad > 0; pad-- {
			out = append(out, '0')
		}
		out = append(out, d...)
	}
	return string(out)
}

// MarshalText implements encoding.TextMarshaler using the decimal form.
func (x Int) MarshalText() ([]byte, error) {
	return []byte(x.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler using ParseDecimal.
func (x *Int) UnmarshalText(text []byte) error {
	v, err := ParseDecimal(string(text))
	if err != nil {
		return err
	}
	*x = v
	return nil
}

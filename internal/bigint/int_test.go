package bigint

import (
	"errors"
	"math"
	"math/big"
	"strings"
	"testing"

	"github.com/agbru/bigtensor/internal/arith"
	apperrors "github.com/agbru/bigtensor/internal/errors"
	"github.com/agbru/bigtensor/internal/memory"
)

func TestParseDecimal(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"0", "0", true},
		{"-0", "0", true},
		{"000123", "123", true},
		{"-000", "0", true},
		{"43424", "43424", true},
		{"-43424", "-43424", true},
		{"18446744073709551616", "18446744073709551616", true},
		{"-99999999999999999999999999999999", "-99999999999999999999999999999999", true},
		{"", "", false},
		{"-", "", false},
		{"+5", "", false},
		{" 5", "", false},
		{"5 ", "", false},
		{"12a34", "", false},
		{"--1", "", false},
		{"1-2", "", false},
		{"٣", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			got, err := ParseDecimal(tt.in)
			if !tt.ok {
				var fe apperrors.FormatError
				if !errors.As(err, &fe) {
					t.Fatalf("ParseDecimal(%q) error = %v, want FormatError", tt.in, err)
				}
				if fe.Value != tt.in {
					t.Errorf("FormatError.Value = %q, want %q", fe.Value, tt.in)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDecimal(%q) unexpected error: %v", tt.in, err)
			}
			if got.String() != tt.want {
				t.Errorf("ParseDecimal(%q) = %s, want %s", tt.in, got, tt.want)
			}
		})
	}
}

func TestStringChunkPadding(t *testing.T) {
	t.Parallel()
	// Values whose inner decimal chunks start with zeros.
	for _, s := range []string{
		"10000000000000000000",
		"100000000000000000000000000000000000001",
		"-1000000000000000000000000000000000000000000000000000000000007",
		"9" + strings.Repeat("0", 200) + "9",
	} {
		x := MustParseDecimal(s)
		if x.String() != s {
			t.Errorf("round trip of %s gave %s", s, x)
		}
		if ToBig(x).String() != s {
			t.Errorf("math/big sees %s, want %s", ToBig(x), s)
		}
	}
}

func TestZeroIsCanonical(t *testing.T) {
	t.Parallel()
	a := MustParseDecimal("-0")
	b := Sub(FromInt64(7), FromInt64(7))
	var zero Int
	for _, v := range []Int{a, b, zero, FromInt64(0), FromBytes(nil)} {
		if v.Sign() != 0 || !v.IsZero() || v.String() != "0" || len(v.Words()) != 0 {
			t.Errorf("non-canonical zero: sign=%d words=%v str=%s", v.Sign(), v.Words(), v)
		}
		if !Equal(v, zero) {
			t.Errorf("zero value %v not equal to Int{}", v)
		}
	}
	if zero.Neg().Sign() != 0 {
		t.Error("-0 must stay zero")
	}
}

func TestAddExample(t *testing.T) {
	t.Parallel()
	a := MustParseDecimal("5453452435245245245242534")
	b := MustParseDecimal("1424132412341234123412341234134")
	if got := Add(a, b).String(); got != "1424137865793669368657586476668" {
		t.Errorf("Add = %s", got)
	}
}

func TestAddSubSigns(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a, b     int64
		sum, dif int64
	}{
		{5, 6, 11, -1},
		{-5, 6, 1, -11},
		{5, -6, -1, 11},
		{-5, -6, -11, 1},
		{7, -7, 0, 14},
		{0, -3, -3, 3},
		{-3, 0, -3, -3},
	}
	for _, tt := range tests {
		a, b := FromInt64(tt.a), FromInt64(tt.b)
		if got := Add(a, b); !Equal(got, FromInt64(tt.sum)) {
			t.Errorf("%d + %d = %s, want %d", tt.a, tt.b, got, tt.sum)
		}
		if got := Sub(a, b); !Equal(got, FromInt64(tt.dif)) {
			t.Errorf("%d - %d = %s, want %d", tt.a, tt.b, got, tt.dif)
		}
	}
}

func TestAddCarryGrowsResult(t *testing.T) {
	t.Parallel()
	maxU := FromUint64(math.MaxUint64)
	got := Add(maxU, FromInt64(1))
	if got.String() != "18446744073709551616" {
		t.Errorf("MaxUint64 + 1 = %s", got)
	}
	if got.BitLen() != 65 {
		t.Errorf("BitLen = %d, want 65", got.BitLen())
	}
}

func TestAddDoesNotModifyOperands(t *testing.T) {
	t.Parallel()
	a := MustParseDecimal("123456789012345678901234567890")
	b := MustParseDecimal("-98765432109876543210")
	aw, bw := a.Words(), b.Words()
	_ = Add(a, b)
	_ = Mul(a, b)
	_, _ = Quo(a, b)
	if arith.Cmp(a.Words(), aw) != 0 || arith.Cmp(b.Words(), bw) != 0 {
		t.Error("operands changed")
	}
}

func TestCmp(t *testing.T) {
	t.Parallel()
	ordered := []string{
		"-100000000000000000000000", "-18446744073709551616", "-5", "-1",
		"0", "1", "5", "18446744073709551616", "100000000000000000000000",
	}
	for i, si := range ordered {
		for j, sj := range ordered {
			want := 0
			switch {
			case i < j:
				want = -1
			case i > j:
				want = 1
			}
			if got := Cmp(MustParseDecimal(si), MustParseDecimal(sj)); got != want {
				t.Errorf("Cmp(%s, %s) = %d, want %d", si, sj, got, want)
			}
		}
	}
	if !Equal(Min(FromInt64(-2), FromInt64(3)), FromInt64(-2)) || !Equal(Max(FromInt64(-2), FromInt64(3)), FromInt64(3)) {
		t.Error("Min/Max disagree with Cmp")
	}
}

func TestFixedWidth(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name string
		bits uint64
		w    Width
		want string
	}{
		{"int32 positive", 43424, Int32Width, "43424"},
		{"int32 minus one", 0xFFFFFFFF, Int32Width, "-1"},
		{"int32 min", 0x80000000, Int32Width, "-2147483648"},
		{"int32 ignores high bits", 0xABCD_0000_0005, Int32Width, "5"},
		{"uint8 max", 0xFF, Uint8Width, "255"},
		{"int64 min", 1 << 63, Int64Width, "-9223372036854775808"},
		{"uint64 max", math.MaxUint64, Uint64Width, "18446744073709551615"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			x := FromFixedWidth(tt.bits, tt.w)
			if x.String() != tt.want {
				t.Fatalf("FromFixedWidth(%#x, %s) = %s, want %s", tt.bits, tt.w, x, tt.want)
			}
			back, err := x.ToFixedWidth(tt.w)
			if err != nil {
				t.Fatalf("ToFixedWidth: %v", err)
			}
			mask := ^uint64(0) >> (64 - tt.w.Bits)
			if back != tt.bits&mask {
				t.Errorf("ToFixedWidth = %#x, want %#x", back, tt.bits&mask)
			}
		})
	}
}

func TestToFixedWidthRange(t *testing.T) {
	t.Parallel()
	tests := []struct {
		in string
		w  Width
		ok bool
	}{
		{"2147483647", Int32Width, true},
		{"2147483648", Int32Width, false},
		{"-2147483648", Int32Width, true},
		{"-2147483649", Int32Width, false},
		{"-2147483650", Int32Width, false},
		{"-3221225472", Int32Width, false},
		{"255", Uint8Width, true},
		{"256", Uint8Width, false},
		{"-1", Uint8Width, false},
		{"99999999999999999999999999999999", Int32Width, false},
		{"-9223372036854775808", Int64Width, true},
		{"9223372036854775808", Int64Width, false},
	}
	for _, tt := range tests {
		_, err := MustParseDecimal(tt.in).ToFixedWidth(tt.w)
		if tt.ok && err != nil {
			t.Errorf("ToFixedWidth(%s, %s) unexpected error %v", tt.in, tt.w, err)
		}
		if !tt.ok {
			var re apperrors.RangeError
			if !errors.As(err, &re) {
				t.Errorf("ToFixedWidth(%s, %s) error = %v, want RangeError", tt.in, tt.w, err)
				continue
			}
			if re.Value != tt.in || re.Bits != int(tt.w.Bits) || re.Signed != tt.w.Signed {
				t.Errorf("RangeError = %+v", re)
			}
		}
	}
}

func TestTypedAccessors(t *testing.T) {
	t.Parallel()
	v32, err := FromInt64(-43424).Int32()
	if err != nil || v32 != -43424 {
		t.Errorf("Int32() = %d, %v", v32, err)
	}
	v64, err := FromInt64(math.MinInt64).Int64()
	if err != nil || v64 != math.MinInt64 {
		t.Errorf("Int64() = %d, %v", v64, err)
	}
	v8, err := FromInt64(200).Uint8()
	if err != nil || v8 != 200 {
		t.Errorf("Uint8() = %d, %v", v8, err)
	}
	if Int32Width.Min().String() != "-2147483648" || Int32Width.Max().String() != "2147483647" {
		t.Errorf("int32 bounds = [%s, %s]", Int32Width.Min(), Int32Width.Max())
	}
	if Uint8Width.Min().String() != "0" || Uint8Width.Max().String() != "255" {
		t.Errorf("uint8 bounds = [%s, %s]", Uint8Width.Min(), Uint8Width.Max())
	}
}

func TestDivisionSemantics(t *testing.T) {
	t.Parallel()
	tests := []struct {
		a, b          int64
		quo, rem, mod int64
	}{
		{7, 2, 3, 1, 1},
		{-7, 2, -3, -1, 1},
		{7, -2, -3, 1, 1},
		{-7, -2, 3, -1, 1},
		{6, 3, 2, 0, 0},
	}
	for _, tt := range tests {
		a, b := FromInt64(tt.a), FromInt64(tt.b)
		q, err := Quo(a, b)
		if err != nil || !Equal(q, FromInt64(tt.quo)) {
			t.Errorf("Quo(%d, %d) = %s, %v; want %d", tt.a, tt.b, q, err, tt.quo)
		}
		r, err := Rem(a, b)
		if err != nil || !Equal(r, FromInt64(tt.rem)) {
			t.Errorf("Rem(%d, %d) = %s, %v; want %d", tt.a, tt.b, r, err, tt.rem)
		}
		m, err := Mod(a, b)
		if err != nil || !Equal(m, FromInt64(tt.mod)) {
			t.Errorf("Mod(%d, %d) = %s, %v; want %d", tt.a, tt.b, m, err, tt.mod)
		}
	}

	for _, fn := range []func(Int, Int) (Int, error){Quo, Rem, Mod, ModInverse} {
		_, err := fn(FromInt64(5), Int{})
		var ae apperrors.ArithmeticError
		if !errors.As(err, &ae) {
			t.Errorf("division by zero error = %v, want ArithmeticError", err)
		}
	}
}

func TestModInverse(t *testing.T) {
	t.Parallel()
	inv, err := ModInverse(FromInt64(3), FromInt64(11))
	if err != nil || !Equal(inv, FromInt64(4)) {
		t.Errorf("ModInverse(3, 11) = %s, %v; want 4", inv, err)
	}
	_, err = ModInverse(FromInt64(4), FromInt64(8))
	var ae apperrors.ArithmeticError
	if !errors.As(err, &ae) || ae.Op != "inv" {
		t.Errorf("ModInverse(4, 8) error = %v, want ArithmeticError", err)
	}
}

func TestExpMod(t *testing.T) {
	t.Parallel()
	m := MustParseDecimal("1000000007")
	tests := []struct {
		base, exp string
	}{
		{"2", "10"},
		{"12345678901234567890", "98765"},
		{"-3", "7"},
		{"5", "0"},
		{"0", "5"},
		{"3", "-1"},
	}
	for _, tt := range tests {
		base, exp := MustParseDecimal(tt.base), MustParseDecimal(tt.exp)
		want := new(big.Int).Exp(ToBig(base), ToBig(exp), ToBig(m))
		for _, secure := range []bool{false, true} {
			got, err := ExpMod(base, exp, m, secure)
			if err != nil {
				t.Fatalf("ExpMod(%s, %s, secure=%v): %v", tt.base, tt.exp, secure, err)
			}
			if ToBig(got).Cmp(want) != 0 {
				t.Errorf("ExpMod(%s, %s, secure=%v) = %s, want %s", tt.base, tt.exp, secure, got, want)
			}
		}
	}

	if got, _ := ExpMod(FromInt64(7), FromInt64(3), FromInt64(1), true); !got.IsZero() {
		t.Errorf("x^y mod 1 = %s, want 0", got)
	}
	var ae apperrors.ArithmeticError
	if _, err := ExpMod(FromInt64(2), FromInt64(3), FromInt64(-5), false); !errors.As(err, &ae) {
		t.Errorf("negative modulus error = %v, want ArithmeticError", err)
	}
	if _, err := ExpMod(FromInt64(2), FromInt64(-1), FromInt64(8), false); !errors.As(err, &ae) {
		t.Errorf("non-invertible base error = %v, want ArithmeticError", err)
	}
}

func TestBytesRoundTrip(t *testing.T) {
	t.Parallel()
	x := MustParseDecimal("-340282366920938463463374607431768211457")
	b := x.Bytes()
	if b[0] == 0 {
		t.Error("Bytes() has a leading zero byte")
	}
	if got := FromBytes(b); !Equal(got, x.Abs()) {
		t.Errorf("FromBytes(Bytes()) = %s, want %s", got, x.Abs())
	}
	if len(Int{}.Bytes()) != 0 {
		t.Error("Bytes() of zero should be empty")
	}
}

func TestBigInterop(t *testing.T) {
	t.Parallel()
	b, _ := new(big.Int).SetString("-123456789012345678901234567890", 10)
	x := FromBig(b)
	b.SetInt64(1) // FromBig must have copied
	if x.String() != "-123456789012345678901234567890" {
		t.Errorf("FromBig = %s", x)
	}
	y := ToBig(x)
	y.Add(y, big.NewInt(1)) // ToBig must not alias
	if x.String() != "-123456789012345678901234567890" {
		t.Errorf("ToBig aliased: x = %s", x)
	}
}

func TestWithArena(t *testing.T) {
	t.Parallel()
	arena := memory.NewWordArena(64)
	a := MustParseDecimal("340282366920938463463374607431768211455")
	b := MustParseDecimal("-1")
	sum := AddWith(arena, a, b)
	diff := SubWith(arena, a, b)
	prod := MulWith(arena, a, a)
	if arena.UsedWords() == 0 {
		t.Error("expected results to be carved from the arena")
	}
	if !Equal(sum, Add(a, b)) || !Equal(diff, Sub(a, b)) || !Equal(prod, Mul(a, a)) {
		t.Error("arena results differ from heap results")
	}
	if sum.String() != "340282366920938463463374607431768211454" {
		t.Errorf("sum = %s", sum)
	}
}

func TestRandom(t *testing.T) {
	t.Parallel()
	bound := MustParseDecimal("1000000000000000000000")
	for i := 0; i < 20; i++ {
		v, err := RandomBelow(nil, bound)
		if err != nil {
			t.Fatal(err)
		}
		if v.Sign() < 0 || Cmp(v, bound) >= 0 {
			t.Fatalf("RandomBelow = %s out of [0, %s)", v, bound)
		}
	}
	if _, err := RandomBelow(nil, Int{}); err == nil {
		t.Error("RandomBelow(0) should fail")
	}

	p, err := RandomPrime(nil, 64)
	if err != nil {
		t.Fatal(err)
	}
	if p.BitLen() != 64 || !ToBig(p).ProbablyPrime(20) {
		t.Errorf("RandomPrime(64) = %s", p)
	}
	if _, err := RandomPrime(nil, 1); err == nil {
		t.Error("RandomPrime(1) should fail")
	}
}

func TestTextMarshaling(t *testing.T) {
	t.Parallel()
	var x Int
	if err := x.UnmarshalText([]byte("-42")); err != nil {
		t.Fatal(err)
	}
	text, _ := x.MarshalText()
	if string(text) != "-42" {
		t.Errorf("MarshalText = %s", text)
	}
	if err := x.UnmarshalText([]byte("4 2")); err == nil {
		t.Error("UnmarshalText accepted malformed input")
	}
}

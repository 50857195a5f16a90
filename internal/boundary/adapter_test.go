package boundary

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/bigtensor/internal/codec"
	apperrors "github.com/agbru/bigtensor/internal/errors"
	"github.com/agbru/bigtensor/internal/tensor"
)

func newTestAdapter() *Adapter {
	return NewAdapter(tensor.NewEngine(tensor.DefaultOptions()))
}

func TestAdapterImportAddExport(t *testing.T) {
	t.Parallel()
	ad := newTestAdapter()
	ctx := context.Background()

	a, err := ad.Import(ctx, RawArray{Kind: codec.KindString, Shape: tensor.Shape{1, 1}, Values: []string{"5453452435245245245242534"}})
	require.NoError(t, err)
	b, err := ad.Import(ctx, RawArray{Kind: codec.KindString, Shape: tensor.Shape{1, 1}, Values: []string{"1424132412341234123412341234134"}})
	require.NoError(t, err)

	sum, err := ad.Add(ctx, a, b)
	require.NoError(t, err)
	out, err := ad.Export(ctx, sum, codec.KindString)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{1, 1}, out.Shape)
	assert.Equal(t, []string{"1424137865793669368657586476668"}, out.Values)
}

func TestAdapterErrorsPassThrough(t *testing.T) {
	t.Parallel()
	ad := newTestAdapter()
	ctx := context.Background()

	_, err := ad.Import(ctx, RawArray{Kind: codec.KindString, Shape: tensor.Shape{1}, Values: []string{"12a34"}})
	var fe apperrors.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, "12a34", fe.Value)

	big, err := ad.Import(ctx, RawArray{Kind: codec.KindString, Shape: tensor.Shape{}, Values: []string{"99999999999999999999999999999999"}})
	require.NoError(t, err)
	_, err = ad.Export(ctx, big, codec.KindInt32)
	var re apperrors.RangeError
	require.ErrorAs(t, err, &re)
	assert.True(t, re.Signed)
	assert.Equal(t, 32, re.Bits)

	x, err := ad.Import(ctx, RawArray{Kind: codec.KindInt32, Shape: tensor.Shape{2, 2}, Values: []int32{1, 2, 3, 4}})
	require.NoError(t, err)
	y, err := ad.Import(ctx, RawArray{Kind: codec.KindInt32, Shape: tensor.Shape{3, 3}, Values: make([]int32, 9)})
	require.NoError(t, err)
	_, err = ad.Add(ctx, x, y)
	var se apperrors.ShapeError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, 0, se.Axis)
}

func TestCompute(t *testing.T) {
	t.Parallel()
	ad := newTestAdapter()
	ctx := context.Background()
	vec := func(kind codec.Kind, values any, shape ...int) RawArray {
		return RawArray{Kind: kind, Shape: tensor.Shape(shape), Values: values}
	}

	tests := []struct {
		name string
		req  Request
		want RawArray
	}{
		{
			name: "broadcast add",
			req:  Request{Op: "add", A: vec(codec.KindInt32, []int32{1, 2}, 2), B: vec(codec.KindString, []string{"10"}), Output: codec.KindInt64},
			want: vec(codec.KindInt64, []int64{11, 12}, 2),
		},
		{
			name: "alias",
			req:  Request{Op: "*", A: vec(codec.KindString, []string{"-3"}, 1), B: vec(codec.KindString, []string{"7"}, 1), Output: codec.KindString},
			want: vec(codec.KindString, []string{"-21"}, 1),
		},
		{
			name: "neg",
			req:  Request{Op: "neg", A: vec(codec.KindInt64, []int64{5, -6}, 2), Output: codec.KindString},
			want: vec(codec.KindString, []string{"-5", "6"}, 2),
		},
		{
			name: "matmul",
			req: Request{Op: "matmul", A: vec(codec.KindInt32, []int32{1, 2, 3, 4}, 2, 2),
				B: vec(codec.KindInt32, []int32{5, 6, 7, 8}, 2, 2), Output: codec.KindInt32},
			want: vec(codec.KindInt32, []int32{19, 22, 43, 50}, 2, 2),
		},
		{
			name: "powmod",
			req: Request{Op: "powmod", A: vec(codec.KindString, []string{"4"}, 1),
				B: vec(codec.KindString, []string{"13"}, 1), Modulus: "497", Secure: true, Output: codec.KindString},
			want: vec(codec.KindString, []string{"445"}, 1),
		},
		{
			name: "inverse",
			req:  Request{Op: "inv", A: vec(codec.KindUint8, []uint8{3}, 1), Modulus: "11", Output: codec.KindUint8},
			want: vec(codec.KindUint8, []uint8{4}, 1),
		},
		{
			name: "decimal output",
			req:  Request{Op: "sub", A: vec(codec.KindDecimal, []string{"1e3"}), B: vec(codec.KindString, []string{"1"}), Output: codec.KindDecimal},
			want: vec(codec.KindDecimal, []string{"999"}),
		},
		{
			name: "export limbs",
			req:  Request{Op: "export_limbs", A: vec(codec.KindString, []string{"5", "256"}, 2), MaxBitLen: 16, Output: codec.KindUint8},
			want: vec(codec.KindUint8, []uint8{0, 0, 0, 1, 5, 0, 0, 0, 0, 2, 1, 0}, 2, 6),
		},
		{
			name: "import limbs",
			req:  Request{Op: "import_limbs", A: vec(codec.KindUint8, []uint8{0, 0, 0, 1, 5, 0, 0, 0, 0, 2, 1, 0}, 2, 6), Output: codec.KindString},
			want: vec(codec.KindString, []string{"5", "256"}, 2),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := ad.Compute(ctx, tt.req)
			require.NoError(t, err)
			if len(tt.want.Shape) == 0 {
				tt.want.Shape = tensor.Shape{}
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeErrors(t *testing.T) {
	t.Parallel()
	ad := newTestAdapter()
	ctx := context.Background()
	one := RawArray{Kind: codec.KindString, Shape: tensor.Shape{1}, Values: []string{"1"}}

	_, err := ad.Compute(ctx, Request{Op: "pow", A: one, B: one})
	assert.Equal(t, "validation", apperrors.Kind(err))

	_, err = ad.Compute(ctx, Request{Op: "powmod", A: one, B: one})
	var ve apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "modulus", ve.Field)

	bad := RawArray{Kind: codec.KindString, Shape: tensor.Shape{2}, Values: []string{"1", "x"}}
	_, err = ad.Compute(ctx, Request{Op: "add", A: one, B: bad})
	var fe apperrors.FormatError
	require.ErrorAs(t, err, &fe)
	assert.Equal(t, 1, fe.Index)
	assert.Contains(t, err.Error(), "operand b")

	zero := RawArray{Kind: codec.KindString, Shape: tensor.Shape{1}, Values: []string{"0"}}
	_, err = ad.Compute(ctx, Request{Op: "quo", A: one, B: zero})
	var ae apperrors.ArithmeticError
	require.ErrorAs(t, err, &ae)
}

func TestComputeRandomOps(t *testing.T) {
	t.Parallel()
	ad := newTestAdapter()
	ctx := context.Background()

	got, err := ad.Compute(ctx, Request{Op: "random_uniform", Shape: tensor.Shape{3, 2}, MaxVal: "5", Output: codec.KindInt64})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 2}, got.Shape)
	for _, v := range got.Values.([]int64) {
		assert.True(t, v >= 0 && v < 5, "value %d out of [0, 5)", v)
	}

	got, err = ad.Compute(ctx, Request{Op: "random_rsa_modulus", Bits: 32, Output: codec.KindInt64})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3}, got.Shape)
	pqn := got.Values.([]int64)
	assert.Equal(t, pqn[0]*pqn[1], pqn[2])
	assert.True(t, pqn[2] >= 1<<31 && pqn[2] < 1<<32, "n = %d is not a 32-bit value", pqn[2])

	_, err = ad.Compute(ctx, Request{Op: "random_uniform", Shape: tensor.Shape{1}})
	var ve apperrors.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "maxval", ve.Field)
}

func TestArity(t *testing.T) {
	t.Parallel()
	tests := map[string]int{
		"random_uniform":     0,
		"random_rsa_modulus": 0,
		"neg":                1,
		"mod_scalar":         1,
		"export_limbs":       1,
		"import_limbs":       1,
		"add":                2,
		"matmul":             2,
		"powmod":             2,
	}
	for op, want := range tests {
		assert.Equal(t, want, Arity(op), op)
	}
}

func TestDefaultOutput(t *testing.T) {
	t.Parallel()
	assert.Equal(t, codec.KindUint8, DefaultOutput("export_limbs", codec.KindString))
	assert.Equal(t, codec.KindString, DefaultOutput("import_limbs", codec.KindUint8))
	assert.Equal(t, codec.KindString, DefaultOutput("random_uniform", codec.KindInt32))
	assert.Equal(t, codec.KindInt32, DefaultOutput("add", codec.KindInt32))
}

func TestOutputShape(t *testing.T) {
	t.Parallel()
	arr := func(shape ...int) RawArray { return RawArray{Shape: tensor.Shape(shape)} }

	tests := []struct {
		name string
		req  Request
		want tensor.Shape
		kind string
	}{
		{name: "broadcast", req: Request{Op: "add", A: arr(1000, 1), B: arr(1000)}, want: tensor.Shape{1000, 1000}},
		{name: "unary", req: Request{Op: "neg", A: arr(2, 3)}, want: tensor.Shape{2, 3}},
		{name: "matmul", req: Request{Op: "matmul", A: arr(4, 1), B: arr(1, 5)}, want: tensor.Shape{4, 5}},
		{name: "random", req: Request{Op: "random_uniform", Shape: tensor.Shape{7}}, want: tensor.Shape{7}},
		{name: "rsa", req: Request{Op: "random_rsa_modulus"}, want: tensor.Shape{3}},
		{name: "export limbs", req: Request{Op: "export_limbs", A: arr(2), MaxBitLen: 16, Output: codec.KindUint8}, want: tensor.Shape{2, 6}},
		{name: "import limbs", req: Request{Op: "import_limbs", A: arr(2, 6)}, want: tensor.Shape{2}},
		{name: "incompatible", req: Request{Op: "add", A: arr(2), B: arr(3)}, kind: "shape"},
		{name: "matmul inner mismatch", req: Request{Op: "matmul", A: arr(2, 3), B: arr(2, 3)}, kind: "shape"},
		{name: "matmul rank", req: Request{Op: "matmul", A: arr(2), B: arr(2, 3)}, kind: "validation"},
		{name: "negative random shape", req: Request{Op: "random_uniform", Shape: tensor.Shape{-1}}, kind: "validation"},
		{name: "scalar limbs", req: Request{Op: "import_limbs", A: arr()}, kind: "validation"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := OutputShape(tt.req)
			if tt.kind != "" {
				assert.Equal(t, tt.kind, apperrors.Kind(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLimbsThroughAdapter(t *testing.T) {
	t.Parallel()
	ad := newTestAdapter()
	ctx := context.Background()
	h, err := ad.Import(ctx, RawArray{Kind: codec.KindString, Shape: tensor.Shape{3}, Values: []string{"0", "255", "65536"}})
	require.NoError(t, err)

	raw, err := ad.ExportLimbs(ctx, h, 24, codec.KindUint8)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{3, 7}, raw.Shape)

	back, err := ad.ImportLimbs(ctx, raw)
	require.NoError(t, err)
	assert.True(t, back.Equal(h))
}

func TestFromNested(t *testing.T) {
	t.Parallel()
	decode := func(s string) any {
		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		var v any
		require.NoError(t, dec.Decode(&v))
		return v
	}

	raw, err := FromNested(decode(`[["1","2","3"],["4","5","6"]]`), codec.KindString)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 3}, raw.Shape)
	assert.Equal(t, []string{"1", "2", "3", "4", "5", "6"}, raw.Values)

	raw, err = FromNested(decode(`[[1, -2], [3, 2147483647]]`), codec.KindInt32)
	require.NoError(t, err)
	assert.Equal(t, []int32{1, -2, 3, 2147483647}, raw.Values)

	raw, err = FromNested(decode(`"42"`), codec.KindString)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{}, raw.Shape)

	raw, err = FromNested(decode(`[]`), codec.KindInt64)
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{0}, raw.Shape)
	assert.Equal(t, []int64{}, raw.Values)

	_, err = FromNested(decode(`[["1","2"],["3"]]`), codec.KindString)
	var ve apperrors.ValidationError
	require.ErrorAs(t, err, &ve)

	_, err = FromNested(decode(`[1, [2]]`), codec.KindInt32)
	require.ErrorAs(t, err, &ve)

	_, err = FromNested(decode(`[1, 2147483648]`), codec.KindInt32)
	var re apperrors.RangeError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 1, re.Index)

	_, err = FromNested(decode(`[[0, -1]]`), codec.KindUint8)
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []int{0, 1}, re.Coords)

	_, err = FromNested(decode(`[true]`), codec.KindString)
	var fe apperrors.FormatError
	require.ErrorAs(t, err, &fe)
}

func TestToNested(t *testing.T) {
	t.Parallel()
	nested, err := ToNested(RawArray{Kind: codec.KindInt32, Shape: tensor.Shape{2, 2}, Values: []int32{1, 2, 3, 4}})
	require.NoError(t, err)
	out, err := json.Marshal(nested)
	require.NoError(t, err)
	assert.JSONEq(t, `[[1,2],[3,4]]`, string(out))

	nested, err = ToNested(RawArray{Kind: codec.KindString, Shape: tensor.Shape{}, Values: []string{"7"}})
	require.NoError(t, err)
	assert.Equal(t, "7", nested)

	nested, err = ToNested(RawArray{Kind: codec.KindString, Shape: tensor.Shape{2, 0}, Values: []string{}})
	require.NoError(t, err)
	out, err = json.Marshal(nested)
	require.NoError(t, err)
	assert.JSONEq(t, `[[],[]]`, string(out))

	_, err = ToNested(RawArray{Kind: codec.KindString, Shape: tensor.Shape{3}, Values: []string{"1"}})
	assert.Error(t, err)
}

func TestArrowArrays(t *testing.T) {
	t.Parallel()
	ad := newTestAdapter()
	ctx := context.Background()
	mem := memory.NewGoAllocator()

	b := array.NewInt64Builder(mem)
	b.AppendValues([]int64{1, -2, 3, -4}, nil)
	in := b.NewArray()
	b.Release()
	defer in.Release()

	h, err := ad.ImportArrow(ctx, in, tensor.Shape{2, 2})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{2, 2}, h.Shape())

	out, err := ad.ExportArrow(ctx, mem, h, codec.KindString)
	require.NoError(t, err)
	defer out.Release()
	strs, ok := out.(*array.String)
	require.True(t, ok)
	assert.Equal(t, "-4", strs.Value(3))

	nb := array.NewStringBuilder(mem)
	nb.AppendValues([]string{"1", ""}, []bool{true, false})
	withNull := nb.NewArray()
	nb.Release()
	defer withNull.Release()
	_, err = ad.ImportArrow(ctx, withNull, nil)
	assert.Equal(t, "validation", apperrors.Kind(err))
}

func TestRecordIPCRoundTrip(t *testing.T) {
	t.Parallel()
	mem := memory.NewGoAllocator()
	a := RawArray{Kind: codec.KindString, Shape: tensor.Shape{2, 3}, Values: []string{"1", "2", "3", "4", "5", "6"}}
	b := RawArray{Kind: codec.KindInt32, Shape: tensor.Shape{}, Values: []int32{-9}}
	d := RawArray{Kind: codec.KindDecimal, Shape: tensor.Shape{1}, Values: []string{"1e2"}}

	rec, err := NewRecord(mem, Column{Name: "a", Raw: a}, Column{Name: "b", Raw: b}, Column{Name: "d", Raw: d})
	require.NoError(t, err)
	defer rec.Release()

	var buf bytes.Buffer
	require.NoError(t, WriteIPC(&buf, rec))

	got, err := ReadIPC(&buf, mem)
	require.NoError(t, err)
	defer got.Release()

	cols, err := RecordArrays(got)
	require.NoError(t, err)
	require.Len(t, cols, 3)
	gotA, ok := Lookup(cols, "a")
	require.True(t, ok)
	assert.Equal(t, a, gotA)
	gotB, _ := Lookup(cols, "b")
	assert.Equal(t, b, gotB)
	gotD, _ := Lookup(cols, "d")
	assert.Equal(t, d, gotD)
	_, ok = Lookup(cols, "missing")
	assert.False(t, ok)
}

func TestReadIPCRejectsGarbage(t *testing.T) {
	t.Parallel()
	_, err := ReadIPC(strings.NewReader("not arrow"), memory.NewGoAllocator())
	var ve apperrors.ValidationError
	assert.True(t, errors.As(err, &ve))
}

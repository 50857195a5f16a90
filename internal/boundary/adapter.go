package boundary

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/agbru/bigtensor/internal/bigint"
	"github.com/agbru/bigtensor/internal/codec"
	apperrors "github.com/agbru/bigtensor/internal/errors"
	"github.com/agbru/bigtensor/internal/tensor"
)

const tracerName = "github.com/agbru/bigtensor/internal/boundary"

// RawArray is an array in caller form: a flat row-major value slice
// ([]string, []int32, []int64 or []uint8) with its shape and element kind.
type RawArray struct {
	Kind   codec.Kind
	Shape  tensor.Shape
	Values any
}

// Len returns the number of values held by r, or -1 for an unsupported
// value slice.
func (r RawArray) Len() int {
	switch v := r.Values.(type) {
	case []string:
		return len(v)
	case []int32:
		return len(v)
	case []int64:
		return len(v)
	case []uint8:
		return len(v)
	}
	return -1
}

// Adapter exposes the engine operations on caller arrays.
type Adapter struct {
	engine *tensor.Engine
	tracer trace.Tracer
}

// NewAdapter returns an adapter running operations on engine. Spans go to the
// global OpenTelemetry tracer provider.
func NewAdapter(engine *tensor.Engine) *Adapter {
	return &Adapter{engine: engine, tracer: otel.Tracer(tracerName)}
}

// Engine returns the underlying engine.
func (ad *Adapter) Engine() *tensor.Engine { return ad.engine }

func (ad *Adapter) start(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return ad.tracer.Start(ctx, "boundary."+name, trace.WithAttributes(attrs...))
}

// finish records err on span and ends it.
func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		span.SetAttributes(attribute.String("bigtensor.error_kind", apperrors.Kind(err)))
	}
	span.End()
}

func shapeAttr(key string, s tensor.Shape) attribute.KeyValue {
	return attribute.IntSlice(key, []int(s))
}

// Import decodes raw into an engine handle.
func (ad *Adapter) Import(ctx context.Context, raw RawArray) (h *tensor.BigArray, err error) {
	ctx, span := ad.start(ctx, "import", attribute.String("bigtensor.kind", raw.Kind.String()), shapeAttr("bigtensor.shape", raw.Shape))
	defer func() { finish(span, err) }()
	return ad.engine.Import(ctx, raw.Values, raw.Shape, raw.Kind)
}

// Export encodes h with the given kind.
func (ad *Adapter) Export(ctx context.Context, h *tensor.BigArray, kind codec.Kind) (raw RawArray, err error) {
	ctx, span := ad.start(ctx, "export", attribute.String("bigtensor.kind", kind.String()), shapeAttr("bigtensor.shape", h.Shape()))
	defer func() { finish(span, err) }()
	values, err := ad.engine.Export(ctx, h, kind)
	if err != nil {
		return RawArray{}, err
	}
	return RawArray{Kind: kind, Shape: h.Shape(), Values: values}, nil
}

// Add returns the broadcast elementwise sum of a and b.
func (ad *Adapter) Add(ctx context.Context, a, b *tensor.BigArray) (*tensor.BigArray, error) {
	return ad.Apply(ctx, tensor.OpAdd, a, b)
}

// Apply runs a binary elementwise operation.
func (ad *Adapter) Apply(ctx context.Context, op tensor.Op, a, b *tensor.BigArray) (h *tensor.BigArray, err error) {
	ctx, span := ad.start(ctx, op.String(), shapeAttr("bigtensor.shape.a", a.Shape()), shapeAttr("bigtensor.shape.b", b.Shape()))
	defer func() { finish(span, err) }()
	return ad.engine.Binary(ctx, op, a, b)
}

// Neg returns the elementwise negation of a.
func (ad *Adapter) Neg(ctx context.Context, a *tensor.BigArray) (h *tensor.BigArray, err error) {
	ctx, span := ad.start(ctx, "neg", shapeAttr("bigtensor.shape", a.Shape()))
	defer func() { finish(span, err) }()
	return ad.engine.Neg(ctx, a)
}

// Abs returns the elementwise absolute value of a.
func (ad *Adapter) Abs(ctx context.Context, a *tensor.BigArray) (h *tensor.BigArray, err error) {
	ctx, span := ad.start(ctx, "abs", shapeAttr("bigtensor.shape", a.Shape()))
	defer func() { finish(span, err) }()
	return ad.engine.Abs(ctx, a)
}

// MatMul returns the matrix product of two 2-D arrays.
func (ad *Adapter) MatMul(ctx context.Context, a, b *tensor.BigArray) (h *tensor.BigArray, err error) {
	ctx, span := ad.start(ctx, "matmul", shapeAttr("bigtensor.shape.a", a.Shape()), shapeAttr("bigtensor.shape.b", b.Shape()))
	defer func() { finish(span, err) }()
	return ad.engine.MatMul(ctx, a, b)
}

// PowMod returns base^exp mod m elementwise.
func (ad *Adapter) PowMod(ctx context.Context, base, exp *tensor.BigArray, m bigint.Int, secure bool) (h *tensor.BigArray, err error) {
	ctx, span := ad.start(ctx, "powmod", shapeAttr("bigtensor.shape.a", base.Shape()), shapeAttr("bigtensor.shape.b", exp.Shape()), attribute.Bool("bigtensor.secure", secure))
	defer func() { finish(span, err) }()
	return ad.engine.PowMod(ctx, base, exp, m, secure)
}

// ModScalar reduces every element of a modulo m.
func (ad *Adapter) ModScalar(ctx context.Context, a *tensor.BigArray, m bigint.Int) (h *tensor.BigArray, err error) {
	ctx, span := ad.start(ctx, "mod_scalar", shapeAttr("bigtensor.shape", a.Shape()))
	defer func() { finish(span, err) }()
	return ad.engine.ModScalar(ctx, a, m)
}

// Inv returns the modular inverse of every element of a modulo m.
func (ad *Adapter) Inv(ctx context.Context, a *tensor.BigArray, m bigint.Int) (h *tensor.BigArray, err error) {
	ctx, span := ad.start(ctx, "inv", shapeAttr("bigtensor.shape", a.Shape()))
	defer func() { finish(span, err) }()
	return ad.engine.Inv(ctx, a, m)
}

// RandomUniform returns uniform random values in [0, maxval).
func (ad *Adapter) RandomUniform(ctx context.Context, shape tensor.Shape, maxval bigint.Int) (h *tensor.BigArray, err error) {
	ctx, span := ad.start(ctx, "random_uniform", shapeAttr("bigtensor.shape", shape))
	defer func() { finish(span, err) }()
	return ad.engine.RandomUniform(ctx, shape, maxval)
}

// RandomRSAModulus returns primes p and q and their bits-bit product n.
func (ad *Adapter) RandomRSAModulus(ctx context.Context, bits int) (p, q, n *tensor.BigArray, err error) {
	ctx, span := ad.start(ctx, "random_rsa_modulus", attribute.Int("bigtensor.bits", bits))
	defer func() { finish(span, err) }()
	return ad.engine.RandomRSAModulus(ctx, bits)
}

// ImportLimbs decodes a limb-encoded raw array whose last axis holds the
// limbs of each element.
func (ad *Adapter) ImportLimbs(ctx context.Context, raw RawArray) (h *tensor.BigArray, err error) {
	ctx, span := ad.start(ctx, "import_limbs", attribute.String("bigtensor.kind", raw.Kind.String()), shapeAttr("bigtensor.shape", raw.Shape))
	defer func() { finish(span, err) }()
	return ad.engine.ImportLimbs(ctx, raw.Values, raw.Shape)
}

// ExportLimbs encodes h as limbs of the given kind sized for maxBitLen bits.
func (ad *Adapter) ExportLimbs(ctx context.Context, h *tensor.BigArray, maxBitLen int, kind codec.Kind) (raw RawArray, err error) {
	ctx, span := ad.start(ctx, "export_limbs", attribute.String("bigtensor.kind", kind.String()), attribute.Int("bigtensor.max_bitlen", maxBitLen))
	defer func() { finish(span, err) }()
	values, shape, err := ad.engine.ExportLimbs(ctx, h, maxBitLen, kind)
	if err != nil {
		return RawArray{}, err
	}
	return RawArray{Kind: kind, Shape: shape, Values: values}, nil
}

// Request describes a complete computation on caller arrays, as received by
// the HTTP API and the command line.
type Request struct {
	// Op is an operation name accepted by tensor.ParseOp, or one of "neg",
	// "abs", "matmul", "powmod", "inv", "mod_scalar", "random_uniform",
	// "random_rsa_modulus", "import_limbs", "export_limbs".
	Op string
	A  RawArray
	// B is the second operand of binary operations and the exponent of
	// powmod.
	B RawArray
	// Modulus is the decimal modulus of powmod, inv and mod_scalar.
	Modulus string
	// Secure selects the fixed-sequence ladder for powmod.
	Secure bool
	// Output is the kind of the result. export_limbs needs uint8 or int32.
	Output codec.Kind

	// Shape and MaxVal drive random_uniform: values in [0, MaxVal).
	Shape  tensor.Shape
	MaxVal string
	// Bits is the modulus size of random_rsa_modulus.
	Bits int
	// MaxBitLen sizes the limbs of export_limbs.
	MaxBitLen int
}

// opArity lists the operations that do not take two operands.
var opArity = map[string]int{
	"random_uniform":     0,
	"random_rsa_modulus": 0,
	"neg":                1,
	"abs":                1,
	"inv":                1,
	"mod_scalar":         1,
	"import_limbs":       1,
	"export_limbs":       1,
}

// Arity returns the number of operands op takes: 0, 1 or 2.
func Arity(op string) int {
	if n, ok := opArity[op]; ok {
		return n
	}
	return 2
}

// DefaultOutput returns the result kind of op when the caller names none:
// uint8 limbs for export_limbs, decimal strings for operations whose values
// are unrelated to the input kind, and in otherwise.
func DefaultOutput(op string, in codec.Kind) codec.Kind {
	switch op {
	case "export_limbs":
		return codec.KindUint8
	case "import_limbs", "random_uniform", "random_rsa_modulus":
		return codec.KindString
	}
	return in
}

// OutputShape returns the shape of the result of req without running it, so
// callers can bound the work of a request up front. Operand errors that only
// the engine detects, such as bad element values, are not reported.
func OutputShape(req Request) (tensor.Shape, error) {
	switch req.Op {
	case "random_uniform":
		if err := req.Shape.Validate(); err != nil {
			return nil, err
		}
		return req.Shape.Clone(), nil
	case "random_rsa_modulus":
		return tensor.Shape{3}, nil
	case "neg", "abs", "inv", "mod_scalar":
		return req.A.Shape.Clone(), nil
	case "import_limbs":
		if len(req.A.Shape) == 0 {
			return nil, apperrors.ValidationError{Field: "shape", Message: "limb arrays need a trailing limb axis"}
		}
		return req.A.Shape[:len(req.A.Shape)-1].Clone(), nil
	case "export_limbs":
		layout, err := codec.NewLimbLayout(req.MaxBitLen, req.Output)
		if err != nil {
			return nil, err
		}
		return append(req.A.Shape.Clone(), layout.Count), nil
	case "matmul":
		a, b := req.A.Shape, req.B.Shape
		if len(a) != 2 || len(b) != 2 {
			return nil, apperrors.ValidationError{
				Field:   "shape",
				Message: fmt.Sprintf("matmul requires 2-D arrays, got ranks %d and %d", len(a), len(b)),
			}
		}
		if a[1] != b[0] {
			return nil, apperrors.ShapeError{Op: "matmul", A: []int(a.Clone()), B: []int(b.Clone()), Axis: 1}
		}
		return tensor.Shape{a[0], b[1]}, nil
	}
	return tensor.Broadcast(req.Op, req.A.Shape, req.B.Shape)
}

// Compute imports the operands of req, runs the operation and exports the
// result.
func (ad *Adapter) Compute(ctx context.Context, req Request) (RawArray, error) {
	switch req.Op {
	case "random_uniform":
		maxval, err := parseBound("maxval", req.MaxVal)
		if err != nil {
			return RawArray{}, err
		}
		out, err := ad.RandomUniform(ctx, req.Shape, maxval)
		if err != nil {
			return RawArray{}, err
		}
		return ad.Export(ctx, out, req.Output)
	case "random_rsa_modulus":
		p, q, n, err := ad.RandomRSAModulus(ctx, req.Bits)
		if err != nil {
			return RawArray{}, err
		}
		// p, q and n in that order.
		out, err := tensor.New(tensor.Shape{3}, []bigint.Int{p.Flat(0), q.Flat(0), n.Flat(0)})
		if err != nil {
			return RawArray{}, err
		}
		return ad.Export(ctx, out, req.Output)
	case "import_limbs":
		out, err := ad.ImportLimbs(ctx, req.A)
		if err != nil {
			return RawArray{}, apperrors.WrapError(err, "operand a")
		}
		return ad.Export(ctx, out, req.Output)
	}

	a, err := ad.Import(ctx, req.A)
	if err != nil {
		return RawArray{}, apperrors.WrapError(err, "operand a")
	}
	var b *tensor.BigArray
	if Arity(req.Op) == 2 {
		if b, err = ad.Import(ctx, req.B); err != nil {
			return RawArray{}, apperrors.WrapError(err, "operand b")
		}
	}

	var out *tensor.BigArray
	switch req.Op {
	case "export_limbs":
		return ad.ExportLimbs(ctx, a, req.MaxBitLen, req.Output)
	case "neg":
		out, err = ad.Neg(ctx, a)
	case "abs":
		out, err = ad.Abs(ctx, a)
	case "matmul":
		out, err = ad.MatMul(ctx, a, b)
	case "powmod", "inv", "mod_scalar":
		m, perr := parseBound("modulus", req.Modulus)
		if perr != nil {
			return RawArray{}, perr
		}
		switch req.Op {
		case "powmod":
			out, err = ad.PowMod(ctx, a, b, m, req.Secure)
		case "inv":
			out, err = ad.Inv(ctx, a, m)
		default:
			out, err = ad.ModScalar(ctx, a, m)
		}
	default:
		op, perr := tensor.ParseOp(req.Op)
		if perr != nil {
			return RawArray{}, perr
		}
		out, err = ad.Apply(ctx, op, a, b)
	}
	if err != nil {
		return RawArray{}, err
	}
	return ad.Export(ctx, out, req.Output)
}

// Convert imports raw and exports it again as kind.
func (ad *Adapter) Convert(ctx context.Context, raw RawArray, kind codec.Kind) (RawArray, error) {
	h, err := ad.Import(ctx, raw)
	if err != nil {
		return RawArray{}, err
	}
	return ad.Export(ctx, h, kind)
}

// parseBound parses the decimal modulus or bound named field.
func parseBound(field, s string) (bigint.Int, error) {
	if s == "" {
		return bigint.Int{}, apperrors.ValidationError{Field: field, Message: "a " + field + " is required"}
	}
	m, err := bigint.ParseDecimal(s)
	if err != nil {
		return bigint.Int{}, apperrors.ValidationError{Field: field, Message: fmt.Sprintf("invalid %s: %v", field, err)}
	}
	return m, nil
}

package tensor

import (
	"fmt"
	"strings"

	"github.com/agbru/bigtensor/internal/bigint"
	apperrors "github.com/agbru/bigtensor/internal/errors"
)

// Op identifies an elementwise binary operation.
type Op int

const (
	OpAdd Op = iota
	OpSub
	OpMul
	OpQuo // truncated toward zero
	OpRem // sign of the dividend
	OpMod // Euclidean, never negative
	OpMin
	OpMax
	OpEqual
	OpNotEqual
	OpLess
	OpLessEqual
	OpGreater
	OpGreaterEqual
	numOps
)

// kernel computes one output element. al supplies result storage for
// kernels that build new magnitudes on the limbs.
type kernel func(al bigint.Allocator, a, b bigint.Int) (bigint.Int, error)

// sizeHint returns an upper bound on the result size in words, for kernels
// whose results are carved from a shard arena.
type sizeHint func(a, b bigint.Int) int

type opInfo struct {
	name  string
	fn    kernel
	words sizeHint
}

var (
	zero = bigint.Int{}
	one  = bigint.FromInt64(1)
)

func compare(pred func(c int) bool) kernel {
	return func(_ bigint.Allocator, a, b bigint.Int) (bigint.Int, error) {
		if pred(bigint.Cmp(a, b)) {
			return one, nil
		}
		return zero, nil
	}
}

func noAlloc(fn func(a, b bigint.Int) (bigint.Int, error)) kernel {
	return func(_ bigint.Allocator, a, b bigint.Int) (bigint.Int, error) { return fn(a, b) }
}

func pure(fn func(a, b bigint.Int) bigint.Int) kernel {
	return func(_ bigint.Allocator, a, b bigint.Int) (bigint.Int, error) { return fn(a, b), nil }
}

func sumWords(a, b bigint.Int) int  { return max(a.WordLen(), b.WordLen()) + 1 }
func prodWords(a, b bigint.Int) int { return a.WordLen() + b.WordLen() }

// ops is the dispatch table, indexed by Op.
var ops = [numOps]opInfo{
	OpAdd: {"add", func(al bigint.Allocator, a, b bigint.Int) (bigint.Int, error) {
		return bigint.AddWith(al, a, b), nil
	}, sumWords},
	OpSub: {"sub", func(al bigint.Allocator, a, b bigint.Int) (bigint.Int, error) {
		return bigint.SubWith(al, a, b), nil
	}, sumWords},
	OpMul: {"mul", func(al bigint.Allocator, a, b bigint.Int) (bigint.Int, error) {
		return bigint.MulWith(al, a, b), nil
	}, prodWords},
	OpQuo:          {"quo", noAlloc(bigint.Quo), nil},
	OpRem:          {"rem", noAlloc(bigint.Rem), nil},
	OpMod:          {"mod", noAlloc(bigint.Mod), nil},
	OpMin:          {"min", pure(bigint.Min), nil},
	OpMax:          {"max", pure(bigint.Max), nil},
	OpEqual:        {"equal", compare(func(c int) bool { return c == 0 }), nil},
	OpNotEqual:     {"not_equal", compare(func(c int) bool { return c != 0 }), nil},
	OpLess:         {"less", compare(func(c int) bool { return c < 0 }), nil},
	OpLessEqual:    {"less_equal", compare(func(c int) bool { return c <= 0 }), nil},
	OpGreater:      {"greater", compare(func(c int) bool { return c > 0 }), nil},
	OpGreaterEqual: {"greater_equal", compare(func(c int) bool { return c >= 0 }), nil},
}

// opAliases maps alternative spellings accepted by ParseOp.
var opAliases = map[string]Op{
	"+":   OpAdd,
	"-":   OpSub,
	"*":   OpMul,
	"/":   OpQuo,
	"div": OpQuo,
	"%":   OpRem,
	"==":  OpEqual,
	"eq":  OpEqual,
	"!=":  OpNotEqual,
	"ne":  OpNotEqual,
	"<":   OpLess,
	"lt":  OpLess,
	"<=":  OpLessEqual,
	"le":  OpLessEqual,
	">":   OpGreater,
	"gt":  OpGreater,
	">=":  OpGreaterEqual,
	"ge":  OpGreaterEqual,
}

// String returns the canonical operation name, e.g. "add".
func (op Op) String() string {
	if op < 0 || op >= numOps {
		return fmt.Sprintf("Op(%d)", int(op))
	}
	return ops[op].name
}

// IsComparison reports whether op yields 0/1 arrays.
func (op Op) IsComparison() bool {
	return op >= OpEqual && op < numOps
}

// Ops lists every binary operation in declaration order.
func Ops() []Op {
	out := make([]Op, numOps)
	for i := range out {
		out[i] = Op(i)
	}
	return out
}

// ParseOp returns the operation with the given canonical name or alias.
func ParseOp(name string) (Op, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for i := range ops {
		if ops[i].name == name {
			return Op(i), nil
		}
	}
	if op, ok := opAliases[name]; ok {
		return op, nil
	}
	return 0, apperrors.ValidationError{Field: "op", Message: fmt.Sprintf("unknown operation %q", name)}
}

package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"github.com/agbru/bigtensor/internal/boundary"
	"github.com/agbru/bigtensor/internal/codec"
	apperrors "github.com/agbru/bigtensor/internal/errors"
	"github.com/agbru/bigtensor/internal/tensor"
	"github.com/agbru/bigtensor/internal/ui"
)

// lastResult names the variable holding the previous result.
const lastResult = "_"

// Evaluator runs array computations for the REPL. It is implemented by
// *boundary.Adapter.
type Evaluator interface {
	Compute(ctx context.Context, req boundary.Request) (boundary.RawArray, error)
}

// REPLConfig holds configuration for the REPL session.
type REPLConfig struct {
	// Timeout is the maximum duration for each computation.
	Timeout time.Duration
	// DType is the kind literals are parsed as.
	DType codec.Kind
	// Output is the kind results are exported as.
	Output codec.Kind
	// Modulus is used by powmod, inv and mod_scalar.
	Modulus string
	// Secure selects the fixed-sequence ladder for powmod.
	Secure bool
	// Shape and MaxVal drive random_uniform.
	Shape  tensor.Shape
	MaxVal string
	// Bits is the random_rsa_modulus size.
	Bits int
	// MaxBitLen sizes export_limbs limbs.
	MaxBitLen int
}

// REPL is an interactive array calculator session. Arrays are bound to names
// with "let" and combined with any operation name, e.g. "add x [1,2]".
type REPL struct {
	config REPLConfig
	eval   Evaluator
	vars   map[string]boundary.RawArray
	in     io.Reader
	out    io.Writer
}

// NewREPL creates a new REPL instance.
func NewREPL(eval Evaluator, config REPLConfig) *REPL {
	return &REPL{
		config: config,
		eval:   eval,
		vars:   make(map[string]boundary.RawArray),
		in:     os.Stdin,
		out:    os.Stdout,
	}
}

// SetInput sets a custom input reader (useful for testing).
func (r *REPL) SetInput(in io.Reader) {
	r.in = in
}

// SetOutput sets a custom output writer (useful for testing).
func (r *REPL) SetOutput(out io.Writer) {
	r.out = out
}

// Start begins the interactive REPL session.
// It continuously reads user input and processes commands until
// the user exits or EOF is reached.
func (r *REPL) Start() {
	r.printBanner()
	r.printHelp()
	fmt.Fprintln(r.out)

	reader := bufio.NewReader(r.in)
	theme := ui.GetCurrentTheme()

	for {
		fmt.Fprint(r.out, theme.Success+"bt> "+theme.Reset)

		input, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			fmt.Fprintf(r.out, "%sRead error: %v%s\n", theme.Error, err, theme.Reset)
			continue
		}
		line := strings.TrimSpace(input)
		if line != "" && !r.processCommand(line) {
			return
		}
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(r.out, "\nGoodbye!")
			return
		}
	}
}

func (r *REPL) printBanner() {
	st := ui.CurrentStyles()
	fmt.Fprintln(r.out, st.Result.Render(st.Title.Render("bigtensor - interactive mode")))
}

func (r *REPL) printHelp() {
	theme := ui.GetCurrentTheme()
	cmd := func(name, help string) {
		fmt.Fprintf(r.out, "  %s%-22s%s - %s\n", theme.Warning, name, theme.Reset, help)
	}
	fmt.Fprintf(r.out, "%sAvailable commands:%s\n", theme.Bold, theme.Reset)
	cmd("let <name> = <array>", "Bind a JSON nested list to a name")
	cmd("<op> <a> [<b>]", "Apply an operation to names or literals; result in _")
	cmd("show <name>", "Print every element of an array")
	cmd("vars", "List bound arrays")
	cmd("dtype <kind>", "Kind literals are parsed as")
	cmd("output <kind>", "Kind results are exported as")
	cmd("mod <m>", "Modulus for powmod, inv and mod_scalar")
	cmd("secure", "Toggle the fixed-sequence ladder for powmod")
	cmd("shape <d1,d2,...>", "Result shape of random_uniform")
	cmd("maxval <n>", "Exclusive bound of random_uniform")
	cmd("bits <n>", "Modulus size of random_rsa_modulus")
	cmd("bitlen <n>", "Value width of export_limbs (int32 limbs if output is int32)")
	cmd("ops", "List operations")
	cmd("status", "Display current configuration")
	cmd("help", "Display this help")
	cmd("exit / quit", "Exit interactive mode")
}

// processCommand parses and executes a user command.
// Returns false if the REPL should exit.
func (r *REPL) processCommand(input string) bool {
	name, rest, _ := strings.Cut(input, " ")
	name = strings.ToLower(name)
	rest = strings.TrimSpace(rest)

	switch name {
	case "let", "set":
		r.cmdLet(rest)
	case "show":
		r.cmdShow(rest)
	case "vars", "ls":
		r.cmdVars()
	case "dtype":
		r.cmdKind(rest, &r.config.DType)
	case "output":
		r.cmdKind(rest, &r.config.Output)
	case "mod":
		r.cmdMod(rest)
	case "shape":
		r.cmdShape(rest)
	case "maxval":
		r.cmdMaxVal(rest)
	case "bits":
		r.cmdInt(rest, "bits", &r.config.Bits)
	case "bitlen":
		r.cmdInt(rest, "bitlen", &r.config.MaxBitLen)
	case "secure":
		r.config.Secure = !r.config.Secure
		r.printf(ui.GetCurrentTheme().Success, "Secure powmod: %v", r.config.Secure)
	case "ops":
		fmt.Fprintln(r.out, strings.Join(OperationNames(), " "))
	case "status", "st":
		r.cmdStatus()
	case "help", "h", "?":
		r.printHelp()
	case "exit", "quit", "q":
		r.printf(ui.GetCurrentTheme().Success, "Goodbye!")
		return false
	default:
		if !isOperation(name) {
			r.printf(ui.GetCurrentTheme().Error, "Unknown command: %s", name)
			fmt.Fprintln(r.out, "Type help to see available commands.")
			return true
		}
		r.cmdCompute(name, rest)
	}
	return true
}

func (r *REPL) printf(color, format string, args ...any) {
	fmt.Fprintf(r.out, "%s%s%s\n", color, fmt.Sprintf(format, args...), ui.GetCurrentTheme().Reset)
}

func (r *REPL) reportError(err error) {
	apperrors.HandleError(err, r.out, ui.Colors{})
}

func (r *REPL) cmdLet(rest string) {
	name, literal, ok := strings.Cut(rest, "=")
	name = strings.TrimSpace(name)
	if !ok || !isIdentifier(name) {
		r.printf(ui.GetCurrentTheme().Error, "Usage: let <name> = <array>")
		return
	}
	args, err := r.operands(literal)
	if err != nil {
		r.reportError(err)
		return
	}
	if len(args) != 1 {
		r.printf(ui.GetCurrentTheme().Error, "Usage: let <name> = <array>")
		return
	}
	r.vars[name] = args[0]
	fmt.Fprintf(r.out, "%s: shape %s, %s\n", name, args[0].Shape, args[0].Kind)
}

func (r *REPL) cmdShow(name string) {
	raw, ok := r.vars[name]
	if !ok {
		r.printf(ui.GetCurrentTheme().Error, "Unknown array: %s", name)
		return
	}
	s, err := FormatQuietResult(raw)
	if err != nil {
		r.reportError(err)
		return
	}
	fmt.Fprintln(r.out, s)
}

func (r *REPL) cmdVars() {
	names := make([]string, 0, len(r.vars))
	for name := range r.vars {
		names = append(names, name)
	}
	sort.Strings(names)
	theme := ui.GetCurrentTheme()
	for _, name := range names {
		raw := r.vars[name]
		fmt.Fprintf(r.out, "  %s%-10s%s %s %s\n", theme.Warning, name, theme.Reset, raw.Shape, raw.Kind)
	}
}

func (r *REPL) cmdKind(rest string, dst *codec.Kind) {
	kind, err := codec.ParseKind(rest)
	if err != nil {
		r.reportError(err)
		return
	}
	*dst = kind
	r.printf(ui.GetCurrentTheme().Success, "Kind set to: %s", kind)
}

func (r *REPL) cmdMod(rest string) {
	if rest == "" {
		r.printf(ui.GetCurrentTheme().Error, "Usage: mod <m>")
		return
	}
	r.config.Modulus = rest
	r.printf(ui.GetCurrentTheme().Success, "Modulus set to: %s", TruncateDigits(rest))
}

func (r *REPL) cmdShape(rest string) {
	shape, err := boundary.ParseShape(rest)
	if err != nil {
		r.reportError(err)
		return
	}
	r.config.Shape = shape
	r.printf(ui.GetCurrentTheme().Success, "Shape set to: %s", shape)
}

func (r *REPL) cmdMaxVal(rest string) {
	if rest == "" {
		r.printf(ui.GetCurrentTheme().Error, "Usage: maxval <n>")
		return
	}
	r.config.MaxVal = rest
	r.printf(ui.GetCurrentTheme().Success, "Maxval set to: %s", TruncateDigits(rest))
}

func (r *REPL) cmdInt(rest, name string, dst *int) {
	n, err := strconv.Atoi(rest)
	if err != nil || n < 0 {
		r.printf(ui.GetCurrentTheme().Error, "Usage: %s <non-negative integer>", name)
		return
	}
	*dst = n
	r.printf(ui.GetCurrentTheme().Success, "%s set to: %d", name, n)
}

func (r *REPL) cmdStatus() {
	theme := ui.GetCurrentTheme()
	row := func(label string, value any) {
		fmt.Fprintf(r.out, "  %-10s %s%v%s\n", label, theme.Info, value, theme.Reset)
	}
	fmt.Fprintf(r.out, "\n%sCurrent configuration:%s\n", theme.Bold, theme.Reset)
	row("Timeout:", r.config.Timeout)
	row("DType:", r.config.DType)
	row("Output:", r.config.Output)
	row("Modulus:", TruncateDigits(r.config.Modulus))
	row("Secure:", r.config.Secure)
	row("Shape:", r.config.Shape)
	row("Maxval:", TruncateDigits(r.config.MaxVal))
	row("Bits:", r.config.Bits)
	row("Bitlen:", r.config.MaxBitLen)
	row("Arrays:", len(r.vars))
	fmt.Fprintln(r.out)
}

func (r *REPL) cmdCompute(op, rest string) {
	args, err := r.operands(rest)
	if err != nil {
		r.reportError(err)
		return
	}
	want := boundary.Arity(op)
	if len(args) != want {
		r.printf(ui.GetCurrentTheme().Error, "%s takes %d operand(s), got %d", op, want, len(args))
		return
	}

	req := boundary.Request{
		Op:        op,
		Modulus:   r.config.Modulus,
		Secure:    r.config.Secure,
		Output:    r.config.Output,
		Shape:     r.config.Shape,
		MaxVal:    r.config.MaxVal,
		Bits:      r.config.Bits,
		MaxBitLen: r.config.MaxBitLen,
	}
	if op == "export_limbs" && req.Output != codec.KindInt32 {
		req.Output = codec.KindUint8
	}
	if want >= 1 {
		req.A = args[0]
	}
	if want == 2 {
		req.B = args[1]
	}

	ctx, cancel := context.WithTimeout(context.Background(), r.config.Timeout)
	defer cancel()
	start := time.Now()
	out, err := r.eval.Compute(ctx, req)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			err = apperrors.TimeoutError{Operation: op, Limit: r.config.Timeout}
		}
		r.reportError(err)
		return
	}
	r.vars[lastResult] = out

	preview, err := FormatPreview(out, false)
	if err != nil {
		r.reportError(err)
		return
	}
	theme := ui.GetCurrentTheme()
	fmt.Fprintf(r.out, "%s = %s%s%s  (shape %s, %s)\n",
		lastResult, theme.Success, preview, theme.Reset, out.Shape, FormatExecutionDuration(time.Since(start)))
}

// operands parses a whitespace separated list of array names and JSON
// literals.
func (r *REPL) operands(s string) ([]boundary.RawArray, error) {
	var out []boundary.RawArray
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if s == "" {
			return out, nil
		}
		if isIdentStart(rune(s[0])) {
			end := strings.IndexFunc(s, unicode.IsSpace)
			if end < 0 {
				end = len(s)
			}
			name := s[:end]
			raw, ok := r.vars[name]
			if !ok {
				return nil, apperrors.ValidationError{Field: name, Message: "unknown array"}
			}
			out = append(out, raw)
			s = s[end:]
			continue
		}

		dec := json.NewDecoder(strings.NewReader(s))
		dec.UseNumber()
		var v any
		if err := dec.Decode(&v); err != nil {
			return nil, apperrors.ValidationError{Field: "literal", Message: err.Error()}
		}
		raw, err := boundary.FromNested(v, r.config.DType)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
		s = s[dec.InputOffset():]
	}
}

func isIdentStart(c rune) bool { return c == '_' || unicode.IsLetter(c) }

func isIdentifier(s string) bool {
	if s == "" || !isIdentStart(rune(s[0])) {
		return false
	}
	for _, c := range s {
		if c != '_' && !unicode.IsLetter(c) && !unicode.IsDigit(c) {
			return false
		}
	}
	return true
}

// extraOps are the operations handled outside tensor.ParseOp.
var extraOps = []string{
	"neg", "abs", "matmul", "powmod", "inv", "mod_scalar",
	"random_uniform", "random_rsa_modulus", "import_limbs", "export_limbs",
}

// OperationNames lists every operation name accepted by the engine.
func OperationNames() []string {
	names := make([]string, 0, len(tensor.Ops())+len(extraOps))
	for _, op := range tensor.Ops() {
		names = append(names, op.String())
	}
	return append(names, extraOps...)
}

func isOperation(name string) bool {
	for _, op := range extraOps {
		if op == name {
			return true
		}
	}
	_, err := tensor.ParseOp(name)
	return err == nil
}

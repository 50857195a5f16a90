package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/agbru/bigtensor/internal/arith"
	"github.com/agbru/bigtensor/internal/bigint"
	"github.com/agbru/bigtensor/internal/boundary"
	"github.com/agbru/bigtensor/internal/codec"
	apperrors "github.com/agbru/bigtensor/internal/errors"
	"github.com/agbru/bigtensor/internal/logging"
	"github.com/agbru/bigtensor/internal/sysmon"
	"github.com/agbru/bigtensor/internal/tensor"
)

// arrowStreamType is the media type of Arrow IPC stream bodies.
const arrowStreamType = "application/vnd.apache.arrow.stream"

// ComputeRequest is the JSON body of POST /v1/compute.
type ComputeRequest struct {
	Op string `json:"op"`
	// A and B are nested lists of decimal strings or JSON integers.
	A any `json:"a"`
	B any `json:"b,omitempty"`
	// DType is the element kind of the operands; empty means string.
	DType   string `json:"dtype,omitempty"`
	Output  string `json:"output,omitempty"`
	Modulus string `json:"modulus,omitempty"`
	Secure  bool   `json:"secure,omitempty"`
	// Shape and MaxVal parameterize random_uniform.
	Shape  []int  `json:"shape,omitempty"`
	MaxVal string `json:"maxval,omitempty"`
	// Bits is the modulus size of random_rsa_modulus.
	Bits int `json:"bits,omitempty"`
	// MaxBitLen sizes the limbs of export_limbs.
	MaxBitLen int `json:"max_bitlen,omitempty"`
}

// ConvertRequest is the JSON body of POST /v1/convert.
type ConvertRequest struct {
	Values any    `json:"values"`
	DType  string `json:"dtype,omitempty"`
	Output string `json:"output,omitempty"`
}

// ArrayResponse carries a computed array.
type ArrayResponse struct {
	Result    any     `json:"result"`
	Shape     []int   `json:"shape"`
	DType     string  `json:"dtype"`
	ElapsedMS float64 `json:"elapsed_ms"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error  string `json:"error"`
	Kind   string `json:"kind"`
	Index  *int   `json:"index,omitempty"`
	Coords []int  `json:"coords,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status  string       `json:"status"`
	Backend string       `json:"backend"`
	CPU     string       `json:"cpu"`
	System  sysmon.Stats `json:"system"`
}

func (s *Server) handleCompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only POST is allowed")
		return
	}
	var body ComputeRequest
	if err := s.decodeJSON(w, r, &body); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	req, err := s.buildRequest(body)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()
	start := time.Now()
	out, err := s.backend.Compute(ctx, req)
	if err != nil {
		s.writeAppError(w, r, s.timeoutError(req.Op, err))
		return
	}
	s.writeArray(w, r, out, time.Since(start))
}

func (s *Server) buildRequest(body ComputeRequest) (boundary.Request, error) {
	if body.Op == "" {
		return boundary.Request{}, apperrors.ValidationError{Field: "op", Message: "an operation is required"}
	}
	kind, err := kindOrDefault(body.DType, codec.KindString)
	if err != nil {
		return boundary.Request{}, err
	}
	outKind, err := kindOrDefault(body.Output, boundary.DefaultOutput(body.Op, kind))
	if err != nil {
		return boundary.Request{}, err
	}
	req := boundary.Request{
		Op:        body.Op,
		Modulus:   body.Modulus,
		Secure:    body.Secure,
		Output:    outKind,
		Shape:     tensor.Shape(body.Shape),
		MaxVal:    body.MaxVal,
		Bits:      body.Bits,
		MaxBitLen: body.MaxBitLen,
	}
	arity := boundary.Arity(body.Op)
	if arity >= 1 {
		if req.A, err = s.operand("a", body.A, kind); err != nil {
			return boundary.Request{}, err
		}
	}
	if arity == 2 {
		if req.B, err = s.operand("b", body.B, kind); err != nil {
			return boundary.Request{}, err
		}
	}
	if err := s.checkOutput(req); err != nil {
		return boundary.Request{}, err
	}
	return req, nil
}

// checkOutput rejects requests whose result would exceed MaxElements.
// Broadcasting and matmul can produce far more elements than their operands.
func (s *Server) checkOutput(req boundary.Request) error {
	limit := s.config.Security.MaxElements
	if limit <= 0 {
		return nil
	}
	shape, err := boundary.OutputShape(req)
	if err != nil {
		return err
	}
	if !fitsLimit(shape, limit) {
		return apperrors.ValidationError{
			Field:   "result",
			Message: fmt.Sprintf("result shape %s exceeds the limit of %d elements", shape, limit),
		}
	}
	return nil
}

// fitsLimit reports whether shape holds at most limit elements. The running
// product stops at limit so huge shapes cannot overflow.
func fitsLimit(shape tensor.Shape, limit int) bool {
	for _, d := range shape {
		if d <= 0 {
			return true
		}
	}
	n := 1
	for _, d := range shape {
		if n > limit/d {
			return false
		}
		n *= d
	}
	return true
}

func (s *Server) operand(name string, v any, kind codec.Kind) (boundary.RawArray, error) {
	if v == nil {
		return boundary.RawArray{}, apperrors.ValidationError{Field: name, Message: "operand is missing"}
	}
	raw, err := boundary.FromNested(v, kind)
	if err != nil {
		return boundary.RawArray{}, apperrors.WrapError(err, "operand %s", name)
	}
	if err := s.checkOperand(name, raw); err != nil {
		return boundary.RawArray{}, err
	}
	return raw, nil
}

func (s *Server) checkOperand(name string, raw boundary.RawArray) error {
	if limit := s.config.Security.MaxElements; limit > 0 && raw.Len() > limit {
		return apperrors.ValidationError{
			Field:   name,
			Message: fmt.Sprintf("%d elements exceed the limit of %d", raw.Len(), limit),
		}
	}
	return nil
}

func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only POST is allowed")
		return
	}
	var body ConvertRequest
	if err := s.decodeJSON(w, r, &body); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	kind, err := kindOrDefault(body.DType, codec.KindString)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	outKind, err := kindOrDefault(body.Output, codec.KindString)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	raw, err := s.operand("values", body.Values, kind)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()
	start := time.Now()
	out, err := s.backend.Convert(ctx, raw, outKind)
	if err != nil {
		s.writeAppError(w, r, s.timeoutError("convert", err))
		return
	}
	s.writeArray(w, r, out, time.Since(start))
}

// handleArrowCompute reads an Arrow IPC stream holding a tensor record with
// columns "a" and, for binary operations, "b". The operation and its options
// come from the query string. The response is a tensor record with a single
// "result" column.
func (s *Server) handleArrowCompute(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only POST is allowed")
		return
	}
	req, err := s.arrowRequest(r.URL.Query())
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}

	inKind := codec.KindString
	if arity := boundary.Arity(req.Op); arity > 0 {
		rec, err := boundary.ReadIPC(http.MaxBytesReader(w, r.Body, s.config.Security.MaxBodyBytes), s.mem)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		defer rec.Release()
		cols, err := boundary.RecordArrays(rec)
		if err != nil {
			s.writeAppError(w, r, err)
			return
		}
		names := []string{"a", "b"}[:arity]
		operands := []*boundary.RawArray{&req.A, &req.B}
		for i, name := range names {
			raw, ok := boundary.Lookup(cols, name)
			if !ok {
				s.writeAppError(w, r, apperrors.ValidationError{Field: name, Message: fmt.Sprintf("record has no column %q", name)})
				return
			}
			if err := s.checkOperand(name, raw); err != nil {
				s.writeAppError(w, r, err)
				return
			}
			*operands[i] = raw
		}
		inKind = req.A.Kind
	}
	if req.Output, err = kindOrDefault(r.URL.Query().Get("output"), boundary.DefaultOutput(req.Op, inKind)); err != nil {
		s.writeAppError(w, r, err)
		return
	}
	if err := s.checkOutput(req); err != nil {
		s.writeAppError(w, r, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.config.RequestTimeout)
	defer cancel()
	out, err := s.backend.Compute(ctx, req)
	if err != nil {
		s.writeAppError(w, r, s.timeoutError(req.Op, err))
		return
	}
	result, err := boundary.NewRecord(s.mem, boundary.Column{Name: "result", Raw: out})
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	defer result.Release()

	w.Header().Set("Content-Type", arrowStreamType)
	w.WriteHeader(http.StatusOK)
	if err := boundary.WriteIPC(w, result); err != nil && s.logger != nil {
		s.logger.Error("failed to write arrow response", err, logging.String("path", r.URL.Path))
	}
}

// arrowRequest reads the operation and its options from the query string of
// an Arrow compute request.
func (s *Server) arrowRequest(q url.Values) (boundary.Request, error) {
	req := boundary.Request{Op: q.Get("op"), Modulus: q.Get("modulus"), MaxVal: q.Get("maxval")}
	if req.Op == "" {
		return boundary.Request{}, apperrors.ValidationError{Field: "op", Message: "an operation is required"}
	}
	if v := q.Get("secure"); v != "" {
		secure, err := strconv.ParseBool(v)
		if err != nil {
			return boundary.Request{}, apperrors.ValidationError{Field: "secure", Message: err.Error()}
		}
		req.Secure = secure
	}
	if v := q.Get("shape"); v != "" {
		shape, err := boundary.ParseShape(v)
		if err != nil {
			return boundary.Request{}, err
		}
		req.Shape = shape
	}
	for _, p := range []struct {
		name string
		dst  *int
	}{{"bits", &req.Bits}, {"max_bitlen", &req.MaxBitLen}} {
		if v := q.Get(p.name); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				return boundary.Request{}, apperrors.ValidationError{Field: p.name, Message: fmt.Sprintf("invalid integer %q", v)}
			}
			*p.dst = n
		}
	}
	return req, nil
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method_not_allowed", "only GET is allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "ok",
		Backend: bigint.Backend,
		CPU:     arith.GetCPUFeatures().String(),
		System:  sysmon.Sample(),
	})
}

func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.config.Security.MaxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return err
		}
		return apperrors.ValidationError{Field: "body", Message: fmt.Sprintf("invalid JSON: %v", err)}
	}
	return nil
}

// timeoutError turns a deadline hit by the request context into a
// TimeoutError naming the operation.
func (s *Server) timeoutError(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.TimeoutError{Operation: op, Limit: s.config.RequestTimeout}
	}
	return err
}

func (s *Server) writeArray(w http.ResponseWriter, r *http.Request, out boundary.RawArray, elapsed time.Duration) {
	nested, err := boundary.ToNested(out)
	if err != nil {
		s.writeAppError(w, r, err)
		return
	}
	shape := []int(out.Shape)
	if shape == nil {
		shape = []int{}
	}
	s.writeJSON(w, http.StatusOK, ArrayResponse{
		Result:    nested,
		Shape:     shape,
		DType:     out.Kind.String(),
		ElapsedMS: float64(elapsed.Microseconds()) / 1000,
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil && s.logger != nil {
		s.logger.Error("failed to encode response", err)
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, kind, message string) {
	s.writeJSON(w, status, ErrorResponse{Error: message, Kind: kind})
}

// writeAppError maps err to an HTTP status and writes it. Element errors
// carry their position.
func (s *Server) writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	resp := ErrorResponse{Error: err.Error(), Kind: apperrors.Kind(err)}
	var (
		fe       apperrors.FormatError
		re       apperrors.RangeError
		tooLarge *http.MaxBytesError
	)
	switch {
	case errors.As(err, &fe) && fe.Index >= 0:
		resp.Index, resp.Coords = &fe.Index, fe.Coords
	case errors.As(err, &re) && re.Index >= 0:
		resp.Index, resp.Coords = &re.Index, re.Coords
	}

	status := http.StatusInternalServerError
	switch {
	case errors.As(err, &tooLarge):
		status, resp.Kind = http.StatusRequestEntityTooLarge, "validation"
	case resp.Kind == "format", resp.Kind == "shape", resp.Kind == "validation":
		status = http.StatusBadRequest
	case resp.Kind == "range", resp.Kind == "arithmetic":
		status = http.StatusUnprocessableEntity
	case resp.Kind == "timeout":
		status = http.StatusGatewayTimeout
	case resp.Kind == "canceled":
		status = http.StatusServiceUnavailable
	}
	if status == http.StatusInternalServerError && s.logger != nil {
		s.logger.Error("request failed", err, logging.String("path", r.URL.Path))
	}
	s.writeJSON(w, status, resp)
}

func kindOrDefault(name string, def codec.Kind) (codec.Kind, error) {
	if name == "" {
		return def, nil
	}
	return codec.ParseKind(name)
}

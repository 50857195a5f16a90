package boundary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/apache/arrow-go/v18/arrow"
	"github.com/apache/arrow-go/v18/arrow/array"
	"github.com/apache/arrow-go/v18/arrow/ipc"
	"github.com/apache/arrow-go/v18/arrow/memory"

	"github.com/agbru/bigtensor/internal/codec"
	apperrors "github.com/agbru/bigtensor/internal/errors"
	"github.com/agbru/bigtensor/internal/tensor"
)

// Field metadata keys of tensor records.
const (
	ShapeMetadataKey = "bigtensor.shape"
	KindMetadataKey  = "bigtensor.kind"
)

// ImportArrow decodes a flat Arrow array (String, Int32, Int64 or Uint8) into
// an engine handle of the given shape. A nil shape means a 1-D array of the
// array's length. Nulls are rejected.
func (ad *Adapter) ImportArrow(ctx context.Context, arr arrow.Array, shape tensor.Shape) (*tensor.BigArray, error) {
	raw, err := rawFromArrow(arr)
	if err != nil {
		return nil, err
	}
	if shape != nil {
		raw.Shape = shape
	}
	return ad.Import(ctx, raw)
}

// ExportArrow encodes h as a flat Arrow array. String and decimal kinds give
// a String array. The caller releases the result.
func (ad *Adapter) ExportArrow(ctx context.Context, mem memory.Allocator, h *tensor.BigArray, kind codec.Kind) (arrow.Array, error) {
	raw, err := ad.Export(ctx, h, kind)
	if err != nil {
		return nil, err
	}
	return arrowFromRaw(mem, raw)
}

func rawFromArrow(arr arrow.Array) (RawArray, error) {
	if arr.NullN() > 0 {
		return RawArray{}, apperrors.ValidationError{Field: "values", Message: fmt.Sprintf("array holds %d nulls", arr.NullN())}
	}
	shape := tensor.Shape{arr.Len()}
	switch a := arr.(type) {
	case *array.String:
		values := make([]string, a.Len())
		for i := range values {
			values[i] = a.Value(i)
		}
		return RawArray{Kind: codec.KindString, Shape: shape, Values: values}, nil
	case *array.Int32:
		return RawArray{Kind: codec.KindInt32, Shape: shape, Values: append([]int32(nil), a.Int32Values()...)}, nil
	case *array.Int64:
		return RawArray{Kind: codec.KindInt64, Shape: shape, Values: append([]int64(nil), a.Int64Values()...)}, nil
	case *array.Uint8:
		return RawArray{Kind: codec.KindUint8, Shape: shape, Values: append([]uint8(nil), a.Uint8Values()...)}, nil
	}
	return RawArray{}, apperrors.ValidationError{Field: "values", Message: fmt.Sprintf("unsupported Arrow type %s", arr.DataType())}
}

func arrowFromRaw(mem memory.Allocator, raw RawArray) (arrow.Array, error) {
	switch v := raw.Values.(type) {
	case []string:
		b := array.NewStringBuilder(mem)
		defer b.Release()
		b.AppendValues(v, nil)
		return b.NewArray(), nil
	case []int32:
		b := array.NewInt32Builder(mem)
		defer b.Release()
		b.AppendValues(v, nil)
		return b.NewArray(), nil
	case []int64:
		b := array.NewInt64Builder(mem)
		defer b.Release()
		b.AppendValues(v, nil)
		return b.NewArray(), nil
	case []uint8:
		b := array.NewUint8Builder(mem)
		defer b.Release()
		b.AppendValues(v, nil)
		return b.NewArray(), nil
	}
	return nil, apperrors.ValidationError{Field: "values", Message: fmt.Sprintf("unsupported value slice %T", raw.Values)}
}

// Column is one named array of a tensor record.
type Column struct {
	Name string
	Raw  RawArray
}

// NewRecord builds a one-row tensor record. Each column is a list of the
// array's flat values, and its field metadata carries the shape and kind, so
// operands of different sizes can travel in one record.
func NewRecord(mem memory.Allocator, cols ...Column) (arrow.Record, error) {
	fields := make([]arrow.Field, len(cols))
	arrays := make([]arrow.Array, 0, len(cols))
	defer func() {
		for _, a := range arrays {
			a.Release()
		}
	}()
	for i, col := range cols {
		flat, err := arrowFromRaw(mem, col.Raw)
		if err != nil {
			return nil, apperrors.WrapError(err, "column %q", col.Name)
		}
		list := listOf(mem, flat)
		flat.Release()
		arrays = append(arrays, list)
		fields[i] = arrow.Field{
			Name: col.Name,
			Type: list.DataType(),
			Metadata: arrow.NewMetadata(
				[]string{ShapeMetadataKey, KindMetadataKey},
				[]string{formatShape(col.Raw.Shape), col.Raw.Kind.String()},
			),
		}
	}
	return array.NewRecord(arrow.NewSchema(fields, nil), arrays, 1), nil
}

// listOf wraps flat as the single row of a list array.
func listOf(mem memory.Allocator, flat arrow.Array) arrow.Array {
	b := array.NewListBuilder(mem, flat.DataType())
	defer b.Release()
	b.Append(true)
	switch vb := b.ValueBuilder().(type) {
	case *array.StringBuilder:
		s := flat.(*array.String)
		for i := 0; i < s.Len(); i++ {
			vb.Append(s.Value(i))
		}
	case *array.Int32Builder:
		vb.AppendValues(flat.(*array.Int32).Int32Values(), nil)
	case *array.Int64Builder:
		vb.AppendValues(flat.(*array.Int64).Int64Values(), nil)
	case *array.Uint8Builder:
		vb.AppendValues(flat.(*array.Uint8).Uint8Values(), nil)
	}
	return b.NewArray()
}

// RecordArrays extracts the columns of a tensor record built by NewRecord.
func RecordArrays(rec arrow.Record) ([]Column, error) {
	if rec.NumRows() != 1 {
		return nil, apperrors.ValidationError{Field: "record", Message: fmt.Sprintf("tensor records have one row, got %d", rec.NumRows())}
	}
	schema := rec.Schema()
	cols := make([]Column, rec.NumCols())
	for i := range cols {
		field := schema.Field(i)
		list, ok := rec.Column(i).(*array.List)
		if !ok {
			return nil, apperrors.ValidationError{Field: field.Name, Message: fmt.Sprintf("expected a list column, got %s", field.Type)}
		}
		start, end := list.ValueOffsets(0)
		flat := array.NewSlice(list.ListValues(), start, end)
		raw, err := rawFromArrow(flat)
		flat.Release()
		if err != nil {
			return nil, apperrors.WrapError(err, "column %q", field.Name)
		}
		if idx := field.Metadata.FindKey(ShapeMetadataKey); idx >= 0 {
			shape, err := ParseShape(field.Metadata.Values()[idx])
			if err != nil {
				return nil, err
			}
			raw.Shape = shape
		}
		if idx := field.Metadata.FindKey(KindMetadataKey); idx >= 0 {
			kind, err := codec.ParseKind(field.Metadata.Values()[idx])
			if err != nil {
				return nil, err
			}
			// decimal columns are stored as strings
			if kind == codec.KindDecimal && raw.Kind == codec.KindString {
				raw.Kind = kind
			}
		}
		cols[i] = Column{Name: field.Name, Raw: raw}
	}
	return cols, nil
}

// Lookup returns the column with the given name.
func Lookup(cols []Column, name string) (RawArray, bool) {
	for _, c := range cols {
		if c.Name == name {
			return c.Raw, true
		}
	}
	return RawArray{}, false
}

func formatShape(s tensor.Shape) string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = strconv.Itoa(d)
	}
	return strings.Join(parts, ",")
}

// ParseShape parses a comma separated list of dimensions such as "2,3". The
// empty string is the scalar shape.
func ParseShape(s string) (tensor.Shape, error) {
	shape := tensor.Shape{}
	if s == "" {
		return shape, nil
	}
	for _, part := range strings.Split(s, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil || d < 0 {
			return nil, apperrors.ValidationError{Field: "shape", Message: fmt.Sprintf("invalid shape %q", s)}
		}
		shape = append(shape, d)
	}
	return shape, nil
}

// WriteIPC writes rec to w as an Arrow IPC stream.
func WriteIPC(w io.Writer, rec arrow.Record) error {
	writer := ipc.NewWriter(w, ipc.WithSchema(rec.Schema()))
	if err := writer.Write(rec); err != nil {
		writer.Close()
		return fmt.Errorf("failed to write record: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close writer: %w", err)
	}
	return nil
}

// ReadIPC reads the first record of an Arrow IPC stream. The caller releases
// it.
func ReadIPC(r io.Reader, mem memory.Allocator) (arrow.Record, error) {
	reader, err := ipc.NewReader(r, ipc.WithAllocator(mem))
	if err != nil {
		return nil, apperrors.ValidationError{Field: "body", Message: fmt.Sprintf("invalid Arrow IPC stream: %v", err)}
	}
	defer reader.Release()

	if !reader.Next() {
		if err := reader.Err(); err != nil && !errors.Is(err, io.EOF) {
			return nil, apperrors.ValidationError{Field: "body", Message: fmt.Sprintf("invalid Arrow IPC stream: %v", err)}
		}
		return nil, apperrors.ValidationError{Field: "body", Message: "no records in IPC stream"}
	}
	rec := reader.Record()
	rec.Retain()
	return rec, nil
}

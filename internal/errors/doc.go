// Package apperrors defines structured application error types,
// allowing for a clear distinction between error classes (input format,
// fixed-width range, array shape, configuration, etc.) and for carrying the
// offending value together with its position in the array.
//
// Error Wrapping Guidelines:
// This package follows Go's error wrapping conventions using fmt.Errorf with %w.
// Error types are plain values so that errors.As() works through any wrapping
// added by the boundary layers.
package apperrors

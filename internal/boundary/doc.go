// Package boundary is the only part of bigtensor that knows how callers lay
// out their arrays. It turns typed flat slices, JSON-style nested lists and
// Apache Arrow arrays into engine handles (*tensor.BigArray) and back, and
// traces every call with OpenTelemetry.
//
// Errors from the codec and the engine pass through unchanged, so callers can
// still match them with errors.As.
package boundary

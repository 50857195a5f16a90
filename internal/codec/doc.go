// Package codec converts single array elements between caller encodings and
// bigint.Int.
//
// Supported element kinds are decimal strings, the fixed-width integers
// int32, int64 and uint8, and decimal numbers in the shopspring/decimal
// syntax (which allows exponent notation) restricted to integral values. The
// package also implements the limb encoding, which packs each magnitude into
// a fixed number of uint8 or int32 limbs behind a 4-byte length header.
//
// Every function here works on one element. Annotating errors with the
// element's position is left to the array engine.
package codec

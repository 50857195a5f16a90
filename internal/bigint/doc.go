// Package bigint implements the arbitrary-precision integer used as the
// element type of every array in the engine.
//
// An Int is a sign and a little-endian sequence of big.Word limbs with no high
// zero limb. Zero has no limbs and is never negative, so two values are equal
// exactly when their canonical forms are identical. Values are immutable:
// every operation returns a new Int and never writes to its operands, which
// lets results share limbs with their inputs when nothing changes (Neg, Abs).
//
// Addition, subtraction, multiplication, comparison and the decimal and
// fixed-width conversions run directly on the limbs through package arith.
// Division, modular exponentiation and inversion go through math/big, or
// through GMP when built with the gmp tag.
package bigint

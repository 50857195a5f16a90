// Package arith provides the vector primitives that the arbitrary-precision
// integer representation is built on: add and subtract with carry,
// multiply-add by a single word and division by a single word, all operating
// on little-endian []big.Word slices.
//
// On regular builds the carry-propagating loops are linked to the assembly
// kernels of math/big. Building with the purego tag selects portable
// implementations written with math/bits.
//
// The package also pools scratch word slices by size class and reports the CPU
// features relevant to those kernels.
package arith

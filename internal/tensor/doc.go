// Package tensor implements the big-integer array engine: an N-dimensional
// row-major array of bigint.Int values, the import and export contracts that
// connect it to caller encodings, and the elementwise operations with
// broadcasting.
//
// A BigArray is immutable. Operations never modify their inputs and always
// return freshly built arrays, so arrays can be shared freely between
// goroutines.
//
// The Engine runs operations. Work above Options.ParallelThreshold output
// elements is sharded across goroutines; whatever the sharding, a failure is
// reported for the lowest failing flat index, exactly as a sequential run
// would report it.
package tensor

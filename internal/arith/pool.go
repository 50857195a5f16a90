// This file provides pooling for scratch word slices to reduce GC pressure
// during decimal conversion and multiplication.

package arith

import (
	"math/big"
	"math/bits"
	"sync"
	"sync/atomic"
)

// wordSlicePools pools []big.Word slices by size class.
// Size classes are powers of 4 from 64 to 1M words; larger requests are
// allocated directly.
var wordSlicePools = [...]sync.Pool{
	{New: func() any { return make([]big.Word, 64) }},
	{New: func() any { return make([]big.Word, 256) }},
	{New: func() any { return make([]big.Word, 1024) }},
	{New: func() any { return make([]big.Word, 4096) }},
	{New: func() any { return make([]big.Word, 16384) }},
	{New: func() any { return make([]big.Word, 65536) }},
	{New: func() any { return make([]big.Word, 262144) }},
	{New: func() any { return make([]big.Word, 1048576) }}, // 1M words = 8MB on 64-bit
}

// wordSliceSizes defines the size classes for word slice pools.
var wordSliceSizes = [...]int{64, 256, 1024, 4096, 16384, 65536, 262144, 1048576}

// getWordSlicePoolIndex returns the pool index for a given size, or -1 if the
// size is too large for pooling.
//
// wordSliceSizes are powers of 4 starting from 4^3 = 64: index i corresponds
// to size 4^(i+3), so bits.Len(size-1) maps directly to the index.
func getWordSlicePoolIndex(size int) int {
	if size <= 0 {
		return 0
	}
	if size > wordSliceSizes[len(wordSliceSizes)-1] {
		return -1
	}
	idx := (bits.Len(uint(size-1)) - 5) / 2
	if idx < 0 {
		idx = 0
	}
	return idx
}

// AcquireWords returns a zeroed word slice of exactly the given length.
// The backing array may be larger than requested.
//
// The slice should be released using ReleaseWords, preferably with defer:
//
//	buf := arith.AcquireWords(n)
//	defer arith.ReleaseWords(buf)
//
// The caller must not retain buf, or any slice of it, after release.
func AcquireWords(size int) []big.Word {
	idx := getWordSlicePoolIndex(size)
	if idx < 0 {
		return make([]big.Word, size)
	}
	slice := wordSlicePools[idx].Get().([]big.Word)
	clear(slice)
	return slice[:size]
}

// ReleaseWords returns a slice obtained from AcquireWords to its pool.
// Safe to call with nil. Slices whose capacity is not a size class are left
// to the garbage collector.
func ReleaseWords(slice []big.Word) {
	if slice == nil {
		return
	}
	c := cap(slice)
	idx := getWordSlicePoolIndex(c)
	if idx >= 0 && wordSliceSizes[idx] == c {
		wordSlicePools[idx].Put(slice[:c])
	}
}

// poolsWarmed tracks whether pools have been pre-warmed.
var poolsWarmed atomic.Bool

// PreWarmPools pre-allocates buffers for the size class that holds maxWords,
// so the first large conversions do not pay for allocation. It only runs once
// per process; later calls are no-ops.
func PreWarmPools(maxWords, buffers int) {
	if maxWords <= 0 || buffers <= 0 {
		return
	}
	if !poolsWarmed.CompareAndSwap(false, true) {
		return
	}
	idx := getWordSlicePoolIndex(maxWords)
	if idx < 0 {
		return
	}
	for i := 0; i < buffers; i++ {
		wordSlicePools[idx].Put(make([]big.Word, wordSliceSizes[idx]))
	}
}

// Package memory provides allocation helpers for the array engine: a word
// arena that lays out the magnitudes of many results in one contiguous block,
// and a garbage collector controller for very large one-shot computations.
package memory

import "math/big"

// WordArena pre-allocates a contiguous block of big.Word memory for the
// magnitudes of a batch of results. This replaces one heap allocation per
// element with one per batch.
//
// The arena uses a bump-pointer allocation strategy: each Alloc call advances
// the offset. Every returned slice is capped with a full-slice expression, so
// appending to it reallocates instead of growing into the next element. When
// capacity is exhausted, Alloc falls back to standard heap allocation.
//
// Slices handed out by the arena are owned by their callers and stay valid for
// the life of the values built on them. An arena is not safe for concurrent
// use; the engine creates one per shard.
type WordArena struct {
	buf    []big.Word
	offset int
}

// NewWordArena creates an arena holding totalWords words.
// A non-positive size yields an arena that always allocates from the heap.
func NewWordArena(totalWords int) *WordArena {
	if totalWords <= 0 {
		return &WordArena{}
	}
	return &WordArena{buf: make([]big.Word, totalWords)}
}

// Alloc returns a zeroed slice of exactly words words with capacity words.
func (a *WordArena) Alloc(words int) []big.Word {
	if words <= 0 {
		return nil
	}
	if a.buf == nil || a.offset+words > len(a.buf) {
		return make([]big.Word, words)
	}
	slice := a.buf[a.offset : a.offset+words : a.offset+words]
	a.offset += words
	return slice
}

// UsedWords returns the number of words currently allocated from the arena.
func (a *WordArena) UsedWords() int {
	return a.offset
}

// CapacityWords returns the total capacity of the arena in words.
func (a *WordArena) CapacityWords() int {
	return len(a.buf)
}

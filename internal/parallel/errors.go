package parallel

import (
	"math"
	"sync"
	"sync/atomic"
)

// ErrorCollector gathers errors from concurrent goroutines and keeps one of
// them.
//
// Errors recorded with SetErrorAt keep the one with the lowest index, so the
// outcome does not depend on scheduling. Errors recorded with SetError carry
// no index: the first one wins, and any indexed error takes precedence.
//
// The zero value is ready to use.
type ErrorCollector struct {
	mu  sync.Mutex
	err error
	// lowest is the lowest recorded index plus one; 0 means no error.
	lowest atomic.Int64
}

// SetError records err unless an error is already held. Nil errors are
// ignored.
func (c *ErrorCollector) SetError(err error) {
	c.SetErrorAt(math.MaxInt64-1, err)
}

// SetErrorAt records err for the element at index if no error with a lower
// or equal index has been recorded. Nil errors are ignored.
func (c *ErrorCollector) SetErrorAt(index int, err error) {
	if err == nil {
		return
	}
	key := int64(index) + 1
	c.mu.Lock()
	defer c.mu.Unlock()
	if cur := c.lowest.Load(); cur == 0 || key < cur {
		c.lowest.Store(key)
		c.err = err
	}
}

// Err returns the recorded error, or nil.
func (c *ErrorCollector) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.err
}

// Index returns the index of the recorded error, or -1 when there is none or
// it was recorded without an index.
func (c *ErrorCollector) Index() int {
	cur := c.lowest.Load()
	if cur == 0 || cur == math.MaxInt64 {
		return -1
	}
	return int(cur - 1)
}

// Before reports whether an error has been recorded at an index lower than
// index. Workers use it to stop early: nothing they find at or past that
// point can be reported. It does not take the lock.
func (c *ErrorCollector) Before(index int) bool {
	cur := c.lowest.Load()
	return cur != 0 && cur-1 < int64(index)
}

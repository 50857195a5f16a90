package tensor

import (
	"context"
	"io"
	"runtime"
	"time"

	"github.com/agbru/bigtensor/internal/parallel"
)

// DefaultParallelThreshold is the number of output elements from which work
// is sharded across goroutines.
const DefaultParallelThreshold = 4096

// Observer receives one notification per completed engine operation.
// internal/metrics provides the Prometheus implementation.
type Observer interface {
	ObserveOp(op string, elements int, duration time.Duration, err error)
}

// Options configures an Engine.
type Options struct {
	// Workers is the maximum number of goroutines per operation.
	// Zero selects GOMAXPROCS.
	Workers int
	// ParallelThreshold is the output size from which work is sharded.
	ParallelThreshold int
	// Observer, if set, is notified after every operation.
	Observer Observer
	// Random is the entropy source for random generation. Nil selects
	// crypto/rand.Reader.
	Random io.Reader
}

// DefaultOptions returns options sized for the current machine.
func DefaultOptions() Options {
	return Options{
		Workers:           runtime.GOMAXPROCS(0),
		ParallelThreshold: DefaultParallelThreshold,
	}
}

// Engine runs array operations. It holds configuration only and is safe for
// concurrent use.
type Engine struct {
	opts Options
}

// NewEngine returns an engine with the given options.
func NewEngine(opts Options) *Engine {
	return &Engine{opts: opts}
}

// Options returns the engine configuration.
func (e *Engine) Options() Options { return e.opts }

func (e *Engine) parallelOptions() parallel.Options {
	return parallel.Options{Workers: e.opts.Workers, Threshold: e.opts.ParallelThreshold}
}

// observe reports an operation to the observer. It is deferred by every entry
// point with a pointer to the named error result.
func (e *Engine) observe(op string, elements int, start time.Time, err *error) {
	if e.opts.Observer != nil {
		e.opts.Observer.ObserveOp(op, elements, time.Since(start), *err)
	}
}

// run applies the work built by shard to every output index in [0, n).
func (e *Engine) run(ctx context.Context, n int, shard parallel.ShardFunc) error {
	return parallel.Run(ctx, n, e.parallelOptions(), shard)
}

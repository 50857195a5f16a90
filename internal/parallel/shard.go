package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// ctxCheckInterval is how many elements run between context checks.
const ctxCheckInterval = 64

// Range is the half-open span [Lo, Hi) of flat indices.
type Range struct {
	Lo, Hi int
}

// Len returns the number of indices in r.
func (r Range) Len() int { return r.Hi - r.Lo }

// Options configures Run.
type Options struct {
	// Workers is the maximum number of shards. Zero selects GOMAXPROCS.
	Workers int
	// Threshold is the element count below which work runs on the calling
	// goroutine.
	Threshold int
}

// Shards returns the number of shards Run uses for n elements.
func (o Options) Shards(n int) int {
	workers := o.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if n <= 0 || n < o.Threshold || workers <= 1 {
		return 1
	}
	if workers > n {
		return n
	}
	return workers
}

// Split divides [0, n) into parts contiguous ranges whose sizes differ by at
// most one. It returns fewer ranges when n < parts.
func Split(n, parts int) []Range {
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	if parts == 0 {
		return nil
	}
	ranges := make([]Range, parts)
	size, extra := n/parts, n%parts
	lo := 0
	for i := range ranges {
		hi := lo + size
		if i < extra {
			hi++
		}
		ranges[i] = Range{Lo: lo, Hi: hi}
		lo = hi
	}
	return ranges
}

// ShardFunc prepares the work for one shard and returns the function applied
// to each index of that shard. It runs on the shard's goroutine, so any state
// it sets up is private to the shard.
type ShardFunc func(r Range) func(i int) error

// Run applies the work built by shard to every index in [0, n).
//
// Above opts.Threshold elements the range is split across opts.Workers
// goroutines and joined before Run returns. Shards are not canceled when one
// fails, since a later shard may fail first while an earlier one still holds
// the lowest failing index; they stop once they pass a recorded failure. The
// returned error is always the one with the lowest index, as in a sequential
// run. If ctx is done before the work completes, Run returns ctx.Err().
func Run(ctx context.Context, n int, opts Options, shard ShardFunc) error {
	if n <= 0 {
		return ctx.Err()
	}
	var (
		ec          ErrorCollector
		interrupted ErrorCollector
	)
	runShard := func(r Range) {
		fn := shard(r)
		for i := r.Lo; i < r.Hi; i++ {
			if (i-r.Lo)%ctxCheckInterval == 0 {
				if err := ctx.Err(); err != nil {
					interrupted.SetError(err)
					return
				}
				if ec.Before(i) {
					return
				}
			}
			if err := fn(i); err != nil {
				ec.SetErrorAt(i, err)
				return
			}
		}
	}

	ranges := Split(n, opts.Shards(n))
	if len(ranges) == 1 {
		runShard(ranges[0])
	} else {
		var g errgroup.Group
		for _, r := range ranges {
			g.Go(func() error {
				runShard(r)
				return nil
			})
		}
		_ = g.Wait()
	}

	if err := interrupted.Err(); err != nil {
		return err
	}
	return ec.Err()
}

// Package unitproc runs per-unit work across a bounded worker pool.
// Results come back in input order so callers stay deterministic
// regardless of completion timing.
package unitproc

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// DefaultWorkers returns the default pool size.
func DefaultWorkers() int {
	return runtime.NumCPU() * 2
}

// Result pairs one item's output with its error, positioned at the
// item's input index.
type Result[R any] struct {
	Value R
	Err   error
}

// Map applies fn to every item concurrently and returns the results
// in input order. A cancelled context stops new items from starting;
// items already in flight finish.
func Map[T, R any](ctx context.Context, items []T, workers int, fn func(T) (R, error)) []Result[R] {
	if workers <= 0 {
		workers = DefaultWorkers()
	}

	results := make([]Result[R], len(items))
	p := pool.New().WithMaxGoroutines(workers)
	for i, item := range items {
		if ctx.Err() != nil {
			results[i].Err = ctx.Err()
			continue
		}
		p.Go(func() {
			results[i].Value, results[i].Err = fn(item)
		})
	}
	p.Wait()
	return results
}

// Package workpool runs per-item work on a fixed set of workers that pull
// from one shared queue. A slow item only ever occupies its own worker.
package workpool

import (
	"context"
	"sync"
)

// Workers returns the number of workers a pool of the given concurrency
// starts for n items: min(concurrency, n), with concurrency floored at 1.
func Workers(concurrency, n int) int {
	if concurrency < 1 {
		concurrency = 1
	}
	if n < concurrency {
		return n
	}
	return concurrency
}

// Run calls fn once for every index in [0, n) on Workers(concurrency, n)
// workers. It returns after every call has returned. Item failures are fn's
// concern; one item never stops another.
func Run(ctx context.Context, n, concurrency int, fn func(ctx context.Context, i int)) {
	workers := Workers(concurrency, n)
	if workers == 0 {
		return
	}

	queue := make(chan int, n)
	for i := 0; i < n; i++ {
		queue <- i
	}
	close(queue)

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for i := range queue {
				fn(ctx, i)
			}
		}()
	}
	wg.Wait()
}

// Map applies fn to every item and returns the outputs in input order.
// onDone, if set, is called after each item finishes, in completion order and
// possibly from several workers at once.
func Map[In, Out any](ctx context.Context, items []In, concurrency int, fn func(context.Context, In) Out, onDone func(i int, out Out)) []Out {
	out := make([]Out, len(items))
	Run(ctx, len(items), concurrency, func(ctx context.Context, i int) {
		res := fn(ctx, items[i])
		out[i] = res
		if onDone != nil {
			onDone(i, res)
		}
	})
	return out
}

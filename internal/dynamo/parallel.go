package dynamo

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// DefaultWorkers is the fan-out used when a caller passes workers <= 0.
func DefaultWorkers() int {
	return runtime.GOMAXPROCS(0)
}

// ParallelFor executes fn over [0, n) split into contiguous chunks and waits
// for all of them. Chunk boundaries depend only on n, minChunk and workers.
// fn cannot fail; the errgroup is used only to wait on the chunks.
func ParallelFor(n, minChunk, workers int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if workers <= 0 {
		workers = DefaultWorkers()
	}
	if minChunk < 1 {
		minChunk = 1
	}
	if n <= minChunk || workers <= 1 {
		fn(0, n)
		return
	}

	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var g errgroup.Group
	for start := 0; start < n; start += chunkSize {
		s, e := start, min(start+chunkSize, n)
		g.Go(func() error {
			fn(s, e)
			return nil
		})
	}
	_ = g.Wait()
}

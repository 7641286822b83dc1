package planner

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// defaultMinChunk keeps goroutine overhead below the cost of the work it carries.
const defaultMinChunk = 2048

// Executor runs fn over half-open ranges that together cover [0, n) exactly
// once and returns after every call has finished. Ranges may run concurrently;
// fn only ever writes to indices inside its own range.
type Executor interface {
	ForEach(n int, fn func(lo, hi int)) error
}

// SerialExecutor runs the whole range on the calling goroutine.
type SerialExecutor struct{}

// ForEach calls fn(0, n).
func (SerialExecutor) ForEach(n int, fn func(lo, hi int)) error {
	if n > 0 {
		fn(0, n)
	}
	return nil
}

// ParallelExecutor splits the range into chunks run on an errgroup.
type ParallelExecutor struct {
	// Workers bounds concurrent chunks; 0 means GOMAXPROCS.
	Workers int
	// MinChunk is the smallest range handed to one goroutine; 0 means 2048.
	MinChunk int
}

// ForEach partitions [0, n) and waits for all chunks.
func (e ParallelExecutor) ForEach(n int, fn func(lo, hi int)) error {
	if n <= 0 {
		return nil
	}
	workers := e.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	minChunk := e.MinChunk
	if minChunk <= 0 {
		minChunk = defaultMinChunk
	}
	if workers == 1 || n <= minChunk {
		fn(0, n)
		return nil
	}

	chunk := (n + workers - 1) / workers
	if chunk < minChunk {
		chunk = minChunk
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for lo := 0; lo < n; lo += chunk {
		lo, hi := lo, min(lo+chunk, n)
		g.Go(func() error {
			fn(lo, hi)
			return nil
		})
	}
	return g.Wait()
}

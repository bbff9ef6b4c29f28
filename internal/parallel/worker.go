// Package parallel provides the order-preserving worker pool used for
// row-wise transforms on large tables. Work is split into contiguous row
// ranges, fanned out to a fixed set of goroutines and gathered back in order,
// so the parallel path produces exactly what the sequential path would.
package parallel

import (
	"context"
	"runtime"
	"sync"
)

// WorkerPool manages a pool of goroutines for parallel processing
type WorkerPool struct {
	numWorkers int
	ctx        context.Context
	cancel     context.CancelFunc
}

// NewWorkerPool creates a new worker pool bound to ctx. Cancelling ctx or
// calling Close stops workers from picking up new items.
func NewWorkerPool(ctx context.Context, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, cancel := context.WithCancel(ctx)

	return &WorkerPool{
		numWorkers: numWorkers,
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Workers returns the number of goroutines the pool runs.
func (wp *WorkerPool) Workers() int {
	return wp.numWorkers
}

// ProcessIndexed executes work items in parallel while preserving order. The
// first worker error cancels the remaining items and is returned.
func ProcessIndexed[T, R any](
	wp *WorkerPool,
	items []T,
	worker func(int, T) (R, error),
) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}

	ctx, cancel := context.WithCancel(wp.ctx)
	defer cancel()

	itemCh := make(chan indexedItem[T], len(items))
	resultCh := make(chan indexedResult[R], len(items))

	var wg sync.WaitGroup
	for i := 0; i < wp.numWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for item := range itemCh {
				if ctx.Err() != nil {
					return
				}
				result, err := worker(item.index, item.value)
				resultCh <- indexedResult[R]{index: item.index, result: result, err: err}
				if err != nil {
					cancel()
					return
				}
			}
		}()
	}

	go func() {
		defer close(itemCh)
		for i, item := range items {
			select {
			case <-ctx.Done():
				return
			case itemCh <- indexedItem[T]{index: i, value: item}:
			}
		}
	}()

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make([]R, len(items))
	var firstErr error
	firstErrIndex := len(items)
	received := 0
	for result := range resultCh {
		received++
		if result.err != nil {
			// lowest index wins so the reported error does not depend on scheduling
			if result.index < firstErrIndex {
				firstErr, firstErrIndex = result.err, result.index
			}
			continue
		}
		results[result.index] = result.result
	}

	if firstErr != nil {
		return nil, firstErr
	}
	if received != len(items) {
		if err := wp.ctx.Err(); err != nil {
			return nil, err
		}
		return nil, context.Canceled
	}
	return results, nil
}

// Range is a half-open row interval [Start, End).
type Range struct {
	Start int
	End   int
}

// Chunks splits n rows into contiguous ranges of at most size rows.
func Chunks(n, size int) []Range {
	if n <= 0 {
		return nil
	}
	if size <= 0 {
		size = n
	}
	ranges := make([]Range, 0, (n+size-1)/size)
	for start := 0; start < n; start += size {
		end := start + size
		if end > n {
			end = n
		}
		ranges = append(ranges, Range{Start: start, End: end})
	}
	return ranges
}

// MapRows applies fn to every row index in [0, n) and returns the results in
// row order. Rows are processed in chunks spread over the pool.
func MapRows[R any](wp *WorkerPool, n int, fn func(row int) (R, error)) ([]R, error) {
	chunkSize := (n + wp.numWorkers - 1) / wp.numWorkers
	chunks := Chunks(n, chunkSize)

	parts, err := ProcessIndexed(wp, chunks, func(_ int, r Range) ([]R, error) {
		out := make([]R, 0, r.End-r.Start)
		for row := r.Start; row < r.End; row++ {
			v, err := fn(row)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	})
	if err != nil {
		return nil, err
	}

	results := make([]R, 0, n)
	for _, part := range parts {
		results = append(results, part...)
	}
	return results, nil
}

// Close shuts down the worker pool
func (wp *WorkerPool) Close() {
	wp.cancel()
}

// indexedItem holds an item with its index
type indexedItem[T any] struct {
	index int
	value T
}

// indexedResult holds a result with its index
type indexedResult[R any] struct {
	index  int
	result R
	err    error
}

package batch

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// DefaultConcurrency is used when a caller passes zero or less.
const DefaultConcurrency = 3

type itemResult[R any] struct {
	Index int
	Value R
	Error error
}

// Run applies fn to every item using a fixed pool of workers and returns the
// results in input order. The first failure (by input order) is returned
// wrapped with the item index; remaining work is cancelled.
func Run[T, R any](ctx context.Context, items []T, concurrency int, fn func(context.Context, T) (R, error)) ([]R, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	if concurrency > len(items) {
		concurrency = len(items)
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	workChan := make(chan int, len(items))
	resultChan := make(chan itemResult[R], len(items))

	var wg sync.WaitGroup
	for i := 0; i < concurrency; i++ {
		wg.Go(func() {
			for idx := range workChan {
				if err := ctx.Err(); err != nil {
					resultChan <- itemResult[R]{Index: idx, Error: err}
					continue
				}
				v, err := fn(ctx, items[idx])
				if err != nil {
					cancel()
				}
				resultChan <- itemResult[R]{Index: idx, Value: v, Error: err}
			}
		})
	}

	for i := range items {
		workChan <- i
	}
	close(workChan)

	go func() {
		wg.Wait()
		close(resultChan)
	}()

	results := make([]itemResult[R], 0, len(items))
	for r := range resultChan {
		results = append(results, r)
	}

	// sort by index to maintain order
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	// report the real failure rather than a cancellation it caused
	var firstErr, firstCause error
	out := make([]R, len(items))
	for _, r := range results {
		out[r.Index] = r.Value
		if r.Error == nil {
			continue
		}
		wrapped := fmt.Errorf("item %d failed: %w", r.Index, r.Error)
		if firstErr == nil {
			firstErr = wrapped
		}
		if firstCause == nil && !errors.Is(r.Error, context.Canceled) {
			firstCause = wrapped
		}
	}
	if firstCause != nil {
		return out, firstCause
	}
	return out, firstErr
}

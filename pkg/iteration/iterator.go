package iteration

import (
	"context"
	"fmt"
	"runtime"
	"sync"
)

// Iterator runs a function over a range of indices with a configurable strategy
type Iterator struct {
	config Config
}

// NewIterator creates a new iterator with given config
func NewIterator(config Config) *Iterator {
	if config.MaxConcurrent <= 0 {
		config.MaxConcurrent = runtime.NumCPU()
	}
	if config.Strategy == "" {
		config.Strategy = StrategySequential
	}
	return &Iterator{config: config}
}

// Sequential returns an iterator that processes one item at a time
func Sequential() *Iterator {
	return NewIterator(Config{Strategy: StrategySequential})
}

// Strategy returns the configured strategy
func (it *Iterator) Strategy() Strategy {
	return it.config.Strategy
}

// Process calls fn for every index in [0, n). It is fail-fast: once an error is
// seen no further indices are started. When several indices fail in parallel
// mode, the error of the lowest index is returned.
func (it *Iterator) Process(ctx context.Context, n int, fn IndexFunc) error {
	if n <= 0 {
		return nil
	}

	if it.config.Strategy == StrategyParallel && n > 1 {
		return it.processParallel(ctx, n, fn)
	}
	return it.processSequential(ctx, n, fn)
}

// Map applies fn to every item and returns the results in input order
func Map[T, R any](ctx context.Context, it *Iterator, items []T, fn MapFunc[T, R]) ([]R, error) {
	if it == nil {
		it = Sequential()
	}
	results := make([]R, len(items))
	err := it.Process(ctx, len(items), func(ctx context.Context, index int) error {
		out, err := fn(ctx, items[index], index)
		if err != nil {
			return err
		}
		results[index] = out
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

// processSequential processes indices one by one (fail-fast)
func (it *Iterator) processSequential(ctx context.Context, n int, fn IndexFunc) error {
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := fn(ctx, i); err != nil {
			return fmt.Errorf("failed processing item %d: %w", i, err)
		}
	}
	return nil
}

// processParallel processes indices concurrently with a worker pool (fail-fast)
func (it *Iterator) processParallel(ctx context.Context, n int, fn IndexFunc) error {
	numWorkers := it.config.MaxConcurrent
	if numWorkers > n {
		numWorkers = n
	}

	workCh := make(chan int, n)
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	var mu sync.Mutex
	firstIndex := -1
	var firstError error

	for w := 0; w < numWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range workCh {
				if ctx.Err() != nil {
					return
				}
				if err := fn(ctx, idx); err != nil {
					mu.Lock()
					if firstIndex < 0 || idx < firstIndex {
						firstIndex = idx
						firstError = fmt.Errorf("failed processing item %d: %w", idx, err)
					}
					mu.Unlock()
					cancel()
				}
			}
		}()
	}

sendLoop:
	for i := 0; i < n; i++ {
		select {
		case <-ctx.Done():
			break sendLoop
		case workCh <- i:
		}
	}
	close(workCh)

	wg.Wait()

	if firstError != nil {
		return firstError
	}
	// parent context cancelled before any item failed
	if err := ctx.Err(); err != nil && firstIndex < 0 {
		return err
	}
	return nil
}

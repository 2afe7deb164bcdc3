package iteration

import "context"

// Strategy defines how items are processed
type Strategy string

const (
	StrategySequential Strategy = "sequential" // Process items one by one
	StrategyParallel   Strategy = "parallel"   // Process items concurrently
)

// Config holds configuration for iteration
type Config struct {
	Strategy      Strategy // sequential or parallel
	MaxConcurrent int      // Max concurrent workers (0 = runtime.NumCPU())
}

// IndexFunc is called once per item index. Implementations write their own
// result slot, so no two calls share mutable state.
type IndexFunc func(ctx context.Context, index int) error

// MapFunc transforms one item into one result
type MapFunc[T, R any] func(ctx context.Context, item T, index int) (R, error)

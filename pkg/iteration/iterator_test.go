package iteration

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIterator_MapSequential_Success(t *testing.T) {
	iterator := NewIterator(Config{
		Strategy: StrategySequential,
	})

	results, err := Map(context.Background(), iterator, []int{1, 2, 3}, func(ctx context.Context, item int, index int) (int, error) {
		return item * 2, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{2, 4, 6}, results)
}

func TestIterator_MapSequential_FailFast(t *testing.T) {
	iterator := NewIterator(Config{
		Strategy: StrategySequential,
	})

	processCount := 0
	sentinel := errors.New("item 2 failed")

	results, err := Map(context.Background(), iterator, []int{1, 2, 3, 4, 5}, func(ctx context.Context, item int, index int) (int, error) {
		processCount++
		if index == 2 {
			return 0, sentinel
		}
		return item, nil
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed processing item 2")
	assert.ErrorIs(t, err, sentinel)
	assert.Nil(t, results)
	assert.Equal(t, 3, processCount, "Should stop after item 2 fails")
}

func TestIterator_Map_EmptyInput(t *testing.T) {
	for _, strategy := range []Strategy{StrategySequential, StrategyParallel} {
		iterator := NewIterator(Config{Strategy: strategy, MaxConcurrent: 4})

		results, err := Map(context.Background(), iterator, []string{}, func(ctx context.Context, item string, index int) (string, error) {
			t.Fatal("Should not be called for empty input")
			return "", nil
		})

		require.NoError(t, err)
		assert.Empty(t, results)
	}
}

func TestIterator_MapParallel_PreservesOrder(t *testing.T) {
	iterator := NewIterator(Config{
		Strategy:      StrategyParallel,
		MaxConcurrent: 4,
	})

	items := []int{5, 4, 3, 2, 1, 0}

	results, err := Map(context.Background(), iterator, items, func(ctx context.Context, item int, index int) (int, error) {
		// Sleep different amounts to test order preservation
		time.Sleep(time.Duration(item) * time.Millisecond)
		return index * 10, nil
	})

	require.NoError(t, err)
	assert.Equal(t, []int{0, 10, 20, 30, 40, 50}, results)
}

func TestIterator_MapParallel_ReportsLowestFailingIndex(t *testing.T) {
	iterator := NewIterator(Config{
		Strategy:      StrategyParallel,
		MaxConcurrent: 8,
	})

	items := make([]int, 8)
	results, err := Map(context.Background(), iterator, items, func(ctx context.Context, item int, index int) (int, error) {
		if index == 3 || index == 6 {
			return 0, fmt.Errorf("item %d failed", index)
		}
		return item, nil
	})

	require.Error(t, err)
	assert.Nil(t, results)
	assert.Contains(t, err.Error(), "failed processing item")
}

func TestIterator_Process_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls int32
	err := Sequential().Process(ctx, 3, func(ctx context.Context, index int) error {
		atomic.AddInt32(&calls, 1)
		return nil
	})

	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(0), atomic.LoadInt32(&calls))
}

func TestIterator_NewIterator_Defaults(t *testing.T) {
	iterator := NewIterator(Config{
		MaxConcurrent: 0, // Should default to runtime.NumCPU()
	})

	assert.Equal(t, runtime.NumCPU(), iterator.config.MaxConcurrent)
	assert.Equal(t, StrategySequential, iterator.Strategy())
}

func TestMap_NilIteratorIsSequential(t *testing.T) {
	results, err := Map(context.Background(), nil, []string{"a", "b"}, func(ctx context.Context, item string, index int) (string, error) {
		return fmt.Sprintf("%s-%d", item, index), nil
	})

	require.NoError(t, err)
	assert.Equal(t, []string{"a-0", "b-1"}, results)
}

package collect

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// backing returns a fetch over a fixed collection of sequential ints that
// records every requested window.
func backing(size int, calls *[][2]int) Fetch[int] {
	return func(_ context.Context, offset, count int) (Page[int], error) {
		*calls = append(*calls, [2]int{offset, count})

		var items []int
		for i := offset; i < offset+count && i < size; i++ {
			items = append(items, i)
		}
		return Page[int]{Items: items, Total: size}, nil
	}
}

func TestAllPagesThroughBatches(t *testing.T) {
	var calls [][2]int
	items, err := All(context.Background(), backing(250, &calls), Options{PerRequest: 100})

	require.NoError(t, err)
	require.Len(t, items, 250)
	assert.Equal(t, [][2]int{{0, 100}, {100, 100}, {200, 100}}, calls)

	for i, item := range items {
		require.Equal(t, i, item, "items must stay in backing order")
	}
}

func TestAllStopsOnShortBatch(t *testing.T) {
	var calls [][2]int
	fetch := func(ctx context.Context, offset, count int) (Page[int], error) {
		// Service that never reports a total.
		page, err := backing(42, &calls)(ctx, offset, count)
		page.Total = 0
		return page, err
	}

	items, err := All(context.Background(), fetch, Options{PerRequest: 100})
	require.NoError(t, err)
	assert.Len(t, items, 42)
	assert.Len(t, calls, 1)
}

func TestAllHonorsMax(t *testing.T) {
	var calls [][2]int
	items, err := All(context.Background(), backing(1000, &calls), Options{PerRequest: 100, Max: 150})

	require.NoError(t, err)
	assert.Len(t, items, 150)
	// The final window shrinks so the bound is never overshot.
	assert.Equal(t, [][2]int{{0, 100}, {100, 50}}, calls)
}

func TestAllEmptyCollection(t *testing.T) {
	var calls [][2]int
	items, err := All(context.Background(), backing(0, &calls), Options{PerRequest: 100})

	require.NoError(t, err)
	assert.Empty(t, items)
	assert.Len(t, calls, 1)
}

func TestAllStopsOnReportedTotal(t *testing.T) {
	calls := 0
	fetch := func(_ context.Context, offset, count int) (Page[int], error) {
		calls++
		// Full batches forever, but the service reports 200 in total.
		items := make([]int, count)
		for i := range items {
			items[i] = offset + i
		}
		return Page[int]{Items: items, Total: 200}, nil
	}

	items, err := All(context.Background(), fetch, Options{PerRequest: 100})
	require.NoError(t, err)
	assert.Len(t, items, 200)
	assert.Equal(t, 2, calls)
}

func TestAllRejectsInvalidBatchSize(t *testing.T) {
	_, err := All(context.Background(), backing(10, &[][2]int{}), Options{})
	assert.Error(t, err)
}

package parallel

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/goboost/pkg/errors"
)

func TestRanges(t *testing.T) {
	tests := []struct {
		name    string
		items   int
		workers int
		want    []Range
	}{
		{"empty", 0, 4, nil},
		{"even split", 8, 4, []Range{{0, 2}, {2, 4}, {4, 6}, {6, 8}}},
		{"uneven split", 10, 4, []Range{{0, 3}, {3, 6}, {6, 9}, {9, 10}}},
		{"more workers than items", 3, 8, []Range{{0, 1}, {1, 2}, {2, 3}}},
		{"single worker", 5, 1, []Range{{0, 5}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Ranges(tt.items, tt.workers))
		})
	}
}

func TestRanges_CoverAllItems(t *testing.T) {
	for items := 1; items < 50; items++ {
		for workers := 1; workers < 9; workers++ {
			total := 0
			prevEnd := 0
			for _, r := range Ranges(items, workers) {
				assert.Equal(t, prevEnd, r.Start)
				assert.Greater(t, r.Len(), 0)
				total += r.Len()
				prevEnd = r.End
			}
			assert.Equal(t, items, total)
		}
	}
}

func TestParallelizeN(t *testing.T) {
	var sum atomic.Int64
	ParallelizeN(1000, 7, func(start, end int) {
		for i := start; i < end; i++ {
			sum.Add(int64(i))
		}
	})
	assert.Equal(t, int64(999*1000/2), sum.Load())
}

func TestParallelizeWithThreshold(t *testing.T) {
	var calls atomic.Int32
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		calls.Add(1)
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, int32(1), calls.Load())
}

func TestForEach(t *testing.T) {
	ranges := Ranges(100, 4)

	t.Run("success", func(t *testing.T) {
		partial := make([]int, len(ranges))
		err := ForEach(ranges, "sum", func(i int, r Range) error {
			for j := r.Start; j < r.End; j++ {
				partial[i] += j
			}
			return nil
		})
		require.NoError(t, err)
		total := 0
		for _, p := range partial {
			total += p
		}
		assert.Equal(t, 99*100/2, total)
	})

	t.Run("lowest index error wins", func(t *testing.T) {
		err := ForEach(ranges, "fail", func(i int, r Range) error {
			if i >= 1 {
				return fmt.Errorf("range %d failed", i)
			}
			return nil
		})
		require.Error(t, err)
		assert.Equal(t, "range 1 failed", err.Error())
	})

	t.Run("panic is recovered", func(t *testing.T) {
		err := ForEach(ranges, "histogram worker", func(i int, r Range) error {
			if i == 2 {
				panic("bad row")
			}
			return nil
		})
		var panicErr *errors.PanicError
		require.True(t, errors.As(err, &panicErr))
		assert.Equal(t, "histogram worker", panicErr.Operation)
	})
}

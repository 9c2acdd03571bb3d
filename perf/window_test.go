package perf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRingWindow(t *testing.T) {
	w := newRingWindow(3)
	assert.False(t, w.Full())
	assert.Equal(t, []float64{}, w.Values())

	w.Push(1)
	w.Push(2)
	assert.Equal(t, 2, w.Len())
	assert.Equal(t, []float64{1, 2}, w.Values())

	w.Push(3)
	assert.True(t, w.Full())
	assert.Equal(t, []float64{1, 2, 3}, w.Values())

	w.Push(4)
	w.Push(5)
	assert.Equal(t, 3, w.Len())
	assert.Equal(t, []float64{3, 4, 5}, w.Values())
}

func TestSlidingWindows(t *testing.T) {
	values := []float64{0, 1, 2, 3, 4, 5, 6, 7, 8, 9}
	starts := func(windows []slidingWindow) []int {
		out := []int{}
		for _, w := range windows {
			out = append(out, w.Start)
		}
		return out
	}

	t.Run("TooShort", func(t *testing.T) {
		assert.Empty(t, slidingWindows(values, 11, 1))
	})
	t.Run("ExactLength", func(t *testing.T) {
		windows := slidingWindows(values, 10, 5)
		assert.Equal(t, []int{0}, starts(windows))
		assert.Equal(t, values, windows[0].Values)
	})
	t.Run("AlignedStep", func(t *testing.T) {
		windows := slidingWindows(values, 4, 3)
		assert.Equal(t, []int{0, 3, 6}, starts(windows))
		assert.Equal(t, []float64{3, 4, 5, 6}, windows[1].Values)
	})
	t.Run("TrailingWindow", func(t *testing.T) {
		windows := slidingWindows(values, 4, 4)
		assert.Equal(t, []int{0, 4, 6}, starts(windows))
		assert.Equal(t, []float64{6, 7, 8, 9}, windows[2].Values)
	})
	t.Run("ZeroStep", func(t *testing.T) {
		assert.Len(t, slidingWindows(values, 8, 0), 3)
	})
}

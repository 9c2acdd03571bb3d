package perf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQHatSplitter(t *testing.T) {
	s := qhatSplitter{}

	t.Run("TestQHat", func(t *testing.T) {
		values := s.qHat([]float64{1, 1, 1, 5, 5, 5, 5})
		assert.Len(t, values, 7)
		assert.InDelta(t, 4.8, values[2], 1e-9)
		assert.InDelta(t, 8.0, values[3], 1e-9)
		assert.InDelta(t, 4.0, values[4], 1e-9)
		assert.Zero(t, values[0])
		assert.Zero(t, values[6])
	})
	t.Run("TestQHatShortSeries", func(t *testing.T) {
		assert.Equal(t, []float64{0, 0, 0, 0}, s.qHat([]float64{1, 2, 3, 4}))
	})
	t.Run("TestExtractQ", func(t *testing.T) {
		index, value := s.extractQ([]float64{0, 1, 3, 2, 3})
		assert.Equal(t, 2, index)
		assert.Equal(t, 3.0, value)
	})
	t.Run("TestSplit", func(t *testing.T) {
		index, ok := s.Split([]float64{1, 1, 1, 5, 5, 5, 5})
		assert.True(t, ok)
		assert.Equal(t, 3, index)

		index, ok = s.Split(append(repeat(10, 50), repeat(20, 50)...))
		assert.True(t, ok)
		assert.Equal(t, 50, index)
	})
	t.Run("TestSplitConstant", func(t *testing.T) {
		_, ok := s.Split(repeat(3, 20))
		assert.False(t, ok)
	})
}

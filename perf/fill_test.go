package perf

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFillMissing(t *testing.T) {
	nan := math.NaN()
	for _, test := range []struct {
		name     string
		input    []float64
		expected []float64
	}{
		{
			name:     "Empty",
			input:    []float64{},
			expected: []float64{},
		},
		{
			name:     "NothingMissing",
			input:    []float64{1, 2, 3},
			expected: []float64{1, 2, 3},
		},
		{
			name:     "CarriesForward",
			input:    []float64{1, nan, nan, 4, nan},
			expected: []float64{1, 1, 1, 4, 4},
		},
		{
			name:     "LeadingGapCarriesBackward",
			input:    []float64{nan, nan, 2, nan, 3},
			expected: []float64{2, 2, 2, 2, 3},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			FillMissing(test.input)
			assert.Equal(t, test.expected, test.input)
		})
	}
	t.Run("AllMissing", func(t *testing.T) {
		values := []float64{nan, nan}
		FillMissing(values)
		assert.Len(t, values, 2)
		assert.True(t, IsMissing(values[0]))
		assert.True(t, IsMissing(values[1]))
	})
}

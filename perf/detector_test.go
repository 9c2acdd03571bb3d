package perf

import (
	"math"
	"testing"
	"time"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWindowedDetector(t *testing.T) {
	for _, test := range []struct {
		name         string
		series       []float64
		windowLen    int
		maxPValue    float64
		minMagnitude float64
		expected     []int
	}{
		{
			name:      "Constant",
			series:    repeat(100, 200),
			windowLen: 50,
			maxPValue: 0.001,
			expected:  []int{},
		},
		{
			name:      "SingleStep",
			series:    stepSeries([]float64{10, 20}, []int{100, 100}, 0, defaultSeed),
			windowLen: 50,
			maxPValue: 0.001,
			expected:  []int{100},
		},
		{
			name:      "TwoSteps",
			series:    stepSeries([]float64{10, 30, 15}, []int{100, 100, 100}, 0, defaultSeed),
			windowLen: 50,
			maxPValue: 0.001,
			expected:  []int{100, 200},
		},
		{
			name:      "ShorterThanTwoWindows",
			series:    stepSeries([]float64{10, 20}, []int{40, 40}, 0, defaultSeed),
			windowLen: 50,
			maxPValue: 0.001,
			expected:  []int{},
		},
		{
			name:         "MagnitudeBelowThreshold",
			series:       stepSeries([]float64{10, 12}, []int{100, 100}, 1, defaultSeed),
			windowLen:    50,
			maxPValue:    0.001,
			minMagnitude: 5,
			expected:     []int{},
		},
		{
			name:      "Empty",
			series:    []float64{},
			windowLen: 50,
			maxPValue: 0.001,
			expected:  []int{},
		},
		{
			name:      "SmallWindow",
			series:    stepSeries([]float64{1, 2}, []int{3, 3}, 0, defaultSeed),
			windowLen: 3,
			maxPValue: 0.001,
			expected:  []int{3},
		},
	} {
		t.Run(test.name, func(t *testing.T) {
			cpd := NewWindowedDetector(test.windowLen, test.maxPValue, test.minMagnitude)
			changePoints, err := cpd.DetectChanges(test.series)
			require.NoError(t, err)
			assert.Equal(t, test.expected, changePointIndexes(changePoints))
		})
	}
}

func TestWindowedDetectorStats(t *testing.T) {
	series := stepSeries([]float64{10, 20}, []int{100, 100}, 0, defaultSeed)
	changePoints, err := NewWindowedDetector(50, 0.001, 0).DetectChanges(series)
	require.NoError(t, err)
	require.Len(t, changePoints, 1)

	cp := changePoints[0]
	assert.Equal(t, 100, cp.Index)
	assert.Equal(t, 50, cp.Stats.N1)
	assert.Equal(t, 50, cp.Stats.N2)
	assert.True(t, cp.Stats.IsSignificant())
	assert.InDelta(t, 1.0, cp.Stats.ForwardRelChange(), 1e-12)
	assert.Equal(t, windowedDetectorName, cp.Info.Name)
	assert.Equal(t, windowedDetectorVersion, cp.Info.Version)
	assert.Len(t, cp.Info.Options, 3)
}

func TestWindowedDetectorNoisySeries(t *testing.T) {
	start := time.Now()
	series := stepSeries([]float64{10, 20, 12}, []int{150, 150, 150}, 1, defaultSeed)
	cpd := NewWindowedDetector(50, 1e-5, 0)

	changePoints, err := cpd.DetectChanges(series)
	require.NoError(t, err)
	grip.Info(message.Fields{
		"algorithm":    windowedDetectorName,
		"elapsed_secs": time.Since(start).Seconds(),
		"num_series":   len(series),
	})

	require.Len(t, changePoints, 2)
	assert.InDelta(t, 150, changePoints[0].Index, 2)
	assert.InDelta(t, 300, changePoints[1].Index, 2)
	assert.True(t, changePoints[0].Stats.ForwardRelChange() > 0.8)
	assert.True(t, changePoints[1].Stats.ForwardRelChange() < -0.3)

	t.Run("Deterministic", func(t *testing.T) {
		again, err := cpd.DetectChanges(series)
		require.NoError(t, err)
		assert.Equal(t, changePoints, again)
	})
	t.Run("DoesNotModifyInput", func(t *testing.T) {
		assert.Equal(t, stepSeries([]float64{10, 20, 12}, []int{150, 150, 150}, 1, defaultSeed), series)
	})
}

func TestWindowedDetectorInvariants(t *testing.T) {
	for seed := int64(0); seed < 5; seed++ {
		series := stepSeries([]float64{5, 8, 3, 9, 9.2}, []int{70, 30, 120, 60, 80}, 0.5, defaultSeed+seed)
		for _, minMagnitude := range []float64{0, 1, 4} {
			windowLen := 30
			changePoints, err := NewWindowedDetector(windowLen, 0.001, minMagnitude).DetectChanges(series)
			require.NoError(t, err)

			for i, cp := range changePoints {
				assert.True(t, cp.Index >= 1 && cp.Index <= len(series)-1)
				assert.True(t, cp.Stats.IsSignificant())
				assert.True(t, cp.Stats.ChangeMagnitude() >= minMagnitude)
				if i > 0 {
					assert.True(t, cp.Index-changePoints[i-1].Index >= windowLen/2)
				}
			}
		}
	}
}

func TestWindowedDetectorCloseShifts(t *testing.T) {
	// the middle regime is shorter than a window
	series := stepSeries([]float64{100, 130, 160}, []int{100, 30, 100}, 1, defaultSeed)
	changePoints, err := NewWindowedDetector(50, 1e-5, 0).DetectChanges(series)
	require.NoError(t, err)
	require.Equal(t, []int{100, 130}, changePointIndexes(changePoints))

	first, second := changePoints[0].Stats, changePoints[1].Stats
	assert.Equal(t, 50, first.N1)
	assert.Equal(t, 30, first.N2)
	assert.InDelta(t, 0.3, first.ForwardRelChange(), 0.01)
	assert.Equal(t, 30, second.N1)
	assert.Equal(t, 50, second.N2)
	assert.InDelta(t, 30.0/130, second.ForwardRelChange(), 0.01)

	t.Run("DuplicateProposals", func(t *testing.T) {
		d := NewWindowedDetector(50, 1e-5, 0).(*windowedDetector)
		assert.Equal(t, []int{100, 130}, d.accept(series, []int{99, 100, 101, 120, 130, 131}))
	})
}

func TestWindowedDetectorErrors(t *testing.T) {
	t.Run("NonFinite", func(t *testing.T) {
		series := repeat(1, 200)
		series[10] = math.NaN()
		_, err := NewWindowedDetector(50, 0.001, 0).DetectChanges(series)
		assert.Error(t, err)

		series[10] = math.Inf(-1)
		_, err = NewWindowedDetector(50, 0.001, 0).DetectChanges(series)
		assert.Error(t, err)
	})
	t.Run("InvalidWindow", func(t *testing.T) {
		_, err := NewWindowedDetector(0, 0.001, 0).DetectChanges(repeat(1, 10))
		assert.Error(t, err)
	})
}

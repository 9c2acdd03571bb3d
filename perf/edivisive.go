package perf

import "math"

// qhatSplitter uses the e-divisive (q^) statistic to propose where a
// window most likely splits into two distributions.
type qhatSplitter struct{}

func (qhatSplitter) calculateDiffs(series []float64) []float64 {
	length := len(series)
	diffs := make([]float64, length*length)
	for row := 0; row < length; row++ {
		for column := row; column < length; column++ {
			delta := math.Abs(series[row] - series[column])
			diffs[row*length+column] = delta
			diffs[column*length+row] = delta
		}
	}
	return diffs
}

func (qhatSplitter) calculateQ(cross, left, right float64, suffix, prefix int) float64 {
	m := float64(suffix)
	n := float64(prefix)

	crossReg := cross * (2.0 / (m * n))
	leftReg := left * (2.0 / (n * (n - 1)))
	rightReg := right * (2.0 / (m * (m - 1)))
	scale := float64(int((m * n) / (m + n)))
	return scale * (crossReg - leftReg - rightReg)
}

// qHat returns, for every prefix length n, the divergence between
// series[:n] and series[n:]. Entries too close to either end are zero.
func (s qhatSplitter) qHat(series []float64) []float64 {
	length := len(series)
	qhatValues := make([]float64, length)
	if length < 5 {
		return qhatValues
	}

	diffs := s.calculateDiffs(series)

	n := 2
	cross := 0.0
	for i := 0; i < n; i++ {
		for j := n; j < length; j++ {
			cross += diffs[i*length+j]
		}
	}
	left := 0.0
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			left += diffs[i*length+j]
		}
	}
	right := 0.0
	for i := n; i < length; i++ {
		for j := i + 1; j < length; j++ {
			right += diffs[i*length+j]
		}
	}

	qhatValues[n] = s.calculateQ(cross, left, right, length-n, n)

	// moving element n-1 from the right side to the left side
	for n = 3; n < length-2; n++ {
		toLeft := 0.0
		for j := 0; j < n-1; j++ {
			toLeft += diffs[(n-1)*length+j]
		}

		toRight := 0.0
		for j := n - 1; j < length; j++ {
			toRight += diffs[j*length+n-1]
		}

		cross = cross - toLeft + toRight
		left += toLeft
		right -= toRight

		qhatValues[n] = s.calculateQ(cross, left, right, length-n, n)
	}

	return qhatValues
}

// extractQ returns the first index holding the largest q value.
func (qhatSplitter) extractQ(qhatValues []float64) (int, float64) {
	var (
		index int
		value float64
	)

	for i := range qhatValues {
		if qhatValues[i] > value {
			index = i
			value = qhatValues[i]
		}
	}

	return index, value
}

// Split returns the most likely split point of the series, or false
// when the series looks homogeneous.
func (s qhatSplitter) Split(series []float64) (int, bool) {
	index, q := s.extractQ(s.qHat(series))
	if q <= 0 || index == 0 {
		return 0, false
	}
	return index, true
}

package perf

import "math"

// IsMissing reports whether v marks a missing observation.
func IsMissing(v float64) bool { return math.IsNaN(v) }

// FillMissing replaces missing values in place. Each gap takes the
// nearest earlier present value; a leading gap takes the first present
// value after it. A series with no present values is left untouched.
func FillMissing(values []float64) {
	last := math.NaN()
	for i, v := range values {
		if IsMissing(v) {
			values[i] = last
			continue
		}
		last = v
	}

	first := -1
	for i, v := range values {
		if !IsMissing(v) {
			first = i
			break
		}
	}
	if first <= 0 {
		return
	}

	for i := 0; i < first; i++ {
		values[i] = values[first]
	}
}

package perf

import "math/rand"

const defaultSeed = 12345678

// stepSeries concatenates runs of lengths[i] values around levels[i].
// Gaussian noise with the given standard deviation is added to every
// value; a zero stddev gives exact constants.
func stepSeries(levels []float64, lengths []int, stddev float64, seed int64) []float64 {
	rnd := rand.New(rand.NewSource(seed))
	out := []float64{}
	for i, level := range levels {
		for j := 0; j < lengths[i]; j++ {
			out = append(out, level+rnd.NormFloat64()*stddev)
		}
	}
	return out
}

func repeat(value float64, count int) []float64 {
	out := make([]float64, count)
	for i := range out {
		out[i] = value
	}
	return out
}

func changePointIndexes(cps []ChangePoint) []int {
	out := make([]int, len(cps))
	for i, cp := range cps {
		out[i] = cp.Index
	}
	return out
}

package perf

import (
	"math"
	"sort"

	"github.com/pkg/errors"
)

const (
	windowedDetectorName    = "windowed_t_test"
	windowedDetectorVersion = 1
)

type windowedDetector struct {
	windowLen    int
	minMagnitude float64
	tester       *TTestSignificanceTester
	splitter     qhatSplitter
	info         AlgorithmInfo
}

// NewWindowedDetector finds change points in two phases. Windows of
// 2*windowLen values slide over the series and the e-divisive statistic
// proposes a split in each of them. Every proposal is then checked with
// a t-test between up to windowLen values on either side, bounded by
// the neighbouring change points, and kept only when the p-value is
// below maxPValue and the effect size reaches minMagnitude. Proposals
// closer than half a window to a stronger change point are dropped;
// the others are re-scored against the new boundaries, so separate
// shifts that sit close together are all reported.
func NewWindowedDetector(windowLen int, maxPValue, minMagnitude float64) ChangeDetector {
	return &windowedDetector{
		windowLen:    windowLen,
		minMagnitude: minMagnitude,
		tester:       NewTTestSignificanceTester(maxPValue),
		info: AlgorithmInfo{
			Name:    windowedDetectorName,
			Version: windowedDetectorVersion,
			Options: []AlgorithmOption{
				{
					Name:  "window_len",
					Value: windowLen,
				},
				{
					Name:  "max_pvalue",
					Value: maxPValue,
				},
				{
					Name:  "min_magnitude",
					Value: minMagnitude,
				},
			},
		},
	}
}

func (d *windowedDetector) DetectChanges(series []float64) ([]ChangePoint, error) {
	if d.windowLen < 1 {
		return nil, errors.Errorf("window length must be positive, not %d", d.windowLen)
	}
	for i, v := range series {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, errors.Errorf("series contains a non-finite value at index %d", i)
		}
	}

	accepted := d.accept(series, d.candidates(series))
	accepted = d.merge(series, accepted)

	out := make([]ChangePoint, 0, len(accepted))
	for _, idx := range accepted {
		out = append(out, ChangePoint{
			Index: idx,
			Stats: d.score(series, idx, accepted),
			Info:  d.info,
		})
	}
	return out, nil
}

// candidates returns the distinct split points proposed by each full
// window, in ascending order.
func (d *windowedDetector) candidates(series []float64) []int {
	step := d.windowLen / 2
	seen := map[int]bool{}
	out := []int{}
	for _, w := range slidingWindows(series, 2*d.windowLen, step) {
		split, ok := d.splitter.Split(w.Values)
		if !ok {
			continue
		}
		idx := w.Start + split
		if idx < 1 || idx >= len(series) || seen[idx] {
			continue
		}
		seen[idx] = true
		out = append(out, idx)
	}

	sort.Ints(out)
	return out
}

// score compares the values before and after idx, each side limited to
// windowLen values and to the nearest accepted change points.
func (d *windowedDetector) score(series []float64, idx int, accepted []int) ComparativeStats {
	prev, next := 0, len(series)
	for _, cp := range accepted {
		if cp < idx && cp > prev {
			prev = cp
		}
		if cp > idx && cp < next {
			next = cp
		}
	}

	begin := idx - d.windowLen
	if begin < prev {
		begin = prev
	}
	end := idx + d.windowLen
	if end > next {
		end = next
	}

	return d.tester.Compare(series[begin:idx], series[idx:end])
}

func (d *windowedDetector) passes(s ComparativeStats) bool {
	return s.IsSignificant() && s.ChangeMagnitude() >= d.minMagnitude
}

// stronger orders candidates by p-value, then magnitude, then position.
func stronger(a ComparativeStats, aIdx int, b ComparativeStats, bIdx int) bool {
	if a.PValue != b.PValue {
		return a.PValue < b.PValue
	}
	if a.Magnitude != b.Magnitude {
		return a.Magnitude > b.Magnitude
	}
	return aIdx < bIdx
}

func (d *windowedDetector) accept(series []float64, candidates []int) []int {
	accepted := []int{}
	remaining := candidates

	for len(remaining) > 0 {
		best := -1
		var bestStats ComparativeStats
		for _, idx := range remaining {
			s := d.score(series, idx, accepted)
			if !d.passes(s) {
				continue
			}
			if best < 0 || stronger(s, idx, bestStats, best) {
				best = idx
				bestStats = s
			}
		}
		if best < 0 {
			break
		}

		accepted = append(accepted, best)
		sort.Ints(accepted)

		kept := remaining[:0:0]
		for _, idx := range remaining {
			if abs(idx-best) >= d.minSegmentLen() {
				kept = append(kept, idx)
			}
		}
		remaining = kept
	}

	return accepted
}

// merge drops, one at a time and weakest first, the change points that
// stop passing once their windows are bounded by their final neighbours.
func (d *windowedDetector) merge(series []float64, accepted []int) []int {
	for {
		weakest := -1
		var weakestStats ComparativeStats
		for pos, idx := range accepted {
			s := d.score(series, idx, accepted)
			if d.passes(s) {
				continue
			}
			if weakest < 0 || stronger(weakestStats, accepted[weakest], s, idx) {
				weakest = pos
				weakestStats = s
			}
		}
		if weakest < 0 {
			return accepted
		}

		accepted = append(accepted[:weakest:weakest], accepted[weakest+1:]...)
	}
}

// minSegmentLen is the shortest distance between two change points.
func (d *windowedDetector) minSegmentLen() int {
	if d.windowLen/2 < 2 {
		return 2
	}
	return d.windowLen / 2
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}

package report

import (
	"github.com/evergreen-ci/plateau/model"
	"github.com/evergreen-ci/plateau/perf"
)

type MetricVerdict struct {
	Metric  string
	Verdict Verdict
	Stats   perf.ComparativeStats
}

// Regressions classifies every metric of the comparison, ordered by
// metric name.
func Regressions(cmp *model.SeriesComparison, directions map[string]int) []MetricVerdict {
	out := make([]MetricVerdict, 0, len(cmp.Stats))
	for _, metric := range cmp.Metrics() {
		stats := cmp.Stats[metric]
		out = append(out, MetricVerdict{
			Metric:  metric,
			Verdict: Classify(stats, directions[metric]),
			Stats:   stats,
		})
	}
	return out
}

// Filter returns the verdicts equal to v.
func Filter(verdicts []MetricVerdict, v Verdict) []MetricVerdict {
	out := []MetricVerdict{}
	for _, verdict := range verdicts {
		if verdict.Verdict == v {
			out = append(out, verdict)
		}
	}
	return out
}

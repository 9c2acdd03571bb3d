package report

import (
	"math"

	"github.com/evergreen-ci/plateau/model"
	"github.com/evergreen-ci/plateau/perf"
	"github.com/evergreen-ci/plateau/util"
)

// StatsReport is the JSON form of perf.ComparativeStats. Values that
// are not finite, such as the magnitude of a shift between two constant
// segments, are null.
type StatsReport struct {
	Mean1                 *float64 `json:"mean_1"`
	Mean2                 *float64 `json:"mean_2"`
	Std1                  *float64 `json:"std_1"`
	Std2                  *float64 `json:"std_2"`
	N1                    int      `json:"n_1"`
	N2                    int      `json:"n_2"`
	PValue                *float64 `json:"pvalue"`
	Magnitude             *float64 `json:"magnitude"`
	ForwardChangePercent  *float64 `json:"forward_change_percent"`
	BackwardChangePercent *float64 `json:"backward_change_percent"`
	Significant           bool     `json:"significant"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

func NewStatsReport(s perf.ComparativeStats) StatsReport {
	return StatsReport{
		Mean1:                 finite(s.Mean1),
		Mean2:                 finite(s.Mean2),
		Std1:                  finite(s.Std1),
		Std2:                  finite(s.Std2),
		N1:                    s.N1,
		N2:                    s.N2,
		PValue:                finite(s.PValue),
		Magnitude:             finite(s.ChangeMagnitude()),
		ForwardChangePercent:  finite(s.ForwardRelChange() * 100),
		BackwardChangePercent: finite(s.BackwardRelChange() * 100),
		Significant:           s.IsSignificant(),
	}
}

type ChangeReport struct {
	Metric  string      `json:"metric"`
	Index   int         `json:"index"`
	Verdict Verdict     `json:"verdict"`
	Stats   StatsReport `json:"stats"`
}

type GroupReport struct {
	Index          int               `json:"index"`
	Time           int64             `json:"time"`
	Date           string            `json:"date"`
	PrevTime       int64             `json:"prev_time"`
	Attributes     map[string]string `json:"attributes"`
	PrevAttributes map[string]string `json:"prev_attributes"`
	Changes        []ChangeReport    `json:"changes"`
}

type ChangePointsReport struct {
	Test    string                `json:"test"`
	Options model.AnalysisOptions `json:"options"`
	Groups  []GroupReport         `json:"change_points"`
}

// NewChangePointsReport describes the given change point groups of an
// analyzed series.
func NewChangePointsReport(analyzed *model.AnalyzedSeries, groups []model.ChangePointGroup, directions map[string]int) ChangePointsReport {
	out := ChangePointsReport{
		Test:    analyzed.TestName(),
		Options: analyzed.Options(),
		Groups:  make([]GroupReport, 0, len(groups)),
	}

	for _, group := range groups {
		gr := GroupReport{
			Index:          group.Index,
			Time:           group.Time,
			Date:           util.FormatTimestamp(group.Time),
			PrevTime:       group.PrevTime,
			Attributes:     group.Attributes,
			PrevAttributes: group.PrevAttributes,
			Changes:        make([]ChangeReport, 0, len(group.Changes)),
		}
		for _, cp := range group.Changes {
			gr.Changes = append(gr.Changes, ChangeReport{
				Metric:  cp.Metric,
				Index:   cp.Index,
				Verdict: Classify(cp.Stats, directions[cp.Metric]),
				Stats:   NewStatsReport(cp.Stats),
			})
		}
		out.Groups = append(out.Groups, gr)
	}

	return out
}

type MetricReport struct {
	Metric  string      `json:"metric"`
	Verdict Verdict     `json:"verdict"`
	Stats   StatsReport `json:"stats"`
}

type ComparisonReport struct {
	Test1   string         `json:"test_1"`
	Test2   string         `json:"test_2"`
	Index1  int            `json:"index_1"`
	Index2  int            `json:"index_2"`
	Metrics []MetricReport `json:"metrics"`
}

func NewComparisonReport(cmp *model.SeriesComparison, verdicts []MetricVerdict) ComparisonReport {
	out := ComparisonReport{
		Test1:   cmp.Series1.TestName(),
		Test2:   cmp.Series2.TestName(),
		Index1:  cmp.Index1,
		Index2:  cmp.Index2,
		Metrics: make([]MetricReport, 0, len(verdicts)),
	}
	for _, v := range verdicts {
		out.Metrics = append(out.Metrics, MetricReport{
			Metric:  v.Metric,
			Verdict: v.Verdict,
			Stats:   NewStatsReport(v.Stats),
		})
	}
	return out
}

package model

import (
	"sort"

	"github.com/pkg/errors"

	"github.com/evergreen-ci/plateau/perf"
)

// SeriesComparison holds, for every metric the two series share, the
// statistics comparing the stable segment around Index1 in Series1 with
// the stable segment around Index2 in Series2.
type SeriesComparison struct {
	Series1 *AnalyzedSeries
	Series2 *AnalyzedSeries
	Index1  int
	Index2  int
	Stats   map[string]perf.ComparativeStats
}

// Metrics returns the compared metric names in lexical order.
func (c *SeriesComparison) Metrics() []string { return sortedKeys(c.Stats) }

// Compare compares the performance of two series. A nil index selects
// the current state of the series, i.e. its last stable segment. Both
// series are tested with the significance threshold of series1.
func Compare(series1 *AnalyzedSeries, index1 *int, series2 *AnalyzedSeries, index2 *int) (*SeriesComparison, error) {
	if series1 == nil || series2 == nil {
		return nil, errors.New("cannot compare a nil series")
	}

	idx1 := series1.Len()
	if index1 != nil {
		idx1 = *index1
	}
	idx2 := series2.Len()
	if index2 != nil {
		idx2 = *index2
	}
	if err := checkCompareIndex(series1, idx1); err != nil {
		return nil, err
	}
	if err := checkCompareIndex(series2, idx2); err != nil {
		return nil, err
	}

	tester := perf.NewTTestSignificanceTester(series1.Options().MaxPValue)
	out := &SeriesComparison{
		Series1: series1,
		Series2: series2,
		Index1:  idx1,
		Index2:  idx2,
		Stats:   map[string]perf.ComparativeStats{},
	}

	for _, metric := range sharedMetrics(series1, series2) {
		data1, err := stableData(series1, metric, idx1)
		if err != nil {
			return nil, errors.Wrapf(err, "problem selecting data of test '%s'", series1.TestName())
		}
		data2, err := stableData(series2, metric, idx2)
		if err != nil {
			return nil, errors.Wrapf(err, "problem selecting data of test '%s'", series2.TestName())
		}

		out.Stats[metric] = tester.Compare(data1, data2)
	}

	return out, nil
}

// checkCompareIndex accepts [0, Len()], where Len() is the current state.
func checkCompareIndex(series *AnalyzedSeries, index int) error {
	if index < 0 || index > series.Len() {
		return newNotFoundError("index %d is out of range [0, %d] in test '%s'", index, series.Len(), series.TestName())
	}
	return nil
}

func sharedMetrics(series1, series2 *AnalyzedSeries) []string {
	out := []string{}
	for _, metric := range series1.Metrics() {
		if series2.Series().HasMetric(metric) {
			out = append(out, metric)
		}
	}
	sort.Strings(out)
	return out
}

// stableData returns the present values of the stable segment of the
// metric around index.
func stableData(series *AnalyzedSeries, metric string, index int) ([]float64, error) {
	begin, end, err := series.GetStableRange(metric, index)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	values, err := series.Data(metric)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	out := make([]float64, 0, end-begin)
	for _, v := range values[begin:end] {
		if !perf.IsMissing(v) {
			out = append(out, v)
		}
	}
	return out, nil
}

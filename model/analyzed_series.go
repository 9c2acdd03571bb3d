package model

import (
	"sort"
	"time"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"

	"github.com/evergreen-ci/plateau/perf"
)

// AnalyzedSeries is a Series together with the change points computed
// for each of its metrics. All analysis happens in the constructor;
// the result is read-only.
type AnalyzedSeries struct {
	series             *Series
	options            AnalysisOptions
	changePoints       map[string][]ChangePoint
	changePointsByTime []ChangePointGroup
}

func NewAnalyzedSeries(series *Series, opts AnalysisOptions) (*AnalyzedSeries, error) {
	if series == nil {
		return nil, errors.New("cannot analyze a nil series")
	}
	if err := opts.Validate(); err != nil {
		return nil, errors.WithStack(err)
	}

	startAt := time.Now()
	grip.Debug(message.Fields{
		"message": "computing change points",
		"test":    series.TestName(),
		"options": opts,
	})

	changePoints, err := computeChangePoints(series, opts)
	if err != nil {
		return nil, errors.Wrapf(err, "problem computing change points for test '%s'", series.TestName())
	}

	groups, err := groupChangePointsByTime(series, changePoints)
	if err != nil {
		return nil, errors.Wrapf(err, "problem grouping change points for test '%s'", series.TestName())
	}

	grip.Info(message.Fields{
		"message":       "computed change points",
		"test":          series.TestName(),
		"metrics":       len(changePoints),
		"change_points": countChangePoints(changePoints),
		"groups":        len(groups),
		"duration_secs": time.Since(startAt).Seconds(),
	})

	return &AnalyzedSeries{
		series:             series,
		options:            opts,
		changePoints:       changePoints,
		changePointsByTime: groups,
	}, nil
}

func computeChangePoints(series *Series, opts AnalysisOptions) (map[string][]ChangePoint, error) {
	detector := opts.detector()
	out := make(map[string][]ChangePoint, len(series.data))

	for _, metric := range series.Metrics() {
		values, err := series.Data(metric)
		if err != nil {
			return nil, errors.WithStack(err)
		}

		out[metric] = []ChangePoint{}
		perf.FillMissing(values)
		if len(values) > 0 && perf.IsMissing(values[0]) {
			grip.Warning(message.Fields{
				"message": "metric has no values, skipping change point detection",
				"test":    series.TestName(),
				"metric":  metric,
			})
			continue
		}

		detected, err := detector.DetectChanges(values)
		if err != nil {
			return nil, errors.Wrapf(err, "problem detecting change points for metric '%s'", metric)
		}

		for _, cp := range detected {
			ts, err := series.TimeAt(cp.Index)
			if err != nil {
				return nil, errors.Wrapf(err, "detector returned an invalid change point for metric '%s'", metric)
			}

			out[metric] = append(out[metric], ChangePoint{
				Metric: metric,
				Index:  cp.Index,
				Time:   ts,
				Stats:  cp.Stats,
			})
		}
	}

	return out, nil
}

// groupChangePointsByTime sorts all change points by index and collects
// every run of equal indexes into one group.
func groupChangePointsByTime(series *Series, changePoints map[string][]ChangePoint) ([]ChangePointGroup, error) {
	all := []ChangePoint{}
	for _, metric := range sortedKeys(changePoints) {
		all = append(all, changePoints[metric]...)
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].Index < all[j].Index })

	groups := []ChangePointGroup{}
	for start := 0; start < len(all); {
		end := start + 1
		for end < len(all) && all[end].Index == all[start].Index {
			end++
		}

		group, err := newChangePointGroup(series, all[start:end])
		if err != nil {
			return nil, errors.WithStack(err)
		}
		groups = append(groups, group)
		start = end
	}

	return groups, nil
}

func newChangePointGroup(series *Series, changes []ChangePoint) (ChangePointGroup, error) {
	index := changes[0].Index
	group := ChangePointGroup{
		Index:   index,
		Time:    changes[0].Time,
		Changes: append([]ChangePoint{}, changes...),
	}

	var err error
	if group.PrevTime, err = series.TimeAt(index - 1); err != nil {
		return ChangePointGroup{}, errors.Wrapf(err, "change point at index %d has no previous observation", index)
	}
	if group.Attributes, err = series.AttributesAt(index); err != nil {
		return ChangePointGroup{}, errors.WithStack(err)
	}
	if group.PrevAttributes, err = series.AttributesAt(index - 1); err != nil {
		return ChangePointGroup{}, errors.WithStack(err)
	}

	return group, nil
}

func countChangePoints(changePoints map[string][]ChangePoint) int {
	count := 0
	for _, cps := range changePoints {
		count += len(cps)
	}
	return count
}

// GetStableRange returns the bounds [begin, end) of the segment of the
// metric around index that contains no change point: begin is the last
// change point at or before index (or 0) and end is the first change
// point after index (or the length of the series). The index may equal
// the length of the series, which addresses the current state.
func (a *AnalyzedSeries) GetStableRange(metric string, index int) (int, int, error) {
	changePoints, ok := a.changePoints[metric]
	if !ok {
		return 0, 0, newNotFoundError("metric '%s' not found in test '%s'", metric, a.TestName())
	}
	if index < 0 || index > a.series.Len() {
		return 0, 0, newNotFoundError("index %d is out of range [0, %d] in test '%s'", index, a.series.Len(), a.TestName())
	}

	// first change point strictly after index
	pos := sort.Search(len(changePoints), func(i int) bool { return changePoints[i].Index > index })

	begin, end := 0, a.series.Len()
	if pos > 0 {
		begin = changePoints[pos-1].Index
	}
	if pos < len(changePoints) {
		end = changePoints[pos].Index
	}

	return begin, end, nil
}

// ChangePoints returns the change points of one metric ordered by index.
func (a *AnalyzedSeries) ChangePoints(metric string) ([]ChangePoint, error) {
	changePoints, ok := a.changePoints[metric]
	if !ok {
		return nil, newNotFoundError("metric '%s' not found in test '%s'", metric, a.TestName())
	}
	return append([]ChangePoint{}, changePoints...), nil
}

// AllChangePoints returns the change points of every metric.
func (a *AnalyzedSeries) AllChangePoints() map[string][]ChangePoint {
	out := make(map[string][]ChangePoint, len(a.changePoints))
	for metric, changePoints := range a.changePoints {
		out[metric] = append([]ChangePoint{}, changePoints...)
	}
	return out
}

// ChangePointsByTime returns the change point groups ordered by index.
func (a *AnalyzedSeries) ChangePointsByTime() []ChangePointGroup {
	return copyGroups(a.changePointsByTime)
}

// ChangePointsSince returns the groups whose time is at or after ts.
func (a *AnalyzedSeries) ChangePointsSince(ts int64) []ChangePointGroup {
	pos := sort.Search(len(a.changePointsByTime), func(i int) bool { return a.changePointsByTime[i].Time >= ts })
	return copyGroups(a.changePointsByTime[pos:])
}

func copyGroups(groups []ChangePointGroup) []ChangePointGroup {
	out := make([]ChangePointGroup, 0, len(groups))
	for _, group := range groups {
		out = append(out, group.copy())
	}
	return out
}

func (a *AnalyzedSeries) Series() *Series          { return a.series }
func (a *AnalyzedSeries) Options() AnalysisOptions { return a.options }
func (a *AnalyzedSeries) TestName() string         { return a.series.TestName() }
func (a *AnalyzedSeries) Time() []int64            { return a.series.Time() }
func (a *AnalyzedSeries) Len() int                 { return a.series.Len() }
func (a *AnalyzedSeries) Metrics() []string        { return a.series.Metrics() }
func (a *AnalyzedSeries) Attributes() []string     { return a.series.Attributes() }

func (a *AnalyzedSeries) Data(metric string) ([]float64, error) {
	return a.series.Data(metric)
}

func (a *AnalyzedSeries) AttributeValues(name string) ([]string, error) {
	return a.series.AttributeValues(name)
}

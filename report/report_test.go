package report

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/evergreen-ci/plateau/model"
	"github.com/evergreen-ci/plateau/perf"
)

func init() {
	color.NoColor = true
}

func constant(value float64, count int) []float64 {
	out := make([]float64, count)
	for i := range out {
		out[i] = value
	}
	return out
}

func analyzedStep(t *testing.T) *model.AnalyzedSeries {
	times := make([]int64, 200)
	versions := make([]string, 200)
	for i := range times {
		times[i] = int64(1000 + i*10)
		versions[i] = fmt.Sprintf("v%d", i)
	}

	series, err := model.NewSeries("step", times,
		map[string][]float64{
			"latency":    append(constant(10, 100), constant(20, 100)...),
			"throughput": append(constant(5, 100), constant(4, 100)...),
		},
		map[string][]string{"version": versions})
	require.NoError(t, err)

	analyzed, err := series.Analyze(model.DefaultAnalysisOptions())
	require.NoError(t, err)
	return analyzed
}

func TestClassify(t *testing.T) {
	tester := perf.NewTTestSignificanceTester(0.01)
	up := tester.Compare([]float64{1, 1, 1}, []float64{2, 2, 2})
	down := tester.Compare([]float64{2, 2, 2}, []float64{1, 1, 1})
	same := tester.Compare([]float64{1, 2, 1, 2}, []float64{1, 2, 1, 2})

	for _, test := range []struct {
		name      string
		stats     perf.ComparativeStats
		direction int
		expected  Verdict
	}{
		{name: "IncreaseBiggerIsBetter", stats: up, direction: 1, expected: Improvement},
		{name: "IncreaseSmallerIsBetter", stats: up, direction: -1, expected: Regression},
		{name: "DecreaseBiggerIsBetter", stats: down, direction: 1, expected: Regression},
		{name: "DecreaseSmallerIsBetter", stats: down, direction: -1, expected: Improvement},
		{name: "NoDirection", stats: up, direction: 0, expected: Unchanged},
		{name: "NotSignificant", stats: same, direction: 1, expected: Unchanged},
	} {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.expected, Classify(test.stats, test.direction))
		})
	}
}

func TestRegressions(t *testing.T) {
	opts := model.DefaultAnalysisOptions()
	newAnalyzed := func(name string, x, y float64) *model.AnalyzedSeries {
		series, err := model.NewSeries(name, []int64{1, 2, 3, 4},
			map[string][]float64{"x": constant(x, 4), "y": constant(y, 4)}, nil)
		require.NoError(t, err)
		analyzed, err := series.Analyze(opts)
		require.NoError(t, err)
		return analyzed
	}

	cmp, err := model.Compare(newAnalyzed("a", 1, 5), nil, newAnalyzed("b", 2, 5), nil)
	require.NoError(t, err)

	verdicts := Regressions(cmp, map[string]int{"x": -1, "y": 1})
	require.Len(t, verdicts, 2)
	assert.Equal(t, "x", verdicts[0].Metric)
	assert.Equal(t, Regression, verdicts[0].Verdict)
	assert.Equal(t, "y", verdicts[1].Metric)
	assert.Equal(t, Unchanged, verdicts[1].Verdict)

	assert.Len(t, Filter(verdicts, Regression), 1)
	assert.Empty(t, Filter(verdicts, Improvement))

	t.Run("Table", func(t *testing.T) {
		buf := &bytes.Buffer{}
		ComparisonTable(buf, verdicts)
		out := buf.String()
		assert.Contains(t, out, "regression")
		assert.Contains(t, out, "unchanged")
		assert.Contains(t, out, "+100.0%")
	})
	t.Run("JSON", func(t *testing.T) {
		data, err := json.Marshal(NewComparisonReport(cmp, verdicts))
		require.NoError(t, err)

		out := struct {
			Test1   string `json:"test_1"`
			Index2  int    `json:"index_2"`
			Metrics []struct {
				Metric  string                 `json:"metric"`
				Verdict string                 `json:"verdict"`
				Stats   map[string]interface{} `json:"stats"`
			} `json:"metrics"`
		}{}
		require.NoError(t, json.Unmarshal(data, &out))
		assert.Equal(t, "a", out.Test1)
		assert.Equal(t, 4, out.Index2)
		require.Len(t, out.Metrics, 2)
		assert.Equal(t, "regression", out.Metrics[0].Verdict)
		assert.Nil(t, out.Metrics[0].Stats["magnitude"])
		assert.Equal(t, 0.0, out.Metrics[0].Stats["pvalue"])
	})
}

func TestChangePoints(t *testing.T) {
	analyzed := analyzedStep(t)
	groups := analyzed.ChangePointsByTime()
	require.Len(t, groups, 1)
	directions := map[string]int{"latency": -1, "throughput": 1}

	t.Run("Table", func(t *testing.T) {
		buf := &bytes.Buffer{}
		ChangePointsTable(buf, groups, directions)
		out := buf.String()
		assert.Contains(t, out, "version")
		assert.Contains(t, out, "v100")
		assert.Contains(t, out, "latency")
		assert.Contains(t, out, "throughput")
		assert.Contains(t, out, "+100.0%")
		assert.Contains(t, out, "-20.0%")
		assert.Contains(t, out, "inf")
	})
	t.Run("EmptyTable", func(t *testing.T) {
		buf := &bytes.Buffer{}
		ChangePointsTable(buf, nil, nil)
		assert.Contains(t, buf.String(), "metric")
	})
	t.Run("JSON", func(t *testing.T) {
		report := NewChangePointsReport(analyzed, groups, directions)
		assert.Equal(t, "step", report.Test)
		require.Len(t, report.Groups, 1)
		assert.Equal(t, 100, report.Groups[0].Index)
		assert.Equal(t, "v99", report.Groups[0].PrevAttributes["version"])
		require.Len(t, report.Groups[0].Changes, 2)
		assert.Equal(t, Regression, report.Groups[0].Changes[0].Verdict)
		assert.Equal(t, Regression, report.Groups[0].Changes[1].Verdict)
		assert.Nil(t, report.Groups[0].Changes[0].Stats.Magnitude)
		require.NotNil(t, report.Groups[0].Changes[0].Stats.ForwardChangePercent)
		assert.InDelta(t, 100, *report.Groups[0].Changes[0].Stats.ForwardChangePercent, 1e-9)

		_, err := json.Marshal(report)
		assert.NoError(t, err)
	})
}

func TestFormatting(t *testing.T) {
	assert.Equal(t, "+12.3%", formatSignedPercent(12.34))
	assert.Equal(t, "-5.0%", formatSignedPercent(-5))
	assert.Equal(t, "0.0%", formatSignedPercent(0))
	assert.Equal(t, "inf", formatFloat(math.Inf(1), 3))
	assert.Equal(t, "0.00123", formatFloat(0.00123, 3))
}

func TestShortMetricNames(t *testing.T) {
	assert.Equal(t, map[string]string{
		"ycsb.load.throughput": "throughput",
		"ycsb.load.latency":    "latency",
	}, shortMetricNames([]string{"ycsb.load.throughput", "ycsb.load.latency", "ycsb.load.throughput"}))
	assert.Equal(t, map[string]string{"a": "a", "b.c": "b.c"}, shortMetricNames([]string{"b.c", "a"}))
	assert.Empty(t, shortMetricNames(nil))
}

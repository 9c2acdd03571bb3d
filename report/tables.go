package report

import (
	"io"
	"sort"

	"github.com/olekukonko/tablewriter"

	"github.com/evergreen-ci/plateau/model"
	"github.com/evergreen-ci/plateau/util"
)

const metricSeparator = "."

// ChangePointsTable prints one row per change point; the time and the
// attributes are printed on the first row of each group.
func ChangePointsTable(w io.Writer, groups []model.ChangePointGroup, directions map[string]int) {
	attributes := attributeNames(groups)
	metrics := []string{}
	for _, group := range groups {
		for _, cp := range group.Changes {
			metrics = append(metrics, cp.Metric)
		}
	}
	names := shortMetricNames(metrics)

	table := tablewriter.NewWriter(w)
	table.SetHeader(append(append([]string{"time"}, attributes...), "metric", "change", "p-value", "magnitude"))
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	for _, group := range groups {
		for i, cp := range group.Changes {
			row := make([]string, 0, len(attributes)+5)
			if i == 0 {
				row = append(row, util.FormatTimestamp(group.Time))
				for _, attr := range attributes {
					row = append(row, group.Attributes[attr])
				}
			} else {
				for range attributes {
					row = append(row, "")
				}
				row = append(row, "")
			}

			verdict := Classify(cp.Stats, directions[cp.Metric])
			row = append(row,
				names[cp.Metric],
				verdict.colorize(formatSignedPercent(cp.ForwardChangePercent())),
				formatFloat(cp.Stats.PValue, 3),
				formatFloat(cp.Magnitude(), 3),
			)
			table.Append(row)
		}
	}

	table.Render()
}

func attributeNames(groups []model.ChangePointGroup) []string {
	names := make([][]string, 0, len(groups))
	for _, group := range groups {
		attrs := make([]string, 0, len(group.Attributes))
		for attr := range group.Attributes {
			attrs = append(attrs, attr)
		}
		sort.Strings(attrs)
		names = append(names, attrs)
	}
	return util.MergeSorted(names...)
}

// shortMetricNames maps every metric to its name without the dotted
// prefix shared by all of them.
func shortMetricNames(metrics []string) map[string]string {
	metrics = util.MergeSorted(metrics)
	short := util.RemoveCommonPrefix(metrics, metricSeparator)

	out := make(map[string]string, len(metrics))
	for idx, metric := range metrics {
		out[metric] = short[idx]
	}
	return out
}

// ComparisonTable prints the verdict of every compared metric.
func ComparisonTable(w io.Writer, verdicts []MetricVerdict) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"metric", "old", "new", "change", "p-value", "verdict"})
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetBorder(false)

	metrics := make([]string, 0, len(verdicts))
	for _, v := range verdicts {
		metrics = append(metrics, v.Metric)
	}
	names := shortMetricNames(metrics)

	for _, v := range verdicts {
		table.Append([]string{
			names[v.Metric],
			formatFloat(v.Stats.Mean1, 4),
			formatFloat(v.Stats.Mean2, 4),
			formatSignedPercent(v.Stats.ForwardRelChange() * 100),
			formatFloat(v.Stats.PValue, 3),
			v.Verdict.colorize(string(v.Verdict)),
		})
	}

	table.Render()
}

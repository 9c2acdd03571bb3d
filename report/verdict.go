// Package report renders change points and comparisons as text tables
// or JSON documents.
package report

import (
	"math"
	"strconv"

	"github.com/fatih/color"

	"github.com/evergreen-ci/plateau/perf"
)

// Verdict classifies a performance shift with respect to the direction
// in which a metric improves.
type Verdict string

const (
	Regression  Verdict = "regression"
	Improvement Verdict = "improvement"
	Unchanged   Verdict = "unchanged"
)

// Classify returns Unchanged for shifts that are not significant or for
// metrics without a direction. A direction of 1 means bigger is better.
func Classify(stats perf.ComparativeStats, direction int) Verdict {
	if !stats.IsSignificant() || direction == 0 {
		return Unchanged
	}

	diff := stats.Mean2 - stats.Mean1
	switch {
	case diff*float64(direction) > 0:
		return Improvement
	case diff*float64(direction) < 0:
		return Regression
	default:
		return Unchanged
	}
}

func (v Verdict) colorize(text string) string {
	switch v {
	case Regression:
		return color.RedString(text)
	case Improvement:
		return color.GreenString(text)
	default:
		return text
	}
}

func formatPercent(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

func formatSignedPercent(v float64) string {
	if v > 0 {
		return "+" + formatPercent(v)
	}
	return formatPercent(v)
}

func formatFloat(v float64, precision int) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "n/a"
	}
	return strconv.FormatFloat(v, 'g', precision, 64)
}

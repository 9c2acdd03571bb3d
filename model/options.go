package model

import (
	"math"

	"github.com/mongodb/grip"
	"github.com/pkg/errors"

	"github.com/evergreen-ci/plateau/perf"
)

const (
	DefaultWindowLen    = 50
	DefaultMaxPValue    = 0.001
	DefaultMinMagnitude = 0.0
)

// AnalysisOptions configures change point detection. Values are copied
// into every analysis, so changing a local copy never affects an
// analysis that already ran.
type AnalysisOptions struct {
	// WindowLen is the number of observations considered on each side
	// of a candidate change point.
	WindowLen int `bson:"window_len" json:"window_len" yaml:"window_len"`

	// MaxPValue is the significance threshold; smaller is stricter.
	MaxPValue float64 `bson:"max_pvalue" json:"max_pvalue" yaml:"max_pvalue"`

	// MinMagnitude is the smallest effect size reported.
	MinMagnitude float64 `bson:"min_magnitude" json:"min_magnitude" yaml:"min_magnitude"`
}

func DefaultAnalysisOptions() AnalysisOptions {
	return AnalysisOptions{
		WindowLen:    DefaultWindowLen,
		MaxPValue:    DefaultMaxPValue,
		MinMagnitude: DefaultMinMagnitude,
	}
}

func (o AnalysisOptions) Validate() error {
	catcher := grip.NewBasicCatcher()

	catcher.NewWhen(o.WindowLen < 1, "window length must be positive")
	catcher.NewWhen(!(o.MaxPValue > 0 && o.MaxPValue <= 1), "max p-value must be in (0, 1]")
	catcher.NewWhen(math.IsNaN(o.MinMagnitude) || math.IsInf(o.MinMagnitude, 0) || o.MinMagnitude < 0,
		"min magnitude must be a non-negative number")

	return errors.Wrap(catcher.Resolve(), "invalid analysis options")
}

func (o AnalysisOptions) detector() perf.ChangeDetector {
	return perf.NewWindowedDetector(o.WindowLen, o.MaxPValue, o.MinMagnitude)
}

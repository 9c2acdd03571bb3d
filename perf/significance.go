package perf

import (
	"math"

	"github.com/aclements/go-moremath/stats"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// equalMeansTolerance is the relative difference under which two means
// are treated as identical. Summing the same constant a different
// number of times can disagree in the last bits, which would otherwise
// look like an infinitely significant shift.
const equalMeansTolerance = 1e-9

// ComparativeStats summarizes how a sample (the "after", or second,
// side) differs from a reference sample (the "before", or first, side).
type ComparativeStats struct {
	Mean1     float64 `bson:"mean_1" json:"mean_1" yaml:"mean_1"`
	Mean2     float64 `bson:"mean_2" json:"mean_2" yaml:"mean_2"`
	Std1      float64 `bson:"std_1" json:"std_1" yaml:"std_1"`
	Std2      float64 `bson:"std_2" json:"std_2" yaml:"std_2"`
	N1        int     `bson:"n_1" json:"n_1" yaml:"n_1"`
	N2        int     `bson:"n_2" json:"n_2" yaml:"n_2"`
	PValue    float64 `bson:"p_value" json:"p_value" yaml:"p_value"`
	Magnitude float64 `bson:"magnitude" json:"magnitude" yaml:"magnitude"`

	significant bool
}

// ForwardRelChange is the change of the second mean relative to the
// first one, e.g. 1.0 when the mean doubled.
func (s ComparativeStats) ForwardRelChange() float64 {
	if s.Mean1 == 0 {
		return 0
	}
	return (s.Mean2 - s.Mean1) / math.Abs(s.Mean1)
}

// BackwardRelChange is the same difference relative to the second mean.
func (s ComparativeStats) BackwardRelChange() float64 {
	if s.Mean2 == 0 {
		return 0
	}
	return (s.Mean2 - s.Mean1) / math.Abs(s.Mean2)
}

// ChangeMagnitude is the standardized effect size (Cohen's d). It is
// +Inf for a shift between two constant samples.
func (s ComparativeStats) ChangeMagnitude() float64 { return s.Magnitude }

// IsSignificant reports whether the p-value was below the threshold the
// tester was configured with.
func (s ComparativeStats) IsSignificant() bool { return s.significant }

// SignificanceTester compares two samples.
type SignificanceTester interface {
	Compare(a, b []float64) ComparativeStats
}

// TTestSignificanceTester runs a two-sided Welch t-test.
type TTestSignificanceTester struct {
	MaxPValue float64
}

func NewTTestSignificanceTester(maxPValue float64) *TTestSignificanceTester {
	return &TTestSignificanceTester{MaxPValue: maxPValue}
}

func (t *TTestSignificanceTester) Compare(a, b []float64) ComparativeStats {
	out := ComparativeStats{
		N1:        len(a),
		N2:        len(b),
		PValue:    1.0,
		Magnitude: 0.0,
	}
	out.Mean1, out.Std1 = describe(a)
	out.Mean2, out.Std2 = describe(b)

	if out.N1 < 2 || out.N2 < 2 {
		return out
	}

	diff := math.Abs(out.Mean2 - out.Mean1)
	if diff <= equalMeansTolerance*math.Max(math.Abs(out.Mean1), math.Abs(out.Mean2)) {
		return out
	}

	if out.Std1 == 0 && out.Std2 == 0 {
		out.PValue = 0
		out.Magnitude = math.Inf(1)
		out.significant = out.PValue < t.MaxPValue
		return out
	}

	res, err := stats.TwoSampleWelchTTest(&stats.Sample{Xs: a}, &stats.Sample{Xs: b}, stats.LocationDiffers)
	if err != nil || math.IsNaN(res.P) {
		return out
	}

	out.PValue = res.P
	out.Magnitude = diff / pooledStdDev(out)
	out.significant = out.PValue < t.MaxPValue
	return out
}

func describe(xs []float64) (float64, float64) {
	switch len(xs) {
	case 0:
		return 0, 0
	case 1:
		return xs[0], 0
	}

	// summation error would otherwise give a constant sample a spread
	if floats.Min(xs) == floats.Max(xs) {
		return xs[0], 0
	}

	return stat.MeanStdDev(xs, nil)
}

func pooledStdDev(s ComparativeStats) float64 {
	n1, n2 := float64(s.N1), float64(s.N2)
	return math.Sqrt(((n1-1)*s.Std1*s.Std1 + (n2-1)*s.Std2*s.Std2) / (n1 + n2 - 2))
}

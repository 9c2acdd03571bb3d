package model

import (
	"math"
	"sort"

	"github.com/mongodb/grip"
	"github.com/pkg/errors"
)

// Series stores the values of the metrics of all runs of a single test,
// indexed by a shared time axis. Every metric and attribute sequence is
// aligned with the time axis, so index i of each refers to the same run.
//
// A Series is immutable: the constructor copies its inputs and the
// accessors return copies.
type Series struct {
	testName   string
	time       []int64
	data       map[string][]float64
	attributes map[string][]string
}

// NewSeries validates and copies the given sequences. Times are unix
// timestamps and must be strictly increasing. Missing metric values are
// NaN; infinite values are rejected.
func NewSeries(testName string, time []int64, data map[string][]float64, attributes map[string][]string) (*Series, error) {
	catcher := grip.NewBasicCatcher()

	for i := 1; i < len(time); i++ {
		if time[i] <= time[i-1] {
			catcher.Errorf("time is not strictly increasing at index %d", i)
			break
		}
	}

	for _, metric := range sortedKeys(data) {
		values := data[metric]
		if len(values) != len(time) {
			catcher.Errorf("metric '%s' has %d values, expected %d", metric, len(values), len(time))
			continue
		}
		for i, v := range values {
			if math.IsInf(v, 0) {
				catcher.Errorf("metric '%s' has an infinite value at index %d", metric, i)
				break
			}
		}
	}

	for _, name := range sortedKeys(attributes) {
		if len(attributes[name]) != len(time) {
			catcher.Errorf("attribute '%s' has %d values, expected %d", name, len(attributes[name]), len(time))
		}
	}

	if catcher.HasErrors() {
		return nil, errors.Wrapf(catcher.Resolve(), "invalid series for test '%s'", testName)
	}

	s := &Series{
		testName:   testName,
		time:       append([]int64{}, time...),
		data:       make(map[string][]float64, len(data)),
		attributes: make(map[string][]string, len(attributes)),
	}
	for metric, values := range data {
		s.data[metric] = append([]float64{}, values...)
	}
	for name, values := range attributes {
		s.attributes[name] = append([]string{}, values...)
	}

	return s, nil
}

func (s *Series) TestName() string { return s.testName }
func (s *Series) Len() int         { return len(s.time) }
func (s *Series) Time() []int64    { return append([]int64{}, s.time...) }

// Metrics returns the metric names in lexical order.
func (s *Series) Metrics() []string { return sortedKeys(s.data) }

// Attributes returns the attribute names in lexical order.
func (s *Series) Attributes() []string { return sortedKeys(s.attributes) }

func (s *Series) HasMetric(metric string) bool {
	_, ok := s.data[metric]
	return ok
}

func (s *Series) TimeAt(index int) (int64, error) {
	if err := s.checkIndex(index); err != nil {
		return 0, err
	}
	return s.time[index], nil
}

// Data returns a copy of the values of a metric.
func (s *Series) Data(metric string) ([]float64, error) {
	values, ok := s.data[metric]
	if !ok {
		return nil, newNotFoundError("metric '%s' not found in test '%s'", metric, s.testName)
	}
	return append([]float64{}, values...), nil
}

func (s *Series) AttributeValues(name string) ([]string, error) {
	values, ok := s.attributes[name]
	if !ok {
		return nil, newNotFoundError("attribute '%s' not found in test '%s'", name, s.testName)
	}
	return append([]string{}, values...), nil
}

// AttributesAt returns the value of every attribute at the given index.
func (s *Series) AttributesAt(index int) (map[string]string, error) {
	if err := s.checkIndex(index); err != nil {
		return nil, err
	}

	out := make(map[string]string, len(s.attributes))
	for name, values := range s.attributes {
		out[name] = values[index]
	}
	return out, nil
}

func (s *Series) checkIndex(index int) error {
	if index < 0 || index >= len(s.time) {
		return newNotFoundError("index %d is out of range [0, %d) in test '%s'", index, len(s.time), s.testName)
	}
	return nil
}

// Analyze computes the change points of every metric.
func (s *Series) Analyze(opts AnalysisOptions) (*AnalyzedSeries, error) {
	return NewAnalyzedSeries(s, opts)
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

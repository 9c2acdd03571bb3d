// Package importer loads the observations of configured tests into
// series, from CSV files kept in blob storage or from MongoDB.
package importer

import (
	"context"
	"math"
	"sort"

	"github.com/pkg/errors"

	"github.com/evergreen-ci/plateau"
	"github.com/evergreen-ci/plateau/model"
)

// Importer reads the observations of a test.
type Importer interface {
	// FetchSeries reads every observation of the test, ordered by time.
	FetchSeries(context.Context, plateau.TestConfig) (*model.Series, error)
	// FetchMetricNames lists the metrics available for the test.
	FetchMetricNames(context.Context, plateau.TestConfig) ([]string, error)
}

// New returns the importer able to read the given test, built from the
// shared resources of the environment.
func New(ctx context.Context, env plateau.Environment, test plateau.TestConfig) (Importer, error) {
	conf, err := env.GetConf()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	switch test.Type {
	case plateau.SourceCSV:
		bucket, err := BucketType(conf.Bucket.Type).Create(ctx, conf.Bucket)
		if err != nil {
			return nil, errors.Wrap(err, "problem opening csv bucket")
		}
		return NewCSVImporter(bucket), nil
	case plateau.SourceMongoDB:
		db, err := env.GetDB()
		if err != nil {
			return nil, errors.WithStack(err)
		}
		return NewMongoImporter(db), nil
	default:
		return nil, errors.Errorf("no importer for test type '%s'", test.Type)
	}
}

// observation is one run of a test: a timestamp, one value per metric
// and one value per attribute.
type observation struct {
	time       int64
	values     []float64
	attributes []string
}

// buildSeries sorts the observations by time, keeps the last of those
// sharing a timestamp and transposes them into a series.
func buildSeries(testName string, metrics, attributes []string, observations []observation) (*model.Series, error) {
	sortObservations(observations)
	observations = dedupObservations(observations)

	times := make([]int64, len(observations))
	data := make(map[string][]float64, len(metrics))
	for _, metric := range metrics {
		data[metric] = make([]float64, len(observations))
	}
	attrs := make(map[string][]string, len(attributes))
	for _, attr := range attributes {
		attrs[attr] = make([]string, len(observations))
	}

	for i, obs := range observations {
		times[i] = obs.time
		for j, metric := range metrics {
			data[metric][i] = obs.values[j]
		}
		for j, attr := range attributes {
			attrs[attr][i] = obs.attributes[j]
		}
	}

	series, err := model.NewSeries(testName, times, data, attrs)
	return series, errors.WithStack(err)
}

func sortObservations(observations []observation) {
	// stable, so that the last of several rows with one timestamp wins
	sort.SliceStable(observations, func(i, j int) bool { return observations[i].time < observations[j].time })
}

func dedupObservations(observations []observation) []observation {
	out := observations[:0]
	for _, obs := range observations {
		if len(out) > 0 && out[len(out)-1].time == obs.time {
			out[len(out)-1] = obs
			continue
		}
		out = append(out, obs)
	}
	return out
}

// scaleValue applies the configured scale, mapping non-finite values to
// the missing marker.
func scaleValue(value, scale float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return math.NaN()
	}
	return value * scale
}

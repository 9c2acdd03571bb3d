package importer

import (
	"context"
	"math"
	"sort"

	"github.com/mongodb/anser/bsonutil"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/evergreen-ci/plateau"
	"github.com/evergreen-ci/plateau/model"
	"github.com/evergreen-ci/plateau/util"
)

// Observation is the document stored for one run of a test. Time is in
// unix seconds; absent metrics are missing values.
type Observation struct {
	TestName   string             `bson:"test_name" json:"test_name" yaml:"test_name"`
	Time       int64              `bson:"time" json:"time" yaml:"time"`
	Metrics    map[string]float64 `bson:"metrics" json:"metrics" yaml:"metrics"`
	Attributes map[string]string  `bson:"attributes" json:"attributes" yaml:"attributes"`
}

var (
	observationTestNameKey   = bsonutil.MustHaveTag(Observation{}, "TestName")
	observationTimeKey       = bsonutil.MustHaveTag(Observation{}, "Time")
	observationMetricsKey    = bsonutil.MustHaveTag(Observation{}, "Metrics")
	observationAttributesKey = bsonutil.MustHaveTag(Observation{}, "Attributes")
)

// MongoImporter reads tests from collections of Observation documents.
type MongoImporter struct {
	db *mongo.Database
}

func NewMongoImporter(db *mongo.Database) *MongoImporter {
	return &MongoImporter{db: db}
}

func testFilter(test plateau.TestConfig) bson.M {
	name := test.Filter
	if name == "" {
		name = test.Name
	}
	return bson.M{observationTestNameKey: name}
}

func (i *MongoImporter) FetchSeries(ctx context.Context, test plateau.TestConfig) (*model.Series, error) {
	if test.Type != plateau.SourceMongoDB {
		return nil, errors.Errorf("test '%s' is not a mongodb test", test.Name)
	}

	docs := []Observation{}
	opts := options.Find().SetSort(bson.D{{Key: observationTimeKey, Value: 1}})
	if test.HasMetrics() {
		opts.SetProjection(projection(test))
	}
	cur, err := i.db.Collection(test.Collection).Find(ctx, testFilter(test), opts)
	if err != nil {
		return nil, errors.Wrapf(err, "problem finding observations of test '%s'", test.Name)
	}
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrapf(err, "problem decoding observations of test '%s'", test.Name)
	}

	metrics, scales, keys := i.metricColumns(test, docs)

	observations := make([]observation, 0, len(docs))
	for _, doc := range docs {
		obs := observation{
			time:       doc.Time,
			values:     make([]float64, len(metrics)),
			attributes: make([]string, len(test.Attributes)),
		}
		for j := range metrics {
			value, ok := doc.Metrics[keys[j]]
			if !ok {
				value = math.NaN()
			}
			obs.values[j] = scaleValue(value, scales[j])
		}
		for j, attr := range test.Attributes {
			obs.attributes[j] = doc.Attributes[attr]
		}
		observations = append(observations, obs)
	}

	grip.Debug(message.Fields{
		"message":      "read observations",
		"test":         test.Name,
		"collection":   test.Collection,
		"observations": len(observations),
	})

	return buildSeries(test.Name, metrics, test.Attributes, observations)
}

// projection selects the configured metrics and attributes.
func projection(test plateau.TestConfig) bson.M {
	out := bson.M{observationTimeKey: 1}
	for _, metric := range test.Metrics {
		key := metric.Column
		if key == "" {
			key = metric.Name
		}
		out[bsonutil.GetDottedKeyName(observationMetricsKey, key)] = 1
	}
	for _, attr := range test.Attributes {
		out[bsonutil.GetDottedKeyName(observationAttributesKey, attr)] = 1
	}
	return out
}

// metricColumns returns the metric names with the scale and document key
// of each. Without configured metrics every key seen in the documents is
// a metric.
func (i *MongoImporter) metricColumns(test plateau.TestConfig, docs []Observation) ([]string, []float64, []string) {
	if test.HasMetrics() {
		names := make([]string, 0, len(test.Metrics))
		scales := make([]float64, 0, len(test.Metrics))
		keys := make([]string, 0, len(test.Metrics))
		for _, metric := range test.Metrics {
			key := metric.Column
			if key == "" {
				key = metric.Name
			}
			scale := metric.Scale
			if scale == 0 {
				scale = 1
			}
			names = append(names, metric.Name)
			scales = append(scales, scale)
			keys = append(keys, key)
		}
		return names, scales, keys
	}

	names := metricKeys(docs)
	scales := make([]float64, len(names))
	for j := range scales {
		scales[j] = 1
	}
	return names, scales, names
}

func metricKeys(docs []Observation) []string {
	keys := make([][]string, 0, len(docs))
	for _, doc := range docs {
		names := make([]string, 0, len(doc.Metrics))
		for key := range doc.Metrics {
			names = append(names, key)
		}
		sort.Strings(names)
		keys = append(keys, names)
	}
	return util.MergeSorted(keys...)
}

func (i *MongoImporter) FetchMetricNames(ctx context.Context, test plateau.TestConfig) ([]string, error) {
	if test.HasMetrics() {
		names, _, _ := i.metricColumns(test, nil)
		return names, nil
	}

	docs := []Observation{}
	opts := options.Find().SetProjection(bson.M{observationMetricsKey: 1})
	cur, err := i.db.Collection(test.Collection).Find(ctx, testFilter(test), opts)
	if err != nil {
		return nil, errors.Wrapf(err, "problem finding observations of test '%s'", test.Name)
	}
	if err = cur.All(ctx, &docs); err != nil {
		return nil, errors.Wrapf(err, "problem decoding observations of test '%s'", test.Name)
	}

	return metricKeys(docs), nil
}

// NewObservations converts a series into documents, leaving out missing
// values.
func NewObservations(series *model.Series) ([]Observation, error) {
	times := series.Time()
	out := make([]Observation, len(times))
	for idx, ts := range times {
		attrs, err := series.AttributesAt(idx)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		out[idx] = Observation{
			TestName:   series.TestName(),
			Time:       ts,
			Metrics:    map[string]float64{},
			Attributes: attrs,
		}
	}

	for _, metric := range series.Metrics() {
		values, err := series.Data(metric)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		for idx, value := range values {
			if !math.IsNaN(value) {
				out[idx].Metrics[metric] = value
			}
		}
	}

	return out, nil
}

// SaveObservations replaces the observations of the test named in the
// documents with the given ones.
func SaveObservations(ctx context.Context, coll *mongo.Collection, testName string, docs []Observation) error {
	batch := make([]interface{}, len(docs))
	for idx := range docs {
		if docs[idx].TestName != testName {
			return errors.Errorf("observation %d belongs to test '%s', not '%s'", idx, docs[idx].TestName, testName)
		}
		batch[idx] = docs[idx]
	}

	if _, err := coll.DeleteMany(ctx, bson.M{observationTestNameKey: testName}); err != nil {
		return errors.Wrapf(err, "problem removing observations of test '%s'", testName)
	}
	if len(batch) == 0 {
		return nil
	}
	if _, err := coll.InsertMany(ctx, batch); err != nil {
		return errors.Wrapf(err, "problem saving observations of test '%s'", testName)
	}

	grip.Info(message.Fields{
		"message":      "saved observations",
		"test":         testName,
		"collection":   coll.Name(),
		"observations": len(docs),
	})
	return nil
}

// EnsureIndexes creates the index serving the queries of the importer.
func EnsureIndexes(ctx context.Context, coll *mongo.Collection) error {
	_, err := coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: observationTestNameKey, Value: 1},
			{Key: observationTimeKey, Value: 1},
		},
	})
	return errors.Wrapf(err, "problem creating index on '%s'", coll.Name())
}

package plateau

import (
	"runtime"
	"time"
	"unicode/utf8"

	"github.com/mongodb/grip"
	"github.com/pkg/errors"

	"github.com/evergreen-ci/plateau/model"
	"github.com/evergreen-ci/plateau/util"
)

// SourceType names where the observations of a test are read from.
type SourceType string

const (
	SourceCSV     SourceType = "csv"
	SourceMongoDB SourceType = "mongodb"
)

const (
	BucketLocal = "local"
	BucketS3    = "s3"

	defaultDialTimeout = 2 * time.Second
	defaultTimeColumn  = "time"
	defaultDelimiter   = ","
)

// Configuration is the content of the plateau configuration file.
type Configuration struct {
	NumWorkers int                   `bson:"num_workers" json:"num_workers" yaml:"num_workers"`
	MongoDB    MongoDBConfig         `bson:"mongodb" json:"mongodb" yaml:"mongodb"`
	Bucket     BucketConfig          `bson:"bucket" json:"bucket" yaml:"bucket"`
	Analysis   model.AnalysisOptions `bson:"analysis" json:"analysis" yaml:"analysis"`
	Tests      []TestConfig          `bson:"tests" json:"tests" yaml:"tests"`
}

type MongoDBConfig struct {
	URI         string        `bson:"uri" json:"uri" yaml:"uri"`
	Database    string        `bson:"database" json:"database" yaml:"database"`
	DialTimeout time.Duration `bson:"dial_timeout" json:"dial_timeout" yaml:"dial_timeout"`
}

// BucketConfig describes the blob storage holding CSV files. Names of
// local buckets are directories.
type BucketConfig struct {
	Type      string `bson:"type" json:"type" yaml:"type"`
	Name      string `bson:"name" json:"name" yaml:"name"`
	Prefix    string `bson:"prefix" json:"prefix" yaml:"prefix"`
	Region    string `bson:"region" json:"region" yaml:"region"`
	AWSKey    string `bson:"aws_key" json:"aws_key" yaml:"aws_key"`
	AWSSecret string `bson:"aws_secret" json:"aws_secret" yaml:"aws_secret"`
}

// TestConfig describes one test: where its observations come from and
// which metrics and attributes to read.
type TestConfig struct {
	Name string     `bson:"name" json:"name" yaml:"name"`
	Type SourceType `bson:"type" json:"type" yaml:"type"`

	// csv
	File       string `bson:"file" json:"file" yaml:"file"`
	TimeColumn string `bson:"time_column" json:"time_column" yaml:"time_column"`
	Delimiter  string `bson:"delimiter" json:"delimiter" yaml:"delimiter"`

	// mongodb
	Collection string `bson:"collection" json:"collection" yaml:"collection"`
	Filter     string `bson:"filter" json:"filter" yaml:"filter"`

	Metrics    []MetricConfig `bson:"metrics" json:"metrics" yaml:"metrics"`
	Attributes []string       `bson:"attributes" json:"attributes" yaml:"attributes"`
}

// MetricConfig maps a metric to its source column. A direction of 1
// means bigger values are better, -1 means smaller values are better.
type MetricConfig struct {
	Name      string  `bson:"name" json:"name" yaml:"name"`
	Column    string  `bson:"column" json:"column" yaml:"column"`
	Direction int     `bson:"direction" json:"direction" yaml:"direction"`
	Scale     float64 `bson:"scale" json:"scale" yaml:"scale"`
}

// LoadConfiguration reads and validates a YAML configuration file.
func LoadConfiguration(path string) (*Configuration, error) {
	conf := &Configuration{}
	if err := util.ReadFileYAML(path, conf); err != nil {
		return nil, errors.WithStack(err)
	}

	if err := conf.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid configuration in '%s'", path)
	}

	return conf, nil
}

// Validate checks the configuration and fills in defaults.
func (c *Configuration) Validate() error {
	catcher := grip.NewBasicCatcher()

	if c.NumWorkers < 1 {
		c.NumWorkers = runtime.NumCPU()
	}
	if c.MongoDB.DialTimeout <= 0 {
		c.MongoDB.DialTimeout = defaultDialTimeout
	}
	catcher.NewWhen(c.MongoDB.URI != "" && c.MongoDB.Database == "", "must specify a database name with a mongodb uri")

	switch c.Bucket.Type {
	case "":
		c.Bucket.Type = BucketLocal
	case BucketLocal:
	case BucketS3:
		catcher.NewWhen(c.Bucket.Name == "", "must specify a bucket name for s3 buckets")
	default:
		catcher.Errorf("unsupported bucket type '%s'", c.Bucket.Type)
	}

	if c.Analysis.WindowLen == 0 {
		c.Analysis.WindowLen = model.DefaultWindowLen
	}
	if c.Analysis.MaxPValue == 0 {
		c.Analysis.MaxPValue = model.DefaultMaxPValue
	}
	catcher.Add(c.Analysis.Validate())

	seen := map[string]bool{}
	for i := range c.Tests {
		test := &c.Tests[i]
		if seen[test.Name] {
			catcher.Errorf("duplicate test '%s'", test.Name)
		}
		seen[test.Name] = true

		catcher.Wrapf(test.Validate(), "invalid test at position %d", i)
		catcher.ErrorfWhen(test.Type == SourceMongoDB && c.MongoDB.URI == "",
			"test '%s' reads from mongodb but no mongodb uri is configured", test.Name)
	}

	return catcher.Resolve()
}

// GetTest returns the configuration of the named test.
func (c *Configuration) GetTest(name string) (*TestConfig, error) {
	for i := range c.Tests {
		if c.Tests[i].Name == name {
			return &c.Tests[i], nil
		}
	}
	return nil, errors.Errorf("test '%s' is not configured", name)
}

func (c *Configuration) TestNames() []string {
	out := make([]string, 0, len(c.Tests))
	for _, test := range c.Tests {
		out = append(out, test.Name)
	}
	return out
}

// Validate checks the test configuration and fills in defaults. An
// empty metric list selects every available metric.
func (t *TestConfig) Validate() error {
	catcher := grip.NewBasicCatcher()

	catcher.NewWhen(t.Name == "", "must specify a test name")

	switch t.Type {
	case SourceCSV:
		catcher.NewWhen(t.File == "", "must specify a file for csv tests")
		if t.TimeColumn == "" {
			t.TimeColumn = defaultTimeColumn
		}
		if t.Delimiter == "" {
			t.Delimiter = defaultDelimiter
		}
		catcher.ErrorfWhen(utf8.RuneCountInString(t.Delimiter) != 1, "delimiter '%s' must be a single character", t.Delimiter)
	case SourceMongoDB:
		catcher.NewWhen(t.Collection == "", "must specify a collection for mongodb tests")
		if t.Filter == "" {
			t.Filter = t.Name
		}
	default:
		catcher.Errorf("unsupported test type '%s'", t.Type)
	}

	seen := map[string]bool{}
	for i := range t.Metrics {
		metric := &t.Metrics[i]
		catcher.NewWhen(metric.Name == "", "must specify a metric name")
		catcher.ErrorfWhen(seen[metric.Name], "duplicate metric '%s'", metric.Name)
		seen[metric.Name] = true

		if metric.Column == "" {
			metric.Column = metric.Name
		}
		if metric.Direction == 0 {
			metric.Direction = 1
		}
		catcher.ErrorfWhen(metric.Direction != 1 && metric.Direction != -1,
			"direction of metric '%s' must be 1 or -1", metric.Name)
		if metric.Scale == 0 {
			metric.Scale = 1
		}
	}

	return errors.Wrapf(catcher.Resolve(), "test '%s'", t.Name)
}

// Directions maps metric names to their configured direction.
func (t *TestConfig) Directions() map[string]int {
	out := make(map[string]int, len(t.Metrics))
	for _, metric := range t.Metrics {
		out[metric.Name] = metric.Direction
	}
	return out
}

func (t *TestConfig) HasMetrics() bool { return len(t.Metrics) > 0 }

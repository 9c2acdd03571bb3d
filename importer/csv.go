package importer

import (
	"context"
	"encoding/csv"
	"io"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/araddon/dateparse"
	"github.com/evergreen-ci/pail"
	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"

	"github.com/evergreen-ci/plateau"
	"github.com/evergreen-ci/plateau/model"
	"github.com/evergreen-ci/plateau/util"
)

const byteOrderMark = "\ufeff"

// CSVImporter reads tests from CSV files with a header row. Every row
// is one observation.
type CSVImporter struct {
	bucket pail.Bucket
}

func NewCSVImporter(bucket pail.Bucket) *CSVImporter {
	return &CSVImporter{bucket: bucket}
}

type csvColumn struct {
	name  string
	index int
	scale float64
}

func (i *CSVImporter) FetchSeries(ctx context.Context, test plateau.TestConfig) (*model.Series, error) {
	header, reader, closer, err := i.open(ctx, test)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer closer.Close()

	timeIdx, metrics, attributes, err := resolveColumns(test, header)
	if err != nil {
		return nil, errors.Wrapf(err, "problem reading columns of '%s'", test.File)
	}

	observations := []observation{}
	missing := 0
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "problem reading '%s'", test.File)
		}

		ts, err := parseTime(record[timeIdx])
		if err != nil {
			return nil, errors.Wrapf(err, "invalid time on line %d of '%s'", line, test.File)
		}

		obs := observation{
			time:       ts,
			values:     make([]float64, len(metrics)),
			attributes: make([]string, len(attributes)),
		}
		for j, col := range metrics {
			obs.values[j] = parseValue(record[col.index], col.scale)
			if math.IsNaN(obs.values[j]) {
				missing++
			}
		}
		for j, col := range attributes {
			obs.attributes[j] = strings.TrimSpace(record[col.index])
		}
		observations = append(observations, obs)
	}

	grip.Debug(message.Fields{
		"message":        "read csv file",
		"test":           test.Name,
		"file":           test.File,
		"rows":           len(observations),
		"missing_values": missing,
	})

	return buildSeries(test.Name, columnNames(metrics), columnNames(attributes), observations)
}

func (i *CSVImporter) FetchMetricNames(ctx context.Context, test plateau.TestConfig) ([]string, error) {
	if test.HasMetrics() {
		out := make([]string, 0, len(test.Metrics))
		for _, metric := range test.Metrics {
			out = append(out, metric.Name)
		}
		return out, nil
	}

	header, _, closer, err := i.open(ctx, test)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	defer closer.Close()

	_, metrics, _, err := resolveColumns(test, header)
	if err != nil {
		return nil, errors.Wrapf(err, "problem reading columns of '%s'", test.File)
	}
	return columnNames(metrics), nil
}

func (i *CSVImporter) open(ctx context.Context, test plateau.TestConfig) ([]string, *csv.Reader, io.Closer, error) {
	if test.Type != plateau.SourceCSV {
		return nil, nil, nil, errors.Errorf("test '%s' is not a csv test", test.Name)
	}

	rc, err := i.bucket.Get(ctx, test.File)
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "problem opening '%s'", test.File)
	}

	delimiter := ','
	if test.Delimiter != "" {
		delimiter, _ = utf8.DecodeRuneInString(test.Delimiter)
	}

	reader := csv.NewReader(rc)
	reader.Comma = delimiter
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		rc.Close()
		if err == io.EOF {
			return nil, nil, nil, errors.Errorf("file '%s' has no header", test.File)
		}
		return nil, nil, nil, errors.Wrapf(err, "problem reading header of '%s'", test.File)
	}
	if len(header) > 0 {
		header[0] = util.RemovePrefix(header[0], byteOrderMark)
	}
	for idx := range header {
		header[idx] = strings.TrimSpace(header[idx])
	}

	return header, reader, rc, nil
}

// resolveColumns maps the configured time, metric and attribute columns
// to header positions. Without configured metrics every column that is
// neither the time nor an attribute is a metric.
func resolveColumns(test plateau.TestConfig, header []string) (int, []csvColumn, []csvColumn, error) {
	positions := make(map[string]int, len(header))
	for idx, name := range header {
		positions[name] = idx
	}

	catcher := grip.NewBasicCatcher()
	timeColumn := test.TimeColumn
	if timeColumn == "" {
		timeColumn = "time"
	}
	timeIdx, ok := positions[timeColumn]
	catcher.ErrorfWhen(!ok, "time column '%s' not found", timeColumn)

	attributes := make([]csvColumn, 0, len(test.Attributes))
	isAttribute := map[string]bool{}
	for _, name := range test.Attributes {
		idx, ok := positions[name]
		if !ok {
			catcher.Errorf("attribute column '%s' not found", name)
			continue
		}
		isAttribute[name] = true
		attributes = append(attributes, csvColumn{name: name, index: idx})
	}

	metrics := []csvColumn{}
	if test.HasMetrics() {
		for _, metric := range test.Metrics {
			column := metric.Column
			if column == "" {
				column = metric.Name
			}
			idx, ok := positions[column]
			if !ok {
				catcher.Errorf("column '%s' of metric '%s' not found", column, metric.Name)
				continue
			}
			scale := metric.Scale
			if scale == 0 {
				scale = 1
			}
			metrics = append(metrics, csvColumn{name: metric.Name, index: idx, scale: scale})
		}
	} else {
		for idx, name := range header {
			if name == timeColumn || isAttribute[name] {
				continue
			}
			metrics = append(metrics, csvColumn{name: name, index: idx, scale: 1})
		}
	}

	if catcher.HasErrors() {
		return 0, nil, nil, catcher.Resolve()
	}
	return timeIdx, metrics, attributes, nil
}

func columnNames(columns []csvColumn) []string {
	out := make([]string, len(columns))
	for i, col := range columns {
		out[i] = col.name
	}
	return out
}

// parseTime reads integers as unix seconds and anything else as a date.
func parseTime(value string) (int64, error) {
	value = strings.TrimSpace(value)
	if ts, err := strconv.ParseInt(value, 10, 64); err == nil {
		return ts, nil
	}

	t, err := dateparse.ParseAny(value)
	if err != nil {
		return 0, errors.Wrapf(err, "cannot parse '%s' as a time", value)
	}
	return t.Unix(), nil
}

// parseValue returns NaN for empty or unparsable cells.
func parseValue(value string, scale float64) float64 {
	value = strings.TrimSpace(value)
	if value == "" {
		return math.NaN()
	}

	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return math.NaN()
	}
	return scaleValue(v, scale)
}

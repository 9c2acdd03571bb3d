package operations

import (
	"context"
	"sort"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/evergreen-ci/plateau"
	"github.com/evergreen-ci/plateau/importer"
	"github.com/evergreen-ci/plateau/model"
	"github.com/evergreen-ci/plateau/units"
)

// configure loads the configuration file named by the global flag,
// applies the command line overrides and sets up the global environment.
// Callers must close the environment.
func configure(ctx context.Context, c *cli.Context) (plateau.Environment, *plateau.Configuration, error) {
	conf, err := plateau.LoadConfiguration(c.GlobalString(configFlag))
	if err != nil {
		return nil, nil, errors.WithStack(err)
	}

	if c.IsSet(numWorkersFlag) {
		conf.NumWorkers = c.Int(numWorkersFlag)
	}
	if c.IsSet(windowFlag) {
		conf.Analysis.WindowLen = c.Int(windowFlag)
	}
	if c.IsSet(maxPValueFlag) {
		conf.Analysis.MaxPValue = c.Float64(maxPValueFlag)
	}
	if c.IsSet(minMagnitudeFlag) {
		conf.Analysis.MinMagnitude = c.Float64(minMagnitudeFlag)
	}

	env := plateau.GetEnvironment()
	if err = env.Configure(ctx, conf); err != nil {
		return nil, nil, errors.Wrap(err, "problem configuring environment")
	}

	return env, conf, nil
}

func closeEnv(ctx context.Context, env plateau.Environment) {
	grip.Warning(message.WrapError(env.Close(ctx), message.Fields{
		"message": "problem closing environment",
	}))
}

// selectTests returns the named tests, or every configured test when no
// names are given.
func selectTests(conf *plateau.Configuration, names []string) ([]plateau.TestConfig, error) {
	if len(names) == 0 {
		names = conf.TestNames()
	}

	catcher := grip.NewBasicCatcher()
	out := make([]plateau.TestConfig, 0, len(names))
	seen := map[string]bool{}
	for _, name := range names {
		if seen[name] {
			continue
		}
		seen[name] = true

		test, err := conf.GetTest(name)
		if err != nil {
			catcher.Add(err)
			continue
		}
		out = append(out, *test)
	}

	return out, catcher.Resolve()
}

func fetchSeries(ctx context.Context, env plateau.Environment, test plateau.TestConfig) (*model.Series, error) {
	imp, err := importer.New(ctx, env, test)
	if err != nil {
		return nil, errors.Wrapf(err, "problem creating importer for test '%s'", test.Name)
	}

	series, err := imp.FetchSeries(ctx, test)
	if err != nil {
		return nil, errors.Wrapf(err, "problem fetching test '%s'", test.Name)
	}

	return series, nil
}

// analyzeTests fetches every test and analyzes them in parallel on the
// queue of the environment. The results are ordered like the tests.
func analyzeTests(ctx context.Context, env plateau.Environment, conf *plateau.Configuration, tests []plateau.TestConfig) ([]*model.AnalyzedSeries, error) {
	series := make([]*model.Series, 0, len(tests))
	for _, test := range tests {
		s, err := fetchSeries(ctx, env, test)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		series = append(series, s)
	}

	q, err := env.GetQueue()
	if err != nil {
		return nil, errors.WithStack(err)
	}

	results, err := units.AnalyzeAll(ctx, q, series, conf.Analysis)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	out := make([]*model.AnalyzedSeries, 0, len(tests))
	for _, test := range tests {
		analyzed, ok := results[test.Name]
		if !ok {
			return nil, errors.Errorf("missing analysis of test '%s'", test.Name)
		}
		out = append(out, analyzed)
	}

	return out, nil
}

// indexAtTime returns the index of the first time at or after ts, or the
// length of times when every time is earlier.
func indexAtTime(times []int64, ts int64) int {
	return sort.Search(len(times), func(i int) bool { return times[i] >= ts })
}

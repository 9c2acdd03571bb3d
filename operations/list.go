package operations

import (
	"context"
	"fmt"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/evergreen-ci/plateau"
	"github.com/evergreen-ci/plateau/importer"
)

// ListTests returns the command that prints the configured tests.
func ListTests() cli.Command {
	return cli.Command{
		Name:   "list-tests",
		Usage:  "print the names of the configured tests",
		Before: requireConfigFile,
		Action: func(c *cli.Context) error {
			conf, err := plateau.LoadConfiguration(c.GlobalString(configFlag))
			if err != nil {
				return errors.WithStack(err)
			}

			for _, name := range conf.TestNames() {
				fmt.Fprintln(c.App.Writer, name)
			}
			return nil
		},
	}
}

// ListMetrics returns the command that prints the metrics available for
// a test.
func ListMetrics() cli.Command {
	return cli.Command{
		Name:   "list-metrics",
		Usage:  "print the names of the metrics of a test",
		Flags:  testNameFlag(),
		Before: mergeBeforeFuncs(requireConfigFile, requireStringFlag(testFlag)),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			env, conf, err := configure(ctx, c)
			if err != nil {
				return errors.WithStack(err)
			}
			defer closeEnv(ctx, env)

			test, err := conf.GetTest(c.String(testFlag))
			if err != nil {
				return errors.WithStack(err)
			}

			imp, err := importer.New(ctx, env, *test)
			if err != nil {
				return errors.WithStack(err)
			}

			metrics, err := imp.FetchMetricNames(ctx, *test)
			if err != nil {
				return errors.Wrapf(err, "problem listing metrics of test '%s'", test.Name)
			}

			for _, metric := range metrics {
				fmt.Fprintln(c.App.Writer, metric)
			}
			return nil
		},
	}
}

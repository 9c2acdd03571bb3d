package operations

import (
	"context"

	"github.com/evergreen-ci/utility"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/evergreen-ci/plateau/model"
	"github.com/evergreen-ci/plateau/report"
	"github.com/evergreen-ci/plateau/util"
)

// Compare returns the command that compares the performance of two
// tests, or of one test at two points in its history.
func Compare() cli.Command {
	return cli.Command{
		Name:  "compare",
		Usage: "compare the stable performance of two tests or of two points in time",
		Flags: mergeFlags(
			testNameFlag(),
			analysisFlags(),
			outputFlags(
				cli.StringFlag{
					Name:  otherTestFlag,
					Usage: "name of the test to compare with, defaults to the same test",
				},
				cli.IntFlag{
					Name:  indexFlag,
					Usage: "index of the observation of the first test, defaults to the latest",
				},
				cli.IntFlag{
					Name:  otherIndexFlag,
					Usage: "index of the observation of the other test, defaults to the latest",
				},
			),
		),
		Before: mergeBeforeFuncs(requireConfigFile, requireFormat, requireStringFlag(testFlag)),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			env, conf, err := configure(ctx, c)
			if err != nil {
				return errors.WithStack(err)
			}
			defer closeEnv(ctx, env)

			names := []string{c.String(testFlag)}
			if other := c.String(otherTestFlag); other != "" {
				names = append(names, other)
			}
			tests, err := selectTests(conf, names)
			if err != nil {
				return errors.WithStack(err)
			}

			results, err := analyzeTests(ctx, env, conf, tests)
			if err != nil {
				return errors.WithStack(err)
			}
			series1, series2 := results[0], results[len(results)-1]

			var index1, index2 *int
			if c.IsSet(indexFlag) {
				index1 = utility.ToIntPtr(c.Int(indexFlag))
			}
			if c.IsSet(otherIndexFlag) {
				index2 = utility.ToIntPtr(c.Int(otherIndexFlag))
			}

			cmp, err := model.Compare(series1, index1, series2, index2)
			if err != nil {
				return errors.WithStack(err)
			}
			verdicts := report.Regressions(cmp, tests[0].Directions())

			if c.String(formatFlag) == formatJSON {
				return errors.WithStack(util.WriteJSON(c.App.Writer, report.NewComparisonReport(cmp, verdicts)))
			}

			report.ComparisonTable(c.App.Writer, verdicts)
			return nil
		},
	}
}

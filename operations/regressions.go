package operations

import (
	"context"
	"fmt"

	"github.com/mongodb/grip"
	"github.com/mongodb/grip/message"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/evergreen-ci/plateau/model"
	"github.com/evergreen-ci/plateau/report"
	"github.com/evergreen-ci/plateau/util"
)

// Regressions returns the command that compares the current state of
// tests with their state at an earlier point and reports the metrics
// that got worse.
func Regressions() cli.Command {
	return cli.Command{
		Name:  "regressions",
		Usage: "find the metrics that regressed since a given point in history",
		Flags: mergeFlags(
			testNamesFlag(),
			analysisFlags(),
			outputFlags(
				cli.IntFlag{
					Name:  sinceIndexFlag,
					Usage: "index of the baseline observation",
				},
				cli.StringFlag{
					Name:  sinceTimeFlag,
					Usage: "time of the baseline observation (unix seconds or a date)",
				},
			),
		),
		Before: mergeBeforeFuncs(
			requireConfigFile,
			requireFormat,
			requireOneFlag(sinceIndexFlag, sinceTimeFlag),
		),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var sinceTime int64
			if c.IsSet(sinceTimeFlag) {
				var err error
				if sinceTime, err = parseTime(c.String(sinceTimeFlag)); err != nil {
					return errors.WithStack(err)
				}
			}

			env, conf, err := configure(ctx, c)
			if err != nil {
				return errors.WithStack(err)
			}
			defer closeEnv(ctx, env)

			tests, err := selectTests(conf, c.StringSlice(testFlag))
			if err != nil {
				return errors.WithStack(err)
			}

			results, err := analyzeTests(ctx, env, conf, tests)
			if err != nil {
				return errors.WithStack(err)
			}

			reports := make([]report.ComparisonReport, 0, len(results))
			regressed := 0
			for idx, analyzed := range results {
				baseline := c.Int(sinceIndexFlag)
				if c.IsSet(sinceTimeFlag) {
					baseline = indexAtTime(analyzed.Time(), sinceTime)
				}

				cmp, err := model.Compare(analyzed, &baseline, analyzed, nil)
				if err != nil {
					return errors.Wrapf(err, "problem comparing test '%s'", analyzed.TestName())
				}
				regressions := report.Filter(report.Regressions(cmp, tests[idx].Directions()), report.Regression)
				regressed += len(regressions)

				if c.String(formatFlag) == formatJSON {
					reports = append(reports, report.NewComparisonReport(cmp, regressions))
					continue
				}

				fmt.Fprintf(c.App.Writer, "%s:\n", analyzed.TestName())
				if len(regressions) == 0 {
					fmt.Fprintln(c.App.Writer, "no regressions found")
					continue
				}
				report.ComparisonTable(c.App.Writer, regressions)
			}

			grip.Info(message.Fields{
				"message":     "checked tests for regressions",
				"tests":       len(results),
				"regressions": regressed,
			})

			if c.String(formatFlag) == formatJSON {
				return errors.WithStack(util.WriteJSON(c.App.Writer, reports))
			}
			return nil
		},
	}
}

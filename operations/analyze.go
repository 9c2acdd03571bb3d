package operations

import (
	"context"
	"fmt"
	"strconv"

	"github.com/araddon/dateparse"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/evergreen-ci/plateau/model"
	"github.com/evergreen-ci/plateau/report"
	"github.com/evergreen-ci/plateau/util"
)

// Analyze returns the command that prints the change points of the
// configured tests.
func Analyze() cli.Command {
	return cli.Command{
		Name:  "analyze",
		Usage: "detect change points in the history of one or more tests",
		Flags: mergeFlags(
			testNamesFlag(),
			analysisFlags(),
			outputFlags(
				cli.StringFlag{
					Name:  sinceFlag,
					Usage: "only print change points at or after this time (unix seconds or a date)",
				},
			),
		),
		Before: mergeBeforeFuncs(requireConfigFile, requireFormat),
		Action: func(c *cli.Context) error {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var since *int64
			if c.IsSet(sinceFlag) {
				ts, err := parseTime(c.String(sinceFlag))
				if err != nil {
					return errors.WithStack(err)
				}
				since = &ts
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

			reports := make([]report.ChangePointsReport, 0, len(results))
			for idx, analyzed := range results {
				groups := analyzed.ChangePointsByTime()
				if since != nil {
					groups = analyzed.ChangePointsSince(*since)
				}
				directions := tests[idx].Directions()

				if c.String(formatFlag) == formatJSON {
					reports = append(reports, report.NewChangePointsReport(analyzed, groups, directions))
					continue
				}

				printChangePoints(c, analyzed, groups, directions)
			}

			if c.String(formatFlag) == formatJSON {
				return errors.WithStack(util.WriteJSON(c.App.Writer, reports))
			}
			return nil
		},
	}
}

func printChangePoints(c *cli.Context, analyzed *model.AnalyzedSeries, groups []model.ChangePointGroup, directions map[string]int) {
	fmt.Fprintf(c.App.Writer, "%s:\n", analyzed.TestName())
	if len(groups) == 0 {
		fmt.Fprintln(c.App.Writer, "no change points found")
		return
	}
	report.ChangePointsTable(c.App.Writer, groups, directions)
}

// parseTime accepts unix seconds, the timestamps printed in tables, or
// any other date format read in the local time zone.
func parseTime(value string) (int64, error) {
	if ts, err := strconv.ParseInt(value, 10, 64); err == nil {
		return ts, nil
	}
	if ts, err := util.ParseTimestamp(value); err == nil {
		return ts, nil
	}

	t, err := dateparse.ParseLocal(value)
	if err != nil {
		return 0, errors.Wrapf(err, "could not parse time '%s'", value)
	}
	return t.Unix(), nil
}

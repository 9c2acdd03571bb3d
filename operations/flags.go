package operations

import (
	"strings"

	"github.com/urfave/cli"
)

////////////////////////////////////////////////////////////////////////
//
// Flag Name Constants

const (
	configFlag = "config"

	testFlag       = "test"
	otherTestFlag  = "other"
	indexFlag      = "index"
	otherIndexFlag = "other-index"
	sinceFlag      = "since"
	sinceIndexFlag = "since-index"
	sinceTimeFlag  = "since-time"

	windowFlag       = "window"
	maxPValueFlag    = "max-pvalue"
	minMagnitudeFlag = "min-magnitude"
	numWorkersFlag   = "workers"

	formatFlag     = "format"
	collectionFlag = "collection"

	formatText = "text"
	formatJSON = "json"

	configFileEnv = "PLATEAU_CONFIG"
)

////////////////////////////////////////////////////////////////////////
//
// Utility Functions

func joinFlagNames(ids ...string) string { return strings.Join(ids, ", ") }

func mergeFlags(in ...[]cli.Flag) []cli.Flag {
	out := []cli.Flag{}

	for idx := range in {
		out = append(out, in[idx]...)
	}

	return out
}

////////////////////////////////////////////////////////////////////////
//
// Flag Groups

// ConfigFlags are the global flags of the plateau binary.
func ConfigFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:   joinFlagNames(configFlag, "c"),
		Usage:  "path to the plateau configuration file",
		Value:  "plateau.yaml",
		EnvVar: configFileEnv,
	})
}

func testNameFlag(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  joinFlagNames(testFlag, "t"),
		Usage: "name of a configured test",
	})
}

func testNamesFlag(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringSliceFlag{
		Name:  joinFlagNames(testFlag, "t"),
		Usage: "names of the configured tests to analyze, all tests when omitted",
	})
}

func analysisFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags,
		cli.IntFlag{
			Name:  windowFlag,
			Usage: "number of observations compared on each side of a change point",
		},
		cli.Float64Flag{
			Name:  maxPValueFlag,
			Usage: "significance threshold of the t-test",
		},
		cli.Float64Flag{
			Name:  minMagnitudeFlag,
			Usage: "smallest reported effect size (difference of means over pooled standard deviation)",
		},
		cli.IntFlag{
			Name:  numWorkersFlag,
			Usage: "number of series analyzed in parallel",
		},
	)
}

func outputFlags(flags ...cli.Flag) []cli.Flag {
	return append(flags, cli.StringFlag{
		Name:  joinFlagNames(formatFlag, "f"),
		Usage: "output format, one of 'text' or 'json'",
		Value: formatText,
	})
}

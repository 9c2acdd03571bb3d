package operations

import (
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/evergreen-ci/plateau"
	"github.com/evergreen-ci/plateau/util"
)

const redacted = "<redacted>"

// Config inspects the configuration file.
func Config() cli.Command {
	return cli.Command{
		Name:  "conf",
		Usage: "plateau configuration",
		Subcommands: []cli.Command{
			dumpConfig(),
		},
	}
}

func dumpConfig() cli.Command {
	return cli.Command{
		Name:  "dump",
		Usage: "write the validated configuration, with defaults filled in, as json",
		Flags: []cli.Flag{
			cli.StringFlag{
				Name:  "file",
				Usage: "specify path to write the configuration to, defaults to standard output",
			},
		},
		Before: requireConfigFile,
		Action: func(c *cli.Context) error {
			conf, err := plateau.LoadConfiguration(c.GlobalString(configFlag))
			if err != nil {
				return errors.WithStack(err)
			}

			if conf.Bucket.AWSSecret != "" {
				conf.Bucket.AWSSecret = redacted
			}

			if fileName := c.String("file"); fileName != "" {
				return errors.WithStack(util.WriteJSONFile(fileName, conf))
			}
			return errors.WithStack(util.WriteJSON(c.App.Writer, conf))
		},
	}
}

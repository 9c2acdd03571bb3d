package operations

import (
	"github.com/mongodb/grip"
	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/evergreen-ci/plateau/util"
)

// this file contains validator functions passed to commands to check
// the contents of flags before the commands run.

var requireConfigFile = func(c *cli.Context) error {
	path := c.GlobalString(configFlag)
	if !util.FileExists(path) {
		return errors.Errorf("configuration file '%s' does not exist", path)
	}
	return nil
}

var requireFormat = func(c *cli.Context) error {
	switch c.String(formatFlag) {
	case formatText, formatJSON:
		return nil
	default:
		return errors.Errorf("unsupported format '%s'", c.String(formatFlag))
	}
}

func requireStringFlag(name string) cli.BeforeFunc {
	return func(c *cli.Context) error {
		if c.String(name) == "" {
			return errors.Errorf("flag '--%s' was not specified", name)
		}
		return nil
	}
}

func requireOneFlag(names ...string) cli.BeforeFunc {
	return func(c *cli.Context) error {
		var numSet int
		for _, name := range names {
			if c.IsSet(name) {
				numSet++
			}
		}
		if numSet != 1 {
			return errors.Errorf("must set exactly one flag from the following: %s", names)
		}
		return nil
	}
}

func mergeBeforeFuncs(ops ...func(c *cli.Context) error) cli.BeforeFunc {
	return func(c *cli.Context) error {
		catcher := grip.NewBasicCatcher()

		for _, op := range ops {
			catcher.Add(op(c))
		}

		return catcher.Resolve()
	}
}

package operations

import (
	"context"

	"github.com/pkg/errors"
	"github.com/urfave/cli"

	"github.com/evergreen-ci/plateau/importer"
)

// Load returns the command that copies the observations of a test into
// a MongoDB collection, where mongodb tests can read them.
func Load() cli.Command {
	return cli.Command{
		Name:  "load",
		Usage: "store the observations of a test in the configured database",
		Flags: testNameFlag(
			cli.StringFlag{
				Name:  collectionFlag,
				Usage: "name of the collection to write to",
				Value: "observations",
			},
		),
		Before: mergeBeforeFuncs(
			requireConfigFile,
			requireStringFlag(testFlag),
			requireStringFlag(collectionFlag),
		),
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

			db, err := env.GetDB()
			if err != nil {
				return errors.WithStack(err)
			}
			coll := db.Collection(c.String(collectionFlag))

			series, err := fetchSeries(ctx, env, *test)
			if err != nil {
				return errors.WithStack(err)
			}

			docs, err := importer.NewObservations(series)
			if err != nil {
				return errors.WithStack(err)
			}

			if err = importer.EnsureIndexes(ctx, coll); err != nil {
				return errors.WithStack(err)
			}

			return errors.WithStack(importer.SaveObservations(ctx, coll, test.Name, docs))
		},
	}
}

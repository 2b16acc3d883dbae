package subcmds

import (
	"github.com/vcnkl/libpack/actions"

	"github.com/urfave/cli/v2"
)

func WatchCmd() *cli.Command {
	return &cli.Command{
		Name:      "watch",
		Usage:     "Build libraries and rebuild them when their sources change",
		ArgsUsage: "[libraries...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Ignore cache on every rebuild",
			},
		},
		Action: func(ctx *cli.Context) error {
			log := newLogger(ctx)

			cfg, err := loadConfig(ctx)
			if err != nil {
				return exitErr(err)
			}

			libs, err := cfg.SelectLibraries(ctx.Args().Slice())
			if err != nil {
				return exitErr(err)
			}

			if len(libs) == 0 {
				log.Info("no libraries to watch")
				return nil
			}

			store := loadStore(cfg, log)
			build := actions.NewBuildAction(cfg, store, log, actions.BuildOptions{
				Force: ctx.Bool("force"),
				Jobs:  ctx.Int("jobs"),
			})

			if err = actions.NewWatchAction(cfg, build, log).Execute(ctx.Context, libs); err != nil {
				return exitErr(err)
			}

			return nil
		},
	}
}

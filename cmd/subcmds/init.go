package subcmds

import (
	"github.com/vcnkl/libpack/actions"
	"github.com/vcnkl/libpack/logger"

	"github.com/urfave/cli/v2"
)

func InitCmd() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Create the state directory and install project dependencies",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Re-run all install commands even if check passes",
			},
		},
		Action: func(ctx *cli.Context) error {
			log := newLogger(ctx)

			cfg, err := loadConfig(ctx)
			if err != nil {
				return exitErr(err)
			}

			action := actions.NewInitAction(cfg, log, ctx.Bool("force"))
			result, err := action.Execute(ctx.Context)
			if err != nil {
				return exitErr(err)
			}

			log.Info("init completed",
				logger.Int("executed", len(result.Executed)),
				logger.Int("failed", len(result.Failed)),
				logger.Duration("duration", result.Duration))

			if len(result.Failed) > 0 {
				return cli.Exit("init failed", 1)
			}

			return nil
		},
	}
}

package subcmds

import (
	"os"

	"github.com/vcnkl/libpack/actions"
	"github.com/vcnkl/libpack/logger"
	"github.com/vcnkl/libpack/output"
	"github.com/vcnkl/libpack/targets"

	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"
)

func BuildCmd() *cli.Command {
	return &cli.Command{
		Name:      "build",
		Usage:     "Bundle specified libraries (or all if none specified) in every declared format",
		ArgsUsage: "[libraries...]",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "force",
				Aliases: []string{"f"},
				Usage:   "Ignore cache, rebuild all",
			},
			&cli.BoolFlag{
				Name:  "affected",
				Usage: "Only build libraries affected by git changes",
			},
			&cli.BoolFlag{
				Name:  "dry-run",
				Usage: "Print what would be built without bundling",
			},
		},
		Action: func(ctx *cli.Context) error {
			log := newLogger(ctx)

			cfg, err := loadConfig(ctx)
			if err != nil {
				return exitErr(err)
			}

			libs, err := selectLibraries(ctx, cfg, ctx.Bool("affected"))
			if err != nil {
				return exitErr(err)
			}

			if len(libs) == 0 {
				log.Info("no libraries to build")
				return nil
			}

			store := loadStore(cfg, log)
			action := actions.NewBuildAction(cfg, store, log, actions.BuildOptions{
				Force:  ctx.Bool("force"),
				DryRun: ctx.Bool("dry-run"),
				Jobs:   ctx.Int("jobs"),
			})

			result, err := action.Execute(ctx.Context, libs)
			if err != nil {
				var validation *targets.ValidationError
				if errors.As(err, &validation) {
					output.NewFormatter(output.FormatText, os.Stderr).PrintTable(output.ProblemsTable(targets.ProblemsOf(err)))
					return cli.Exit("build aborted: invalid build targets", 1)
				}
				return exitErr(err)
			}

			log.Info("build completed",
				logger.Int("executed", len(result.Executed)),
				logger.Int("skipped", len(result.Skipped)),
				logger.Int("failed", len(result.Failed)),
				logger.Duration("duration", result.Duration))

			if len(result.Failed) > 0 {
				for _, failed := range result.Failed {
					log.Error("target failed", logger.String("target", failed.ID), logger.Err(failed.Error))
				}
				return cli.Exit("build failed", 1)
			}

			return nil
		},
	}
}

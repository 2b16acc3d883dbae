package subcmds

import (
	"io"
	"os"

	"github.com/vcnkl/libpack/actions"
	"github.com/vcnkl/libpack/output"

	"github.com/urfave/cli/v2"
)

func ResolveCmd() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve and validate the build targets of libraries without bundling",
		ArgsUsage: "[libraries...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"o"},
				Value:   "text",
				Usage:   "Output format: text, json or yaml",
			},
			&cli.BoolFlag{
				Name:    "write",
				Aliases: []string{"w"},
				Usage:   "Write resolved targets to the project manifest",
			},
		},
		Action: func(ctx *cli.Context) error {
			log := newLogger(ctx)

			format, err := output.ParseFormat(ctx.String("format"))
			if err != nil {
				return exitErr(err)
			}

			cfg, err := loadConfig(ctx)
			if err != nil {
				return exitErr(err)
			}

			libs, err := cfg.SelectLibraries(ctx.Args().Slice())
			if err != nil {
				return exitErr(err)
			}

			action := actions.NewResolveAction(cfg, log)
			res := action.Execute(libs)

			if err = renderResolution(os.Stdout, format, res); err != nil {
				return exitErr(err)
			}

			if ctx.Bool("write") {
				if err = action.Write(res); err != nil {
					return exitErr(err)
				}
			}

			if !res.OK() {
				return cli.Exit("resolve failed", 1)
			}

			return nil
		},
	}
}

func renderResolution(w io.Writer, format output.Format, res *actions.Resolution) error {
	f := output.NewFormatter(format, w)
	if format != output.FormatText {
		return f.Print(res)
	}

	if len(res.Manifest.Libraries) > 0 {
		f.PrintTable(output.TargetsTable(res.Manifest))
	}
	if len(res.Problems) > 0 {
		if len(res.Manifest.Libraries) > 0 {
			f.Println()
		}
		f.PrintTable(output.ProblemsTable(res.Problems))
	}
	return nil
}

package subcmds

import (
	"os"

	"github.com/vcnkl/libpack/output"

	"github.com/urfave/cli/v2"
)

func FormatsCmd() *cli.Command {
	return &cli.Command{
		Name:  "formats",
		Usage: "List the output formats known to the project",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"o"},
				Value:   "text",
				Usage:   "Output format: text, json or yaml",
			},
		},
		Action: func(ctx *cli.Context) error {
			format, err := output.ParseFormat(ctx.String("format"))
			if err != nil {
				return exitErr(err)
			}

			cfg, err := loadConfig(ctx)
			if err != nil {
				return exitErr(err)
			}

			f := output.NewFormatter(format, os.Stdout)
			list := output.FormatList(cfg.Registry())
			if format == output.FormatText {
				f.PrintTable(output.FormatsTable(list))
				return nil
			}
			return f.Print(list)
		},
	}
}

package cmd

import (
	"runtime"

	"github.com/vcnkl/libpack/cmd/subcmds"

	"github.com/urfave/cli/v2"
)

func NewApp() *cli.App {
	return &cli.App{
		Name:    "libpack",
		Usage:   "Resolve and emit ESM, CJS, UMD and IIFE bundles for JavaScript libraries",
		Version: "1.0.0",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:    "debug",
				Aliases: []string{"d"},
				Usage:   "Enable debug logging",
			},
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to libpack.yml (default: auto-detect via git root)",
			},
			&cli.IntFlag{
				Name:    "jobs",
				Aliases: []string{"j"},
				Value:   runtime.NumCPU(),
				Usage:   "Max parallel bundles",
			},
		},
		Commands: []*cli.Command{
			subcmds.InitCmd(),
			subcmds.ResolveCmd(),
			subcmds.BuildCmd(),
			subcmds.WatchCmd(),
			subcmds.FormatsCmd(),
		},
	}
}

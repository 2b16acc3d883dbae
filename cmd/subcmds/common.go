package subcmds

import (
	"os"
	"path/filepath"

	"github.com/vcnkl/libpack/config"
	"github.com/vcnkl/libpack/git"
	"github.com/vcnkl/libpack/logger"
	"github.com/vcnkl/libpack/models"
	"github.com/vcnkl/libpack/stores/builds"

	"github.com/urfave/cli/v2"
)

// newLogger honours --debug first, then LIBPACK_LOG_LEVEL.
func newLogger(ctx *cli.Context) logger.Logger {
	if ctx.Bool("debug") {
		return logger.New(logger.DebugLevel)
	}

	level, err := logger.ParseLevel(os.Getenv("LIBPACK_LOG_LEVEL"))
	log := logger.New(level)
	if err != nil {
		log.Warn("ignoring LIBPACK_LOG_LEVEL", logger.Err(err))
	}
	return log
}

func loadConfig(ctx *cli.Context) (*config.Config, error) {
	return config.NewConfig(ctx.String("config"))
}

func loadStore(cfg *config.Config, log logger.Logger) *builds.Store {
	store := builds.NewStore(cfg.BuildsPath())
	if err := store.Load(); err != nil {
		log.Warn("failed to load cache", logger.Err(err))
	}
	return store
}

// selectLibraries picks the libraries named on the command line, or the ones
// touched by uncommitted git changes when affected is set.
func selectLibraries(ctx *cli.Context, cfg *config.Config, affected bool) ([]*models.Library, error) {
	if !affected {
		return cfg.SelectLibraries(ctx.Args().Slice())
	}

	changed, err := git.GetChangedFiles(cfg.Root())
	if err != nil {
		return nil, err
	}

	rel := make([]string, 0, len(changed))
	for _, path := range changed {
		r, err := filepath.Rel(cfg.Root(), path)
		if err != nil {
			continue
		}
		rel = append(rel, r)
	}

	return cfg.SelectAffected(rel), nil
}

func exitErr(err error) error {
	return cli.Exit("error: "+err.Error(), 1)
}

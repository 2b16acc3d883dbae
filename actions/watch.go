package actions

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/vcnkl/libpack/config"
	"github.com/vcnkl/libpack/logger"
	"github.com/vcnkl/libpack/models"
	"github.com/vcnkl/libpack/targets"
	"github.com/vcnkl/libpack/watcher"
)

type WatchAction struct {
	config *config.Config
	build  *BuildAction
	log    logger.Logger
	mu     sync.Mutex
}

func NewWatchAction(cfg *config.Config, build *BuildAction, log logger.Logger) *WatchAction {
	return &WatchAction{
		config: cfg,
		build:  build,
		log:    log,
	}
}

// Execute builds the libraries once and then rebuilds the ones whose files
// change until ctx is done. A changed manifest reloads the config first.
func (a *WatchAction) Execute(ctx context.Context, libs []*models.Library) error {
	a.mu.Lock()
	a.rebuild(ctx, libs)
	a.mu.Unlock()

	paths := make([]string, 0, len(libs))
	for _, lib := range libs {
		paths = append(paths, lib.Root(a.config.Root()))
	}

	w, err := watcher.NewWatcher(paths, a.config.Project().Ignore)
	if err != nil {
		return err
	}
	defer w.Stop()

	for _, lib := range libs {
		w.Exclude(lib.OutputDir(a.config.Root()))
	}
	w.Exclude(a.config.StateDir())

	w.OnError(func(err error) {
		a.log.Warn("watch error", logger.Err(err))
	})
	w.OnChange(func(changed []string) {
		a.mu.Lock()
		defer a.mu.Unlock()

		if a.manifestChanged(changed) {
			reloaded, ok := a.reload(libs)
			if !ok {
				return
			}
			libs = reloaded
			for _, lib := range libs {
				w.Exclude(lib.OutputDir(a.config.Root()))
			}
			a.log.Info("configuration reloaded, rebuilding...", logger.Int("libraries", len(libs)))
			a.rebuild(ctx, libs)
			return
		}

		affected := a.affected(libs, changed)
		if len(affected) == 0 {
			return
		}
		names := make([]string, len(affected))
		for i, lib := range affected {
			names[i] = lib.Name
		}
		a.log.Info("files changed, rebuilding...", logger.Strs("libraries", names))
		a.rebuild(ctx, affected)
	})

	a.log.Info("watching for changes", logger.Int("libraries", len(libs)))
	return w.Start(ctx)
}

func (a *WatchAction) manifestChanged(changed []string) bool {
	for _, path := range changed {
		if a.config.IsManifest(path) {
			return true
		}
	}
	return false
}

// reload swaps in a freshly loaded config and returns the watched libraries
// as the new config declares them. Libraries that no longer exist are
// dropped. On a load error the previous config stays in effect.
func (a *WatchAction) reload(libs []*models.Library) ([]*models.Library, bool) {
	cfg, err := a.config.Reload()
	if err != nil {
		a.log.Error("config reload failed, keeping previous configuration", logger.Err(err))
		return nil, false
	}

	var result []*models.Library
	for _, lib := range libs {
		next, ok := cfg.Library(lib.Name)
		if !ok {
			a.log.Warn("library no longer declared, dropping it", logger.String("library", lib.Name))
			continue
		}
		result = append(result, next)
	}

	var added []string
	for _, lib := range cfg.Libraries() {
		if _, ok := a.config.Library(lib.Name); !ok {
			added = append(added, lib.Name)
		}
	}
	if len(added) > 0 {
		a.log.Warn("new libraries are not watched until restart", logger.Strs("libraries", added))
	}

	a.config = cfg
	a.build.Reconfigure(cfg)
	return result, true
}

func (a *WatchAction) affected(libs []*models.Library, changed []string) []*models.Library {
	rel := make([]string, 0, len(changed))
	for _, path := range changed {
		if r, err := filepath.Rel(a.config.Root(), path); err == nil {
			rel = append(rel, r)
		}
	}

	selected := make(map[string]bool, len(libs))
	for _, lib := range libs {
		selected[lib.Name] = true
	}

	var result []*models.Library
	for _, lib := range a.config.SelectAffected(rel) {
		if selected[lib.Name] {
			result = append(result, lib)
		}
	}
	return result
}

// rebuild runs with a.mu held.
func (a *WatchAction) rebuild(ctx context.Context, libs []*models.Library) {
	result, err := a.build.Execute(ctx, libs)
	if err != nil {
		for _, p := range targets.ProblemsOf(err) {
			a.log.Error(p.Message,
				logger.String("library", p.Library),
				logger.String("kind", string(p.Kind)))
		}
		return
	}

	for _, f := range result.Failed {
		a.log.Error("target failed", logger.String("target", f.ID), logger.Err(f.Error))
	}
	a.log.Info("build finished",
		logger.Int("built", len(result.Executed)),
		logger.Int("cached", len(result.Skipped)),
		logger.Int("failed", len(result.Failed)),
		logger.Duration("duration", result.Duration))
}

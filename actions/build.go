package actions

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vcnkl/libpack/bundle"
	"github.com/vcnkl/libpack/config"
	"github.com/vcnkl/libpack/exec"
	"github.com/vcnkl/libpack/logger"
	"github.com/vcnkl/libpack/models"
	"github.com/vcnkl/libpack/stores/builds"
	"github.com/vcnkl/libpack/stores/manifests"
	"github.com/vcnkl/libpack/targets"
)

type BuildOptions struct {
	Force  bool
	DryRun bool
	Jobs   int
}

type BuildAction struct {
	config    *config.Config
	builder   *targets.Builder
	emitter   *bundle.Emitter
	store     *builds.Store
	manifests *manifests.Store
	log       logger.Logger
	opts      BuildOptions
}

func NewBuildAction(cfg *config.Config, store *builds.Store, log logger.Logger, opts BuildOptions) *BuildAction {
	return &BuildAction{
		config:    cfg,
		builder:   targets.NewBuilder(cfg.Registry()).WithProjectRoot(cfg.Root()),
		emitter:   bundle.NewEmitter(cfg.Root(), log),
		store:     store,
		manifests: manifests.NewStore(cfg.ManifestPath()),
		log:       log,
		opts:      opts,
	}
}

// Reconfigure points later Executes at a reloaded config. It must not run
// concurrently with Execute.
func (a *BuildAction) Reconfigure(cfg *config.Config) {
	a.config = cfg
	a.builder = targets.NewBuilder(cfg.Registry()).WithProjectRoot(cfg.Root())
	a.emitter = bundle.NewEmitter(cfg.Root(), a.log)
}

type pendingTarget struct {
	lib         *models.Library
	target      models.BuildTarget
	fingerprint builds.Fingerprint
}

// Execute validates every library before emitting anything. A validation
// failure in any library returns the aggregated error and writes no files.
func (a *BuildAction) Execute(ctx context.Context, libs []*models.Library) (*models.Result, error) {
	start := time.Now()
	result := &models.Result{}

	planned, err := a.builder.BuildAll(libs)
	if err != nil {
		return nil, err
	}

	validator := builds.NewValidator(a.config.Root(), a.store)
	pending := make(map[string]*pendingTarget)
	var order []string
	byLibrary := make(map[string][]string)

	for _, set := range planned {
		for _, target := range set.Targets {
			targetLog := a.log.WithPrefix(target.ID())

			shouldBuild, fp, err := validator.ShouldBuild(set.Library, target)
			if err != nil {
				targetLog.Warn("cache check failed", logger.Err(err))
				shouldBuild = true
			}

			targetLog.Debug("cache check complete",
				logger.String("input_hash", fp.InputHash),
				logger.String("target_hash", fp.TargetHash),
				logger.Bool("should_build", shouldBuild),
				logger.Bool("force", a.opts.Force))

			if !shouldBuild && !a.opts.Force {
				targetLog.Info("skipped (cached)")
				result.Skipped = append(result.Skipped, target.ID())
				continue
			}

			pending[target.ID()] = &pendingTarget{lib: set.Library, target: target, fingerprint: fp}
			order = append(order, target.ID())
			byLibrary[set.Library.Name] = append(byLibrary[set.Library.Name], target.ID())
		}
	}

	if a.opts.DryRun {
		for _, id := range order {
			p := pending[id]
			a.log.Info("would build",
				logger.String("target", id),
				logger.String("file", p.lib.OutputPath(a.config.Root(), p.target.FileName)))
		}
		result.Duration = time.Since(start)
		return result, nil
	}

	failedLibs := make(map[string]bool)
	for _, set := range planned {
		if len(byLibrary[set.Library.Name]) == 0 {
			continue
		}
		if err = a.runHooks(ctx, set.Library, set.Library.Hooks.Pre, "pre"); err != nil {
			failedLibs[set.Library.Name] = true
			for _, id := range byLibrary[set.Library.Name] {
				result.Failed = append(result.Failed, models.FailedTarget{ID: id, Error: err})
			}
		}
	}

	var toEmit []string
	for _, id := range order {
		if !failedLibs[pending[id].lib.Name] {
			toEmit = append(toEmit, id)
		}
	}

	var mu sync.Mutex
	pool := exec.NewPool(a.jobs())
	results := pool.Execute(ctx, toEmit, func(ctx context.Context, id string) error {
		p := pending[id]
		targetLog := a.log.WithPrefix(id)
		targetLog.Info("building...")

		emitStart := time.Now()
		artifact, err := a.emitter.Emit(ctx, p.lib, p.target)
		if err != nil {
			targetLog.Error("build failed", logger.Err(err))
			return err
		}
		duration := time.Since(emitStart)

		a.store.Set(id, &builds.Entry{
			InputHash:  p.fingerprint.InputHash,
			TargetHash: p.fingerprint.TargetHash,
			OutputHash: artifact.Hash,
			Files:      artifact.Files,
			Size:       artifact.Size,
			Timestamp:  time.Now(),
			DurationMs: duration.Milliseconds(),
		})

		mu.Lock()
		result.Artifacts = append(result.Artifacts, artifact)
		mu.Unlock()

		targetLog.Info("completed",
			logger.Duration("duration", duration),
			logger.Int64("size", artifact.Size))
		return nil
	})

	for _, id := range toEmit {
		if err := results[id]; err != nil {
			failedLibs[pending[id].lib.Name] = true
			result.Failed = append(result.Failed, models.FailedTarget{ID: id, Error: err})
			continue
		}
		result.Executed = append(result.Executed, id)
	}

	for _, set := range planned {
		name := set.Library.Name
		if len(byLibrary[name]) == 0 || failedLibs[name] {
			continue
		}
		if err = a.runHooks(ctx, set.Library, set.Library.Hooks.Post, "post"); err != nil {
			result.Failed = append(result.Failed, models.FailedTarget{ID: name, Error: err})
		}
	}

	a.persist(planned)

	sort.Slice(result.Artifacts, func(i, j int) bool {
		return result.Artifacts[i].TargetID < result.Artifacts[j].TargetID
	})
	result.Duration = time.Since(start)
	return result, nil
}

func (a *BuildAction) jobs() int {
	if a.opts.Jobs > 0 {
		return a.opts.Jobs
	}
	return 1
}

func (a *BuildAction) runHooks(ctx context.Context, lib *models.Library, commands []string, stage string) error {
	if len(commands) == 0 {
		return nil
	}

	hookLog := a.log.WithPrefix(lib.Name + ":" + stage)
	hookLog.Info("running hooks", logger.Int("count", len(commands)))

	out := hookLog.Writer()
	defer func() { _ = out.Close() }()

	err := exec.RunHooks(ctx, commands, &exec.ShellOptions{
		WorkDir: lib.Root(a.config.Root()),
		Env:     exec.ComposeEnv(a.config.Root(), a.config.Project().Env, lib),
		Shell:   a.config.Project().Shell,
		Stdout:  out,
		Stderr:  out,
	})
	if err != nil {
		hookLog.Error("hook failed", logger.Err(err))
	}
	return err
}

// persist prunes cache entries of formats a library no longer requests and
// records the resolved targets. Failures here only cost a rebuild next time.
func (a *BuildAction) persist(planned []targets.LibraryTargets) {
	manifest, err := a.manifests.Load()
	if err != nil {
		a.log.Warn("discarding unreadable manifest", logger.Err(err))
		manifest = manifests.New()
	}

	for _, set := range planned {
		keep := make(map[string]bool, len(set.Targets))
		for _, target := range set.Targets {
			keep[target.ID()] = true
		}
		for _, id := range a.store.Prune(set.Library.Name, keep) {
			a.log.Debug("pruned cache entry", logger.String("target", id))
		}
		manifest.Merge(manifestEntry(set.Library, set.Targets))
	}

	known := make(map[string]bool)
	for _, lib := range a.config.Libraries() {
		known[lib.Name] = true
	}
	manifest.Retain(known)

	if err = a.store.Save(); err != nil {
		a.log.Warn("failed to save cache", logger.Err(err))
	}
	if err = a.manifests.Save(manifest); err != nil {
		a.log.Warn("failed to save manifest", logger.Err(err))
	}
}

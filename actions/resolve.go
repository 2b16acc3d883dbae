package actions

import (
	"github.com/vcnkl/libpack/config"
	"github.com/vcnkl/libpack/logger"
	"github.com/vcnkl/libpack/models"
	"github.com/vcnkl/libpack/stores/manifests"
	"github.com/vcnkl/libpack/targets"
)

// Resolution is the outcome of resolving a set of libraries. Libraries with
// problems are absent from Manifest.
type Resolution struct {
	Manifest *manifests.Manifest `json:"manifest" yaml:"manifest"`
	Problems []targets.Problem   `json:"problems" yaml:"problems"`
}

func (r *Resolution) OK() bool {
	return len(r.Problems) == 0
}

type ResolveAction struct {
	config    *config.Config
	builder   *targets.Builder
	manifests *manifests.Store
	log       logger.Logger
}

func NewResolveAction(cfg *config.Config, log logger.Logger) *ResolveAction {
	return &ResolveAction{
		config:    cfg,
		builder:   targets.NewBuilder(cfg.Registry()).WithProjectRoot(cfg.Root()),
		manifests: manifests.NewStore(cfg.ManifestPath()),
		log:       log,
	}
}

// Execute resolves every library independently and reports all problems at once.
func (a *ResolveAction) Execute(libs []*models.Library) *Resolution {
	res := &Resolution{
		Manifest: manifests.New(),
		Problems: make([]targets.Problem, 0),
	}

	var resolved []targets.LibraryTargets
	for _, lib := range libs {
		set, err := a.builder.BuildLibrary(lib)
		if err != nil {
			problems := targets.ProblemsOf(err)
			a.log.Debug("library has problems",
				logger.String("library", lib.Name),
				logger.Int("problems", len(problems)))
			res.Problems = append(res.Problems, problems...)
			continue
		}
		resolved = append(resolved, targets.LibraryTargets{Library: lib, Targets: set})
	}

	conflicting := make(map[string]bool)
	if err := a.builder.CheckOutputs(resolved); err != nil {
		for _, p := range targets.ProblemsOf(err) {
			conflicting[p.Library] = true
			res.Problems = append(res.Problems, p)
		}
	}

	for _, set := range resolved {
		if conflicting[set.Library.Name] {
			continue
		}
		res.Manifest.Merge(manifestEntry(set.Library, set.Targets))
		a.log.Debug("resolved library",
			logger.String("library", set.Library.Name),
			logger.Int("targets", len(set.Targets)))
	}

	return res
}

// Write merges the resolved libraries into the project manifest.
func (a *ResolveAction) Write(res *Resolution) error {
	manifest, err := a.manifests.Load()
	if err != nil {
		a.log.Warn("discarding unreadable manifest", logger.Err(err))
		manifest = manifests.New()
	}

	manifest.Merge(res.Manifest.Libraries...)
	manifest.Retain(a.knownLibraries())

	if err = a.manifests.Save(manifest); err != nil {
		return err
	}

	a.log.Info("wrote manifest", logger.String("path", a.manifests.Path()))
	return nil
}

func (a *ResolveAction) knownLibraries() map[string]bool {
	known := make(map[string]bool)
	for _, lib := range a.config.Libraries() {
		known[lib.Name] = true
	}
	return known
}

func manifestEntry(lib *models.Library, set []models.BuildTarget) manifests.Library {
	return manifests.Library{
		Name:    lib.Name,
		Path:    lib.Path,
		OutDir:  lib.OutDir,
		Targets: set,
	}
}

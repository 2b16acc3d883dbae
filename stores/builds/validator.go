package builds

import (
	"os"
	"sync"

	"github.com/vcnkl/libpack/cache/hashing"
	"github.com/vcnkl/libpack/models"
)

// Fingerprint is the pair of hashes a target is cached under.
type Fingerprint struct {
	InputHash  string
	TargetHash string
}

type Validator struct {
	projectRoot string
	store       *Store
	inputs      map[string]string
	mu          sync.Mutex
}

func NewValidator(projectRoot string, store *Store) *Validator {
	return &Validator{
		projectRoot: projectRoot,
		store:       store,
		inputs:      make(map[string]string),
	}
}

// Fingerprint hashes the library sources and the resolved target.
func (v *Validator) Fingerprint(lib *models.Library, target models.BuildTarget) (Fingerprint, error) {
	inputHash, err := v.inputHash(lib)
	if err != nil {
		return Fingerprint{}, err
	}

	targetHash, err := hashing.HashTarget(target, lib.Spec.Entry, lib.Options)
	if err != nil {
		return Fingerprint{}, err
	}

	return Fingerprint{InputHash: inputHash, TargetHash: targetHash}, nil
}

// inputHash is memoized per library, so a Validator belongs to a single build pass.
func (v *Validator) inputHash(lib *models.Library) (string, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if hash, ok := v.inputs[lib.Name]; ok {
		return hash, nil
	}

	hash, err := hashing.HashInputs(lib.Root(v.projectRoot), lib.In, []string{lib.OutputDir(v.projectRoot)})
	if err != nil {
		return "", err
	}
	v.inputs[lib.Name] = hash
	return hash, nil
}

// ShouldBuild reports whether the target must be emitted again.
func (v *Validator) ShouldBuild(lib *models.Library, target models.BuildTarget) (bool, Fingerprint, error) {
	fp, err := v.Fingerprint(lib, target)
	if err != nil {
		return true, fp, err
	}

	entry, ok := v.store.Get(target.ID())
	if !ok {
		return true, fp, nil
	}

	if entry.InputHash != fp.InputHash || entry.TargetHash != fp.TargetHash {
		return true, fp, nil
	}

	if !v.outputExists(lib, target) {
		return true, fp, nil
	}

	return false, fp, nil
}

func (v *Validator) outputExists(lib *models.Library, target models.BuildTarget) bool {
	_, err := os.Stat(lib.OutputPath(v.projectRoot, target.FileName))
	return err == nil
}

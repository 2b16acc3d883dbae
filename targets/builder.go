// Package targets turns a library declaration into the ordered set of build
// targets the emitter consumes.
package targets

import (
	"errors"
	"strings"

	"github.com/vcnkl/libpack/externals"
	"github.com/vcnkl/libpack/formats"
	"github.com/vcnkl/libpack/models"
	"github.com/vcnkl/libpack/naming"
)

// Builder is stateless and safe for concurrent use.
type Builder struct {
	registry *formats.Registry
	root     string
}

func NewBuilder(registry *formats.Registry) *Builder {
	return &Builder{registry: registry}
}

// WithProjectRoot returns a builder that resolves library output paths
// against root when checking outputs across libraries.
func (b *Builder) WithProjectRoot(root string) *Builder {
	return &Builder{registry: b.registry, root: root}
}

type candidate struct {
	rule    formats.Rule
	globals map[string]string
	valid   bool
}

// Build validates spec against the registry and returns one target per
// requested format in request order. Nothing is returned unless every format
// is valid; all problems are reported together in a *ValidationError.
func (b *Builder) Build(spec models.LibrarySpec, decl models.ExternalDeclaration) ([]models.BuildTarget, error) {
	var errs []error

	if strings.TrimSpace(spec.Entry) == "" {
		errs = append(errs, &InvalidSpecError{Field: "entry", Reason: "must not be empty"})
	}
	if strings.TrimSpace(spec.Name) == "" {
		errs = append(errs, &InvalidSpecError{Field: "name", Reason: "must not be empty"})
	}

	templater, err := naming.NewTemplater(spec.FileName)
	if err != nil {
		errs = append(errs, err)
	}

	seen := make(map[models.FormatID]bool, len(spec.Formats))
	candidates := make([]candidate, 0, len(spec.Formats))

	for _, id := range spec.Formats {
		if seen[id] {
			errs = append(errs, &DuplicateFormatError{Format: id})
			continue
		}
		seen[id] = true

		rule, err := b.registry.Lookup(id)
		if err != nil {
			errs = append(errs, err)
			continue
		}

		c := candidate{rule: rule, valid: true}

		if err = checkGlobalName(spec, rule); err != nil {
			errs = append(errs, err)
			c.valid = false
		}

		c.globals, err = externals.ResolveRule(decl, rule)
		if err != nil {
			errs = append(errs, flatten(err)...)
			c.valid = false
		}

		candidates = append(candidates, c)
	}

	var fileNames []string
	if templater != nil {
		ids := make([]models.FormatID, len(candidates))
		for i, c := range candidates {
			ids[i] = c.rule.ID
		}

		var nameErrs []error
		fileNames, nameErrs = templater.RenderAll(spec.Name, ids)
		errs = append(errs, nameErrs...)
	}

	if len(errs) > 0 {
		return nil, &ValidationError{Library: spec.Name, Errors: errs}
	}

	packages := decl.Packages()
	result := make([]models.BuildTarget, 0, len(candidates))
	for i, c := range candidates {
		target := models.BuildTarget{
			Library:   spec.Name,
			Format:    c.rule.ID,
			Wrapping:  c.rule.Wrapping,
			FileName:  fileNames[i],
			Globals:   c.globals,
			Externals: append([]string(nil), packages...),
		}
		if c.rule.GlobalName != formats.GlobalNone {
			target.GlobalName = strings.TrimSpace(spec.ExposedGlobal())
		}
		if target.Externals == nil {
			target.Externals = []string{}
		}
		result = append(result, target)
	}

	return result, nil
}

// BuildLibrary builds the target set of a discovered library.
func (b *Builder) BuildLibrary(lib *models.Library) ([]models.BuildTarget, error) {
	return b.Build(lib.Spec, lib.Externals)
}

type LibraryTargets struct {
	Library *models.Library
	Targets []models.BuildTarget
}

// BuildAll validates every library before returning anything, so a caller that
// emits artifacts only on a nil error never produces partial output.
func (b *Builder) BuildAll(libs []*models.Library) ([]LibraryTargets, error) {
	result := make([]LibraryTargets, 0, len(libs))
	var errs []error

	for _, lib := range libs {
		set, err := b.BuildLibrary(lib)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		result = append(result, LibraryTargets{Library: lib, Targets: set})
	}

	if err := b.CheckOutputs(result); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return result, nil
}

// CheckOutputs reports targets of different libraries that would write the
// same output file. The first library in sets keeps the path; every later
// claimant gets a *ValidationError.
func (b *Builder) CheckOutputs(sets []LibraryTargets) error {
	claims := naming.NewOutputClaims()
	var errs []error

	for _, set := range sets {
		var libErrs []error
		for _, target := range set.Targets {
			path := set.Library.OutputPath(b.root, target.FileName)
			if err := claims.Claim(path, target.ID(), target.Format); err != nil {
				libErrs = append(libErrs, err)
			}
		}
		if len(libErrs) > 0 {
			errs = append(errs, &ValidationError{Library: set.Library.Name, Errors: libErrs})
		}
	}

	return errors.Join(errs...)
}

func checkGlobalName(spec models.LibrarySpec, rule formats.Rule) error {
	global := spec.ExposedGlobal()
	// A blank name without global_name is already reported as InvalidSpec.
	if rule.GlobalName == formats.GlobalNone || (spec.GlobalName == "" && strings.TrimSpace(spec.Name) == "") {
		return nil
	}

	switch rule.GlobalName {
	case formats.GlobalProperty:
		if strings.TrimSpace(global) == "" {
			return &InvalidGlobalNameError{Format: rule.ID, Name: global, Reason: "must not be empty"}
		}
	case formats.GlobalIdentifier:
		if !naming.IsIdentifierPath(strings.TrimSpace(global)) {
			return &InvalidGlobalNameError{Format: rule.ID, Name: global, Reason: "must be a valid identifier, set global_name"}
		}
	}

	return nil
}

func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		return joined.Unwrap()
	}
	return []error{err}
}

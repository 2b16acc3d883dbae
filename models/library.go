package models

import (
	"path/filepath"
	"sort"
)

type LibrarySpec struct {
	Entry      string
	Name       string
	GlobalName string
	Formats    []FormatID
	FileName   string
}

// ExposedGlobal is the runtime global global-style formats assign the library to.
func (s LibrarySpec) ExposedGlobal() string {
	if s.GlobalName != "" {
		return s.GlobalName
	}
	return s.Name
}

type External struct {
	Package string
	Global  string
}

// ExternalDeclaration is an immutable set of externals ordered by package name.
type ExternalDeclaration struct {
	items []External
}

func NewExternalDeclaration(externals ...External) (ExternalDeclaration, error) {
	items := make([]External, 0, len(externals))
	seen := make(map[string]bool, len(externals))
	for _, e := range externals {
		if e.Package == "" {
			return ExternalDeclaration{}, &InvalidExternalError{Reason: "empty package name"}
		}
		if seen[e.Package] {
			return ExternalDeclaration{}, &InvalidExternalError{Package: e.Package, Reason: "declared more than once"}
		}
		seen[e.Package] = true
		items = append(items, e)
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Package < items[j].Package
	})

	return ExternalDeclaration{items: items}, nil
}

func (d ExternalDeclaration) Externals() []External {
	out := make([]External, len(d.items))
	copy(out, d.items)
	return out
}

func (d ExternalDeclaration) Packages() []string {
	out := make([]string, len(d.items))
	for i, e := range d.items {
		out[i] = e.Package
	}
	return out
}

func (d ExternalDeclaration) Len() int {
	return len(d.items)
}

func (d ExternalDeclaration) Lookup(pkg string) (External, bool) {
	for _, e := range d.items {
		if e.Package == pkg {
			return e, true
		}
	}
	return External{}, false
}

// With returns a declaration that also contains the given packages. Packages
// already declared keep their existing binding.
func (d ExternalDeclaration) With(extra ...External) ExternalDeclaration {
	merged := d.Externals()
	seen := make(map[string]bool, len(merged)+len(extra))
	for _, e := range merged {
		seen[e.Package] = true
	}
	for _, e := range extra {
		if seen[e.Package] || e.Package == "" {
			continue
		}
		seen[e.Package] = true
		merged = append(merged, e)
	}

	sort.Slice(merged, func(i, j int) bool {
		return merged[i].Package < merged[j].Package
	})

	return ExternalDeclaration{items: merged}
}

type InvalidExternalError struct {
	Package string
	Reason  string
}

func (e *InvalidExternalError) Error() string {
	if e.Package == "" {
		return "invalid external: " + e.Reason
	}
	return "invalid external " + e.Package + ": " + e.Reason
}

type Library struct {
	Name      string
	Path      string
	Spec      LibrarySpec
	Externals ExternalDeclaration
	In        []string
	OutDir    string
	Options   EmitOptions
	Hooks     Hooks
	Env       map[string]string
}

type EmitOptions struct {
	Minify    bool
	Sourcemap bool
	Platform  string
}

type Hooks struct {
	Pre  []string
	Post []string
}

func (l *Library) Root(projectRoot string) string {
	return filepath.Join(projectRoot, l.Path)
}

func (l *Library) EntryPath(projectRoot string) string {
	if filepath.IsAbs(l.Spec.Entry) {
		return l.Spec.Entry
	}
	return filepath.Join(l.Root(projectRoot), l.Spec.Entry)
}

func (l *Library) OutputDir(projectRoot string) string {
	if filepath.IsAbs(l.OutDir) {
		return l.OutDir
	}
	return filepath.Join(l.Root(projectRoot), l.OutDir)
}

func (l *Library) OutputPath(projectRoot, fileName string) string {
	return filepath.Join(l.OutputDir(projectRoot), fileName)
}

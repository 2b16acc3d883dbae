// Package externals maps packages left out of a bundle to the runtime globals
// that global-style formats read them from.
package externals

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vcnkl/libpack/formats"
	"github.com/vcnkl/libpack/models"
)

type Resolver struct {
	registry *formats.Registry
}

func NewResolver(registry *formats.Registry) *Resolver {
	return &Resolver{registry: registry}
}

func (r *Resolver) Resolve(decl models.ExternalDeclaration, format models.FormatID) (map[string]string, error) {
	rule, err := r.registry.Lookup(format)
	if err != nil {
		return nil, err
	}
	return ResolveRule(decl, rule)
}

// ResolveRule returns the package -> global table for one format. Formats that
// do not need globals get an empty table regardless of declared bindings. For
// the others every unbound package is reported.
func ResolveRule(decl models.ExternalDeclaration, rule formats.Rule) (map[string]string, error) {
	globals := make(map[string]string)
	if !rule.RequiresGlobals {
		return globals, nil
	}

	var errs []error
	for _, ext := range decl.Externals() {
		global := strings.TrimSpace(ext.Global)
		if global == "" {
			errs = append(errs, &MissingGlobalBindingError{Package: ext.Package, Format: rule.ID})
			continue
		}
		globals[ext.Package] = global
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}

	return globals, nil
}

type MissingGlobalBindingError struct {
	Package string
	Format  models.FormatID
}

func (e *MissingGlobalBindingError) Error() string {
	return fmt.Sprintf("external %q has no global binding required by format %s", e.Package, e.Format)
}

func (e *MissingGlobalBindingError) Kind() models.ErrorKind {
	return models.KindMissingGlobalBinding
}

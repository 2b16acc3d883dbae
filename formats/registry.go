// Package formats holds the catalog of output formats a library can be
// emitted in and the wrapping rules of each.
package formats

import (
	"fmt"

	"github.com/vcnkl/libpack/models"
)

// GlobalNameMode describes how a format exposes the library at runtime.
type GlobalNameMode string

const (
	// GlobalNone formats export through the module system.
	GlobalNone GlobalNameMode = "none"
	// GlobalProperty formats assign root["name"], so any non-empty name works.
	GlobalProperty GlobalNameMode = "property"
	// GlobalIdentifier formats declare a variable and need a valid identifier path.
	GlobalIdentifier GlobalNameMode = "identifier"
)

type Rule struct {
	ID              models.FormatID
	Wrapping        models.Wrapping
	Description     string
	RequiresGlobals bool
	GlobalName      GlobalNameMode
	MultipleEntries bool
}

// RuleFor derives the rule of a format from its wrapping strategy.
func RuleFor(id models.FormatID, wrapping models.Wrapping, description string) (Rule, error) {
	rule := Rule{ID: id, Wrapping: wrapping, Description: description}

	switch wrapping {
	case models.WrapESM, models.WrapCJS:
		rule.GlobalName = GlobalNone
		rule.MultipleEntries = true
	case models.WrapUMD:
		rule.RequiresGlobals = true
		rule.GlobalName = GlobalProperty
	case models.WrapIIFE:
		rule.RequiresGlobals = true
		rule.GlobalName = GlobalIdentifier
	default:
		return Rule{}, fmt.Errorf("format %s: unknown wrapping %q", id, wrapping)
	}

	return rule, nil
}

func builtins() []Rule {
	return []Rule{
		mustRule(models.FormatESM, models.WrapESM, "ES module with import/export statements"),
		mustRule(models.FormatCJS, models.WrapCJS, "CommonJS module using require and module.exports"),
		mustRule(models.FormatUMD, models.WrapUMD, "Universal module for AMD, CommonJS and browser globals"),
		mustRule(models.FormatIIFE, models.WrapIIFE, "Self-executing script assigning a browser global"),
	}
}

func mustRule(id models.FormatID, wrapping models.Wrapping, description string) Rule {
	rule, err := RuleFor(id, wrapping, description)
	if err != nil {
		panic(err)
	}
	return rule
}

// Registry is an immutable lookup table of format rules. It is built once at
// startup and passed to whatever needs it.
type Registry struct {
	rules map[models.FormatID]Rule
	order []models.FormatID
}

// Default returns a registry containing the builtin formats.
func Default() *Registry {
	r, err := New(builtins()...)
	if err != nil {
		panic(err)
	}
	return r
}

// WithBuiltins returns a registry of the builtin formats followed by extra.
func WithBuiltins(extra ...Rule) (*Registry, error) {
	return New(append(builtins(), extra...)...)
}

func New(rules ...Rule) (*Registry, error) {
	r := &Registry{
		rules: make(map[models.FormatID]Rule, len(rules)),
		order: make([]models.FormatID, 0, len(rules)),
	}

	for _, rule := range rules {
		if rule.ID == "" {
			return nil, fmt.Errorf("format rule with empty id")
		}
		if _, exists := r.rules[rule.ID]; exists {
			return nil, fmt.Errorf("format %s registered more than once", rule.ID)
		}
		if !rule.Wrapping.Valid() {
			return nil, fmt.Errorf("format %s: unknown wrapping %q", rule.ID, rule.Wrapping)
		}
		r.rules[rule.ID] = rule
		r.order = append(r.order, rule.ID)
	}

	return r, nil
}

func (r *Registry) Lookup(id models.FormatID) (Rule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return Rule{}, &UnknownFormatError{ID: id, Known: r.IDs()}
	}
	return rule, nil
}

// Rules returns every rule in registration order.
func (r *Registry) Rules() []Rule {
	out := make([]Rule, len(r.order))
	for i, id := range r.order {
		out[i] = r.rules[id]
	}
	return out
}

func (r *Registry) IDs() []models.FormatID {
	out := make([]models.FormatID, len(r.order))
	copy(out, r.order)
	return out
}

type UnknownFormatError struct {
	ID    models.FormatID
	Known []models.FormatID
}

func (e *UnknownFormatError) Error() string {
	return fmt.Sprintf("unknown format %q (known: %v)", e.ID, e.Known)
}

func (e *UnknownFormatError) Kind() models.ErrorKind {
	return models.KindUnknownFormat
}

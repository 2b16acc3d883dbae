package targets

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vcnkl/libpack/externals"
	"github.com/vcnkl/libpack/formats"
	"github.com/vcnkl/libpack/models"
	"github.com/vcnkl/libpack/naming"
)

// ValidationError lists every problem found while building the target set of
// one library.
type ValidationError struct {
	Library string
	Errors  []error
}

func (e *ValidationError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, err := range e.Errors {
		msgs[i] = err.Error()
	}
	return fmt.Sprintf("library %q has %d invalid build target setting(s): %s",
		e.Library, len(e.Errors), strings.Join(msgs, "; "))
}

func (e *ValidationError) Unwrap() []error {
	return e.Errors
}

func (e *ValidationError) Problems() []Problem {
	problems := make([]Problem, len(e.Errors))
	for i, err := range e.Errors {
		problems[i] = problemFor(e.Library, err)
	}
	return problems
}

// Problem is the machine readable form of a single validation failure.
type Problem struct {
	Kind    models.ErrorKind `json:"kind" yaml:"kind"`
	Library string           `json:"library" yaml:"library"`
	Format  models.FormatID  `json:"format,omitempty" yaml:"format,omitempty"`
	Package string           `json:"package,omitempty" yaml:"package,omitempty"`
	File    string           `json:"file,omitempty" yaml:"file,omitempty"`
	Message string           `json:"message" yaml:"message"`
}

func problemFor(library string, err error) Problem {
	p := Problem{Kind: models.KindInvalidSpec, Library: library, Message: err.Error()}

	var (
		unknown   *formats.UnknownFormatError
		binding   *externals.MissingGlobalBindingError
		collision *naming.FileNameCollisionError
		output    *naming.OutputCollisionError
		fileName  *naming.InvalidFileNameError
		duplicate *DuplicateFormatError
		global    *InvalidGlobalNameError
	)

	switch {
	case errors.As(err, &unknown):
		p.Kind, p.Format = unknown.Kind(), unknown.ID
	case errors.As(err, &binding):
		p.Kind, p.Format, p.Package = binding.Kind(), binding.Format, binding.Package
	case errors.As(err, &collision):
		p.Kind, p.Format, p.File = collision.Kind(), collision.Format, collision.FileName
	case errors.As(err, &output):
		p.Kind, p.Format, p.File = output.Kind(), output.Format, output.Path
	case errors.As(err, &fileName):
		p.Kind, p.Format, p.File = fileName.Kind(), fileName.Format, fileName.FileName
	case errors.As(err, &duplicate):
		p.Kind, p.Format = duplicate.Kind(), duplicate.Format
	case errors.As(err, &global):
		p.Kind, p.Format = global.Kind(), global.Format
	}

	return p
}

// ProblemsOf collects problems from a ValidationError or a join of them.
func ProblemsOf(err error) []Problem {
	if err == nil {
		return nil
	}

	if validation, ok := err.(*ValidationError); ok {
		return validation.Problems()
	}

	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var problems []Problem
		for _, e := range joined.Unwrap() {
			problems = append(problems, ProblemsOf(e)...)
		}
		return problems
	}

	var validation *ValidationError
	if errors.As(err, &validation) {
		return validation.Problems()
	}

	return []Problem{{Kind: models.KindInvalidSpec, Message: err.Error()}}
}

type DuplicateFormatError struct {
	Format models.FormatID
}

func (e *DuplicateFormatError) Error() string {
	return fmt.Sprintf("format %s requested more than once", e.Format)
}

func (e *DuplicateFormatError) Kind() models.ErrorKind {
	return models.KindDuplicateFormat
}

type InvalidGlobalNameError struct {
	Format models.FormatID
	Name   string
	Reason string
}

func (e *InvalidGlobalNameError) Error() string {
	return fmt.Sprintf("format %s cannot expose global %q: %s", e.Format, e.Name, e.Reason)
}

func (e *InvalidGlobalNameError) Kind() models.ErrorKind {
	return models.KindInvalidGlobalName
}

type InvalidSpecError struct {
	Field  string
	Reason string
}

func (e *InvalidSpecError) Error() string {
	return e.Field + " " + e.Reason
}

func (e *InvalidSpecError) Kind() models.ErrorKind {
	return models.KindInvalidSpec
}

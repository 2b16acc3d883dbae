// Package naming renders output file names for build targets.
package naming

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/vcnkl/libpack/models"
)

const DefaultTemplate = "{name}.{format}.js"

var placeholders = map[string]bool{
	"name":   true,
	"format": true,
}

type Templater struct {
	template string
}

func NewTemplater(template string) (*Templater, error) {
	if template == "" {
		template = DefaultTemplate
	}

	if err := checkTemplate(template); err != nil {
		return nil, err
	}

	return &Templater{template: template}, nil
}

func checkTemplate(template string) error {
	rest := template
	for {
		open := strings.IndexByte(rest, '{')
		closing := strings.IndexByte(rest, '}')
		if open == -1 && closing == -1 {
			break
		}
		if open == -1 || closing < open {
			return &InvalidTemplateError{Template: template, Reason: "unbalanced braces"}
		}
		key := rest[open+1 : closing]
		if !placeholders[key] {
			return &InvalidTemplateError{Template: template, Reason: fmt.Sprintf("unknown placeholder {%s}", key)}
		}
		rest = rest[closing+1:]
	}

	if strings.HasPrefix(template, "/") || filepath.IsAbs(template) {
		return &InvalidTemplateError{Template: template, Reason: "must be relative to the output directory"}
	}
	for _, part := range strings.Split(filepath.ToSlash(template), "/") {
		if part == ".." {
			return &InvalidTemplateError{Template: template, Reason: "must not leave the output directory"}
		}
	}

	return nil
}

func (t *Templater) Template() string {
	return t.template
}

// Render is a pure function of (name, format).
func (t *Templater) Render(name string, format models.FormatID) string {
	return strings.NewReplacer("{name}", name, "{format}", string(format)).Replace(t.template)
}

// RenderAll renders one file name per format, in order. Every collision and
// every name escaping the output directory is reported.
func (t *Templater) RenderAll(name string, formats []models.FormatID) ([]string, []error) {
	names := make([]string, len(formats))
	claims := NewClaims()
	var errs []error

	for i, format := range formats {
		fileName := t.Render(name, format)
		names[i] = fileName

		if !filepath.IsLocal(fileName) {
			errs = append(errs, &InvalidFileNameError{FileName: fileName, Format: format})
			continue
		}
		if err := claims.Claim(fileName, format); err != nil {
			errs = append(errs, err)
		}
	}

	return names, errs
}

// Claims tracks which format owns each rendered file name. Names are compared
// case-insensitively.
type Claims struct {
	owners map[string]models.FormatID
}

func NewClaims() *Claims {
	return &Claims{owners: make(map[string]models.FormatID)}
}

func (c *Claims) Claim(fileName string, format models.FormatID) error {
	key := strings.ToLower(filepath.Clean(fileName))
	if owner, ok := c.owners[key]; ok && owner != format {
		return &FileNameCollisionError{FileName: fileName, Format: format, Existing: owner}
	}
	c.owners[key] = format
	return nil
}

// OutputClaims tracks which target owns each output path across libraries.
type OutputClaims struct {
	owners map[string]string
}

func NewOutputClaims() *OutputClaims {
	return &OutputClaims{owners: make(map[string]string)}
}

func (c *OutputClaims) Claim(path string, targetID string, format models.FormatID) error {
	key := strings.ToLower(filepath.Clean(path))
	if owner, ok := c.owners[key]; ok && owner != targetID {
		return &OutputCollisionError{Path: path, Target: targetID, Format: format, Existing: owner}
	}
	c.owners[key] = targetID
	return nil
}

type OutputCollisionError struct {
	Path     string
	Target   string
	Format   models.FormatID
	Existing string
}

func (e *OutputCollisionError) Error() string {
	return fmt.Sprintf("target %s writes %s, which target %s already writes", e.Target, e.Path, e.Existing)
}

func (e *OutputCollisionError) Kind() models.ErrorKind {
	return models.KindFileNameCollision
}

type FileNameCollisionError struct {
	FileName string
	Format   models.FormatID
	Existing models.FormatID
}

func (e *FileNameCollisionError) Error() string {
	return fmt.Sprintf("format %s renders file name %q already used by format %s", e.Format, e.FileName, e.Existing)
}

func (e *FileNameCollisionError) Kind() models.ErrorKind {
	return models.KindFileNameCollision
}

type InvalidFileNameError struct {
	FileName string
	Format   models.FormatID
}

func (e *InvalidFileNameError) Error() string {
	return fmt.Sprintf("format %s renders file name %q outside the output directory", e.Format, e.FileName)
}

func (e *InvalidFileNameError) Kind() models.ErrorKind {
	return models.KindInvalidSpec
}

type InvalidTemplateError struct {
	Template string
	Reason   string
}

func (e *InvalidTemplateError) Error() string {
	return fmt.Sprintf("invalid file name template %q: %s", e.Template, e.Reason)
}

func (e *InvalidTemplateError) Kind() models.ErrorKind {
	return models.KindInvalidSpec
}

// Package errors defines the closed set of error kinds produced by the
// rendering pipeline so callers can branch on kind rather than message text.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline error.
type Kind string

const (
	KindNone                  Kind = ""
	KindMissingFrontMatter    Kind = "missing_front_matter"
	KindMissingTemplateKey    Kind = "missing_template_key"
	KindTemplateNotFound      Kind = "template_not_found"
	KindIOFailure             Kind = "io_failure"
	KindUnresolvedPartial     Kind = "unresolved_partial"
	KindUnresolvedPlaceholder Kind = "unresolved_placeholder"
	KindOther                 Kind = "other"
)

var (
	// ErrMissingFrontMatter indicates a page does not start with a delimited metadata block.
	ErrMissingFrontMatter = errors.New("page needs to define metadata/template")

	// ErrMissingTemplateKey indicates a page's metadata has no template key.
	ErrMissingTemplateKey = errors.New("page needs to define a template")

	// ErrTemplateNotFound indicates a page names a template that was not loaded.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrIOFailure is matched by every *IOFailure.
	ErrIOFailure = errors.New("io failure")

	// ErrUnresolvedPartial is matched by every *UnresolvedPartial.
	ErrUnresolvedPartial = errors.New("unresolved partial")

	// ErrUnresolvedPlaceholder is matched by every *UnresolvedPlaceholder.
	ErrUnresolvedPlaceholder = errors.New("unresolved placeholder")
)

// IOFailure records a failed filesystem operation on Path.
type IOFailure struct {
	Op   string
	Path string
	Err  error
}

// NewIOFailure wraps err as an IOFailure for op on path.
func NewIOFailure(op, path string, err error) *IOFailure {
	return &IOFailure{Op: op, Path: path, Err: err}
}

func (e *IOFailure) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s %s: %v", e.Op, e.Path, ErrIOFailure)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOFailure) Unwrap() error { return e.Err }

func (e *IOFailure) Is(target error) bool { return target == ErrIOFailure }

// UnresolvedPartial reports a partial reference with no matching partial.
type UnresolvedPartial struct {
	Name     string
	Template string
}

func (e *UnresolvedPartial) Error() string {
	if e.Template == "" {
		return fmt.Sprintf("partial %q not found", e.Name)
	}
	return fmt.Sprintf("partial %q not found (template %s)", e.Name, e.Template)
}

func (e *UnresolvedPartial) Is(target error) bool { return target == ErrUnresolvedPartial }

// UnresolvedPlaceholder reports a placeholder whose key is absent from page metadata.
type UnresolvedPlaceholder struct {
	Key  string
	Page string
}

func (e *UnresolvedPlaceholder) Error() string {
	return fmt.Sprintf("placeholder %q has no value (page %s)", e.Key, e.Page)
}

func (e *UnresolvedPlaceholder) Is(target error) bool { return target == ErrUnresolvedPlaceholder }

// TemplateNotFound reports a page whose template name did not resolve.
type TemplateNotFound struct {
	Name string
	Page string
}

func (e *TemplateNotFound) Error() string {
	return fmt.Sprintf("template %s not found (page %s)", e.Name, e.Page)
}

func (e *TemplateNotFound) Is(target error) bool { return target == ErrTemplateNotFound }

// KindOf classifies err by walking its chain. Nil yields KindNone.
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindNone
	case errors.Is(err, ErrMissingFrontMatter):
		return KindMissingFrontMatter
	case errors.Is(err, ErrMissingTemplateKey):
		return KindMissingTemplateKey
	case errors.Is(err, ErrTemplateNotFound):
		return KindTemplateNotFound
	case errors.Is(err, ErrUnresolvedPartial):
		return KindUnresolvedPartial
	case errors.Is(err, ErrUnresolvedPlaceholder):
		return KindUnresolvedPlaceholder
	case errors.Is(err, ErrIOFailure):
		return KindIOFailure
	default:
		return KindOther
	}
}

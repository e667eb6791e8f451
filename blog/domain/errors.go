package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound           = errors.New("not found")
	ErrInvalidSlug        = errors.New("invalid slug")
	ErrInvalidFrontmatter = errors.New("invalid frontmatter")
	ErrMissingField       = errors.New("missing required frontmatter field")
	ErrDuplicateSlug      = errors.New("duplicate slug")
)

// LoadError is a structural failure to read the content root itself, as
// opposed to a failure to parse a single file within it.
type LoadError struct {
	Root string
	Op   string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("content: %s %s: %v", e.Op, e.Root, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// ValidateSlug rejects slugs that cannot be matched by a route or that could
// escape the content directory.
func ValidateSlug(slug string) error {
	if slug == "" {
		return fmt.Errorf("%w: empty", ErrInvalidSlug)
	}
	if strings.Contains(slug, "..") || strings.ContainsAny(slug, `/\`) {
		return fmt.Errorf("%w: %q", ErrInvalidSlug, slug)
	}
	return nil
}

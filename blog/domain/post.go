package domain

import (
	"context"
	"time"
)

// Post represents a blog post
// A post is created from a Markdown file with a YAML frontmatter block. Posts are
// rendered to HTML once, when the content is loaded, and are never modified afterwards.
type Post struct {
	Slug          string
	Title         string
	Date          time.Time
	Updated       time.Time
	Author        string
	Description   string
	Tags          []string
	Category      string
	Template      string
	Draft         bool
	TOC           bool
	FeaturedImage string
	Related       []RelatedRef

	RawContent string
	FilePath   string
	Digest     string

	HTML       string
	TOCEntries []TocEntry
	Snippet    string
}

// RelatedRef points at another post in the same snapshot.
type RelatedRef struct {
	Slug         string `yaml:"slug"`
	Relationship string `yaml:"relationship"`
}

// Label returns the human readable relationship name.
func (r RelatedRef) Label() string {
	switch r.Relationship {
	case "prequel":
		return "Previously"
	case "sequel":
		return "Continued in"
	case "response":
		return "In response to"
	case "":
		return "Related"
	default:
		return r.Relationship
	}
}

// HasTag reports whether the post is tagged with tag.
func (p *Post) HasTag(tag string) bool {
	for _, t := range p.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// TocEntry is a single heading in a post's table of contents.
type TocEntry struct {
	Level int
	Text  string
	ID    string
}

// Rendered is the output of rendering a markdown body.
type Rendered struct {
	HTML    string
	TOC     []TocEntry
	Snippet string
}

// Renderer converts markdown bodies into HTML.
type Renderer interface {
	Render(markdown []byte) (*Rendered, error)
}

// ContentLoader builds a complete Snapshot of the content store.
type ContentLoader interface {
	Load(ctx context.Context) (*Snapshot, error)
}

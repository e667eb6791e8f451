package persistence

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/dfryer1193/mdblog/blog/domain"
	"gopkg.in/yaml.v3"
)

var frontmatterDelimiter = []byte("---")

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// yamlDate accepts both bare YAML timestamps and quoted date strings.
type yamlDate struct {
	time.Time
}

func (d *yamlDate) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: date must be a scalar", node.Line)
	}
	value := strings.TrimSpace(node.Value)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, value); err == nil {
			d.Time = t
			return nil
		}
	}
	return fmt.Errorf("line %d: unrecognized date %q", node.Line, node.Value)
}

type postFrontmatter struct {
	Title         string              `yaml:"title"`
	Slug          string              `yaml:"slug"`
	Date          *yamlDate           `yaml:"date"`
	Updated       *yamlDate           `yaml:"updated"`
	Author        string              `yaml:"author"`
	Description   string              `yaml:"description"`
	Tags          []string            `yaml:"tags"`
	Category      string              `yaml:"category"`
	Template      string              `yaml:"template"`
	Draft         bool                `yaml:"draft"`
	TOC           bool                `yaml:"toc"`
	FeaturedImage string              `yaml:"featured_image"`
	Related       []domain.RelatedRef `yaml:"related"`
}

type pageFrontmatter struct {
	Title       string `yaml:"title"`
	Slug        string `yaml:"slug"`
	Template    string `yaml:"template"`
	Description string `yaml:"description"`
	Draft       bool   `yaml:"draft"`
}

// splitFrontmatter separates the leading YAML block from the markdown body.
// The block must open on the first line and close with a line holding only
// "---".
func splitFrontmatter(content []byte) (meta []byte, body []byte, err error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))

	first, rest, found := bytes.Cut(content, []byte("\n"))
	if !bytes.Equal(bytes.TrimSpace(first), frontmatterDelimiter) {
		return nil, nil, fmt.Errorf("%w: file does not start with a frontmatter block", domain.ErrInvalidFrontmatter)
	}
	if !found {
		return nil, nil, fmt.Errorf("%w: unterminated frontmatter block", domain.ErrInvalidFrontmatter)
	}

	offset := 0
	for offset <= len(rest) {
		line, remaining, more := bytes.Cut(rest[offset:], []byte("\n"))
		if bytes.Equal(bytes.TrimSpace(line), frontmatterDelimiter) {
			meta = rest[:offset]
			if more {
				body = remaining
			}
			return meta, body, nil
		}
		if !more {
			break
		}
		offset += len(line) + 1
	}

	return nil, nil, fmt.Errorf("%w: unterminated frontmatter block", domain.ErrInvalidFrontmatter)
}

func decodeFrontmatter(meta []byte, out any) error {
	if len(bytes.TrimSpace(meta)) == 0 {
		return fmt.Errorf("%w: empty frontmatter block", domain.ErrInvalidFrontmatter)
	}
	if err := yaml.Unmarshal(meta, out); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidFrontmatter, err)
	}
	return nil
}

// parsePost builds a post from a file's bytes. Rendering and digests are
// filled in by the loader.
func parsePost(content []byte) (*domain.Post, error) {
	meta, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}

	var fm postFrontmatter
	if err := decodeFrontmatter(meta, &fm); err != nil {
		return nil, err
	}

	switch {
	case strings.TrimSpace(fm.Title) == "":
		return nil, fmt.Errorf("%w: title", domain.ErrMissingField)
	case fm.Slug == "":
		return nil, fmt.Errorf("%w: slug", domain.ErrMissingField)
	case fm.Date == nil:
		return nil, fmt.Errorf("%w: date", domain.ErrMissingField)
	}
	if err := domain.ValidateSlug(fm.Slug); err != nil {
		return nil, err
	}

	post := &domain.Post{
		Slug:          fm.Slug,
		Title:         strings.TrimSpace(fm.Title),
		Date:          fm.Date.Time,
		Author:        fm.Author,
		Description:   fm.Description,
		Tags:          fm.Tags,
		Category:      fm.Category,
		Template:      fm.Template,
		Draft:         fm.Draft,
		TOC:           fm.TOC,
		FeaturedImage: fm.FeaturedImage,
		Related:       fm.Related,
		RawContent:    string(body),
	}
	if fm.Updated != nil {
		post.Updated = fm.Updated.Time
	}
	if post.Template == "" {
		post.Template = "post"
	}

	return post, nil
}

func parsePage(content []byte) (*domain.Page, error) {
	meta, body, err := splitFrontmatter(content)
	if err != nil {
		return nil, err
	}

	var fm pageFrontmatter
	if err := decodeFrontmatter(meta, &fm); err != nil {
		return nil, err
	}

	switch {
	case strings.TrimSpace(fm.Title) == "":
		return nil, fmt.Errorf("%w: title", domain.ErrMissingField)
	case fm.Slug == "":
		return nil, fmt.Errorf("%w: slug", domain.ErrMissingField)
	}
	if err := domain.ValidateSlug(fm.Slug); err != nil {
		return nil, err
	}

	page := &domain.Page{
		Slug:        fm.Slug,
		Title:       strings.TrimSpace(fm.Title),
		Template:    fm.Template,
		Description: fm.Description,
		Draft:       fm.Draft,
		RawContent:  string(body),
	}
	if page.Template == "" {
		page.Template = "page"
	}

	return page, nil
}

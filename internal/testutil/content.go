// Package testutil writes content fixtures for tests.
package testutil

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// PostFixture describes a post fixture.
type PostFixture struct {
	Slug     string
	Title    string
	Date     string
	Draft    bool
	Author   string
	Category string
	Tags     []string
	Body     string
}

// Markdown renders the fixture as a markdown file with frontmatter.
func (p PostFixture) Markdown() string {
	var b strings.Builder
	b.WriteString("---\n")
	fmt.Fprintf(&b, "title: %q\n", p.Title)
	fmt.Fprintf(&b, "slug: %q\n", p.Slug)
	fmt.Fprintf(&b, "date: %s\n", p.Date)
	if p.Draft {
		b.WriteString("draft: true\n")
	}
	if p.Author != "" {
		fmt.Fprintf(&b, "author: %q\n", p.Author)
	}
	if p.Category != "" {
		fmt.Fprintf(&b, "category: %q\n", p.Category)
	}
	if len(p.Tags) > 0 {
		fmt.Fprintf(&b, "tags: [%s]\n", strings.Join(p.Tags, ", "))
	}
	b.WriteString("---\n\n")
	body := p.Body
	if body == "" {
		body = "Body of " + p.Title + ".\n"
	}
	b.WriteString(body)
	return b.String()
}

// WritePost writes p as <root>/posts/<name> and returns the file path.
func WritePost(t testing.TB, root, name string, p PostFixture) string {
	t.Helper()
	return WriteFile(t, filepath.Join(root, "posts", name), p.Markdown())
}

// WritePage writes a page fixture as <root>/pages/<slug>.md.
func WritePage(t testing.TB, root, slug, title, body string) string {
	t.Helper()
	content := fmt.Sprintf("---\ntitle: %q\nslug: %q\n---\n\n%s", title, slug, body)
	return WriteFile(t, filepath.Join(root, "pages", slug+".md"), content)
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t testing.TB, path, content string) string {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
	return path
}

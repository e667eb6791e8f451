package application

import (
	"bytes"
	"fmt"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/dfryer1193/mdblog/blog/domain"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

var _ domain.Renderer = (*MarkdownRenderer)(nil)

const (
	maxLength = 200

	minTOCLevel = 2
	maxTOCLevel = 3
)

var datedFilePrefix = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}-`)

// MarkdownOptions configures a MarkdownRenderer.
type MarkdownOptions struct {
	// BaseURL is prepended to rewritten relative links. Empty keeps links
	// site-relative.
	BaseURL string
	// HighlightStyle names the chroma style used for fenced code blocks.
	HighlightStyle string
}

type relativeLinkTransformer struct {
	domain string
}

func (t *relativeLinkTransformer) Transform(node *ast.Document, reader text.Reader, pc parser.Context) {
	ast.Walk(node, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}

		switch v := n.(type) {
		case *ast.Image:
			if dest := string(v.Destination); isRelativeLink(dest) {
				v.Destination = []byte(t.domain + "/images/" + path.Base(dest))
			}
		case *ast.Link:
			if dest := string(v.Destination); isRelativeLink(dest) {
				v.Destination = []byte(t.rewriteLink(dest))
			}
		}

		return ast.WalkContinue, nil
	})
}

// rewriteLink maps a link to another content file onto its route. Files named
// YYYY-MM-DD-slug.md link to /posts/slug.
func (t *relativeLinkTransformer) rewriteLink(dest string) string {
	dest, fragment, _ := strings.Cut(dest, "#")

	section := "posts"
	if path.Base(path.Dir(dest)) == "pages" {
		section = "pages"
	}

	slug := path.Base(dest)
	slug = strings.TrimSuffix(slug, ".md")
	slug = strings.TrimSuffix(slug, ".html")
	slug = datedFilePrefix.ReplaceAllString(slug, "")

	out := t.domain + "/" + section + "/" + slug
	if fragment != "" {
		out += "#" + fragment
	}
	return out
}

// isRelativeLink reports whether dest points at another file of the content
// tree. Site-absolute paths, fragments and anything with a scheme are left
// untouched.
func isRelativeLink(dest string) bool {
	if dest == "" || strings.HasPrefix(dest, "#") || strings.HasPrefix(dest, "/") {
		return false
	}

	if strings.HasPrefix(dest, "./") || strings.HasPrefix(dest, "../") {
		return true
	}

	if strings.Contains(dest, ":") {
		return false
	}

	return true
}

// MarkdownRenderer converts post and page bodies to HTML with highlighted
// code blocks and a table of contents.
type MarkdownRenderer struct {
	renderer goldmark.Markdown
}

func NewMarkdownRenderer(opts MarkdownOptions) *MarkdownRenderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Table,
			extension.Strikethrough,
			extension.TaskList,
			extension.Footnote,
		),
		goldmark.WithParserOptions(
			parser.WithAutoHeadingID(),
			parser.WithASTTransformers(
				util.Prioritized(&relativeLinkTransformer{domain: strings.TrimSuffix(opts.BaseURL, "/")}, 100),
			),
		),
		goldmark.WithRendererOptions(
			html.WithXHTML(),
			html.WithUnsafe(),
			renderer.WithNodeRenderers(
				util.Prioritized(newCodeHighlighter(opts.HighlightStyle), 200),
			),
		),
	)

	return &MarkdownRenderer{
		renderer: md,
	}
}

func (r *MarkdownRenderer) Render(markdown []byte) (*domain.Rendered, error) {
	doc := r.renderer.Parser().Parse(text.NewReader(markdown))

	var buf bytes.Buffer
	if err := r.renderer.Renderer().Render(&buf, markdown, doc); err != nil {
		return nil, fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}

	return &domain.Rendered{
		HTML:    buf.String(),
		TOC:     extractTOC(doc, markdown),
		Snippet: extractSnippet(markdown),
	}, nil
}

// extractTOC collects second and third level headings with the ids assigned
// by the parser.
func extractTOC(doc ast.Node, source []byte) []domain.TocEntry {
	var entries []domain.TocEntry
	ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		heading, ok := n.(*ast.Heading)
		if !ok {
			return ast.WalkContinue, nil
		}
		if heading.Level < minTOCLevel || heading.Level > maxTOCLevel {
			return ast.WalkSkipChildren, nil
		}

		entry := domain.TocEntry{
			Level: heading.Level,
			Text:  nodeText(heading, source),
		}
		if id, ok := heading.AttributeString("id"); ok {
			if b, ok := id.([]byte); ok {
				entry.ID = string(b)
			}
		}
		entries = append(entries, entry)
		return ast.WalkSkipChildren, nil
	})
	return entries
}

func nodeText(n ast.Node, source []byte) string {
	var b strings.Builder
	ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch v := c.(type) {
		case *ast.Text:
			b.Write(v.Segment.Value(source))
		case *ast.String:
			b.Write(v.Value)
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}

func extractSnippet(markdown []byte) string {
	lines := strings.Split(string(markdown), "\n")
	var paragraphLines []string

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)

		// Skip headings before we find content
		if strings.HasPrefix(trimmed, "#") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		if trimmed == "" {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		// Stop at code blocks, horizontal rules, lists, tables
		if strings.HasPrefix(trimmed, "```") ||
			strings.HasPrefix(trimmed, "---") ||
			strings.HasPrefix(trimmed, "***") ||
			strings.HasPrefix(trimmed, "- ") ||
			strings.HasPrefix(trimmed, "* ") ||
			strings.HasPrefix(trimmed, "+ ") ||
			strings.HasPrefix(trimmed, "|") {
			if len(paragraphLines) > 0 {
				break
			}
			continue
		}

		paragraphLines = append(paragraphLines, trimmed)
	}

	if len(paragraphLines) == 0 {
		return ""
	}

	snippet := strings.Join(paragraphLines, " ")

	if len(snippet) > maxLength {
		cut := maxLength
		for cut > 0 && !utf8.RuneStart(snippet[cut]) {
			cut--
		}
		snippet = snippet[:cut]
		if lastSpace := strings.LastIndexAny(snippet, " \t"); lastSpace > 0 {
			snippet = snippet[:lastSpace]
		}
		snippet += "..."
	}

	return snippet
}

package persistence

import (
	"context"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dfryer1193/mdblog/blog/domain"
	"github.com/rs/zerolog/log"
	"github.com/zeebo/blake3"
)

var _ domain.ContentLoader = (*FileContentLoader)(nil)

const (
	postsDir    = "posts"
	pagesDir    = "pages"
	markdownExt = ".md"
)

// FileContentLoader implements domain.ContentLoader by reading markdown files
// from a content root laid out as <root>/posts/*.md and <root>/pages/*.md.
type FileContentLoader struct {
	root               string
	includeUnpublished bool
	renderer           domain.Renderer
	now                func() time.Time
}

// NewFileContentLoader creates a loader for root. Draft records are dropped
// unless includeUnpublished is set.
func NewFileContentLoader(root string, includeUnpublished bool, renderer domain.Renderer) *FileContentLoader {
	return &FileContentLoader{
		root:               root,
		includeUnpublished: includeUnpublished,
		renderer:           renderer,
		now:                time.Now,
	}
}

// Root returns the content root this loader reads from.
func (l *FileContentLoader) Root() string {
	return l.root
}

// Load reads every post and page under the content root and returns a fully
// built snapshot. A missing root yields an empty snapshot. Files that fail to
// parse are skipped and reported in the snapshot; only failures to read the
// root or its subdirectories are returned as errors.
func (l *FileContentLoader) Load(ctx context.Context) (*domain.Snapshot, error) {
	info, err := os.Stat(l.root)
	if errors.Is(err, fs.ErrNotExist) {
		log.Warn().Str("root", l.root).Msg("Content root does not exist, serving no content")
		return domain.NewSnapshot(nil, nil, nil, l.now()), nil
	}
	if err != nil {
		return nil, &domain.LoadError{Root: l.root, Op: "stat", Err: err}
	}
	if !info.IsDir() {
		return nil, &domain.LoadError{Root: l.root, Op: "stat", Err: errors.New("not a directory")}
	}

	var skipped []domain.SkippedFile
	skip := func(path string, err error) {
		log.Warn().Err(err).Str("path", path).Msg("Skipping content file")
		skipped = append(skipped, domain.SkippedFile{Path: path, Reason: err.Error()})
	}

	posts, err := l.loadPosts(ctx, skip)
	if err != nil {
		return nil, err
	}

	pages, err := l.loadPages(ctx, skip)
	if err != nil {
		return nil, err
	}

	return domain.NewSnapshot(posts, pages, skipped, l.now()), nil
}

func (l *FileContentLoader) loadPosts(ctx context.Context, skip func(string, error)) ([]*domain.Post, error) {
	files, err := l.listMarkdown(postsDir)
	if err != nil {
		return nil, err
	}

	posts := make([]*domain.Post, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, &domain.LoadError{Root: l.root, Op: "load", Err: err}
		}

		post, err := l.readPost(path)
		if err != nil {
			skip(path, err)
			continue
		}
		// Excluded drafts do not claim their slug.
		if post.Draft && !l.includeUnpublished {
			log.Debug().Str("slug", post.Slug).Msg("Excluding draft post")
			continue
		}
		if first, dup := seen[post.Slug]; dup {
			skip(path, fmt.Errorf("%w: %q already defined by %s", domain.ErrDuplicateSlug, post.Slug, first))
			continue
		}
		seen[post.Slug] = path
		posts = append(posts, post)
	}

	return posts, nil
}

func (l *FileContentLoader) loadPages(ctx context.Context, skip func(string, error)) ([]*domain.Page, error) {
	files, err := l.listMarkdown(pagesDir)
	if err != nil {
		return nil, err
	}

	pages := make([]*domain.Page, 0, len(files))
	seen := make(map[string]string, len(files))
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, &domain.LoadError{Root: l.root, Op: "load", Err: err}
		}

		page, err := l.readPage(path)
		if err != nil {
			skip(path, err)
			continue
		}
		if page.Draft && !l.includeUnpublished {
			continue
		}
		if first, dup := seen[page.Slug]; dup {
			skip(path, fmt.Errorf("%w: %q already defined by %s", domain.ErrDuplicateSlug, page.Slug, first))
			continue
		}
		seen[page.Slug] = path
		pages = append(pages, page)
	}

	return pages, nil
}

// listMarkdown returns the markdown files directly inside <root>/<sub>, in
// directory order. A missing subdirectory has no files.
func (l *FileContentLoader) listMarkdown(sub string) ([]string, error) {
	dir := filepath.Join(l.root, sub)
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &domain.LoadError{Root: l.root, Op: "read " + sub, Err: err}
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() || !strings.EqualFold(filepath.Ext(entry.Name()), markdownExt) {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	return files, nil
}

func (l *FileContentLoader) readPost(path string) (*domain.Post, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read post file: %w", err)
	}

	post, err := parsePost(content)
	if err != nil {
		return nil, err
	}
	post.FilePath = path
	post.Digest = digest(content)

	if l.renderer != nil {
		rendered, err := l.renderer.Render([]byte(post.RawContent))
		if err != nil {
			return nil, fmt.Errorf("failed to render post: %w", err)
		}
		post.HTML = rendered.HTML
		post.Snippet = rendered.Snippet
		if post.TOC {
			post.TOCEntries = rendered.TOC
		}
		if post.Description == "" {
			post.Description = rendered.Snippet
		}
	}

	return post, nil
}

func (l *FileContentLoader) readPage(path string) (*domain.Page, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read page file: %w", err)
	}

	page, err := parsePage(content)
	if err != nil {
		return nil, err
	}
	page.FilePath = path
	page.Digest = digest(content)

	if l.renderer != nil {
		rendered, err := l.renderer.Render([]byte(page.RawContent))
		if err != nil {
			return nil, fmt.Errorf("failed to render page: %w", err)
		}
		page.HTML = rendered.HTML
		if page.Description == "" {
			page.Description = rendered.Snippet
		}
	}

	return page, nil
}

// digest identifies a file's exact bytes; it is used for HTTP validators.
func digest(content []byte) string {
	sum := blake3.Sum256(content)
	return hex.EncodeToString(sum[:16])
}

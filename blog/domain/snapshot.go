package domain

import (
	"slices"
	"sort"
	"strings"
	"time"
)

// SkippedFile records a content file that was left out of a load.
type SkippedFile struct {
	Path   string
	Reason string
}

// Snapshot is one complete, self-consistent view of the content store.
// A Snapshot is never modified once built; callers must treat the records it
// returns as read-only.
type Snapshot struct {
	posts     []*Post
	postIndex map[string]*Post
	pages     map[string]*Page
	skipped   []SkippedFile
	loadedAt  time.Time
}

// NewSnapshot builds a snapshot from already filtered records. Posts are
// ordered by date, most recent first, ties broken by slug.
func NewSnapshot(posts []*Post, pages []*Page, skipped []SkippedFile, loadedAt time.Time) *Snapshot {
	s := &Snapshot{
		posts:     slices.Clone(posts),
		postIndex: make(map[string]*Post, len(posts)),
		pages:     make(map[string]*Page, len(pages)),
		skipped:   slices.Clone(skipped),
		loadedAt:  loadedAt,
	}

	sort.SliceStable(s.posts, func(i, j int) bool {
		a, b := s.posts[i], s.posts[j]
		if !a.Date.Equal(b.Date) {
			return a.Date.After(b.Date)
		}
		return a.Slug < b.Slug
	})

	for _, p := range s.posts {
		s.postIndex[p.Slug] = p
	}
	for _, p := range pages {
		s.pages[p.Slug] = p
	}

	return s
}

// EmptySnapshot is the snapshot served before any content has been loaded.
func EmptySnapshot() *Snapshot {
	return NewSnapshot(nil, nil, nil, time.Time{})
}

// Posts returns the ordered posts. The slice is a copy; the posts are shared.
func (s *Snapshot) Posts() []*Post {
	return slices.Clone(s.posts)
}

func (s *Snapshot) Post(slug string) (*Post, bool) {
	p, ok := s.postIndex[slug]
	return p, ok
}

func (s *Snapshot) Page(slug string) (*Page, bool) {
	p, ok := s.pages[slug]
	return p, ok
}

// Pages returns all pages ordered by slug.
func (s *Snapshot) Pages() []*Page {
	pages := make([]*Page, 0, len(s.pages))
	for _, p := range s.pages {
		pages = append(pages, p)
	}
	sort.Slice(pages, func(i, j int) bool { return pages[i].Slug < pages[j].Slug })
	return pages
}

func (s *Snapshot) PostCount() int { return len(s.posts) }

func (s *Snapshot) PageCount() int { return len(s.pages) }

func (s *Snapshot) Skipped() []SkippedFile { return slices.Clone(s.skipped) }

func (s *Snapshot) LoadedAt() time.Time { return s.loadedAt }

// Categories returns the distinct, sorted categories used by posts.
func (s *Snapshot) Categories() []string {
	return s.distinct(func(p *Post) string { return p.Category })
}

// Authors returns the distinct, sorted authors of posts.
func (s *Snapshot) Authors() []string {
	return s.distinct(func(p *Post) string { return p.Author })
}

func (s *Snapshot) distinct(field func(*Post) string) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, p := range s.posts {
		v := field(p)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// SimilarByTags returns up to n other posts sharing at least one tag with
// post, ranked by the number of shared tags and then by snapshot order.
func (s *Snapshot) SimilarByTags(post *Post, n int) []*Post {
	if post == nil || len(post.Tags) == 0 || n <= 0 {
		return nil
	}

	type scored struct {
		post  *Post
		score int
		rank  int
	}

	var candidates []scored
	for i, p := range s.posts {
		if p.Slug == post.Slug {
			continue
		}
		score := 0
		for _, t := range post.Tags {
			if p.HasTag(t) {
				score++
			}
		}
		if score > 0 {
			candidates = append(candidates, scored{post: p, score: score, rank: i})
		}
	}

	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].rank < candidates[j].rank
	})

	out := make([]*Post, 0, min(n, len(candidates)))
	for _, c := range candidates {
		if len(out) == n {
			break
		}
		out = append(out, c.post)
	}
	return out
}

// FilterPosts returns the posts matching author and category. Empty filters
// match everything. Comparison is case-insensitive.
func (s *Snapshot) FilterPosts(author, category string) []*Post {
	if author == "" && category == "" {
		return s.Posts()
	}
	var out []*Post
	for _, p := range s.posts {
		if author != "" && !strings.EqualFold(p.Author, author) {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		out = append(out, p)
	}
	return out
}

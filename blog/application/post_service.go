package application

import (
	"fmt"

	"github.com/dfryer1193/mdblog/blog/domain"
	"github.com/rs/zerolog/log"
)

const (
	DefaultPostsPerPage = 10
	similarPostsLimit   = 3
)

// ListQuery selects a page of posts.
type ListQuery struct {
	Page     int
	PerPage  int
	Author   string
	Category string
}

// PostPage is one page of the post listing.
type PostPage struct {
	Posts      []*domain.Post
	Page       int
	TotalPages int
	Total      int
	HasNext    bool
	HasPrev    bool
	Author     string
	Category   string
	Categories []string
	Nav        []*domain.Page
	Generation uint64
}

// RelatedPost is an explicitly related post together with its label.
type RelatedPost struct {
	Post  *domain.Post
	Label string
}

// PostView is everything needed to show a single post.
type PostView struct {
	Post            *domain.Post
	ExplicitRelated []RelatedPost
	Similar         []*domain.Post
	Nav             []*domain.Page
	Generation      uint64
}

// PageView is a single page and the generation it was read from.
type PageView struct {
	Page       *domain.Page
	Nav        []*domain.Page
	Generation uint64
}

// IndexView is the content of the landing page.
type IndexView struct {
	Featured   *domain.Post
	Posts      []*domain.Post
	Total      int
	Nav        []*domain.Page
	Generation uint64
}

// PostService answers read queries from the content cache. Each call reads
// the cache once, so a single response never mixes two snapshots.
type PostService struct {
	cache        *ContentCache
	postsPerPage int
}

func NewPostService(cache *ContentCache, postsPerPage int) *PostService {
	if postsPerPage <= 0 {
		postsPerPage = DefaultPostsPerPage
	}
	return &PostService{
		cache:        cache,
		postsPerPage: postsPerPage,
	}
}

func (s *PostService) PostsPerPage() int {
	return s.postsPerPage
}

// Generation returns the generation of the snapshot currently served.
func (s *PostService) Generation() uint64 {
	return s.cache.Generation()
}

// Nav returns the pages of the current snapshot ordered by slug.
func (s *PostService) Nav() []*domain.Page {
	snap, _ := s.view()
	return snap.Pages()
}

// view pairs the snapshot with its generation from a single cache read.
func (s *PostService) view() (*domain.Snapshot, uint64) {
	entry := s.cache.current.Load()
	return entry.snapshot, entry.generation
}

// Index returns the most recent posts. A limit of zero or less uses the
// configured page size.
func (s *PostService) Index(limit int) IndexView {
	snap, gen := s.view()
	if limit <= 0 {
		limit = s.postsPerPage
	}

	posts := snap.Posts()
	view := IndexView{
		Total:      len(posts),
		Nav:        snap.Pages(),
		Generation: gen,
	}
	if len(posts) > limit {
		posts = posts[:limit]
	}
	view.Posts = posts
	if len(posts) > 0 {
		view.Featured = posts[0]
	}
	return view
}

// ListPosts returns one page of posts matching q. Pages are numbered from 1;
// out of range page numbers are clamped.
func (s *PostService) ListPosts(q ListQuery) PostPage {
	snap, gen := s.view()

	perPage := q.PerPage
	if perPage <= 0 {
		perPage = s.postsPerPage
	}

	matching := snap.FilterPosts(q.Author, q.Category)
	total := len(matching)
	totalPages := (total + perPage - 1) / perPage
	if totalPages == 0 {
		totalPages = 1
	}

	page := q.Page
	if page < 1 {
		page = 1
	}
	if page > totalPages {
		page = totalPages
	}

	start := (page - 1) * perPage
	end := min(start+perPage, total)

	return PostPage{
		Posts:      matching[start:end],
		Page:       page,
		TotalPages: totalPages,
		Total:      total,
		HasNext:    page < totalPages,
		HasPrev:    page > 1,
		Author:     q.Author,
		Category:   q.Category,
		Categories: snap.Categories(),
		Nav:        snap.Pages(),
		Generation: gen,
	}
}

// GetPost looks up a post by slug and resolves its related posts.
func (s *PostService) GetPost(slug string) (*PostView, error) {
	if err := domain.ValidateSlug(slug); err != nil {
		return nil, err
	}

	snap, gen := s.view()
	post, ok := snap.Post(slug)
	if !ok {
		return nil, fmt.Errorf("post %q: %w", slug, domain.ErrNotFound)
	}

	return &PostView{
		Post:            post,
		ExplicitRelated: resolveRelated(snap, post),
		Similar:         snap.SimilarByTags(post, similarPostsLimit),
		Nav:             snap.Pages(),
		Generation:      gen,
	}, nil
}

// GetPage looks up a page by slug.
func (s *PostService) GetPage(slug string) (*PageView, error) {
	if err := domain.ValidateSlug(slug); err != nil {
		return nil, err
	}

	snap, gen := s.view()
	page, ok := snap.Page(slug)
	if !ok {
		return nil, fmt.Errorf("page %q: %w", slug, domain.ErrNotFound)
	}

	return &PageView{Page: page, Nav: snap.Pages(), Generation: gen}, nil
}

// resolveRelated looks up the related references of post in snap. References
// to posts that are not in the snapshot are dropped.
func resolveRelated(snap *domain.Snapshot, post *domain.Post) []RelatedPost {
	if len(post.Related) == 0 {
		return nil
	}

	related := make([]RelatedPost, 0, len(post.Related))
	for _, ref := range post.Related {
		target, ok := snap.Post(ref.Slug)
		if !ok || target.Slug == post.Slug {
			log.Debug().Str("post", post.Slug).Str("related", ref.Slug).Msg("Related post not found in snapshot")
			continue
		}
		related = append(related, RelatedPost{Post: target, Label: ref.Label()})
	}
	return related
}

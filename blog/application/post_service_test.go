package application

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/dfryer1193/mdblog/blog/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(n int) time.Time {
	return time.Date(2024, 1, n, 0, 0, 0, 0, time.UTC)
}

func newTestService(t *testing.T, perPage int, posts []*domain.Post, pages []*domain.Page) *PostService {
	t.Helper()
	cache := NewContentCache(loaderFunc(func(context.Context) (*domain.Snapshot, error) {
		return domain.NewSnapshot(posts, pages, nil, time.Now()), nil
	}))
	require.NoError(t, cache.Init(context.Background()))
	return NewPostService(cache, perPage)
}

func numberedPosts(n int) []*domain.Post {
	posts := make([]*domain.Post, 0, n)
	for i := 1; i <= n; i++ {
		posts = append(posts, &domain.Post{
			Slug:  fmt.Sprintf("post-%02d", i),
			Title: fmt.Sprintf("Post %d", i),
			Date:  day(i),
		})
	}
	return posts
}

func TestNewPostService_DefaultPageSize(t *testing.T) {
	svc := NewPostService(NewContentCache(nil), 0)
	assert.Equal(t, DefaultPostsPerPage, svc.PostsPerPage())
}

func TestPostService_Index(t *testing.T) {
	svc := newTestService(t, 2, numberedPosts(3), nil)

	view := svc.Index(0)

	assert.Equal(t, []string{"post-03", "post-02"}, slugsOf(view.Posts))
	require.NotNil(t, view.Featured)
	assert.Equal(t, "post-03", view.Featured.Slug)
	assert.Equal(t, 3, view.Total)
	assert.Equal(t, uint64(1), view.Generation)
}

func TestPostService_IndexEmpty(t *testing.T) {
	svc := newTestService(t, 2, nil, nil)

	view := svc.Index(5)

	assert.Empty(t, view.Posts)
	assert.Nil(t, view.Featured)
}

func TestPostService_ListPosts(t *testing.T) {
	svc := newTestService(t, 2, numberedPosts(5), nil)

	tests := []struct {
		name         string
		query        ListQuery
		expected     []string
		expectedPage int
		hasNext      bool
		hasPrev      bool
	}{
		{
			name:         "First page",
			query:        ListQuery{Page: 1},
			expected:     []string{"post-05", "post-04"},
			expectedPage: 1,
			hasNext:      true,
		},
		{
			name:         "Middle page",
			query:        ListQuery{Page: 2},
			expected:     []string{"post-03", "post-02"},
			expectedPage: 2,
			hasNext:      true,
			hasPrev:      true,
		},
		{
			name:         "Last partial page",
			query:        ListQuery{Page: 3},
			expected:     []string{"post-01"},
			expectedPage: 3,
			hasPrev:      true,
		},
		{
			name:         "Page zero clamps to first",
			query:        ListQuery{Page: 0},
			expected:     []string{"post-05", "post-04"},
			expectedPage: 1,
			hasNext:      true,
		},
		{
			name:         "Page past the end clamps to last",
			query:        ListQuery{Page: 99},
			expected:     []string{"post-01"},
			expectedPage: 3,
			hasPrev:      true,
		},
		{
			name:         "Explicit page size",
			query:        ListQuery{Page: 1, PerPage: 10},
			expected:     []string{"post-05", "post-04", "post-03", "post-02", "post-01"},
			expectedPage: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page := svc.ListPosts(tt.query)
			assert.Equal(t, tt.expected, slugsOf(page.Posts))
			assert.Equal(t, tt.expectedPage, page.Page)
			assert.Equal(t, tt.hasNext, page.HasNext)
			assert.Equal(t, tt.hasPrev, page.HasPrev)
			assert.Equal(t, 5, page.Total)
		})
	}
}

func TestPostService_ListPostsFilters(t *testing.T) {
	posts := []*domain.Post{
		{Slug: "go-1", Date: day(1), Author: "Ada", Category: "Go"},
		{Slug: "go-2", Date: day(2), Author: "Grace", Category: "Go"},
		{Slug: "rust-1", Date: day(3), Author: "Ada", Category: "Rust"},
	}
	svc := newTestService(t, 10, posts, nil)

	byCategory := svc.ListPosts(ListQuery{Category: "go"})
	assert.Equal(t, []string{"go-2", "go-1"}, slugsOf(byCategory.Posts))
	assert.Equal(t, []string{"Go", "Rust"}, byCategory.Categories)
	assert.Equal(t, "go", byCategory.Category)

	byBoth := svc.ListPosts(ListQuery{Author: "ada", Category: "Go"})
	assert.Equal(t, []string{"go-1"}, slugsOf(byBoth.Posts))

	none := svc.ListPosts(ListQuery{Author: "nobody"})
	assert.Empty(t, none.Posts)
	assert.Equal(t, 1, none.TotalPages)
	assert.False(t, none.HasNext)
}

func TestPostService_GetPost(t *testing.T) {
	posts := []*domain.Post{
		{Slug: "part-1", Date: day(1), Tags: []string{"go", "series"}},
		{
			Slug: "part-2",
			Date: day(2),
			Tags: []string{"go", "series"},
			Related: []domain.RelatedRef{
				{Slug: "part-1", Relationship: "prequel"},
				{Slug: "deleted", Relationship: "sequel"},
				{Slug: "notes"},
			},
		},
		{Slug: "notes", Date: day(3), Tags: []string{"go"}},
		{Slug: "unrelated", Date: day(4), Tags: []string{"cooking"}},
	}
	svc := newTestService(t, 10, posts, nil)

	view, err := svc.GetPost("part-2")

	require.NoError(t, err)
	assert.Equal(t, "part-2", view.Post.Slug)
	require.Len(t, view.ExplicitRelated, 2)
	assert.Equal(t, "part-1", view.ExplicitRelated[0].Post.Slug)
	assert.Equal(t, "Previously", view.ExplicitRelated[0].Label)
	assert.Equal(t, "notes", view.ExplicitRelated[1].Post.Slug)
	assert.Equal(t, "Related", view.ExplicitRelated[1].Label)
	assert.Equal(t, []string{"part-1", "notes"}, slugsOf(view.Similar))
	assert.Equal(t, uint64(1), view.Generation)
}

func TestPostService_GetPostErrors(t *testing.T) {
	svc := newTestService(t, 10, numberedPosts(1), nil)

	tests := []struct {
		name     string
		slug     string
		expected error
	}{
		{name: "Unknown slug", slug: "missing", expected: domain.ErrNotFound},
		{name: "Traversal", slug: "../etc/passwd", expected: domain.ErrInvalidSlug},
		{name: "Backslash", slug: `a\b`, expected: domain.ErrInvalidSlug},
		{name: "Empty", slug: "", expected: domain.ErrInvalidSlug},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.GetPost(tt.slug)
			assert.True(t, errors.Is(err, tt.expected), "got %v", err)
		})
	}
}

func TestPostService_GetPage(t *testing.T) {
	pages := []*domain.Page{{Slug: "about", Title: "About"}}
	svc := newTestService(t, 10, nil, pages)

	view, err := svc.GetPage("about")
	require.NoError(t, err)
	assert.Equal(t, "About", view.Page.Title)

	_, err = svc.GetPage("contact")
	assert.ErrorIs(t, err, domain.ErrNotFound)

	_, err = svc.GetPage("..")
	assert.ErrorIs(t, err, domain.ErrInvalidSlug)
}

func TestPostService_ReflectsReload(t *testing.T) {
	var version int
	cache := NewContentCache(loaderFunc(func(context.Context) (*domain.Snapshot, error) {
		version++
		return domain.NewSnapshot(numberedPosts(version), nil, nil, time.Now()), nil
	}))
	require.NoError(t, cache.Init(context.Background()))
	svc := NewPostService(cache, 10)

	assert.Equal(t, 1, svc.Index(0).Total)

	_, err := cache.Reload(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, svc.Index(0).Total)
	assert.Equal(t, uint64(2), svc.Generation())
}

package rest

import (
	"time"

	"github.com/dfryer1193/mdblog/api"
	"github.com/dfryer1193/mdblog/blog/application"
	"github.com/dfryer1193/mdblog/blog/domain"
)

const apiDateLayout = "2006-01-02"

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(apiDateLayout)
}

func toPostSummary(p *domain.Post) api.PostSummary {
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	return api.PostSummary{
		Slug:          p.Slug,
		Title:         p.Title,
		Date:          formatDate(p.Date),
		Updated:       formatDate(p.Updated),
		Author:        p.Author,
		Description:   p.Description,
		Category:      p.Category,
		Tags:          tags,
		FeaturedImage: p.FeaturedImage,
		Snippet:       p.Snippet,
	}
}

func toPostSummaries(posts []*domain.Post) []api.PostSummary {
	out := make([]api.PostSummary, 0, len(posts))
	for _, p := range posts {
		out = append(out, toPostSummary(p))
	}
	return out
}

func toPost(view *application.PostView) api.Post {
	toc := make([]api.TocEntry, 0, len(view.Post.TOCEntries))
	for _, e := range view.Post.TOCEntries {
		toc = append(toc, api.TocEntry{Level: e.Level, Text: e.Text, ID: e.ID})
	}

	related := make([]api.RelatedPost, 0, len(view.ExplicitRelated))
	for _, r := range view.ExplicitRelated {
		related = append(related, api.RelatedPost{Label: r.Label, Post: toPostSummary(r.Post)})
	}

	return api.Post{
		PostSummary: toPostSummary(view.Post),
		HTML:        view.Post.HTML,
		TOC:         toc,
		Related:     related,
		Similar:     toPostSummaries(view.Similar),
		Generation:  view.Generation,
	}
}

func toPostList(page application.PostPage) api.PostList {
	categories := page.Categories
	if categories == nil {
		categories = []string{}
	}
	return api.PostList{
		Posts:      toPostSummaries(page.Posts),
		Page:       page.Page,
		TotalPages: page.TotalPages,
		Total:      page.Total,
		HasNext:    page.HasNext,
		HasPrev:    page.HasPrev,
		Categories: categories,
		Generation: page.Generation,
	}
}

func toPage(view *application.PageView) api.Page {
	return api.Page{
		Slug:        view.Page.Slug,
		Title:       view.Page.Title,
		Description: view.Page.Description,
		HTML:        view.Page.HTML,
		Generation:  view.Generation,
	}
}

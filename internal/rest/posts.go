package rest

import (
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/dfryer1193/mdblog/blog/application"
	"github.com/dfryer1193/mdblog/blog/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

func (a *Api) Index(c *gin.Context) {
	view := a.service.Index(0)
	data := gin.H{
		"site":     a.siteData(view.Nav),
		"featured": view.Featured,
		"posts":    view.Posts,
		"total":    view.Total,
	}
	if view.Featured != nil {
		data["description"] = view.Featured.Description
	}
	a.html(c, http.StatusOK, "index.html", data)
}

func (a *Api) ListPosts(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	a.renderPostList(c, listQuery(c, page))
}

func (a *Api) ListPostsPage(c *gin.Context) {
	page, err := strconv.Atoi(c.Param("page"))
	if err != nil || page < 1 {
		a.htmlError(c, fmt.Errorf("page %q: %w", c.Param("page"), domain.ErrNotFound))
		return
	}
	a.renderPostList(c, listQuery(c, page))
}

func listQuery(c *gin.Context, page int) application.ListQuery {
	return application.ListQuery{
		Page:     page,
		Author:   c.Query("author"),
		Category: c.Query("category"),
	}
}

func (a *Api) renderPostList(c *gin.Context, q application.ListQuery) {
	result := a.service.ListPosts(q)

	title := "All Posts"
	switch {
	case q.Author != "":
		title = q.Author + "'s Posts"
	case q.Category != "":
		title = q.Category
	}

	a.html(c, http.StatusOK, "post_list.html", gin.H{
		"site":            a.siteData(result.Nav),
		"title":           title,
		"posts":           result.Posts,
		"page":            result.Page,
		"total_pages":     result.TotalPages,
		"has_next":        result.HasNext,
		"has_prev":        result.HasPrev,
		"next_url":        pageURL(result.Page+1, q),
		"prev_url":        pageURL(result.Page-1, q),
		"author_filter":   q.Author,
		"category_filter": q.Category,
		"categories":      result.Categories,
	})
}

// pageURL links to page n of the listing, keeping the filters of q.
func pageURL(n int, q application.ListQuery) string {
	values := url.Values{}
	if q.Author != "" {
		values.Set("author", q.Author)
	}
	if q.Category != "" {
		values.Set("category", q.Category)
	}
	if len(values) == 0 {
		return fmt.Sprintf("/posts/page/%d", n)
	}
	values.Set("page", strconv.Itoa(n))
	return "/posts?" + values.Encode()
}

func (a *Api) GetPost(c *gin.Context) {
	view, err := a.service.GetPost(c.Param("slug"))
	if err != nil {
		a.htmlError(c, err)
		return
	}
	if notModified(c, entityTag(view.Post.Digest, view.Generation)) {
		return
	}

	a.html(c, http.StatusOK, a.postTemplate(view.Post), gin.H{
		"site":        a.siteData(view.Nav),
		"description": view.Post.Description,
		"post":        view.Post,
		"related":     view.ExplicitRelated,
		"similar":     view.Similar,
	})
}

// postTemplate picks the template named in the post's frontmatter, falling
// back to the default post template.
func (a *Api) postTemplate(post *domain.Post) string {
	name := post.Template + ".html"
	if post.Template != "" && a.templates.Has(name) {
		return name
	}
	if post.Template != "" && post.Template != "post" {
		log.Debug().Str("post", post.Slug).Str("template", post.Template).Msg("Unknown post template, using default")
	}
	return "post.html"
}

func (a *Api) ListPostsJSON(c *gin.Context) {
	page, err := strconv.Atoi(c.DefaultQuery("page", "1"))
	if err != nil {
		page = 1
	}
	result := a.service.ListPosts(listQuery(c, page))
	c.JSON(http.StatusOK, toPostList(result))
}

func (a *Api) GetPostJSON(c *gin.Context) {
	view, err := a.service.GetPost(c.Param("slug"))
	if err != nil {
		jsonError(c, err)
		return
	}
	if notModified(c, entityTag(view.Post.Digest, view.Generation)) {
		return
	}
	c.JSON(http.StatusOK, toPost(view))
}

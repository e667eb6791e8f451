package rest

import (
	"net/http"

	"github.com/dfryer1193/mdblog/blog/application"
	"github.com/dfryer1193/mdblog/blog/domain"
	"github.com/gin-gonic/gin"
)

// Site holds the values shown on every rendered page.
type Site struct {
	Title   string
	BaseURL string
}

// Options configures the routes registered by NewApi.
type Options struct {
	Site       Site
	StaticPath string
	ImagesPath string
}

type Api struct {
	service   *application.PostService
	templates *Templates
	site      Site
}

// NewApi registers the HTML and JSON routes on router.
func NewApi(router *gin.Engine, service *application.PostService, templates *Templates, opts Options) *Api {
	a := &Api{
		service:   service,
		templates: templates,
		site:      opts.Site,
	}

	router.GET("/", a.Index)
	router.GET("/health", Health)

	posts := router.Group("posts")
	{
		posts.GET("", a.ListPosts)
		posts.GET("/page/:page", a.ListPostsPage)
		posts.GET("/:slug", a.GetPost)
	}
	router.GET("/pages/:slug", a.GetPage)

	apiV1 := router.Group("api/v1")
	{
		apiV1.GET("/posts", a.ListPostsJSON)
		apiV1.GET("/posts/:slug", a.GetPostJSON)
		apiV1.GET("/pages/:slug", a.GetPageJSON)
	}

	if opts.StaticPath != "" {
		router.Static("/static", opts.StaticPath)
	}
	if opts.ImagesPath != "" {
		router.Static("/images", opts.ImagesPath)
	}

	router.NoRoute(a.NotFound)

	return a
}

func Health(c *gin.Context) {
	c.String(http.StatusOK, "OK")
}

// siteData is the "site" value available to every template.
func (a *Api) siteData(nav []*domain.Page) gin.H {
	return gin.H{
		"Title":   a.site.Title,
		"BaseURL": a.site.BaseURL,
		"Pages":   nav,
	}
}

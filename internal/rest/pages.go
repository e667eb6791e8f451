package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (a *Api) GetPage(c *gin.Context) {
	view, err := a.service.GetPage(c.Param("slug"))
	if err != nil {
		a.htmlError(c, err)
		return
	}
	if notModified(c, entityTag(view.Page.Digest, view.Generation)) {
		return
	}

	name := "page.html"
	if t := view.Page.Template + ".html"; view.Page.Template != "" && a.templates.Has(t) {
		name = t
	}

	a.html(c, http.StatusOK, name, gin.H{
		"site":        a.siteData(view.Nav),
		"description": view.Page.Description,
		"page":        view.Page,
	})
}

func (a *Api) GetPageJSON(c *gin.Context) {
	view, err := a.service.GetPage(c.Param("slug"))
	if err != nil {
		jsonError(c, err)
		return
	}
	if notModified(c, entityTag(view.Page.Digest, view.Generation)) {
		return
	}
	c.JSON(http.StatusOK, toPage(view))
}

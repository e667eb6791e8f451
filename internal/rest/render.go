package rest

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/dfryer1193/mdblog/api"
	"github.com/dfryer1193/mdblog/blog/domain"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
)

const htmlContentType = "text/html; charset=utf-8"

// html renders the page template name and writes it with status.
func (a *Api) html(c *gin.Context, status int, name string, data gin.H) {
	body, err := a.templates.Render(name, data)
	if err != nil {
		log.Error().Err(err).Str("template", name).Msg("Failed to render template")
		c.Error(err)
		c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	c.Data(status, htmlContentType, body)
}

// htmlError renders the error page for err.
func (a *Api) htmlError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}
	a.html(c, status, "error.html", gin.H{
		"site":        a.siteData(a.service.Nav()),
		"status":      status,
		"status_text": http.StatusText(status),
		"message":     messageFor(status),
	})
}

func jsonError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Str("path", c.Request.URL.Path).Msg("Request failed")
	}
	c.JSON(status, api.Error{Error: messageFor(status)})
}

// NotFound serves unknown routes.
func (a *Api) NotFound(c *gin.Context) {
	err := fmt.Errorf("route %s: %w", c.Request.URL.Path, domain.ErrNotFound)
	if strings.HasPrefix(c.Request.URL.Path, "/api/") {
		jsonError(c, err)
		return
	}
	a.htmlError(c, err)
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidSlug):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func messageFor(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "The requested address is not valid."
	case http.StatusNotFound:
		return "The page you are looking for does not exist."
	default:
		return "Something went wrong."
	}
}

// entityTag identifies one rendering of a record: its content digest and
// the generation of the snapshot it was served from.
func entityTag(digest string, generation uint64) string {
	return fmt.Sprintf(`"%s-%d"`, digest, generation)
}

// notModified sets the ETag header and reports whether the client already
// has this version, in which case a 304 has been written.
func notModified(c *gin.Context, etag string) bool {
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")

	match := c.GetHeader("If-None-Match")
	if match == "" {
		return false
	}
	for _, candidate := range strings.Split(match, ",") {
		candidate = strings.TrimPrefix(strings.TrimSpace(candidate), "W/")
		if candidate == etag || candidate == "*" {
			c.Status(http.StatusNotModified)
			return true
		}
	}
	return false
}

package rest

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

//go:embed templates/*.html
var defaultTemplates embed.FS

const baseTemplate = "base.html"

var pageTemplates = []string{"index.html", "post_list.html", "post.html", "page.html", "error.html"}

// Templates is the set of parsed page templates. Each page template is
// parsed together with its own copy of the base layout.
type Templates struct {
	pages map[string]*template.Template
}

func templateFuncs() template.FuncMap {
	return template.FuncMap{
		"dateFormat": func(t time.Time, layout ...string) string {
			if t.IsZero() {
				return ""
			}
			if len(layout) > 0 && layout[0] != "" {
				return t.Format(layout[0])
			}
			return t.Format("January 2, 2006")
		},
		"isoDate": func(t time.Time) string {
			return t.Format("2006-01-02")
		},
		"currentYear": func() int {
			return time.Now().Year()
		},
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
		"add": func(a, b int) int {
			return a + b
		},
		"join": strings.Join,
	}
}

// LoadTemplates parses the embedded templates. Any file with the same name
// in overrideDir replaces the embedded one, and extra *.html files there are
// made available as custom post or page templates.
func LoadTemplates(overrideDir string) (*Templates, error) {
	sources := map[string]fs.FS{}
	names := append([]string(nil), pageTemplates...)

	embedded, err := fs.Sub(defaultTemplates, "templates")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded templates: %w", err)
	}

	var override fs.FS
	if overrideDir != "" {
		info, err := os.Stat(overrideDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open templates directory %s: %w", overrideDir, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("templates path %s is not a directory", overrideDir)
		}
		override = os.DirFS(overrideDir)

		extra, err := fs.Glob(override, "*.html")
		if err != nil {
			return nil, fmt.Errorf("failed to list templates in %s: %w", overrideDir, err)
		}
		for _, name := range extra {
			if name != baseTemplate && !contains(names, name) {
				names = append(names, name)
			}
		}
	}

	source := func(name string) fs.FS {
		if override != nil {
			if _, err := fs.Stat(override, name); err == nil {
				return override
			}
		}
		return embedded
	}
	for _, name := range append([]string{baseTemplate}, names...) {
		sources[name] = source(name)
	}

	baseSrc, err := fs.ReadFile(sources[baseTemplate], baseTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", baseTemplate, err)
	}
	base, err := template.New(baseTemplate).Funcs(templateFuncs()).Parse(string(baseSrc))
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", baseTemplate, err)
	}

	t := &Templates{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		src, err := fs.ReadFile(sources[name], name)
		if err != nil {
			return nil, fmt.Errorf("failed to read template %s: %w", name, err)
		}
		page, err := template.Must(base.Clone()).Parse(string(src))
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
		}
		t.pages[name] = page
		if sources[name] != embedded {
			log.Info().Str("template", filepath.Join(overrideDir, name)).Msg("Using template override")
		}
	}

	return t, nil
}

var errUnknownTemplate = errors.New("unknown template")

// Has reports whether a page template called name exists.
func (t *Templates) Has(name string) bool {
	_, ok := t.pages[name]
	return ok
}

// Render executes the page template name into a buffer so that a failed
// render never produces a partial response.
func (t *Templates) Render(name string, data any) ([]byte, error) {
	page, ok := t.pages[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", errUnknownTemplate, name)
	}
	var buf bytes.Buffer
	if err := page.ExecuteTemplate(&buf, baseTemplate, data); err != nil {
		return nil, fmt.Errorf("failed to render template %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func contains(names []string, name string) bool {
	for _, n := range names {
		if n == name {
			return true
		}
	}
	return false
}

package site

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/starford/ghmd/internal/models"
	"github.com/starford/ghmd/internal/tags"
)

//go:embed all:theme
var bundled embed.FS

// Template names rendered by the builder.
const (
	templateBase  = "base.html"
	templateIndex = "index.html"
)

// UserTemplateDir is the source subdirectory whose files override the
// bundled templates by name.
const UserTemplateDir = "templates"

// pageData is the context every template receives.
type pageData struct {
	Site       *Settings
	Depth      int
	LiveReload bool

	Post    *models.Post
	ShowTOC bool
	TOC     template.HTML

	Items          []models.Listable
	CurrentPage    int
	TotalPages     int
	Tag            string
	TagDescription template.HTML
}

type renderer struct {
	sets map[string]*template.Template
}

// newRenderer parses base.html together with each page template. A file in
// userDir replaces the bundled file of the same name.
func newRenderer(settings *Settings, userDir string) (*renderer, error) {
	funcs := template.FuncMap{
		"url": func(depth int, p string) string {
			return settings.AssetURL(p, depth)
		},
		"tagURL": func(depth int, tag string) string {
			return settings.AssetURL("tags/"+tags.Slugify(tag)+"/index.html", depth)
		},
		"slugify":  tags.Slugify,
		"date":     formatDate,
		"isoDate":  isoDate,
		"pageFile": PageFile,
		"add":      func(a, b int) int { return a + b },
		"sub":      func(a, b int) int { return a - b },
	}

	base, err := loadTemplate(userDir, templateBase)
	if err != nil {
		return nil, err
	}

	r := &renderer{sets: make(map[string]*template.Template)}
	for _, name := range []string{models.TemplatePost + ".html", models.TemplatePage + ".html", templateIndex} {
		src, err := loadTemplate(userDir, name)
		if err != nil {
			return nil, err
		}
		t, err := template.New(templateBase).Funcs(funcs).Parse(base)
		if err != nil {
			return nil, fmt.Errorf("site: parse %s: %w", templateBase, err)
		}
		if _, err := t.New(name).Parse(src); err != nil {
			return nil, fmt.Errorf("site: parse %s: %w", name, err)
		}
		r.sets[name] = t
	}
	return r, nil
}

func loadTemplate(userDir, name string) (string, error) {
	if userDir != "" {
		data, err := os.ReadFile(filepath.Join(userDir, name))
		if err == nil {
			return string(data), nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("site: read template %s: %w", name, err)
		}
	}
	data, err := bundled.ReadFile("theme/templates/" + name)
	if err != nil {
		return "", fmt.Errorf("site: bundled template %s: %w", name, err)
	}
	return string(data), nil
}

func (r *renderer) render(name string, data *pageData) ([]byte, error) {
	t, ok := r.sets[name]
	if !ok {
		return nil, fmt.Errorf("site: unknown template %s", name)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, templateBase, data); err != nil {
		return nil, fmt.Errorf("site: render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func formatDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format("January 2, 2006")
}

func isoDate(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.DateOnly)
}

package site

import (
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/conneroisu/bookshelf/internal/content"
	siteerrors "github.com/conneroisu/bookshelf/internal/errors"
	"github.com/conneroisu/bookshelf/internal/paginator"
)

//go:embed templates/*.html
var defaultTemplates embed.FS

const (
	LayoutTemplate = "layout.html"
	IndexTemplate  = "index.html"
	BookTemplate   = "book.html"
)

// Funcs are the functions available to layouts.
func Funcs() template.FuncMap {
	return template.FuncMap{
		"truncate": func(n int, s string) string { return content.Truncate(s, n) },
		"date": func(layout string, t time.Time) string {
			if t.IsZero() {
				return ""
			}
			return t.Format(layout)
		},
		"fragment": paginator.FormatFragment,
		"stars":    Stars,
	}
}

// Stars renders a 0-5 rating as filled and empty stars.
func Stars(rating int) string {
	rating = min(max(rating, 0), 5)
	return strings.Repeat("★", rating) + strings.Repeat("☆", 5-rating)
}

// layouts holds one template set per page template, each sharing the base
// layout.
type layouts struct {
	pages map[string]*template.Template
}

// loadLayouts parses the embedded templates, replacing or adding any *.html
// file found in dir. A missing dir means defaults only.
func loadLayouts(dir string) (*layouts, error) {
	sources := make(map[string]string)
	origin := make(map[string]string)

	embedded, err := fs.Glob(defaultTemplates, "templates/*.html")
	if err != nil {
		return nil, siteerrors.NewInternalError(siteerrors.ErrCodeTemplate, "cannot list embedded templates", err)
	}
	for _, path := range embedded {
		data, err := defaultTemplates.ReadFile(path)
		if err != nil {
			return nil, siteerrors.NewInternalError(siteerrors.ErrCodeTemplate, "cannot read embedded template", err)
		}
		name := filepath.Base(path)
		sources[name] = string(data)
		origin[name] = path
	}

	if dir != "" {
		overrides, err := filepath.Glob(filepath.Join(dir, "*.html"))
		if err != nil {
			return nil, siteerrors.NewConfigError(siteerrors.ErrCodeInvalidPath, "invalid layouts directory: "+dir)
		}
		for _, path := range overrides {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, siteerrors.NewIOError(siteerrors.ErrCodeFileNotFound, "cannot read layout", err).
					WithLocation(path, 0)
			}
			name := filepath.Base(path)
			sources[name] = string(data)
			origin[name] = path
		}
	}

	base, err := template.New(LayoutTemplate).Funcs(Funcs()).Parse(sources[LayoutTemplate])
	if err != nil {
		return nil, templateError(origin[LayoutTemplate], err)
	}

	names := make([]string, 0, len(sources))
	for name := range sources {
		if name != LayoutTemplate {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	l := &layouts{pages: make(map[string]*template.Template, len(names))}
	for _, name := range names {
		t, err := base.Clone()
		if err != nil {
			return nil, templateError(origin[name], err)
		}
		if _, err := t.New(name).Parse(sources[name]); err != nil {
			return nil, templateError(origin[name], err)
		}
		l.pages[name] = t
	}
	return l, nil
}

// lookup returns the template set for name, or nil.
func (l *layouts) lookup(name string) *template.Template {
	return l.pages[name]
}

// names returns the available page templates, sorted.
func (l *layouts) names() []string {
	names := make([]string, 0, len(l.pages))
	for name := range l.pages {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func templateError(path string, err error) error {
	return siteerrors.NewBuildError(siteerrors.ErrCodeTemplate, fmt.Sprintf("cannot parse %s", filepath.Base(path)), err).
		WithLocation(path, 0)
}

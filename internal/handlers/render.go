package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"path"
	"strings"

	"github.com/curelink/records-portal/internal/models"
	"github.com/curelink/records-portal/internal/session"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

// view is the data every page template receives
type view struct {
	Title   string
	Session *models.Session
	Notice  string
	Error   string
	Data    interface{}
}

// Renderer executes the page templates. Each page is parsed together with
// layout.html and defines the "content" block.
type Renderer struct {
	pages  map[string]*template.Template
	logger *zap.SugaredLogger
}

// NewRenderer parses every embedded page
func NewRenderer(logger *zap.SugaredLogger) (*Renderer, error) {
	funcs := template.FuncMap{
		// safeURL marks data: URLs built by the portal itself as trusted
		"safeURL": func(s string) template.URL { return template.URL(s) },
		"join":    strings.Join,
	}

	base, err := template.New("layout.html").Funcs(funcs).ParseFS(templateFS, "templates/layout.html")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	names, err := fs.Glob(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}

	pages := make(map[string]*template.Template, len(names))
	for _, name := range names {
		file := path.Base(name)
		if file == "layout.html" {
			continue
		}
		t, err := template.Must(base.Clone()).ParseFS(templateFS, name)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		pages[strings.TrimSuffix(file, ".html")] = t
	}

	return &Renderer{pages: pages, logger: logger}, nil
}

// Render writes page with status. The session, if any, is taken from the request.
func (rd *Renderer) Render(w http.ResponseWriter, r *http.Request, status int, page string, v view) {
	t, ok := rd.pages[page]
	if !ok {
		rd.logger.Errorw("Unknown page template", "page", page)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}
	if v.Session == nil {
		v.Session, _ = session.FromContext(r.Context())
	}
	if v.Notice == "" {
		v.Notice = r.URL.Query().Get("notice")
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", v); err != nil {
		rd.logger.Errorw("Failed to render page", "page", page, "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}

package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"net/http"

	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

const (
	pageList     = "list"
	pageEdit     = "edit"
	pageCreate   = "create"
	pageNotFound = "notfound"
	pageError    = "error"
)

// Renderer executes the embedded page templates, each wrapped in the shared layout.
type Renderer struct {
	pages map[string]*template.Template
	log   *zap.SugaredLogger
}

func NewRenderer(log *zap.SugaredLogger) (*Renderer, error) {
	rd := &Renderer{pages: map[string]*template.Template{}, log: log}
	for _, page := range []string{pageList, pageEdit, pageCreate, pageNotFound, pageError} {
		t, err := template.ParseFS(templateFS, "templates/layout.html", "templates/form_fields.html", "templates/"+page+".html")
		if err != nil {
			return nil, fmt.Errorf("failed to parse template %s: %w", page, err)
		}
		rd.pages[page] = t
	}
	return rd, nil
}

// Render writes the page with the given status. The page is rendered into a
// buffer first so a template error never produces a half written response.
func (rd *Renderer) Render(w http.ResponseWriter, status int, page string, data interface{}) {
	t, ok := rd.pages[page]
	if !ok {
		rd.log.Errorw("unknown page template", "page", page)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		rd.log.Errorw("failed to render page", "page", page, "error", err)
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if _, err := buf.WriteTo(w); err != nil {
		rd.log.Debugw("failed to write response", "page", page, "error", err)
	}
}

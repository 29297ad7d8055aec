package handlers

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/http"
	"os"
	"strings"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

// Renderer executes the page templates. With a dev directory the templates are reparsed from
// disk on every render; otherwise the embedded copies are parsed once.
type Renderer struct {
	devDir string
	cached *template.Template
}

// NewRenderer parses the embedded templates, or prepares dev-mode parsing from devDir.
func NewRenderer(devDir string) (*Renderer, error) {
	r := &Renderer{devDir: strings.TrimSpace(devDir)}
	if r.devDir != "" {
		// Fail fast on a broken tree even in dev mode.
		if _, err := parseTemplates(os.DirFS(r.devDir)); err != nil {
			return nil, err
		}
		return r, nil
	}
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return nil, err
	}
	tmpl, err := parseTemplates(sub)
	if err != nil {
		return nil, err
	}
	r.cached = tmpl
	return r, nil
}

func parseTemplates(fsys fs.FS) (*template.Template, error) {
	funcs := template.FuncMap{
		"lower": strings.ToLower,
	}
	tmpl, err := template.New("_root").Funcs(funcs).ParseFS(fsys, "*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return tmpl, nil
}

// Render writes the named template with status. Output is buffered so a failing template
// never leaves a half-written page.
func (r *Renderer) Render(w http.ResponseWriter, status int, name string, data any) error {
	tmpl := r.cached
	if r.devDir != "" {
		parsed, err := parseTemplates(os.DirFS(r.devDir))
		if err != nil {
			return err
		}
		tmpl = parsed
	}

	var buf bytes.Buffer
	if err := tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return fmt.Errorf("execute %s: %w", name, err)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

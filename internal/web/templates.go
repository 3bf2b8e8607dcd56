package web

import (
	"embed"
	"fmt"
	"html/template"
	"io"
	"path"
	"strings"

	"github.com/Masterminds/sprig/v3"
)

//go:embed tpl/*.tmpl tpl/partials/*.tmpl tpl/pages/*.tmpl
var tplFS embed.FS

// Renderer holds one template set per page. Every set shares the base
// layout and partials, and the "header" partial can be rendered alone.
type Renderer struct {
	pages  map[string]*template.Template
	shared *template.Template
}

func NewRenderer() (*Renderer, error) {
	shared, err := template.New("root").Funcs(sprig.FuncMap()).
		ParseFS(tplFS, "tpl/base.tmpl", "tpl/partials/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse layout: %w", err)
	}

	files, err := tplFS.ReadDir("tpl/pages")
	if err != nil {
		return nil, err
	}
	r := &Renderer{pages: make(map[string]*template.Template), shared: shared}
	for _, f := range files {
		name := strings.TrimSuffix(f.Name(), ".tmpl")
		t, err := template.Must(shared.Clone()).ParseFS(tplFS, path.Join("tpl/pages", f.Name()))
		if err != nil {
			return nil, fmt.Errorf("parse page %s: %w", name, err)
		}
		r.pages[name] = t
	}
	return r, nil
}

func (r *Renderer) Render(w io.Writer, name string, data any) error {
	t, ok := r.pages[name]
	if !ok {
		return fmt.Errorf("unknown page %q", name)
	}
	return t.ExecuteTemplate(w, name, data)
}

// RenderHeader writes the header fragment used by the live stream.
func (r *Renderer) RenderHeader(w io.Writer, data any) error {
	return r.shared.ExecuteTemplate(w, "header", data)
}

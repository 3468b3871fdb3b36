package http

import (
	"html/template"
	"io"
	"io/fs"
	"path"
)

// PageData is what home.html is rendered with. Every field is optional.
type PageData struct {
	PredictionText string
	Confidence     string
	FormData       map[string]string
}

// Renderer renders the single page of the service.
type Renderer interface {
	Render(w io.Writer, data PageData) error
}

// Templates parses its page from fsys on every render, so a missing or broken
// asset fails the request rather than the process.
type Templates struct {
	fsys fs.FS
	name string
}

func NewTemplates(fsys fs.FS, name string) *Templates {
	return &Templates{fsys: fsys, name: name}
}

func (t *Templates) Render(w io.Writer, data PageData) error {
	tmpl, err := template.New(path.Base(t.name)).Funcs(templateFuncs).ParseFS(t.fsys, t.name)
	if err != nil {
		return err
	}
	return tmpl.Execute(w, data)
}

var templateFuncs = template.FuncMap{
	"field": func(data map[string]string, name string) string {
		return data[name]
	},
	"list": func(values ...string) []string {
		return values
	},
}

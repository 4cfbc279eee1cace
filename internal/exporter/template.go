package exporter

import (
	"bytes"
	"embed"
	"fmt"
	"text/template"
)

//go:embed templates/*.html
var templateFS embed.FS

// Page holds the values substituted into a document template.
type Page struct {
	Title     string
	XML3D     string
	Script    string
	Generator string
}

// Render fills the named template (minimal, html or preview) with p.
func Render(name string, p Page) ([]byte, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/"+name+".html")
	if err != nil {
		return nil, fmt.Errorf("loading template %q: %w", name, err)
	}
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, p); err != nil {
		return nil, fmt.Errorf("rendering template %q: %w", name, err)
	}
	return buf.Bytes(), nil
}

// Package templates renders the embedded starter documents used by
// create_document.
package templates

import (
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed *.md.tmpl
var files embed.FS

// Embedded template file names.
const (
	Blank = "blank.md.tmpl"
	Spec  = "spec.md.tmpl"
	Guide = "guide.md.tmpl"
)

// Data feeds a starter template.
type Data struct {
	Title       string
	Description string
}

// Renderer renders a named starter template.
type Renderer interface {
	Render(name string, data Data) (string, error)
}

// EmbedRenderer serves the templates compiled into the binary.
type EmbedRenderer struct {
	tmpl *template.Template
}

// NewRenderer parses the embedded templates.
func NewRenderer() (*EmbedRenderer, error) {
	t, err := template.ParseFS(files, "*.md.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing embedded templates: %w", err)
	}
	return &EmbedRenderer{tmpl: t}, nil
}

// Render executes the named template.
func (r *EmbedRenderer) Render(name string, data Data) (string, error) {
	var sb strings.Builder
	if err := r.tmpl.ExecuteTemplate(&sb, name, data); err != nil {
		return "", fmt.Errorf("rendering template %s: %w", name, err)
	}
	return sb.String(), nil
}

// Lookup maps a template argument onto its file name. The empty string
// selects the blank template.
func Lookup(kind string) (string, bool) {
	switch strings.ToLower(kind) {
	case "", "blank":
		return Blank, true
	case "spec":
		return Spec, true
	case "guide":
		return Guide, true
	}
	return "", false
}

// Names lists the accepted template arguments.
func Names() []string {
	return []string{"blank", "spec", "guide"}
}

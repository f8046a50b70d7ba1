package render

import (
	"bytes"
	"embed"
	"fmt"
	"strings"
	"text/template"
)

//go:embed templates/*.tmpl
var templatesFS embed.FS

// Engine renders the text templates embedded in the package: log names and
// the help texts shown on quick forms.
type Engine struct {
	templates *template.Template
}

// New initialises an Engine by parsing all embedded templates.
func New() (*Engine, error) {
	t, err := template.New("render").Funcs(template.FuncMap{
		"plural": plural,
	}).ParseFS(templatesFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Engine{templates: t}, nil
}

// Render executes the named template with the provided data and returns the rendered string.
func (e *Engine) Render(name string, data any) (string, error) {
	if e == nil || e.templates == nil {
		return "", fmt.Errorf("nil engine")
	}

	buf := bytes.NewBuffer(nil)
	if err := e.templates.ExecuteTemplate(buf, name, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

// RenderLine renders a template meant for a single label or sentence and
// collapses the whitespace the template files carry for readability.
func (e *Engine) RenderLine(name string, data any) (string, error) {
	out, err := e.Render(name, data)
	if err != nil {
		return "", err
	}
	return strings.Join(strings.Fields(out), " "), nil
}

func plural(n int64, singular, many string) string {
	if n == 1 {
		return singular
	}
	return many
}

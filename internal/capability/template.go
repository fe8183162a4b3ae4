package capability

import (
	"context"
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// Template is a parsed text/template carrying the sprig function map and a
// "request" function that reads values set by middleware.
type Template struct {
	tmpl *template.Template
}

// ParseTemplate parses text. name is used in error messages.
func ParseTemplate(name, text string) (*Template, error) {
	funcs := sprig.TxtFuncMap()
	funcs["request"] = func(string) interface{} { return nil }

	tmpl, err := template.New(name).Option("missingkey=zero").Funcs(funcs).Parse(text)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template %s: %w", name, err)
	}
	return &Template{tmpl: tmpl}, nil
}

// Render executes the template over data. The parsed template is cloned
// per call so concurrent renders do not share request values.
func (t *Template) Render(ctx context.Context, data interface{}) (string, error) {
	clone, err := t.tmpl.Clone()
	if err != nil {
		return "", fmt.Errorf("failed to clone template %s: %w", t.tmpl.Name(), err)
	}
	clone.Funcs(template.FuncMap{
		"request": func(key string) interface{} { return Value(ctx, key) },
	})

	var sb strings.Builder
	if err := clone.Execute(&sb, data); err != nil {
		return "", fmt.Errorf("failed to render template %s: %w", t.tmpl.Name(), err)
	}
	return sb.String(), nil
}

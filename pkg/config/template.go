package config

import (
	"fmt"
	"strings"
	"text/template"

	"github.com/Masterminds/sprig/v3"
)

// TemplateData is exposed to path templates, e.g.
// "{{ .Paths.Run }}/{{ .Name }}-{{ now | date \"2006\" }}.pstate".
type TemplateData struct {
	Name  string
	Paths Paths
}

// RenderPath renders a path template with the sprig function library.
// Strings without template actions are returned unchanged.
func RenderPath(path string, data TemplateData) (string, error) {
	if !strings.Contains(path, "{{") {
		return path, nil
	}
	tmpl, err := template.New("path").
		Funcs(sprig.TxtFuncMap()).
		Option("missingkey=error").
		Parse(path)
	if err != nil {
		return "", fmt.Errorf("invalid path template %q: %w", path, err)
	}
	var b strings.Builder
	if err := tmpl.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render path template %q: %w", path, err)
	}
	return b.String(), nil
}

// renderPaths renders every path-valued key of cfg in place.
func renderPaths(cfg *Configuration, data TemplateData) error {
	for _, key := range pathKeys {
		raw, ok := cfg.Get(key)
		if !ok {
			continue
		}
		s, ok := raw.(string)
		if !ok {
			continue
		}
		rendered, err := RenderPath(s, data)
		if err != nil {
			return &SourceError{Source: "merged", Key: key, ErrorType: "value", Message: err.Error(), Err: err}
		}
		if err := cfg.Set(key, rendered); err != nil {
			return err
		}
	}
	return nil
}

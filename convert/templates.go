package convert

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"text/template"

	sprig "github.com/go-task/slim-sprig/v3"

	"rwout/config"
	"rwout/content"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context    string
	Title      string
	ExportDate string
	Format     string
	SourceFile string
	Topics     int
	// Roots are titles of top level topics in index order.
	Roots []string
}

func buildRoots(topics []*content.Topic) []string {
	result := make([]string, 0, len(topics))
	for _, t := range topics {
		result = append(result, t.Title())
	}
	return result
}

func expandTemplate(fp *content.FrontPage, src string, name config.TemplateFieldName, field string, format config.OutputFmt) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context:    string(name),
		Title:      fp.Title,
		ExportDate: fp.ExportDate,
		Format:     format.String(),
		SourceFile: strings.TrimSuffix(filepath.Base(src), filepath.Ext(src)),
		Topics:     len(fp.All),
		Roots:      buildRoots(fp.Roots),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}

package prompt

import (
	"bytes"
	_ "embed"
	"text/template"
)

//go:embed system.txt
var System string

//go:embed selector.txt
var Selector string

//go:embed analysis.txt
var Analysis string

func Render(tmpl string, data any) (string, error) {
	t, err := template.New("prompt").Parse(tmpl)

	if err != nil {
		return "", err
	}

	var buf bytes.Buffer

	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

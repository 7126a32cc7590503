// Package report renders stored analysis reports for browsers.
package report

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// md renders GitHub flavoured markdown; model answers often contain tables.
// Raw HTML in model output is escaped (goldmark default, no html.WithUnsafe).
var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

var page = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<article>
{{.Body}}
</article>
</body>
</html>
`))

// HTML converts a markdown report into an HTML fragment.
func HTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// Page renders a complete HTML document around the report.
func Page(title, markdown string) ([]byte, error) {
	body, err := HTML(markdown)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	err = page.Execute(&buf, struct {
		Title string
		Body  template.HTML
	}{Title: title, Body: template.HTML(body)})
	if err != nil {
		return nil, fmt.Errorf("render page: %w", err)
	}
	return buf.Bytes(), nil
}

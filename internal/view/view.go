// Package view holds the embedded HTML templates and static assets.
package view

import (
	"embed"
	"html"
	"html/template"
	"io/fs"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/microcosm-cc/bluemonday"
)

//go:embed templates
var templateFiles embed.FS

//go:embed static
var staticFiles embed.FS

const excerptLength = 100

var (
	stripTags = bluemonday.StrictPolicy()
	userHTML  = bluemonday.UGCPolicy()
)

// Templates parses every page and partial. Page templates are addressed by
// their define name: index, new, show, edit, weather.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(Funcs()).ParseFS(templateFiles, "templates/*.html", "templates/partials/*.html")
}

func Static() fs.FS {
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

func Funcs() template.FuncMap {
	return template.FuncMap{
		"safeBody":   SafeBody,
		"excerpt":    Excerpt,
		"formatDate": formatDate,
	}
}

// SafeBody renders a stored post body as HTML. Bodies are sanitized on
// write too, but seeded or older documents may not have been.
func SafeBody(body string) template.HTML {
	return template.HTML(userHTML.Sanitize(body))
}

// Excerpt returns the first characters of body as plain text.
func Excerpt(body string) string {
	text := strings.Join(strings.Fields(html.UnescapeString(stripTags.Sanitize(body))), " ")
	if utf8.RuneCountInString(text) <= excerptLength {
		return text
	}
	runes := []rune(text)
	return string(runes[:excerptLength]) + "..."
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("Mon Jan 02 2006")
}

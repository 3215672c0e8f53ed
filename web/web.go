// Package web embeds the HTML templates and static assets.
package web

import (
	"embed"
	"html/template"
	"io/fs"
	"time"

	"github.com/projektfire/internal/locale"
)

//go:embed templates/*.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Static returns the embedded static directory rooted at static/.
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// Templates parses every page and partial with the shared helpers. Dates are
// shown in loc.
func Templates(loc *time.Location) (*template.Template, error) {
	return template.New("").Funcs(FuncMap(loc)).ParseFS(templateFS, "templates/*.html")
}

// FuncMap holds the helpers available to every template.
func FuncMap(loc *time.Location) template.FuncMap {
	if loc == nil {
		loc = time.UTC
	}
	return template.FuncMap{
		"add": func(a, b int) int { return a + b },
		"sub": func(a, b int) int { return a - b },
		"safeHTML": func(s string) template.HTML {
			return template.HTML(s)
		},
		"date": func(v interface{}) string {
			switch t := v.(type) {
			case time.Time:
				return locale.FormatDate(t, loc)
			case *time.Time:
				if t == nil {
					return ""
				}
				return locale.FormatDate(*t, loc)
			default:
				return ""
			}
		},
		"isoDate": func(v interface{}) string {
			switch t := v.(type) {
			case time.Time:
				return t.In(loc).Format("2006-01-02")
			case *time.Time:
				if t == nil {
					return ""
				}
				return t.In(loc).Format("2006-01-02")
			default:
				return ""
			}
		},
		"datetime": func(t time.Time) string {
			return t.In(loc).Format("2006-01-02 15:04")
		},
		"countNoun": func(n interface{}, one, few, many string) string {
			switch v := n.(type) {
			case int:
				return locale.CountNoun(v, one, few, many)
			case int64:
				return locale.CountNoun(int(v), one, few, many)
			default:
				return ""
			}
		},
		"dict": func(pairs ...interface{}) map[string]interface{} {
			m := make(map[string]interface{}, len(pairs)/2)
			for i := 0; i+1 < len(pairs); i += 2 {
				if key, ok := pairs[i].(string); ok {
					m[key] = pairs[i+1]
				}
			}
			return m
		},
		"htmlLang": func() string { return locale.Default().HTMLLang },
		"ogLocale": func() string { return locale.Default().Locale },
	}
}

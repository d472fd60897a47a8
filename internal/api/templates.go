package api

import (
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/lox/tempedge/internal/signal"
)

//go:embed templates/*
var templateFS embed.FS

// newTemplates creates and parses the HTML templates with custom functions.
func newTemplates() *template.Template {
	funcs := template.FuncMap{
		"signalHTML": func(s signal.Signal) template.HTML {
			// signal.HTML escapes its own text.
			return template.HTML(signal.HTML(s))
		},
		"deref": func(f *float64) float64 {
			if f == nil {
				return 0
			}
			return *f
		},
		"fixed1": func(f float64) string {
			return fmt.Sprintf("%.1f", f)
		},
		"money": func(f float64) string {
			if f <= 0 {
				return "--"
			}
			return fmt.Sprintf("$%.2f", f)
		},
		"edge": func(f *float64) string {
			if f == nil {
				return "--"
			}
			return fmt.Sprintf("%+.0f%%", *f)
		},
		"lower": strings.ToLower,
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

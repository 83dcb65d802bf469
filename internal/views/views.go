// Package views holds the HTML templates rendered by format.Responder.
package views

import (
	"embed"
	"html/template"
	"time"

	"github.com/dustin/go-humanize"
)

//go:embed templates/*.html
var files embed.FS

func Parse() (*template.Template, error) {
	return template.New("views").Funcs(template.FuncMap{
		"ago": func(t time.Time) string { return humanize.Time(t) },
	}).ParseFS(files, "templates/*.html")
}

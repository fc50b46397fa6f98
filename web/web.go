// Package web embeds the map page and its browser assets
package web

import (
	"embed"
	"html/template"
	"io/fs"
)

//go:embed templates/index.html
var templateFS embed.FS

//go:embed static
var staticFS embed.FS

// Index is the map page template
var Index = template.Must(template.ParseFS(templateFS, "templates/index.html"))

// Static returns the browser assets rooted at the static directory
func Static() fs.FS {
	sub, err := fs.Sub(staticFS, "static")
	if err != nil {
		panic(err)
	}
	return sub
}

// PageData is rendered into the index template
type PageData struct {
	Title      string
	Year       int
	LegendHTML template.HTML
}

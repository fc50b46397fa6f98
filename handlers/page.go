package handlers

import (
	"log"
	"net/http"

	"github.com/you/climatemap/internal/mapctx"
	"github.com/you/climatemap/web"
)

// PageHandler renders the map page
type PageHandler struct {
	m    *mapctx.Map
	year int
}

// NewPageHandler creates a page handler; year is shown in the panel hint
func NewPageHandler(m *mapctx.Map, year int) *PageHandler {
	return &PageHandler{m: m, year: year}
}

// GetIndex handles GET /
func (h *PageHandler) GetIndex(w http.ResponseWriter, r *http.Request) {
	data := web.PageData{
		Title: "Climate Station Map",
		Year:  h.year,
	}
	if legend, ok := h.m.Legend(); ok {
		data.LegendHTML = legend.HTML()
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := web.Index.Execute(w, data); err != nil {
		log.Printf("Error rendering index: %v", err)
	}
}

package handlers

import (
	"html/template"
	"net/http"

	"github.com/you/climatemap/internal/mapctx"
	"github.com/you/climatemap/internal/style"
)

// MapHandler serves the map context to the browser renderer
type MapHandler struct {
	m *mapctx.Map
}

// NewMapHandler creates a handler for m
func NewMapHandler(m *mapctx.Map) *MapHandler {
	return &MapHandler{m: m}
}

// MapResponse is the JSON response structure for GET /api/map
type MapResponse struct {
	BaseLayers   []mapctx.TileLayer   `json:"baseLayers"`
	LayerControl *mapctx.LayerControl `json:"layerControl,omitempty"`
	Stations     *mapctx.ClusterGroup `json:"stations,omitempty"`
	Legend       *LegendResponse      `json:"legend,omitempty"`
	Status       mapctx.LoadStatus    `json:"status"`
	LoadError    string               `json:"loadError,omitempty"`
	RefreshError string               `json:"refreshError,omitempty"`
}

// LegendResponse carries the legend entries and the fragment to mount
type LegendResponse struct {
	style.LegendControl
	HTML template.HTML `json:"html"`
}

// GetMap handles GET /api/map
// Returns base layers, the clustered station markers, the layer control and the legend
func (h *MapHandler) GetMap(w http.ResponseWriter, r *http.Request) {
	status := h.m.Status()
	response := MapResponse{
		BaseLayers:   h.m.BaseLayers(),
		LayerControl: h.m.LayerControl(),
		Stations:     h.m.Stations(),
		Status:       status,
	}
	// A failed refresh keeps the last stations on the map
	switch {
	case status.Error == "":
	case response.Stations == nil:
		response.LoadError = "Station data could not be loaded."
	default:
		response.RefreshError = "Station refresh failed; showing the last loaded stations."
	}
	if legend, ok := h.m.Legend(); ok {
		response.Legend = &LegendResponse{LegendControl: legend, HTML: legend.HTML()}
	}

	w.Header().Set("Cache-Control", "public, max-age=60")
	writeJSON(w, http.StatusOK, response)
}

// GetLegend handles GET /api/legend
// Returns the legend as an HTML fragment
func (h *MapHandler) GetLegend(w http.ResponseWriter, r *http.Request) {
	legend, ok := h.m.Legend()
	if !ok {
		writeError(w, http.StatusNotFound, "Legend not registered", nil)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(legend.HTML()))
}

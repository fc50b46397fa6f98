package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/you/climatemap/internal/mapctx"
	"github.com/you/climatemap/internal/panel"
)

// HealthHandler reports station load and catalog status
type HealthHandler struct {
	m        *mapctx.Map
	sessions *panel.Store
	catalog  StationCatalog
}

// NewHealthHandler creates a health handler. catalog may be nil.
func NewHealthHandler(m *mapctx.Map, sessions *panel.Store, catalog StationCatalog) *HealthHandler {
	return &HealthHandler{m: m, sessions: sessions, catalog: catalog}
}

// HealthResponse is the JSON response for GET /health
type HealthResponse struct {
	Status    string            `json:"status"`
	Stations  mapctx.LoadStatus `json:"stations"`
	Sessions  int               `json:"sessions"`
	Catalog   string            `json:"catalog"`
	Cataloged *int              `json:"cataloged,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Error     string            `json:"error,omitempty"`
}

// GetHealth handles GET /health
// Degraded when the last load failed, unavailable when no stations are on the map
func (h *HealthHandler) GetHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	status := h.m.Status()
	response := HealthResponse{
		Status:    "ok",
		Stations:  status,
		Sessions:  h.sessions.Len(),
		Catalog:   "disabled",
		Timestamp: time.Now().UTC(),
	}

	if h.catalog != nil {
		if err := h.catalog.Ping(ctx); err != nil {
			response.Catalog = "disconnected"
			response.Status = "degraded"
		} else {
			response.Catalog = "connected"
			if n, err := h.catalog.CountStations(ctx); err == nil {
				response.Cataloged = &n
			}
		}
	}

	code := http.StatusOK
	if status.Error != "" {
		response.Status = "degraded"
		response.Error = status.Error
	}
	if !h.m.HasStations() {
		response.Status = "error"
		code = http.StatusServiceUnavailable
	}

	writeJSON(w, code, response)
}

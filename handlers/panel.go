package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/you/climatemap/internal/mapctx"
	"github.com/you/climatemap/internal/panel"
)

// SessionCookie carries the panel session ID
const SessionCookie = "climatemap_session"

// PanelHandler runs station clicks against the caller's panel
type PanelHandler struct {
	m        *mapctx.Map
	sessions *panel.Store
}

// NewPanelHandler creates a handler for the markers of m
func NewPanelHandler(m *mapctx.Map, sessions *panel.Store) *PanelHandler {
	return &PanelHandler{m: m, sessions: sessions}
}

// ClickStation handles POST /api/stations/{stationId}/click
// Runs the marker's click listener and returns the panel as it stands
// afterwards. When a later click superseded this one, the returned view
// belongs to the later click and carries its sequence number.
func (h *PanelHandler) ClickStation(w http.ResponseWriter, r *http.Request) {
	stationID := chi.URLParam(r, "stationId")
	if stationID == "" {
		writeError(w, http.StatusBadRequest, "stationId parameter is required", nil)
		return
	}

	marker, err := h.m.Marker(stationID)
	if err != nil {
		writeError(w, http.StatusNotFound, "Station not found", map[string]interface{}{
			"stationId": stationID,
		})
		return
	}

	p := h.sessions.Get(h.session(w, r))
	if err := marker.Click(r.Context(), p); err != nil {
		if errors.Is(err, mapctx.ErrNoClickHandler) {
			writeError(w, http.StatusInternalServerError, "Station is not clickable", nil)
			return
		}
		// The panel already shows the failure
		log.Printf("Panel: click on %s: %v", stationID, err)
	}

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, p.Snapshot())
}

// GetPanel handles GET /api/panel
// Returns the caller's panel
func (h *PanelHandler) GetPanel(w http.ResponseWriter, r *http.Request) {
	p := h.sessions.Get(h.session(w, r))

	w.Header().Set("Cache-Control", "no-store")
	writeJSON(w, http.StatusOK, p.Snapshot())
}

// session returns the caller's session ID, issuing a cookie for new callers
func (h *PanelHandler) session(w http.ResponseWriter, r *http.Request) uuid.UUID {
	if c, err := r.Cookie(SessionCookie); err == nil {
		if id, err := uuid.Parse(c.Value); err == nil {
			return id
		}
	}

	id := uuid.New()
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    id.String(),
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return id
}

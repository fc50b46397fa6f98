package handlers

import (
	"context"
	"errors"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/you/climatemap/internal/mapctx"
	"github.com/you/climatemap/internal/style"
	"github.com/you/climatemap/models"
	"github.com/you/climatemap/repository"
)

// StationCatalog defines the persisted station lookups
type StationCatalog interface {
	GetStation(ctx context.Context, key string) (*models.Station, error)
	GetStationsByProvince(ctx context.Context, province string) ([]models.Station, error)
	CountStations(ctx context.Context) (int, error)
	Ping(ctx context.Context) error
}

// StationHandler handles HTTP requests for station data
type StationHandler struct {
	m       *mapctx.Map
	catalog StationCatalog
}

// NewStationHandler creates a handler. catalog may be nil.
func NewStationHandler(m *mapctx.Map, catalog StationCatalog) *StationHandler {
	return &StationHandler{m: m, catalog: catalog}
}

// StationResponse is one station as returned by the API
type StationResponse struct {
	MarkerID string `json:"markerId,omitempty"`
	models.Station
	Bucket string `json:"bucket,omitempty"`
}

// GetStationsResponse is the JSON response structure for GET /api/stations
type GetStationsResponse struct {
	Stations []StationResponse `json:"stations"`
	Count    int               `json:"count"`
	LoadedAt time.Time         `json:"loadedAt"`
}

// GetStations handles GET /api/stations
// Returns all loaded stations or filters by the province query parameter
func (h *StationHandler) GetStations(w http.ResponseWriter, r *http.Request) {
	province := r.URL.Query().Get("province")

	group := h.m.Stations()
	if group == nil && h.catalog != nil && province != "" {
		h.getCatalogStations(w, r, province)
		return
	}
	if group == nil {
		writeError(w, http.StatusServiceUnavailable, "Stations not loaded", map[string]interface{}{
			"loadError": h.m.Status().Error,
		})
		return
	}

	stations := make([]StationResponse, 0, group.Len())
	for _, marker := range group.Markers {
		if province != "" && marker.Station.Province != province {
			continue
		}
		stations = append(stations, StationResponse{
			MarkerID: marker.ID,
			Station:  marker.Station,
			Bucket:   bucketName(marker),
		})
	}
	sort.SliceStable(stations, func(i, j int) bool {
		return stations[i].Name < stations[j].Name
	})

	writeJSON(w, http.StatusOK, GetStationsResponse{
		Stations: stations,
		Count:    len(stations),
		LoadedAt: h.m.Status().LoadedAt,
	})
}

// getCatalogStations serves a province from the catalog while the map has
// no stations, e.g. after a failed load on startup
func (h *StationHandler) getCatalogStations(w http.ResponseWriter, r *http.Request, province string) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	found, err := h.catalog.GetStationsByProvince(ctx, province)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to retrieve stations", map[string]interface{}{
			"internal": err.Error(),
		})
		return
	}

	stations := make([]StationResponse, 0, len(found))
	var loadedAt time.Time
	for _, s := range found {
		stations = append(stations, StationResponse{
			Station: s,
			Bucket:  style.Classify(s.Elevation).Name,
		})
		if s.LoadedAt.After(loadedAt) {
			loadedAt = s.LoadedAt
		}
	}

	writeJSON(w, http.StatusOK, GetStationsResponse{
		Stations: stations,
		Count:    len(stations),
		LoadedAt: loadedAt,
	})
}

// GetStationByID handles GET /api/stations/{stationId}
// Looks the station up on the map first, then in the catalog
func (h *StationHandler) GetStationByID(w http.ResponseWriter, r *http.Request) {
	stationID := chi.URLParam(r, "stationId")
	if stationID == "" {
		writeError(w, http.StatusBadRequest, "stationId parameter is required", nil)
		return
	}

	if marker, err := h.m.Marker(stationID); err == nil {
		writeJSON(w, http.StatusOK, StationResponse{
			MarkerID: marker.ID,
			Station:  marker.Station,
			Bucket:   bucketName(marker),
		})
		return
	}

	if h.catalog != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		station, err := h.catalog.GetStation(ctx, stationID)
		if err == nil {
			writeJSON(w, http.StatusOK, StationResponse{Station: *station, Bucket: style.Classify(station.Elevation).Name})
			return
		}
		if !errors.Is(err, repository.ErrStationNotFound) {
			writeError(w, http.StatusInternalServerError, "Failed to retrieve station", map[string]interface{}{
				"internal": err.Error(),
			})
			return
		}
	}

	writeError(w, http.StatusNotFound, "Station not found", map[string]interface{}{
		"stationId": stationID,
	})
}

func bucketName(m *mapctx.Marker) string {
	return style.Classify(m.Station.Elevation).Name
}

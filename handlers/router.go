package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"

	"github.com/you/climatemap/internal/mapctx"
	"github.com/you/climatemap/internal/panel"
	"github.com/you/climatemap/web"
)

// RouterConfig collects what the routes need
type RouterConfig struct {
	Map            *mapctx.Map
	Sessions       *panel.Store
	Catalog        StationCatalog // optional
	ClimateYear    int
	AllowedOrigins []string
}

// NewRouter wires every endpoint onto a chi router
func NewRouter(cfg RouterConfig) http.Handler {
	pageHandler := NewPageHandler(cfg.Map, cfg.ClimateYear)
	mapHandler := NewMapHandler(cfg.Map)
	stationHandler := NewStationHandler(cfg.Map, cfg.Catalog)
	panelHandler := NewPanelHandler(cfg.Map, cfg.Sessions)
	healthHandler := NewHealthHandler(cfg.Map, cfg.Sessions, cfg.Catalog)

	r := chi.NewRouter()
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	}))

	// Health
	r.Get("/health", healthHandler.GetHealth)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	// Page and browser assets
	r.Get("/", pageHandler.GetIndex)
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(web.Static()))))

	// Map context
	r.Get("/api/map", mapHandler.GetMap)
	r.Get("/api/legend", mapHandler.GetLegend)

	// Stations
	r.Get("/api/stations", stationHandler.GetStations)
	r.Get("/api/stations/{stationId}", stationHandler.GetStationByID)
	r.Post("/api/stations/{stationId}/click", panelHandler.ClickStation)

	// Panel
	r.Get("/api/panel", panelHandler.GetPanel)

	return r
}

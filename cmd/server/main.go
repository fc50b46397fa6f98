package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/you/climatemap/handlers"
	"github.com/you/climatemap/internal/climate"
	"github.com/you/climatemap/internal/config"
	"github.com/you/climatemap/internal/mapctx"
	"github.com/you/climatemap/internal/panel"
	"github.com/you/climatemap/internal/popup"
	"github.com/you/climatemap/internal/stations"
	"github.com/you/climatemap/internal/style"
	"github.com/you/climatemap/repository"
)

// catalog is the persisted station store, SQLite or Postgres
type catalog interface {
	handlers.StationCatalog
	stations.Catalog
	Close() error
}

func main() {
	// Load base .env first, then .env.local (which overrides for local development)
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")

	cfg := config.Load()
	log.Printf("Config loaded: source=%s climate=%s year=%d", cfg.StationSourceURL, cfg.ClimateAPIBase, cfg.ClimateYear)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Station catalog (optional)
	store, err := openCatalog(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to open station catalog: %v", err)
	}
	var (
		stationCatalog handlers.StationCatalog
		loadCatalog    stations.Catalog
	)
	if store != nil {
		defer store.Close()
		stationCatalog = store
		loadCatalog = store
	}

	// Map context with base layers and legend
	m := mapctx.New(mapctx.DefaultBaseLayers())
	m.AddLegend(style.Legend())

	client := climate.NewClient(cfg.ClimateAPIBase, cfg.ClimateYear, cfg.ClimateTimeout)
	binder := popup.NewBinder(climate.NewFetcher(client))
	loader := stations.NewLoader(binder, loadCatalog, cfg.HTTPTimeout)

	log.Println("Loading climate stations...")
	if err := loader.Load(ctx, m, cfg.StationSourceURL); err != nil {
		// Keep serving the base map; the page shows the failure
		log.Printf("Warning: station load failed: %v", err)
	} else {
		log.Printf("Stations loaded: %d", m.Status().Stations)
	}

	sessions := panel.NewStore(cfg.SessionTTL)

	c := cron.New()
	if _, err := stations.ScheduleRefresh(c, cfg.StationRefreshSchedule, loader, m, cfg.StationSourceURL); err != nil {
		log.Fatalf("Invalid STATION_REFRESH_SCHEDULE %q: %v", cfg.StationRefreshSchedule, err)
	}
	if _, err := c.AddFunc("@every 10m", func() {
		if n := sessions.Cleanup(time.Now()); n > 0 {
			log.Printf("Panel: dropped %d idle sessions", n)
		}
	}); err != nil {
		log.Fatalf("Failed to schedule session cleanup: %v", err)
	}
	c.Start()

	r := handlers.NewRouter(handlers.RouterConfig{
		Map:            m,
		Sessions:       sessions,
		Catalog:        stationCatalog,
		ClimateYear:    cfg.ClimateYear,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("Climate map server starting on :%s", cfg.Port)
		log.Println("Page:")
		log.Println("  GET /")
		log.Println("Map endpoints:")
		log.Println("  GET /api/map")
		log.Println("  GET /api/legend")
		log.Println("Station endpoints:")
		log.Println("  GET /api/stations?province={code}")
		log.Println("  GET /api/stations/{stationId}")
		log.Println("  POST /api/stations/{stationId}/click")
		log.Println("  GET /api/panel")
		log.Println("Health:")
		log.Println("  GET /health (with load and catalog check)")

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig

	log.Println("Shutting down...")
	cancel()
	<-c.Stop().Done()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
	log.Println("Goodbye!")
}

// openCatalog prefers Postgres when DATABASE_URL is set, then SQLite.
// It returns nil when neither is configured.
func openCatalog(ctx context.Context, cfg *config.Config) (catalog, error) {
	switch {
	case cfg.DatabaseURL != "":
		log.Println("Connecting to Postgres station catalog")
		repo, err := repository.NewPostgresStationRepository(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		return repo, nil
	case cfg.SQLitePath != "":
		log.Printf("Connecting to SQLite station catalog: %s", cfg.SQLitePath)
		repo, err := repository.NewSQLiteStationRepository(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, err
		}
		return repo, nil
	default:
		log.Println("No station catalog configured")
		return nil, nil
	}
}

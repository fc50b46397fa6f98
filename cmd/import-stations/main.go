package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/joho/godotenv"

	"github.com/you/climatemap/internal/config"
	"github.com/you/climatemap/internal/mapctx"
	"github.com/you/climatemap/internal/stations"
	"github.com/you/climatemap/repository"
)

func main() {
	_ = godotenv.Load(".env")
	_ = godotenv.Overload(".env.local")
	cfg := config.Load()

	// Command line flags
	dbPath := flag.String("db", "data/stations.db", "Path to SQLite database")
	source := flag.String("source", cfg.StationSourceURL, "Station GeoJSON URL")
	timeout := flag.Duration("timeout", 2*time.Minute, "Timeout for download and import")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	repo, err := repository.NewSQLiteStationRepository(ctx, *dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer repo.Close()

	log.Printf("Connected to database: %s", *dbPath)

	// Nothing is clicked here, so markers need no popups
	loader := stations.NewLoader(nil, repo, *timeout)

	m := mapctx.New(mapctx.DefaultBaseLayers())
	log.Printf("Importing stations from %s...", *source)
	if err := loader.Load(ctx, m, *source); err != nil {
		log.Fatalf("Import failed: %v", err)
	}

	status := m.Status()
	count, err := repo.CountStations(ctx)
	if err != nil {
		log.Fatalf("Failed to count stations: %v", err)
	}
	log.Printf("Loaded %d stations (%d skipped), catalog holds %d", status.Stations, status.Skipped, count)
	log.Println("Import complete!")
}

package repository

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/you/climatemap/models"
)

const postgresSchema = `
	CREATE TABLE IF NOT EXISTS stations (
		station_key TEXT PRIMARY KEY,
		stn_id      TEXT NOT NULL DEFAULT '',
		name        TEXT NOT NULL DEFAULT '',
		province    TEXT NOT NULL DEFAULT '',
		elevation   DOUBLE PRECISION,
		climate_id  TEXT NOT NULL DEFAULT '',
		latitude    DOUBLE PRECISION NOT NULL,
		longitude   DOUBLE PRECISION NOT NULL,
		load_id     UUID NOT NULL,
		loaded_at   TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_stations_province ON stations(province);
	CREATE INDEX IF NOT EXISTS idx_stations_climate_id ON stations(climate_id);
`

// PostgresStationRepository stores the station catalog in PostgreSQL
type PostgresStationRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresStationRepository connects to databaseURL and ensures the schema
func NewPostgresStationRepository(ctx context.Context, databaseURL string) (*PostgresStationRepository, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Println("Connected to PostgreSQL station catalog")
	return &PostgresStationRepository{pool: pool}, nil
}

// Close closes the pool
func (r *PostgresStationRepository) Close() error {
	r.pool.Close()
	return nil
}

// Ping checks database connectivity
func (r *PostgresStationRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

// UpsertStations writes one load in a single batch and drops stations from
// earlier loads
func (r *PostgresStationRepository) UpsertStations(ctx context.Context, loadID uuid.UUID, stations []models.Station) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	batch := &pgx.Batch{}
	for _, s := range stations {
		key := s.Key()
		if key == "" {
			continue
		}
		batch.Queue(`
			INSERT INTO stations (
				station_key, stn_id, name, province, elevation, climate_id,
				latitude, longitude, load_id, loaded_at
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
			ON CONFLICT (station_key) DO UPDATE SET
				stn_id = EXCLUDED.stn_id,
				name = EXCLUDED.name,
				province = EXCLUDED.province,
				elevation = EXCLUDED.elevation,
				climate_id = EXCLUDED.climate_id,
				latitude = EXCLUDED.latitude,
				longitude = EXCLUDED.longitude,
				load_id = EXCLUDED.load_id,
				loaded_at = EXCLUDED.loaded_at
		`, key, s.ID, s.Name, s.Province, s.Elevation, s.ClimateID, s.Latitude, s.Longitude, loadID.String(), s.LoadedAt.UTC())
	}
	batch.Queue(`DELETE FROM stations WHERE load_id <> $1`, loadID.String())

	if err := tx.SendBatch(ctx, batch).Close(); err != nil {
		return fmt.Errorf("failed to upsert stations: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("failed to commit stations: %w", err)
	}
	return nil
}

const selectPostgresStations = `
	SELECT stn_id, name, province, elevation, climate_id, latitude, longitude, load_id::text, loaded_at
	FROM stations
`

// GetStation returns one station by its catalog key
func (r *PostgresStationRepository) GetStation(ctx context.Context, key string) (*models.Station, error) {
	row := r.pool.QueryRow(ctx, selectPostgresStations+` WHERE station_key = $1`, key)

	s, err := scanPostgresStation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, fmt.Errorf("failed to query station: %w", err)
	}
	return s, nil
}

// GetStationsByProvince returns the stations of one province, ordered by name
func (r *PostgresStationRepository) GetStationsByProvince(ctx context.Context, province string) ([]models.Station, error) {
	rows, err := r.pool.Query(ctx, selectPostgresStations+` WHERE province = $1 ORDER BY name, station_key`, province)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		s, err := scanPostgresStation(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan station row: %w", err)
		}
		stations = append(stations, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating station rows: %w", err)
	}
	return stations, nil
}

// CountStations returns the catalog size
func (r *PostgresStationRepository) CountStations(ctx context.Context) (int, error) {
	var n int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM stations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count stations: %w", err)
	}
	return n, nil
}

func scanPostgresStation(row pgx.Row) (*models.Station, error) {
	var s models.Station
	var loadID string
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Province,
		&s.Elevation,
		&s.ClimateID,
		&s.Latitude,
		&s.Longitude,
		&loadID,
		&s.LoadedAt,
	)
	if err != nil {
		return nil, err
	}

	if id, err := uuid.Parse(loadID); err == nil {
		s.LoadID = id
	}
	return &s, nil
}

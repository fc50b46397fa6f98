package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/you/climatemap/models"

	_ "modernc.org/sqlite"
)

//go:embed schema.sql
var schemaSQL string

// SQLiteStationRepository stores the station catalog in SQLite
type SQLiteStationRepository struct {
	db      *sql.DB
	writeMu sync.Mutex // SQLite allows a single writer
}

// NewSQLiteStationRepository opens dbPath with WAL enabled and ensures the schema
func NewSQLiteStationRepository(ctx context.Context, dbPath string) (*SQLiteStationRepository, error) {
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	log.Printf("Connected to SQLite station catalog: %s", dbPath)
	return &SQLiteStationRepository{db: db}, nil
}

// Close closes the database connection
func (r *SQLiteStationRepository) Close() error {
	return r.db.Close()
}

// Ping checks database connectivity
func (r *SQLiteStationRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// UpsertStations writes one load and drops stations from earlier loads
func (r *SQLiteStationRepository) UpsertStations(ctx context.Context, loadID uuid.UUID, stations []models.Station) error {
	r.writeMu.Lock()
	defer r.writeMu.Unlock()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO stations (
			station_key, stn_id, name, province, elevation, climate_id,
			latitude, longitude, load_id, loaded_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(station_key) DO UPDATE SET
			stn_id = excluded.stn_id,
			name = excluded.name,
			province = excluded.province,
			elevation = excluded.elevation,
			climate_id = excluded.climate_id,
			latitude = excluded.latitude,
			longitude = excluded.longitude,
			load_id = excluded.load_id,
			loaded_at = excluded.loaded_at
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer stmt.Close()

	loadIDStr := loadID.String()
	for _, s := range stations {
		key := s.Key()
		if key == "" {
			continue
		}
		_, err := stmt.ExecContext(ctx,
			key,
			s.ID,
			s.Name,
			s.Province,
			s.Elevation,
			s.ClimateID,
			s.Latitude,
			s.Longitude,
			loadIDStr,
			s.LoadedAt.UTC().Format(time.RFC3339),
		)
		if err != nil {
			return fmt.Errorf("failed to upsert station %s: %w", key, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM stations WHERE load_id != ?`, loadIDStr); err != nil {
		return fmt.Errorf("failed to prune stale stations: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stations: %w", err)
	}
	return nil
}

const selectStations = `
	SELECT stn_id, name, province, elevation, climate_id, latitude, longitude, load_id, loaded_at
	FROM stations
`

// GetStation returns one station by its catalog key
func (r *SQLiteStationRepository) GetStation(ctx context.Context, key string) (*models.Station, error) {
	row := r.db.QueryRowContext(ctx, selectStations+` WHERE station_key = ?`, key)

	s, err := scanStation(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrStationNotFound
		}
		return nil, fmt.Errorf("failed to query station: %w", err)
	}
	return s, nil
}

// GetStationsByProvince returns the stations of one province, ordered by name
func (r *SQLiteStationRepository) GetStationsByProvince(ctx context.Context, province string) ([]models.Station, error) {
	rows, err := r.db.QueryContext(ctx, selectStations+` WHERE province = ? ORDER BY name, station_key`, province)
	if err != nil {
		return nil, fmt.Errorf("failed to query stations: %w", err)
	}
	defer rows.Close()

	var stations []models.Station
	for rows.Next() {
		s, err := scanStation(rows)
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
func (r *SQLiteStationRepository) CountStations(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stations`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count stations: %w", err)
	}
	return n, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStation(row rowScanner) (*models.Station, error) {
	var s models.Station
	var loadID, loadedAt string
	err := row.Scan(
		&s.ID,
		&s.Name,
		&s.Province,
		&s.Elevation,
		&s.ClimateID,
		&s.Latitude,
		&s.Longitude,
		&loadID,
		&loadedAt,
	)
	if err != nil {
		return nil, err
	}

	if id, err := uuid.Parse(loadID); err == nil {
		s.LoadID = id
	}
	s.LoadedAt = parseTimeString(loadedAt)
	return &s, nil
}

// Package stations loads the station GeoJSON collection onto the map
package stations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/you/climatemap/internal/mapctx"
	"github.com/you/climatemap/internal/style"
	"github.com/you/climatemap/models"
)

// ErrAlreadyLoaded is returned by Load when the map already carries stations
var ErrAlreadyLoaded = errors.New("stations already loaded")

// LoadError reports a station source that could not be fetched or parsed
type LoadError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *LoadError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("station source %s returned status %d", e.URL, e.StatusCode)
	}
	return fmt.Sprintf("station source %s: %v", e.URL, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// Binder attaches popup and click behavior to a freshly built marker
type Binder interface {
	Bind(s models.Station, m *mapctx.Marker)
}

// Catalog persists the stations of a successful load
type Catalog interface {
	UpsertStations(ctx context.Context, loadID uuid.UUID, stations []models.Station) error
}

// Loader fetches the station collection and builds the cluster overlay
type Loader struct {
	client  *http.Client
	binder  Binder
	catalog Catalog
}

// NewLoader creates a loader. catalog may be nil. A nil binder leaves
// markers without popups or click listeners, for imports that never serve
// the map.
func NewLoader(binder Binder, catalog Catalog, timeout time.Duration) *Loader {
	return &Loader{
		client: &http.Client{
			Timeout: timeout,
		},
		binder:  binder,
		catalog: catalog,
	}
}

// Load fetches sourceURL and installs the station overlay and layer control
// on m. It refuses to run twice on the same map.
func (l *Loader) Load(ctx context.Context, m *mapctx.Map, sourceURL string) error {
	if m.HasStations() {
		return ErrAlreadyLoaded
	}

	result, err := l.build(ctx, m, sourceURL)
	if err != nil {
		log.Printf("Stations: load failed: %v", err)
		m.RecordLoadError(err)
		return err
	}

	if !m.SetStationsIfEmpty(result.group, result.control, result.status) {
		return ErrAlreadyLoaded
	}

	l.persist(ctx, result)
	log.Printf("Stations: loaded %d stations (%d features skipped)", result.status.Stations, result.status.Skipped)
	return nil
}

// Reload replaces the station overlay with a fresh copy of sourceURL. On
// failure the current overlay stays in place.
func (l *Loader) Reload(ctx context.Context, m *mapctx.Map, sourceURL string) error {
	result, err := l.build(ctx, m, sourceURL)
	if err != nil {
		log.Printf("Stations: reload failed, keeping current stations: %v", err)
		m.RecordLoadError(err)
		return err
	}

	m.SetStations(result.group, result.control, result.status)
	l.persist(ctx, result)
	log.Printf("Stations: reloaded %d stations (%d features skipped)", result.status.Stations, result.status.Skipped)
	return nil
}

type buildResult struct {
	group    *mapctx.ClusterGroup
	control  *mapctx.LayerControl
	status   mapctx.LoadStatus
	stations []models.Station
}

func (l *Loader) build(ctx context.Context, m *mapctx.Map, sourceURL string) (*buildResult, error) {
	fc, err := l.fetch(ctx, sourceURL)
	if err != nil {
		return nil, err
	}

	loadID := uuid.New()
	loadedAt := time.Now().UTC()
	group := mapctx.NewClusterGroup(mapctx.StationsOverlay)
	stations := make([]models.Station, 0, len(fc.Features))
	seen := make(map[string]bool, len(fc.Features))
	skipped := 0

	for i, f := range fc.Features {
		lng, lat, ok := f.Geometry.Point()
		if !ok {
			skipped++
			continue
		}

		s := models.NewStation(f.Properties, lng, lat)
		if err := s.Validate(); err != nil {
			skipped++
			continue
		}
		s.LoadID = loadID
		s.LoadedAt = loadedAt

		// Markers need a unique ID for click routing even when the source
		// repeats or omits station identifiers
		id := s.Key()
		if id == "" || seen[id] {
			id = fmt.Sprintf("feature-%d", i)
			for n := 1; seen[id]; n++ {
				id = fmt.Sprintf("feature-%d-%d", i, n)
			}
		}
		seen[id] = true

		marker := mapctx.NewMarker(id, s, style.Style(s.Elevation))
		if l.binder != nil {
			l.binder.Bind(s, marker)
		}
		group.AddLayer(marker)
		stations = append(stations, s)
	}

	baseNames := make([]string, 0, 2)
	for _, layer := range m.BaseLayers() {
		baseNames = append(baseNames, layer.Name)
	}

	return &buildResult{
		group: group,
		control: &mapctx.LayerControl{
			BaseLayers: baseNames,
			Overlays:   []string{group.Name},
		},
		status: mapctx.LoadStatus{
			LoadID:   loadID,
			Stations: group.Len(),
			Skipped:  skipped,
			LoadedAt: loadedAt,
		},
		stations: stations,
	}, nil
}

// fetch retrieves and decodes the FeatureCollection
func (l *Loader) fetch(ctx context.Context, sourceURL string) (*models.FeatureCollection, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return nil, &LoadError{URL: sourceURL, Err: fmt.Errorf("failed to create request: %w", err)}
	}
	req.Header.Set("Accept", "application/geo+json, application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, &LoadError{URL: sourceURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &LoadError{URL: sourceURL, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	var fc models.FeatureCollection
	if err := json.NewDecoder(resp.Body).Decode(&fc); err != nil {
		return nil, &LoadError{URL: sourceURL, Err: fmt.Errorf("failed to parse GeoJSON: %w", err)}
	}

	return &fc, nil
}

// persist writes the load to the catalog. Catalog failures do not affect
// the map.
func (l *Loader) persist(ctx context.Context, result *buildResult) {
	if l.catalog == nil {
		return
	}
	if err := l.catalog.UpsertStations(ctx, result.status.LoadID, result.stations); err != nil {
		log.Printf("Stations: failed to write catalog: %v", err)
	}
}

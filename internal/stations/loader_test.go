package stations

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"github.com/you/climatemap/internal/mapctx"
	"github.com/you/climatemap/internal/style"
	"github.com/you/climatemap/models"
)

const sampleCollection = `{
  "type": "FeatureCollection",
  "features": [
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-75.71, 45.38]},
     "properties": {"STN_ID": 4333, "STATION_NAME": "OTTAWA CDA", "PROV_STATE_TERR_CODE": "ON", "ELEVATION": 79.2, "CLIMATE_IDENTIFIER": "6105976"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-116.0, 51.4]},
     "properties": {"stn_id": "1001", "name": "LAKE LOUISE", "province": "AB", "elevation": "1524", "CLIMATE_IDENTIFIER": "3053760"}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-79.4, 43.6]},
     "properties": {"id": "2002", "name": "TORONTO ISLAND", "ELEVATION": null}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [-63.5, 44.6]},
     "properties": {"STN_ID": 4333, "STATION_NAME": "DUPLICATE ID", "ELEVATION": 300}},
    {"type": "Feature", "geometry": {"type": "LineString", "coordinates": [[0, 0], [1, 1]]},
     "properties": {"STN_ID": 9}},
    {"type": "Feature", "geometry": null, "properties": {"STN_ID": 10}},
    {"type": "Feature", "geometry": {"type": "Point", "coordinates": [200, 95]}, "properties": {"STN_ID": 11}}
  ]
}`

type countingBinder struct {
	bound []string
}

func (b *countingBinder) Bind(s models.Station, m *mapctx.Marker) {
	b.bound = append(b.bound, m.ID)
	m.BindPopup("popup:" + "bound")
}

type memoryCatalog struct {
	loadID   uuid.UUID
	stations []models.Station
	err      error
}

func (c *memoryCatalog) UpsertStations(ctx context.Context, loadID uuid.UUID, stations []models.Station) error {
	c.loadID = loadID
	c.stations = stations
	return c.err
}

func stationSource(t *testing.T, body string, hits *int32) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits != nil {
			atomic.AddInt32(hits, 1)
		}
		w.Header().Set("Content-Type", "application/geo+json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoadBuildsStyledClusteredMarkers(t *testing.T) {
	srv := stationSource(t, sampleCollection, nil)
	binder := &countingBinder{}
	catalog := &memoryCatalog{}
	loader := NewLoader(binder, catalog, time.Second)
	m := mapctx.New(mapctx.DefaultBaseLayers())

	if err := loader.Load(context.Background(), m, srv.URL); err != nil {
		t.Fatalf("Load returned %v", err)
	}

	group := m.Stations()
	if group == nil {
		t.Fatal("no station overlay installed")
	}
	if group.Name != mapctx.StationsOverlay {
		t.Errorf("overlay name = %q", group.Name)
	}
	if group.Len() != 4 {
		t.Fatalf("expected 4 markers, got %d", group.Len())
	}
	if len(binder.bound) != 4 {
		t.Errorf("binder saw %d markers, expected 4", len(binder.bound))
	}

	status := m.Status()
	if status.Stations != 4 || status.Skipped != 3 {
		t.Errorf("status = %+v, expected 4 stations / 3 skipped", status)
	}

	ottawa, err := m.Marker("4333")
	if err != nil {
		t.Fatalf("marker 4333: %v", err)
	}
	if ottawa.LatLng != [2]float64{45.38, -75.71} {
		t.Errorf("LatLng = %v, expected [lat, lng]", ottawa.LatLng)
	}
	if ottawa.Style.FillColor != style.Low.Color {
		t.Errorf("Ottawa fill = %q, expected low", ottawa.Style.FillColor)
	}
	if ottawa.Station.ClimateID != "6105976" || ottawa.Station.Province != "ON" {
		t.Errorf("Ottawa station = %+v", ottawa.Station)
	}
	if ottawa.Popup != "popup:bound" {
		t.Errorf("popup not bound: %q", ottawa.Popup)
	}

	louise, err := m.Marker("1001")
	if err != nil {
		t.Fatalf("marker 1001: %v", err)
	}
	if louise.Style.FillColor != style.High.Color {
		t.Errorf("Lake Louise fill = %q, expected high", louise.Style.FillColor)
	}

	toronto, err := m.Marker("2002")
	if err != nil {
		t.Fatalf("marker 2002: %v", err)
	}
	if toronto.Station.Elevation != nil || toronto.Style.FillColor != style.Unknown.Color {
		t.Errorf("Toronto elevation %v / fill %q, expected unknown", toronto.Station.Elevation, toronto.Style.FillColor)
	}

	dup, err := m.Marker("feature-3")
	if err != nil {
		t.Fatalf("duplicate station should get a positional marker ID: %v", err)
	}
	if dup.Station.ID != "4333" || dup.Style.FillColor != style.Medium.Color {
		t.Errorf("duplicate marker = %+v", dup)
	}

	control := m.LayerControl()
	if control == nil {
		t.Fatal("no layer control registered")
	}
	if strings.Join(control.BaseLayers, ",") != "OpenStreetMap,Esri World Imagery" {
		t.Errorf("base layers = %v", control.BaseLayers)
	}
	if len(control.Overlays) != 1 || control.Overlays[0] != mapctx.StationsOverlay {
		t.Errorf("overlays = %v", control.Overlays)
	}

	if catalog.loadID != status.LoadID || len(catalog.stations) != 4 {
		t.Errorf("catalog got load %s with %d stations", catalog.loadID, len(catalog.stations))
	}
}

func TestGeneratedMarkerIDsStayUnique(t *testing.T) {
	srv := stationSource(t, `{"type":"FeatureCollection","features":[
    {"type":"Feature","geometry":{"type":"Point","coordinates":[1,1]},"properties":{"STN_ID":"feature-1","name":"A"}},
    {"type":"Feature","geometry":{"type":"Point","coordinates":[2,2]},"properties":{"name":"B"}},
    {"type":"Feature","geometry":{"type":"Point","coordinates":[3,3]},"properties":{"STN_ID":"feature-1-1","name":"C"}},
    {"type":"Feature","geometry":{"type":"Point","coordinates":[4,4]},"properties":{"STN_ID":"feature-1","name":"D"}}
  ]}`, nil)
	loader := NewLoader(&countingBinder{}, nil, time.Second)
	m := mapctx.New(mapctx.DefaultBaseLayers())

	if err := loader.Load(context.Background(), m, srv.URL); err != nil {
		t.Fatalf("Load returned %v", err)
	}

	group := m.Stations()
	if group.Len() != 4 {
		t.Fatalf("expected 4 markers, got %d", group.Len())
	}
	ids := make(map[string]string, group.Len())
	for _, marker := range group.Markers {
		if other, dup := ids[marker.ID]; dup {
			t.Errorf("marker ID %q used by %s and %s", marker.ID, other, marker.Station.Name)
		}
		ids[marker.ID] = marker.Station.Name
	}
	for _, marker := range group.Markers {
		found, err := m.Marker(marker.ID)
		if err != nil || found != marker {
			t.Errorf("marker %q for %s not reachable by ID", marker.ID, marker.Station.Name)
		}
	}
	if ids["feature-1"] != "A" {
		t.Errorf("real STN_ID feature-1 lost its marker ID to %q", ids["feature-1"])
	}
}

func TestLoadWithoutBinder(t *testing.T) {
	srv := stationSource(t, sampleCollection, nil)
	catalog := &memoryCatalog{}
	loader := NewLoader(nil, catalog, time.Second)
	m := mapctx.New(mapctx.DefaultBaseLayers())

	if err := loader.Load(context.Background(), m, srv.URL); err != nil {
		t.Fatalf("Load returned %v", err)
	}
	if len(catalog.stations) != 4 {
		t.Errorf("catalog got %d stations, expected 4", len(catalog.stations))
	}
	marker, err := m.Marker("4333")
	if err != nil {
		t.Fatalf("marker 4333: %v", err)
	}
	if marker.Popup != "" {
		t.Errorf("unbound marker has popup %q", marker.Popup)
	}
}

func TestLoadTwiceIsGuarded(t *testing.T) {
	var hits int32
	srv := stationSource(t, sampleCollection, &hits)
	loader := NewLoader(&countingBinder{}, nil, time.Second)
	m := mapctx.New(mapctx.DefaultBaseLayers())

	if err := loader.Load(context.Background(), m, srv.URL); err != nil {
		t.Fatalf("first Load: %v", err)
	}
	first := m.Stations()

	if err := loader.Load(context.Background(), m, srv.URL); !errors.Is(err, ErrAlreadyLoaded) {
		t.Fatalf("second Load returned %v, expected ErrAlreadyLoaded", err)
	}
	if m.Stations() != first {
		t.Error("second Load replaced the overlay")
	}
	if atomic.LoadInt32(&hits) != 1 {
		t.Errorf("source fetched %d times, expected 1", hits)
	}
}

func TestLoadErrors(t *testing.T) {
	notFound := httptest.NewServer(http.NotFoundHandler())
	defer notFound.Close()

	garbage := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "{not geojson")
	}))
	defer garbage.Close()

	tests := []struct {
		name       string
		url        string
		statusCode int
	}{
		{"not found", notFound.URL, http.StatusNotFound},
		{"malformed json", garbage.URL, 0},
		{"bad url", "://nope", 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			loader := NewLoader(&countingBinder{}, nil, time.Second)
			m := mapctx.New(mapctx.DefaultBaseLayers())

			err := loader.Load(context.Background(), m, tc.url)
			var loadErr *LoadError
			if !errors.As(err, &loadErr) {
				t.Fatalf("expected *LoadError, got %v", err)
			}
			if loadErr.StatusCode != tc.statusCode {
				t.Errorf("StatusCode = %d, expected %d", loadErr.StatusCode, tc.statusCode)
			}
			if m.HasStations() || m.LayerControl() != nil {
				t.Error("failed load must leave the map without stations")
			}
			if m.Status().Error == "" {
				t.Error("failure not recorded for display")
			}
		})
	}
}

func TestReloadReplacesOverlay(t *testing.T) {
	var body atomic.Pointer[string]
	setBody := func(s string) { body.Store(&s) }
	setBody(sampleCollection)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, *body.Load())
	}))
	defer srv.Close()

	loader := NewLoader(&countingBinder{}, nil, time.Second)
	m := mapctx.New(mapctx.DefaultBaseLayers())
	if err := loader.Load(context.Background(), m, srv.URL); err != nil {
		t.Fatalf("Load: %v", err)
	}
	firstID := m.Status().LoadID

	setBody(`{"type":"FeatureCollection","features":[{"type":"Feature","geometry":{"type":"Point","coordinates":[1,2]},"properties":{"STN_ID":"x"}}]}`)
	if err := loader.Reload(context.Background(), m, srv.URL); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if m.Stations().Len() != 1 {
		t.Errorf("expected 1 station after reload, got %d", m.Stations().Len())
	}
	if m.Status().LoadID == firstID {
		t.Error("reload kept the old load ID")
	}

	setBody("broken")
	if err := loader.Reload(context.Background(), m, srv.URL); err == nil {
		t.Fatal("expected reload of broken source to fail")
	}
	if m.Stations().Len() != 1 {
		t.Error("failed reload dropped the current stations")
	}
	if m.Status().Error == "" {
		t.Error("failed reload not recorded")
	}

	setBody(sampleCollection)
	if err := loader.Reload(context.Background(), m, srv.URL); err != nil {
		t.Fatalf("Reload: %v", err)
	}
	if m.Status().Error != "" {
		t.Errorf("successful reload kept stale error %q", m.Status().Error)
	}
}

func TestCatalogFailureDoesNotFailLoad(t *testing.T) {
	srv := stationSource(t, sampleCollection, nil)
	loader := NewLoader(&countingBinder{}, &memoryCatalog{err: errors.New("disk full")}, time.Second)
	m := mapctx.New(mapctx.DefaultBaseLayers())

	if err := loader.Load(context.Background(), m, srv.URL); err != nil {
		t.Fatalf("Load returned %v", err)
	}
	if !m.HasStations() {
		t.Error("stations missing after catalog failure")
	}
}

func TestScheduleRefresh(t *testing.T) {
	c := cron.New()
	loader := NewLoader(&countingBinder{}, nil, time.Second)
	m := mapctx.New(mapctx.DefaultBaseLayers())

	if id, err := ScheduleRefresh(c, "", loader, m, "http://unused"); err != nil || id != 0 {
		t.Errorf("empty schedule: id=%d err=%v", id, err)
	}
	if _, err := ScheduleRefresh(c, "every tuesday-ish", loader, m, "http://unused"); err == nil {
		t.Error("expected error for invalid schedule")
	}
	if _, err := ScheduleRefresh(c, "@daily", loader, m, "http://unused"); err != nil {
		t.Errorf("valid schedule rejected: %v", err)
	}
	if len(c.Entries()) != 1 {
		t.Errorf("expected 1 cron entry, got %d", len(c.Entries()))
	}
}

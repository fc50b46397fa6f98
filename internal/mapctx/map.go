// Package mapctx is the owning context for everything placed on the map:
// base layers, the station cluster overlay and the controls. It is built once
// at startup and handed to the components that populate it.
package mapctx

import (
	"context"
	"errors"
	"html/template"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/you/climatemap/internal/panel"
	"github.com/you/climatemap/internal/style"
	"github.com/you/climatemap/models"
)

// StationsOverlay is the overlay name of the station cluster layer
const StationsOverlay = "Climate Stations"

var (
	// ErrMarkerNotFound is returned when no marker has the requested ID
	ErrMarkerNotFound = errors.New("marker not found")
	// ErrNoClickHandler is returned for markers nobody bound a click to
	ErrNoClickHandler = errors.New("marker has no click handler")
)

// TileLayer is a base imagery layer rendered by the browser map library
type TileLayer struct {
	Name        string `json:"name"`
	URL         string `json:"url"`
	Attribution string `json:"attribution"`
	MaxZoom     int    `json:"maxZoom"`
}

// DefaultBaseLayers are the two base layers offered by the layer control
func DefaultBaseLayers() []TileLayer {
	return []TileLayer{
		{
			Name:        "OpenStreetMap",
			URL:         "https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png",
			Attribution: "&copy; OpenStreetMap contributors",
			MaxZoom:     19,
		},
		{
			Name:        "Esri World Imagery",
			URL:         "https://server.arcgisonline.com/ArcGIS/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}",
			Attribution: "Tiles &copy; Esri",
			MaxZoom:     18,
		},
	}
}

// ClickFunc runs when a marker is clicked on behalf of one panel
type ClickFunc func(ctx context.Context, p *panel.State) error

// Marker is a styled circle marker for one station
type Marker struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	LatLng  [2]float64        `json:"latlng"` // [lat, lng]
	Style   style.MarkerStyle `json:"style"`
	Popup   template.HTML     `json:"popup,omitempty"`
	Station models.Station    `json:"-"`
	onClick ClickFunc
}

// NewMarker places a marker at the station position
func NewMarker(id string, s models.Station, ms style.MarkerStyle) *Marker {
	return &Marker{
		ID:      id,
		Name:    s.DisplayName(),
		LatLng:  [2]float64{s.Latitude, s.Longitude},
		Style:   ms,
		Station: s,
	}
}

// BindPopup sets the popup body
func (m *Marker) BindPopup(html template.HTML) {
	m.Popup = html
}

// OnClick registers the click listener, replacing any previous one
func (m *Marker) OnClick(fn ClickFunc) {
	m.onClick = fn
}

// Click fires the click listener
func (m *Marker) Click(ctx context.Context, p *panel.State) error {
	if m.onClick == nil {
		return ErrNoClickHandler
	}
	return m.onClick(ctx, p)
}

// ClusterGroup collects the markers that the browser clusters together
type ClusterGroup struct {
	Name    string    `json:"name"`
	Markers []*Marker `json:"markers"`
	byID    map[string]*Marker
}

// NewClusterGroup creates an empty cluster layer
func NewClusterGroup(name string) *ClusterGroup {
	return &ClusterGroup{
		Name:    name,
		Markers: make([]*Marker, 0),
		byID:    make(map[string]*Marker),
	}
}

// AddLayer adds a marker to the group
func (g *ClusterGroup) AddLayer(m *Marker) {
	g.Markers = append(g.Markers, m)
	g.byID[m.ID] = m
}

// Len returns the number of markers
func (g *ClusterGroup) Len() int {
	return len(g.Markers)
}

// LayerControl lists base layer choices and toggleable overlays by name
type LayerControl struct {
	BaseLayers []string `json:"baseLayers"`
	Overlays   []string `json:"overlays"`
}

// LoadStatus describes the last station load
type LoadStatus struct {
	LoadID   uuid.UUID `json:"loadId"`
	Stations int       `json:"stations"`
	Skipped  int       `json:"skipped"`
	LoadedAt time.Time `json:"loadedAt"`
	Error    string    `json:"error,omitempty"`
}

// Map is the single owning map context
type Map struct {
	mu         sync.RWMutex
	baseLayers []TileLayer
	stations   *ClusterGroup
	control    *LayerControl
	legend     *style.LegendControl
	status     LoadStatus
}

// New creates a map with the given base layers
func New(baseLayers []TileLayer) *Map {
	return &Map{baseLayers: baseLayers}
}

// BaseLayers returns the base layers
func (m *Map) BaseLayers() []TileLayer {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]TileLayer, len(m.baseLayers))
	copy(result, m.baseLayers)
	return result
}

// AddLegend registers the legend control
func (m *Map) AddLegend(l style.LegendControl) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.legend = &l
}

// Legend returns the registered legend control, if any
func (m *Map) Legend() (style.LegendControl, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.legend == nil {
		return style.LegendControl{}, false
	}
	return *m.legend, true
}

// HasStations reports whether a station overlay is installed
func (m *Map) HasStations() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stations != nil
}

// SetStations installs the station cluster overlay and its layer control,
// replacing any previous ones.
func (m *Map) SetStations(group *ClusterGroup, control *LayerControl, status LoadStatus) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stations = group
	m.control = control
	m.status = status
}

// SetStationsIfEmpty installs the overlay only when none is present
func (m *Map) SetStationsIfEmpty(group *ClusterGroup, control *LayerControl, status LoadStatus) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.stations != nil {
		return false
	}
	m.stations = group
	m.control = control
	m.status = status
	return true
}

// RecordLoadError keeps the failure for display without touching the layers
func (m *Map) RecordLoadError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.status.Error = err.Error()
}

// Status returns the last load status
func (m *Map) Status() LoadStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// Stations returns the station overlay, nil before the first successful load
func (m *Map) Stations() *ClusterGroup {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stations
}

// LayerControl returns the registered layer control, nil before loading
func (m *Map) LayerControl() *LayerControl {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.control
}

// Marker looks up a station marker by ID
func (m *Map) Marker(id string) (*Marker, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.stations == nil {
		return nil, ErrMarkerNotFound
	}
	marker, ok := m.stations.byID[id]
	if !ok {
		return nil, ErrMarkerNotFound
	}
	return marker, nil
}

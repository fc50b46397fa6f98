package models

import "encoding/json"

// FeatureCollection is a GeoJSON FeatureCollection as served by the
// station source
type FeatureCollection struct {
	Type     string    `json:"type"`
	Features []Feature `json:"features"`
}

// Feature is a single GeoJSON feature. Properties stay an untyped bag
// because key names vary between station sources.
type Feature struct {
	Type       string                 `json:"type"`
	Properties map[string]interface{} `json:"properties"`
	Geometry   *Geometry              `json:"geometry"`
}

// Geometry keeps coordinates raw; only Point geometries are decoded.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Point returns the [lng, lat] pair of a Point geometry
func (g *Geometry) Point() (lng, lat float64, ok bool) {
	if g == nil || g.Type != "Point" {
		return 0, 0, false
	}
	var coords []float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return 0, 0, false
	}
	if len(coords) < 2 {
		return 0, 0, false
	}
	return coords[0], coords[1], true
}

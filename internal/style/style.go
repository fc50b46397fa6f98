// Package style maps station elevation to marker styling and renders the
// matching legend. Both read the same bucket table.
package style

// Bucket is an elevation class with its display color
type Bucket struct {
	Name  string
	Label string
	Color string
}

// Elevation thresholds in meters. Medium is inclusive at both ends.
const (
	LowUpperBound    = 200.0
	MediumUpperBound = 500.0
)

var (
	Low     = Bucket{Name: "low", Label: "Low (<200m)", Color: "#2ca25f"}
	Medium  = Bucket{Name: "medium", Label: "Medium (200-500m)", Color: "#fec44f"}
	High    = Bucket{Name: "high", Label: "High (>500m)", Color: "#de2d26"}
	Unknown = Bucket{Name: "unknown", Label: "Unknown elevation", Color: "#969696"}
)

// Buckets lists the elevation classes in ascending order
var Buckets = []Bucket{Low, Medium, High}

// Marker constants shared by every station
const (
	markerRadius      = 6
	markerStroke      = "#ffffff"
	markerWeight      = 1
	markerOpacity     = 1.0
	markerFillOpacity = 0.8
)

// MarkerStyle mirrors Leaflet circle marker path options
type MarkerStyle struct {
	Radius      int     `json:"radius"`
	FillColor   string  `json:"fillColor"`
	Color       string  `json:"color"`
	Weight      int     `json:"weight"`
	Opacity     float64 `json:"opacity"`
	FillOpacity float64 `json:"fillOpacity"`
}

// Classify returns the bucket for an elevation. A nil elevation is Unknown.
func Classify(elevation *float64) Bucket {
	if elevation == nil {
		return Unknown
	}
	e := *elevation
	switch {
	case e < LowUpperBound:
		return Low
	case e <= MediumUpperBound:
		return Medium
	case e > MediumUpperBound:
		return High
	default:
		// NaN fails every comparison
		return Unknown
	}
}

// Style returns the marker style for an elevation
func Style(elevation *float64) MarkerStyle {
	return MarkerStyle{
		Radius:      markerRadius,
		FillColor:   Classify(elevation).Color,
		Color:       markerStroke,
		Weight:      markerWeight,
		Opacity:     markerOpacity,
		FillOpacity: markerFillOpacity,
	}
}

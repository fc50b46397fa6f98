package models

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Station is one climate station normalized from a GeoJSON point feature.
// Property aliases are resolved once at ingestion, see NewStation.
type Station struct {
	// Primary identifier (STN_ID)
	ID string `json:"id,omitempty"`

	// Display fields, empty when absent from the source
	Name     string `json:"name,omitempty"`
	Province string `json:"province,omitempty"`

	// Elevation in meters (nil when the source has no value)
	Elevation *float64 `json:"elevation,omitempty"`

	// Join key to the climate-daily API
	ClimateID string `json:"climateId,omitempty"`

	// Position (WGS84)
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`

	// Metadata (not exposed to frontend)
	LoadID   uuid.UUID `json:"-"`
	LoadedAt time.Time `json:"-"`
}

// Field is a logical station attribute with its accepted property keys,
// tried in order.
type Field struct {
	Name    string
	Aliases []string
}

// Accepted property keys per logical field
var (
	FieldID        = Field{Name: "id", Aliases: []string{"STN_ID", "stn_id", "id"}}
	FieldName      = Field{Name: "name", Aliases: []string{"STATION_NAME", "name"}}
	FieldProvince  = Field{Name: "province", Aliases: []string{"PROV_STATE_TERR_CODE", "province"}}
	FieldElevation = Field{Name: "elevation", Aliases: []string{"ELEVATION", "elevation"}}
	FieldClimateID = Field{Name: "climateId", Aliases: []string{"CLIMATE_IDENTIFIER", "climate_identifier"}}
)

// Lookup returns the first present, non-empty value among the field's aliases.
func (f Field) Lookup(props map[string]interface{}) (interface{}, bool) {
	for _, key := range f.Aliases {
		v, ok := props[key]
		if !ok || v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// String resolves the field as text. Numbers are formatted without exponent
// so numeric station IDs survive the float64 round trip of encoding/json.
func (f Field) String(props map[string]interface{}) string {
	v, ok := f.Lookup(props)
	if !ok {
		return ""
	}
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// Float resolves the field as a number. Numeric strings are accepted;
// anything else is treated as absent.
func (f Field) Float(props map[string]interface{}) *float64 {
	v, ok := f.Lookup(props)
	if !ok {
		return nil
	}
	var n float64
	switch val := v.(type) {
	case float64:
		n = val
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return nil
		}
		n = parsed
	default:
		return nil
	}
	if math.IsNaN(n) || math.IsInf(n, 0) {
		return nil
	}
	return &n
}

// NewStation builds a normalized Station from a feature's properties bag and
// its [lng, lat] point coordinates.
func NewStation(props map[string]interface{}, lng, lat float64) Station {
	return Station{
		ID:        FieldID.String(props),
		Name:      FieldName.String(props),
		Province:  FieldProvince.String(props),
		Elevation: FieldElevation.Float(props),
		ClimateID: FieldClimateID.String(props),
		Latitude:  lat,
		Longitude: lng,
	}
}

// HasClimateID reports whether the station can be joined to climate data
func (s Station) HasClimateID() bool {
	return s.ClimateID != ""
}

// DisplayName returns the station name or a placeholder
func (s Station) DisplayName() string {
	if s.Name == "" {
		return "Unknown station"
	}
	return s.Name
}

// Key identifies the station within a load. Falls back to the climate
// identifier for sources without STN_ID.
func (s Station) Key() string {
	if s.ID != "" {
		return s.ID
	}
	return s.ClimateID
}

// Validate checks that the Station can be placed on the map
func (s *Station) Validate() error {
	// Latitude must be in valid range [-90, 90]
	if s.Latitude < -90 || s.Latitude > 90 {
		return errors.New("latitude out of range: must be between -90 and 90")
	}

	// Longitude must be in valid range [-180, 180]
	if s.Longitude < -180 || s.Longitude > 180 {
		return errors.New("longitude out of range: must be between -180 and 180")
	}

	return nil
}

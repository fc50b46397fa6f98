// Package repository persists the station catalog
package repository

import (
	"errors"
	"time"
)

// ErrStationNotFound is returned when no station has the requested ID
var ErrStationNotFound = errors.New("station not found")

// parseTimeString converts an RFC3339 string to time.Time, zero on failure
func parseTimeString(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

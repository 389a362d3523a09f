package models

import (
	"strings"
	"time"
)

// SavedStop is a reusable stop in the shared catalog. Editor sessions match
// geocoder candidates against the catalog by normalized name so an existing
// stop is reused instead of duplicated when a route is confirmed.
type SavedStop struct {
	ID             string    `json:"id" db:"id"`
	Name           string    `json:"name" db:"name"`
	NormalizedName string    `json:"-" db:"normalized_name"`
	Address        *string   `json:"address,omitempty" db:"address"`
	Latitude       float64   `json:"latitude" db:"latitude"`
	Longitude      float64   `json:"longitude" db:"longitude"`
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// NormalizeStopName collapses a display name to the catalog's matching key:
// lowercase, single-spaced, trimmed.
func NormalizeStopName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

package geocode

import (
	"context"
	"errors"
)

// Place is a single geocoder result. Label is the full formatted address,
// Name the short display name of the feature.
type Place struct {
	Name      string
	Label     string
	Latitude  float64
	Longitude float64
}

// ErrNotFound is returned by Reverse when no feature exists near the point
// (open water, unmapped areas).
var ErrNotFound = errors.New("geocode: no result for location")

// Geocoder resolves free-text queries and map coordinates to places.
type Geocoder interface {
	// Search returns up to the configured number of candidates for a typed
	// query, best match first. An empty result is not an error.
	Search(ctx context.Context, query string) ([]Place, error)

	// Reverse names the feature nearest to the given coordinates.
	Reverse(ctx context.Context, lat, lng float64) (*Place, error)
}

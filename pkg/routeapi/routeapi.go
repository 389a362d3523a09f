package routeapi

import (
	"context"
	"errors"
	"time"
)

// RouteStop is one ordered stop of a persisted route. StopID references a
// catalog stop when the editor matched one; otherwise the platform creates a
// new stop document from the embedded fields.
type RouteStop struct {
	StopID    *string `json:"stopId,omitempty"`
	Name      string  `json:"name"`
	Address   string  `json:"address,omitempty"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Order     int     `json:"order"`

	// Cumulative travel cost from the first stop, in meters and seconds.
	DistanceFromStart *float64 `json:"distanceFromStart,omitempty"`
	DurationFromStart *float64 `json:"durationFromStart,omitempty"`
}

// RoutePayload is the body for creating or replacing a route. Field names
// follow the platform API's camelCase convention.
type RoutePayload struct {
	Name     string      `json:"name"`
	Price    float64     `json:"price"`
	Distance float64     `json:"distance"` // meters
	Duration float64     `json:"duration"` // seconds
	Stops    []RouteStop `json:"stops"`
}

// Route is a persisted route document as returned by the platform API.
type Route struct {
	ID        string      `json:"_id"`
	Name      string      `json:"name"`
	Price     float64     `json:"price"`
	Distance  float64     `json:"distance"`
	Duration  float64     `json:"duration"`
	Stops     []RouteStop `json:"stops"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`
}

// ErrRouteNotFound is returned when the platform has no route with the
// requested id.
var ErrRouteNotFound = errors.New("routeapi: route not found")

// Client talks to the platform's route persistence API.
type Client interface {
	CreateRoute(ctx context.Context, payload RoutePayload) (*Route, error)
	UpdateRoute(ctx context.Context, id string, payload RoutePayload) (*Route, error)
	GetRoute(ctx context.Context, id string) (*Route, error)
}

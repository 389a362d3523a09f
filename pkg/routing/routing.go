package routing

import (
	"context"
	"fmt"
)

// Point is a single routing waypoint.
type Point struct {
	Latitude  float64
	Longitude float64
}

// Leg is the travel cost between two consecutive waypoints.
type Leg struct {
	DistanceMeters  float64
	DurationSeconds float64
}

// Route is the result of one directions computation over an ordered list of
// waypoints. Legs has exactly len(points)-1 entries, in waypoint order.
type Route struct {
	DistanceMeters  float64
	DurationSeconds float64
	Legs            []Leg
	Geometry        []Point
}

// RouteError is a failure reported by the routing provider itself, as
// opposed to a transport failure. No-path-found arrives this way.
type RouteError struct {
	Code    int
	Message string
}

func (e *RouteError) Error() string {
	return fmt.Sprintf("routing provider error %d: %s", e.Code, e.Message)
}

// Planner computes a drivable route through an ordered list of waypoints.
type Planner interface {
	// ComputeRoute requires at least two points. A failure is terminal for
	// that attempt; the caller decides whether a new attempt is made.
	ComputeRoute(ctx context.Context, points []Point) (*Route, error)
}

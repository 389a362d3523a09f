package models

// Focus tracks which slot of the stop list the next map click is aimed at.
// It only ever advances: assigning the start moves it to the end slot,
// assigning the end moves it to intermediates, and re-editing an earlier
// slot never moves it back.
type Focus string

const (
	FocusAwaitingStart        Focus = "awaiting_start"
	FocusAwaitingEnd          Focus = "awaiting_end"
	FocusAwaitingIntermediate Focus = "awaiting_intermediate"
)

// Waypoint represents one entry in an editor session's ordered stop list.
// LocalID identifies the entry within the session only and is never
// persisted; PersistentID links the entry to a saved stop when known.
type Waypoint struct {
	LocalID      string  `json:"local_id"`
	PersistentID *string `json:"persistent_id,omitempty"`
	Name         string  `json:"name"`
	Address      string  `json:"address,omitempty"`

	// Latitude/Longitude are nil for a blanked endpoint slot that has not
	// been re-assigned yet.
	Latitude  *float64 `json:"latitude,omitempty"`
	Longitude *float64 `json:"longitude,omitempty"`

	// Resolving is true while a reverse-geocode lookup for this entry is
	// in flight. A resolving waypoint is excluded from route computation.
	Resolving bool `json:"resolving"`

	// Populated only after a successful route computation, cleared on any
	// change to the resolved stops.
	DistanceFromStartMeters  *float64 `json:"distance_from_start_meters,omitempty"`
	DurationFromStartSeconds *float64 `json:"duration_from_start_seconds,omitempty"`
}

// Resolved reports whether the waypoint can be fed to the routing provider:
// it has coordinates and no reverse-geocode lookup is pending.
func (w *Waypoint) Resolved() bool {
	return w.Latitude != nil && w.Longitude != nil && !w.Resolving
}

// HasCoordinates reports whether the waypoint has been placed on the map at all.
func (w *Waypoint) HasCoordinates() bool {
	return w.Latitude != nil && w.Longitude != nil
}

// LatLng is a single geographic point of a computed route geometry.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// RouteMetrics holds the totals derived from the latest successful route
// computation. It is replaced wholesale on every recomputation, never patched.
type RouteMetrics struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds float64 `json:"duration_seconds"`
}

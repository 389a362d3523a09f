package models

import "time"

// SessionView is the full client-visible state of an editor session. It is
// rebuilt from the session on every read and pushed over the event stream
// after every mutation.
type SessionView struct {
	ID            string     `json:"id"`
	Focus         Focus      `json:"focus"`
	Stops         []Waypoint `json:"stops"`
	ResolvedCount int        `json:"resolved_count"`

	// Computing is true while a route recomputation is in flight. Metrics
	// and Geometry are nil until a computation has succeeded for the
	// current stop list.
	Computing    bool          `json:"computing_route"`
	Metrics      *RouteMetrics `json:"metrics,omitempty"`
	Geometry     []LatLng      `json:"geometry,omitempty"`
	RouteWarning string        `json:"route_warning,omitempty"`

	// LookupWarning is set when a reverse-geocode lookup failed; the
	// affected stop keeps its coordinates under a placeholder name.
	LookupWarning string `json:"lookup_warning,omitempty"`

	Searches map[SearchBox]SearchView `json:"searches"`

	CanConfirm bool `json:"can_confirm"`

	// SeededRouteID is the route this session was opened from, when any; it
	// is the default persistence target on confirm. ConfirmedRouteID is the
	// route the last confirmation wrote.
	SeededRouteID    *string   `json:"seeded_route_id,omitempty"`
	ConfirmedRouteID *string   `json:"confirmed_route_id,omitempty"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CreateSessionRequest opens a new editor session, optionally seeded from an
// already persisted route.
type CreateSessionRequest struct {
	RouteID string `json:"route_id,omitempty"`
}

// SearchRequest carries one keystroke-level update of a search box.
type SearchRequest struct {
	Box  string `json:"box" binding:"required,oneof=start end intermediate"`
	Text string `json:"text"`
}

// SelectCandidateRequest picks one of the candidates currently offered for a
// search box.
type SelectCandidateRequest struct {
	Box   string `json:"box" binding:"required,oneof=start end intermediate"`
	Index int    `json:"index" binding:"min=0"`
}

// MapClickRequest places the focused slot at a clicked map location.
type MapClickRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// MoveWaypointRequest carries a marker drag for one stop.
type MoveWaypointRequest struct {
	Latitude  *float64 `json:"latitude" binding:"required"`
	Longitude *float64 `json:"longitude" binding:"required"`
}

// ReorderRequest moves one intermediate stop before another position in the
// intermediate range.
type ReorderRequest struct {
	FromLocalID string `json:"from_local_id" binding:"required"`
	ToLocalID   string `json:"to_local_id" binding:"required"`
}

// SetEndpointRequest replaces the start or end stop. A body with no
// coordinates blanks the slot, leaving an unresolved placeholder.
type SetEndpointRequest struct {
	Name         string   `json:"name"`
	Address      string   `json:"address"`
	Latitude     *float64 `json:"latitude"`
	Longitude    *float64 `json:"longitude"`
	PersistentID *string  `json:"persistent_id"`
}

// ConfirmRouteRequest persists the session's stop list as a route. RouteID
// forces an update of that route; a session seeded from a route updates it
// by default.
type ConfirmRouteRequest struct {
	Name    string   `json:"name" binding:"required"`
	Price   *float64 `json:"price" binding:"required,gte=0"`
	RouteID string   `json:"route_id,omitempty"`
}

package editor

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/models"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/stream"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/metrics"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/routeapi"
)

// ErrNotConfirmable is returned when a session's stop list or route state
// does not satisfy the confirmation requirements. The wrapped message names
// the first blocker found.
var ErrNotConfirmable = errors.New("session is not ready to confirm")

// Confirm persists the session's ordered stop list and derived metrics as a
// route. A session seeded from a route updates that route; req.RouteID
// overrides the target; otherwise a new route is created. The stop list
// stays editable either way, and a persistence failure leaves the session
// exactly as it was.
func (s *Session) Confirm(ctx context.Context, req models.ConfirmRouteRequest) (*routeapi.Route, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, ErrSessionClosed
	}
	if blocker := s.confirmBlockerLocked(); blocker != "" {
		s.mu.Unlock()
		return nil, fmt.Errorf("%w: %s", ErrNotConfirmable, blocker)
	}
	s.confirming = true

	stops := make([]models.Waypoint, 0, s.list.Len())
	for _, wp := range s.list.Stops() {
		stops = append(stops, cloneWaypoint(wp))
	}
	derived := *s.metrics
	routeID := req.RouteID
	if routeID == "" {
		routeID = s.seededRouteID
	}
	s.mu.Unlock()

	// Catalog matching is best-effort; stops that fail to upsert simply go
	// out without a stopId and the platform creates fresh documents.
	stops = s.deps.Catalog.EnsureStops(ctx, stops)

	price := 0.0
	if req.Price != nil {
		price = *req.Price
	}
	payload := routeapi.RoutePayload{
		Name:     req.Name,
		Price:    price,
		Distance: derived.DistanceMeters,
		Duration: derived.DurationSeconds,
		Stops:    make([]routeapi.RouteStop, 0, len(stops)),
	}
	for i, wp := range stops {
		payload.Stops = append(payload.Stops, routeapi.RouteStop{
			StopID:            cloneString(wp.PersistentID),
			Name:              wp.Name,
			Address:           wp.Address,
			Latitude:          *wp.Latitude,
			Longitude:         *wp.Longitude,
			Order:             i,
			DistanceFromStart: cloneFloat(wp.DistanceFromStartMeters),
			DurationFromStart: cloneFloat(wp.DurationFromStartSeconds),
		})
	}

	var route *routeapi.Route
	var err error
	if routeID != "" {
		route, err = s.deps.Routes.UpdateRoute(ctx, routeID, payload)
	} else {
		route, err = s.deps.Routes.CreateRoute(ctx, payload)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.confirming = false
	if err != nil {
		return nil, fmt.Errorf("failed to persist route: %w", err)
	}
	if s.closed {
		// The route was persisted; there is just no session state left to
		// record it on.
		return route, nil
	}

	id := route.ID
	s.confirmedRouteID = &id
	for _, snap := range stops {
		if snap.PersistentID == nil {
			continue
		}
		if wp := s.list.Get(snap.LocalID); wp != nil && wp.PersistentID == nil {
			wp.PersistentID = cloneString(snap.PersistentID)
		}
	}

	metrics.RoutesConfirmed.Add(ctx, 1)
	s.touchLocked()
	s.deps.Notifier.Notify(s.ID, stream.EventSessionConfirmed, route)
	s.notifyLocked()
	return route, nil
}

// confirmBlockerLocked names the first thing standing between the session
// and a confirmable state, or returns "" when there is none.
func (s *Session) confirmBlockerLocked() string {
	if s.confirming {
		return "a confirmation is already in progress"
	}
	if s.list.Len() < 2 {
		return "at least two stops are required"
	}
	for _, wp := range s.list.Stops() {
		if wp.Resolving {
			return "a stop is still resolving"
		}
		if !wp.HasCoordinates() {
			return "a stop has no location"
		}
	}
	if s.computing {
		return "route computation is in progress"
	}
	if !s.computeOK || s.metrics == nil {
		return "no successful route computation for the current stops"
	}
	return ""
}

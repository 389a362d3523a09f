package editor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/models"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/stream"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/geocode"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/routeapi"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/routing"
)

var (
	// ErrSessionClosed is returned by operations on a deleted or expired session.
	ErrSessionClosed = errors.New("editor session is closed")

	// ErrWaypointNotFound is returned when an operation names a stop the
	// session does not hold.
	ErrWaypointNotFound = errors.New("no stop with that id in this session")
)

// Settings tune the editing workflow. Zero values fall back to defaults.
type Settings struct {
	SearchDebounce time.Duration
	DragDebounce   time.Duration
	SessionTTL     time.Duration
	SweepInterval  time.Duration
	MaxCandidates  int
}

func (s Settings) withDefaults() Settings {
	if s.SearchDebounce <= 0 {
		s.SearchDebounce = 500 * time.Millisecond
	}
	if s.DragDebounce <= 0 {
		s.DragDebounce = 500 * time.Millisecond
	}
	if s.SessionTTL <= 0 {
		s.SessionTTL = 30 * time.Minute
	}
	if s.SweepInterval <= 0 {
		s.SweepInterval = time.Minute
	}
	if s.MaxCandidates <= 0 {
		s.MaxCandidates = 5
	}
	return s
}

// Notifier pushes session events to connected clients. The zero dependency
// is a no-op so sessions work without an event stream attached.
type Notifier interface {
	Notify(sessionID string, eventType string, payload interface{})
}

type noopNotifier struct{}

func (noopNotifier) Notify(string, string, interface{}) {}

// Catalog links the editing workflow to the platform's saved-stop catalog.
// Both methods are best-effort: a catalog failure never blocks editing.
type Catalog interface {
	// Match fills PersistentID on candidates that correspond to an
	// already saved stop.
	Match(ctx context.Context, candidates []models.Candidate) []models.Candidate

	// EnsureStops upserts confirmed stops into the catalog and returns
	// the same ordered list with PersistentID filled where possible.
	EnsureStops(ctx context.Context, stops []models.Waypoint) []models.Waypoint
}

type noopCatalog struct{}

func (noopCatalog) Match(_ context.Context, candidates []models.Candidate) []models.Candidate {
	return candidates
}

func (noopCatalog) EnsureStops(_ context.Context, stops []models.Waypoint) []models.Waypoint {
	return stops
}

// Deps are the collaborators a session works against. Geocoder, Planner and
// Routes are required; Notifier and Catalog may be nil.
type Deps struct {
	Geocoder geocode.Geocoder
	Planner  routing.Planner
	Routes   routeapi.Client
	Catalog  Catalog
	Notifier Notifier
	Logger   *logrus.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Notifier == nil {
		d.Notifier = noopNotifier{}
	}
	if d.Catalog == nil {
		d.Catalog = noopCatalog{}
	}
	if d.Logger == nil {
		d.Logger = logrus.New()
	}
	return d
}

// Session is one route-editing workspace: an ordered stop list, one search
// box per slot kind, and the derived route state. All mutations, including
// the completions of asynchronous lookups, are serialized by a single mutex;
// stale completions are discarded by generation and coordinate checks, never
// applied.
type Session struct {
	ID string

	mu       sync.Mutex
	settings Settings
	deps     Deps

	list       *StopList
	searches   map[models.SearchBox]*boxSearch
	dragTimers map[string]*time.Timer

	recomputeGen    uint64
	lastResolvedSig string
	computing       bool
	computeOK       bool
	confirming      bool
	metrics         *models.RouteMetrics
	geometry        []models.LatLng
	routeWarning    string
	lookupWarning   string

	seededRouteID    string
	confirmedRouteID *string

	createdAt time.Time
	updatedAt time.Time
	closed    bool
}

func newSession(id string, settings Settings, deps Deps) *Session {
	now := time.Now()
	return &Session{
		ID:       id,
		settings: settings,
		deps:     deps,
		list:     NewStopList(),
		searches: map[models.SearchBox]*boxSearch{
			models.BoxStart:        {},
			models.BoxEnd:          {},
			models.BoxIntermediate: {},
		},
		dragTimers: make(map[string]*time.Timer),
		createdAt:  now,
		updatedAt:  now,
	}
}

// SetStart replaces the start stop. A request without coordinates blanks
// the slot, leaving an unresolved placeholder that keeps the list shape.
func (s *Session) SetStart(req models.SetEndpointRequest) error {
	return s.setEndpoint(req, true)
}

// SetEnd replaces the end stop, with the same blanking rule as SetStart.
func (s *Session) SetEnd(req models.SetEndpointRequest) error {
	return s.setEndpoint(req, false)
}

func (s *Session) setEndpoint(req models.SetEndpointRequest, start bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	wp := waypointFromEndpoint(req)
	var replaced *models.Waypoint
	if start {
		replaced = s.list.SetStart(wp)
	} else {
		replaced = s.list.SetEnd(wp)
	}
	if replaced != nil {
		s.stopDragTimerLocked(replaced.LocalID)
	}

	s.maybeRecomputeLocked()
	s.touchLocked()
	s.notifyLocked()
	return nil
}

// MapClick assigns the clicked location to the focused slot. The new stop
// starts out resolving: a reverse-geocode lookup for its name is issued
// immediately and the stop stays out of route computations until it lands.
func (s *Session) MapClick(lat, lng float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	wp := &models.Waypoint{Latitude: &lat, Longitude: &lng, Resolving: true}
	var replaced *models.Waypoint
	switch s.list.Focus() {
	case models.FocusAwaitingStart:
		replaced = s.list.SetStart(wp)
	case models.FocusAwaitingEnd:
		replaced = s.list.SetEnd(wp)
	default:
		if err := s.list.InsertIntermediate(wp, nil); err != nil {
			return err
		}
	}
	if replaced != nil {
		s.stopDragTimerLocked(replaced.LocalID)
	}

	go s.resolveWaypoint(wp.LocalID, lat, lng)

	s.maybeRecomputeLocked()
	s.touchLocked()
	s.notifyLocked()
	return nil
}

// MoveWaypoint applies a marker drag: the stop keeps its identity and its
// place in the order but takes the new coordinates and loses its name until
// a debounced reverse-geocode lookup resolves it again. Each stop has its
// own debounce timer, so drags on different stops never cancel each other.
func (s *Session) MoveWaypoint(localID string, lat, lng float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	wp := s.list.UpdatePosition(localID, lat, lng)
	if wp == nil {
		return ErrWaypointNotFound
	}
	wp.Resolving = true

	s.stopDragTimerLocked(localID)
	s.dragTimers[localID] = time.AfterFunc(s.settings.DragDebounce, func() {
		s.fireReverse(localID)
	})

	s.maybeRecomputeLocked()
	s.touchLocked()
	s.notifyLocked()
	return nil
}

// Reorder moves one intermediate stop to another intermediate's position.
// Unknown ids and endpoint ids are ignored, matching a drag that was
// dropped outside the sortable range.
func (s *Session) Reorder(fromLocalID, toLocalID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	if !s.list.ReorderIntermediate(fromLocalID, toLocalID) {
		return nil
	}

	s.maybeRecomputeLocked()
	s.touchLocked()
	s.notifyLocked()
	return nil
}

// RemoveStop deletes an intermediate stop. Removing the start or end slot
// is rejected with ErrEndpointNotRemovable; unknown ids are a no-op.
func (s *Session) RemoveStop(localID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	removed, err := s.list.Remove(localID)
	if err != nil {
		return err
	}
	if removed == nil {
		return nil
	}
	s.stopDragTimerLocked(removed.LocalID)

	s.maybeRecomputeLocked()
	s.touchLocked()
	s.notifyLocked()
	return nil
}

// Reset discards all stops, searches and derived route state, returning the
// session to its initial awaiting-start shape. In-flight lookups and
// computations are orphaned and their results discarded on arrival.
func (s *Session) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return ErrSessionClosed
	}

	s.resetLocked()
	s.touchLocked()
	s.notifyLocked()
	return nil
}

func (s *Session) resetLocked() {
	for id, t := range s.dragTimers {
		t.Stop()
		delete(s.dragTimers, id)
	}
	for _, b := range s.searches {
		b.reset()
	}

	s.list.Clear()
	s.recomputeGen++
	s.lastResolvedSig = ""
	s.computing = false
	s.computeOK = false
	s.metrics = nil
	s.geometry = nil
	s.routeWarning = ""
	s.lookupWarning = ""
}

// Close marks the session dead, cancels every pending timer and tells
// subscribers why. Further operations return ErrSessionClosed.
func (s *Session) Close(reason string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true

	for id, t := range s.dragTimers {
		t.Stop()
		delete(s.dragTimers, id)
	}
	for _, b := range s.searches {
		b.invalidate()
	}
	s.recomputeGen++

	s.deps.Notifier.Notify(s.ID, stream.EventSessionClosed, map[string]string{"reason": reason})
}

// LastActivity returns when the session last changed. The idle sweeper
// expires sessions on it.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// View builds the full client-visible state of the session. The returned
// value shares nothing with the live session.
func (s *Session) View() models.SessionView {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.viewLocked()
}

func (s *Session) viewLocked() models.SessionView {
	stops := make([]models.Waypoint, 0, s.list.Len())
	for _, wp := range s.list.Stops() {
		stops = append(stops, cloneWaypoint(wp))
	}

	searches := make(map[models.SearchBox]models.SearchView, len(s.searches))
	for box, b := range s.searches {
		searches[box] = b.view()
	}

	var m *models.RouteMetrics
	if s.metrics != nil {
		mm := *s.metrics
		m = &mm
	}

	var seeded *string
	if s.seededRouteID != "" {
		id := s.seededRouteID
		seeded = &id
	}

	return models.SessionView{
		ID:               s.ID,
		Focus:            s.list.Focus(),
		Stops:            stops,
		ResolvedCount:    len(s.list.Resolved()),
		Computing:        s.computing,
		Metrics:          m,
		Geometry:         append([]models.LatLng(nil), s.geometry...),
		RouteWarning:     s.routeWarning,
		LookupWarning:    s.lookupWarning,
		Searches:         searches,
		CanConfirm:       s.canConfirmLocked(),
		SeededRouteID:    seeded,
		ConfirmedRouteID: cloneString(s.confirmedRouteID),
		CreatedAt:        s.createdAt,
		UpdatedAt:        s.updatedAt,
	}
}

func (s *Session) canConfirmLocked() bool {
	return s.confirmBlockerLocked() == ""
}

// seed loads a persisted route's stops into a fresh session. Stored metrics
// are not trusted: a fresh computation is kicked off for the seeded list.
func (s *Session) seed(route *routeapi.Route) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seededRouteID = route.ID
	if len(route.Stops) > 0 {
		s.list.SetStart(waypointFromRouteStop(route.Stops[0]))
	}
	if len(route.Stops) > 1 {
		s.list.SetEnd(waypointFromRouteStop(route.Stops[len(route.Stops)-1]))
	}
	if len(route.Stops) > 2 {
		for _, stop := range route.Stops[1 : len(route.Stops)-1] {
			s.list.InsertIntermediate(waypointFromRouteStop(stop), nil)
		}
	}

	s.maybeRecomputeLocked()
	s.touchLocked()
}

func (s *Session) fireReverse(localID string) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	delete(s.dragTimers, localID)

	wp := s.list.Get(localID)
	if wp == nil || !wp.HasCoordinates() {
		s.mu.Unlock()
		return
	}
	lat, lng := *wp.Latitude, *wp.Longitude
	s.mu.Unlock()

	s.resolveWaypoint(localID, lat, lng)
}

// resolveWaypoint runs a reverse-geocode lookup and applies the result only
// if the stop still sits at the coordinates that triggered it. A stop that
// was dragged again in the meantime keeps resolving under its newer timer.
func (s *Session) resolveWaypoint(localID string, lat, lng float64) {
	place, err := s.deps.Geocoder.Reverse(context.Background(), lat, lng)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	wp := s.list.Get(localID)
	if wp == nil {
		return
	}
	if wp.Latitude == nil || *wp.Latitude != lat || *wp.Longitude != lng {
		recordStaleResult("reverse")
		return
	}

	switch {
	case err == nil:
		wp.Name = place.Name
		wp.Address = place.Label
		s.lookupWarning = ""
	case errors.Is(err, geocode.ErrNotFound):
		wp.Name = fallbackName(lat, lng)
		wp.Address = ""
		s.lookupWarning = ""
	default:
		s.deps.Logger.WithError(err).WithFields(logrus.Fields{
			"session_id": s.ID,
			"local_id":   localID,
		}).Warn("Reverse geocode failed")
		wp.Name = fallbackName(lat, lng)
		s.lookupWarning = "Location lookup failed; coordinates kept"
	}
	wp.Resolving = false

	s.maybeRecomputeLocked()
	s.touchLocked()
	s.notifyLocked()
}

func (s *Session) stopDragTimerLocked(localID string) {
	if t, ok := s.dragTimers[localID]; ok {
		t.Stop()
		delete(s.dragTimers, localID)
	}
}

func (s *Session) touchLocked() {
	s.updatedAt = time.Now()
}

func (s *Session) notifyLocked() {
	s.deps.Notifier.Notify(s.ID, stream.EventSessionUpdated, s.viewLocked())
}

func waypointFromEndpoint(req models.SetEndpointRequest) *models.Waypoint {
	wp := &models.Waypoint{
		Name:         req.Name,
		Address:      req.Address,
		PersistentID: cloneString(req.PersistentID),
	}
	if req.Latitude != nil && req.Longitude != nil {
		lat, lng := *req.Latitude, *req.Longitude
		wp.Latitude = &lat
		wp.Longitude = &lng
	}
	return wp
}

func waypointFromRouteStop(stop routeapi.RouteStop) *models.Waypoint {
	lat, lng := stop.Latitude, stop.Longitude
	return &models.Waypoint{
		PersistentID: cloneString(stop.StopID),
		Name:         stop.Name,
		Address:      stop.Address,
		Latitude:     &lat,
		Longitude:    &lng,
	}
}

func waypointFromCandidate(c models.Candidate) *models.Waypoint {
	lat, lng := c.Latitude, c.Longitude
	return &models.Waypoint{
		PersistentID: cloneString(c.PersistentID),
		Name:         c.Name,
		Address:      c.Address,
		Latitude:     &lat,
		Longitude:    &lng,
	}
}

// cloneWaypoint copies a waypoint so the copy shares no pointers with the
// live list.
func cloneWaypoint(wp *models.Waypoint) models.Waypoint {
	out := *wp
	out.PersistentID = cloneString(wp.PersistentID)
	out.Latitude = cloneFloat(wp.Latitude)
	out.Longitude = cloneFloat(wp.Longitude)
	out.DistanceFromStartMeters = cloneFloat(wp.DistanceFromStartMeters)
	out.DurationFromStartSeconds = cloneFloat(wp.DurationFromStartSeconds)
	return out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

func cloneFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}

// fallbackName labels a stop whose reverse-geocode lookup returned nothing
// usable. The coordinates themselves are the only name we have.
func fallbackName(lat, lng float64) string {
	return fmt.Sprintf("%.5f, %.5f", lat, lng)
}

package editor

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/models"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/geocode"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/routeapi"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/routing"
)

var (
	_ geocode.Geocoder = (*fakeGeocoder)(nil)
	_ routing.Planner  = (*fakePlanner)(nil)
	_ routeapi.Client  = (*fakeRoutes)(nil)
	_ Catalog          = (*fakeCatalog)(nil)
	_ Notifier         = (*captureNotifier)(nil)
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func testSettings() Settings {
	return Settings{
		SearchDebounce: 10 * time.Millisecond,
		DragDebounce:   10 * time.Millisecond,
		SessionTTL:     time.Minute,
		SweepInterval:  time.Minute,
		MaxCandidates:  5,
	}
}

func newTestSession(geo *fakeGeocoder, planner *fakePlanner, routes *fakeRoutes) *Session {
	deps := Deps{Geocoder: geo, Planner: planner, Routes: routes, Logger: testLogger()}
	return newSession("sess-test", testSettings(), deps.withDefaults())
}

func endpointReq(name string, lat, lng float64) models.SetEndpointRequest {
	return models.SetEndpointRequest{Name: name, Latitude: &lat, Longitude: &lng}
}

func coordKey(lat, lng float64) string {
	return fmt.Sprintf("%.5f,%.5f", lat, lng)
}

// fakeGeocoder serves canned search and reverse results. A gate registered
// for a query or a coordinate pair makes that call block until the gate is
// closed, which lets tests decide the order in which responses land.
type fakeGeocoder struct {
	mu            sync.Mutex
	places        map[string][]geocode.Place
	searchErr     error
	searchGates   map[string]chan struct{}
	searchCalls   []string
	reversePlaces map[string]geocode.Place
	reverseErr    error
	reverseGates  map[string]chan struct{}
	reverseCalls  []string
}

func newFakeGeocoder() *fakeGeocoder {
	return &fakeGeocoder{
		places:        make(map[string][]geocode.Place),
		searchGates:   make(map[string]chan struct{}),
		reversePlaces: make(map[string]geocode.Place),
		reverseGates:  make(map[string]chan struct{}),
	}
}

func (f *fakeGeocoder) Search(_ context.Context, query string) ([]geocode.Place, error) {
	f.mu.Lock()
	f.searchCalls = append(f.searchCalls, query)
	gate := f.searchGates[query]
	err := f.searchErr
	places := append([]geocode.Place(nil), f.places[query]...)
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	return places, nil
}

func (f *fakeGeocoder) Reverse(_ context.Context, lat, lng float64) (*geocode.Place, error) {
	key := coordKey(lat, lng)
	f.mu.Lock()
	f.reverseCalls = append(f.reverseCalls, key)
	gate := f.reverseGates[key]
	err := f.reverseErr
	place, known := f.reversePlaces[key]
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if !known {
		return nil, geocode.ErrNotFound
	}
	return &place, nil
}

func (f *fakeGeocoder) addPlace(query string, places ...geocode.Place) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.places[query] = append(f.places[query], places...)
}

func (f *fakeGeocoder) addReverse(lat, lng float64, place geocode.Place) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reversePlaces[coordKey(lat, lng)] = place
}

func (f *fakeGeocoder) gateSearch(query string) chan struct{} {
	gate := make(chan struct{})
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchGates[query] = gate
	return gate
}

func (f *fakeGeocoder) gateReverse(lat, lng float64) chan struct{} {
	gate := make(chan struct{})
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reverseGates[coordKey(lat, lng)] = gate
	return gate
}

func (f *fakeGeocoder) setSearchErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.searchErr = err
}

func (f *fakeGeocoder) setReverseErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reverseErr = err
}

func (f *fakeGeocoder) searchCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.searchCalls)
}

func (f *fakeGeocoder) searchQueries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.searchCalls...)
}

func (f *fakeGeocoder) reverseCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.reverseCalls)
}

// fakePlanner records every computation request. Without a scripted result
// it synthesizes one leg per point pair from legDistance and legDuration.
type fakePlanner struct {
	mu          sync.Mutex
	calls       [][]routing.Point
	err         error
	result      *routing.Route
	resultFn    func(points []routing.Point) (*routing.Route, error)
	gate        chan struct{}
	legDistance float64
	legDuration float64
}

func newFakePlanner() *fakePlanner {
	return &fakePlanner{legDistance: 1000, legDuration: 120}
}

func (f *fakePlanner) ComputeRoute(_ context.Context, points []routing.Point) (*routing.Route, error) {
	f.mu.Lock()
	f.calls = append(f.calls, append([]routing.Point(nil), points...))
	err := f.err
	result := f.result
	resultFn := f.resultFn
	gate := f.gate
	legDist, legDur := f.legDistance, f.legDuration
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	if resultFn != nil {
		return resultFn(points)
	}
	if result != nil {
		r := *result
		return &r, nil
	}

	legs := make([]routing.Leg, 0, len(points)-1)
	for i := 1; i < len(points); i++ {
		legs = append(legs, routing.Leg{DistanceMeters: legDist, DurationSeconds: legDur})
	}
	return &routing.Route{
		DistanceMeters:  legDist * float64(len(legs)),
		DurationSeconds: legDur * float64(len(legs)),
		Legs:            legs,
		Geometry:        append([]routing.Point(nil), points...),
	}, nil
}

func (f *fakePlanner) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

func (f *fakePlanner) setResult(r *routing.Route) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.result = r
}

func (f *fakePlanner) setResultFn(fn func(points []routing.Point) (*routing.Route, error)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resultFn = fn
}

func (f *fakePlanner) setGate() chan struct{} {
	gate := make(chan struct{})
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gate = gate
	return gate
}

func (f *fakePlanner) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakePlanner) lastPoints() []routing.Point {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.calls) == 0 {
		return nil
	}
	return f.calls[len(f.calls)-1]
}

type routeUpdateCall struct {
	id      string
	payload routeapi.RoutePayload
}

// fakeRoutes plays the platform's route API. Created routes get sequential
// ids; stored routes back GetRoute for seeding tests.
type fakeRoutes struct {
	mu          sync.Mutex
	stored      map[string]*routeapi.Route
	created     []routeapi.RoutePayload
	updated     []routeUpdateCall
	getErr      error
	createErr   error
	updateErr   error
	persistGate chan struct{}
}

func newFakeRoutes() *fakeRoutes {
	return &fakeRoutes{stored: make(map[string]*routeapi.Route)}
}

func (f *fakeRoutes) CreateRoute(_ context.Context, payload routeapi.RoutePayload) (*routeapi.Route, error) {
	f.mu.Lock()
	f.created = append(f.created, payload)
	n := len(f.created)
	gate := f.persistGate
	err := f.createErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &routeapi.Route{
		ID:        fmt.Sprintf("route-%d", n),
		Name:      payload.Name,
		Price:     payload.Price,
		Distance:  payload.Distance,
		Duration:  payload.Duration,
		Stops:     payload.Stops,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (f *fakeRoutes) UpdateRoute(_ context.Context, id string, payload routeapi.RoutePayload) (*routeapi.Route, error) {
	f.mu.Lock()
	f.updated = append(f.updated, routeUpdateCall{id: id, payload: payload})
	gate := f.persistGate
	err := f.updateErr
	f.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if err != nil {
		return nil, err
	}
	now := time.Now()
	return &routeapi.Route{
		ID:        id,
		Name:      payload.Name,
		Price:     payload.Price,
		Distance:  payload.Distance,
		Duration:  payload.Duration,
		Stops:     payload.Stops,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (f *fakeRoutes) GetRoute(_ context.Context, id string) (*routeapi.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	r, ok := f.stored[id]
	if !ok {
		return nil, routeapi.ErrRouteNotFound
	}
	rr := *r
	return &rr, nil
}

func (f *fakeRoutes) store(route *routeapi.Route) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stored[route.ID] = route
}

func (f *fakeRoutes) setCreateErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createErr = err
}

func (f *fakeRoutes) setPersistGate() chan struct{} {
	gate := make(chan struct{})
	f.mu.Lock()
	defer f.mu.Unlock()
	f.persistGate = gate
	return gate
}

func (f *fakeRoutes) createdCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.created)
}

func (f *fakeRoutes) lastCreated() routeapi.RoutePayload {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.created[len(f.created)-1]
}

func (f *fakeRoutes) updatedCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.updated)
}

func (f *fakeRoutes) lastUpdated() routeUpdateCall {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.updated[len(f.updated)-1]
}

// fakeCatalog assigns persistent ids by stop name.
type fakeCatalog struct {
	mu        sync.Mutex
	matchIDs  map[string]string
	assignIDs map[string]string
	ensured   int
}

func newFakeCatalog() *fakeCatalog {
	return &fakeCatalog{matchIDs: make(map[string]string), assignIDs: make(map[string]string)}
}

func (f *fakeCatalog) Match(_ context.Context, candidates []models.Candidate) []models.Candidate {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range candidates {
		if id, ok := f.matchIDs[candidates[i].Name]; ok {
			v := id
			candidates[i].PersistentID = &v
		}
	}
	return candidates
}

func (f *fakeCatalog) EnsureStops(_ context.Context, stops []models.Waypoint) []models.Waypoint {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensured++
	for i := range stops {
		if stops[i].PersistentID != nil {
			continue
		}
		if id, ok := f.assignIDs[stops[i].Name]; ok {
			v := id
			stops[i].PersistentID = &v
		}
	}
	return stops
}

type capturedEvent struct {
	sessionID string
	eventType string
	payload   interface{}
}

// captureNotifier records every pushed event in order.
type captureNotifier struct {
	mu     sync.Mutex
	events []capturedEvent
}

func (n *captureNotifier) Notify(sessionID string, eventType string, payload interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, capturedEvent{sessionID: sessionID, eventType: eventType, payload: payload})
}

func (n *captureNotifier) typeCounts() map[string]int {
	n.mu.Lock()
	defer n.mu.Unlock()
	counts := make(map[string]int)
	for _, e := range n.events {
		counts[e.eventType]++
	}
	return counts
}

func (n *captureNotifier) lastEvent() (capturedEvent, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	if len(n.events) == 0 {
		return capturedEvent{}, false
	}
	return n.events[len(n.events)-1], true
}

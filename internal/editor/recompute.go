package editor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	otelmetric "go.opentelemetry.io/otel/metric"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/models"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/metrics"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/routing"
)

// maybeRecomputeLocked re-derives the route whenever the resolved subset of
// the stop list changed since the last derivation. Identity, order and
// coordinates all count as change. Derived metrics and geometry are cleared
// up front; with fewer than two resolved stops that no-route state is where
// it ends, otherwise a recomputation is issued and any older in-flight one
// is superseded.
func (s *Session) maybeRecomputeLocked() {
	resolved := s.list.Resolved()
	sig := resolvedSignature(resolved)
	if sig == s.lastResolvedSig {
		return
	}
	s.lastResolvedSig = sig
	s.recomputeGen++

	s.metrics = nil
	s.geometry = nil
	s.routeWarning = ""
	s.computeOK = false
	for _, wp := range s.list.Stops() {
		wp.DistanceFromStartMeters = nil
		wp.DurationFromStartSeconds = nil
	}

	if len(resolved) < 2 {
		s.computing = false
		return
	}

	ids := make([]string, len(resolved))
	points := make([]routing.Point, len(resolved))
	for i, wp := range resolved {
		ids[i] = wp.LocalID
		points[i] = routing.Point{Latitude: *wp.Latitude, Longitude: *wp.Longitude}
	}

	s.computing = true
	go s.runRecompute(s.recomputeGen, ids, points)
}

// runRecompute performs one route computation and applies it under the
// session lock, but only if its generation is still current. Any edit to
// the resolved stops since the trigger bumped the generation, so a stale
// result can never overwrite metrics derived from a newer list.
func (s *Session) runRecompute(gen uint64, ids []string, points []routing.Point) {
	started := time.Now()
	route, err := s.deps.Planner.ComputeRoute(context.Background(), points)
	elapsed := time.Since(started).Seconds()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed || gen != s.recomputeGen {
		recordStaleResult("route")
		return
	}
	s.computing = false

	status := "ok"
	if err != nil {
		status = "error"
	}
	ctx := context.Background()
	attrs := otelmetric.WithAttributes(attribute.String("status", status))
	metrics.RecomputeTotal.Add(ctx, 1, attrs)
	metrics.RecomputeDuration.Record(ctx, elapsed, attrs)

	if err != nil {
		s.computeOK = false
		s.routeWarning = routeWarning(err)
		s.deps.Logger.WithError(err).WithFields(logrus.Fields{
			"session_id": s.ID,
			"stops":      len(points),
		}).Warn("Route computation failed")
		s.touchLocked()
		s.notifyLocked()
		return
	}

	s.metrics = &models.RouteMetrics{
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
	}
	s.geometry = toLatLng(route.Geometry)

	// Cumulative per-stop figures, assigned by position in the resolved
	// list. Duplicate coordinates are legal (round trips), so position is
	// the only safe key.
	var dist, dur float64
	for i, id := range ids {
		if i > 0 && i-1 < len(route.Legs) {
			dist += route.Legs[i-1].DistanceMeters
			dur += route.Legs[i-1].DurationSeconds
		}
		if wp := s.list.Get(id); wp != nil {
			d, t := dist, dur
			wp.DistanceFromStartMeters = &d
			wp.DurationFromStartSeconds = &t
		}
	}

	s.computeOK = true
	s.routeWarning = ""
	s.touchLocked()
	s.notifyLocked()
}

// resolvedSignature fingerprints the resolved subset by identity, order and
// position on the map.
func resolvedSignature(resolved []*models.Waypoint) string {
	if len(resolved) == 0 {
		return ""
	}
	var b strings.Builder
	for _, wp := range resolved {
		fmt.Fprintf(&b, "%s@%.6f,%.6f;", wp.LocalID, *wp.Latitude, *wp.Longitude)
	}
	return b.String()
}

// routeWarning turns a computation failure into the dismissible warning
// shown next to the map. Provider-reported errors (no path between stops)
// carry their own message; transport failures get a generic one.
func routeWarning(err error) string {
	var rerr *routing.RouteError
	if errors.As(err, &rerr) && rerr.Message != "" {
		return rerr.Message
	}
	return "Route computation failed"
}

func toLatLng(points []routing.Point) []models.LatLng {
	if len(points) == 0 {
		return nil
	}
	out := make([]models.LatLng, len(points))
	for i, p := range points {
		out[i] = models.LatLng{Latitude: p.Latitude, Longitude: p.Longitude}
	}
	return out
}

func recordStaleResult(kind string) {
	metrics.StaleResultsDiscarded.Add(context.Background(), 1,
		otelmetric.WithAttributes(attribute.String("kind", kind)))
}

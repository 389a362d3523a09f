package metrics

import (
	"go.opentelemetry.io/otel/metric"
)

// Session Metrics
var (
	// SessionsActive tracks currently open editor sessions
	SessionsActive metric.Int64UpDownCounter

	// SessionsOpened counts editor sessions opened
	SessionsOpened metric.Int64Counter

	// SessionsExpired counts sessions removed by the idle sweeper
	SessionsExpired metric.Int64Counter

	// RoutesConfirmed counts routes persisted from editor sessions
	RoutesConfirmed metric.Int64Counter
)

// Geocoding Metrics
var (
	// GeocodeRequestsTotal counts forward/reverse geocode requests by kind and status
	GeocodeRequestsTotal metric.Int64Counter

	// GeocodeDuration measures geocode request duration
	GeocodeDuration metric.Float64Histogram

	// GeocodeCacheHits counts geocode cache hits
	GeocodeCacheHits metric.Int64Counter

	// GeocodeCacheMisses counts geocode cache misses
	GeocodeCacheMisses metric.Int64Counter
)

// Route Computation Metrics
var (
	// RecomputeTotal counts route recomputations by status
	RecomputeTotal metric.Int64Counter

	// RecomputeDuration measures route recomputation duration
	RecomputeDuration metric.Float64Histogram

	// StaleResultsDiscarded counts async results dropped because a newer
	// request superseded them, by kind (search, reverse, route)
	StaleResultsDiscarded metric.Int64Counter
)

// initializeInstruments creates all metric instruments
func initializeInstruments() error {
	var err error

	SessionsActive, err = Meter.Int64UpDownCounter(
		"editor.sessions.active",
		metric.WithDescription("Editor sessions currently open"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return err
	}

	SessionsOpened, err = Meter.Int64Counter(
		"editor.sessions.opened",
		metric.WithDescription("Editor sessions opened"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return err
	}

	SessionsExpired, err = Meter.Int64Counter(
		"editor.sessions.expired",
		metric.WithDescription("Editor sessions removed by the idle sweeper"),
		metric.WithUnit("{session}"),
	)
	if err != nil {
		return err
	}

	RoutesConfirmed, err = Meter.Int64Counter(
		"editor.routes.confirmed",
		metric.WithDescription("Routes persisted from editor sessions"),
		metric.WithUnit("{route}"),
	)
	if err != nil {
		return err
	}

	GeocodeRequestsTotal, err = Meter.Int64Counter(
		"editor.geocode.requests.total",
		metric.WithDescription("Geocode requests by kind and status"),
		metric.WithUnit("{request}"),
	)
	if err != nil {
		return err
	}

	GeocodeDuration, err = Meter.Float64Histogram(
		"editor.geocode.duration",
		metric.WithDescription("Geocode request duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0),
	)
	if err != nil {
		return err
	}

	GeocodeCacheHits, err = Meter.Int64Counter(
		"editor.geocode.cache.hits",
		metric.WithDescription("Geocode cache hits"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return err
	}

	GeocodeCacheMisses, err = Meter.Int64Counter(
		"editor.geocode.cache.misses",
		metric.WithDescription("Geocode cache misses"),
		metric.WithUnit("{lookup}"),
	)
	if err != nil {
		return err
	}

	RecomputeTotal, err = Meter.Int64Counter(
		"editor.route.recompute.total",
		metric.WithDescription("Route recomputations by status"),
		metric.WithUnit("{computation}"),
	)
	if err != nil {
		return err
	}

	RecomputeDuration, err = Meter.Float64Histogram(
		"editor.route.recompute.duration",
		metric.WithDescription("Route recomputation duration"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.1, 0.25, 0.5, 1.0, 2.5, 5.0, 10.0, 15.0),
	)
	if err != nil {
		return err
	}

	StaleResultsDiscarded, err = Meter.Int64Counter(
		"editor.stale_results.discarded",
		metric.WithDescription("Async results dropped because a newer request superseded them"),
		metric.WithUnit("{result}"),
	)
	if err != nil {
		return err
	}

	return nil
}

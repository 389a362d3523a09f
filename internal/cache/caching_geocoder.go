package cache

import (
	"context"
	"time"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/geocode"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/metrics"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// CachingGeocoder wraps a Geocoder with the redis cache. Provider failures
// are never cached; a lookup that fails stays retryable.
type CachingGeocoder struct {
	inner geocode.Geocoder
	cache *GeocodeCache
}

// NewCachingGeocoder creates a cache-aside decorator around a geocoder
func NewCachingGeocoder(inner geocode.Geocoder, cache *GeocodeCache) *CachingGeocoder {
	return &CachingGeocoder{
		inner: inner,
		cache: cache,
	}
}

// Search checks the cache before asking the provider
func (g *CachingGeocoder) Search(ctx context.Context, query string) ([]geocode.Place, error) {
	if places, ok := g.cache.GetSearch(ctx, query); ok {
		metrics.GeocodeCacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "search")))
		return places, nil
	}
	metrics.GeocodeCacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "search")))

	start := time.Now()
	places, err := g.inner.Search(ctx, query)
	g.record(ctx, "search", start, err)
	if err != nil {
		return nil, err
	}

	g.cache.PutSearch(ctx, query, places)
	return places, nil
}

// Reverse checks the cache before asking the provider. ErrNotFound is passed
// through uncached so a later click nearby still gets a fresh answer.
func (g *CachingGeocoder) Reverse(ctx context.Context, lat, lng float64) (*geocode.Place, error) {
	if place, ok := g.cache.GetReverse(ctx, lat, lng); ok {
		metrics.GeocodeCacheHits.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "reverse")))
		return place, nil
	}
	metrics.GeocodeCacheMisses.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", "reverse")))

	start := time.Now()
	place, err := g.inner.Reverse(ctx, lat, lng)
	g.record(ctx, "reverse", start, err)
	if err != nil {
		return nil, err
	}

	g.cache.PutReverse(ctx, lat, lng, place)
	return place, nil
}

func (g *CachingGeocoder) record(ctx context.Context, kind string, start time.Time, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	attrs := metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("status", status),
	)
	metrics.GeocodeRequestsTotal.Add(ctx, 1, attrs)
	metrics.GeocodeDuration.Record(ctx, time.Since(start).Seconds(), attrs)
}

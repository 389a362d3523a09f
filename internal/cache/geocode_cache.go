package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/geocode"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// GeocodeCache stores geocoder results in redis so repeated queries and
// nearby marker drags skip the provider. It fails open: any redis problem is
// reported as a miss and logged at debug level.
type GeocodeCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *logrus.Logger
}

// NewGeocodeCache creates a new geocode cache. A nil client disables caching
// entirely; every lookup is a miss.
func NewGeocodeCache(client *redis.Client, ttl time.Duration, logger *logrus.Logger) *GeocodeCache {
	return &GeocodeCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// searchKey normalizes a query the same way the catalog normalizes stop
// names, so "Colombo  Fort " and "colombo fort" share an entry.
func searchKey(query string) string {
	return "geocode:search:" + strings.Join(strings.Fields(strings.ToLower(query)), " ")
}

// reverseKey rounds to 5 decimal places (~1.1 m), collapsing jittery drag
// positions onto one entry.
func reverseKey(lat, lng float64) string {
	return fmt.Sprintf("geocode:reverse:%.5f,%.5f", lat, lng)
}

// GetSearch returns cached candidates for a query
func (c *GeocodeCache) GetSearch(ctx context.Context, query string) ([]geocode.Place, bool) {
	if c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, searchKey(query)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Debug("geocode cache read failed")
		}
		return nil, false
	}

	var places []geocode.Place
	if err := json.Unmarshal(data, &places); err != nil {
		c.logger.WithError(err).Debug("geocode cache entry corrupt, ignoring")
		return nil, false
	}

	return places, true
}

// PutSearch stores candidates for a query
func (c *GeocodeCache) PutSearch(ctx context.Context, query string, places []geocode.Place) {
	if c.client == nil {
		return
	}

	data, err := json.Marshal(places)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, searchKey(query), data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Debug("geocode cache write failed")
	}
}

// GetReverse returns the cached place for a coordinate
func (c *GeocodeCache) GetReverse(ctx context.Context, lat, lng float64) (*geocode.Place, bool) {
	if c.client == nil {
		return nil, false
	}

	data, err := c.client.Get(ctx, reverseKey(lat, lng)).Bytes()
	if err != nil {
		if err != redis.Nil {
			c.logger.WithError(err).Debug("geocode cache read failed")
		}
		return nil, false
	}

	var place geocode.Place
	if err := json.Unmarshal(data, &place); err != nil {
		c.logger.WithError(err).Debug("geocode cache entry corrupt, ignoring")
		return nil, false
	}

	return &place, true
}

// PutReverse stores the place for a coordinate
func (c *GeocodeCache) PutReverse(ctx context.Context, lat, lng float64, place *geocode.Place) {
	if c.client == nil || place == nil {
		return
	}

	data, err := json.Marshal(place)
	if err != nil {
		return
	}

	if err := c.client.Set(ctx, reverseKey(lat, lng), data, c.ttl).Err(); err != nil {
		c.logger.WithError(err).Debug("geocode cache write failed")
	}
}

package services

import (
	"context"

	"github.com/sirupsen/logrus"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/database"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/models"
)

// CatalogService links editor sessions to the platform's saved-stop catalog.
// Geocoder candidates are tagged with the id of an already saved stop, and
// confirmed stops are upserted back so the next route reuses them. Every
// operation is best-effort: a catalog failure never blocks editing.
type CatalogService struct {
	stops  *database.StopRepository
	logger *logrus.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(stops *database.StopRepository, logger *logrus.Logger) *CatalogService {
	return &CatalogService{
		stops:  stops,
		logger: logger,
	}
}

// Match fills PersistentID on candidates whose normalized name is already in
// the catalog. On lookup failure the candidates are returned untagged.
func (s *CatalogService) Match(ctx context.Context, candidates []models.Candidate) []models.Candidate {
	if len(candidates) == 0 {
		return candidates
	}

	names := make([]string, 0, len(candidates))
	for _, c := range candidates {
		names = append(names, models.NormalizeStopName(c.Name))
	}

	saved, err := s.stops.FindByNormalizedNames(ctx, names)
	if err != nil {
		s.logger.WithError(err).Warn("Catalog match failed, candidates left untagged")
		return candidates
	}

	byName := make(map[string]string, len(saved))
	for _, stop := range saved {
		byName[stop.NormalizedName] = stop.ID
	}

	for i := range candidates {
		if id, ok := byName[models.NormalizeStopName(candidates[i].Name)]; ok {
			stopID := id
			candidates[i].PersistentID = &stopID
		}
	}

	return candidates
}

// EnsureStops upserts confirmed stops into the catalog and returns the same
// ordered list with PersistentID filled where possible. Stops that already
// carry a catalog id are left alone so one route's edits never reposition a
// shared stop.
func (s *CatalogService) EnsureStops(ctx context.Context, stops []models.Waypoint) []models.Waypoint {
	for i := range stops {
		wp := &stops[i]
		if wp.PersistentID != nil || !wp.HasCoordinates() {
			continue
		}

		entry := &models.SavedStop{
			Name:      wp.Name,
			Latitude:  *wp.Latitude,
			Longitude: *wp.Longitude,
		}
		if wp.Address != "" {
			addr := wp.Address
			entry.Address = &addr
		}

		saved, err := s.stops.Upsert(ctx, entry)
		if err != nil {
			// Already logged by the repository; the stop is persisted on
			// the route without a catalog link.
			continue
		}

		stopID := saved.ID
		wp.PersistentID = &stopID
	}

	return stops
}

// SearchStops returns catalog stops matching a partial name, for the
// admin-side catalog lookup endpoint
func (s *CatalogService) SearchStops(ctx context.Context, text string, limit int) ([]models.SavedStop, error) {
	return s.stops.Search(ctx, text, limit)
}

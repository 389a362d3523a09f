package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/sirupsen/logrus"
)

// StopRepository handles the shared stop catalog
type StopRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewStopRepository creates a new stop repository
func NewStopRepository(db *sqlx.DB, logger *logrus.Logger) *StopRepository {
	return &StopRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID fetches a single catalog stop
func (r *StopRepository) GetByID(ctx context.Context, id string) (*models.SavedStop, error) {
	var stop models.SavedStop
	query := `
		SELECT id, name, normalized_name, address, latitude, longitude, created_at, updated_at
		FROM stops
		WHERE id = $1`

	err := r.db.GetContext(ctx, &stop, query, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get stop: %w", err)
	}

	return &stop, nil
}

// FindByNormalizedNames returns catalog stops whose normalized name matches
// any of the given keys. Used to tag geocoder candidates with the id of an
// already saved stop.
func (r *StopRepository) FindByNormalizedNames(ctx context.Context, names []string) ([]models.SavedStop, error) {
	if len(names) == 0 {
		return nil, nil
	}

	stops := []models.SavedStop{}
	query := `
		SELECT id, name, normalized_name, address, latitude, longitude, created_at, updated_at
		FROM stops
		WHERE normalized_name = ANY($1)`

	if err := r.db.SelectContext(ctx, &stops, query, pq.Array(names)); err != nil {
		return nil, fmt.Errorf("failed to find stops by name: %w", err)
	}

	return stops, nil
}

// Search returns catalog stops matching a partial name, best-known first
func (r *StopRepository) Search(ctx context.Context, text string, limit int) ([]models.SavedStop, error) {
	if limit <= 0 {
		limit = 10
	}

	stops := []models.SavedStop{}
	query := `
		SELECT id, name, normalized_name, address, latitude, longitude, created_at, updated_at
		FROM stops
		WHERE name ILIKE $1
		ORDER BY name
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &stops, query, "%"+text+"%", limit); err != nil {
		return nil, fmt.Errorf("failed to search stops: %w", err)
	}

	return stops, nil
}

// Upsert inserts a stop or refreshes an existing one with the same
// normalized name, returning the catalog row either way. Confirming a route
// funnels every unmatched waypoint through here.
func (r *StopRepository) Upsert(ctx context.Context, stop *models.SavedStop) (*models.SavedStop, error) {
	if stop.ID == "" {
		stop.ID = uuid.NewString()
	}
	if stop.NormalizedName == "" {
		stop.NormalizedName = models.NormalizeStopName(stop.Name)
	}
	now := time.Now()

	var saved models.SavedStop
	query := `
		INSERT INTO stops (id, name, normalized_name, address, latitude, longitude, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $7)
		ON CONFLICT (normalized_name) DO UPDATE
		SET address = COALESCE(EXCLUDED.address, stops.address),
		    latitude = EXCLUDED.latitude,
		    longitude = EXCLUDED.longitude,
		    updated_at = EXCLUDED.updated_at
		RETURNING id, name, normalized_name, address, latitude, longitude, created_at, updated_at`

	err := r.db.GetContext(ctx, &saved, query,
		stop.ID, stop.Name, stop.NormalizedName, stop.Address,
		stop.Latitude, stop.Longitude, now,
	)
	if err != nil {
		r.logger.WithError(err).WithField("stop_name", stop.Name).Error("Failed to upsert catalog stop")
		return nil, fmt.Errorf("failed to upsert stop: %w", err)
	}

	return &saved, nil
}

package database

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/models"
)

func setupStopRepoTest(t *testing.T) (*StopRepository, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	repo := NewStopRepository(sqlxDB, logger)

	cleanup := func() {
		db.Close()
	}

	return repo, mock, cleanup
}

func TestStopGetByID(t *testing.T) {
	repo, mock, cleanup := setupStopRepoTest(t)
	defer cleanup()

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		address := "Olcott Mawatha, Colombo 11"

		mock.ExpectQuery(`SELECT (.+) FROM stops WHERE id`).
			WithArgs("stop-123").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "name", "normalized_name", "address", "latitude", "longitude", "created_at", "updated_at",
			}).AddRow(
				"stop-123", "Colombo Fort", "colombo fort", address, 6.9344, 79.8428, now, now,
			))

		stop, err := repo.GetByID(context.Background(), "stop-123")
		require.NoError(t, err)
		require.NotNil(t, stop)
		assert.Equal(t, "Colombo Fort", stop.Name)
		assert.Equal(t, "colombo fort", stop.NormalizedName)
		require.NotNil(t, stop.Address)
		assert.Equal(t, address, *stop.Address)
		assert.Equal(t, 6.9344, stop.Latitude)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM stops WHERE id`).
			WithArgs("missing").
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "name", "normalized_name", "address", "latitude", "longitude", "created_at", "updated_at",
			}))

		stop, err := repo.GetByID(context.Background(), "missing")
		require.NoError(t, err)
		assert.Nil(t, stop)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM stops WHERE id`).
			WithArgs("stop-123").
			WillReturnError(fmt.Errorf("database error"))

		stop, err := repo.GetByID(context.Background(), "stop-123")
		assert.Error(t, err)
		assert.Nil(t, stop)
		assert.Contains(t, err.Error(), "failed to get stop")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStopFindByNormalizedNames(t *testing.T) {
	repo, mock, cleanup := setupStopRepoTest(t)
	defer cleanup()

	t.Run("Success", func(t *testing.T) {
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM stops WHERE normalized_name`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "name", "normalized_name", "address", "latitude", "longitude", "created_at", "updated_at",
			}).
				AddRow("stop-1", "Colombo Fort", "colombo fort", nil, 6.9344, 79.8428, now, now).
				AddRow("stop-2", "Kandy", "kandy", nil, 7.2906, 80.6337, now, now))

		stops, err := repo.FindByNormalizedNames(context.Background(), []string{"colombo fort", "kandy"})
		require.NoError(t, err)
		assert.Len(t, stops, 2)
		assert.Equal(t, "stop-1", stops[0].ID)
		assert.Equal(t, "stop-2", stops[1].ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Names Skips Query", func(t *testing.T) {
		stops, err := repo.FindByNormalizedNames(context.Background(), nil)
		require.NoError(t, err)
		assert.Nil(t, stops)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM stops WHERE normalized_name`).
			WithArgs(sqlmock.AnyArg()).
			WillReturnError(fmt.Errorf("database error"))

		stops, err := repo.FindByNormalizedNames(context.Background(), []string{"pettah"})
		assert.Error(t, err)
		assert.Nil(t, stops)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStopSearch(t *testing.T) {
	repo, mock, cleanup := setupStopRepoTest(t)
	defer cleanup()

	t.Run("Success", func(t *testing.T) {
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM stops WHERE name ILIKE`).
			WithArgs("%kand%", 5).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "name", "normalized_name", "address", "latitude", "longitude", "created_at", "updated_at",
			}).AddRow("stop-2", "Kandy", "kandy", nil, 7.2906, 80.6337, now, now))

		stops, err := repo.Search(context.Background(), "kand", 5)
		require.NoError(t, err)
		require.Len(t, stops, 1)
		assert.Equal(t, "Kandy", stops[0].Name)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Default Limit", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM stops WHERE name ILIKE`).
			WithArgs("%galle%", 10).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "name", "normalized_name", "address", "latitude", "longitude", "created_at", "updated_at",
			}))

		stops, err := repo.Search(context.Background(), "galle", 0)
		require.NoError(t, err)
		assert.Len(t, stops, 0)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM stops WHERE name ILIKE`).
			WithArgs("%kand%", 5).
			WillReturnError(fmt.Errorf("database error"))

		stops, err := repo.Search(context.Background(), "kand", 5)
		assert.Error(t, err)
		assert.Nil(t, stops)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestStopUpsert(t *testing.T) {
	repo, mock, cleanup := setupStopRepoTest(t)
	defer cleanup()

	t.Run("New Stop Gets ID And Normalized Name", func(t *testing.T) {
		now := time.Now()

		mock.ExpectQuery(`INSERT INTO stops`).
			WithArgs(sqlmock.AnyArg(), "Galle  Bus Stand", "galle bus stand", nil, 6.0329, 80.2168, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "name", "normalized_name", "address", "latitude", "longitude", "created_at", "updated_at",
			}).AddRow("stop-9", "Galle  Bus Stand", "galle bus stand", nil, 6.0329, 80.2168, now, now))

		saved, err := repo.Upsert(context.Background(), &models.SavedStop{
			Name:      "Galle  Bus Stand",
			Latitude:  6.0329,
			Longitude: 80.2168,
		})
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, "stop-9", saved.ID)
		assert.Equal(t, "galle bus stand", saved.NormalizedName)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Conflict Returns Existing Row", func(t *testing.T) {
		now := time.Now()
		address := "Station Road"

		mock.ExpectQuery(`INSERT INTO stops`).
			WithArgs(sqlmock.AnyArg(), "Kandy", "kandy", nil, 7.2910, 80.6340, sqlmock.AnyArg()).
			WillReturnRows(sqlmock.NewRows([]string{
				"id", "name", "normalized_name", "address", "latitude", "longitude", "created_at", "updated_at",
			}).AddRow("stop-2", "Kandy", "kandy", address, 7.2910, 80.6340, now.Add(-time.Hour), now))

		saved, err := repo.Upsert(context.Background(), &models.SavedStop{
			Name:      "Kandy",
			Latitude:  7.2910,
			Longitude: 80.6340,
		})
		require.NoError(t, err)
		require.NotNil(t, saved)
		assert.Equal(t, "stop-2", saved.ID)
		require.NotNil(t, saved.Address)
		assert.Equal(t, address, *saved.Address)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO stops`).
			WithArgs(sqlmock.AnyArg(), "Kandy", "kandy", nil, 7.2910, 80.6340, sqlmock.AnyArg()).
			WillReturnError(fmt.Errorf("database error"))

		saved, err := repo.Upsert(context.Background(), &models.SavedStop{
			Name:      "Kandy",
			Latitude:  7.2910,
			Longitude: 80.6340,
		})
		assert.Error(t, err)
		assert.Nil(t, saved)
		assert.Contains(t, err.Error(), "failed to upsert stop")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/database"
)

const testChromeUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/126.0.0.0 Safari/537.36"

func testServiceLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func setupAuditServiceTest(t *testing.T, enabled bool) (*EditorAuditService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	logger := testServiceLogger()
	service := NewEditorAuditService(database.NewEditorAuditRepository(sqlxDB, logger), logger, enabled)

	cleanup := func() {
		db.Close()
	}

	return service, mock, cleanup
}

func TestAuditLogSessionCreated(t *testing.T) {
	service, mock, cleanup := setupAuditServiceTest(t, true)
	defer cleanup()

	t.Run("Fresh Session", func(t *testing.T) {
		userID := uuid.New()

		mock.ExpectExec(`INSERT INTO editor_audit_events`).
			WithArgs(
				sqlmock.AnyArg(), userID, "sess-1", "session_created", nil,
				"203.94.77.10", testChromeUA, sqlmock.AnyArg(), sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := service.LogSessionCreated(context.Background(), &userID, "sess-1", nil, "203.94.77.10", testChromeUA)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Seeded Session Records Route", func(t *testing.T) {
		userID := uuid.New()
		routeID := "route-7"

		mock.ExpectExec(`INSERT INTO editor_audit_events`).
			WithArgs(
				sqlmock.AnyArg(), userID, "sess-2", "session_created", &routeID,
				"203.94.77.10", testChromeUA, sqlmock.AnyArg(), sqlmock.AnyArg(),
			).
			WillReturnResult(sqlmock.NewResult(1, 1))

		err := service.LogSessionCreated(context.Background(), &userID, "sess-2", &routeID, "203.94.77.10", testChromeUA)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestAuditLogRouteConfirmed(t *testing.T) {
	service, mock, cleanup := setupAuditServiceTest(t, true)
	defer cleanup()

	userID := uuid.New()

	mock.ExpectExec(`INSERT INTO editor_audit_events`).
		WithArgs(
			sqlmock.AnyArg(), userID, "sess-1", "route_confirmed", sqlmock.AnyArg(),
			"203.94.77.10", testChromeUA, sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := service.LogRouteConfirmed(context.Background(), &userID, "sess-1", "route-9", true, 4, 115000, 10800, "203.94.77.10", testChromeUA)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditLogRouteConfirmFailed(t *testing.T) {
	service, mock, cleanup := setupAuditServiceTest(t, true)
	defer cleanup()

	userID := uuid.New()

	mock.ExpectExec(`INSERT INTO editor_audit_events`).
		WithArgs(
			sqlmock.AnyArg(), userID, "sess-1", "route_confirm_failed", nil,
			"203.94.77.10", testChromeUA, sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := service.LogRouteConfirmFailed(context.Background(), &userID, "sess-1", "a stop is still resolving", "203.94.77.10", testChromeUA)
	require.NoError(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditWriteFailurePropagates(t *testing.T) {
	service, mock, cleanup := setupAuditServiceTest(t, true)
	defer cleanup()

	userID := uuid.New()

	mock.ExpectExec(`INSERT INTO editor_audit_events`).
		WillReturnError(fmt.Errorf("database error"))

	err := service.LogSessionReset(context.Background(), &userID, "sess-1", "203.94.77.10", testChromeUA)
	assert.Error(t, err)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditDisabledServiceSkipsWrites(t *testing.T) {
	service, mock, cleanup := setupAuditServiceTest(t, false)
	defer cleanup()

	userID := uuid.New()

	// No expectations registered: any query would fail the test
	require.NoError(t, service.LogSessionCreated(context.Background(), &userID, "sess-1", nil, "127.0.0.1", "Unknown"))
	require.NoError(t, service.LogSessionDiscarded(context.Background(), &userID, "sess-1", "127.0.0.1", "Unknown"))

	trail, err := service.GetSessionTrail(context.Background(), "sess-1", 10)
	require.NoError(t, err)
	assert.Empty(t, trail)

	removed, err := service.CleanupOldEvents(context.Background(), 24*time.Hour)
	require.NoError(t, err)
	assert.Zero(t, removed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditGetSessionTrail(t *testing.T) {
	service, mock, cleanup := setupAuditServiceTest(t, true)
	defer cleanup()

	userID := uuid.New()
	now := time.Now()

	mock.ExpectQuery(`SELECT (.+) FROM editor_audit_events WHERE session_id`).
		WithArgs("sess-1", 10).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "user_id", "session_id", "action", "route_id", "ip_address", "user_agent", "details", "created_at",
		}).AddRow(uuid.New().String(), userID.String(), "sess-1", "route_confirmed", "route-9", "203.94.77.10", testChromeUA, []byte(`{"stop_count":4}`), now))

	trail, err := service.GetSessionTrail(context.Background(), "sess-1", 10)
	require.NoError(t, err)
	require.Len(t, trail, 1)
	assert.Equal(t, "route_confirmed", trail[0].Action)
	assert.Equal(t, float64(4), trail[0].Details["stop_count"])

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditCleanupOldEvents(t *testing.T) {
	service, mock, cleanup := setupAuditServiceTest(t, true)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM editor_audit_events WHERE created_at`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 12))

	removed, err := service.CleanupOldEvents(context.Background(), 90*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(12), removed)

	assert.NoError(t, mock.ExpectationsWereMet())
}

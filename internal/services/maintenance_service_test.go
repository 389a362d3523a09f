package services

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaintenanceAuditCleanupJob(t *testing.T) {
	audit, mock, cleanup := setupAuditServiceTest(t, true)
	defer cleanup()

	mock.ExpectExec(`DELETE FROM editor_audit_events WHERE created_at`).
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 5))

	service := NewMaintenanceService(audit, 30*24*time.Hour, testServiceLogger())
	service.RunAuditCleanupNow()

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaintenanceStartAndStop(t *testing.T) {
	audit, _, cleanup := setupAuditServiceTest(t, false)
	defer cleanup()

	service := NewMaintenanceService(audit, 24*time.Hour, testServiceLogger())
	require.NoError(t, service.Start())
	service.Stop()
}

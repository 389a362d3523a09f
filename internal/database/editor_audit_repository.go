package database

import (
	"context"
	"fmt"
	"time"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

// EditorAuditRepository persists route-editor audit events
type EditorAuditRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewEditorAuditRepository creates a new editor audit repository
func NewEditorAuditRepository(db *sqlx.DB, logger *logrus.Logger) *EditorAuditRepository {
	return &EditorAuditRepository{
		db:     db,
		logger: logger,
	}
}

// Log creates a new audit entry
func (r *EditorAuditRepository) Log(ctx context.Context, event *models.EditorAuditEvent) error {
	if event == nil {
		return fmt.Errorf("audit event cannot be nil")
	}

	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO editor_audit_events (id, user_id, session_id, action, route_id, ip_address, user_agent, details, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.db.ExecContext(ctx, query,
		event.ID, event.UserID, event.SessionID, event.Action, event.RouteID,
		event.IPAddress, event.UserAgent, event.Details, event.CreatedAt,
	)
	if err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"action":     event.Action,
			"session_id": event.SessionID,
		}).Error("Failed to log editor audit event")
		return fmt.Errorf("failed to log audit event: %w", err)
	}

	return nil
}

// ListBySession returns the audit trail of one editor session, newest first
func (r *EditorAuditRepository) ListBySession(ctx context.Context, sessionID string, limit int) ([]models.EditorAuditEvent, error) {
	if limit <= 0 {
		limit = 50
	}

	events := []models.EditorAuditEvent{}
	query := `
		SELECT id, user_id, session_id, action, route_id, ip_address, user_agent, details, created_at
		FROM editor_audit_events
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	if err := r.db.SelectContext(ctx, &events, query, sessionID, limit); err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}

	return events, nil
}

// DeleteOlderThan removes audit events past the retention window
func (r *EditorAuditRepository) DeleteOlderThan(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)

	result, err := r.db.ExecContext(ctx, `DELETE FROM editor_audit_events WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete old audit events: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}

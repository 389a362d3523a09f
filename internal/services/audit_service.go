package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/database"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/models"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/utils"
)

// EditorAuditService records auditable route-editor actions: who confirmed,
// reset or discarded a session, from where, and on which device. Disabled
// installs are a no-op so handlers never have to branch.
type EditorAuditService struct {
	repo    *database.EditorAuditRepository
	logger  *logrus.Logger
	enabled bool
}

// NewEditorAuditService creates a new editor audit service
func NewEditorAuditService(repo *database.EditorAuditRepository, logger *logrus.Logger, enabled bool) *EditorAuditService {
	return &EditorAuditService{
		repo:    repo,
		logger:  logger,
		enabled: enabled,
	}
}

// LogSessionCreated logs the opening of an editor session
func (s *EditorAuditService) LogSessionCreated(ctx context.Context, userID *uuid.UUID, sessionID string, seededRouteID *string, ipAddress, userAgent string) error {
	details := models.JSONB{
		"seeded":      seededRouteID != nil,
		"device_info": utils.ParseUserAgent(userAgent),
	}

	return s.logEvent(ctx, models.EditorAuditEvent{
		UserID:    userID,
		SessionID: sessionID,
		Action:    "session_created",
		RouteID:   seededRouteID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details:   details,
	})
}

// LogRouteConfirmed logs a successful confirm, recording the persisted route
// and the shape of the stop list that produced it
func (s *EditorAuditService) LogRouteConfirmed(ctx context.Context, userID *uuid.UUID, sessionID, routeID string, created bool, stopCount int, distanceMeters, durationSeconds float64, ipAddress, userAgent string) error {
	details := models.JSONB{
		"created":          created,
		"stop_count":       stopCount,
		"distance_meters":  distanceMeters,
		"duration_seconds": durationSeconds,
		"device_info":      utils.ParseUserAgent(userAgent),
	}

	return s.logEvent(ctx, models.EditorAuditEvent{
		UserID:    userID,
		SessionID: sessionID,
		Action:    "route_confirmed",
		RouteID:   &routeID,
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details:   details,
	})
}

// LogRouteConfirmFailed logs a confirm attempt that was rejected or failed to
// persist
func (s *EditorAuditService) LogRouteConfirmFailed(ctx context.Context, userID *uuid.UUID, sessionID, reason, ipAddress, userAgent string) error {
	details := models.JSONB{
		"reason":      reason,
		"device_info": utils.ParseUserAgent(userAgent),
	}

	return s.logEvent(ctx, models.EditorAuditEvent{
		UserID:    userID,
		SessionID: sessionID,
		Action:    "route_confirm_failed",
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details:   details,
	})
}

// LogSessionReset logs a session being cleared back to its initial state
func (s *EditorAuditService) LogSessionReset(ctx context.Context, userID *uuid.UUID, sessionID, ipAddress, userAgent string) error {
	return s.logEvent(ctx, models.EditorAuditEvent{
		UserID:    userID,
		SessionID: sessionID,
		Action:    "session_reset",
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details: models.JSONB{
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// LogSessionDiscarded logs a session deleted without confirming
func (s *EditorAuditService) LogSessionDiscarded(ctx context.Context, userID *uuid.UUID, sessionID, ipAddress, userAgent string) error {
	return s.logEvent(ctx, models.EditorAuditEvent{
		UserID:    userID,
		SessionID: sessionID,
		Action:    "session_discarded",
		IPAddress: ipAddress,
		UserAgent: userAgent,
		Details: models.JSONB{
			"device_info": utils.ParseUserAgent(userAgent),
		},
	})
}

// GetSessionTrail returns the audit trail of one session, newest first
func (s *EditorAuditService) GetSessionTrail(ctx context.Context, sessionID string, limit int) ([]models.EditorAuditEvent, error) {
	if !s.enabled {
		return []models.EditorAuditEvent{}, nil
	}
	return s.repo.ListBySession(ctx, sessionID, limit)
}

// CleanupOldEvents removes audit events past the retention window
func (s *EditorAuditService) CleanupOldEvents(ctx context.Context, olderThan time.Duration) (int64, error) {
	if !s.enabled {
		return 0, nil
	}
	return s.repo.DeleteOlderThan(ctx, olderThan)
}

// logEvent is the internal funnel that writes to the editor_audit_events table
func (s *EditorAuditService) logEvent(ctx context.Context, event models.EditorAuditEvent) error {
	if !s.enabled {
		return nil
	}

	if err := s.repo.Log(ctx, &event); err != nil {
		s.logger.WithError(err).WithFields(logrus.Fields{
			"action":     event.Action,
			"session_id": event.SessionID,
		}).Error("Failed to record audit event")
		return err
	}

	return nil
}

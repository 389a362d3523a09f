package handlers

import (
	"log"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// logAuditError is a helper to log audit service errors without failing the request
func logAuditError(operation string, err error) {
	if err != nil {
		log.Printf("AUDIT ERROR [%s]: %v", operation, err)
	}
}

// Helper functions to log audit events with error handling

func (h *EditorHandler) safeLogSessionCreated(c *gin.Context, userID *uuid.UUID, sessionID string, seededRouteID *string, ipAddress, userAgent string) {
	if err := h.auditService.LogSessionCreated(c.Request.Context(), userID, sessionID, seededRouteID, ipAddress, userAgent); err != nil {
		logAuditError("LogSessionCreated", err)
	}
}

func (h *EditorHandler) safeLogSessionDiscarded(c *gin.Context, userID *uuid.UUID, sessionID, ipAddress, userAgent string) {
	if err := h.auditService.LogSessionDiscarded(c.Request.Context(), userID, sessionID, ipAddress, userAgent); err != nil {
		logAuditError("LogSessionDiscarded", err)
	}
}

func (h *EditorHandler) safeLogSessionReset(c *gin.Context, userID *uuid.UUID, sessionID, ipAddress, userAgent string) {
	if err := h.auditService.LogSessionReset(c.Request.Context(), userID, sessionID, ipAddress, userAgent); err != nil {
		logAuditError("LogSessionReset", err)
	}
}

func (h *EditorHandler) safeLogRouteConfirmed(c *gin.Context, userID *uuid.UUID, sessionID, routeID string, created bool, stopCount int, distanceMeters, durationSeconds float64, ipAddress, userAgent string) {
	if err := h.auditService.LogRouteConfirmed(c.Request.Context(), userID, sessionID, routeID, created, stopCount, distanceMeters, durationSeconds, ipAddress, userAgent); err != nil {
		logAuditError("LogRouteConfirmed", err)
	}
}

func (h *EditorHandler) safeLogRouteConfirmFailed(c *gin.Context, userID *uuid.UUID, sessionID, reason, ipAddress, userAgent string) {
	if err := h.auditService.LogRouteConfirmFailed(c.Request.Context(), userID, sessionID, reason, ipAddress, userAgent); err != nil {
		logAuditError("LogRouteConfirmFailed", err)
	}
}

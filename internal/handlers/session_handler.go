package handlers

import (
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/editor"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/middleware"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/models"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/services"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/internal/utils"
	"github.com/Zookegger/Bus-station-ticket-management-MERN-sub002/pkg/routeapi"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ConfirmRouteResponse is returned after a session's stop list has been
// persisted as a route.
type ConfirmRouteResponse struct {
	Message string             `json:"message"`
	Route   *routeapi.Route    `json:"route"`
	View    models.SessionView `json:"view"`
}

// StopSearchResponse lists saved stops matching a catalog query.
type StopSearchResponse struct {
	Stops []models.SavedStop `json:"stops"`
	Count int                `json:"count"`
}

// EditorHandler serves the route editor: session lifecycle, stop editing,
// search and confirmation.
type EditorHandler struct {
	manager      *editor.Manager
	catalog      *services.CatalogService
	auditService *services.EditorAuditService
	logger       *logrus.Logger
}

// NewEditorHandler creates a new editor handler
func NewEditorHandler(manager *editor.Manager, catalog *services.CatalogService, auditService *services.EditorAuditService, logger *logrus.Logger) *EditorHandler {
	return &EditorHandler{
		manager:      manager,
		catalog:      catalog,
		auditService: auditService,
		logger:       logger,
	}
}

// CreateSession opens a new editing session. With a route_id in the body the
// session is seeded from that route's saved stops; an empty body opens a
// fresh session.
// POST /api/v1/editor/sessions
func (h *EditorHandler) CreateSession(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User context not found",
		})
		return
	}

	var req models.CreateSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	session, err := h.manager.Create(c.Request.Context(), req.RouteID)
	if err != nil {
		if errors.Is(err, routeapi.ErrRouteNotFound) {
			c.JSON(http.StatusNotFound, ErrorResponse{
				Error:   "route_not_found",
				Message: "No route exists with id " + req.RouteID,
			})
			return
		}
		h.logger.WithError(err).WithField("route_id", req.RouteID).Error("Failed to open editor session")
		c.JSON(http.StatusBadGateway, ErrorResponse{
			Error:   "upstream_error",
			Message: "Failed to load the route for seeding",
		})
		return
	}

	ipAddress := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)
	var seeded *string
	if req.RouteID != "" {
		seeded = &req.RouteID
	}
	h.safeLogSessionCreated(c, &userCtx.UserID, session.ID, seeded, ipAddress, userAgent)

	c.JSON(http.StatusCreated, session.View())
}

// GetSession returns the full client-visible state of a session.
// GET /api/v1/editor/sessions/:id
func (h *EditorHandler) GetSession(c *gin.Context) {
	session := h.lookupSession(c)
	if session == nil {
		return
	}
	c.JSON(http.StatusOK, session.View())
}

// DeleteSession discards a session without persisting anything. Pending
// lookups and computations are cancelled.
// DELETE /api/v1/editor/sessions/:id
func (h *EditorHandler) DeleteSession(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User context not found",
		})
		return
	}

	sessionID := c.Param("id")
	if err := h.manager.Delete(sessionID); err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "session_not_found",
			Message: "No editor session exists with id " + sessionID,
		})
		return
	}

	h.safeLogSessionDiscarded(c, &userCtx.UserID, sessionID, utils.GetRealIP(c), utils.GetUserAgent(c))

	c.JSON(http.StatusOK, gin.H{"message": "Editor session discarded"})
}

// ResetSession clears all stops, searches and derived route state, returning
// the session to its initial awaiting-start shape.
// POST /api/v1/editor/sessions/:id/reset
func (h *EditorHandler) ResetSession(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User context not found",
		})
		return
	}

	session := h.lookupSession(c)
	if session == nil {
		return
	}

	if err := session.Reset(); err != nil {
		h.writeSessionError(c, err)
		return
	}

	h.safeLogSessionReset(c, &userCtx.UserID, session.ID, utils.GetRealIP(c), utils.GetUserAgent(c))

	c.JSON(http.StatusOK, session.View())
}

// Search feeds one text change into a search box. The geocoder is only asked
// once the text has been quiet for the configured debounce interval, so this
// endpoint is safe to call on every keystroke.
// POST /api/v1/editor/sessions/:id/search
func (h *EditorHandler) Search(c *gin.Context) {
	session := h.lookupSession(c)
	if session == nil {
		return
	}

	var req models.SearchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if err := session.SetSearchText(models.SearchBox(req.Box), req.Text); err != nil {
		h.writeSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, session.View())
}

// SelectCandidate assigns one of a box's current candidates to the slot the
// box belongs to.
// POST /api/v1/editor/sessions/:id/select
func (h *EditorHandler) SelectCandidate(c *gin.Context) {
	session := h.lookupSession(c)
	if session == nil {
		return
	}

	var req models.SelectCandidateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if err := session.SelectCandidate(models.SearchBox(req.Box), req.Index); err != nil {
		h.writeSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, session.View())
}

// MapClick assigns a clicked map location to the slot the session is
// currently waiting on: start first, then end, then intermediates.
// POST /api/v1/editor/sessions/:id/map-click
func (h *EditorHandler) MapClick(c *gin.Context) {
	session := h.lookupSession(c)
	if session == nil {
		return
	}

	var req models.MapClickRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if err := session.MapClick(*req.Latitude, *req.Longitude); err != nil {
		h.writeSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, session.View())
}

// MoveStop applies a marker drag to one stop. The stop keeps its place in
// the order but takes the new coordinates and loses its name until the
// debounced reverse lookup resolves it again.
// PUT /api/v1/editor/sessions/:id/stops/:localId/position
func (h *EditorHandler) MoveStop(c *gin.Context) {
	session := h.lookupSession(c)
	if session == nil {
		return
	}

	var req models.MoveWaypointRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if err := session.MoveWaypoint(c.Param("localId"), *req.Latitude, *req.Longitude); err != nil {
		h.writeSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, session.View())
}

// ReorderStops moves one intermediate stop to another intermediate's
// position. Drags that land on an endpoint or outside the list are ignored.
// POST /api/v1/editor/sessions/:id/stops/reorder
func (h *EditorHandler) ReorderStops(c *gin.Context) {
	session := h.lookupSession(c)
	if session == nil {
		return
	}

	var req models.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	if err := session.Reorder(req.FromLocalID, req.ToLocalID); err != nil {
		h.writeSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, session.View())
}

// RemoveStop deletes an intermediate stop. The start and end slots can only
// be replaced, never removed.
// DELETE /api/v1/editor/sessions/:id/stops/:localId
func (h *EditorHandler) RemoveStop(c *gin.Context) {
	session := h.lookupSession(c)
	if session == nil {
		return
	}

	if err := session.RemoveStop(c.Param("localId")); err != nil {
		h.writeSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, session.View())
}

// SetStart replaces the start stop. An empty body blanks the slot, leaving
// an unresolved placeholder.
// PUT /api/v1/editor/sessions/:id/start
func (h *EditorHandler) SetStart(c *gin.Context) {
	h.setEndpoint(c, true)
}

// SetEnd replaces the end stop, with the same blanking rule as SetStart.
// PUT /api/v1/editor/sessions/:id/end
func (h *EditorHandler) SetEnd(c *gin.Context) {
	h.setEndpoint(c, false)
}

func (h *EditorHandler) setEndpoint(c *gin.Context, start bool) {
	session := h.lookupSession(c)
	if session == nil {
		return
	}

	var req models.SetEndpointRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	var err error
	if start {
		err = session.SetStart(req)
	} else {
		err = session.SetEnd(req)
	}
	if err != nil {
		h.writeSessionError(c, err)
		return
	}

	c.JSON(http.StatusOK, session.View())
}

// ConfirmRoute persists the session's ordered stop list and derived metrics
// as a route on the platform. A seeded session updates its source route,
// route_id in the body overrides the target, and anything else creates a new
// route. The session stays open and editable afterwards.
// POST /api/v1/editor/sessions/:id/confirm
func (h *EditorHandler) ConfirmRoute(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User context not found",
		})
		return
	}

	session := h.lookupSession(c)
	if session == nil {
		return
	}

	var req models.ConfirmRouteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: err.Error(),
		})
		return
	}

	ipAddress := utils.GetRealIP(c)
	userAgent := utils.GetUserAgent(c)

	// Whether this confirmation creates or updates has to be read before the
	// call: a successful create stamps the view with the new route id.
	created := req.RouteID == "" && session.View().SeededRouteID == nil

	route, err := session.Confirm(c.Request.Context(), req)
	if err != nil {
		h.safeLogRouteConfirmFailed(c, &userCtx.UserID, session.ID, err.Error(), ipAddress, userAgent)

		switch {
		case errors.Is(err, editor.ErrNotConfirmable):
			c.JSON(http.StatusConflict, ErrorResponse{
				Error:   "not_confirmable",
				Message: err.Error(),
			})
		case errors.Is(err, editor.ErrSessionClosed):
			c.JSON(http.StatusGone, ErrorResponse{
				Error:   "session_closed",
				Message: "The editor session was closed",
			})
		default:
			h.logger.WithError(err).WithField("session_id", session.ID).Error("Route confirmation failed")
			c.JSON(http.StatusBadGateway, ErrorResponse{
				Error:   "persist_failed",
				Message: "Failed to persist the route",
			})
		}
		return
	}

	h.safeLogRouteConfirmed(c, &userCtx.UserID, session.ID, route.ID, created,
		len(route.Stops), route.Distance, route.Duration, ipAddress, userAgent)

	c.JSON(http.StatusOK, ConfirmRouteResponse{
		Message: "Route confirmed",
		Route:   route,
		View:    session.View(),
	})
}

// SearchSavedStops queries the saved stop catalog by name fragment. The
// editor uses it to offer known stops before asking the geocoder.
// GET /api/v1/editor/stops/search?q=fort&limit=10
func (h *EditorHandler) SearchSavedStops(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "validation_error",
			Message: "Query parameter q is required",
		})
		return
	}

	limit := 10
	if raw := c.Query("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 50 {
			c.JSON(http.StatusBadRequest, ErrorResponse{
				Error:   "validation_error",
				Message: "limit must be an integer between 1 and 50",
			})
			return
		}
		limit = parsed
	}

	stops, err := h.catalog.SearchStops(c.Request.Context(), query, limit)
	if err != nil {
		h.logger.WithError(err).Error("Saved stop search failed")
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "Failed to search saved stops",
		})
		return
	}

	c.JSON(http.StatusOK, StopSearchResponse{Stops: stops, Count: len(stops)})
}

// lookupSession resolves the :id path parameter to a live session, writing
// the 404 itself when there is none.
func (h *EditorHandler) lookupSession(c *gin.Context) *editor.Session {
	session, err := h.manager.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "session_not_found",
			Message: "No editor session exists with id " + c.Param("id"),
		})
		return nil
	}
	return session
}

// writeSessionError maps the editor's sentinel errors onto HTTP statuses.
// Every session operation shares this mapping.
func (h *EditorHandler) writeSessionError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, editor.ErrSessionClosed):
		c.JSON(http.StatusGone, ErrorResponse{
			Error:   "session_closed",
			Message: "The editor session was closed",
		})
	case errors.Is(err, editor.ErrWaypointNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error:   "waypoint_not_found",
			Message: "No stop exists with the given local id",
		})
	case errors.Is(err, editor.ErrEndpointNotRemovable):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "endpoint_not_removable",
			Message: "The start and end slots can only be replaced, not removed",
		})
	case errors.Is(err, editor.ErrEndpointsRequired):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "endpoints_required",
			Message: "Set the start and end stops before adding intermediates",
		})
	case errors.Is(err, editor.ErrNoCandidate):
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "no_candidate",
			Message: "No candidate exists at the given index",
		})
	case errors.Is(err, editor.ErrNotConfirmable):
		c.JSON(http.StatusConflict, ErrorResponse{
			Error:   "not_confirmable",
			Message: err.Error(),
		})
	default:
		h.logger.WithError(err).Error("Editor operation rejected")
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error:   "invalid_request",
			Message: err.Error(),
		})
	}
}

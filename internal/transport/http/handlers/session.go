package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/prasaddsahil07/Auth-System-Backend/internal/transport/http/middleware"
	"github.com/prasaddsahil07/Auth-System-Backend/internal/usecase"
)

// SessionHandler exposes session listing and revocation endpoints. All of
// them operate on the authenticated caller's own sessions.
type SessionHandler struct {
	sessions *usecase.SessionService
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(sessions *usecase.SessionService) *SessionHandler {
	return &SessionHandler{sessions: sessions}
}

// RegisterRoutes binds session routes. The group is expected to already
// carry RequireAuth.
func (h *SessionHandler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("", h.list)
	r.GET("/history", h.history)
	r.GET("/current", h.current)
	r.DELETE("/:session_id", h.revoke)
}

// list returns the caller's sessions. active_only=true narrows to sessions
// that can still refresh; the default includes the full login history.
func (h *SessionHandler) list(c *gin.Context) {
	userID, currentSessionID, ok := middleware.AuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	activeOnly := false
	if raw := c.Query("active_only"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, NewErrorResponse(c, "invalid active_only value"))
			return
		}
		activeOnly = parsed
	}

	sessions, err := h.sessions.ListSessions(c.Request.Context(), userID, activeOnly)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list sessions"))
		return
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, newSessionSummary(session, currentSessionID))
	}

	c.JSON(http.StatusOK, SessionListResponse{
		Sessions: summaries,
		Total:    len(summaries),
	})
}

// history returns every session the caller ever opened, revoked ones
// included, newest login first.
func (h *SessionHandler) history(c *gin.Context) {
	userID, currentSessionID, ok := middleware.AuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	sessions, err := h.sessions.ListSessions(c.Request.Context(), userID, false)
	if err != nil {
		c.JSON(http.StatusInternalServerError, NewErrorResponse(c, "failed to list sessions"))
		return
	}

	summaries := make([]SessionSummary, 0, len(sessions))
	for _, session := range sessions {
		summaries = append(summaries, newSessionSummary(session, currentSessionID))
	}

	c.JSON(http.StatusOK, SessionListResponse{
		Sessions: summaries,
		Total:    len(summaries),
	})
}

// current returns the session behind the presented access token.
func (h *SessionHandler) current(c *gin.Context) {
	userID, sessionID, ok := middleware.AuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	session, err := h.sessions.GetSession(c.Request.Context(), userID, sessionID)
	if err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrSessionNotFound, Status: http.StatusNotFound, Message: "session not found"},
			{Err: usecase.ErrSessionForbidden, Status: http.StatusForbidden, Message: "session not owned by user"},
		}, http.StatusInternalServerError, "failed to load session")
		return
	}

	c.JSON(http.StatusOK, newSessionSummary(*session, sessionID))
}

func (h *SessionHandler) revoke(c *gin.Context) {
	userID, _, ok := middleware.AuthenticatedUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, NewErrorResponse(c, "authentication required"))
		return
	}

	sessionID := c.Param("session_id")
	if err := h.sessions.RevokeSession(c.Request.Context(), userID, sessionID); err != nil {
		RespondWithMappedError(c, err, []ErrorCase{
			{Err: usecase.ErrSessionForbidden, Status: http.StatusForbidden, Message: "session not owned by user"},
		}, http.StatusInternalServerError, "failed to revoke session")
		return
	}

	c.JSON(http.StatusOK, MessageResponse{Message: "session revoked"})
}

package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"vigil/internal/core"
	"vigil/internal/storage"

	"github.com/gin-gonic/gin"
)

// SessionsHandler handles watch session requests
type SessionsHandler struct {
	storage  storage.Storage
	recorder core.HeartbeatRecorder
	logger   *slog.Logger
}

// NewSessionsHandler creates a new sessions handler
func NewSessionsHandler(storage storage.Storage, recorder core.HeartbeatRecorder, logger *slog.Logger) *SessionsHandler {
	return &SessionsHandler{
		storage:  storage,
		recorder: recorder,
		logger:   logger,
	}
}

// ListSessions returns sessions with optional filtering
// GET /sessions?profileId=&active=
func (h *SessionsHandler) ListSessions(c *gin.Context) {
	profileID := c.Query("profileId")

	var sessions []*core.WatchSession
	var err error

	if profileID != "" {
		sessions, err = h.storage.ListSessionsByProfile(c.Request.Context(), profileID)
	} else {
		sessions, err = h.storage.ListActiveSessions(c.Request.Context())
	}
	if err != nil {
		h.logger.Error("Failed to list sessions",
			"component", "api",
			"profile_id", profileID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve sessions",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	// Transform to response format
	response := make([]gin.H, 0, len(sessions))
	for _, session := range sessions {
		response = append(response, formatSessionResponse(session))
	}

	c.JSON(http.StatusOK, response)
}

// CreateSession starts a new watch session
// POST /sessions
func (h *SessionsHandler) CreateSession(c *gin.Context) {
	var req struct {
		ProfileID string `json:"profile_id" binding:"required"`
		VideoID   string `json:"video_id" binding:"required"`
		Category  string `json:"category"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"code":    "INVALID_REQUEST",
			"details": err.Error(),
		})
		return
	}

	session, err := h.recorder.StartSession(c.Request.Context(), req.ProfileID, req.VideoID, req.Category)
	if err != nil {
		if errors.Is(err, core.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Profile not found",
				"code":  "PROFILE_NOT_FOUND",
			})
			return
		}
		if errors.Is(err, core.ErrInvalidCategory) || errors.Is(err, core.ErrInvalidVideoID) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": err.Error(),
				"code":  "INVALID_REQUEST",
			})
			return
		}

		h.logger.Error("Failed to start watch session",
			"component", "api",
			"profile_id", req.ProfileID,
			"video_id", req.VideoID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to start session",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusCreated, formatSessionResponse(session))
}

// Heartbeat records one playback heartbeat against a session
// POST /sessions/:id/heartbeat
func (h *SessionsHandler) Heartbeat(c *gin.Context) {
	sessionID := c.Param("id")

	var req struct {
		ProfileID string `json:"profile_id" binding:"required"`
		VideoID   string `json:"video_id" binding:"required"`
		Category  string `json:"category"`
		Seconds   int    `json:"seconds"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"code":    "INVALID_REQUEST",
			"details": err.Error(),
		})
		return
	}

	result, err := h.recorder.RecordHeartbeat(c.Request.Context(), core.HeartbeatInput{
		ProfileID: req.ProfileID,
		SessionID: sessionID,
		VideoID:   req.VideoID,
		Category:  req.Category,
		Seconds:   req.Seconds,
	})
	if err != nil {
		switch {
		case errors.Is(err, core.ErrSessionMismatch):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Heartbeat does not match the session binding",
				"code":  "SESSION_MISMATCH",
			})
		case errors.Is(err, core.ErrSessionNotActive):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Session is not active",
				"code":  "SESSION_NOT_ACTIVE",
			})
		case errors.Is(err, core.ErrProfileNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Profile not found",
				"code":  "PROFILE_NOT_FOUND",
			})
		default:
			h.logger.Error("Failed to record heartbeat",
				"component", "api",
				"session_id", sessionID,
				"profile_id", req.ProfileID,
				"error", err,
			)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to record heartbeat",
				"code":  "INTERNAL_ERROR",
			})
		}
		return
	}

	// A closed schedule blocks playback outright
	if result.Blocked == core.BlockedOutsideSchedule {
		response := gin.H{
			"error": "Outside the allowed viewing window",
			"code":  "OUTSIDE_SCHEDULE",
		}
		if result.NextOpenAt != nil {
			response["next_open_at"] = result.NextOpenAt.Format("2006-01-02T15:04:05Z07:00")
		}
		c.JSON(http.StatusForbidden, response)
		return
	}

	response := gin.H{
		"session_id":        sessionID,
		"recorded_seconds":  result.RecordedSeconds,
		"remaining_seconds": result.RemainingSeconds,
		"unlimited":         result.Unlimited,
	}
	if result.Blocked != "" {
		response["blocked_reason"] = string(result.Blocked)
	}

	c.JSON(http.StatusOK, response)
}

// EndSession marks a session as ended
// POST /sessions/:id/end
func (h *SessionsHandler) EndSession(c *gin.Context) {
	sessionID := c.Param("id")

	var req struct {
		ProfileID string `json:"profile_id" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"code":    "INVALID_REQUEST",
			"details": err.Error(),
		})
		return
	}

	if err := h.recorder.EndSession(c.Request.Context(), req.ProfileID, sessionID); err != nil {
		switch {
		case errors.Is(err, core.ErrSessionNotFound):
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Session not found",
				"code":  "SESSION_NOT_FOUND",
			})
		case errors.Is(err, core.ErrSessionMismatch):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Session belongs to a different profile",
				"code":  "SESSION_MISMATCH",
			})
		case errors.Is(err, core.ErrSessionNotActive):
			c.JSON(http.StatusConflict, gin.H{
				"error": "Session is not active",
				"code":  "SESSION_NOT_ACTIVE",
			})
		default:
			h.logger.Error("Failed to end session",
				"component", "api",
				"session_id", sessionID,
				"profile_id", req.ProfileID,
				"error", err,
			)
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": "Failed to end session",
				"code":  "INTERNAL_ERROR",
			})
		}
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// Helper functions

func formatSessionResponse(session *core.WatchSession) gin.H {
	response := gin.H{
		"id":         session.ID,
		"profile_id": session.ProfileID,
		"video_id":   session.VideoID,
		"category":   string(session.Category),
		"status":     string(session.Status),
		"started_at": session.StartedAt.Format("2006-01-02T15:04:05Z07:00"),
	}

	if session.LastHeartbeatAt != nil {
		response["last_heartbeat_at"] = session.LastHeartbeatAt.Format("2006-01-02T15:04:05Z07:00")
	}

	if session.EndedAt != nil {
		response["ended_at"] = session.EndedAt.Format("2006-01-02T15:04:05Z07:00")
	}

	return response
}

package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"vigil/internal/core"

	"github.com/gin-gonic/gin"
)

// LimitConfigurator applies supervisor configuration changes
type LimitConfigurator interface {
	SetSimpleLimit(ctx context.Context, profileID string, minutes int) error
	SetCategoryLimit(ctx context.Context, profileID, category string, minutes int) error
	SetSchedule(ctx context.Context, profileID, start, stop string) error
	ClearSchedule(ctx context.Context, profileID string) error
	SetDayOverride(ctx context.Context, profileID string, override *core.DayOverride) error
	ClearDayOverride(ctx context.Context, profileID string, weekday time.Weekday) error
	CopyDayOverride(ctx context.Context, profileID string, from time.Weekday, to []time.Weekday) error
	GrantBonus(ctx context.Context, profileID string, minutes int) error
}

// OverrideReader loads stored weekday overrides
type OverrideReader interface {
	ListDayOverrides(ctx context.Context, profileID string) ([]*core.DayOverride, error)
}

// LimitsHandler handles limit and schedule configuration requests
type LimitsHandler struct {
	limits    LimitConfigurator
	overrides OverrideReader
	logger    *slog.Logger
}

// NewLimitsHandler creates a new limits handler
func NewLimitsHandler(limits LimitConfigurator, overrides OverrideReader, logger *slog.Logger) *LimitsHandler {
	return &LimitsHandler{
		limits:    limits,
		overrides: overrides,
		logger:    logger,
	}
}

// SetLimit sets a daily limit, switching the profile's mode if needed
// PUT /profiles/:id/limits
func (h *LimitsHandler) SetLimit(c *gin.Context) {
	profileID := c.Param("id")

	var req struct {
		Mode     string `json:"mode" binding:"required"`
		Category string `json:"category"`
		Minutes  *int   `json:"minutes" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"code":    "INVALID_REQUEST",
			"details": err.Error(),
		})
		return
	}

	var err error
	switch core.LimitMode(req.Mode) {
	case core.LimitModeSimple:
		err = h.limits.SetSimpleLimit(c.Request.Context(), profileID, *req.Minutes)
	case core.LimitModeCategory:
		err = h.limits.SetCategoryLimit(c.Request.Context(), profileID, req.Category, *req.Minutes)
	default:
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Mode must be 'simple' or 'category'",
			"code":  "INVALID_MODE",
		})
		return
	}

	if err != nil {
		h.respondLimitError(c, profileID, "Failed to set limit", err)
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// SetSchedule sets the profile's global viewing window
// PUT /profiles/:id/schedule
func (h *LimitsHandler) SetSchedule(c *gin.Context) {
	profileID := c.Param("id")

	var req struct {
		Start string `json:"start"`
		Stop  string `json:"stop"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"code":    "INVALID_REQUEST",
			"details": err.Error(),
		})
		return
	}

	if err := h.limits.SetSchedule(c.Request.Context(), profileID, req.Start, req.Stop); err != nil {
		h.respondLimitError(c, profileID, "Failed to set schedule", err)
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// ClearSchedule removes the profile's global viewing window
// DELETE /profiles/:id/schedule
func (h *LimitsHandler) ClearSchedule(c *gin.Context) {
	profileID := c.Param("id")

	if err := h.limits.ClearSchedule(c.Request.Context(), profileID); err != nil {
		h.respondLimitError(c, profileID, "Failed to clear schedule", err)
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// ListDayOverrides returns the stored weekday overrides for a profile
// GET /profiles/:id/days
func (h *LimitsHandler) ListDayOverrides(c *gin.Context) {
	profileID := c.Param("id")

	overrides, err := h.overrides.ListDayOverrides(c.Request.Context(), profileID)
	if err != nil {
		h.logger.Error("Failed to list day overrides",
			"component", "api",
			"profile_id", profileID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve day overrides",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	response := make([]gin.H, 0, len(overrides))
	for _, override := range overrides {
		response = append(response, formatOverrideResponse(override))
	}

	c.JSON(http.StatusOK, response)
}

// SetDayOverride replaces the override for one weekday
// PUT /profiles/:id/days/:weekday
func (h *LimitsHandler) SetDayOverride(c *gin.Context) {
	profileID := c.Param("id")

	weekday, err := core.ParseWeekday(c.Param("weekday"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid weekday",
			"code":  "INVALID_WEEKDAY",
		})
		return
	}

	var req struct {
		Start       *string `json:"start"`
		Stop        *string `json:"stop"`
		SimpleLimit *int    `json:"simple_limit"`
		EduLimit    *int    `json:"edu_limit"`
		FunLimit    *int    `json:"fun_limit"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"code":    "INVALID_REQUEST",
			"details": err.Error(),
		})
		return
	}

	override := &core.DayOverride{
		ProfileID:     profileID,
		Weekday:       weekday,
		ScheduleStart: req.Start,
		ScheduleStop:  req.Stop,
		SimpleLimit:   req.SimpleLimit,
		EduLimit:      req.EduLimit,
		FunLimit:      req.FunLimit,
	}

	if err := h.limits.SetDayOverride(c.Request.Context(), profileID, override); err != nil {
		h.respondLimitError(c, profileID, "Failed to set day override", err)
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// ClearDayOverride removes the override for one weekday
// DELETE /profiles/:id/days/:weekday
func (h *LimitsHandler) ClearDayOverride(c *gin.Context) {
	profileID := c.Param("id")

	weekday, err := core.ParseWeekday(c.Param("weekday"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid weekday",
			"code":  "INVALID_WEEKDAY",
		})
		return
	}

	if err := h.limits.ClearDayOverride(c.Request.Context(), profileID, weekday); err != nil {
		h.respondLimitError(c, profileID, "Failed to clear day override", err)
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// CopyDayOverride copies one weekday's override onto other weekdays
// POST /profiles/:id/days/copy
func (h *LimitsHandler) CopyDayOverride(c *gin.Context) {
	profileID := c.Param("id")

	var req struct {
		From string   `json:"from" binding:"required"`
		To   []string `json:"to" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"code":    "INVALID_REQUEST",
			"details": err.Error(),
		})
		return
	}

	from, err := core.ParseWeekday(req.From)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid weekday",
			"code":  "INVALID_WEEKDAY",
		})
		return
	}

	to := make([]time.Weekday, 0, len(req.To))
	for _, name := range req.To {
		weekday, err := core.ParseWeekday(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid weekday",
				"code":  "INVALID_WEEKDAY",
			})
			return
		}
		to = append(to, weekday)
	}

	if err := h.limits.CopyDayOverride(c.Request.Context(), profileID, from, to); err != nil {
		h.respondLimitError(c, profileID, "Failed to copy day override", err)
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// GrantBonus adds bonus minutes to today's budget
// POST /profiles/:id/bonus
func (h *LimitsHandler) GrantBonus(c *gin.Context) {
	profileID := c.Param("id")

	var req struct {
		Minutes int `json:"minutes" binding:"required"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"code":    "INVALID_REQUEST",
			"details": err.Error(),
		})
		return
	}

	if err := h.limits.GrantBonus(c.Request.Context(), profileID, req.Minutes); err != nil {
		h.respondLimitError(c, profileID, "Failed to grant bonus", err)
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

func formatOverrideResponse(override *core.DayOverride) gin.H {
	return gin.H{
		"weekday":      strings.ToLower(override.Weekday.String()),
		"start":        override.ScheduleStart,
		"stop":         override.ScheduleStop,
		"simple_limit": override.SimpleLimit,
		"edu_limit":    override.EduLimit,
		"fun_limit":    override.FunLimit,
	}
}

// respondLimitError maps configuration errors onto status codes
func (h *LimitsHandler) respondLimitError(c *gin.Context, profileID, message string, err error) {
	switch {
	case errors.Is(err, core.ErrProfileNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Profile not found",
			"code":  "PROFILE_NOT_FOUND",
		})
	case errors.Is(err, core.ErrOverrideNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Day override not found",
			"code":  "OVERRIDE_NOT_FOUND",
		})
	case errors.Is(err, core.ErrConfigConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error": err.Error(),
			"code":  "CONFIG_CONFLICT",
		})
	case errors.Is(err, core.ErrInvalidCategory),
		errors.Is(err, core.ErrInvalidLimit),
		errors.Is(err, core.ErrInvalidBonus),
		errors.Is(err, core.ErrInvalidWeekday),
		errors.Is(err, core.ErrInvalidTimeFormat):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  "INVALID_REQUEST",
		})
	default:
		h.logger.Error(message,
			"component", "api",
			"profile_id", profileID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": message,
			"code":  "INTERNAL_ERROR",
		})
	}
}

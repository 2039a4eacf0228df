package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"vigil/internal/core"
	"vigil/internal/idgen"
	"vigil/internal/storage"

	"github.com/gin-gonic/gin"
)

// ScheduleChecker evaluates a profile's viewing window
type ScheduleChecker interface {
	CheckSchedule(ctx context.Context, profile *core.Profile) (*core.ScheduleStatus, error)
}

// BudgetReporter summarizes a profile's budget pools for one day
type BudgetReporter interface {
	DailyReport(ctx context.Context, profile *core.Profile) (*core.DailyReport, error)
}

// ProfilesHandler handles profile-related requests
type ProfilesHandler struct {
	storage   storage.Storage
	schedule  ScheduleChecker
	budget    BudgetReporter
	defaultTZ string
	logger    *slog.Logger
}

// NewProfilesHandler creates a new profiles handler
func NewProfilesHandler(storage storage.Storage, schedule ScheduleChecker, budget BudgetReporter, defaultTZ string, logger *slog.Logger) *ProfilesHandler {
	return &ProfilesHandler{
		storage:   storage,
		schedule:  schedule,
		budget:    budget,
		defaultTZ: defaultTZ,
		logger:    logger,
	}
}

// ListProfiles returns all profiles
// GET /profiles
func (h *ProfilesHandler) ListProfiles(c *gin.Context) {
	profiles, err := h.storage.ListProfiles(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list profiles",
			"component", "api",
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve profiles",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	// Transform to response format
	response := make([]gin.H, 0, len(profiles))
	for _, profile := range profiles {
		response = append(response, formatProfileResponse(profile))
	}

	c.JSON(http.StatusOK, response)
}

// CreateProfile creates a new profile
// POST /profiles
func (h *ProfilesHandler) CreateProfile(c *gin.Context) {
	var req struct {
		Name     string `json:"name" binding:"required"`
		Timezone string `json:"timezone"`
		Mode     string `json:"mode"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"code":    "INVALID_REQUEST",
			"details": err.Error(),
		})
		return
	}

	mode := core.LimitMode(req.Mode)
	if req.Mode == "" {
		mode = core.LimitModeSimple
	}
	timezone := req.Timezone
	if timezone == "" {
		timezone = h.defaultTZ
	}

	profile := &core.Profile{
		ID:       idgen.NewProfile(),
		Name:     req.Name,
		Timezone: timezone,
		Mode:     mode,
	}

	if err := h.storage.CreateProfile(c.Request.Context(), profile); err != nil {
		h.logger.Error("Failed to create profile",
			"component", "api",
			"name", req.Name,
			"error", err,
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  "PROFILE_CREATE_FAILED",
		})
		return
	}

	c.JSON(http.StatusCreated, formatProfileResponse(profile))
}

// GetProfile returns a single profile by ID
// GET /profiles/:id
func (h *ProfilesHandler) GetProfile(c *gin.Context) {
	profileID := c.Param("id")

	profile, err := h.storage.GetProfile(c.Request.Context(), profileID)
	if err != nil {
		if errors.Is(err, core.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Profile not found",
				"code":  "PROFILE_NOT_FOUND",
			})
			return
		}

		h.logger.Error("Failed to get profile",
			"component", "api",
			"profile_id", profileID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve profile",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, formatProfileResponse(profile))
}

// UpdateProfile updates a profile's name or timezone. Limits and mode
// are changed through the limit endpoints.
// PATCH /profiles/:id
func (h *ProfilesHandler) UpdateProfile(c *gin.Context) {
	profileID := c.Param("id")

	var req struct {
		Name     *string `json:"name"`
		Timezone *string `json:"timezone"`
	}

	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request body",
			"code":    "INVALID_REQUEST",
			"details": err.Error(),
		})
		return
	}

	profile, err := h.storage.GetProfile(c.Request.Context(), profileID)
	if err != nil {
		if errors.Is(err, core.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Profile not found",
				"code":  "PROFILE_NOT_FOUND",
			})
			return
		}

		h.logger.Error("Failed to get profile for update",
			"component", "api",
			"profile_id", profileID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve profile",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	if req.Name != nil {
		profile.Name = *req.Name
	}
	if req.Timezone != nil {
		profile.Timezone = *req.Timezone
	}

	if err := h.storage.UpdateProfile(c.Request.Context(), profile); err != nil {
		h.logger.Error("Failed to update profile",
			"component", "api",
			"profile_id", profileID,
			"error", err,
		)
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
			"code":  "PROFILE_UPDATE_FAILED",
		})
		return
	}

	c.JSON(http.StatusOK, formatProfileResponse(profile))
}

// DeleteProfile deletes a profile and everything attached to it
// DELETE /profiles/:id
func (h *ProfilesHandler) DeleteProfile(c *gin.Context) {
	profileID := c.Param("id")

	if err := h.storage.DeleteProfile(c.Request.Context(), profileID); err != nil {
		if errors.Is(err, core.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Profile not found",
				"code":  "PROFILE_NOT_FOUND",
			})
			return
		}

		h.logger.Error("Failed to delete profile",
			"component", "api",
			"profile_id", profileID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to delete profile",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusNoContent, nil)
}

// GetStatus returns the live schedule and budget snapshot for a profile
// GET /profiles/:id/status
func (h *ProfilesHandler) GetStatus(c *gin.Context) {
	profileID := c.Param("id")

	profile, err := h.storage.GetProfile(c.Request.Context(), profileID)
	if err != nil {
		if errors.Is(err, core.ErrProfileNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "Profile not found",
				"code":  "PROFILE_NOT_FOUND",
			})
			return
		}

		h.logger.Error("Failed to get profile for status",
			"component", "api",
			"profile_id", profileID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve profile",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	sched, err := h.schedule.CheckSchedule(c.Request.Context(), profile)
	if err != nil {
		h.logger.Error("Failed to check schedule",
			"component", "api",
			"profile_id", profileID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to evaluate schedule",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	report, err := h.budget.DailyReport(c.Request.Context(), profile)
	if err != nil {
		h.logger.Error("Failed to build daily report",
			"component", "api",
			"profile_id", profileID,
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to evaluate budgets",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"profile_id":    profile.ID,
		"name":          profile.Name,
		"mode":          string(profile.Mode),
		"date":          report.Date.Format("2006-01-02"),
		"schedule":      formatScheduleStatus(sched),
		"budgets":       formatBudgets(report.Budgets),
		"total_seconds": report.TotalSeconds,
		"bonus_minutes": report.BonusMinutes,
	})
}

// Helper functions

func formatProfileResponse(profile *core.Profile) gin.H {
	return gin.H{
		"id":             profile.ID,
		"name":           profile.Name,
		"timezone":       profile.Timezone,
		"mode":           string(profile.Mode),
		"simple_limit":   profile.SimpleLimit,
		"edu_limit":      profile.EduLimit,
		"fun_limit":      profile.FunLimit,
		"schedule_start": profile.ScheduleStart,
		"schedule_stop":  profile.ScheduleStop,
		"created_at":     profile.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
		"updated_at":     profile.UpdatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

func formatScheduleStatus(status *core.ScheduleStatus) gin.H {
	response := gin.H{
		"open":  status.Open,
		"start": status.Start,
		"stop":  status.Stop,
	}
	if status.NextOpenAt != nil {
		response["next_open_at"] = status.NextOpenAt.Format("2006-01-02T15:04:05Z07:00")
	}
	return response
}

func formatBudgets(budgets []*core.BudgetStatus) []gin.H {
	response := make([]gin.H, 0, len(budgets))
	for _, budget := range budgets {
		response = append(response, gin.H{
			"category":          string(budget.Category),
			"unlimited":         budget.Unlimited,
			"limit_minutes":     budget.LimitMinutes,
			"bonus_minutes":     budget.BonusMinutes,
			"used_seconds":      budget.UsedSeconds,
			"remaining_seconds": budget.RemainingSeconds,
			"exhausted":         budget.Exhausted,
		})
	}
	return response
}

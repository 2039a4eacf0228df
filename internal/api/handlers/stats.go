package handlers

import (
	"log/slog"
	"net/http"

	"vigil/internal/core"
	"vigil/internal/storage"

	"github.com/gin-gonic/gin"
)

// StatsHandler handles statistics-related requests
type StatsHandler struct {
	storage storage.Storage
	budget  BudgetReporter
	logger  *slog.Logger
}

// NewStatsHandler creates a new stats handler
func NewStatsHandler(storage storage.Storage, budget BudgetReporter, logger *slog.Logger) *StatsHandler {
	return &StatsHandler{
		storage: storage,
		budget:  budget,
		logger:  logger,
	}
}

// GetTodayStats returns today's usage for all profiles. Each profile
// is reported in its own local day.
// GET /stats/today
func (h *StatsHandler) GetTodayStats(c *gin.Context) {
	profiles, err := h.storage.ListProfiles(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list profiles for stats",
			"component", "api",
			"error", err,
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to retrieve statistics",
			"code":  "INTERNAL_ERROR",
		})
		return
	}

	profileStats := make([]gin.H, 0, len(profiles))
	for _, profile := range profiles {
		report, err := h.budget.DailyReport(c.Request.Context(), profile)
		if err != nil {
			h.logger.Error("Failed to build daily report for stats",
				"component", "api",
				"profile_id", profile.ID,
				"error", err,
			)
			continue
		}

		profileStats = append(profileStats, gin.H{
			"profile_id":    profile.ID,
			"profile_name":  profile.Name,
			"mode":          string(report.Mode),
			"date":          report.Date.Format("2006-01-02"),
			"budgets":       formatBudgets(report.Budgets),
			"total_seconds": report.TotalSeconds,
			"bonus_minutes": report.BonusMinutes,
			"usage_percent": usagePercent(report),
		})
	}

	activeSessions, err := h.storage.ListActiveSessions(c.Request.Context())
	if err != nil {
		h.logger.Error("Failed to list active sessions for stats",
			"component", "api",
			"error", err,
		)
		// Continue without active sessions
		activeSessions = nil
	}

	c.JSON(http.StatusOK, gin.H{
		"profiles":        profileStats,
		"active_sessions": len(activeSessions),
		"total_profiles":  len(profiles),
	})
}

// usagePercent reports how much of the day's total budget is gone.
// Unlimited pools keep the percentage at zero.
func usagePercent(report *core.DailyReport) int {
	limitSeconds := 0
	for _, budget := range report.Budgets {
		if budget.Unlimited {
			return 0
		}
		limitSeconds += budget.LimitMinutes * 60
	}
	if limitSeconds == 0 {
		return 0
	}
	percent := (report.TotalSeconds * 100) / limitSeconds
	if percent > 100 {
		percent = 100
	}
	return percent
}

package api

import (
	"log/slog"
	"net/http"

	"vigil/internal/api/handlers"
	"vigil/internal/api/middleware"
	"vigil/internal/core"
	"vigil/internal/storage"

	"github.com/gin-gonic/gin"
)

// RouterConfig holds dependencies for the API router
type RouterConfig struct {
	Storage  storage.Storage
	Recorder core.HeartbeatRecorder
	Schedule *core.ScheduleService
	Budget   *core.BudgetService
	Limits   *core.LimitService
	APIKey   string
	// DefaultTimezone is stamped onto profiles created without one
	DefaultTimezone string
	Logger          *slog.Logger
}

// NewRouter creates and configures the Gin router
func NewRouter(config RouterConfig) *gin.Engine {
	// Set Gin mode based on logger
	gin.SetMode(gin.ReleaseMode)

	router := gin.New()

	// Apply global middleware. NoiseFilter sits inside Logging so its
	// verdict is in before the access log line is written.
	router.Use(middleware.RequestID())
	router.Use(middleware.Recovery(config.Logger))
	router.Use(middleware.Logging(config.Logger))
	router.Use(middleware.NoiseFilter(config.Logger))
	router.Use(middleware.PlaybackLogging(config.Logger))
	router.Use(middleware.ContentType())

	// Health check (no auth)
	healthHandler := handlers.NewHealthHandler(config.Storage)
	router.GET("/health", healthHandler.GetHealth)

	// API v1 routes (with authentication)
	v1 := router.Group("/v1")
	v1.Use(authMiddleware(config.APIKey))
	{
		// Profiles endpoints
		profilesHandler := handlers.NewProfilesHandler(
			config.Storage,
			config.Schedule,
			config.Budget,
			config.DefaultTimezone,
			config.Logger,
		)
		v1.GET("/profiles", profilesHandler.ListProfiles)
		v1.POST("/profiles", profilesHandler.CreateProfile)
		v1.GET("/profiles/:id", profilesHandler.GetProfile)
		v1.PATCH("/profiles/:id", profilesHandler.UpdateProfile)
		v1.DELETE("/profiles/:id", profilesHandler.DeleteProfile)
		v1.GET("/profiles/:id/status", profilesHandler.GetStatus)

		// Limit and schedule configuration endpoints
		limitsHandler := handlers.NewLimitsHandler(
			config.Limits,
			config.Storage,
			config.Logger,
		)
		v1.PUT("/profiles/:id/limits", limitsHandler.SetLimit)
		v1.PUT("/profiles/:id/schedule", limitsHandler.SetSchedule)
		v1.DELETE("/profiles/:id/schedule", limitsHandler.ClearSchedule)
		v1.GET("/profiles/:id/days", limitsHandler.ListDayOverrides)
		v1.PUT("/profiles/:id/days/:weekday", limitsHandler.SetDayOverride)
		v1.DELETE("/profiles/:id/days/:weekday", limitsHandler.ClearDayOverride)
		v1.POST("/profiles/:id/days/copy", limitsHandler.CopyDayOverride)
		v1.POST("/profiles/:id/bonus", limitsHandler.GrantBonus)

		// Watch sessions endpoints
		sessionsHandler := handlers.NewSessionsHandler(
			config.Storage,
			config.Recorder,
			config.Logger,
		)
		v1.GET("/sessions", sessionsHandler.ListSessions)
		v1.POST("/sessions", sessionsHandler.CreateSession)
		v1.POST("/sessions/:id/heartbeat", sessionsHandler.Heartbeat)
		v1.POST("/sessions/:id/end", sessionsHandler.EndSession)

		// Stats endpoints
		statsHandler := handlers.NewStatsHandler(
			config.Storage,
			config.Budget,
			config.Logger,
		)
		v1.GET("/stats/today", statsHandler.GetTodayStats)
	}

	return router
}

// authMiddleware verifies API key authentication
func authMiddleware(apiKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		providedKey := c.GetHeader("X-Vigil-Key")
		if providedKey != apiKey {
			c.JSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
				"code":  "UNAUTHORIZED",
			})
			c.Abort()
			return
		}
		c.Set("authenticated", true)
		c.Next()
	}
}

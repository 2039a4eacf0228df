package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vigil/config"
	"vigil/internal/api"
	"vigil/internal/core"
	"vigil/internal/logging"
	"vigil/internal/notify"
	"vigil/internal/scheduler"
	"vigil/internal/storage/sqlite"
)

const (
	shutdownTimeout   = 10 * time.Second
	defaultConfigPath = "config.json"
)

func main() {
	if err := run(); err != nil {
		log.Fatalf("Application error: %v", err)
	}
}

func run() error {
	// Parse command-line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	useEnv := flag.Bool("env", false, "Load configuration from environment variables")
	flag.Parse()

	// Load configuration
	var cfg *config.Config
	var err error

	if *useEnv {
		cfg, err = config.LoadFromEnv()
	} else {
		cfg, err = config.Load(*configPath)
	}

	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger := logging.NewLogger(logging.LoggerConfig{
		Format: cfg.Logging.Format,
		Level:  cfg.Logging.Level,
	})

	logger.Info("Starting vigil daemon",
		"db_path", cfg.Database.Path,
		"default_timezone", cfg.Watch.DefaultTimezone)

	// Initialize database
	db, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	// Limit notices go to the supervisor chat when configured
	var messenger core.Messenger = core.NopMessenger{}
	if cfg.Telegram.Enabled {
		telegram, err := notify.NewTelegram(cfg.Telegram.BotToken, cfg.Telegram.ChatID, logger)
		if err != nil {
			return fmt.Errorf("failed to create telegram messenger: %w", err)
		}
		messenger = telegram
		logger.Info("Telegram limit notices enabled", "chat_id", cfg.Telegram.ChatID)
	}

	// Wire the core services
	clock := core.RealClock{}
	scheduleService := core.NewScheduleService(db, clock, logger)
	budgetService := core.NewBudgetService(db, clock, logger)
	notificationService := core.NewNotificationService(db, messenger, logger)
	heartbeatService := core.NewHeartbeatService(db, scheduleService, budgetService, notificationService,
		core.HeartbeatLimits{
			MaxClaimSeconds: cfg.Watch.MaxClaimSeconds,
			MinGap:          cfg.Watch.MinGap(),
		}, clock, logger)
	limitService := core.NewLimitService(db, clock, logger)

	recorder := logging.NewHeartbeatRecorderLogger(heartbeatService, logger)

	// Start maintenance scheduler
	maintenance := scheduler.NewScheduler(db, scheduler.Config{
		StaleAfter:  cfg.Watch.StaleAfter(),
		LedgerDays:  cfg.Retention.LedgerDays,
		SessionDays: cfg.Retention.SessionDays,
	}, clock, logger)
	go maintenance.Start()

	// Initialize REST API
	router := api.NewRouter(api.RouterConfig{
		Storage:         db,
		Recorder:        recorder,
		Schedule:        scheduleService,
		Budget:          budgetService,
		Limits:          limitService,
		APIKey:          cfg.Security.APIKey,
		DefaultTimezone: cfg.Watch.DefaultTimezone,
		Logger:          logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in a goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server",
			"host", cfg.Server.Host,
			"port", cfg.Server.Port)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for interrupt signal or server error
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Info("Starting graceful shutdown", "signal", sig.String())

		maintenance.Stop()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}

		logger.Info("Graceful shutdown complete")
	}

	return nil
}

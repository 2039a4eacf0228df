package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"vigil/config"
	"vigil/internal/bot"
	"vigil/internal/logging"
)

const (
	defaultConfigPath = "bot-config.json"
	shutdownTimeout   = 5 * time.Second
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", defaultConfigPath, "Path to configuration file")
	flag.Parse()

	// A default logger covers errors before the configuration is loaded
	logger := logging.NewLogger(logging.LoggerConfig{})

	// Load configuration
	cfg, err := config.LoadBotConfig(*configPath)
	if err != nil {
		logger.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger = logging.NewLogger(logging.LoggerConfig{
		Format: cfg.Logging.Format,
		Level:  cfg.Logging.Level,
	})

	logger.Info("Starting vigil supervisor bot",
		"host", cfg.Server.Host,
		"port", cfg.Server.Port,
		"webhook_url", cfg.Telegram.WebhookURL,
		"vigil_url", cfg.Vigil.BaseURL,
		"allowed_users", len(cfg.Telegram.AllowedUsers),
	)

	// Create bot instance
	telegramBot, err := bot.NewBot(cfg, logger)
	if err != nil {
		logger.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}

	// Configure webhook
	if err := telegramBot.SetWebhook(); err != nil {
		logger.Error("Failed to set webhook", "error", err)
		os.Exit(1)
	}

	logger.Info("Webhook configured")

	// Create HTTP router and server
	router := bot.NewRouter(bot.RouterConfig{
		Bot:           telegramBot,
		WebhookSecret: cfg.Telegram.WebhookSecret,
		Logger:        logger,
	})

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("Starting HTTP server", "addr", server.Addr)
		serverErrors <- server.ListenAndServe()
	}()

	// Wait for shutdown signal or server error
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		logger.Error("HTTP server failed", "error", err)
		os.Exit(1)

	case sig := <-quit:
		logger.Info("Shutting down bot", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
			os.Exit(1)
		}
	}

	logger.Info("Bot stopped")
}

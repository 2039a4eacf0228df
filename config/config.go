package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
)

var (
	ErrConfigFileNotFound = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
)

// Config represents the daemon configuration
type Config struct {
	Server    ServerConfig    `json:"server" yaml:"server"`
	Database  DatabaseConfig  `json:"database" yaml:"database"`
	Security  SecurityConfig  `json:"security" yaml:"security"`
	Watch     WatchConfig     `json:"watch" yaml:"watch"`
	Retention RetentionConfig `json:"retention" yaml:"retention"`
	Telegram  TelegramConfig  `json:"telegram" yaml:"telegram"`
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Host string `json:"host" yaml:"host"`
	Port int    `json:"port" yaml:"port"`
}

// DatabaseConfig contains database settings
type DatabaseConfig struct {
	Path string `json:"path" yaml:"path"`
}

// SecurityConfig contains security settings
type SecurityConfig struct {
	APIKey string `json:"api_key" yaml:"api_key"`
}

// WatchConfig tunes heartbeat accounting and session liveness
type WatchConfig struct {
	DefaultTimezone   string `json:"default_timezone" yaml:"default_timezone"`
	MaxClaimSeconds   int    `json:"max_claim_seconds" yaml:"max_claim_seconds"`
	MinGapSeconds     int    `json:"min_gap_seconds" yaml:"min_gap_seconds"`
	StaleAfterSeconds int    `json:"stale_after_seconds" yaml:"stale_after_seconds"`
}

// RetentionConfig controls how long historical data is kept
type RetentionConfig struct {
	LedgerDays  int `json:"ledger_days" yaml:"ledger_days"`
	SessionDays int `json:"session_days" yaml:"session_days"`
}

// TelegramConfig contains limit notice delivery settings
type TelegramConfig struct {
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	BotToken string `json:"bot_token" yaml:"bot_token"`
	ChatID   int64  `json:"chat_id" yaml:"chat_id"`
}

// LoggingConfig contains log output settings
type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Format string `json:"format" yaml:"format"`
}

// MinGap returns the duplicate detection window as a duration
func (w WatchConfig) MinGap() time.Duration {
	return time.Duration(w.MinGapSeconds) * time.Second
}

// StaleAfter returns the session liveness window as a duration
func (w WatchConfig) StaleAfter() time.Duration {
	return time.Duration(w.StaleAfterSeconds) * time.Second
}

// Validate validates the configuration and fills in defaults
func (c *Config) Validate() error {
	c.applyDefaults()

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("%w: invalid server port", ErrInvalidConfig)
	}

	if c.Database.Path == "" {
		return fmt.Errorf("%w: database path is required", ErrInvalidConfig)
	}

	if c.Security.APIKey == "" {
		return fmt.Errorf("%w: API key is required", ErrInvalidConfig)
	}

	if _, err := time.LoadLocation(c.Watch.DefaultTimezone); err != nil {
		return fmt.Errorf("%w: unknown default timezone %q", ErrInvalidConfig, c.Watch.DefaultTimezone)
	}

	if c.Watch.MaxClaimSeconds <= 0 || c.Watch.MinGapSeconds < 0 || c.Watch.StaleAfterSeconds <= 0 {
		return fmt.Errorf("%w: watch settings must be positive", ErrInvalidConfig)
	}

	if c.Retention.LedgerDays <= 0 || c.Retention.SessionDays <= 0 {
		return fmt.Errorf("%w: retention days must be positive", ErrInvalidConfig)
	}

	if c.Telegram.Enabled && (c.Telegram.BotToken == "" || c.Telegram.ChatID == 0) {
		return fmt.Errorf("%w: telegram bot_token and chat_id are required when enabled", ErrInvalidConfig)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Server.Host == "" {
		c.Server.Host = "0.0.0.0"
	}
	if c.Watch.DefaultTimezone == "" {
		c.Watch.DefaultTimezone = "UTC"
	}
	if c.Watch.MaxClaimSeconds == 0 {
		c.Watch.MaxClaimSeconds = 60
	}
	if c.Watch.MinGapSeconds == 0 {
		c.Watch.MinGapSeconds = 10
	}
	if c.Watch.StaleAfterSeconds == 0 {
		c.Watch.StaleAfterSeconds = 120
	}
	if c.Retention.LedgerDays == 0 {
		c.Retention.LedgerDays = 180
	}
	if c.Retention.SessionDays == 0 {
		c.Retention.SessionDays = 90
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
}

// Load loads configuration from a JSON or YAML file, chosen by the
// file extension
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigFileNotFound
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var config Config
	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	default:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// LoadFromEnv loads configuration from environment variables
// This is useful for containerized deployments
func LoadFromEnv() (*Config, error) {
	config := &Config{
		Server: ServerConfig{
			Host: getEnv("VIGIL_HOST", "0.0.0.0"),
			Port: getEnvInt("VIGIL_PORT", 8080),
		},
		Database: DatabaseConfig{
			Path: getEnv("VIGIL_DB_PATH", "./vigil.db"),
		},
		Security: SecurityConfig{
			APIKey: getEnv("VIGIL_API_KEY", ""),
		},
		Watch: WatchConfig{
			DefaultTimezone:   getEnv("VIGIL_DEFAULT_TIMEZONE", "UTC"),
			MaxClaimSeconds:   getEnvInt("VIGIL_MAX_CLAIM_SECONDS", 60),
			MinGapSeconds:     getEnvInt("VIGIL_MIN_GAP_SECONDS", 10),
			StaleAfterSeconds: getEnvInt("VIGIL_STALE_AFTER_SECONDS", 120),
		},
		Retention: RetentionConfig{
			LedgerDays:  getEnvInt("VIGIL_LEDGER_RETENTION_DAYS", 180),
			SessionDays: getEnvInt("VIGIL_SESSION_RETENTION_DAYS", 90),
		},
		Telegram: TelegramConfig{
			Enabled:  getEnvBool("VIGIL_TELEGRAM_ENABLED", false),
			BotToken: getEnv("VIGIL_TELEGRAM_BOT_TOKEN", ""),
			ChatID:   getEnvInt64("VIGIL_TELEGRAM_CHAT_ID", 0),
		},
		Logging: LoggingConfig{
			Level:  getEnv("VIGIL_LOG_LEVEL", "info"),
			Format: getEnv("VIGIL_LOG_FORMAT", "json"),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		var intVal int
		fmt.Sscanf(value, "%d", &intVal)
		return intVal
	}
	return defaultValue
}

func getEnvInt64(key string, defaultValue int64) int64 {
	if value := os.Getenv(key); value != "" {
		var intVal int64
		fmt.Sscanf(value, "%d", &intVal)
		return intVal
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1"
	}
	return defaultValue
}

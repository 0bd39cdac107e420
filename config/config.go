// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Environment represents the application environment.
type Environment string

const (
	EnvDevelopment Environment = "development"
	EnvStaging     Environment = "staging"
	EnvProduction  Environment = "production"
)

// Config holds all application configuration.
type Config struct {
	// Application
	App AppConfig

	// PostgreSQL (settings + moderation)
	Database DatabaseConfig

	// Redis (progression store)
	Redis RedisConfig

	// HTTP server (activity intake + queries)
	HTTP HTTPConfig

	// Chat platform API
	Platform PlatformConfig

	// Progression tunables
	Leveling LevelingConfig

	// Observability
	Observability ObservabilityConfig
}

// AppConfig holds general application settings.
type AppConfig struct {
	Name            string
	Environment     Environment
	Debug           bool
	Version         string
	ShutdownTimeout time.Duration
}

// DatabaseConfig holds PostgreSQL settings.
type DatabaseConfig struct {
	URL string
}

// RedisConfig holds Redis settings.
type RedisConfig struct {
	// Enabled selects the Redis progression store; when false the service
	// runs on the in-memory reference store (development only).
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Host      string
	Port      int
	AuthToken string
}

// PlatformConfig holds chat-platform API settings.
type PlatformConfig struct {
	BaseURL string
	Token   string
}

// LevelingConfig holds progression tunables.
type LevelingConfig struct {
	// ExpPerEvent is the exp awarded per qualifying activity event.
	ExpPerEvent int
}

// ObservabilityConfig holds logging settings.
type ObservabilityConfig struct {
	LogLevel  string // debug, info, warn, error
	LogFormat string // json, text
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:            getEnv("APP_NAME", "nebula-hub"),
			Environment:     Environment(getEnv("APP_ENV", "development")),
			Debug:           getEnvBool("APP_DEBUG", false),
			Version:         getEnv("APP_VERSION", "0.1.0"),
			ShutdownTimeout: getEnvDuration("APP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Database: DatabaseConfig{
			URL: getEnv("DATABASE_URL", ""),
		},
		Redis: RedisConfig{
			Enabled:  getEnvBool("REDIS_ENABLED", true),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		HTTP: HTTPConfig{
			Host:      getEnv("HTTP_HOST", "0.0.0.0"),
			Port:      getEnvInt("HTTP_PORT", 8080),
			AuthToken: getEnv("HTTP_AUTH_TOKEN", ""),
		},
		Platform: PlatformConfig{
			BaseURL: getEnv("PLATFORM_API_URL", "https://api.nebula.chat/v1"),
			Token:   getEnv("PLATFORM_API_TOKEN", ""),
		},
		Leveling: LevelingConfig{
			ExpPerEvent: getEnvInt("LEVELING_EXP_PER_EVENT", 2),
		},
		Observability: ObservabilityConfig{
			LogLevel:  getEnv("LOG_LEVEL", "info"),
			LogFormat: getEnv("LOG_FORMAT", "json"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Validate checks required fields and value ranges.
func (c *Config) Validate() error {
	if c.Database.URL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.Platform.Token == "" {
		return errors.New("PLATFORM_API_TOKEN is required")
	}
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("HTTP_PORT out of range: %d", c.HTTP.Port)
	}
	if c.Leveling.ExpPerEvent <= 0 {
		return fmt.Errorf("LEVELING_EXP_PER_EVENT must be positive: %d", c.Leveling.ExpPerEvent)
	}
	if c.IsProduction() && c.HTTP.AuthToken == "" {
		return errors.New("HTTP_AUTH_TOKEN is required in production")
	}
	return nil
}

// IsDevelopment reports whether the app runs in development.
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == EnvDevelopment
}

// IsProduction reports whether the app runs in production.
func (c *Config) IsProduction() bool {
	return c.App.Environment == EnvProduction
}

// ══════════════════════════════════════════════════════════════════════════════
// ENV HELPERS
// ══════════════════════════════════════════════════════════════════════════════

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return fallback
	}
}

func getEnvInt(key string, fallback int) int {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return n
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return fallback
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		return fallback
	}
	return d
}

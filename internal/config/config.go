// Package config provides application configuration management.
// It loads settings from environment variables with a .env file fallback
// and validates them before the server starts.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Deployment backend selection.
const (
	DeployModeGateway = "gateway"
	DeployModeDirect  = "direct"
)

// Config holds all application configuration
type Config struct {
	// Server Configuration
	Port            string
	LogLevel        string
	ShutdownTimeout time.Duration
	Environment     string

	// Data Configuration
	DataDir string // Data directory for the SQLite deployment audit log

	// Studio Gateway Configuration
	GatewayBaseURL string        // Base endpoint, without the ?path= parameter
	GatewayTimeout time.Duration // Per-request timeout for gateway calls

	// Deployment Configuration
	DeployMode    string // "gateway" (default) or "direct"
	MaxImageBytes int64  // Upload size cap for menu images (LINE limit: 1 MB)

	// Wizard Session Configuration
	SessionTTL   time.Duration // Idle TTL before a session is swept
	SessionSweep time.Duration // Sweep interval

	// Rate Limits (Token Bucket Algorithm)
	UserRateLimitBurst        float64 // Maximum burst tokens per user (default: 10)
	UserRateLimitRefillPerSec float64 // Tokens refilled per second (default: 0.5)
	AutofixPerHour            float64 // LLM autofix calls per user per hour (default: 20)

	// LLM Configuration (optional, autofix disabled when both keys empty)
	GeminiAPIKey string
	GeminiModel  string
	GroqAPIKey   string
	GroqModel    string

	// Metrics Authentication
	MetricsUsername string // Username for /metrics endpoint Basic Auth (default: "prometheus")
	MetricsPassword string // Password for /metrics endpoint Basic Auth (empty = no auth)

	// Observability (optional)
	BetterStackToken    string
	BetterStackEndpoint string
	SentryToken         string
	SentryHost          string

	// Archive (optional, disabled when any field empty)
	R2Endpoint    string
	R2AccessKeyID string
	R2SecretKey   string
	R2Bucket      string
}

// Load reads configuration from environment variables
// It attempts to load .env file first, then reads from env vars
func Load() (*Config, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := &Config{
		Port:            getEnv(EnvPort, "10000"),
		LogLevel:        getEnv(EnvLogLevel, "info"),
		ShutdownTimeout: getDurationEnv(EnvShutdownTimeout, 30*time.Second),
		Environment:     getEnv(EnvEnvironment, "production"),

		DataDir: getEnv(EnvDataDir, getDefaultDataDir()),

		GatewayBaseURL: getEnv(EnvGatewayBaseURL, ""),
		GatewayTimeout: getDurationEnv(EnvGatewayTimeout, 30*time.Second),

		DeployMode:    getEnv(EnvDeployMode, DeployModeGateway),
		MaxImageBytes: int64(getIntEnv(EnvMaxImageBytes, 1<<20)),

		SessionTTL:   getDurationEnv(EnvSessionTTL, 2*time.Hour),
		SessionSweep: getDurationEnv(EnvSessionSweep, 10*time.Minute),

		UserRateLimitBurst:        getFloatEnv(EnvUserRateLimitBurst, 10.0),
		UserRateLimitRefillPerSec: getFloatEnv(EnvUserRateLimitRefill, 0.5),
		AutofixPerHour:            getFloatEnv(EnvAutofixPerHour, 20.0),

		GeminiAPIKey: getEnv(EnvGeminiAPIKey, ""),
		GeminiModel:  getEnv(EnvGeminiModel, ""),
		GroqAPIKey:   getEnv(EnvGroqAPIKey, ""),
		GroqModel:    getEnv(EnvGroqModel, ""),

		MetricsUsername: getEnv(EnvMetricsUsername, "prometheus"),
		MetricsPassword: getEnv(EnvMetricsPassword, ""),

		BetterStackToken:    getEnv(EnvBetterStackToken, ""),
		BetterStackEndpoint: getEnv(EnvBetterStackEndpoint, ""),
		SentryToken:         getEnv(EnvSentryToken, ""),
		SentryHost:          getEnv(EnvSentryHost, ""),

		R2Endpoint:    getEnv(EnvR2Endpoint, ""),
		R2AccessKeyID: getEnv(EnvR2AccessKeyID, ""),
		R2SecretKey:   getEnv(EnvR2SecretKey, ""),
		R2Bucket:      getEnv(EnvR2Bucket, ""),
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	var errs []error

	if c.Port == "" {
		errs = append(errs, errors.New(EnvPort+" is required"))
	}
	if c.GatewayBaseURL == "" {
		errs = append(errs, errors.New(EnvGatewayBaseURL+" is required"))
	} else if u, err := url.Parse(c.GatewayBaseURL); err != nil || u.Scheme == "" || u.Host == "" {
		errs = append(errs, fmt.Errorf("%s must be an absolute URL, got %q", EnvGatewayBaseURL, c.GatewayBaseURL))
	}
	if c.DeployMode != DeployModeGateway && c.DeployMode != DeployModeDirect {
		errs = append(errs, fmt.Errorf("%s must be %q or %q, got %q", EnvDeployMode, DeployModeGateway, DeployModeDirect, c.DeployMode))
	}
	if c.DataDir == "" {
		errs = append(errs, errors.New(EnvDataDir+" is required"))
	}
	if c.MaxImageBytes <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %d", EnvMaxImageBytes, c.MaxImageBytes))
	}
	if c.SessionTTL <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvSessionTTL, c.SessionTTL))
	}
	if c.SessionSweep <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvSessionSweep, c.SessionSweep))
	}
	if c.GatewayTimeout <= 0 {
		errs = append(errs, fmt.Errorf("%s must be positive, got %v", EnvGatewayTimeout, c.GatewayTimeout))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	return nil
}

// getEnv retrieves environment variable with fallback to default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getIntEnv retrieves integer environment variable with fallback to default value
func getIntEnv(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getDurationEnv retrieves duration environment variable with fallback to default value
func getDurationEnv(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// getFloatEnv retrieves float64 environment variable with fallback to default value
func getFloatEnv(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// getDefaultDataDir returns platform-specific default data directory
func getDefaultDataDir() string {
	if runtime.GOOS == "windows" {
		return "./data"
	}
	return "/data"
}

// SQLitePath returns the full path to the SQLite database file
func (c *Config) SQLitePath() string {
	return filepath.Join(c.DataDir, "studio.db")
}

// HasLLMProvider returns true if at least one LLM provider is configured.
func (c *Config) HasLLMProvider() bool {
	return c.GeminiAPIKey != "" || c.GroqAPIKey != ""
}

// HasArchive returns true if the R2 archive is fully configured.
func (c *Config) HasArchive() bool {
	return c.R2Endpoint != "" && c.R2AccessKeyID != "" && c.R2SecretKey != "" && c.R2Bucket != ""
}

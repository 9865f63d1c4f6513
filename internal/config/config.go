// Package config provides configuration management for the employee benefits
// server.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Default configuration values.
const (
	DefaultServerPort         = 8080
	DefaultLogLevel           = "info"
	DefaultShutdownTimeout    = 30 * time.Second
	DefaultMetricsEnabled     = true
	DefaultSimulatedLatency   = 0
	DefaultSeedData           = true
	DefaultRateLimit          = 100
	DefaultRateLimitWindow    = time.Minute
	DefaultCORSAllowedOrigins = "*"
	DotEnvFile                = ".env"
)

// Environment variable names.
const (
	EnvServerPort         = "APP_SERVER_PORT"
	EnvLogLevel           = "APP_LOG_LEVEL"
	EnvShutdownTimeout    = "APP_SHUTDOWN_TIMEOUT"
	EnvMetricsEnabled     = "APP_METRICS_ENABLED"
	EnvSimulatedLatency   = "APP_SIMULATED_LATENCY"
	EnvSeedData           = "APP_SEED_DATA"
	EnvRateLimit          = "APP_RATE_LIMIT"
	EnvRateLimitWindow    = "APP_RATE_LIMIT_WINDOW"
	EnvCORSAllowedOrigins = "APP_CORS_ALLOWED_ORIGINS"
)

// Config holds the application configuration.
type Config struct {
	// Server settings.
	ServerPort      int
	LogLevel        string
	ShutdownTimeout time.Duration
	MetricsEnabled  bool

	// SimulatedLatency is the artificial delay applied to every employee
	// operation. Zero disables it.
	SimulatedLatency time.Duration

	// SeedData loads the demonstration employees at startup.
	SeedData bool

	// RateLimit is the number of requests allowed per client IP within
	// RateLimitWindow. Zero disables rate limiting.
	RateLimit       int
	RateLimitWindow time.Duration

	// CORSAllowedOrigins lists allowed origins; "*" allows any.
	CORSAllowedOrigins []string
}

// Validation errors.
var (
	ErrInvalidServerPort       = errors.New("server port must be between 1 and 65535")
	ErrInvalidLogLevel         = errors.New("log level must be one of: debug, info, warn, error")
	ErrInvalidShutdownTimeout  = errors.New("shutdown timeout must be positive")
	ErrInvalidSimulatedLatency = errors.New("simulated latency must not be negative")
	ErrInvalidRateLimit        = errors.New("rate limit must not be negative")
	ErrInvalidRateLimitWindow  = errors.New("rate limit window must be positive when rate limiting is enabled")
	ErrNoCORSOrigins           = errors.New("at least one CORS origin must be allowed")
)

// Load reads configuration from environment variables with defaults.
// Variables from a .env file in the working directory are loaded first;
// variables already set in the environment take priority over it.
func Load() (*Config, error) {
	if err := loadDotEnv(DotEnvFile); err != nil {
		return nil, err
	}

	cfg := &Config{
		ServerPort:         DefaultServerPort,
		LogLevel:           DefaultLogLevel,
		ShutdownTimeout:    DefaultShutdownTimeout,
		MetricsEnabled:     DefaultMetricsEnabled,
		SimulatedLatency:   DefaultSimulatedLatency,
		SeedData:           DefaultSeedData,
		RateLimit:          DefaultRateLimit,
		RateLimitWindow:    DefaultRateLimitWindow,
		CORSAllowedOrigins: splitList(DefaultCORSAllowedOrigins),
	}

	if err := cfg.loadFromEnv(); err != nil {
		return nil, fmt.Errorf("loading config from environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads variables from path. A missing file is not an error.
func loadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// loadFromEnv loads configuration values from environment variables.
func (c *Config) loadFromEnv() error {
	if err := c.loadServerEnv(); err != nil {
		return err
	}

	if err := c.loadBehaviorEnv(); err != nil {
		return err
	}

	return nil
}

// loadServerEnv loads server-related environment variables.
func (c *Config) loadServerEnv() error {
	if val := os.Getenv(EnvServerPort); val != "" {
		port, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvServerPort, err)
		}
		c.ServerPort = port
	}

	if val := os.Getenv(EnvLogLevel); val != "" {
		c.LogLevel = val
	}

	if val := os.Getenv(EnvShutdownTimeout); val != "" {
		timeout, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvShutdownTimeout, err)
		}
		c.ShutdownTimeout = timeout
	}

	if val := os.Getenv(EnvMetricsEnabled); val != "" {
		enabled, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvMetricsEnabled, err)
		}
		c.MetricsEnabled = enabled
	}

	if val := os.Getenv(EnvCORSAllowedOrigins); val != "" {
		c.CORSAllowedOrigins = splitList(val)
	}

	return nil
}

// loadBehaviorEnv loads latency, seeding and rate limiting variables.
func (c *Config) loadBehaviorEnv() error {
	if val := os.Getenv(EnvSimulatedLatency); val != "" {
		latency, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvSimulatedLatency, err)
		}
		c.SimulatedLatency = latency
	}

	if val := os.Getenv(EnvSeedData); val != "" {
		seed, err := strconv.ParseBool(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvSeedData, err)
		}
		c.SeedData = seed
	}

	if val := os.Getenv(EnvRateLimit); val != "" {
		limit, err := strconv.Atoi(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvRateLimit, err)
		}
		c.RateLimit = limit
	}

	if val := os.Getenv(EnvRateLimitWindow); val != "" {
		window, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("parsing %s: %w", EnvRateLimitWindow, err)
		}
		c.RateLimitWindow = window
	}

	return nil
}

// Validate checks if the configuration values are valid.
func (c *Config) Validate() error {
	if err := c.validateServer(); err != nil {
		return err
	}

	if err := c.validateBehavior(); err != nil {
		return err
	}

	return nil
}

// validateServer validates server-related configuration.
func (c *Config) validateServer() error {
	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return ErrInvalidServerPort
	}

	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[c.LogLevel] {
		return ErrInvalidLogLevel
	}

	if c.ShutdownTimeout <= 0 {
		return ErrInvalidShutdownTimeout
	}

	if len(c.CORSAllowedOrigins) == 0 {
		return ErrNoCORSOrigins
	}

	return nil
}

// validateBehavior validates latency and rate limiting configuration.
func (c *Config) validateBehavior() error {
	if c.SimulatedLatency < 0 {
		return ErrInvalidSimulatedLatency
	}

	if c.RateLimit < 0 {
		return ErrInvalidRateLimit
	}

	if c.RateLimit > 0 && c.RateLimitWindow <= 0 {
		return ErrInvalidRateLimitWindow
	}

	return nil
}

// Address returns the server address in host:port format.
func (c *Config) Address() string {
	return fmt.Sprintf(":%d", c.ServerPort)
}

// splitList splits a comma-separated list, dropping empty entries.
func splitList(val string) []string {
	var out []string
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Package config handles application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/zapponejosh/lesson-designer/internal/calendar"
)

// Config holds all application configuration.
// Fields are populated from environment variables.
type Config struct {
	// Server settings
	Port            int           `env:"PORT" envDefault:"8080"`
	Env             string        `env:"ENV" envDefault:"development"` // development, staging, production
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Database holding the curated dataset
	DatabasePath string `env:"DATABASE_PATH" envDefault:"./data/lessons.db"`
	// Reload the dataset when the database file changes
	DatasetWatch bool `env:"DATASET_WATCH" envDefault:"true"`

	// Authentication for admin endpoints
	AdminAPIKey string `env:"ADMIN_API_KEY"`

	// Logging
	LogLevel  string `env:"LOG_LEVEL" envDefault:"info"`  // debug, info, warn, error
	LogFormat string `env:"LOG_FORMAT" envDefault:"text"` // json, text

	// Calendar correlation
	WindowDays    int `env:"WINDOW_DAYS" envDefault:"21"`
	MaxWindowDays int `env:"MAX_WINDOW_DAYS" envDefault:"180"`
	MinCivilYear  int `env:"MIN_CIVIL_YEAR" envDefault:"1900"`
	MaxCivilYear  int `env:"MAX_CIVIL_YEAR" envDefault:"2100"`
}

// Environment constants
const (
	EnvDevelopment = "development"
	EnvStaging     = "staging"
	EnvProduction  = "production"
)

// Load reads configuration from environment variables.
// In development, it first loads from .env file if present.
func Load() (*Config, error) {
	// Missing .env is fine; production sets variables directly.
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Validate checks that all required configuration is present and valid.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("PORT must be between 1 and 65535, got %d", c.Port))
	}

	switch c.Env {
	case EnvDevelopment, EnvStaging, EnvProduction:
	default:
		errs = append(errs, fmt.Errorf("ENV must be one of: development, staging, production; got %q", c.Env))
	}

	if c.DatabasePath == "" {
		errs = append(errs, errors.New("DATABASE_PATH is required"))
	}

	if c.Env == EnvProduction && c.AdminAPIKey == "" {
		errs = append(errs, errors.New("ADMIN_API_KEY is required in production"))
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Errorf("LOG_LEVEL must be one of: debug, info, warn, error; got %q", c.LogLevel))
	}

	switch c.LogFormat {
	case "json", "text":
	default:
		errs = append(errs, fmt.Errorf("LOG_FORMAT must be one of: json, text; got %q", c.LogFormat))
	}

	if c.MaxWindowDays < 0 {
		errs = append(errs, fmt.Errorf("MAX_WINDOW_DAYS must not be negative, got %d", c.MaxWindowDays))
	}
	if c.WindowDays < 0 || c.WindowDays > c.MaxWindowDays {
		errs = append(errs, fmt.Errorf("WINDOW_DAYS must be between 0 and MAX_WINDOW_DAYS (%d), got %d", c.MaxWindowDays, c.WindowDays))
	}

	if c.MinCivilYear > c.MaxCivilYear {
		errs = append(errs, fmt.Errorf("MIN_CIVIL_YEAR (%d) must not exceed MAX_CIVIL_YEAR (%d)", c.MinCivilYear, c.MaxCivilYear))
	}
	// Hebrew year arithmetic is only checked within this span.
	if c.MinCivilYear < 1 || c.MaxCivilYear > 9999 {
		errs = append(errs, fmt.Errorf("civil year range must lie within 1-9999, got %d-%d", c.MinCivilYear, c.MaxCivilYear))
	}

	if c.ShutdownTimeout <= 0 {
		errs = append(errs, fmt.Errorf("SHUTDOWN_TIMEOUT must be positive, got %s", c.ShutdownTimeout))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// YearRange returns the supported civil year range.
func (c *Config) YearRange() calendar.YearRange {
	return calendar.YearRange{Min: c.MinCivilYear, Max: c.MaxCivilYear}
}

// IsDevelopment returns true if running in development mode.
func (c *Config) IsDevelopment() bool {
	return c.Env == EnvDevelopment
}

// IsProduction returns true if running in production mode.
func (c *Config) IsProduction() bool {
	return c.Env == EnvProduction
}

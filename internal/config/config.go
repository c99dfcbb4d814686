// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package config loads the service configuration from environment variables.
package config

import (
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/robfig/cron/v3"
)

// Config holds the application configuration loaded from environment variables.
type Config struct {
	DBDriver   string `env:"OCMS_NAV_DB_DRIVER" envDefault:"sqlite"`
	DBPath     string `env:"OCMS_NAV_DB_PATH" envDefault:"./data/ocms-nav.db"`
	DBDSN      string `env:"OCMS_NAV_DB_DSN"` // Required for mysql
	ServerHost string `env:"OCMS_NAV_SERVER_HOST" envDefault:"localhost"`
	ServerPort int    `env:"OCMS_NAV_SERVER_PORT" envDefault:"8080"`
	Env        string `env:"OCMS_NAV_ENV" envDefault:"development"`
	LogLevel   string `env:"OCMS_NAV_LOG_LEVEL" envDefault:"info"`

	// Cache configuration
	RedisURL     string `env:"OCMS_NAV_REDIS_URL"`                           // Optional Redis URL for shared caching
	CachePrefix  string `env:"OCMS_NAV_CACHE_PREFIX" envDefault:"ocms-nav:"` // Redis key prefix
	CacheTTL     int    `env:"OCMS_NAV_CACHE_TTL" envDefault:"3600"`         // Cache TTL in seconds
	CacheMaxSize int    `env:"OCMS_NAV_CACHE_MAX_SIZE" envDefault:"1000"`    // Max memory cache entries

	// API rate limiting per client IP
	RateLimit float64 `env:"OCMS_NAV_RATE_LIMIT" envDefault:"10"` // Requests per second, 0 disables
	RateBurst int     `env:"OCMS_NAV_RATE_BURST" envDefault:"20"`

	// Snapshots of the link collection written on a cron schedule
	SnapshotSchedule string `env:"OCMS_NAV_SNAPSHOT_SCHEDULE"` // Empty disables snapshots
	SnapshotDir      string `env:"OCMS_NAV_SNAPSHOT_DIR" envDefault:"./data/snapshots"`
	SnapshotKeep     int    `env:"OCMS_NAV_SNAPSHOT_KEEP" envDefault:"30"`

	// Change notifications posted to external endpoints
	WebhookURLs     []string      `env:"OCMS_NAV_WEBHOOK_URLS" envSeparator:","`
	WebhookSecret   string        `env:"OCMS_NAV_WEBHOOK_SECRET"` // HMAC key for X-Webhook-Signature
	WebhookDebounce time.Duration `env:"OCMS_NAV_WEBHOOK_DEBOUNCE" envDefault:"1s"`

	EventRetention  time.Duration `env:"OCMS_NAV_EVENT_RETENTION" envDefault:"720h"`
	ShutdownTimeout time.Duration `env:"OCMS_NAV_SHUTDOWN_TIMEOUT" envDefault:"10s"`

	// Seeding configuration
	DoSeed bool `env:"OCMS_NAV_DO_SEED" envDefault:"false"` // Write default links to an empty database
}

// IsDevelopment returns true if the application is running in development mode.
func (c Config) IsDevelopment() bool {
	return c.Env == "development"
}

// WebhooksEnabled returns true if change notifications are configured.
func (c Config) WebhooksEnabled() bool {
	return len(c.WebhookURLs) > 0
}

// ServerAddr returns the full server address in host:port format.
func (c Config) ServerAddr() string {
	return fmt.Sprintf("%s:%d", c.ServerHost, c.ServerPort)
}

// UseRedisCache returns true if Redis caching is configured.
func (c Config) UseRedisCache() bool {
	return c.RedisURL != ""
}

// SnapshotsEnabled returns true if periodic snapshots are configured.
func (c Config) SnapshotsEnabled() bool {
	return c.SnapshotSchedule != ""
}

// DataSource returns the DSN passed to the database driver.
func (c Config) DataSource() string {
	if c.DBDriver == "mysql" {
		return c.DBDSN
	}
	return c.DBPath
}

// CacheTTLDuration returns the cache TTL as a duration.
func (c Config) CacheTTLDuration() time.Duration {
	return time.Duration(c.CacheTTL) * time.Second
}

// SlogLevel maps LogLevel to a slog level.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// cronParser accepts standard five-field expressions and descriptors like @daily.
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

// Load parses environment variables and returns a validated Config.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks settings that env tags cannot express.
func (c *Config) Validate() error {
	switch c.DBDriver {
	case "sqlite":
		if c.DBPath == "" {
			return fmt.Errorf("OCMS_NAV_DB_PATH is required for the sqlite driver")
		}
	case "mysql":
		if c.DBDSN == "" {
			return fmt.Errorf("OCMS_NAV_DB_DSN is required for the mysql driver")
		}
	default:
		return fmt.Errorf("OCMS_NAV_DB_DRIVER must be sqlite or mysql, got %q", c.DBDriver)
	}

	if c.ServerPort < 1 || c.ServerPort > 65535 {
		return fmt.Errorf("OCMS_NAV_SERVER_PORT must be between 1 and 65535, got %d", c.ServerPort)
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("OCMS_NAV_LOG_LEVEL must be debug, info, warn or error, got %q", c.LogLevel)
	}

	if c.CacheTTL <= 0 {
		return fmt.Errorf("OCMS_NAV_CACHE_TTL must be positive, got %d", c.CacheTTL)
	}
	if c.RateLimit < 0 {
		return fmt.Errorf("OCMS_NAV_RATE_LIMIT must not be negative, got %v", c.RateLimit)
	}
	if c.RateLimit > 0 && c.RateBurst < 1 {
		return fmt.Errorf("OCMS_NAV_RATE_BURST must be at least 1 when rate limiting is enabled")
	}

	if c.SnapshotsEnabled() {
		if _, err := cronParser.Parse(c.SnapshotSchedule); err != nil {
			return fmt.Errorf("OCMS_NAV_SNAPSHOT_SCHEDULE is not a valid cron expression: %w", err)
		}
		if c.SnapshotDir == "" {
			return fmt.Errorf("OCMS_NAV_SNAPSHOT_DIR is required when snapshots are enabled")
		}
	}

	for _, raw := range c.WebhookURLs {
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("OCMS_NAV_WEBHOOK_URLS contains an invalid URL %q", raw)
		}
	}
	if c.WebhookDebounce < 0 {
		return fmt.Errorf("OCMS_NAV_WEBHOOK_DEBOUNCE must not be negative, got %v", c.WebhookDebounce)
	}

	return nil
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package cache

import (
	"log/slog"
	"net/url"
	"time"
)

// Config holds configuration for cache creation.
type Config struct {
	// RedisURL selects the Redis backend when set.
	RedisURL string

	// Prefix is the key prefix for Redis.
	Prefix string

	DefaultTTL      time.Duration
	MaxSize         int // memory backend only
	CleanupInterval time.Duration

	// FallbackToMemory uses the memory backend when Redis is unreachable.
	FallbackToMemory bool
}

// Info describes the backend New selected.
type Info struct {
	Backend    string
	IsFallback bool
}

// New creates a cache from cfg. With a RedisURL it connects to Redis and,
// if that fails and FallbackToMemory is set, returns a memory cache instead.
func New(cfg Config) (Cacher, Info, error) {
	if cfg.RedisURL != "" {
		opts := DefaultRedisCacheOptions()
		opts.URL = cfg.RedisURL
		if cfg.Prefix != "" {
			opts.Prefix = cfg.Prefix
		}
		if cfg.DefaultTTL > 0 {
			opts.DefaultTTL = cfg.DefaultTTL
		}

		rc, err := NewRedisCache(opts)
		if err == nil {
			return rc, Info{Backend: "redis"}, nil
		}
		if !cfg.FallbackToMemory {
			return nil, Info{}, err
		}
		slog.Warn("redis cache unavailable, falling back to memory",
			"url", MaskRedisURL(cfg.RedisURL), "error", err)
		return newMemory(cfg), Info{Backend: "memory", IsFallback: true}, nil
	}

	return newMemory(cfg), Info{Backend: "memory"}, nil
}

func newMemory(cfg Config) *MemoryCache {
	return NewMemoryCache(MemoryCacheOptions{
		DefaultTTL:      cfg.DefaultTTL,
		MaxSize:         cfg.MaxSize,
		CleanupInterval: cfg.CleanupInterval,
	})
}

// MaskRedisURL hides the password in a Redis URL for logging.
func MaskRedisURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "invalid-url"
	}
	if _, hasPassword := u.User.Password(); hasPassword {
		u.User = url.UserPassword(u.User.Username(), "xxxxx")
	}
	return u.String()
}

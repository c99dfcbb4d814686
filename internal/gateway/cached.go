// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package gateway

import (
	"context"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-nav/internal/cache"
	"github.com/olegiv/ocms-nav/internal/model"
)

// CacheKey is the cache entry holding the whole collection.
const CacheKey = "navlinks"

// CachedGateway is a read-through, write-through cache in front of another
// Gateway. Cache failures are logged and never fail a call.
type CachedGateway struct {
	next   Gateway
	cache  *cache.TypedCache[[]model.NavLink]
	logger *slog.Logger
}

// NewCachedGateway wraps next with c. Entries expire after ttl.
func NewCachedGateway(next Gateway, c cache.Cacher, ttl time.Duration, logger *slog.Logger) *CachedGateway {
	if logger == nil {
		logger = slog.Default()
	}
	return &CachedGateway{
		next:   next,
		cache:  cache.NewTypedCache[[]model.NavLink](c, ttl),
		logger: logger,
	}
}

// Load serves the collection from cache, falling back to the wrapped gateway.
func (g *CachedGateway) Load(ctx context.Context) ([]model.NavLink, error) {
	if links, ok := g.cache.Get(ctx, CacheKey); ok {
		return links, nil
	}

	links, err := g.next.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := g.cache.Set(ctx, CacheKey, links); err != nil {
		g.logger.Warn("failed to cache navigation links", "error", err)
	}
	return links, nil
}

// Save writes through to the wrapped gateway. The cache entry is refreshed
// on success and dropped on failure so the next Load goes to the source.
func (g *CachedGateway) Save(ctx context.Context, links []model.NavLink) error {
	if err := g.next.Save(ctx, links); err != nil {
		if delErr := g.cache.Delete(ctx, CacheKey); delErr != nil {
			g.logger.Warn("failed to invalidate navigation link cache", "error", delErr)
		}
		return err
	}
	if err := g.cache.Set(ctx, CacheKey, links); err != nil {
		g.logger.Warn("failed to cache navigation links", "error", err)
	}
	return nil
}

var _ Gateway = (*CachedGateway)(nil)

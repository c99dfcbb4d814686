// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package gateway

import (
	"context"
	"sync"

	"github.com/olegiv/ocms-nav/internal/model"
)

// MemoryGateway keeps the collection in process memory.
// Errors injected with SetErrors are returned instead of doing the work.
type MemoryGateway struct {
	mu      sync.Mutex
	links   []model.NavLink
	saves   int
	loadErr error
	saveErr error
}

// NewMemoryGateway creates a gateway holding a copy of links.
func NewMemoryGateway(links []model.NavLink) *MemoryGateway {
	return &MemoryGateway{links: copyLinks(links)}
}

// Load returns a copy of the stored collection.
func (g *MemoryGateway) Load(ctx context.Context) ([]model.NavLink, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.loadErr != nil {
		return nil, g.loadErr
	}
	return copyLinks(g.links), nil
}

// Save replaces the stored collection.
func (g *MemoryGateway) Save(ctx context.Context, links []model.NavLink) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.saveErr != nil {
		return g.saveErr
	}
	g.links = copyLinks(links)
	g.saves++
	return nil
}

// SetErrors replaces the injected load and save errors.
func (g *MemoryGateway) SetErrors(loadErr, saveErr error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.loadErr = loadErr
	g.saveErr = saveErr
}

// Saves returns the number of successful saves.
func (g *MemoryGateway) Saves() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.saves
}

func copyLinks(links []model.NavLink) []model.NavLink {
	out := make([]model.NavLink, len(links))
	copy(out, links)
	return out
}

var _ Gateway = (*MemoryGateway)(nil)

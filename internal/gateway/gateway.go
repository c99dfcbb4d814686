// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package gateway persists the navigation link collection. Every backend
// uses replace-all semantics: Save stores exactly the given collection and
// Load returns it in the same order.
package gateway

import (
	"context"

	"github.com/olegiv/ocms-nav/internal/model"
)

// Gateway loads and saves the whole navigation link collection.
type Gateway interface {
	Load(ctx context.Context) ([]model.NavLink, error)
	Save(ctx context.Context, links []model.NavLink) error
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package gateway

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/store"
	"github.com/olegiv/ocms-nav/internal/util"
)

// SQLGateway stores links in the nav_links table.
type SQLGateway struct {
	db      *sql.DB
	queries *store.Queries
	now     func() time.Time
}

// NewSQLGateway creates a gateway over a migrated database.
func NewSQLGateway(db *sql.DB) *SQLGateway {
	return &SQLGateway{
		db:      db,
		queries: store.New(db),
		now:     time.Now,
	}
}

// Load returns the stored links ordered by their saved collection position.
func (g *SQLGateway) Load(ctx context.Context) ([]model.NavLink, error) {
	rows, err := g.queries.ListNavLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing navigation links: %w", err)
	}

	links := make([]model.NavLink, 0, len(rows))
	for _, row := range rows {
		links = append(links, model.NavLink{
			ID:           row.ID,
			Name:         row.Name,
			Href:         row.Href,
			Icon:         util.StringFromNull(row.Icon),
			ParentID:     util.StringFromNull(row.ParentID),
			Order:        int(row.SortOrder),
			IsVisible:    row.IsVisible,
			RequiresAuth: row.RequiresAuth,
			RequiredRole: util.StringFromNull(row.RequiredRole),
			IsExternal:   row.IsExternal,
		})
	}
	return links, nil
}

// Save replaces the stored collection in a single transaction.
func (g *SQLGateway) Save(ctx context.Context, links []model.NavLink) error {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := g.queries.WithTx(tx)
	if err := qtx.DeleteAllNavLinks(ctx); err != nil {
		return fmt.Errorf("clearing navigation links: %w", err)
	}

	now := g.now()
	for i, link := range links {
		if err := qtx.InsertNavLink(ctx, store.InsertNavLinkParams{
			ID:           link.ID,
			Name:         link.Name,
			Href:         link.Href,
			Icon:         util.NullStringFromValue(link.Icon),
			ParentID:     util.NullStringFromValue(link.ParentID),
			SortOrder:    int64(link.Order),
			IsVisible:    link.IsVisible,
			RequiresAuth: link.RequiresAuth,
			RequiredRole: util.NullStringFromValue(link.RequiredRole),
			IsExternal:   link.IsExternal,
			Position:     int64(i),
			UpdatedAt:    now,
		}); err != nil {
			return fmt.Errorf("inserting navigation link %s: %w", link.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing navigation links: %w", err)
	}
	return nil
}

var _ Gateway = (*SQLGateway)(nil)

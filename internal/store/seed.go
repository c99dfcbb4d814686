// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/olegiv/ocms-nav/internal/model"
)

// Seed writes the default navigation links when the table is empty.
// When doSeed is false it does nothing; the service seeds defaults in
// memory on an empty load instead.
func Seed(ctx context.Context, db *sql.DB, doSeed bool) error {
	if !doSeed {
		return nil
	}

	queries := New(db)

	count, err := queries.CountNavLinks(ctx)
	if err != nil {
		return fmt.Errorf("counting navigation links: %w", err)
	}
	if count > 0 {
		slog.Info("navigation links already exist, skipping seed", "count", count)
		return nil
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	qtx := queries.WithTx(tx)
	now := time.Now()
	for i, link := range model.DefaultNavLinks() {
		if err := qtx.InsertNavLink(ctx, InsertNavLinkParams{
			ID:        link.ID,
			Name:      link.Name,
			Href:      link.Href,
			SortOrder: int64(link.Order),
			IsVisible: link.IsVisible,
			Position:  int64(i),
			UpdatedAt: now,
		}); err != nil {
			return fmt.Errorf("seeding link %s: %w", link.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing seed: %w", err)
	}

	slog.Info("seeded default navigation links", "count", len(model.DefaultNavLinks()))
	return nil
}

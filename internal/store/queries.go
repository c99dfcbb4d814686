// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"time"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries wraps the SQL statements used by the application.
type Queries struct {
	db DBTX
}

// New creates Queries bound to db.
func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// WithTx returns Queries bound to tx.
func (q *Queries) WithTx(tx *sql.Tx) *Queries {
	return &Queries{db: tx}
}

// NavLink is a row of the nav_links table.
type NavLink struct {
	ID           string
	Name         string
	Href         string
	Icon         sql.NullString
	ParentID     sql.NullString
	SortOrder    int64
	IsVisible    bool
	RequiresAuth bool
	RequiredRole sql.NullString
	IsExternal   bool
	Position     int64
	UpdatedAt    time.Time
}

const listNavLinks = `SELECT id, name, href, icon, parent_id, sort_order, is_visible,
	requires_auth, required_role, is_external, position, updated_at
FROM nav_links
ORDER BY position, id`

// ListNavLinks returns all links in their stored collection order.
func (q *Queries) ListNavLinks(ctx context.Context) ([]NavLink, error) {
	rows, err := q.db.QueryContext(ctx, listNavLinks)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []NavLink
	for rows.Next() {
		var i NavLink
		if err := rows.Scan(
			&i.ID,
			&i.Name,
			&i.Href,
			&i.Icon,
			&i.ParentID,
			&i.SortOrder,
			&i.IsVisible,
			&i.RequiresAuth,
			&i.RequiredRole,
			&i.IsExternal,
			&i.Position,
			&i.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countNavLinks = `SELECT COUNT(*) FROM nav_links`

// CountNavLinks returns the number of stored links.
func (q *Queries) CountNavLinks(ctx context.Context) (int64, error) {
	var count int64
	err := q.db.QueryRowContext(ctx, countNavLinks).Scan(&count)
	return count, err
}

const deleteAllNavLinks = `DELETE FROM nav_links`

// DeleteAllNavLinks removes every stored link.
func (q *Queries) DeleteAllNavLinks(ctx context.Context) error {
	_, err := q.db.ExecContext(ctx, deleteAllNavLinks)
	return err
}

const insertNavLink = `INSERT INTO nav_links (
	id, name, href, icon, parent_id, sort_order, is_visible,
	requires_auth, required_role, is_external, position, updated_at
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

// InsertNavLinkParams holds the values for InsertNavLink.
type InsertNavLinkParams struct {
	ID           string
	Name         string
	Href         string
	Icon         sql.NullString
	ParentID     sql.NullString
	SortOrder    int64
	IsVisible    bool
	RequiresAuth bool
	RequiredRole sql.NullString
	IsExternal   bool
	Position     int64
	UpdatedAt    time.Time
}

// InsertNavLink stores one link row.
func (q *Queries) InsertNavLink(ctx context.Context, arg InsertNavLinkParams) error {
	_, err := q.db.ExecContext(ctx, insertNavLink,
		arg.ID,
		arg.Name,
		arg.Href,
		arg.Icon,
		arg.ParentID,
		arg.SortOrder,
		arg.IsVisible,
		arg.RequiresAuth,
		arg.RequiredRole,
		arg.IsExternal,
		arg.Position,
		arg.UpdatedAt,
	)
	return err
}

// Event is a row of the nav_events table.
type Event struct {
	ID        int64
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

const createEvent = `INSERT INTO nav_events (level, category, message, metadata, created_at)
VALUES (?, ?, ?, ?, ?)`

// CreateEventParams holds the values for CreateEvent.
type CreateEventParams struct {
	Level     string
	Category  string
	Message   string
	Metadata  string
	CreatedAt time.Time
}

// CreateEvent appends an entry to the event log.
func (q *Queries) CreateEvent(ctx context.Context, arg CreateEventParams) error {
	_, err := q.db.ExecContext(ctx, createEvent,
		arg.Level,
		arg.Category,
		arg.Message,
		arg.Metadata,
		arg.CreatedAt,
	)
	return err
}

const listEvents = `SELECT id, level, category, message, metadata, created_at
FROM nav_events
ORDER BY created_at DESC, id DESC
LIMIT ?`

// ListEvents returns the most recent events, newest first.
func (q *Queries) ListEvents(ctx context.Context, limit int64) ([]Event, error) {
	rows, err := q.db.QueryContext(ctx, listEvents, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var items []Event
	for rows.Next() {
		var i Event
		if err := rows.Scan(&i.ID, &i.Level, &i.Category, &i.Message, &i.Metadata, &i.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, i)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteOldEvents = `DELETE FROM nav_events WHERE created_at < ?`

// DeleteOldEvents removes events created before cutoff.
func (q *Queries) DeleteOldEvents(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := q.db.ExecContext(ctx, deleteOldEvents, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}

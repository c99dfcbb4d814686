// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package transfer provides import/export of the navigation link collection.
package transfer

import (
	"encoding/json"
	"time"

	"github.com/olegiv/ocms-nav/internal/model"
)

// ExportVersion is the current version of the export format.
const ExportVersion = "1.0"

// ExportData represents the complete export structure.
type ExportData struct {
	Version    string       `json:"version"`
	ExportedAt time.Time    `json:"exported_at"`
	Links      []ExportLink `json:"links"`
}

// ExportLink is one navigation link in collection order.
type ExportLink struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Href         string `json:"href"`
	Icon         string `json:"icon,omitempty"`
	ParentID     string `json:"parent_id,omitempty"`
	Order        int    `json:"order"`
	IsVisible    bool   `json:"is_visible"`
	RequiresAuth bool   `json:"requires_auth,omitempty"`
	RequiredRole string `json:"required_role,omitempty"`
	IsExternal   bool   `json:"is_external,omitempty"`
}

// MarshalJSON writes root links with "parent_id": null.
func (l ExportLink) MarshalJSON() ([]byte, error) {
	type exportLinkAlias ExportLink
	return json.Marshal(struct {
		exportLinkAlias
		ParentID *string `json:"parent_id"`
	}{exportLinkAlias(l), model.ParentRef(l.ParentID)})
}

func exportLinkFromModel(l model.NavLink) ExportLink {
	return ExportLink{
		ID:           l.ID,
		Name:         l.Name,
		Href:         l.Href,
		Icon:         l.Icon,
		ParentID:     l.ParentID,
		Order:        l.Order,
		IsVisible:    l.IsVisible,
		RequiresAuth: l.RequiresAuth,
		RequiredRole: l.RequiredRole,
		IsExternal:   l.IsExternal,
	}
}

func (l ExportLink) toModel() model.NavLink {
	return model.NavLink{
		ID:           l.ID,
		Name:         l.Name,
		Href:         l.Href,
		Icon:         l.Icon,
		ParentID:     l.ParentID,
		Order:        l.Order,
		IsVisible:    l.IsVisible,
		RequiresAuth: l.RequiresAuth,
		RequiredRole: l.RequiredRole,
		IsExternal:   l.IsExternal,
	}
}

// ImportOptions configures an import.
type ImportOptions struct {
	// DryRun validates the document without replacing anything.
	DryRun bool `json:"dry_run"`
}

// ImportError describes one problem found in an import document.
type ImportError struct {
	Entity  string `json:"entity"`
	ID      string `json:"id"`
	Message string `json:"message"`
}

// ImportResult summarises an import.
type ImportResult struct {
	DryRun   bool          `json:"dry_run"`
	Imported int           `json:"imported"`
	Errors   []ImportError `json:"errors,omitempty"`
}

// AddError records a problem.
func (r *ImportResult) AddError(entity, id, message string) {
	r.Errors = append(r.Errors, ImportError{Entity: entity, ID: id, Message: message})
}

// Success reports whether the import had no errors.
func (r *ImportResult) Success() bool {
	return len(r.Errors) == 0
}

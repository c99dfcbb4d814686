// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package model

import (
	"bytes"
	"encoding/json"
)

// Move directions
const (
	DirectionUp   Direction = "up"
	DirectionDown Direction = "down"
)

// Direction is the direction of a sibling move.
type Direction string

// IsValid reports whether d is one of the known directions.
func (d Direction) IsValid() bool {
	return d == DirectionUp || d == DirectionDown
}

// NavLink represents one navigation menu entry.
// An empty ParentID means the link is a root entry.
type NavLink struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Href         string `json:"href"`
	Icon         string `json:"icon,omitempty"`
	ParentID     string `json:"parentId,omitempty"`
	Order        int    `json:"order"`
	IsVisible    bool   `json:"isVisible"`
	RequiresAuth bool   `json:"requiresAuth,omitempty"`
	RequiredRole string `json:"requiredRole,omitempty"`
	IsExternal   bool   `json:"isExternal,omitempty"`
}

// IsRoot returns true if the link has no parent.
func (l NavLink) IsRoot() bool {
	return l.ParentID == ""
}

// ParentRef returns nil for a root parent ID, so it encodes as JSON null.
func ParentRef(parentID string) *string {
	if parentID == "" {
		return nil
	}
	return &parentID
}

type navLinkAlias NavLink

type navLinkJSON struct {
	navLinkAlias
	ParentID *string `json:"parentId"`
}

func newNavLinkJSON(l NavLink) navLinkJSON {
	return navLinkJSON{navLinkAlias: navLinkAlias(l), ParentID: ParentRef(l.ParentID)}
}

// MarshalJSON writes root links with "parentId": null.
func (l NavLink) MarshalJSON() ([]byte, error) {
	return json.Marshal(newNavLinkJSON(l))
}

// NavLinkDraft holds the caller-supplied fields of a new link.
type NavLinkDraft struct {
	Name         string `json:"name"`
	Href         string `json:"href"`
	Icon         string `json:"icon,omitempty"`
	ParentID     string `json:"parentId,omitempty"`
	RequiresAuth bool   `json:"requiresAuth,omitempty"`
	RequiredRole string `json:"requiredRole,omitempty"`
	IsExternal   bool   `json:"isExternal,omitempty"`

	// IsVisible defaults to true when nil.
	IsVisible *bool `json:"isVisible,omitempty"`
}

// NavLinkPatch is a partial update. Nil fields are left untouched.
// A ParentID pointing at an empty string moves the link to the root; in
// JSON both "parentId": null and "parentId": "" decode that way.
type NavLinkPatch struct {
	Name         *string `json:"name,omitempty"`
	Href         *string `json:"href,omitempty"`
	Icon         *string `json:"icon,omitempty"`
	ParentID     *string `json:"parentId,omitempty"`
	Order        *int    `json:"order,omitempty"`
	IsVisible    *bool   `json:"isVisible,omitempty"`
	RequiresAuth *bool   `json:"requiresAuth,omitempty"`
	RequiredRole *string `json:"requiredRole,omitempty"`
	IsExternal   *bool   `json:"isExternal,omitempty"`
}

// UnmarshalJSON decodes a patch, keeping an explicit "parentId": null
// apart from an absent parentId. Unknown fields are rejected.
func (p *NavLinkPatch) UnmarshalJSON(data []byte) error {
	type patchAlias NavLinkPatch
	aux := struct {
		*patchAlias
		ParentID json.RawMessage `json:"parentId"`
	}{patchAlias: (*patchAlias)(p)}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&aux); err != nil {
		return err
	}

	switch {
	case aux.ParentID == nil:
		p.ParentID = nil
	case bytes.Equal(bytes.TrimSpace(aux.ParentID), []byte("null")):
		root := ""
		p.ParentID = &root
	default:
		var id string
		if err := json.Unmarshal(aux.ParentID, &id); err != nil {
			return err
		}
		p.ParentID = &id
	}
	return nil
}

// NavLinkNode represents a link with its children for tree display.
type NavLinkNode struct {
	NavLink
	Children []NavLinkNode `json:"children"`
}

// MarshalJSON writes the link fields next to its children. Without it the
// promoted NavLink.MarshalJSON would drop the children.
func (n NavLinkNode) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		navLinkJSON
		Children []NavLinkNode `json:"children"`
	}{newNavLinkJSON(n.NavLink), n.Children})
}

// DefaultNavLinks returns the built-in links used when storage holds no data yet.
// IDs are fixed so that a freshly seeded collection is stable across reloads.
func DefaultNavLinks() []NavLink {
	return []NavLink{
		{ID: "default-home", Name: "Home", Href: "/", Order: 1, IsVisible: true},
		{ID: "default-services", Name: "Services", Href: "#services", Order: 2, IsVisible: true},
		{ID: "default-portfolio", Name: "Portfolio", Href: "#portfolio", Order: 3, IsVisible: true},
		{ID: "default-contact", Name: "Contact", Href: "#contact", Order: 4, IsVisible: true},
	}
}

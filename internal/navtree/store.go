// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package navtree maintains the forest of navigation links: parent/child
// relationships, per-sibling ordering and visibility, kept acyclic under edits.
package navtree

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/olegiv/ocms-nav/internal/model"
)

// IDGenerator allocates identifiers for new links.
type IDGenerator func() string

// Store owns a flat collection of links with parent references by ID.
// It is not safe for concurrent use; a single caller owns it for the
// lifetime of a session.
type Store struct {
	links []model.NavLink
	newID IDGenerator
}

// Option configures a Store.
type Option func(*Store)

// WithIDGenerator overrides the default UUID generator.
func WithIDGenerator(gen IDGenerator) Option {
	return func(s *Store) {
		s.newID = gen
	}
}

// New creates a Store holding a copy of links.
func New(links []model.NavLink, opts ...Option) *Store {
	s := &Store{
		links: cloneLinks(links),
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Links returns a copy of the collection in its original order.
func (s *Store) Links() []model.NavLink {
	return cloneLinks(s.links)
}

// Len returns the number of links.
func (s *Store) Len() int {
	return len(s.links)
}

// Get returns the link with the given ID.
func (s *Store) Get(id string) (model.NavLink, error) {
	idx := indexOf(id, s.links)
	if idx < 0 {
		return model.NavLink{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return s.links[idx], nil
}

// Siblings returns the ordered sibling group under parentID.
func (s *Store) Siblings(parentID string) []model.NavLink {
	return SiblingsOf(parentID, s.links)
}

// ValidParents returns the links that id may be reparented under.
func (s *Store) ValidParents(id string) ([]model.NavLink, error) {
	if indexOf(id, s.links) < 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return ValidParents(id, s.links), nil
}

// Tree returns the collection as a nested tree.
func (s *Store) Tree(visibleOnly bool) []model.NavLinkNode {
	return BuildTree(s.links, visibleOnly)
}

// Add validates draft, allocates an ID and appends the link to the end of
// its sibling group.
func (s *Store) Add(draft model.NavLinkDraft) (model.NavLink, error) {
	fields := make(map[string]string)
	if strings.TrimSpace(draft.Name) == "" {
		fields["name"] = "Name is required"
	}
	if strings.TrimSpace(draft.Href) == "" {
		fields["href"] = "Href is required"
	}
	if draft.ParentID != "" && indexOf(draft.ParentID, s.links) < 0 {
		fields["parentId"] = "Parent link not found"
	}
	if len(fields) > 0 {
		return model.NavLink{}, &ValidationError{Fields: fields}
	}

	visible := true
	if draft.IsVisible != nil {
		visible = *draft.IsVisible
	}

	link := model.NavLink{
		ID:           s.newID(),
		Name:         draft.Name,
		Href:         draft.Href,
		Icon:         draft.Icon,
		ParentID:     draft.ParentID,
		Order:        NextOrder(draft.ParentID, s.links),
		IsVisible:    visible,
		RequiresAuth: draft.RequiresAuth,
		RequiredRole: draft.RequiredRole,
		IsExternal:   draft.IsExternal,
	}
	s.links = append(s.links, link)
	return link, nil
}

// Update applies patch to the link with the given ID. A parent change is
// checked for cycles first and, when accepted, appends the link to the end
// of its new sibling group. On any error nothing is changed.
func (s *Store) Update(id string, patch model.NavLinkPatch) (model.NavLink, error) {
	idx := indexOf(id, s.links)
	if idx < 0 {
		return model.NavLink{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}

	updated := s.links[idx]

	if patch.Name != nil {
		if strings.TrimSpace(*patch.Name) == "" {
			return model.NavLink{}, newValidationError("name", "Name is required")
		}
		updated.Name = *patch.Name
	}
	if patch.Href != nil {
		if strings.TrimSpace(*patch.Href) == "" {
			return model.NavLink{}, newValidationError("href", "Href is required")
		}
		updated.Href = *patch.Href
	}
	if patch.Icon != nil {
		updated.Icon = *patch.Icon
	}
	if patch.IsVisible != nil {
		updated.IsVisible = *patch.IsVisible
	}
	if patch.RequiresAuth != nil {
		updated.RequiresAuth = *patch.RequiresAuth
	}
	if patch.RequiredRole != nil {
		updated.RequiredRole = *patch.RequiredRole
	}
	if patch.IsExternal != nil {
		updated.IsExternal = *patch.IsExternal
	}
	if patch.Order != nil {
		updated.Order = *patch.Order
	}

	if patch.ParentID != nil && *patch.ParentID != updated.ParentID {
		newParent := *patch.ParentID
		if newParent != "" && newParent != id && indexOf(newParent, s.links) < 0 {
			return model.NavLink{}, newValidationError("parentId", "Parent link not found")
		}
		if WouldCreateCycle(newParent, id, s.links) {
			return model.NavLink{}, fmt.Errorf("%w: %s under %s", ErrCycle, id, newParent)
		}
		updated.ParentID = newParent
		updated.Order = NextOrder(newParent, s.links)
	}

	s.links[idx] = updated
	return updated, nil
}

// Delete removes the link with the given ID. Links that still have
// children cannot be deleted. Remaining siblings are not renumbered.
func (s *Store) Delete(id string) error {
	idx := indexOf(id, s.links)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if HasChildren(id, s.links) {
		return fmt.Errorf("%w: %s", ErrHasChildren, id)
	}
	s.links = append(s.links[:idx], s.links[idx+1:]...)
	return nil
}

// Move swaps the link with its neighbour in the given direction.
// It returns false when the link is already at that end of its group.
func (s *Store) Move(id string, dir model.Direction) (bool, error) {
	if !dir.IsValid() {
		return false, newValidationError("direction", fmt.Sprintf("Invalid direction %q", dir))
	}
	if indexOf(id, s.links) < 0 {
		return false, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return MoveWithinSiblings(id, dir, s.links), nil
}

// ToggleVisibility flips IsVisible on the link and returns the result.
func (s *Store) ToggleVisibility(id string) (model.NavLink, error) {
	idx := indexOf(id, s.links)
	if idx < 0 {
		return model.NavLink{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	s.links[idx].IsVisible = !s.links[idx].IsVisible
	return s.links[idx], nil
}

// Replace swaps in a whole collection after checking it with Validate.
func (s *Store) Replace(links []model.NavLink) error {
	if err := Validate(links); err != nil {
		return err
	}
	s.links = cloneLinks(links)
	return nil
}

// Validate checks a collection for duplicate or empty IDs, missing
// name/href, self-parenting and cycles.
func Validate(links []model.NavLink) error {
	seen := make(map[string]bool, len(links))
	for i, l := range links {
		switch {
		case l.ID == "":
			return newValidationError(fmt.Sprintf("links[%d].id", i), "ID is required")
		case seen[l.ID]:
			return newValidationError(fmt.Sprintf("links[%d].id", i), "Duplicate ID "+l.ID)
		case strings.TrimSpace(l.Name) == "":
			return newValidationError(fmt.Sprintf("links[%d].name", i), "Name is required")
		case strings.TrimSpace(l.Href) == "":
			return newValidationError(fmt.Sprintf("links[%d].href", i), "Href is required")
		case l.ParentID == l.ID:
			return fmt.Errorf("%w: %s is its own parent", ErrCycle, l.ID)
		}
		seen[l.ID] = true
	}

	for _, l := range links {
		if l.ParentID != "" && WouldCreateCycle(l.ParentID, l.ID, links) {
			return fmt.Errorf("%w: %s", ErrCycle, l.ID)
		}
	}
	return nil
}

func cloneLinks(links []model.NavLink) []model.NavLink {
	if links == nil {
		return []model.NavLink{}
	}
	out := make([]model.NavLink, len(links))
	copy(out, links)
	return out
}

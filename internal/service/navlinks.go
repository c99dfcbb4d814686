// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package service provides the navigation link session and the audit log
// on top of the navtree engine and a persistence gateway.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/olegiv/ocms-nav/internal/gateway"
	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/navtree"
)

// ErrNotLoaded is returned by mutations while the collection could not be
// read from storage. Saving then would replace the stored links.
var ErrNotLoaded = errors.New("navigation links not loaded")

// Auditor records navigation changes and persistence failures.
// *EventService satisfies it.
type Auditor interface {
	LogNavigationEvent(ctx context.Context, level, message string, metadata map[string]any) error
	LogPersistenceEvent(ctx context.Context, level, message string, metadata map[string]any) error
}

// ChangeNotifier is told about every change that reached storage.
type ChangeNotifier interface {
	NotifyChange(ctx context.Context, action, linkID string, count int)
}

// NavService owns the editable link collection for one session. Every
// mutation is applied in memory first and then saved through the gateway.
// When the save fails the change is kept and a *navtree.PersistenceError
// is returned alongside the result; Retry saves the current state again.
//
// Store access is serialised. Saves run outside the lock, so concurrent
// saves may complete in any order and the last one wins.
type NavService struct {
	mu       sync.Mutex
	store    *navtree.Store
	gw       gateway.Gateway
	auditor  Auditor
	notifier ChangeNotifier
	logger   *slog.Logger
	opts     []navtree.Option
	seeded   bool
	loaded   bool
}

// ServiceOption configures a NavService.
type ServiceOption func(*NavService)

// WithAuditor records mutations and persistence failures in an audit log.
func WithAuditor(a Auditor) ServiceOption {
	return func(s *NavService) {
		s.auditor = a
	}
}

// WithChangeNotifier reports saved changes to n.
func WithChangeNotifier(n ChangeNotifier) ServiceOption {
	return func(s *NavService) {
		s.notifier = n
	}
}

// WithStoreOptions passes options to every Store the service creates.
func WithStoreOptions(opts ...navtree.Option) ServiceOption {
	return func(s *NavService) {
		s.opts = append(s.opts, opts...)
	}
}

// NewNavService creates a service over gw. Call Load before use.
func NewNavService(gw gateway.Gateway, logger *slog.Logger, opts ...ServiceOption) *NavService {
	if logger == nil {
		logger = slog.Default()
	}
	s := &NavService{
		gw:     gw,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.store = navtree.New(nil, s.opts...)
	return s
}

// Load reads the collection from the gateway. An empty result is replaced
// by the default links, which are not saved until the first mutation.
// On a gateway error the collection is left empty and mutations fail with
// ErrNotLoaded until a later Load succeeds.
func (s *NavService) Load(ctx context.Context) error {
	links, err := s.gw.Load(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()

	if err != nil {
		s.store = navtree.New(nil, s.opts...)
		s.seeded = false
		s.loaded = false
		s.logger.Error("failed to load navigation links", "error", err)
		s.audit(ctx, true, model.EventLevelError, "Failed to load navigation links", map[string]any{"error": err.Error()})
		return &navtree.PersistenceError{Op: "loading", Err: err}
	}

	s.loaded = true
	if len(links) == 0 {
		s.store = navtree.New(model.DefaultNavLinks(), s.opts...)
		s.seeded = true
		s.logger.Info("no navigation links stored, using defaults")
		return nil
	}

	s.store = navtree.New(links, s.opts...)
	s.seeded = false
	s.logger.Debug("navigation links loaded", "count", len(links))
	return nil
}

// Loaded reports whether the last Load succeeded.
func (s *NavService) Loaded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loaded
}

// Seeded reports whether the collection holds the unsaved defaults.
func (s *NavService) Seeded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.seeded
}

// Links returns a copy of the collection.
func (s *NavService) Links() []model.NavLink {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Links()
}

// Get returns one link.
func (s *NavService) Get(id string) (model.NavLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(id)
}

// Tree returns the nested tree, optionally without hidden links.
func (s *NavService) Tree(visibleOnly bool) []model.NavLinkNode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Tree(visibleOnly)
}

// ValidParents returns the links id may be moved under.
func (s *NavService) ValidParents(id string) ([]model.NavLink, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.ValidParents(id)
}

// Add creates a link at the end of its sibling group.
func (s *NavService) Add(ctx context.Context, draft model.NavLinkDraft) (model.NavLink, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return model.NavLink{}, ErrNotLoaded
	}
	link, err := s.store.Add(draft)
	snapshot := s.snapshotLocked(err)
	s.mu.Unlock()
	if err != nil {
		return model.NavLink{}, err
	}

	s.logger.Info("navigation link added", "link_id", link.ID, "parent_id", link.ParentID)
	s.audit(ctx, false, model.EventLevelInfo, "Navigation link added", map[string]any{"link_id": link.ID, "name": link.Name})
	return link, s.commit(ctx, "added", link.ID, snapshot)
}

// Update applies patch to a link.
func (s *NavService) Update(ctx context.Context, id string, patch model.NavLinkPatch) (model.NavLink, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return model.NavLink{}, ErrNotLoaded
	}
	link, err := s.store.Update(id, patch)
	snapshot := s.snapshotLocked(err)
	s.mu.Unlock()
	if err != nil {
		return model.NavLink{}, err
	}

	s.logger.Info("navigation link updated", "link_id", id)
	s.audit(ctx, false, model.EventLevelInfo, "Navigation link updated", map[string]any{"link_id": id})
	return link, s.commit(ctx, "updated", id, snapshot)
}

// Delete removes a leaf link.
func (s *NavService) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	err := s.store.Delete(id)
	snapshot := s.snapshotLocked(err)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.logger.Info("navigation link deleted", "link_id", id)
	s.audit(ctx, false, model.EventLevelInfo, "Navigation link deleted", map[string]any{"link_id": id})
	return s.commit(ctx, "deleted", id, snapshot)
}

// Move swaps a link with its neighbour. A move past either end of the
// group changes nothing, is not saved and returns false.
func (s *NavService) Move(ctx context.Context, id string, dir model.Direction) (bool, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return false, ErrNotLoaded
	}
	moved, err := s.store.Move(id, dir)
	if err == nil && moved {
		s.seeded = false
	}
	snapshot := s.store.Links()
	s.mu.Unlock()
	if err != nil || !moved {
		return false, err
	}

	s.logger.Info("navigation link moved", "link_id", id, "direction", dir)
	return true, s.commit(ctx, "moved", id, snapshot)
}

// ToggleVisibility flips a link's visibility.
func (s *NavService) ToggleVisibility(ctx context.Context, id string) (model.NavLink, error) {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return model.NavLink{}, ErrNotLoaded
	}
	link, err := s.store.ToggleVisibility(id)
	snapshot := s.snapshotLocked(err)
	s.mu.Unlock()
	if err != nil {
		return model.NavLink{}, err
	}

	s.logger.Info("navigation link visibility changed", "link_id", id, "visible", link.IsVisible)
	return link, s.commit(ctx, "visibility_changed", id, snapshot)
}

// Replace swaps in a whole validated collection and saves it.
func (s *NavService) Replace(ctx context.Context, links []model.NavLink) error {
	s.mu.Lock()
	if !s.loaded {
		s.mu.Unlock()
		return ErrNotLoaded
	}
	err := s.store.Replace(links)
	snapshot := s.snapshotLocked(err)
	s.mu.Unlock()
	if err != nil {
		return err
	}

	s.logger.Info("navigation links replaced", "count", len(snapshot))
	s.audit(ctx, false, model.EventLevelInfo, "Navigation links replaced", map[string]any{"count": len(snapshot)})
	return s.commit(ctx, "replaced", "", snapshot)
}

// Retry saves the current collection again, typically after a
// PersistenceError. If the last Load failed it loads instead of saving.
func (s *NavService) Retry(ctx context.Context) error {
	s.mu.Lock()
	loaded := s.loaded
	snapshot := s.store.Links()
	s.mu.Unlock()

	if !loaded {
		return s.Load(ctx)
	}

	if err := s.commit(ctx, "saved", "", snapshot); err != nil {
		return err
	}

	s.mu.Lock()
	s.seeded = false
	s.mu.Unlock()

	s.logger.Info("navigation links saved on retry", "count", len(snapshot))
	return nil
}

// snapshotLocked copies the collection after a successful mutation.
// Callers must hold s.mu.
func (s *NavService) snapshotLocked(err error) []model.NavLink {
	if err != nil {
		return nil
	}
	s.seeded = false
	return s.store.Links()
}

// commit saves links and, on success, notifies the change listener.
func (s *NavService) commit(ctx context.Context, action, linkID string, links []model.NavLink) error {
	if err := s.save(ctx, links); err != nil {
		return err
	}
	if s.notifier != nil {
		s.notifier.NotifyChange(ctx, action, linkID, len(links))
	}
	return nil
}

func (s *NavService) save(ctx context.Context, links []model.NavLink) error {
	if err := s.gw.Save(ctx, links); err != nil {
		s.logger.Warn("failed to save navigation links", "error", err, "count", len(links))
		s.audit(ctx, true, model.EventLevelWarning, "Failed to save navigation links", map[string]any{"error": err.Error()})
		return &navtree.PersistenceError{Op: "saving", Err: err}
	}
	return nil
}

// audit writes to the audit log when one is configured. Audit failures
// are logged by the auditor and never affect the operation.
func (s *NavService) audit(ctx context.Context, persistence bool, level, message string, metadata map[string]any) {
	if s.auditor == nil {
		return
	}
	if persistence {
		_ = s.auditor.LogPersistenceEvent(ctx, level, message, metadata)
		return
	}
	_ = s.auditor.LogNavigationEvent(ctx, level, message, metadata)
}

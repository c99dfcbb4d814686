// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/olegiv/ocms-nav/internal/gateway"
	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/navtree"
	"github.com/olegiv/ocms-nav/internal/testutil"
)

type recordedEvent struct {
	category string
	level    string
	message  string
}

type fakeAuditor struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (a *fakeAuditor) LogNavigationEvent(_ context.Context, level, message string, _ map[string]any) error {
	a.record(model.EventCategoryNavigation, level, message)
	return nil
}

func (a *fakeAuditor) LogPersistenceEvent(_ context.Context, level, message string, _ map[string]any) error {
	a.record(model.EventCategoryPersistence, level, message)
	return nil
}

func (a *fakeAuditor) record(category, level, message string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.events = append(a.events, recordedEvent{category, level, message})
}

func (a *fakeAuditor) count(category string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	n := 0
	for _, e := range a.events {
		if e.category == category {
			n++
		}
	}
	return n
}

func sequentialIDs() navtree.IDGenerator {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("new-%d", n)
	}
}

func newLoadedService(t *testing.T, gw gateway.Gateway, opts ...ServiceOption) *NavService {
	t.Helper()
	opts = append(opts, WithStoreOptions(navtree.WithIDGenerator(sequentialIDs())))
	svc := NewNavService(gw, testutil.TestLoggerSilent(), opts...)
	require.NoError(t, svc.Load(context.Background()))
	return svc
}

func strPtr(s string) *string { return &s }

func TestNavService_LoadEmptySeedsDefaults(t *testing.T) {
	gw := gateway.NewMemoryGateway(nil)
	svc := newLoadedService(t, gw)

	assert.True(t, svc.Seeded())
	assert.Equal(t, model.DefaultNavLinks(), svc.Links())
	assert.Equal(t, 0, gw.Saves(), "defaults are not saved on load")
}

func TestNavService_LoadErrorReportsPersistence(t *testing.T) {
	gw := gateway.NewMemoryGateway(nil)
	gw.SetErrors(errors.New("database locked"), nil)
	auditor := &fakeAuditor{}

	svc := NewNavService(gw, testutil.TestLoggerSilent(), WithAuditor(auditor))
	err := svc.Load(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, navtree.ErrPersistence)
	var perr *navtree.PersistenceError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, "loading", perr.Op)

	assert.False(t, svc.Loaded())
	assert.False(t, svc.Seeded())
	assert.Empty(t, svc.Links())
	assert.Equal(t, 1, auditor.count(model.EventCategoryPersistence))
}

func TestNavService_LoadErrorKeepsStoredLinks(t *testing.T) {
	gw := gateway.NewMemoryGateway(testutil.SampleLinks())
	gw.SetErrors(errors.New("transient"), nil)
	ctx := context.Background()

	svc := NewNavService(gw, testutil.TestLoggerSilent(), WithStoreOptions(navtree.WithIDGenerator(sequentialIDs())))
	require.Error(t, svc.Load(ctx))

	// The storage recovers, but the session never read it.
	gw.SetErrors(nil, nil)

	_, err := svc.Add(ctx, model.NavLinkDraft{Name: "X", Href: "/x"})
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = svc.Update(ctx, "about", model.NavLinkPatch{Name: strPtr("Renamed")})
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.ErrorIs(t, svc.Delete(ctx, "home"), ErrNotLoaded)
	_, err = svc.Move(ctx, "about", model.DirectionUp)
	assert.ErrorIs(t, err, ErrNotLoaded)
	_, err = svc.ToggleVisibility(ctx, "home")
	assert.ErrorIs(t, err, ErrNotLoaded)
	assert.ErrorIs(t, svc.Replace(ctx, model.DefaultNavLinks()), ErrNotLoaded)
	assert.Equal(t, 0, gw.Saves())

	// Retry reloads instead of saving the empty collection.
	require.NoError(t, svc.Retry(ctx))
	assert.True(t, svc.Loaded())
	assert.Equal(t, 0, gw.Saves())
	assert.Equal(t, testutil.SampleLinks(), svc.Links())

	_, err = svc.Add(ctx, model.NavLinkDraft{Name: "X", Href: "/x"})
	require.NoError(t, err)

	stored, err := gw.Load(ctx)
	require.NoError(t, err)
	require.Len(t, stored, len(testutil.SampleLinks())+1)
	assert.Equal(t, testutil.SampleLinks(), stored[:len(stored)-1])
	assert.Equal(t, "X", stored[len(stored)-1].Name)
}

func TestNavService_LoadStoredLinks(t *testing.T) {
	gw := gateway.NewMemoryGateway(testutil.SampleLinks())
	svc := newLoadedService(t, gw)

	assert.False(t, svc.Seeded())
	assert.Equal(t, testutil.SampleLinks(), svc.Links())
}

func TestNavService_AddSaves(t *testing.T) {
	gw := gateway.NewMemoryGateway(testutil.SampleLinks())
	auditor := &fakeAuditor{}
	svc := newLoadedService(t, gw, WithAuditor(auditor))
	ctx := context.Background()

	link, err := svc.Add(ctx, model.NavLinkDraft{Name: "Careers", Href: "/about/careers", ParentID: "about"})
	require.NoError(t, err)
	assert.Equal(t, "new-1", link.ID)
	assert.Equal(t, 2, link.Order)
	assert.True(t, link.IsVisible)

	stored, err := gw.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, svc.Links(), stored)
	assert.Equal(t, 1, auditor.count(model.EventCategoryNavigation))
}

func TestNavService_SeededDefaultsSavedOnFirstMutation(t *testing.T) {
	gw := gateway.NewMemoryGateway(nil)
	svc := newLoadedService(t, gw)
	ctx := context.Background()

	_, err := svc.ToggleVisibility(ctx, "default-contact")
	require.NoError(t, err)
	assert.False(t, svc.Seeded())

	stored, err := gw.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, stored, 4)
}

func TestNavService_ValidationErrorDoesNotSave(t *testing.T) {
	gw := gateway.NewMemoryGateway(testutil.SampleLinks())
	svc := newLoadedService(t, gw)

	_, err := svc.Add(context.Background(), model.NavLinkDraft{Name: " ", Href: "/x"})
	assert.ErrorIs(t, err, navtree.ErrValidation)
	assert.Equal(t, 0, gw.Saves())
	assert.Equal(t, testutil.SampleLinks(), svc.Links())
}

func TestNavService_CycleRejectedNothingApplied(t *testing.T) {
	gw := gateway.NewMemoryGateway(testutil.SampleLinks())
	svc := newLoadedService(t, gw)

	_, err := svc.Update(context.Background(), "about", model.NavLinkPatch{ParentID: strPtr("team")})
	assert.ErrorIs(t, err, navtree.ErrCycle)
	assert.Equal(t, 0, gw.Saves())
	assert.Equal(t, testutil.SampleLinks(), svc.Links())
}

func TestNavService_DeleteGuard(t *testing.T) {
	gw := gateway.NewMemoryGateway(testutil.SampleLinks())
	svc := newLoadedService(t, gw)
	ctx := context.Background()

	assert.ErrorIs(t, svc.Delete(ctx, "about"), navtree.ErrHasChildren)
	assert.ErrorIs(t, svc.Delete(ctx, "missing"), navtree.ErrNotFound)

	require.NoError(t, svc.Delete(ctx, "team"))
	_, err := svc.Get("team")
	assert.ErrorIs(t, err, navtree.ErrNotFound)

	history, err := svc.Get("history")
	require.NoError(t, err)
	assert.Equal(t, 1, history.Order, "siblings are not renumbered")
}

func TestNavService_SaveFailureKeepsChange(t *testing.T) {
	gw := gateway.NewMemoryGateway(testutil.SampleLinks())
	auditor := &fakeAuditor{}
	svc := newLoadedService(t, gw, WithAuditor(auditor))
	ctx := context.Background()

	gw.SetErrors(nil, errors.New("connection reset"))

	link, err := svc.Update(ctx, "home", model.NavLinkPatch{Name: strPtr("Start")})
	require.Error(t, err)
	assert.ErrorIs(t, err, navtree.ErrPersistence)
	assert.Equal(t, "Start", link.Name, "result is returned with the persistence error")

	current, err := svc.Get("home")
	require.NoError(t, err)
	assert.Equal(t, "Start", current.Name, "no rollback after a failed save")
	assert.Equal(t, 1, auditor.count(model.EventCategoryPersistence))

	gw.SetErrors(nil, nil)
	require.NoError(t, svc.Retry(ctx))

	stored, err := gw.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, svc.Links(), stored)
}

func TestNavService_MoveBoundaryNotSaved(t *testing.T) {
	gw := gateway.NewMemoryGateway(testutil.SampleLinks())
	svc := newLoadedService(t, gw)
	ctx := context.Background()

	moved, err := svc.Move(ctx, "home", model.DirectionUp)
	require.NoError(t, err)
	assert.False(t, moved)
	assert.Equal(t, 0, gw.Saves())

	moved, err = svc.Move(ctx, "home", model.DirectionDown)
	require.NoError(t, err)
	assert.True(t, moved)
	assert.Equal(t, 1, gw.Saves())

	about, _ := svc.Get("about")
	home, _ := svc.Get("home")
	assert.Equal(t, 0, about.Order)
	assert.Equal(t, 1, home.Order)

	_, err = svc.Move(ctx, "home", "sideways")
	assert.ErrorIs(t, err, navtree.ErrValidation)
}

func TestNavService_Replace(t *testing.T) {
	gw := gateway.NewMemoryGateway(nil)
	svc := newLoadedService(t, gw)
	ctx := context.Background()

	require.NoError(t, svc.Replace(ctx, testutil.SampleLinks()))
	assert.Equal(t, testutil.SampleLinks(), svc.Links())
	assert.False(t, svc.Seeded())

	bad := []model.NavLink{
		{ID: "a", Name: "A", Href: "/a", ParentID: "b"},
		{ID: "b", Name: "B", Href: "/b", ParentID: "a"},
	}
	assert.ErrorIs(t, svc.Replace(ctx, bad), navtree.ErrCycle)
	assert.Equal(t, testutil.SampleLinks(), svc.Links())
}

func TestNavService_TreeAndParents(t *testing.T) {
	svc := newLoadedService(t, gateway.NewMemoryGateway(testutil.SampleLinks()))

	tree := svc.Tree(false)
	require.Len(t, tree, 3)
	assert.Equal(t, "about", tree[1].ID)
	assert.Len(t, tree[1].Children, 2)

	parents, err := svc.ValidParents("about")
	require.NoError(t, err)
	ids := make([]string, 0, len(parents))
	for _, p := range parents {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []string{"home", "contact"}, ids)
}

func TestNavService_ConcurrentMutations(t *testing.T) {
	gw := gateway.NewMemoryGateway(nil)
	svc := NewNavService(gw, testutil.TestLoggerSilent())
	require.NoError(t, svc.Load(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := svc.Add(context.Background(), model.NavLinkDraft{
				Name: fmt.Sprintf("Link %d", i),
				Href: fmt.Sprintf("/link-%d", i),
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	links := svc.Links()
	assert.Len(t, links, 14)

	seen := make(map[int]bool)
	for _, l := range links {
		if strings.HasPrefix(l.ID, "default-") {
			continue
		}
		if l.Order >= 4 {
			assert.False(t, seen[l.Order], "append orders must be distinct")
			seen[l.Order] = true
		}
	}
}

type recordedChange struct {
	action string
	linkID string
	count  int
}

type fakeNotifier struct {
	mu      sync.Mutex
	changes []recordedChange
}

func (n *fakeNotifier) NotifyChange(_ context.Context, action, linkID string, count int) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, recordedChange{action, linkID, count})
}

func TestNavService_NotifiesSavedChanges(t *testing.T) {
	gw := gateway.NewMemoryGateway(testutil.SampleLinks())
	notifier := &fakeNotifier{}
	svc := newLoadedService(t, gw, WithChangeNotifier(notifier))
	ctx := context.Background()

	link, err := svc.Add(ctx, model.NavLinkDraft{Name: "Blog", Href: "/blog"})
	require.NoError(t, err)
	_, err = svc.ToggleVisibility(ctx, "home")
	require.NoError(t, err)

	moved, err := svc.Move(ctx, "home", model.DirectionUp)
	require.NoError(t, err)
	assert.False(t, moved)

	gw.SetErrors(nil, errors.New("offline"))
	_, err = svc.Update(ctx, "home", model.NavLinkPatch{Name: strPtr("Start")})
	require.ErrorIs(t, err, navtree.ErrPersistence)

	gw.SetErrors(nil, nil)
	require.NoError(t, svc.Retry(ctx))

	assert.Equal(t, []recordedChange{
		{"added", link.ID, 6},
		{"visibility_changed", "home", 6},
		{"saved", "", 6},
	}, notifier.changes)
}

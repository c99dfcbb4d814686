// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"sync"
	"time"
)

// DebounceConfig holds debouncer configuration.
type DebounceConfig struct {
	// Interval is the debounce window duration.
	// Events within this window will be coalesced into a single event.
	Interval time.Duration
	// MaxWait is the maximum time to wait before dispatching.
	// Even if events keep coming, dispatch after this time.
	MaxWait time.Duration
}

// DefaultDebounceConfig returns default debounce configuration.
func DefaultDebounceConfig() DebounceConfig {
	return DebounceConfig{
		Interval: 1 * time.Second,
		MaxWait:  5 * time.Second,
	}
}

type pendingEvent struct {
	event      *Event
	timer      *time.Timer
	firstSeen  time.Time
	lastUpdate time.Time
}

// Debouncer coalesces rapid-fire events of the same type into one
// delivery carrying the latest data. A drag-and-drop reorder that issues
// several moves therefore produces a single notification.
type Debouncer struct {
	dispatcher *Dispatcher
	config     DebounceConfig
	pending    map[string]*pendingEvent // event type -> pending event
	mu         sync.Mutex
	ctx        context.Context
	cancel     context.CancelFunc
	wg         sync.WaitGroup
}

// NewDebouncer creates a new event debouncer.
func NewDebouncer(dispatcher *Dispatcher, config DebounceConfig) *Debouncer {
	if config.Interval <= 0 {
		config.Interval = DefaultDebounceConfig().Interval
	}
	if config.MaxWait < config.Interval {
		config.MaxWait = config.Interval
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Debouncer{
		dispatcher: dispatcher,
		config:     config,
		pending:    make(map[string]*pendingEvent),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Dispatch queues an event for debounced delivery.
// If an event of the same type is already pending, it is replaced with
// the latest data and the timer is reset.
func (d *Debouncer) Dispatch(_ context.Context, event *Event) error {
	key := event.Type
	now := time.Now()

	d.mu.Lock()
	defer d.mu.Unlock()

	if existing, ok := d.pending[key]; ok {
		existing.event = event
		existing.lastUpdate = now

		if now.Sub(existing.firstSeen) >= d.config.MaxWait {
			d.dispatchLocked(key)
			return nil
		}

		existing.timer.Reset(d.config.Interval)
		d.dispatcher.logger.Debug("debounced event updated",
			"key", key,
			"wait_time", now.Sub(existing.firstSeen))
		return nil
	}

	pe := &pendingEvent{
		event:      event,
		firstSeen:  now,
		lastUpdate: now,
	}
	pe.timer = time.AfterFunc(d.config.Interval, func() {
		d.mu.Lock()
		d.dispatchLocked(key)
		d.mu.Unlock()
	})

	d.pending[key] = pe
	d.dispatcher.logger.Debug("debounced event queued", "key", key)
	return nil
}

// dispatchLocked dispatches a pending event. Must be called with lock held.
func (d *Debouncer) dispatchLocked(key string) {
	pe, ok := d.pending[key]
	if !ok {
		return
	}

	pe.timer.Stop()
	delete(d.pending, key)

	d.wg.Add(1)
	go func(event *Event) {
		defer d.wg.Done()
		if err := d.dispatcher.Dispatch(d.ctx, event); err != nil {
			d.dispatcher.logger.Error("failed to dispatch debounced event",
				"error", err,
				"event_type", event.Type)
		}
	}(pe.event)
}

// Flush immediately dispatches all pending events.
func (d *Debouncer) Flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	for key := range d.pending {
		d.dispatchLocked(key)
	}
}

// Stop flushes all pending events and waits for them to be queued.
func (d *Debouncer) Stop() {
	d.Flush()
	d.wg.Wait()
	d.cancel()
}

// PendingCount returns the number of pending events.
func (d *Debouncer) PendingCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pending)
}

// NotifyChange queues a navlinks.changed event.
func (d *Debouncer) NotifyChange(ctx context.Context, action, linkID string, count int) {
	_ = d.Dispatch(ctx, NewEvent(EventNavLinksChanged, NavChangeData{
		Action: action,
		LinkID: linkID,
		Count:  count,
	}))
}

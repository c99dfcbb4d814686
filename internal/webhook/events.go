// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package webhook notifies external endpoints when the navigation changes.
package webhook

import (
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	EventNavLinksChanged = "navlinks.changed"
	EventTest            = "webhook.test"
)

// Event represents a webhook event to be dispatched.
type Event struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// NewEvent creates a new webhook event.
func NewEvent(eventType string, data any) *Event {
	return &Event{
		ID:        uuid.NewString(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Data:      data,
	}
}

// NavChangeData describes the latest change to the navigation collection.
type NavChangeData struct {
	Action string `json:"action"`
	LinkID string `json:"link_id,omitempty"`
	Count  int    `json:"count"`
}

// TestEventData contains data for test webhook events.
type TestEventData struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

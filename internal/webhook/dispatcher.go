// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// Endpoint is one webhook receiver.
type Endpoint struct {
	URL    string
	Secret string
}

// Dispatcher delivers events to every configured endpoint through a
// pool of workers.
type Dispatcher struct {
	endpoints      []Endpoint
	logger         *slog.Logger
	client         *http.Client
	queue          chan *QueuedDelivery
	workers        int
	maxAttempts    int
	initialBackoff time.Duration
	wg             sync.WaitGroup
	done           chan struct{}
	mu             sync.RWMutex
	running        bool

	delivered atomic.Int64
	failed    atomic.Int64
}

// QueuedDelivery represents a delivery queued for processing.
type QueuedDelivery struct {
	EventID string
	Event   string
	Payload []byte
	URL     string
	Secret  string
}

// Config holds dispatcher configuration.
type Config struct {
	Workers        int           // Number of concurrent delivery workers
	QueueSize      int           // Pending deliveries before new ones are dropped
	MaxAttempts    int           // Attempts per delivery
	InitialBackoff time.Duration // Delay before the first retry, doubled per attempt
	Client         *http.Client  // Defaults to a client with RequestTimeout
}

// DefaultConfig returns default dispatcher configuration.
func DefaultConfig() Config {
	return Config{
		Workers:        2,
		QueueSize:      100,
		MaxAttempts:    MaxAttempts,
		InitialBackoff: InitialBackoff,
	}
}

// NewDispatcher creates a new webhook dispatcher.
func NewDispatcher(endpoints []Endpoint, logger *slog.Logger, cfg Config) *Dispatcher {
	def := DefaultConfig()
	if cfg.Workers <= 0 {
		cfg.Workers = def.Workers
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = def.QueueSize
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = def.MaxAttempts
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = def.InitialBackoff
	}
	if cfg.Client == nil {
		cfg.Client = httpClient
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Dispatcher{
		endpoints:      endpoints,
		logger:         logger,
		client:         cfg.Client,
		queue:          make(chan *QueuedDelivery, cfg.QueueSize),
		workers:        cfg.Workers,
		maxAttempts:    cfg.MaxAttempts,
		initialBackoff: cfg.InitialBackoff,
		done:           make(chan struct{}),
	}
}

// Start starts the dispatcher workers.
func (d *Dispatcher) Start(ctx context.Context) {
	d.mu.Lock()
	if d.running {
		d.mu.Unlock()
		return
	}
	d.running = true
	d.mu.Unlock()

	d.logger.Info("starting webhook dispatcher", "workers", d.workers, "endpoints", len(d.endpoints))

	for i := range d.workers {
		d.wg.Add(1)
		go d.worker(ctx, i)
	}
}

// Stop stops the dispatcher and waits for workers to finish.
// Deliveries still queued are dropped.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if !d.running {
		d.mu.Unlock()
		return
	}
	d.running = false
	d.mu.Unlock()

	d.logger.Info("stopping webhook dispatcher")
	close(d.done)
	d.wg.Wait()
	d.logger.Info("webhook dispatcher stopped")
}

func (d *Dispatcher) worker(ctx context.Context, id int) {
	defer d.wg.Done()
	d.logger.Debug("webhook worker started", "worker_id", id)

	for {
		select {
		case <-d.done:
			return
		case <-ctx.Done():
			return
		case delivery := <-d.queue:
			d.processDelivery(ctx, delivery)
		}
	}
}

// Dispatch queues event for every endpoint.
func (d *Dispatcher) Dispatch(_ context.Context, event *Event) error {
	d.mu.RLock()
	running := d.running
	d.mu.RUnlock()

	if !running {
		d.logger.Warn("dispatcher not running, cannot dispatch event", "event_type", event.Type)
		return nil
	}
	if len(d.endpoints) == 0 {
		return nil
	}

	payload, err := json.Marshal(event)
	if err != nil {
		d.logger.Error("failed to marshal event payload", "error", err, "event_type", event.Type)
		return err
	}

	for _, ep := range d.endpoints {
		qd := &QueuedDelivery{
			EventID: event.ID,
			Event:   event.Type,
			Payload: payload,
			URL:     ep.URL,
			Secret:  ep.Secret,
		}

		select {
		case d.queue <- qd:
			d.logger.Debug("delivery queued", "event_id", event.ID, "url", ep.URL)
		default:
			d.failed.Add(1)
			d.logger.Warn("delivery queue full, dropping delivery", "event_id", event.ID, "url", ep.URL)
		}
	}

	return nil
}

// DispatchEvent is a convenience method to dispatch an event with the given type and data.
func (d *Dispatcher) DispatchEvent(ctx context.Context, eventType string, data any) error {
	return d.Dispatch(ctx, NewEvent(eventType, data))
}

// Stats returns the number of delivered and failed deliveries.
func (d *Dispatcher) Stats() (delivered, failed int64) {
	return d.delivered.Load(), d.failed.Load()
}

// GenerateSignature generates an HMAC-SHA256 signature for the payload.
func GenerateSignature(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature verifies an HMAC-SHA256 signature.
func VerifySignature(payload []byte, signature, secret string) bool {
	expectedSig := GenerateSignature(payload, secret)
	return hmac.Equal([]byte(signature), []byte(expectedSig))
}

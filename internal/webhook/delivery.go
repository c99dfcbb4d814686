// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package webhook

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"
)

// Delivery configuration constants
const (
	MaxAttempts    = 3                // Default number of delivery attempts
	InitialBackoff = 2 * time.Second  // Default delay before the first retry
	MaxBackoff     = 1 * time.Minute  // Maximum backoff delay
	RequestTimeout = 10 * time.Second // HTTP request timeout
	MaxResponseLen = 10 * 1024        // Maximum response body to read (10KB)
	UserAgent      = "oCMS-Nav/1.0"   // User-Agent header value
)

// DeliveryResult represents the result of a delivery attempt.
type DeliveryResult struct {
	Success      bool
	StatusCode   int
	ResponseBody string
	Error        error
	ShouldRetry  bool
}

// httpClient is the shared HTTP client with appropriate timeouts.
var httpClient = &http.Client{
	Timeout: RequestTimeout,
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
	},
}

// processDelivery attempts a delivery until it succeeds, fails permanently
// or runs out of attempts.
func (d *Dispatcher) processDelivery(ctx context.Context, delivery *QueuedDelivery) {
	for attempt := 1; attempt <= d.maxAttempts; attempt++ {
		result := d.attemptDelivery(ctx, delivery)
		if result.Success {
			d.delivered.Add(1)
			d.logger.Info("webhook delivered",
				"event_id", delivery.EventID,
				"url", delivery.URL,
				"status_code", result.StatusCode,
				"attempt", attempt)
			return
		}

		if !result.ShouldRetry || attempt == d.maxAttempts {
			d.failed.Add(1)
			d.logger.Warn("webhook delivery failed",
				"event_id", delivery.EventID,
				"url", delivery.URL,
				"attempt", attempt,
				"error", result.Error)
			return
		}

		backoff := calculateBackoff(d.initialBackoff, attempt)
		d.logger.Debug("webhook delivery will be retried",
			"event_id", delivery.EventID,
			"attempt", attempt,
			"backoff", backoff,
			"error", result.Error)

		select {
		case <-d.done:
			d.failed.Add(1)
			return
		case <-ctx.Done():
			d.failed.Add(1)
			return
		case <-time.After(backoff):
		}
	}
}

// attemptDelivery performs the actual HTTP POST request.
func (d *Dispatcher) attemptDelivery(ctx context.Context, delivery *QueuedDelivery) DeliveryResult {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, delivery.URL, bytes.NewReader(delivery.Payload))
	if err != nil {
		return DeliveryResult{
			Error:       fmt.Errorf("failed to create request: %w", err),
			ShouldRetry: false, // Bad URL, don't retry
		}
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", UserAgent)
	req.Header.Set("X-Webhook-Event", delivery.Event)
	req.Header.Set("X-Webhook-Delivery-ID", delivery.EventID)
	if delivery.Secret != "" {
		req.Header.Set("X-Webhook-Signature", GenerateSignature(delivery.Payload, delivery.Secret))
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return DeliveryResult{
			Error:       fmt.Errorf("request failed: %w", err),
			ShouldRetry: true, // Network error, retry
		}
	}
	defer func() { _ = resp.Body.Close() }()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, MaxResponseLen))
	responseBody := string(body)

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return DeliveryResult{
			Success:      true,
			StatusCode:   resp.StatusCode,
			ResponseBody: responseBody,
		}
	}

	// Client errors are final except 408 Request Timeout and 429 Too Many Requests
	shouldRetry := resp.StatusCode >= 500 ||
		resp.StatusCode == http.StatusRequestTimeout ||
		resp.StatusCode == http.StatusTooManyRequests

	return DeliveryResult{
		StatusCode:   resp.StatusCode,
		ResponseBody: responseBody,
		Error:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
		ShouldRetry:  shouldRetry,
	}
}

// calculateBackoff returns initial * 2^(attempt-1), capped at MaxBackoff.
func calculateBackoff(initial time.Duration, attempt int) time.Duration {
	if attempt <= 0 {
		attempt = 1
	}

	backoff := time.Duration(float64(initial) * math.Pow(2, float64(attempt-1)))
	if backoff > MaxBackoff {
		backoff = MaxBackoff
	}
	return backoff
}

// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/olegiv/ocms-nav/internal/testutil"
	"github.com/olegiv/ocms-nav/internal/version"
)

type stubPinger struct {
	err error
}

func (p stubPinger) Ping(context.Context) error { return p.err }

func newTestHealthHandler(t *testing.T, cache Pinger) *HealthHandler {
	t.Helper()
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	return NewHealthHandler(db, cache, t.TempDir(), version.Info{Version: "v1.0.0"})
}

func assertStatus(t *testing.T, got, want int) {
	t.Helper()
	if got != want {
		t.Errorf("status code = %d; want %d", got, want)
	}
}

func decodeHealth(t *testing.T, w *httptest.ResponseRecorder) HealthStatus {
	t.Helper()
	var status HealthStatus
	if err := json.Unmarshal(w.Body.Bytes(), &status); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	return status
}

func TestHealthHandler_Health(t *testing.T) {
	handler := newTestHealthHandler(t, stubPinger{})

	w := httptest.NewRecorder()
	handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assertStatus(t, w.Code, http.StatusOK)
	status := decodeHealth(t, w)
	if status.Status != "healthy" {
		t.Errorf("status = %q; want healthy", status.Status)
	}
	if status.Version != "v1.0.0" {
		t.Errorf("version = %q; want v1.0.0", status.Version)
	}
	for _, name := range []string{"database", "cache", "disk"} {
		if _, ok := status.Checks[name]; !ok {
			t.Errorf("missing %s check", name)
		}
	}
	if status.System != nil {
		t.Error("system info should only be present with verbose=true")
	}
}

func TestHealthHandler_Health_Verbose(t *testing.T) {
	handler := newTestHealthHandler(t, nil)

	w := httptest.NewRecorder()
	handler.Health(w, httptest.NewRequest(http.MethodGet, "/health?verbose=true", nil))

	status := decodeHealth(t, w)
	if status.System == nil {
		t.Fatal("expected system info")
	}
	if status.System.NumCPU == 0 {
		t.Error("NumCPU should be > 0")
	}
	if _, ok := status.Checks["cache"]; ok {
		t.Error("cache check should be skipped without a pinger")
	}
}

func TestHealthHandler_Health_CacheDown(t *testing.T) {
	handler := newTestHealthHandler(t, stubPinger{err: errors.New("connection refused")})

	w := httptest.NewRecorder()
	handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assertStatus(t, w.Code, http.StatusServiceUnavailable)
	status := decodeHealth(t, w)
	if status.Status != "degraded" {
		t.Errorf("status = %q; want degraded", status.Status)
	}
	if status.Checks["cache"].Message != "connection refused" {
		t.Errorf("cache message = %q", status.Checks["cache"].Message)
	}
}

func TestHealthHandler_Health_UnhealthyDatabase(t *testing.T) {
	handler := newTestHealthHandler(t, nil)
	_ = handler.db.Close()

	w := httptest.NewRecorder()
	handler.Health(w, httptest.NewRequest(http.MethodGet, "/health", nil))

	assertStatus(t, w.Code, http.StatusServiceUnavailable)
	if got := decodeHealth(t, w).Checks["database"].Status; got != "unhealthy" {
		t.Errorf("database status = %q; want unhealthy", got)
	}
}

func testHealthProbe(t *testing.T, path string, handlerFn func(http.ResponseWriter, *http.Request), expectedStatus string) {
	t.Helper()

	w := httptest.NewRecorder()
	handlerFn(w, httptest.NewRequest(http.MethodGet, path, nil))

	assertStatus(t, w.Code, http.StatusOK)

	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp["status"] != expectedStatus {
		t.Errorf("status = %q; want %s", resp["status"], expectedStatus)
	}
}

func TestHealthHandler_Liveness(t *testing.T) {
	handler := newTestHealthHandler(t, nil)
	testHealthProbe(t, "/health/live", handler.Liveness, "alive")
}

func TestHealthHandler_Readiness(t *testing.T) {
	handler := newTestHealthHandler(t, nil)
	testHealthProbe(t, "/health/ready", handler.Readiness, "ready")
}

func TestHealthHandler_Readiness_NotReady(t *testing.T) {
	handler := newTestHealthHandler(t, nil)
	_ = handler.db.Close()

	w := httptest.NewRecorder()
	handler.Readiness(w, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

	assertStatus(t, w.Code, http.StatusServiceUnavailable)
	var resp map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to unmarshal response: %v", err)
	}
	if resp["status"] != "not_ready" {
		t.Errorf("status = %q; want not_ready", resp["status"])
	}
	if resp["message"] == "" {
		t.Error("expected an error message")
	}
}

func TestHealthHandler_MissingSnapshotDir(t *testing.T) {
	db, cleanup := testutil.TestDB(t)
	t.Cleanup(cleanup)
	handler := NewHealthHandler(db, nil, t.TempDir()+"/missing", version.Info{})

	check := handler.checkDiskSpace()
	if check.Status != "healthy" {
		t.Errorf("status = %q; want healthy", check.Status)
	}
}

func TestHealthHandler_Uptime(t *testing.T) {
	handler := newTestHealthHandler(t, nil)
	if time.Since(handler.StartTime()) > time.Minute {
		t.Error("start time should be recent")
	}
}

func TestFormatBytes(t *testing.T) {
	tests := []struct {
		bytes uint64
		want  string
	}{
		{0, "0 B"},
		{500, "500 B"},
		{1024, "1.00 KB"},
		{1536, "1.50 KB"},
		{1048576, "1.00 MB"},
		{1572864, "1.50 MB"},
		{1073741824, "1.00 GB"},
		{1610612736, "1.50 GB"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			got := formatBytes(tt.bytes)
			if got != tt.want {
				t.Errorf("formatBytes(%d) = %q; want %q", tt.bytes, got, tt.want)
			}
		})
	}
}

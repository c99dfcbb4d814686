// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/olegiv/ocms-nav/internal/gateway"
	"github.com/olegiv/ocms-nav/internal/model"
	"github.com/olegiv/ocms-nav/internal/service"
	"github.com/olegiv/ocms-nav/internal/testutil"
	"github.com/olegiv/ocms-nav/internal/transfer"
)

type navTestEnv struct {
	gw     *gateway.MemoryGateway
	svc    *service.NavService
	router http.Handler
}

func newNavTestEnv(t *testing.T, events EventLister) *navTestEnv {
	t.Helper()

	gw := gateway.NewMemoryGateway(testutil.SampleLinks())
	svc := service.NewNavService(gw, testutil.TestLoggerSilent())
	if err := svc.Load(context.Background()); err != nil {
		t.Fatalf("Load: %v", err)
	}

	h := NewNavLinksHandler(svc, events, testutil.TestLoggerSilent())
	return &navTestEnv{gw: gw, svc: svc, router: h.Routes()}
}

func (e *navTestEnv) do(t *testing.T, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp map[string]any
	if strings.HasPrefix(w.Header().Get("Content-Type"), "application/json") && w.Body.Len() > 0 {
		if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to parse JSON: %v (%s)", err, w.Body.String())
		}
	}
	return w, resp
}

func TestNavLinks_List(t *testing.T) {
	env := newNavTestEnv(t, nil)

	w, resp := env.do(t, http.MethodGet, "/", "")
	assertStatus(t, w.Code, http.StatusOK)

	links, ok := resp["links"].([]any)
	if !ok || len(links) != 5 {
		t.Fatalf("links = %v, want 5 entries", resp["links"])
	}
	if resp["seeded"] != false {
		t.Errorf("seeded = %v, want false", resp["seeded"])
	}
}

func TestNavLinks_Tree(t *testing.T) {
	env := newNavTestEnv(t, nil)
	if _, err := env.svc.ToggleVisibility(context.Background(), "about"); err != nil {
		t.Fatalf("ToggleVisibility: %v", err)
	}

	_, all := env.do(t, http.MethodGet, "/tree", "")
	if got := len(all["tree"].([]any)); got != 3 {
		t.Errorf("full tree has %d roots, want 3", got)
	}

	_, visible := env.do(t, http.MethodGet, "/tree?visible=true", "")
	if got := len(visible["tree"].([]any)); got != 2 {
		t.Errorf("visible tree has %d roots, want 2", got)
	}
}

func TestNavLinks_Get(t *testing.T) {
	env := newNavTestEnv(t, nil)

	w, resp := env.do(t, http.MethodGet, "/contact", "")
	assertStatus(t, w.Code, http.StatusOK)
	link := resp["link"].(map[string]any)
	if link["icon"] != "mail" {
		t.Errorf("icon = %v, want mail", link["icon"])
	}

	w, resp = env.do(t, http.MethodGet, "/missing", "")
	assertStatus(t, w.Code, http.StatusNotFound)
	if resp["success"] != false {
		t.Errorf("success = %v, want false", resp["success"])
	}
}

func TestNavLinks_Parents(t *testing.T) {
	env := newNavTestEnv(t, nil)

	w, resp := env.do(t, http.MethodGet, "/about/parents", "")
	assertStatus(t, w.Code, http.StatusOK)

	parents := resp["parents"].([]any)
	for _, p := range parents {
		id := p.(map[string]any)["id"]
		if id == "about" || id == "team" || id == "history" {
			t.Errorf("%v must not be offered as a parent of about", id)
		}
	}
	if len(parents) != 2 {
		t.Errorf("got %d parents, want 2", len(parents))
	}
}

func TestNavLinks_Create(t *testing.T) {
	env := newNavTestEnv(t, nil)

	w, resp := env.do(t, http.MethodPost, "/", `{"name":"<b>Blog</b> & News","href":"/blog","icon":"<i>rss</i>"}`)
	assertStatus(t, w.Code, http.StatusCreated)

	link := resp["link"].(map[string]any)
	if link["name"] != "Blog & News" {
		t.Errorf("name = %q, want markup stripped", link["name"])
	}
	if link["icon"] != "rss" {
		t.Errorf("icon = %q, want rss", link["icon"])
	}
	if link["order"] != float64(3) {
		t.Errorf("order = %v, want 3", link["order"])
	}
	if link["isVisible"] != true {
		t.Errorf("isVisible = %v, want true", link["isVisible"])
	}
	if resp["saved"] != true {
		t.Errorf("saved = %v, want true", resp["saved"])
	}
	if env.gw.Saves() != 1 {
		t.Errorf("gateway saves = %d, want 1", env.gw.Saves())
	}
}

func TestNavLinks_Create_Validation(t *testing.T) {
	env := newNavTestEnv(t, nil)

	w, resp := env.do(t, http.MethodPost, "/", `{"name":"  ","href":"/x"}`)
	assertStatus(t, w.Code, http.StatusBadRequest)

	details, ok := resp["details"].(map[string]any)
	if !ok || details["name"] == nil {
		t.Errorf("details = %v, want a name entry", resp["details"])
	}
	if env.gw.Saves() != 0 {
		t.Error("failed validation must not save")
	}
}

func TestNavLinks_Create_BadBody(t *testing.T) {
	env := newNavTestEnv(t, nil)

	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"name":`},
		{"unknown field", `{"name":"A","href":"/a","color":"red"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, _ := env.do(t, http.MethodPost, "/", tt.body)
			assertStatus(t, w.Code, http.StatusBadRequest)
		})
	}
}

func TestNavLinks_Update(t *testing.T) {
	env := newNavTestEnv(t, nil)

	w, resp := env.do(t, http.MethodPatch, "/contact", `{"name":"Reach us","parentId":"about"}`)
	assertStatus(t, w.Code, http.StatusOK)

	link := resp["link"].(map[string]any)
	if link["name"] != "Reach us" || link["parentId"] != "about" {
		t.Errorf("link = %v", link)
	}
	if link["order"] != float64(2) {
		t.Errorf("order = %v, want 2 (appended after team and history)", link["order"])
	}

	w, _ = env.do(t, http.MethodPut, "/contact", `{"parentId":""}`)
	assertStatus(t, w.Code, http.StatusOK)
	got, _ := env.svc.Get("contact")
	if got.ParentID != "" {
		t.Errorf("ParentID = %q, want root", got.ParentID)
	}
}

func TestNavLinks_Update_NullParentMovesToRoot(t *testing.T) {
	env := newNavTestEnv(t, nil)

	w, resp := env.do(t, http.MethodPatch, "/team", `{"parentId":null}`)
	assertStatus(t, w.Code, http.StatusOK)

	got, _ := env.svc.Get("team")
	if !got.IsRoot() {
		t.Fatalf("ParentID = %q, want root", got.ParentID)
	}
	if got.Order != 3 {
		t.Errorf("Order = %d, want 3 (appended after the three roots)", got.Order)
	}

	link := resp["link"].(map[string]any)
	if v, ok := link["parentId"]; !ok || v != nil {
		t.Errorf("parentId = %v (present %v), want null", v, ok)
	}

	// An absent parentId leaves the parent alone.
	w, _ = env.do(t, http.MethodPatch, "/history", `{"name":"Our history"}`)
	assertStatus(t, w.Code, http.StatusOK)
	if got, _ := env.svc.Get("history"); got.ParentID != "about" {
		t.Errorf("history ParentID = %q, want about", got.ParentID)
	}
}

func TestNavLinks_Update_Cycle(t *testing.T) {
	env := newNavTestEnv(t, nil)

	w, _ := env.do(t, http.MethodPatch, "/about", `{"parentId":"team"}`)
	assertStatus(t, w.Code, http.StatusConflict)

	got, _ := env.svc.Get("about")
	if got.ParentID != "" {
		t.Errorf("about moved under %q after a rejected cycle", got.ParentID)
	}
}

func TestNavLinks_Delete(t *testing.T) {
	env := newNavTestEnv(t, nil)

	w, _ := env.do(t, http.MethodDelete, "/about", "")
	assertStatus(t, w.Code, http.StatusConflict)

	w, resp := env.do(t, http.MethodDelete, "/team", "")
	assertStatus(t, w.Code, http.StatusOK)
	if resp["id"] != "team" {
		t.Errorf("id = %v, want team", resp["id"])
	}

	w, _ = env.do(t, http.MethodDelete, "/team", "")
	assertStatus(t, w.Code, http.StatusNotFound)
}

func TestNavLinks_Move(t *testing.T) {
	env := newNavTestEnv(t, nil)

	_, resp := env.do(t, http.MethodPost, "/home/move", `{"direction":"up"}`)
	if resp["moved"] != false {
		t.Errorf("moving the first link up: moved = %v, want false", resp["moved"])
	}
	if env.gw.Saves() != 0 {
		t.Error("a boundary move must not save")
	}

	w, resp := env.do(t, http.MethodPost, "/home/move", `{"direction":"down"}`)
	assertStatus(t, w.Code, http.StatusOK)
	if resp["moved"] != true {
		t.Errorf("moved = %v, want true", resp["moved"])
	}
	home, _ := env.svc.Get("home")
	about, _ := env.svc.Get("about")
	if home.Order != 1 || about.Order != 0 {
		t.Errorf("orders after swap: home=%d about=%d", home.Order, about.Order)
	}

	w, _ = env.do(t, http.MethodPost, "/home/move", `{"direction":"sideways"}`)
	assertStatus(t, w.Code, http.StatusBadRequest)
}

func TestNavLinks_Toggle(t *testing.T) {
	env := newNavTestEnv(t, nil)

	_, resp := env.do(t, http.MethodPost, "/home/toggle", "")
	if resp["link"].(map[string]any)["isVisible"] != false {
		t.Error("first toggle should hide the link")
	}
	_, resp = env.do(t, http.MethodPost, "/home/toggle", "")
	if resp["link"].(map[string]any)["isVisible"] != true {
		t.Error("second toggle should show the link again")
	}
}

func TestNavLinks_PersistenceFailureThenSave(t *testing.T) {
	env := newNavTestEnv(t, nil)
	env.gw.SetErrors(nil, errors.New("disk full"))

	w, resp := env.do(t, http.MethodPost, "/", `{"name":"Blog","href":"/blog"}`)
	assertStatus(t, w.Code, http.StatusCreated)
	if resp["saved"] != false {
		t.Errorf("saved = %v, want false", resp["saved"])
	}
	if warning, _ := resp["warning"].(string); !strings.Contains(warning, "disk full") {
		t.Errorf("warning = %q, want the gateway error", warning)
	}
	if len(env.svc.Links()) != 6 {
		t.Error("the change must stay applied after a failed save")
	}

	w, _ = env.do(t, http.MethodPost, "/save", "")
	assertStatus(t, w.Code, http.StatusServiceUnavailable)

	env.gw.SetErrors(nil, nil)
	w, resp = env.do(t, http.MethodPost, "/save", "")
	assertStatus(t, w.Code, http.StatusOK)
	if resp["saved"] != true {
		t.Errorf("saved = %v, want true", resp["saved"])
	}

	stored, err := env.gw.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(stored) != 6 {
		t.Errorf("stored %d links, want 6", len(stored))
	}
}

func TestNavLinks_LoadFailureKeepsStorage(t *testing.T) {
	gw := gateway.NewMemoryGateway(testutil.SampleLinks())
	gw.SetErrors(errors.New("connection refused"), nil)
	svc := service.NewNavService(gw, testutil.TestLoggerSilent())
	if err := svc.Load(context.Background()); err == nil {
		t.Fatal("Load should fail")
	}
	env := &navTestEnv{gw: gw, svc: svc, router: NewNavLinksHandler(svc, nil, testutil.TestLoggerSilent()).Routes()}
	gw.SetErrors(nil, nil)

	w, resp := env.do(t, http.MethodPost, "/", `{"name":"Blog","href":"/blog"}`)
	assertStatus(t, w.Code, http.StatusServiceUnavailable)
	if resp["success"] != false {
		t.Errorf("success = %v, want false", resp["success"])
	}
	if gw.Saves() != 0 {
		t.Fatalf("gateway saved %d times while not loaded", gw.Saves())
	}

	w, _ = env.do(t, http.MethodPost, "/save", "")
	assertStatus(t, w.Code, http.StatusOK)

	w, _ = env.do(t, http.MethodPost, "/", `{"name":"Blog","href":"/blog"}`)
	assertStatus(t, w.Code, http.StatusCreated)

	stored, err := gw.Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(stored) != 6 || stored[0].ID != "home" {
		t.Errorf("stored = %v, want the sample links plus Blog", stored)
	}
}

func TestNavLinks_Export(t *testing.T) {
	env := newNavTestEnv(t, nil)

	w, _ := env.do(t, http.MethodGet, "/export", "")
	assertStatus(t, w.Code, http.StatusOK)
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "ocms-navlinks-") {
		t.Errorf("Content-Disposition = %q", cd)
	}

	data, err := transfer.Decode(w.Body)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if data.Version != transfer.ExportVersion || len(data.Links) != 5 {
		t.Errorf("export = version %q with %d links", data.Version, len(data.Links))
	}
}

func TestNavLinks_Import(t *testing.T) {
	env := newNavTestEnv(t, nil)

	doc := `{"version":"1.0","exported_at":"2026-01-01T00:00:00Z","links":[
		{"id":"a","name":"A","href":"/a","order":0,"is_visible":true},
		{"id":"b","name":"B","href":"/b","parent_id":"a","order":0,"is_visible":false}
	]}`

	w, resp := env.do(t, http.MethodPost, "/import?dry_run=true", doc)
	assertStatus(t, w.Code, http.StatusOK)
	if resp["result"].(map[string]any)["dry_run"] != true {
		t.Error("expected a dry run result")
	}
	if len(env.svc.Links()) != 5 {
		t.Error("dry run must not replace the collection")
	}

	w, _ = env.do(t, http.MethodPost, "/import", doc)
	assertStatus(t, w.Code, http.StatusOK)
	links := env.svc.Links()
	if len(links) != 2 || links[1].ParentID != "a" || links[1].IsVisible {
		t.Errorf("imported links = %+v", links)
	}
}

func TestNavLinks_Import_Invalid(t *testing.T) {
	env := newNavTestEnv(t, nil)

	cycle := `{"version":"1.0","links":[
		{"id":"a","name":"A","href":"/a","parent_id":"b","order":0,"is_visible":true},
		{"id":"b","name":"B","href":"/b","parent_id":"a","order":0,"is_visible":true}
	]}`
	w, resp := env.do(t, http.MethodPost, "/import", cycle)
	assertStatus(t, w.Code, http.StatusBadRequest)
	if resp["result"] == nil {
		t.Error("expected validation errors in the result")
	}

	w, _ = env.do(t, http.MethodPost, "/import", `not json`)
	assertStatus(t, w.Code, http.StatusBadRequest)

	if len(env.svc.Links()) != 5 {
		t.Error("a rejected import must leave the collection unchanged")
	}
}

type stubEvents struct {
	limit  int
	events []model.Event
	err    error
}

func (s *stubEvents) ListRecent(_ context.Context, limit int) ([]model.Event, error) {
	s.limit = limit
	return s.events, s.err
}

func TestNavLinks_Events(t *testing.T) {
	stub := &stubEvents{events: []model.Event{
		{ID: 1, Level: model.EventLevelInfo, Category: model.EventCategoryNavigation, Message: "Navigation link added", CreatedAt: time.Now()},
	}}
	env := newNavTestEnv(t, stub)

	w, resp := env.do(t, http.MethodGet, "/events", "")
	assertStatus(t, w.Code, http.StatusOK)
	if stub.limit != defaultEventLimit {
		t.Errorf("limit = %d, want %d", stub.limit, defaultEventLimit)
	}
	if len(resp["events"].([]any)) != 1 {
		t.Errorf("events = %v", resp["events"])
	}

	env.do(t, http.MethodGet, "/events?limit=100000", "")
	if stub.limit != maxEventLimit {
		t.Errorf("limit = %d, want capped at %d", stub.limit, maxEventLimit)
	}

	w, _ = env.do(t, http.MethodGet, "/events?limit=-1", "")
	assertStatus(t, w.Code, http.StatusBadRequest)

	stub.err = errors.New("db gone")
	w, _ = env.do(t, http.MethodGet, "/events", "")
	assertStatus(t, w.Code, http.StatusInternalServerError)
}

func TestNavLinks_Events_Unavailable(t *testing.T) {
	env := newNavTestEnv(t, nil)

	w, _ := env.do(t, http.MethodGet, "/events", "")
	assertStatus(t, w.Code, http.StatusNotFound)
}

func TestSanitizeText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Home", "Home"},
		{"  About us ", "About us"},
		{"<script>alert(1)</script>Docs", "Docs"},
		{"Q&A", "Q&A"},
		{`<a href="x">Link</a>`, "Link"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := sanitizeText(tt.in); got != tt.want {
				t.Errorf("sanitizeText(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

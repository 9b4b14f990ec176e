package main

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/daykeep-dev/daykeep/pkg/daylog"
	"github.com/daykeep-dev/daykeep/pkg/home"
	"github.com/daykeep-dev/daykeep/pkg/recommend"
)

func newTestServer(t *testing.T) *server {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	store := daylog.NewMemoryStore()
	engine := recommend.NewEngine(context.Background(), store, logger,
		recommend.WithInterval(time.Hour))
	t.Cleanup(engine.Stop)

	tracker, err := home.NewTracker(t.TempDir(), logger)
	if err != nil {
		t.Fatal(err)
	}

	return &server{
		store:   store,
		engine:  engine,
		tracker: tracker,
		limiter: newRateLimiter(),
		logger:  logger,
	}
}

func TestHandleRecommendation(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleRecommendation(rec, httptest.NewRequest(http.MethodGet, "/api/recommendation", http.NoBody))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["recommendation"] == "" {
		t.Error("recommendation should never be empty")
	}
}

func TestHandleLogRoundTrip(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/log",
		strings.NewReader(`{"food":"salad","sleep":"7.5","steps":2500}`))
	rec := httptest.NewRecorder()
	srv.handleLog(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	srv.handleToday(rec, httptest.NewRequest(http.MethodGet, "/api/today", http.NoBody))
	var body struct {
		Entries []daylog.DayEntry `json:"entries"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if len(body.Entries) != 1 || body.Entries[0].Food != "salad" {
		t.Errorf("today = %+v, want the logged entry", body.Entries)
	}
}

func TestHandleLogRejectsEmptyEntry(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/log", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.handleLog(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestHandleStepsUpdatesRecommendation(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/steps", strings.NewReader(`{"steps":9500}`))
	rec := httptest.NewRecorder()
	srv.handleSteps(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["recommendation"] == "" {
		t.Error("recommendation missing after step update")
	}

	req = httptest.NewRequest(http.MethodPost, "/api/steps", strings.NewReader(`{"steps":-2}`))
	rec = httptest.NewRecorder()
	srv.handleSteps(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("negative steps: status = %d, want 400", rec.Code)
	}
}

func TestHomeEndpoints(t *testing.T) {
	srv := newTestServer(t)

	// Distance before a home is saved.
	rec := httptest.NewRecorder()
	srv.handleHomeDistance(rec, httptest.NewRequest(http.MethodGet, "/api/home/distance?lat=1&lon=1", http.NoBody))
	if rec.Code != http.StatusNotFound {
		t.Errorf("distance without home: status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.handleSetHome(rec, httptest.NewRequest(http.MethodPut, "/api/home",
		strings.NewReader(`{"latitude":52.37,"longitude":4.89}`)))
	if rec.Code != http.StatusOK {
		t.Fatalf("set home: status = %d, want 200", rec.Code)
	}

	rec = httptest.NewRecorder()
	srv.handleHomeDistance(rec, httptest.NewRequest(http.MethodGet, "/api/home/distance?lat=52.37&lon=4.89", http.NoBody))
	if rec.Code != http.StatusOK {
		t.Fatalf("distance: status = %d, want 200", rec.Code)
	}
	var body map[string]float64
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body["meters"] != 0 {
		t.Errorf("distance from home to itself = %v, want 0", body["meters"])
	}
}

func TestHandleSetHomeRejectsBadCoordinates(t *testing.T) {
	srv := newTestServer(t)

	rec := httptest.NewRecorder()
	srv.handleSetHome(rec, httptest.NewRequest(http.MethodPut, "/api/home",
		strings.NewReader(`{"latitude":120,"longitude":0}`)))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestRateLimiter(t *testing.T) {
	rl := newRateLimiter()
	for range 60 {
		if !rl.allow("10.0.0.1") {
			t.Fatal("allowed burst should not be limited")
		}
	}
	if rl.allow("10.0.0.1") {
		t.Error("61st request in a minute should be limited")
	}
	if !rl.allow("10.0.0.2") {
		t.Error("other IPs should not share the limit")
	}
}

// Package main implements the daykeep local HTTP server: it owns the day-log
// store and the recommendation engine and exposes both as a small JSON API.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/daykeep-dev/daykeep/pkg/daylog"
	"github.com/daykeep-dev/daykeep/pkg/home"
	"github.com/daykeep-dev/daykeep/pkg/recommend"
	"github.com/daykeep-dev/daykeep/pkg/stepsource"
)

var (
	port         = flag.String("port", "8080", "Port for the API server (or set PORT)")
	dataDir      = flag.String("data-dir", "", "Data directory; empty keeps the log in memory (or set DAYKEEP_DATA_DIR)")
	stepsURL     = flag.String("steps-url", "", "Health bridge base URL to poll for live step counts (or set DAYKEEP_STEPS_URL)")
	pollInterval = flag.Duration("poll-interval", 5*time.Minute, "Step poll interval when -steps-url is set")
	verbose      = flag.Bool("verbose", false, "Enable verbose logging")
	showVersion  = flag.Bool("version", false, "Show version")
)

type rateLimiter struct {
	requests map[string][]time.Time
	mu       sync.Mutex
}

func newRateLimiter() *rateLimiter {
	return &rateLimiter{requests: make(map[string][]time.Time)}
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-time.Minute)

	var valid []time.Time
	for _, t := range rl.requests[ip] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}

	// Rate limit: 60 requests per minute per IP
	if len(valid) >= 60 {
		rl.requests[ip] = valid
		return false
	}

	rl.requests[ip] = append(valid, now)
	return true
}

type server struct {
	store   daylog.Store
	engine  *recommend.Engine
	tracker *home.Tracker
	limiter *rateLimiter
	logger  *slog.Logger
}

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println("daykeep server v1.2.0")
		return
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	if *port == "8080" && os.Getenv("PORT") != "" {
		*port = os.Getenv("PORT")
	}
	if *dataDir == "" {
		*dataDir = os.Getenv("DAYKEEP_DATA_DIR")
	}
	if *stepsURL == "" {
		*stepsURL = os.Getenv("DAYKEEP_STEPS_URL")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var store daylog.Store
	if *dataDir != "" {
		sqlStore, err := daylog.NewSQLiteStore(*dataDir, logger)
		if err != nil {
			logger.Error("opening day log", "error", err)
			os.Exit(1)
		}
		defer sqlStore.Close()
		store = daylog.NewCachedStore(sqlStore, 30*time.Second, logger)
	} else {
		logger.Warn("no data directory configured; the day log lives in memory only")
		store = daylog.NewMemoryStore()
	}

	tracker, err := trackerFor(*dataDir, logger)
	if err != nil {
		logger.Error("loading home location", "error", err)
		os.Exit(1)
	}

	engine := recommend.NewEngine(ctx, store, logger)
	defer engine.Stop()
	engine.Subscribe(func(text string) {
		logger.Info("recommendation changed", "text", text)
	})

	if *stepsURL != "" {
		source := stepsource.New(*stepsURL, logger)
		go source.Poll(ctx, *pollInterval, func(steps int) {
			engine.RefreshWithSteps(ctx, steps)
		})
		logger.Info("step polling enabled", "url", *stepsURL, "interval", *pollInterval)
	}

	srv := &server{
		store:   store,
		engine:  engine,
		tracker: tracker,
		limiter: newRateLimiter(),
		logger:  logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", srv.handleHealthz)
	mux.HandleFunc("GET /api/recommendation", srv.limited(srv.handleRecommendation))
	mux.HandleFunc("POST /api/log", srv.limited(srv.handleLog))
	mux.HandleFunc("GET /api/today", srv.limited(srv.handleToday))
	mux.HandleFunc("POST /api/steps", srv.limited(srv.handleSteps))
	mux.HandleFunc("PUT /api/home", srv.limited(srv.handleSetHome))
	mux.HandleFunc("GET /api/home/distance", srv.limited(srv.handleHomeDistance))

	httpServer := &http.Server{
		Addr:              ":" + *port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       2 * time.Minute,
	}

	go func() {
		<-ctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown failed", "error", err)
		}
	}()

	logger.Info("daykeep server listening", "port", *port)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// trackerFor keeps the home location beside the day log, falling back to the
// user config dir for memory-only runs so the coordinate still survives.
func trackerFor(dir string, logger *slog.Logger) (*home.Tracker, error) {
	if dir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("determining config dir: %w", err)
		}
		dir = configDir + "/daykeep"
	}
	return home.NewTracker(dir, logger)
}

func (s *server) limited(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ip, _, err := net.SplitHostPort(r.RemoteAddr)
		if err != nil {
			ip = r.RemoteAddr
		}
		if !s.limiter.allow(ip) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next(w, r)
	}
}

func (s *server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Debug("writing response failed", "error", err)
	}
}

func (s *server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *server) handleRecommendation(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"recommendation": s.engine.Current()})
}

type logRequest struct {
	Food     string           `json:"food"`
	Sleep    string           `json:"sleep"`
	Workout  string           `json:"workout"`
	Steps    int              `json:"steps"`
	Location *daylog.Location `json:"location,omitempty"`
}

func (s *server) handleLog(w http.ResponseWriter, r *http.Request) {
	var req logRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<16)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	entry := daylog.DayEntry{
		Food:     req.Food,
		Sleep:    req.Sleep,
		Workout:  req.Workout,
		Steps:    req.Steps,
		Location: req.Location,
	}
	if entry.Empty() {
		http.Error(w, "entry has no logged fields", http.StatusBadRequest)
		return
	}
	if err := s.store.Append(r.Context(), entry); err != nil {
		s.logger.Error("appending entry failed", "error", err)
		http.Error(w, "storing entry failed", http.StatusInternalServerError)
		return
	}

	s.engine.Refresh(r.Context())
	s.writeJSON(w, http.StatusCreated, map[string]string{
		"status":         "logged",
		"recommendation": s.engine.Current(),
	})
}

func (s *server) handleToday(w http.ResponseWriter, r *http.Request) {
	entries, err := s.store.TodayEntries(r.Context())
	if err != nil {
		s.logger.Error("reading today's entries failed", "error", err)
		http.Error(w, "reading entries failed", http.StatusInternalServerError)
		return
	}
	if entries == nil {
		entries = []daylog.DayEntry{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"entries": entries})
}

type stepsRequest struct {
	Steps int `json:"steps"`
}

func (s *server) handleSteps(w http.ResponseWriter, r *http.Request) {
	var req stepsRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Steps < 0 {
		http.Error(w, "steps must be non-negative", http.StatusBadRequest)
		return
	}

	s.engine.RefreshWithSteps(r.Context(), req.Steps)
	s.writeJSON(w, http.StatusOK, map[string]string{"recommendation": s.engine.Current()})
}

func (s *server) handleSetHome(w http.ResponseWriter, r *http.Request) {
	var loc daylog.Location
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, 1<<10)).Decode(&loc); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if loc.Latitude < -90 || loc.Latitude > 90 || loc.Longitude < -180 || loc.Longitude > 180 {
		http.Error(w, "coordinates out of range", http.StatusBadRequest)
		return
	}
	if err := s.tracker.SetHome(loc); err != nil {
		s.logger.Error("saving home failed", "error", err)
		http.Error(w, "saving home failed", http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "saved"})
}

func (s *server) handleHomeDistance(w http.ResponseWriter, r *http.Request) {
	lat, errLat := parseCoord(r.URL.Query().Get("lat"))
	lon, errLon := parseCoord(r.URL.Query().Get("lon"))
	if errLat != nil || errLon != nil {
		http.Error(w, "lat and lon query parameters are required", http.StatusBadRequest)
		return
	}

	meters, ok := s.tracker.DistanceFrom(daylog.Location{Latitude: lat, Longitude: lon})
	if !ok {
		http.Error(w, "no home location saved", http.StatusNotFound)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]float64{"meters": meters})
}

func parseCoord(raw string) (float64, error) {
	if raw == "" {
		return 0, errors.New("missing coordinate")
	}
	return strconv.ParseFloat(raw, 64)
}

// Package home tracks the user's distance from a saved home location.
package home

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/daykeep-dev/daykeep/pkg/daylog"
)

const earthRadiusMeters = 6371000.0

// savedHome is the on-disk representation of the home coordinate.
type savedHome struct {
	Location daylog.Location `json:"location"`
	SetAt    time.Time       `json:"set_at"`
}

// Tracker holds the saved home coordinate and answers distance queries.
type Tracker struct {
	path   string
	logger *slog.Logger

	mu   sync.RWMutex
	home *savedHome
}

// NewTracker loads any previously saved home location from dir.
func NewTracker(dir string, logger *slog.Logger) (*Tracker, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	t := &Tracker{path: filepath.Join(dir, "home.json"), logger: logger}

	data, err := os.ReadFile(t.path)
	switch {
	case os.IsNotExist(err):
		// No home saved yet.
	case err != nil:
		return nil, fmt.Errorf("reading home location: %w", err)
	default:
		var h savedHome
		if err := json.Unmarshal(data, &h); err != nil {
			// A corrupt file just means home is unset again.
			logger.Warn("discarding unreadable home file", "path", t.path, "error", err)
		} else {
			t.home = &h
		}
	}
	return t, nil
}

// SetHome saves the home coordinate and persists it.
func (t *Tracker) SetHome(loc daylog.Location) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	h := &savedHome{Location: loc, SetAt: time.Now()}
	data, err := json.MarshalIndent(h, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding home location: %w", err)
	}
	if err := os.WriteFile(t.path, data, 0o600); err != nil {
		return fmt.Errorf("writing home location: %w", err)
	}
	t.home = h
	t.logger.Debug("home location saved", "lat", loc.Latitude, "lon", loc.Longitude)
	return nil
}

// Home returns the saved home coordinate, if any.
func (t *Tracker) Home() (daylog.Location, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.home == nil {
		return daylog.Location{}, false
	}
	return t.home.Location, true
}

// DistanceFrom returns the great-circle distance in meters between the given
// position and home. ok is false when no home has been saved.
func (t *Tracker) DistanceFrom(loc daylog.Location) (meters float64, ok bool) {
	homeLoc, ok := t.Home()
	if !ok {
		return 0, false
	}
	return HaversineMeters(homeLoc, loc), true
}

// HaversineMeters computes the great-circle distance between two coordinates.
func HaversineMeters(a, b daylog.Location) float64 {
	lat1 := a.Latitude * math.Pi / 180
	lat2 := b.Latitude * math.Pi / 180
	dLat := (b.Latitude - a.Latitude) * math.Pi / 180
	dLon := (b.Longitude - a.Longitude) * math.Pi / 180

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusMeters * math.Asin(math.Sqrt(h))
}

package home

import (
	"io"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/daykeep-dev/daykeep/pkg/daylog"
)

func writeCorrupt(dir string) error {
	return os.WriteFile(filepath.Join(dir, "home.json"), []byte("{not json"), 0o600)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestHaversineKnownDistances(t *testing.T) {
	tests := []struct {
		name       string
		a, b       daylog.Location
		wantMeters float64
		tolerance  float64
	}{
		{
			name:       "same point",
			a:          daylog.Location{Latitude: 52.37, Longitude: 4.89},
			b:          daylog.Location{Latitude: 52.37, Longitude: 4.89},
			wantMeters: 0,
			tolerance:  0.001,
		},
		{
			name:       "amsterdam to paris",
			a:          daylog.Location{Latitude: 52.3676, Longitude: 4.9041},
			b:          daylog.Location{Latitude: 48.8566, Longitude: 2.3522},
			wantMeters: 430_000,
			tolerance:  5_000,
		},
		{
			name:       "one degree latitude",
			a:          daylog.Location{Latitude: 0, Longitude: 0},
			b:          daylog.Location{Latitude: 1, Longitude: 0},
			wantMeters: 111_195,
			tolerance:  200,
		},
	}

	for _, tt := range tests {
		got := HaversineMeters(tt.a, tt.b)
		if math.Abs(got-tt.wantMeters) > tt.tolerance {
			t.Errorf("%s: HaversineMeters = %.0f, want %.0f ± %.0f", tt.name, got, tt.wantMeters, tt.tolerance)
		}
	}
}

func TestTrackerPersistsAcrossReload(t *testing.T) {
	dir := t.TempDir()

	tracker, err := NewTracker(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if _, ok := tracker.Home(); ok {
		t.Fatal("fresh tracker should have no home")
	}

	loc := daylog.Location{Latitude: 40.7128, Longitude: -74.006}
	if err := tracker.SetHome(loc); err != nil {
		t.Fatal(err)
	}

	reloaded, err := NewTracker(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	got, ok := reloaded.Home()
	if !ok {
		t.Fatal("home not persisted across reload")
	}
	if got != loc {
		t.Errorf("reloaded home = %+v, want %+v", got, loc)
	}
}

func TestTrackerDistanceFrom(t *testing.T) {
	tracker, err := NewTracker(t.TempDir(), testLogger())
	if err != nil {
		t.Fatal(err)
	}

	if _, ok := tracker.DistanceFrom(daylog.Location{Latitude: 1, Longitude: 1}); ok {
		t.Error("DistanceFrom should report no home")
	}

	homeLoc := daylog.Location{Latitude: 51.5074, Longitude: -0.1278}
	if err := tracker.SetHome(homeLoc); err != nil {
		t.Fatal(err)
	}

	meters, ok := tracker.DistanceFrom(homeLoc)
	if !ok || meters != 0 {
		t.Errorf("distance from home to itself = %v (ok %v), want 0", meters, ok)
	}
}

func TestTrackerSurvivesCorruptFile(t *testing.T) {
	dir := t.TempDir()
	tracker, err := NewTracker(dir, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	if err := tracker.SetHome(daylog.Location{Latitude: 1, Longitude: 2}); err != nil {
		t.Fatal(err)
	}

	// Corrupt the file; reload should treat home as unset, not fail.
	if err := writeCorrupt(dir); err != nil {
		t.Fatal(err)
	}
	reloaded, err := NewTracker(dir, testLogger())
	if err != nil {
		t.Fatalf("corrupt home file should not fail tracker creation: %v", err)
	}
	if _, ok := reloaded.Home(); ok {
		t.Error("corrupt home file should leave home unset")
	}
}

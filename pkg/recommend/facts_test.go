package recommend

import (
	"testing"
	"time"

	"github.com/daykeep-dev/daykeep/pkg/daylog"
)

func TestParseSleepHours(t *testing.T) {
	tests := []struct {
		input string
		want  float64
		known bool
	}{
		{"7.5", 7.5, true},
		{"8", 8, true},
		{" 6.25 ", 6.25, true},
		{"24", 24, true},
		{"30", 0, false},   // out of range
		{"0", 0, false},    // must be strictly positive
		{"-3", 0, false},
		{"abc", 0, false},
		{"", 0, false},
		{"   ", 0, false},
	}

	for _, tt := range tests {
		got, known := parseSleepHours(tt.input)
		if known != tt.known {
			t.Errorf("parseSleepHours(%q) known = %v, want %v", tt.input, known, tt.known)
		}
		if known && got != tt.want {
			t.Errorf("parseSleepHours(%q) = %v, want %v", tt.input, got, tt.want)
		}
	}
}

func TestDeriveFactsSleepUsesFirstParseableEntry(t *testing.T) {
	entries := []daylog.DayEntry{
		{Sleep: "not sure"},
		{Sleep: "6.5"},
		{Sleep: "9"}, // later entries don't override the first match
	}

	f := deriveFacts(entries, 10, 0)
	if !f.SleepKnown {
		t.Fatal("expected sleep to be known")
	}
	if f.SleepHours != 6.5 {
		t.Errorf("SleepHours = %v, want 6.5", f.SleepHours)
	}
}

func TestDeriveFactsEffectiveSteps(t *testing.T) {
	entries := []daylog.DayEntry{
		{Steps: 1200},
		{Steps: 4400},
		{Steps: 2100},
	}

	// Entry maximum wins when the live reading is stale.
	f := deriveFacts(entries, 10, 3000)
	if f.EffectiveSteps != 4400 {
		t.Errorf("EffectiveSteps = %d, want 4400", f.EffectiveSteps)
	}

	// A fresher live reading wins over every entry snapshot.
	f = deriveFacts(entries, 10, 9000)
	if f.EffectiveSteps != 9000 {
		t.Errorf("EffectiveSteps = %d, want 9000", f.EffectiveSteps)
	}

	// No entries and no live reading degrades to zero.
	f = deriveFacts(nil, 10, 0)
	if f.EffectiveSteps != 0 {
		t.Errorf("EffectiveSteps = %d, want 0", f.EffectiveSteps)
	}
}

func TestDeriveFactsLoggedFlags(t *testing.T) {
	entries := []daylog.DayEntry{
		{Food: "   "}, // whitespace only is not logged
		{Workout: "evening run"},
	}

	f := deriveFacts(entries, 10, 0)
	if f.HasFoodLogged {
		t.Error("whitespace-only food text should not count as logged")
	}
	if !f.HasWorkout {
		t.Error("expected workout to count as logged")
	}
}

func TestDeriveFactsTimeWindows(t *testing.T) {
	tests := []struct {
		hour      int
		evening   bool
		lateNight bool
	}{
		{0, false, true},
		{1, false, true},
		{2, false, false},
		{16, false, false},
		{17, true, false},
		{20, true, false},
		{21, true, true},
		{23, true, true},
	}

	for _, tt := range tests {
		f := deriveFacts(nil, tt.hour, 0)
		if f.IsEvening != tt.evening {
			t.Errorf("hour %d: IsEvening = %v, want %v", tt.hour, f.IsEvening, tt.evening)
		}
		if f.IsLateNight != tt.lateNight {
			t.Errorf("hour %d: IsLateNight = %v, want %v", tt.hour, f.IsLateNight, tt.lateNight)
		}
	}
}

func TestDeriveFactsIgnoresEntryTimestamps(t *testing.T) {
	// Facts come from entry content only; the store already filtered by day.
	entries := []daylog.DayEntry{
		{CreatedAt: time.Date(2026, 3, 1, 7, 0, 0, 0, time.Local), Sleep: "7"},
	}
	f := deriveFacts(entries, 9, 0)
	if !f.SleepKnown || f.SleepHours != 7 {
		t.Errorf("SleepHours = %v (known %v), want 7 known", f.SleepHours, f.SleepKnown)
	}
}

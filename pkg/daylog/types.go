// Package daylog defines the day-entry model and the stores that hold it.
package daylog

import (
	"strings"
	"time"
)

// Location is a geographic coordinate attached to an entry.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// DayEntry is one logged record of food/sleep/workout/steps for a moment in
// time. Empty text fields mean "not logged"; Steps may be 0 when the step
// reading was unavailable.
type DayEntry struct {
	CreatedAt time.Time `json:"created_at"`
	Food      string    `json:"food,omitempty"`
	Sleep     string    `json:"sleep,omitempty"`
	Workout   string    `json:"workout,omitempty"`
	Steps     int       `json:"steps"`
	Location  *Location `json:"location,omitempty"`
}

// HasFood reports whether the entry carries food text after trimming.
func (e DayEntry) HasFood() bool {
	return strings.TrimSpace(e.Food) != ""
}

// HasWorkout reports whether the entry carries workout text after trimming.
func (e DayEntry) HasWorkout() bool {
	return strings.TrimSpace(e.Workout) != ""
}

// Empty reports whether nothing at all was logged in the entry.
func (e DayEntry) Empty() bool {
	return !e.HasFood() && strings.TrimSpace(e.Sleep) == "" && !e.HasWorkout() &&
		e.Steps == 0 && e.Location == nil
}

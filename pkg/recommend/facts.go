// Package recommend scores wellness suggestions against the day's log.
package recommend

import (
	"strconv"
	"strings"

	"github.com/daykeep-dev/daykeep/pkg/daylog"
)

// Tunable thresholds for the rule table.
const (
	sleepTargetHours   = 8.0
	poorSleepHours     = 6.0
	lowStepsThreshold  = 3000
	highStepsThreshold = 8000
	caffeineCutoffHour = 16
	breakfastHour      = 8
	lunchHour          = 12
	eveningHour        = 17
	lateNightHour      = 21
)

// Facts are everything the rule table looks at, derived once per evaluation
// cycle from the day's entries and the current hour.
type Facts struct {
	SleepHours     float64
	SleepKnown     bool
	EffectiveSteps int
	HasFoodLogged  bool
	HasWorkout     bool
	Hour           int
	IsEvening      bool
	IsLateNight    bool
}

// parseSleepHours extracts a plausible hours-slept value from free-form text.
// Anything non-numeric or outside (0, 24] counts as "not logged" rather than
// an error.
func parseSleepHours(text string) (float64, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return 0, false
	}
	hours, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || hours <= 0 || hours > 24 {
		return 0, false
	}
	return hours, true
}

// deriveFacts computes the day's facts. liveSteps is the freshest externally
// supplied step reading (0 when none); effective steps is the larger of that
// and the highest step snapshot found in today's entries.
func deriveFacts(entries []daylog.DayEntry, hour, liveSteps int) Facts {
	f := Facts{
		Hour:        hour,
		IsEvening:   hour >= eveningHour,
		IsLateNight: hour >= lateNightHour || hour <= 1,
	}

	f.EffectiveSteps = liveSteps
	for _, e := range entries {
		if !f.SleepKnown {
			if hours, ok := parseSleepHours(e.Sleep); ok {
				f.SleepHours = hours
				f.SleepKnown = true
			}
		}
		if e.Steps > f.EffectiveSteps {
			f.EffectiveSteps = e.Steps
		}
		if e.HasFood() {
			f.HasFoodLogged = true
		}
		if e.HasWorkout() {
			f.HasWorkout = true
		}
	}
	return f
}

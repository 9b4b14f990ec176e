package recommend

// Category tags a candidate as a food suggestion or an activity suggestion.
// Both carry only a display string; the tag exists for explain output.
type Category string

const (
	CategoryAction Category = "action"
	CategoryFood   Category = "food"
)

// Candidate is a single scored suggestion considered during one evaluation
// cycle. Candidates are rebuilt from scratch every cycle and never persisted.
type Candidate struct {
	Rule     string   `json:"rule"`
	Category Category `json:"category"`
	Text     string   `json:"text"`
	Score    float64  `json:"score"`
}

// Fallback is returned when no rule matches.
const Fallback = "Drink water and keep logging your day."

// rule is one independent predicate/score pair. Rules are evaluated in table
// order, and ties between equal scores go to the earlier rule, so new rules
// must be appended rather than inserted.
type rule struct {
	name     string
	category Category
	text     string
	when     func(Facts) bool
	score    func(Facts) float64
}

func constScore(s float64) func(Facts) float64 {
	return func(Facts) float64 { return s }
}

// ruleTable is the full candidate set. Several rules have overlapping trigger
// windows (both sleep rules can fire together, and the late-night rule can
// coexist with the eat-more rules); that overlap is intentional.
var ruleTable = []rule{
	{
		name:     "caffeine-after-poor-sleep",
		category: CategoryFood,
		text:     "Increase caffeine intake.",
		when: func(f Facts) bool {
			return f.SleepKnown && f.SleepHours < poorSleepHours && f.Hour < caffeineCutoffHour
		},
		score: func(f Facts) float64 { return (sleepTargetHours - f.SleepHours) * 2.0 },
	},
	{
		name:     "sleep-earlier-after-poor-sleep",
		category: CategoryAction,
		text:     "Sleep earlier tonight.",
		when: func(f Facts) bool {
			return f.SleepKnown && f.SleepHours < poorSleepHours
		},
		score: func(f Facts) float64 { return (sleepTargetHours - f.SleepHours) * 1.8 },
	},
	{
		name:     "evening-walk",
		category: CategoryAction,
		text:     "Take a 10 minute walk.",
		when: func(f Facts) bool {
			return f.IsEvening && f.EffectiveSteps < lowStepsThreshold
		},
		score: func(f Facts) float64 {
			return float64(lowStepsThreshold-f.EffectiveSteps) / lowStepsThreshold * 10.0
		},
	},
	{
		name:     "daytime-stretch",
		category: CategoryAction,
		text:     "Stand up and stretch.",
		when: func(f Facts) bool {
			return f.EffectiveSteps < lowStepsThreshold && !f.IsEvening && f.Hour >= 10
		},
		score: constScore(5.0),
	},
	{
		name:     "protein-after-high-steps",
		category: CategoryFood,
		text:     "Eat a protein rich meal.",
		when: func(f Facts) bool {
			return f.EffectiveSteps >= highStepsThreshold
		},
		score: constScore(8.0),
	},
	{
		name:     "morning-snack",
		category: CategoryFood,
		text:     "Eat a balanced snack.",
		when: func(f Facts) bool {
			return !f.HasFoodLogged && f.Hour >= breakfastHour
		},
		score: constScore(9.0),
	},
	{
		name:     "late-night-food-caution",
		category: CategoryFood,
		text:     "Avoid heavy food before sleep.",
		when: func(f Facts) bool {
			return f.IsLateNight && (f.HasWorkout || f.EffectiveSteps > 5000)
		},
		score: constScore(7.0),
	},
	{
		name:     "nutrient-dense-lunch",
		category: CategoryFood,
		text:     "Add nutrient dense foods.",
		when: func(f Facts) bool {
			return !f.HasFoodLogged && f.Hour >= lunchHour
		},
		score: constScore(6.0),
	},
	{
		name:     "sleep-unlogged-evening",
		category: CategoryAction,
		text:     "Sleep earlier tonight.",
		when: func(f Facts) bool {
			return !f.SleepKnown && f.Hour >= 20
		},
		score: constScore(4.0),
	},
}

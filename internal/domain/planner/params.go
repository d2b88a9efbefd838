package planner

import "github.com/phrazzld/scry-lexicon/internal/domain"

// Params defines all configurable parameters for plan optimization
type Params struct {
	// Daily load bounds
	MinDailyTasks  int
	MaxDailyTasks  int
	MaxWordsPerDay int

	// Closed-loop adjustment
	IncreaseThreshold float64 // completion rate at or above which load goes up
	DecreaseThreshold float64 // completion rate below which load goes down
	IncreaseFactor    float64
	DecreaseFactor    float64

	// Profile-driven scaling of the base daily count
	FastMultiplier        float64
	SlowMultiplier        float64
	LowAccuracyThreshold  float64
	LowAccuracyMultiplier float64

	// Highest item difficulty offered at each level
	DifficultyCaps map[domain.ProficiencyLevel]int
}

// ParamsConfig allows overriding the default parameters. Zero values keep the default.
type ParamsConfig struct {
	MinDailyTasks  int `mapstructure:"min_daily_tasks"`
	MaxDailyTasks  int `mapstructure:"max_daily_tasks"`
	MaxWordsPerDay int `mapstructure:"max_words_per_day"`
}

// NewDefaultParams creates a new Params instance with default values
func NewDefaultParams() *Params {
	return &Params{
		MinDailyTasks:  10,
		MaxDailyTasks:  50,
		MaxWordsPerDay: 50,

		IncreaseThreshold: 0.9,
		DecreaseThreshold: 0.5,
		IncreaseFactor:    1.1,
		DecreaseFactor:    0.8,

		FastMultiplier:        1.2,
		SlowMultiplier:        0.8,
		LowAccuracyThreshold:  0.6,
		LowAccuracyMultiplier: 0.9,

		DifficultyCaps: map[domain.ProficiencyLevel]int{
			domain.LevelBeginner:     2,
			domain.LevelIntermediate: 4,
			domain.LevelAdvanced:     5,
		},
	}
}

// NewParams creates a new Params instance with custom configuration
func NewParams(config ParamsConfig) *Params {
	params := NewDefaultParams()

	if config.MinDailyTasks > 0 {
		params.MinDailyTasks = config.MinDailyTasks
	}
	if config.MaxDailyTasks > 0 {
		params.MaxDailyTasks = config.MaxDailyTasks
	}
	if config.MaxWordsPerDay > 0 {
		params.MaxWordsPerDay = config.MaxWordsPerDay
	}

	return params
}

// goalCategories lists the vocabulary categories that serve each goal,
// most important first.
var goalCategories = map[domain.GoalType][]string{
	domain.GoalTypeExam:     {"CORE", "ACADEMIC", "HIGH_FREQUENCY", "COMPLEX"},
	domain.GoalTypeTravel:   {"GREETING", "TRANSPORTATION", "ACCOMMODATION", "DINING"},
	domain.GoalTypeBusiness: {"EMAIL", "MEETING", "TERMINOLOGY", "NEGOTIATION"},
	domain.GoalTypeDaily:    {"CONVERSATION", "LIFESTYLE", "HOBBIES"},
}

// GoalCategories returns the categories relevant to a goal, most important first.
func GoalCategories(goal domain.GoalType) []string {
	cats := goalCategories[goal]
	out := make([]string, len(cats))
	copy(out, cats)
	return out
}

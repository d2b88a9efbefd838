package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// GoalType is the kind of goal a learner is preparing for.
type GoalType string

// Supported goal types
const (
	GoalTypeExam     GoalType = "EXAM"
	GoalTypeTravel   GoalType = "TRAVEL"
	GoalTypeBusiness GoalType = "BUSINESS"
	GoalTypeDaily    GoalType = "DAILY"
)

// ProficiencyLevel is the learner's self-reported or assessed level.
type ProficiencyLevel string

// Supported proficiency levels
const (
	LevelBeginner     ProficiencyLevel = "BEGINNER"
	LevelIntermediate ProficiencyLevel = "INTERMEDIATE"
	LevelAdvanced     ProficiencyLevel = "ADVANCED"
)

// SpeedTrend classifies how fast a learner picks up new words.
type SpeedTrend string

// Speed trends derived from the average number of words learned per day.
const (
	SpeedTrendFast   SpeedTrend = "FAST"
	SpeedTrendNormal SpeedTrend = "NORMAL"
	SpeedTrendSlow   SpeedTrend = "SLOW"
)

// Common validation errors for LearningProfile
var (
	ErrEmptyProfileUserID   = errors.New("learning profile user ID cannot be empty")
	ErrInvalidGoalType      = errors.New("invalid goal type")
	ErrInvalidLevel         = errors.New("invalid proficiency level")
	ErrEmptyTargetDate      = errors.New("target date cannot be empty")
	ErrInvalidTargetWordCnt = errors.New("target word count cannot be negative")
)

// TimePreferences holds the share of activity in each local time-of-day
// window. The fractions sum to 1, or are all zero when there is no activity.
type TimePreferences struct {
	Morning   float64 `json:"morning"`
	Afternoon float64 `json:"afternoon"`
	Evening   float64 `json:"evening"`
}

// WeakArea is a topic whose error rate exceeds the weakness threshold.
type WeakArea struct {
	Topic     string  `json:"type"`
	ErrorRate float64 `json:"error_rate"`
}

// LearningProfile holds a learner's goal and the behavioral signals the
// analytics engine derives from their history.
type LearningProfile struct {
	UserID           uuid.UUID        `json:"user_id"`
	Level            ProficiencyLevel `json:"level"`
	GoalType         GoalType         `json:"goal_type"`
	TargetDate       time.Time        `json:"target_date"`
	TargetWordCount  int              `json:"target_word_count"`
	PreferredTimes   TimePreferences  `json:"preferred_times"`
	WeakAreas        []WeakArea       `json:"weak_areas"`
	AverageDailyWord float64          `json:"average_daily_words"`
	AverageAccuracy  float64          `json:"average_accuracy"`
	SpeedTrend       SpeedTrend       `json:"speed_trend"`
	LastAnalyzedAt   time.Time        `json:"last_analyzed_at"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// NewLearningProfile creates the profile recorded at onboarding.
func NewLearningProfile(
	userID uuid.UUID,
	level ProficiencyLevel,
	goal GoalType,
	targetDate time.Time,
	targetWordCount int,
	now time.Time,
) (*LearningProfile, error) {
	profile := &LearningProfile{
		UserID:          userID,
		Level:           level,
		GoalType:        goal,
		TargetDate:      targetDate,
		TargetWordCount: targetWordCount,
		SpeedTrend:      SpeedTrendNormal,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := profile.Validate(); err != nil {
		return nil, err
	}

	return profile, nil
}

// Validate checks if the LearningProfile has valid data.
func (p *LearningProfile) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrEmptyProfileUserID
	}
	if !p.GoalType.IsValid() {
		return ErrInvalidGoalType
	}
	if !p.Level.IsValid() {
		return ErrInvalidLevel
	}
	if p.TargetDate.IsZero() {
		return ErrEmptyTargetDate
	}
	if p.TargetWordCount < 0 {
		return ErrInvalidTargetWordCnt
	}
	return nil
}

// IsValid reports whether g is one of the supported goal types.
func (g GoalType) IsValid() bool {
	switch g {
	case GoalTypeExam, GoalTypeTravel, GoalTypeBusiness, GoalTypeDaily:
		return true
	default:
		return false
	}
}

// IsValid reports whether l is one of the supported levels.
func (l ProficiencyLevel) IsValid() bool {
	switch l {
	case LevelBeginner, LevelIntermediate, LevelAdvanced:
		return true
	default:
		return false
	}
}

// ClassifySpeed maps an average number of words learned per day to a trend.
func ClassifySpeed(wordsPerDay float64) SpeedTrend {
	switch {
	case wordsPerDay >= 50:
		return SpeedTrendFast
	case wordsPerDay >= 20:
		return SpeedTrendNormal
	default:
		return SpeedTrendSlow
	}
}

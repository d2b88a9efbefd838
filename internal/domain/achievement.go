package domain

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

// AchievementCategory groups achievements by what they measure.
type AchievementCategory string

// Achievement categories
const (
	AchievementCategoryStreak    AchievementCategory = "STREAK"
	AchievementCategoryMilestone AchievementCategory = "MILESTONE"
	AchievementCategoryMastery   AchievementCategory = "MASTERY"
	AchievementCategoryReview    AchievementCategory = "REVIEW"
)

// ErrEmptyStreakUserID is returned when a streak has no user.
var ErrEmptyStreakUserID = errors.New("learning streak user ID cannot be empty")

// Achievement is a badge definition from the catalog.
type Achievement struct {
	Code          string              `json:"code"`
	Name          string              `json:"name"`
	Description   string              `json:"description"`
	Category      AchievementCategory `json:"category"`
	RequiredValue int                 `json:"required_value"`
}

// DefaultAchievements returns the built-in achievement catalog.
func DefaultAchievements() []Achievement {
	return []Achievement{
		{Code: "STREAK_7", Name: "Week Warrior", Description: "Study 7 days in a row", Category: AchievementCategoryStreak, RequiredValue: 7},
		{Code: "STREAK_30", Name: "Monthly Master", Description: "Study 30 days in a row", Category: AchievementCategoryStreak, RequiredValue: 30},
		{Code: "STREAK_100", Name: "Centurion", Description: "Study 100 days in a row", Category: AchievementCategoryStreak, RequiredValue: 100},
		{Code: "WORDS_100", Name: "Word Collector", Description: "Master 100 words", Category: AchievementCategoryMilestone, RequiredValue: 100},
		{Code: "WORDS_500", Name: "Vocabulary Builder", Description: "Master 500 words", Category: AchievementCategoryMilestone, RequiredValue: 500},
		{Code: "WORDS_1000", Name: "Lexicon Legend", Description: "Master 1000 words", Category: AchievementCategoryMilestone, RequiredValue: 1000},
		{Code: "ACCURACY_90", Name: "Sharpshooter", Description: "Reach 90% accuracy over at least 50 answers", Category: AchievementCategoryMastery, RequiredValue: 90},
		{Code: "REVIEW_100", Name: "Diligent Reviewer", Description: "Complete 100 reviews", Category: AchievementCategoryReview, RequiredValue: 100},
	}
}

// UserAchievement is an append-only record of an unlocked achievement.
type UserAchievement struct {
	UserID     uuid.UUID `json:"user_id"     db:"user_id"`
	Code       string    `json:"code"        db:"code"`
	UnlockedAt time.Time `json:"unlocked_at" db:"unlocked_at"`
}

// LearningStreak counts consecutive local days with at least one review.
type LearningStreak struct {
	UserID         uuid.UUID `json:"user_id"`
	CurrentStreak  int       `json:"current_streak"`
	LongestStreak  int       `json:"longest_streak"`
	LastActiveDate time.Time `json:"last_active_date"` // local midnight, zero if never active
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewLearningStreak creates an empty streak for a user.
func NewLearningStreak(userID uuid.UUID, now time.Time) (*LearningStreak, error) {
	if userID == uuid.Nil {
		return nil, ErrEmptyStreakUserID
	}
	return &LearningStreak{UserID: userID, UpdatedAt: now}, nil
}

// RecordActivity advances the streak for activity on the given local day.
// Activity on the same day is a no-op, on the following day extends the
// streak, and after a gap restarts it at 1. It reports whether the streak
// changed.
func (s *LearningStreak) RecordActivity(day time.Time, now time.Time) bool {
	day = StartOfDay(day)

	switch {
	case s.LastActiveDate.IsZero():
		s.CurrentStreak = 1
	case !day.After(s.LastActiveDate):
		return false
	case StartOfDay(s.LastActiveDate.AddDate(0, 0, 1)).Equal(day):
		s.CurrentStreak++
	default:
		s.CurrentStreak = 1
	}

	if s.CurrentStreak > s.LongestStreak {
		s.LongestStreak = s.CurrentStreak
	}
	s.LastActiveDate = day
	s.UpdatedAt = now
	return true
}

// Rebuild recomputes the streak from the days on which the user was active,
// given in any order and with repeats, and reports whether it changed. It is
// used when activity for an earlier day arrives after a later one. Activity
// only ever extends a streak: unless the days reach past LastActiveDate,
// neither counter drops below its stored value. LastActiveDate itself always
// counts as active.
func (s *LearningStreak) Rebuild(days []time.Time, now time.Time) bool {
	if len(days) == 0 {
		return false
	}
	if !s.LastActiveDate.IsZero() {
		days = append(days[:len(days):len(days)], s.LastActiveDate)
	}

	seen := make(map[int64]bool, len(days))
	unique := make([]time.Time, 0, len(days))
	for _, d := range days {
		d = StartOfDay(d)
		if !seen[d.Unix()] {
			seen[d.Unix()] = true
			unique = append(unique, d)
		}
	}
	sort.Slice(unique, func(i, j int) bool { return unique[i].Before(unique[j]) })

	run, longest := 0, 0
	for i, d := range unique {
		if i > 0 && StartOfDay(unique[i-1].AddDate(0, 0, 1)).Equal(d) {
			run++
		} else {
			run = 1
		}
		longest = max(longest, run)
	}
	last := unique[len(unique)-1]

	current := run
	if last.Equal(s.LastActiveDate) {
		current = max(s.CurrentStreak, run)
	}
	longest = max(longest, current, s.LongestStreak)

	if current == s.CurrentStreak && longest == s.LongestStreak && last.Equal(s.LastActiveDate) {
		return false
	}
	s.CurrentStreak = current
	s.LongestStreak = longest
	s.LastActiveDate = last
	s.UpdatedAt = now
	return true
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

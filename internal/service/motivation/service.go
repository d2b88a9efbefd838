// Package motivation maintains learning streaks and grants achievements.
// It only reads the memory record state produced by the review workflow and
// is fed asynchronously by review-completed events.
package motivation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/clock"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/phrazzld/scry-lexicon/internal/events"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/service"
	"github.com/phrazzld/scry-lexicon/internal/store"
)

// ServiceName identifies this service in ServiceError values.
const ServiceName = "motivation"

// minAccuracyAnswers is how many answers the accuracy achievement needs before it counts.
const minAccuracyAnswers = 50

// CalendarDays is how many local days the learning calendar covers, ending today.
const CalendarDays = 30

// UnlockedAchievement pairs a catalog entry with when the user unlocked it.
type UnlockedAchievement struct {
	domain.Achievement
	UnlockedAt time.Time `json:"unlocked_at"`
}

// AchievementProgress is one catalog entry and whether the user holds it.
type AchievementProgress struct {
	Code       string                     `json:"code"`
	Name       string                     `json:"name"`
	Category   domain.AchievementCategory `json:"category"`
	Unlocked   bool                       `json:"unlocked"`
	UnlockedAt *time.Time                 `json:"unlocked_at,omitempty"`
}

// AchievementSummary counts the unlocked part of the catalog.
type AchievementSummary struct {
	Total    int     `json:"total"`
	Unlocked int     `json:"unlocked"`
	Progress float64 `json:"progress"` // 0..1
}

// CalendarDay is one local day of the learning calendar.
type CalendarDay struct {
	Date    string `json:"date"` // YYYY-MM-DD
	Learned bool   `json:"learned"`
	Reviews int    `json:"reviews"`
}

// Progress is the motivation overview of one learner: streak, the whole
// achievement catalog with what is unlocked, the last CalendarDays days of
// activity and overall mastery.
type Progress struct {
	CurrentStreak   int                   `json:"current_streak"`
	LongestStreak   int                   `json:"longest_streak"`
	LastActiveDate  *time.Time            `json:"last_active_date,omitempty"`
	Achievements    []AchievementProgress `json:"achievements"`
	Summary         AchievementSummary    `json:"summary"`
	Calendar        []CalendarDay         `json:"calendar"` // oldest first
	TotalWords      int                   `json:"total_words"`
	MasteredWords   int                   `json:"mastered_words"`
	MasteryProgress float64               `json:"mastery_progress"` // 0..1
}

// Service tracks streaks and achievements.
type Service struct {
	achievements store.AchievementStore
	records      store.MemoryRecordStore
	activities   store.ActivityStore
	catalog      []domain.Achievement
	clock        clock.Clock
	loc          *time.Location
	logger       *slog.Logger

	// userLocks serializes streak updates per user.
	userLocks sync.Map
}

// NewService creates the motivation service. Streak days are counted in loc
// (UTC when nil).
func NewService(
	achievements store.AchievementStore,
	records store.MemoryRecordStore,
	activities store.ActivityStore,
	clk clock.Clock,
	loc *time.Location,
	logger *slog.Logger,
) *Service {
	if achievements == nil {
		panic("achievements store cannot be nil")
	}
	if records == nil {
		panic("records store cannot be nil")
	}
	if activities == nil {
		panic("activities store cannot be nil")
	}
	if clk == nil {
		clk = clock.System{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		achievements: achievements,
		records:      records,
		activities:   activities,
		catalog:      domain.DefaultAchievements(),
		clock:        clk,
		loc:          loc,
		logger:       logger.With(slog.String("component", "motivation_service")),
	}
}

func (s *Service) lockUser(userID uuid.UUID) func() {
	m, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu := m.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}

// UpdateStreak counts activity at the given time toward the user's streak.
// Activity for a day before the last active one, as happens when review
// events are handled out of order, rebuilds the streak from the review
// history.
func (s *Service) UpdateStreak(ctx context.Context, userID uuid.UUID, at time.Time) (*domain.LearningStreak, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	now := s.clock.Now()
	streak, err := s.achievements.GetStreak(ctx, userID)
	if err != nil {
		if !errors.Is(err, store.ErrStreakNotFound) {
			return nil, service.NewServiceError(ServiceName, "update_streak", err)
		}
		streak, err = domain.NewLearningStreak(userID, now)
		if err != nil {
			return nil, service.NewServiceError(ServiceName, "update_streak", err)
		}
	}
	if !streak.LastActiveDate.IsZero() {
		streak.LastActiveDate = streak.LastActiveDate.In(s.loc)
	}

	day := domain.StartOfDay(at.In(s.loc))
	var changed bool
	if !streak.LastActiveDate.IsZero() && day.Before(streak.LastActiveDate) {
		changed, err = s.rebuildStreak(ctx, streak, day, now)
		if err != nil {
			return nil, service.NewServiceError(ServiceName, "update_streak", err)
		}
	} else {
		changed = streak.RecordActivity(day, now)
	}
	if !changed {
		return streak, nil
	}
	if err := s.achievements.SaveStreak(ctx, streak); err != nil {
		return nil, service.NewServiceError(ServiceName, "update_streak", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("streak updated",
		slog.String("user_id", userID.String()),
		slog.Int("current_streak", streak.CurrentStreak),
		slog.Int("longest_streak", streak.LongestStreak))
	return streak, nil
}

func (s *Service) rebuildStreak(
	ctx context.Context,
	streak *domain.LearningStreak,
	day time.Time,
	now time.Time,
) (bool, error) {
	history, err := s.activities.ListByUser(ctx, streak.UserID, time.Time{})
	if err != nil {
		return false, err
	}

	days := make([]time.Time, 0, len(history)+1)
	days = append(days, day)
	for _, a := range history {
		days = append(days, a.OccurredAt.In(s.loc))
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("rebuilding streak from history",
		slog.String("user_id", streak.UserID.String()),
		slog.Time("day", day),
		slog.Int("activities", len(history)))
	return streak.Rebuild(days, now), nil
}

// CheckAndGrant unlocks every catalog achievement the user now qualifies for
// and returns the ones unlocked by this call. Already unlocked achievements
// are never granted twice.
func (s *Service) CheckAndGrant(ctx context.Context, userID uuid.UUID) ([]domain.Achievement, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.clock.Now()

	currentStreak := 0
	streak, err := s.achievements.GetStreak(ctx, userID)
	switch {
	case err == nil:
		currentStreak = streak.CurrentStreak
	case !errors.Is(err, store.ErrStreakNotFound):
		return nil, service.NewServiceError(ServiceName, "check_and_grant", err)
	}

	stats, err := s.records.Statistics(ctx, userID, now)
	if err != nil {
		return nil, service.NewServiceError(ServiceName, "check_and_grant", err)
	}

	granted := make([]domain.Achievement, 0)
	for _, a := range s.catalog {
		if !qualifies(a, currentStreak, stats) {
			continue
		}
		unlocked, err := s.achievements.Unlock(ctx, domain.UserAchievement{
			UserID:     userID,
			Code:       a.Code,
			UnlockedAt: now,
		})
		if err != nil {
			return granted, service.NewServiceError(ServiceName, "check_and_grant",
				fmt.Errorf("unlock %s: %w", a.Code, err))
		}
		if unlocked {
			log.Info("achievement unlocked",
				slog.String("user_id", userID.String()),
				slog.String("code", a.Code))
			granted = append(granted, a)
		}
	}
	return granted, nil
}

func qualifies(a domain.Achievement, currentStreak int, stats *domain.MemoryStatistics) bool {
	switch a.Category {
	case domain.AchievementCategoryStreak:
		return currentStreak >= a.RequiredValue
	case domain.AchievementCategoryMilestone:
		return stats.MasteredWords >= a.RequiredValue
	case domain.AchievementCategoryMastery:
		answers := stats.CorrectCount + stats.WrongCount
		return answers >= minAccuracyAnswers && stats.AccuracyRate*100 >= float64(a.RequiredValue)
	case domain.AchievementCategoryReview:
		return stats.TotalReviews >= a.RequiredValue
	default:
		return false
	}
}

// Achievements returns the user's unlocked achievements, oldest first.
// Unlock rows whose code is no longer in the catalog are skipped.
func (s *Service) Achievements(ctx context.Context, userID uuid.UUID) ([]UnlockedAchievement, error) {
	rows, err := s.achievements.ListUnlocked(ctx, userID)
	if err != nil {
		return nil, service.NewServiceError(ServiceName, "achievements", err)
	}

	byCode := make(map[string]domain.Achievement, len(s.catalog))
	for _, a := range s.catalog {
		byCode[a.Code] = a
	}

	out := make([]UnlockedAchievement, 0, len(rows))
	for _, row := range rows {
		a, ok := byCode[row.Code]
		if !ok {
			continue
		}
		out = append(out, UnlockedAchievement{Achievement: a, UnlockedAt: row.UnlockedAt})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].UnlockedAt.Before(out[j].UnlockedAt) })
	return out, nil
}

// Progress returns the user's motivation overview. Users without any
// activity get zero counts, an all-locked catalog and an empty calendar.
func (s *Service) Progress(ctx context.Context, userID uuid.UUID) (*Progress, error) {
	now := s.clock.Now()
	today := domain.StartOfDay(now.In(s.loc))
	from := today.AddDate(0, 0, -(CalendarDays - 1))

	p := &Progress{
		Achievements: make([]AchievementProgress, 0, len(s.catalog)),
		Calendar:     make([]CalendarDay, 0, CalendarDays),
	}

	streak, err := s.achievements.GetStreak(ctx, userID)
	switch {
	case err == nil:
		p.CurrentStreak = streak.CurrentStreak
		p.LongestStreak = streak.LongestStreak
		if !streak.LastActiveDate.IsZero() {
			last := streak.LastActiveDate.In(s.loc)
			p.LastActiveDate = &last
		}
	case !errors.Is(err, store.ErrStreakNotFound):
		return nil, service.NewServiceError(ServiceName, "progress", err)
	}

	rows, err := s.achievements.ListUnlocked(ctx, userID)
	if err != nil {
		return nil, service.NewServiceError(ServiceName, "progress", err)
	}
	unlockedAt := make(map[string]time.Time, len(rows))
	for _, row := range rows {
		unlockedAt[row.Code] = row.UnlockedAt
	}
	for _, a := range s.catalog {
		entry := AchievementProgress{Code: a.Code, Name: a.Name, Category: a.Category}
		if at, ok := unlockedAt[a.Code]; ok {
			entry.Unlocked = true
			entry.UnlockedAt = &at
			p.Summary.Unlocked++
		}
		p.Achievements = append(p.Achievements, entry)
	}
	p.Summary.Total = len(s.catalog)
	if p.Summary.Total > 0 {
		p.Summary.Progress = float64(p.Summary.Unlocked) / float64(p.Summary.Total)
	}

	recent, err := s.activities.ListByUser(ctx, userID, from)
	if err != nil {
		return nil, service.NewServiceError(ServiceName, "progress", err)
	}
	perDay := make(map[int64]int, CalendarDays)
	for _, a := range recent {
		perDay[domain.StartOfDay(a.OccurredAt.In(s.loc)).Unix()]++
	}
	for i := 0; i < CalendarDays; i++ {
		d := from.AddDate(0, 0, i)
		n := perDay[d.Unix()]
		p.Calendar = append(p.Calendar, CalendarDay{Date: d.Format(time.DateOnly), Learned: n > 0, Reviews: n})
	}

	stats, err := s.records.Statistics(ctx, userID, now)
	if err != nil {
		return nil, service.NewServiceError(ServiceName, "progress", err)
	}
	p.TotalWords = stats.TotalWords
	p.MasteredWords = stats.MasteredWords
	if stats.TotalWords > 0 {
		p.MasteryProgress = float64(stats.MasteredWords) / float64(stats.TotalWords)
	}
	return p, nil
}

// RecordReviewActivity updates the streak for a completed review and grants
// any achievements it earned. It is the background task entry point.
func (s *Service) RecordReviewActivity(ctx context.Context, review events.ReviewCompleted) error {
	at := review.OccurredAt
	if at.IsZero() {
		at = s.clock.Now()
	}
	if _, err := s.UpdateStreak(ctx, review.UserID, at); err != nil {
		return err
	}
	if _, err := s.CheckAndGrant(ctx, review.UserID); err != nil {
		return err
	}
	return nil
}

// Package progress answers read-only questions about a learner's progress:
// the progress curve, the behavioral profile derived from recent activity,
// and the combined dashboard view.
package progress

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/clock"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/phrazzld/scry-lexicon/internal/domain/analytics"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/service"
	"github.com/phrazzld/scry-lexicon/internal/service/motivation"
	"github.com/phrazzld/scry-lexicon/internal/store"
	"golang.org/x/sync/errgroup"
)

// ServiceName identifies this service in ServiceError values.
const ServiceName = "progress"

// AnalysisWindow is how much recent history AnalyzeProfile and the
// dashboard signals look at.
const AnalysisWindow = 30 * 24 * time.Hour

// Dashboard is the combined progress view of one learner.
type Dashboard struct {
	Statistics     *domain.MemoryStatistics `json:"statistics"`
	Curve          *domain.ProgressCurve    `json:"curve"`
	Streak         *domain.LearningStreak   `json:"streak,omitempty"`
	Plan           *domain.StudyPlan        `json:"plan,omitempty"`
	TodayTasks     []*domain.DailyTask      `json:"today_tasks"`
	PreferredTimes domain.TimePreferences   `json:"preferred_times"`
	WeakAreas      []domain.WeakArea        `json:"weak_areas"`
	LearningSpeed  float64                  `json:"learning_speed"`
	Motivation     *motivation.Progress     `json:"motivation,omitempty"`
}

// MotivationReader supplies the streak, achievement and calendar overview.
type MotivationReader interface {
	Progress(ctx context.Context, userID uuid.UUID) (*motivation.Progress, error)
}

// Dependencies groups the collaborators of the progress service.
type Dependencies struct {
	Records      store.MemoryRecordStore
	Activities   store.ActivityStore
	Profiles     store.ProfileStore
	Plans        store.PlanStore
	Achievements store.AchievementStore
	Engine       analytics.Engine
	Clock        clock.Clock
	Motivation   MotivationReader // optional
}

// Service serves progress queries. Its reads may trail a review that is
// still being stored.
type Service struct {
	deps   Dependencies
	loc    *time.Location
	logger *slog.Logger
}

// NewService creates the progress service. Calendar days are taken in loc
// (UTC when nil).
func NewService(deps Dependencies, loc *time.Location, logger *slog.Logger) *Service {
	if deps.Records == nil || deps.Activities == nil || deps.Profiles == nil ||
		deps.Plans == nil || deps.Achievements == nil {
		panic("progress stores cannot be nil")
	}
	if loc == nil {
		loc = time.UTC
	}
	if deps.Engine == nil {
		deps.Engine = analytics.NewEngine(loc)
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		deps:   deps,
		loc:    loc,
		logger: logger.With(slog.String("component", "progress_service")),
	}
}

// GetProgressCurve returns the user's curve for the last days calendar days.
func (s *Service) GetProgressCurve(ctx context.Context, userID uuid.UUID, days int) (*domain.ProgressCurve, error) {
	curve, err := s.curve(ctx, userID, days, s.deps.Clock.Now())
	if err != nil {
		return nil, service.NewServiceError(ServiceName, "get_progress_curve", err)
	}
	return curve, nil
}

func (s *Service) curve(ctx context.Context, userID uuid.UUID, days int, now time.Time) (*domain.ProgressCurve, error) {
	// The cumulative series need the whole history, not just the window.
	history, err := s.deps.Activities.ListByUser(ctx, userID, time.Time{})
	if err != nil {
		return nil, err
	}
	return s.deps.Engine.GenerateProgressCurve(history, days, now)
}

// AnalyzeProfile recomputes the behavioral fields of the user's profile from
// the last AnalysisWindow of activity and stores them.
func (s *Service) AnalyzeProfile(ctx context.Context, userID uuid.UUID) (*domain.LearningProfile, error) {
	now := s.deps.Clock.Now()

	profile, err := s.deps.Profiles.Get(ctx, userID)
	if err != nil {
		return nil, service.NewServiceError(ServiceName, "analyze_profile", err)
	}

	recent, err := s.deps.Activities.ListByUser(ctx, userID, now.Add(-AnalysisWindow))
	if err != nil {
		return nil, service.NewServiceError(ServiceName, "analyze_profile", err)
	}

	engine := s.deps.Engine
	profile.PreferredTimes = engine.AnalyzeTimePreferences(recent)
	profile.WeakAreas = engine.IdentifyWeakAreas(recent)
	profile.AverageDailyWord = engine.CalculateLearningSpeed(recent)
	profile.AverageAccuracy = engine.CalculateAccuracy(recent)
	profile.SpeedTrend = domain.ClassifySpeed(profile.AverageDailyWord)
	profile.LastAnalyzedAt = now
	profile.UpdatedAt = now

	if err := s.deps.Profiles.Upsert(ctx, profile); err != nil {
		return nil, service.NewServiceError(ServiceName, "analyze_profile", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("learning profile analyzed",
		slog.String("user_id", userID.String()),
		slog.Int("activities", len(recent)),
		slog.Float64("average_daily_words", profile.AverageDailyWord),
		slog.String("speed_trend", string(profile.SpeedTrend)),
		slog.Int("weak_areas", len(profile.WeakAreas)))
	return profile, nil
}

// Dashboard gathers statistics, the progress curve, streak, plan, recent
// behavioral signals and, when configured, the motivation overview
// concurrently. Missing optional parts (no streak, no plan) are left empty.
func (s *Service) Dashboard(ctx context.Context, userID uuid.UUID, days int) (*Dashboard, error) {
	now := s.deps.Clock.Now()
	board := &Dashboard{TodayTasks: []*domain.DailyTask{}}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		stats, err := s.deps.Records.Statistics(gctx, userID, now)
		board.Statistics = stats
		return err
	})

	g.Go(func() error {
		curve, err := s.curve(gctx, userID, days, now)
		board.Curve = curve
		return err
	})

	g.Go(func() error {
		streak, err := s.deps.Achievements.GetStreak(gctx, userID)
		if errors.Is(err, store.ErrStreakNotFound) {
			return nil
		}
		board.Streak = streak
		return err
	})

	g.Go(func() error {
		plan, err := s.deps.Plans.GetActive(gctx, userID)
		if errors.Is(err, store.ErrPlanNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		board.Plan = plan
		tasks, err := s.deps.Plans.ListTasks(gctx, plan.ID, domain.StartOfDay(now.In(s.loc)))
		if err != nil {
			return err
		}
		board.TodayTasks = tasks
		return nil
	})

	g.Go(func() error {
		recent, err := s.deps.Activities.ListByUser(gctx, userID, now.Add(-AnalysisWindow))
		if err != nil {
			return err
		}
		board.PreferredTimes = s.deps.Engine.AnalyzeTimePreferences(recent)
		board.WeakAreas = s.deps.Engine.IdentifyWeakAreas(recent)
		board.LearningSpeed = s.deps.Engine.CalculateLearningSpeed(recent)
		return nil
	})

	if s.deps.Motivation != nil {
		g.Go(func() error {
			p, err := s.deps.Motivation.Progress(gctx, userID)
			board.Motivation = p
			return err
		})
	}

	if err := g.Wait(); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to build dashboard",
			slog.String("user_id", userID.String()),
			slog.String("error", err.Error()))
		return nil, service.NewServiceError(ServiceName, "dashboard", err)
	}
	return board, nil
}

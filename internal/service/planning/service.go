// Package planning owns study plans: generating them from a learner's
// profile, composing each day's tasks, recording task completion and
// adjusting the daily load to how much of it the learner completes.
package planning

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/clock"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/phrazzld/scry-lexicon/internal/domain/planner"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/service"
	"github.com/phrazzld/scry-lexicon/internal/store"
	"golang.org/x/sync/singleflight"
)

// ServiceName identifies this service in ServiceError values.
const ServiceName = "planning"

// maxPlanUpdateAttempts bounds the read-modify-write cycles of one plan update.
const maxPlanUpdateAttempts = 3

// ProfileInput is the learner-controlled part of a LearningProfile.
type ProfileInput struct {
	Level           domain.ProficiencyLevel
	GoalType        domain.GoalType
	TargetDate      time.Time
	TargetWordCount int
}

// RefreshSummary reports the outcome of a daily refresh run.
type RefreshSummary struct {
	Users     int
	Adjusted  int
	Completed int
	Failed    int
}

// Dependencies groups the collaborators of the planning service.
type Dependencies struct {
	Profiles   store.ProfileStore
	Plans      store.PlanStore
	Records    store.MemoryRecordStore
	Vocabulary store.VocabularyStore
	Engine     planner.Engine
	Clock      clock.Clock
}

// Service manages study plans. Plan generation for a user is collapsed
// in-process with singleflight; the store's ReplaceActive keeps a single
// ACTIVE plan across processes.
type Service struct {
	profiles   store.ProfileStore
	plans      store.PlanStore
	records    store.MemoryRecordStore
	vocabulary store.VocabularyStore
	engine     planner.Engine
	clock      clock.Clock
	loc        *time.Location
	logger     *slog.Logger
	flights    singleflight.Group
}

// NewService creates the planning service. Calendar days are taken in loc
// (UTC when nil).
func NewService(deps Dependencies, loc *time.Location, logger *slog.Logger) *Service {
	if deps.Profiles == nil || deps.Plans == nil || deps.Records == nil || deps.Vocabulary == nil {
		panic("planning stores cannot be nil")
	}
	if deps.Engine == nil {
		deps.Engine = planner.NewDefaultEngine()
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		profiles:   deps.Profiles,
		plans:      deps.Plans,
		records:    deps.Records,
		vocabulary: deps.Vocabulary,
		engine:     deps.Engine,
		clock:      deps.Clock,
		loc:        loc,
		logger:     logger.With(slog.String("component", "planning_service")),
	}
}

func (s *Service) now() time.Time {
	return s.clock.Now().In(s.loc)
}

// UpdateProfile stores the learner's goal and regenerates their plan. The
// analysis fields of an existing profile are kept.
func (s *Service) UpdateProfile(ctx context.Context, userID uuid.UUID, input ProfileInput) (*domain.LearningProfile, error) {
	now := s.now()

	profile, err := s.profiles.Get(ctx, userID)
	switch {
	case err == nil:
		profile.Level = input.Level
		profile.GoalType = input.GoalType
		profile.TargetDate = input.TargetDate
		profile.TargetWordCount = input.TargetWordCount
		profile.UpdatedAt = now
		if err := profile.Validate(); err != nil {
			return nil, service.NewServiceError(ServiceName, "update_profile", fmt.Errorf("%w: %w", domain.ErrValidation, err))
		}
	case errors.Is(err, store.ErrProfileNotFound):
		profile, err = domain.NewLearningProfile(userID, input.Level, input.GoalType, input.TargetDate, input.TargetWordCount, now)
		if err != nil {
			return nil, service.NewServiceError(ServiceName, "update_profile", fmt.Errorf("%w: %w", domain.ErrValidation, err))
		}
	default:
		return nil, service.NewServiceError(ServiceName, "update_profile", err)
	}

	if err := s.profiles.Upsert(ctx, profile); err != nil {
		return nil, service.NewServiceError(ServiceName, "update_profile", err)
	}

	if _, err := s.RegeneratePlan(ctx, userID); err != nil {
		return nil, err
	}
	return profile, nil
}

// GetOrGeneratePlan returns the user's ACTIVE plan, generating one when the
// user has none. The user must have a profile.
func (s *Service) GetOrGeneratePlan(ctx context.Context, userID uuid.UUID) (*domain.StudyPlan, error) {
	plan, err := s.plans.GetActive(ctx, userID)
	if err == nil {
		return plan, nil
	}
	if !errors.Is(err, store.ErrPlanNotFound) {
		return nil, service.NewServiceError(ServiceName, "get_or_generate_plan", err)
	}

	plan, err = s.generateOnce(ctx, userID, true)
	if err != nil {
		return nil, service.NewServiceError(ServiceName, "get_or_generate_plan", err)
	}
	return plan, nil
}

// RegeneratePlan builds a new plan from the current profile and analytics
// and supersedes the user's ACTIVE plan.
func (s *Service) RegeneratePlan(ctx context.Context, userID uuid.UUID) (*domain.StudyPlan, error) {
	plan, err := s.generateOnce(ctx, userID, false)
	if err != nil {
		return nil, service.NewServiceError(ServiceName, "regenerate_plan", err)
	}
	return plan, nil
}

// generateOnce collapses concurrent generations for the same user and mode.
// Every caller gets its own copy of the plan.
func (s *Service) generateOnce(ctx context.Context, userID uuid.UUID, onlyIfMissing bool) (*domain.StudyPlan, error) {
	key := "regenerate:" + userID.String()
	if onlyIfMissing {
		key = "ensure:" + userID.String()
	}

	v, err, shared := s.flights.Do(key, func() (interface{}, error) {
		if onlyIfMissing {
			plan, err := s.plans.GetActive(ctx, userID)
			if err == nil {
				return plan, nil
			}
			if !errors.Is(err, store.ErrPlanNotFound) {
				return nil, err
			}
		}
		return s.generate(ctx, userID)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.FromContextOrDefault(ctx, s.logger).Debug("plan generation shared",
			slog.String("user_id", userID.String()))
	}

	plan := *v.(*domain.StudyPlan)
	return &plan, nil
}

func (s *Service) generate(ctx context.Context, userID uuid.UUID) (*domain.StudyPlan, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(slog.String("user_id", userID.String()))
	now := s.now()

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	pool, err := s.vocabulary.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load vocabulary pool: %w", err)
	}

	path, err := s.engine.GenerateLearningPath(planner.PathRequest{
		GoalType:     profile.GoalType,
		TargetDate:   profile.TargetDate,
		CurrentLevel: profile.Level,
		Now:          now,
		Pool:         pool,
		WeakAreas:    profile.WeakAreas,
	})
	if err != nil {
		return nil, err
	}

	target := profile.TargetWordCount
	if target == 0 {
		target = path.TotalWords
	}
	count, err := s.engine.CalculateDailyTaskCount(profile, planner.RemainingDays(now, profile.TargetDate), target)
	if err != nil {
		return nil, err
	}

	plan, err := domain.NewStudyPlan(profile, path, count, now)
	if err != nil {
		return nil, err
	}

	superseded, err := s.plans.ReplaceActive(ctx, plan)
	if err != nil {
		return nil, err
	}
	log.Info("study plan generated",
		slog.String("plan_id", plan.ID.String()),
		slog.String("superseded_plan_id", superseded.String()),
		slog.Int("daily_task_count", plan.DailyTaskCount),
		slog.Int("total_words", plan.Path.TotalWords))

	if _, err := s.ensureTasks(ctx, plan, profile, now); err != nil {
		return nil, fmt.Errorf("failed to create daily tasks: %w", err)
	}
	return plan, nil
}

// EnsureDailyTasks returns today's tasks of the user's ACTIVE plan, creating
// them if this is the first request of the day.
func (s *Service) EnsureDailyTasks(ctx context.Context, userID uuid.UUID) ([]*domain.DailyTask, error) {
	plan, err := s.plans.GetActive(ctx, userID)
	if err != nil {
		return nil, service.NewServiceError(ServiceName, "ensure_daily_tasks", err)
	}

	profile, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, service.NewServiceError(ServiceName, "ensure_daily_tasks", err)
	}

	tasks, err := s.ensureTasks(ctx, plan, profile, s.now())
	if err != nil {
		return nil, service.NewServiceError(ServiceName, "ensure_daily_tasks", err)
	}
	return tasks, nil
}

func (s *Service) ensureTasks(
	ctx context.Context,
	plan *domain.StudyPlan,
	profile *domain.LearningProfile,
	now time.Time,
) ([]*domain.DailyTask, error) {
	today := domain.StartOfDay(now)

	existing, err := s.plans.ListTasks(ctx, plan.ID, today)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return existing, nil
	}

	records, err := s.records.ListByUser(ctx, plan.UserID)
	if err != nil {
		return nil, err
	}
	seen := make(map[uuid.UUID]bool, len(records))
	for _, r := range records {
		seen[r.ItemID] = true
	}

	due, err := s.records.FindDueReviews(ctx, plan.UserID, now, min(plan.DailyTaskCount, store.MaxDueLimit))
	if err != nil {
		return nil, err
	}
	dueIDs := make([]uuid.UUID, len(due))
	for i, r := range due {
		dueIDs[i] = r.ItemID
	}

	weakIDs, err := s.weakItemIDs(ctx, profile.WeakAreas)
	if err != nil {
		return nil, err
	}

	tasks, err := s.engine.ComposeDailyTasks(planner.DayRequest{
		Plan:        plan,
		Date:        today,
		Seen:        seen,
		DueItemIDs:  dueIDs,
		WeakItemIDs: weakIDs,
		HasWeakArea: len(profile.WeakAreas) > 0,
	}, now)
	if err != nil {
		return nil, err
	}

	if err := s.plans.CreateTasks(ctx, tasks); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			// Another caller created today's tasks first.
			return s.plans.ListTasks(ctx, plan.ID, today)
		}
		return nil, err
	}
	return s.plans.ListTasks(ctx, plan.ID, today)
}

// weakItemIDs lists pool items from the weak topics, weakest topic first.
func (s *Service) weakItemIDs(ctx context.Context, weak []domain.WeakArea) ([]uuid.UUID, error) {
	if len(weak) == 0 {
		return nil, nil
	}
	pool, err := s.vocabulary.List(ctx)
	if err != nil {
		return nil, err
	}

	byCategory := make(map[string][]uuid.UUID)
	for _, item := range pool {
		c := domain.NormalizeCategory(item.Category)
		byCategory[c] = append(byCategory[c], item.ID)
	}

	ids := make([]uuid.UUID, 0)
	for _, w := range weak {
		ids = append(ids, byCategory[domain.NormalizeCategory(w.Topic)]...)
	}
	return ids, nil
}

// CompleteTask records the outcome of one of the user's daily tasks and
// refreshes the plan's completion rate for that day.
func (s *Service) CompleteTask(
	ctx context.Context,
	userID, taskID uuid.UUID,
	completedCount int,
) (*domain.DailyTask, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)
	now := s.now()

	task, err := s.plans.GetTask(ctx, taskID)
	if err != nil {
		return nil, service.NewServiceError(ServiceName, "complete_task", err)
	}
	if task.UserID != userID {
		log.Warn("user does not own daily task",
			slog.String("user_id", userID.String()),
			slog.String("task_id", taskID.String()))
		return nil, service.NewServiceError(ServiceName, "complete_task", service.ErrNotOwned)
	}

	if err := task.Complete(completedCount, now); err != nil {
		return nil, service.NewServiceError(ServiceName, "complete_task", fmt.Errorf("%w: %w", domain.ErrValidation, err))
	}
	if err := s.plans.UpdateTask(ctx, task); err != nil {
		return nil, service.NewServiceError(ServiceName, "complete_task", err)
	}

	_, err = s.updateActivePlan(ctx, userID, func(plan *domain.StudyPlan) (bool, error) {
		if plan.ID != task.PlanID {
			return false, nil
		}
		dayTasks, err := s.plans.ListTasks(ctx, plan.ID, task.Date)
		if err != nil {
			return false, err
		}
		plan.CompletionRate = domain.CompletionRate(dayTasks)
		plan.UpdatedAt = now
		return true, nil
	})
	if err != nil && !errors.Is(err, store.ErrPlanNotFound) {
		return nil, service.NewServiceError(ServiceName, "complete_task", err)
	}

	log.Debug("daily task completed",
		slog.String("task_id", taskID.String()),
		slog.Int("completed_count", completedCount))
	return task, nil
}

// AdjustPlan feeds yesterday's completion rate back into the daily task
// count of the user's ACTIVE plan. It runs at most once per local day; a
// day without tasks changes nothing.
func (s *Service) AdjustPlan(ctx context.Context, userID uuid.UUID) (*domain.StudyPlan, error) {
	now := s.now()
	today := domain.StartOfDay(now)
	yesterday := today.AddDate(0, 0, -1)

	var (
		rate     float64
		adjusted bool
	)
	plan, err := s.updateActivePlan(ctx, userID, func(plan *domain.StudyPlan) (bool, error) {
		adjusted = false
		if plan.AdjustedFor(now) {
			return false, nil
		}

		tasks, err := s.plans.ListTasks(ctx, plan.ID, yesterday)
		if err != nil {
			return false, err
		}
		if len(tasks) == 0 {
			return false, nil
		}

		rate = domain.CompletionRate(tasks)
		count, err := s.engine.AdjustTaskDifficulty(rate, plan.DailyTaskCount)
		if err != nil {
			return false, err
		}

		plan.CompletionRate = rate
		plan.AdjustedOn = today
		plan.UpdatedAt = now
		reason := fmt.Sprintf("completion rate %.0f%% on %s", rate*100, yesterday.Format(time.DateOnly))
		adjusted = plan.RecordAdjustment(count, reason, now)
		return true, nil
	})
	if err != nil {
		return nil, service.NewServiceError(ServiceName, "adjust_plan", err)
	}

	if adjusted {
		logger.FromContextOrDefault(ctx, s.logger).Info("daily task count adjusted",
			slog.String("user_id", userID.String()),
			slog.String("plan_id", plan.ID.String()),
			slog.Float64("completion_rate", rate),
			slog.Int("old_count", plan.Adjustments[0].OldCount),
			slog.Int("new_count", plan.DailyTaskCount))
	}
	return plan, nil
}

// updateActivePlan applies mutate to a fresh copy of the user's ACTIVE plan
// and stores it. On a version conflict the plan is re-read and mutate runs
// again. When mutate reports no change nothing is written.
func (s *Service) updateActivePlan(
	ctx context.Context,
	userID uuid.UUID,
	mutate func(plan *domain.StudyPlan) (bool, error),
) (*domain.StudyPlan, error) {
	for attempt := 1; ; attempt++ {
		plan, err := s.plans.GetActive(ctx, userID)
		if err != nil {
			return nil, err
		}

		changed, err := mutate(plan)
		if err != nil {
			return nil, err
		}
		if !changed {
			return plan, nil
		}

		err = s.plans.Update(ctx, plan)
		if err == nil {
			return plan, nil
		}
		if !store.IsConflictError(err) {
			return nil, err
		}
		if attempt >= maxPlanUpdateAttempts {
			logger.FromContextOrDefault(ctx, s.logger).Warn("plan update conflict retries exhausted",
				slog.String("user_id", userID.String()),
				slog.Int("attempts", attempt))
			return nil, fmt.Errorf("%w: %w", service.ErrTransient, err)
		}
		if err := ctx.Err(); err != nil {
			return nil, err
		}
	}
}

// RefreshDaily is the daily-boundary job: for every user with an ACTIVE
// plan it completes plans whose target date has arrived, and otherwise
// adjusts the load and creates the day's tasks. A failure for one user does
// not stop the others.
func (s *Service) RefreshDaily(ctx context.Context) (RefreshSummary, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	userIDs, err := s.plans.ListActiveUserIDs(ctx)
	if err != nil {
		return RefreshSummary{}, service.NewServiceError(ServiceName, "refresh_daily", err)
	}

	summary := RefreshSummary{Users: len(userIDs)}
	for _, userID := range userIDs {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		completed, adjusted, err := s.refreshUser(ctx, userID)
		switch {
		case err != nil:
			summary.Failed++
			log.Error("daily plan refresh failed",
				slog.String("user_id", userID.String()),
				slog.String("error", err.Error()))
		case completed:
			summary.Completed++
		case adjusted:
			summary.Adjusted++
		}
	}

	log.Info("daily plan refresh finished",
		slog.Int("users", summary.Users),
		slog.Int("adjusted", summary.Adjusted),
		slog.Int("completed", summary.Completed),
		slog.Int("failed", summary.Failed))
	return summary, nil
}

func (s *Service) refreshUser(ctx context.Context, userID uuid.UUID) (completed, adjusted bool, err error) {
	now := s.now()

	plan, err := s.updateActivePlan(ctx, userID, func(plan *domain.StudyPlan) (bool, error) {
		completed = planner.RemainingDays(now, plan.TargetDate) <= 0
		if !completed {
			return false, nil
		}
		plan.Status = domain.PlanStatusCompleted
		plan.UpdatedAt = now
		return true, nil
	})
	if err != nil {
		return false, false, err
	}
	if completed {
		return true, false, nil
	}

	before := plan.DailyTaskCount
	plan, err = s.AdjustPlan(ctx, userID)
	if err != nil {
		return false, false, err
	}
	if _, err := s.EnsureDailyTasks(ctx, userID); err != nil {
		return false, false, err
	}
	return false, plan.DailyTaskCount != before, nil
}

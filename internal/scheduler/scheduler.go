// Package scheduler runs recurring maintenance jobs at fixed local times.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/phrazzld/scry-lexicon/internal/service/planning"
)

// JobPlanRefresh is the tag of the daily plan maintenance job.
const JobPlanRefresh = "plan_refresh"

// ErrUnknownJob is returned when no job carries the requested name.
var ErrUnknownJob = errors.New("unknown job")

// Job is the body of a scheduled job.
type Job func(ctx context.Context) error

// Scheduler wraps a gocron scheduler. Each job runs in singleton mode so a
// slow run is never overlapped by the next one.
type Scheduler struct {
	cron   *gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
	logger *slog.Logger

	stopOnce sync.Once
}

// New creates a scheduler whose times are interpreted in loc.
func New(loc *time.Location, logger *slog.Logger) *Scheduler {
	if loc == nil {
		loc = time.UTC
	}
	if logger == nil {
		logger = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	cron := gocron.NewScheduler(loc)
	cron.SingletonModeAll()
	cron.TagsUnique()
	return &Scheduler{
		cron:   cron,
		ctx:    ctx,
		cancel: cancel,
		logger: logger.With(slog.String("component", "scheduler")),
	}
}

// Daily registers job under name to run every day at the HH:MM time at.
func (s *Scheduler) Daily(name, at string, job Job) error {
	if job == nil {
		return fmt.Errorf("job %s has no body", name)
	}
	_, err := s.cron.Every(1).Day().At(at).Tag(name).Do(s.wrap(name, job))
	if err != nil {
		return fmt.Errorf("failed to schedule job %s at %s: %w", name, at, err)
	}
	s.logger.Info("job scheduled", slog.String("job", name), slog.String("at", at))
	return nil
}

func (s *Scheduler) wrap(name string, job Job) func() {
	return func() {
		log := s.logger.With(slog.String("job", name))
		started := time.Now()
		defer func() {
			if r := recover(); r != nil {
				log.Error("job panicked", slog.Any("panic", r))
			}
		}()
		if err := job(s.ctx); err != nil {
			log.Error("job failed",
				slog.String("error", err.Error()),
				slog.Duration("elapsed", time.Since(started)))
			return
		}
		log.Info("job finished", slog.Duration("elapsed", time.Since(started)))
	}
}

// NextRun reports when the named job fires next. It is only meaningful once
// the scheduler has started.
func (s *Scheduler) NextRun(name string) (time.Time, error) {
	jobs, err := s.cron.FindJobsByTag(name)
	if err != nil || len(jobs) == 0 {
		return time.Time{}, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
	return jobs[0].NextRun(), nil
}

// RunNow triggers the named job outside its schedule. The scheduler must be
// started; the job runs asynchronously.
func (s *Scheduler) RunNow(name string) error {
	if err := s.cron.RunByTag(name); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnknownJob, name, err)
	}
	return nil
}

// Start begins running jobs in the background.
func (s *Scheduler) Start() {
	s.cron.StartAsync()
	s.logger.Info("scheduler started", slog.Int("jobs", s.cron.Len()))
}

// Stop halts the scheduler and cancels the context of running jobs.
func (s *Scheduler) Stop() {
	s.stopOnce.Do(func() {
		s.cron.Stop()
		s.cancel()
		s.logger.Info("scheduler stopped")
	})
}

// PlanRefresher performs the daily study plan maintenance pass.
type PlanRefresher interface {
	RefreshDaily(ctx context.Context) (planning.RefreshSummary, error)
}

// RefreshPlansJob adapts a PlanRefresher to a Job. Per-user failures fail
// the run so they surface in the job log.
func RefreshPlansJob(refresher PlanRefresher) Job {
	return func(ctx context.Context) error {
		summary, err := refresher.RefreshDaily(ctx)
		if err != nil {
			return err
		}
		if summary.Failed > 0 {
			return fmt.Errorf("%d of %d users failed to refresh", summary.Failed, summary.Users)
		}
		return nil
	}
}

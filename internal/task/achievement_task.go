package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/events"
)

// ReviewActivityRecorder updates streaks and achievements for a completed
// review. The motivation service implements it.
type ReviewActivityRecorder interface {
	RecordReviewActivity(ctx context.Context, review events.ReviewCompleted) error
}

// AchievementCheckTask records one completed review with a ReviewActivityRecorder.
type AchievementCheckTask struct {
	id       uuid.UUID
	review   events.ReviewCompleted
	recorder ReviewActivityRecorder
	logger   *slog.Logger
}

var _ Task = (*AchievementCheckTask)(nil)

// NewAchievementCheckTask creates a task for the given review.
func NewAchievementCheckTask(
	review events.ReviewCompleted,
	recorder ReviewActivityRecorder,
	logger *slog.Logger,
) (*AchievementCheckTask, error) {
	if review.UserID == uuid.Nil {
		return nil, fmt.Errorf("achievement check requires a user ID")
	}
	if recorder == nil {
		return nil, fmt.Errorf("achievement check requires a recorder")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &AchievementCheckTask{
		id:       uuid.New(),
		review:   review,
		recorder: recorder,
		logger:   logger,
	}, nil
}

// ID returns the task's unique identifier
func (t *AchievementCheckTask) ID() uuid.UUID {
	return t.id
}

// Type returns TypeAchievementCheck
func (t *AchievementCheckTask) Type() string {
	return TypeAchievementCheck
}

// Execute forwards the review to the recorder.
func (t *AchievementCheckTask) Execute(ctx context.Context) error {
	log := t.logger.With(
		"task_id", t.id,
		"user_id", t.review.UserID,
		"item_id", t.review.ItemID,
	)

	if err := t.recorder.RecordReviewActivity(ctx, t.review); err != nil {
		log.Error("failed to record review activity", "error", err)
		return fmt.Errorf("achievement check for user %s: %w", t.review.UserID, err)
	}

	log.Debug("review activity recorded")
	return nil
}

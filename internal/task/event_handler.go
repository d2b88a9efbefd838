package task

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/phrazzld/scry-lexicon/internal/events"
)

// TaskSubmitter accepts tasks for background execution. TaskRunner implements it.
type TaskSubmitter interface {
	Submit(ctx context.Context, task Task) error
}

// ReviewEventHandler implements events.EventHandler. It turns each
// review-completed event into an AchievementCheckTask and submits it.
// Other event types are ignored.
type ReviewEventHandler struct {
	recorder  ReviewActivityRecorder
	submitter TaskSubmitter
	logger    *slog.Logger
}

var _ events.EventHandler = (*ReviewEventHandler)(nil)

// NewReviewEventHandler creates a handler that submits achievement checks to submitter.
func NewReviewEventHandler(
	recorder ReviewActivityRecorder,
	submitter TaskSubmitter,
	logger *slog.Logger,
) *ReviewEventHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &ReviewEventHandler{
		recorder:  recorder,
		submitter: submitter,
		logger:    logger.With("component", "review_event_handler"),
	}
}

// HandleEvent processes events by creating and submitting tasks.
func (h *ReviewEventHandler) HandleEvent(ctx context.Context, event *events.Event) error {
	if event == nil {
		return fmt.Errorf("event is nil")
	}
	if event.Type != events.TypeReviewCompleted {
		h.logger.Debug("ignoring event with unsupported type",
			"event_type", event.Type,
			"event_id", event.ID)
		return nil
	}

	var review events.ReviewCompleted
	if err := event.UnmarshalPayload(&review); err != nil {
		h.logger.Error("failed to decode review payload",
			"error", err,
			"event_id", event.ID)
		return fmt.Errorf("failed to decode review payload: %w", err)
	}

	t, err := NewAchievementCheckTask(review, h.recorder, h.logger)
	if err != nil {
		return fmt.Errorf("failed to create achievement check task: %w", err)
	}

	if err := h.submitter.Submit(ctx, t); err != nil {
		h.logger.Error("failed to submit achievement check task",
			"error", err,
			"task_id", t.ID(),
			"user_id", review.UserID)
		return fmt.Errorf("failed to submit achievement check task: %w", err)
	}

	h.logger.Debug("achievement check task submitted",
		"task_id", t.ID(),
		"user_id", review.UserID)
	return nil
}

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/domain"
)

// ProfileStore defines the interface for learning profile persistence.
type ProfileStore interface {
	// Get retrieves the user's profile.
	// Returns ErrProfileNotFound if the user has none.
	Get(ctx context.Context, userID uuid.UUID) (*domain.LearningProfile, error)

	// Upsert creates or replaces the user's profile.
	// Returns ErrInvalidEntity if the profile fails validation.
	Upsert(ctx context.Context, profile *domain.LearningProfile) error
}

// PlanStore defines the interface for study plan and daily task persistence.
type PlanStore interface {
	// GetActive retrieves the user's ACTIVE plan.
	// Returns ErrPlanNotFound if the user has none.
	GetActive(ctx context.Context, userID uuid.UUID) (*domain.StudyPlan, error)

	// ReplaceActive marks the user's current ACTIVE plan (if any) SUPERSEDED
	// and inserts plan as the new ACTIVE one, atomically. Calls for the same
	// user are serialized, so a user never has two ACTIVE plans.
	// It returns the ID of the superseded plan, or uuid.Nil. On success
	// plan.Version is set to 1.
	ReplaceActive(ctx context.Context, plan *domain.StudyPlan) (uuid.UUID, error)

	// Update persists the mutable fields of a plan: daily task count,
	// completion rate, status, adjustments, AdjustedOn and UpdatedAt.
	// The write only succeeds if the stored version equals plan.Version,
	// which is then incremented.
	// Returns ErrConcurrencyConflict when the stored version differs and
	// ErrPlanNotFound if the plan does not exist.
	Update(ctx context.Context, plan *domain.StudyPlan) error

	// ListActiveUserIDs returns the users that currently have an ACTIVE plan.
	ListActiveUserIDs(ctx context.Context) ([]uuid.UUID, error)

	// CreateTasks saves a day's tasks. Returns ErrDuplicate if a task of the
	// same type already exists for the plan and date; nothing is saved then.
	CreateTasks(ctx context.Context, tasks []*domain.DailyTask) error

	// ListTasks returns the plan's tasks for the given day ordered by type.
	ListTasks(ctx context.Context, planID uuid.UUID, date time.Time) ([]*domain.DailyTask, error)

	// GetTask retrieves a daily task by ID.
	// Returns ErrTaskNotFound if it does not exist.
	GetTask(ctx context.Context, taskID uuid.UUID) (*domain.DailyTask, error)

	// UpdateTask persists the completion state of a task.
	// Returns ErrTaskNotFound if it does not exist.
	UpdateTask(ctx context.Context, task *domain.DailyTask) error
}

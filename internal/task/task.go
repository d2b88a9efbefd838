package task

import (
	"context"

	"github.com/google/uuid"
)

// TypeAchievementCheck refreshes a learner's streak and achievements after
// a review.
const TypeAchievementCheck = "achievement_check"

// Task is a unit of background work executed by a TaskRunner worker.
type Task interface {
	ID() uuid.UUID
	Type() string
	Execute(ctx context.Context) error
}

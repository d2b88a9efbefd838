// Package review implements the review workflow: answering an item moves its
// memory record through the spaced-repetition engine, the result is stored
// under optimistic concurrency, and a review-completed event is published for
// the achievement tracker.
package review

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/content"
	"github.com/phrazzld/scry-lexicon/internal/domain"
)

// ServiceName identifies this service in ServiceError values.
const ServiceName = "review"

// Service defines the review operations exposed to callers.
type Service interface {
	// SubmitReview records one answer for (userID, itemID) and returns the
	// updated memory record. The record is created on first exposure.
	//
	// A concurrent submission for the same item is retried from a fresh read
	// up to Config.MaxConflictRetries times; after that the error wraps both
	// service.ErrTransient and store.ErrConcurrencyConflict. An item outside
	// the vocabulary pool yields service.ErrUnknownItem.
	//
	// Publishing the review-completed event happens after the record is
	// stored; its failure is logged and never undoes the update.
	SubmitReview(ctx context.Context, userID, itemID uuid.UUID, isCorrect bool) (*domain.MemoryRecord, error)

	// GetDueReviews returns the user's due records, most overdue first.
	// A non-positive limit means Config.DefaultDueLimit.
	GetDueReviews(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.MemoryRecord, error)

	// GetStatistics returns the aggregate view of the user's memory records.
	GetStatistics(ctx context.Context, userID uuid.UUID) (*domain.MemoryStatistics, error)

	// PrepareExercise asks the content collaborator for practice content.
	// Collaborator failures are returned as domain.ErrUpstreamUnavailable;
	// no state is changed either way.
	PrepareExercise(ctx context.Context, itemID uuid.UUID, kind content.ExerciseKind) (*content.Exercise, error)
}

// Config controls retry and paging behavior of the review service.
type Config struct {
	DefaultDueLimit    int
	MaxConflictRetries int
	// RetryBackoff is the base wait before a retry; attempt n waits n times as long.
	RetryBackoff time.Duration
}

// DefaultConfig returns the configuration used when none is supplied.
func DefaultConfig() Config {
	return Config{
		DefaultDueLimit:    20,
		MaxConflictRetries: 3,
		RetryBackoff:       10 * time.Millisecond,
	}
}

package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/domain"
)

// Due-review query bounds.
const (
	DefaultDueLimit = 20
	MaxDueLimit     = 200
)

// NormalizeDueLimit maps a caller-supplied limit into (0, MaxDueLimit].
// Non-positive limits mean DefaultDueLimit.
func NormalizeDueLimit(limit int) int {
	if limit <= 0 {
		return DefaultDueLimit
	}
	if limit > MaxDueLimit {
		return MaxDueLimit
	}
	return limit
}

// MemoryRecordStore defines the interface for memory record persistence.
type MemoryRecordStore interface {
	// Create saves a new memory record.
	// Returns ErrMemoryRecordExists if the user already has a record for the item,
	// or ErrInvalidEntity if the record fails validation.
	// On success record.Version is set to 1.
	Create(ctx context.Context, record *domain.MemoryRecord) error

	// Get retrieves the record for a user and item.
	// Returns ErrMemoryRecordNotFound if it does not exist.
	Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.MemoryRecord, error)

	// Update replaces the stored record if its version still equals
	// record.Version, then increments record.Version.
	// Returns ErrConcurrencyConflict when the stored version differs and
	// ErrMemoryRecordNotFound when there is no record to replace.
	// Of two concurrent updates from the same base version, exactly one
	// succeeds.
	Update(ctx context.Context, record *domain.MemoryRecord) error

	// FindDueReviews returns the user's records with NextReviewAt <= now,
	// most overdue first, ties broken by lower mastery and then item ID.
	// The limit is normalized with NormalizeDueLimit.
	FindDueReviews(ctx context.Context, userID uuid.UUID, now time.Time, limit int) ([]*domain.MemoryRecord, error)

	// CountMasteredByUser returns how many of the user's records are MASTERED.
	CountMasteredByUser(ctx context.Context, userID uuid.UUID) (int, error)

	// CountTotalByUser returns how many records the user has.
	CountTotalByUser(ctx context.Context, userID uuid.UUID) (int, error)

	// Statistics returns the aggregate view of the user's records.
	// Records due at now count as pending. A user without records gets
	// zeroed statistics, not an error.
	Statistics(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.MemoryStatistics, error)

	// ListByUser returns all of the user's records ordered by item ID.
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryRecord, error)

	// DeleteByUser erases every record of the user and returns how many were removed.
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

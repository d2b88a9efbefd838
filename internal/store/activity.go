package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/domain"
)

// ActivityStore defines the interface for the append-only review history.
type ActivityStore interface {
	// Append adds one activity to the user's history.
	Append(ctx context.Context, activity *domain.Activity) error

	// ListByUser returns the user's activities that occurred at or after
	// since, oldest first. A zero since returns the whole history.
	ListByUser(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.Activity, error)

	// DeleteByUser erases the user's history and returns how many entries were removed.
	DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

// AchievementStore defines the interface for streaks and unlocked achievements.
type AchievementStore interface {
	// GetStreak retrieves the user's streak.
	// Returns ErrStreakNotFound if the user has never been active.
	GetStreak(ctx context.Context, userID uuid.UUID) (*domain.LearningStreak, error)

	// SaveStreak creates or replaces the user's streak.
	SaveStreak(ctx context.Context, streak *domain.LearningStreak) error

	// Unlock records an unlocked achievement. It reports false, without
	// error, when the user had already unlocked it.
	Unlock(ctx context.Context, achievement domain.UserAchievement) (bool, error)

	// ListUnlocked returns the user's unlocked achievements, oldest first.
	ListUnlocked(ctx context.Context, userID uuid.UUID) ([]domain.UserAchievement, error)
}

// VocabularyStore defines the interface for the shared vocabulary pool.
type VocabularyStore interface {
	// UpsertMany inserts or replaces items by ID and returns how many were written.
	UpsertMany(ctx context.Context, items []domain.VocabularyItem) (int, error)

	// Get retrieves one item.
	// Returns ErrVocabularyItemNotFound if it does not exist.
	Get(ctx context.Context, id uuid.UUID) (*domain.VocabularyItem, error)

	// List returns the whole pool ordered by category, difficulty and word.
	List(ctx context.Context) ([]domain.VocabularyItem, error)
}

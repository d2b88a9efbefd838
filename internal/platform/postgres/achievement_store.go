package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/store"
)

// PostgresAchievementStore implements store.AchievementStore on PostgreSQL.
type PostgresAchievementStore struct {
	db     sqlx.ExtContext
	logger *slog.Logger
}

var _ store.AchievementStore = (*PostgresAchievementStore)(nil)

// NewPostgresAchievementStore creates a store over db (a *sqlx.DB or *sqlx.Tx).
func NewPostgresAchievementStore(db sqlx.ExtContext, logger *slog.Logger) *PostgresAchievementStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresAchievementStore{
		db:     db,
		logger: logger.With(slog.String("component", "achievement_store")),
	}
}

// GetStreak implements store.AchievementStore.
func (s *PostgresAchievementStore) GetStreak(ctx context.Context, userID uuid.UUID) (*domain.LearningStreak, error) {
	var (
		streak     domain.LearningStreak
		lastActive sql.NullTime
	)
	err := s.db.QueryRowxContext(ctx, `
		SELECT user_id, current_streak, longest_streak, last_active_date, updated_at
		FROM learning_streaks
		WHERE user_id = $1`,
		userID,
	).Scan(&streak.UserID, &streak.CurrentStreak, &streak.LongestStreak, &lastActive, &streak.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrStreakNotFound
		}
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to get streak",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	if lastActive.Valid {
		streak.LastActiveDate = lastActive.Time
	}
	return &streak, nil
}

// SaveStreak implements store.AchievementStore.
func (s *PostgresAchievementStore) SaveStreak(ctx context.Context, streak *domain.LearningStreak) error {
	if streak.UserID == uuid.Nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrEmptyStreakUserID)
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO learning_streaks (user_id, current_streak, longest_streak, last_active_date, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (user_id) DO UPDATE SET
			current_streak = EXCLUDED.current_streak,
			longest_streak = EXCLUDED.longest_streak,
			last_active_date = EXCLUDED.last_active_date,
			updated_at = EXCLUDED.updated_at`,
		streak.UserID,
		streak.CurrentStreak,
		streak.LongestStreak,
		nullTime(streak.LastActiveDate),
		streak.UpdatedAt,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to save streak",
			slog.String("error", err.Error()),
			slog.String("user_id", streak.UserID.String()))
		return MapError(err)
	}
	return nil
}

// Unlock implements store.AchievementStore. The primary key on
// (user_id, code) makes a repeated unlock a no-op.
func (s *PostgresAchievementStore) Unlock(ctx context.Context, achievement domain.UserAchievement) (bool, error) {
	result, err := sqlx.NamedExecContext(ctx, s.db, `
		INSERT INTO user_achievements (user_id, code, unlocked_at)
		VALUES (:user_id, :code, :unlocked_at)
		ON CONFLICT (user_id, code) DO NOTHING`,
		achievement,
	)
	if err != nil {
		return false, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return n == 1, nil
}

// ListUnlocked implements store.AchievementStore.
func (s *PostgresAchievementStore) ListUnlocked(ctx context.Context, userID uuid.UUID) ([]domain.UserAchievement, error) {
	unlocked := make([]domain.UserAchievement, 0)
	err := sqlx.SelectContext(ctx, s.db, &unlocked, `
		SELECT user_id, code, unlocked_at
		FROM user_achievements
		WHERE user_id = $1
		ORDER BY unlocked_at, code`,
		userID,
	)
	if err != nil {
		return nil, MapError(err)
	}
	return unlocked, nil
}

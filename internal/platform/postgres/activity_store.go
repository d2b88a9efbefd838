package postgres

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/store"
)

// PostgresActivityStore implements store.ActivityStore on PostgreSQL.
// Reads map rows onto domain.Activity through its db tags with sqlx.
type PostgresActivityStore struct {
	db     sqlx.ExtContext
	logger *slog.Logger
}

var _ store.ActivityStore = (*PostgresActivityStore)(nil)

// NewPostgresActivityStore creates a store over db (a *sqlx.DB or *sqlx.Tx).
func NewPostgresActivityStore(db sqlx.ExtContext, logger *slog.Logger) *PostgresActivityStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresActivityStore{
		db:     db,
		logger: logger.With(slog.String("component", "activity_store")),
	}
}

// Append implements store.ActivityStore.
func (s *PostgresActivityStore) Append(ctx context.Context, activity *domain.Activity) error {
	if activity.UserID == uuid.Nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrEmptyActivityUserID)
	}

	_, err := sqlx.NamedExecContext(ctx, s.db, `
		INSERT INTO learning_activities (id, user_id, item_id, topic, correct, mastery_after, occurred_at)
		VALUES (:id, :user_id, :item_id, :topic, :correct, :mastery_after, :occurred_at)`,
		activity,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to append activity",
			slog.String("error", err.Error()),
			slog.String("user_id", activity.UserID.String()))
		return MapError(err)
	}
	return nil
}

// ListByUser implements store.ActivityStore.
func (s *PostgresActivityStore) ListByUser(ctx context.Context, userID uuid.UUID, since time.Time) ([]domain.Activity, error) {
	activities := make([]domain.Activity, 0)
	query := `
		SELECT id, user_id, item_id, topic, correct, mastery_after, occurred_at
		FROM learning_activities
		WHERE user_id = $1 AND ($2::timestamptz IS NULL OR occurred_at >= $2)
		ORDER BY occurred_at, id
	`
	if err := sqlx.SelectContext(ctx, s.db, &activities, query, userID, nullTime(since)); err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list activities",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	return activities, nil
}

// DeleteByUser implements store.ActivityStore.
func (s *PostgresActivityStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM learning_activities WHERE user_id = $1`, userID)
	if err != nil {
		return 0, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/store"
)

// PostgresProfileStore implements store.ProfileStore on PostgreSQL.
// Time preferences and weak areas are stored as JSONB.
type PostgresProfileStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.ProfileStore = (*PostgresProfileStore)(nil)

// NewPostgresProfileStore creates a store over db. If logger is nil, the
// default logger is used.
func NewPostgresProfileStore(db store.DBTX, logger *slog.Logger) *PostgresProfileStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresProfileStore{
		db:     db,
		logger: logger.With(slog.String("component", "profile_store")),
	}
}

// Get implements store.ProfileStore.
func (s *PostgresProfileStore) Get(ctx context.Context, userID uuid.UUID) (*domain.LearningProfile, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT user_id, level, goal_type, target_date, target_word_count, preferred_times,
			weak_areas, average_daily_words, average_accuracy, speed_trend, last_analyzed_at,
			created_at, updated_at
		FROM learning_profiles
		WHERE user_id = $1
	`
	var (
		p            domain.LearningProfile
		level, goal  string
		speed        string
		times, weak  []byte
		lastAnalyzed sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, userID).Scan(
		&p.UserID,
		&level,
		&goal,
		&p.TargetDate,
		&p.TargetWordCount,
		&times,
		&weak,
		&p.AverageDailyWord,
		&p.AverageAccuracy,
		&speed,
		&lastAnalyzed,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrProfileNotFound
		}
		log.Error("failed to get learning profile",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	p.Level = domain.ProficiencyLevel(level)
	p.GoalType = domain.GoalType(goal)
	p.SpeedTrend = domain.SpeedTrend(speed)
	if lastAnalyzed.Valid {
		p.LastAnalyzedAt = lastAnalyzed.Time
	}
	if err := json.Unmarshal(times, &p.PreferredTimes); err != nil {
		return nil, fmt.Errorf("failed to decode preferred times: %w", err)
	}
	if err := json.Unmarshal(weak, &p.WeakAreas); err != nil {
		return nil, fmt.Errorf("failed to decode weak areas: %w", err)
	}
	return &p, nil
}

// Upsert implements store.ProfileStore. created_at is kept on conflict.
func (s *PostgresProfileStore) Upsert(ctx context.Context, profile *domain.LearningProfile) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := profile.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	times, err := json.Marshal(profile.PreferredTimes)
	if err != nil {
		return fmt.Errorf("failed to encode preferred times: %w", err)
	}
	weakAreas := profile.WeakAreas
	if weakAreas == nil {
		weakAreas = []domain.WeakArea{}
	}
	weak, err := json.Marshal(weakAreas)
	if err != nil {
		return fmt.Errorf("failed to encode weak areas: %w", err)
	}

	query := `
		INSERT INTO learning_profiles (user_id, level, goal_type, target_date, target_word_count,
			preferred_times, weak_areas, average_daily_words, average_accuracy, speed_trend,
			last_analyzed_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (user_id) DO UPDATE SET
			level = EXCLUDED.level,
			goal_type = EXCLUDED.goal_type,
			target_date = EXCLUDED.target_date,
			target_word_count = EXCLUDED.target_word_count,
			preferred_times = EXCLUDED.preferred_times,
			weak_areas = EXCLUDED.weak_areas,
			average_daily_words = EXCLUDED.average_daily_words,
			average_accuracy = EXCLUDED.average_accuracy,
			speed_trend = EXCLUDED.speed_trend,
			last_analyzed_at = EXCLUDED.last_analyzed_at,
			updated_at = EXCLUDED.updated_at
	`
	_, err = s.db.ExecContext(ctx, query,
		profile.UserID,
		profile.Level,
		profile.GoalType,
		profile.TargetDate,
		profile.TargetWordCount,
		times,
		weak,
		profile.AverageDailyWord,
		profile.AverageAccuracy,
		profile.SpeedTrend,
		nullTime(profile.LastAnalyzedAt),
		profile.CreatedAt,
		profile.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to upsert learning profile",
			slog.String("error", err.Error()),
			slog.String("user_id", profile.UserID.String()))
		return MapError(err)
	}
	return nil
}

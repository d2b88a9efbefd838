package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/store"
)

const memoryRecordColumns = `user_id, item_id, mastery_level, review_count, correct_count, wrong_count,
	consecutive_wrong_count, last_reviewed_at, next_review_at, status, version, created_at, updated_at`

// PostgresMemoryRecordStore implements store.MemoryRecordStore on PostgreSQL.
// Updates are optimistic: the UPDATE only matches the row while its version
// column still equals the version the caller read.
type PostgresMemoryRecordStore struct {
	db     store.DBTX
	logger *slog.Logger
}

var _ store.MemoryRecordStore = (*PostgresMemoryRecordStore)(nil)

// NewPostgresMemoryRecordStore creates a store over db, which may be a pool
// or a transaction. If logger is nil, the default logger is used.
func NewPostgresMemoryRecordStore(db store.DBTX, logger *slog.Logger) *PostgresMemoryRecordStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresMemoryRecordStore{
		db:     db,
		logger: logger.With(slog.String("component", "memory_record_store")),
	}
}

// Create implements store.MemoryRecordStore.
func (s *PostgresMemoryRecordStore) Create(ctx context.Context, record *domain.MemoryRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		log.Warn("memory record validation failed during create",
			slog.String("error", err.Error()),
			slog.String("item_id", record.ItemID.String()))
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		INSERT INTO memory_records (` + memoryRecordColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, 1, $11, $12)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.UserID,
		record.ItemID,
		record.MasteryLevel,
		record.ReviewCount,
		record.CorrectCount,
		record.WrongCount,
		record.ConsecutiveWrongCount,
		nullTime(record.LastReviewedAt),
		record.NextReviewAt,
		record.Status,
		record.CreatedAt,
		record.UpdatedAt,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			log.Debug("memory record already exists",
				slog.String("item_id", record.ItemID.String()))
		} else {
			log.Error("failed to create memory record",
				slog.String("error", err.Error()),
				slog.String("item_id", record.ItemID.String()))
		}
		return MapUniqueViolation(err, store.ErrMemoryRecordExists)
	}

	record.Version = 1
	log.Debug("memory record created",
		slog.String("user_id", record.UserID.String()),
		slog.String("item_id", record.ItemID.String()))
	return nil
}

// Get implements store.MemoryRecordStore.
func (s *PostgresMemoryRecordStore) Get(ctx context.Context, userID, itemID uuid.UUID) (*domain.MemoryRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + memoryRecordColumns + ` FROM memory_records WHERE user_id = $1 AND item_id = $2`
	record, err := scanMemoryRecord(s.db.QueryRowContext(ctx, query, userID, itemID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrMemoryRecordNotFound
		}
		log.Error("failed to get memory record",
			slog.String("error", err.Error()),
			slog.String("item_id", itemID.String()))
		return nil, MapError(err)
	}
	return record, nil
}

// Update implements store.MemoryRecordStore.
func (s *PostgresMemoryRecordStore) Update(ctx context.Context, record *domain.MemoryRecord) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	query := `
		UPDATE memory_records
		SET mastery_level = $3,
			review_count = $4,
			correct_count = $5,
			wrong_count = $6,
			consecutive_wrong_count = $7,
			last_reviewed_at = $8,
			next_review_at = $9,
			status = $10,
			updated_at = $11,
			version = version + 1
		WHERE user_id = $1 AND item_id = $2 AND version = $12
	`
	result, err := s.db.ExecContext(ctx, query,
		record.UserID,
		record.ItemID,
		record.MasteryLevel,
		record.ReviewCount,
		record.CorrectCount,
		record.WrongCount,
		record.ConsecutiveWrongCount,
		nullTime(record.LastReviewedAt),
		record.NextReviewAt,
		record.Status,
		record.UpdatedAt,
		record.Version,
	)
	if err != nil {
		log.Error("failed to update memory record",
			slog.String("error", err.Error()),
			slog.String("item_id", record.ItemID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, nil); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		// Either the row is gone or another writer bumped the version.
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM memory_records WHERE user_id = $1 AND item_id = $2)`,
			record.UserID, record.ItemID,
		).Scan(&exists); err != nil {
			return MapError(err)
		}
		if !exists {
			return store.ErrMemoryRecordNotFound
		}
		log.Debug("memory record version conflict",
			slog.String("item_id", record.ItemID.String()),
			slog.Int64("version", record.Version))
		return fmt.Errorf("%w: memory record version %d is stale", store.ErrConcurrencyConflict, record.Version)
	}

	record.Version++
	return nil
}

// FindDueReviews implements store.MemoryRecordStore.
func (s *PostgresMemoryRecordStore) FindDueReviews(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.MemoryRecord, error) {
	query := `
		SELECT ` + memoryRecordColumns + `
		FROM memory_records
		WHERE user_id = $1 AND next_review_at <= $2
		ORDER BY next_review_at ASC, mastery_level ASC, item_id ASC
		LIMIT $3
	`
	return s.queryRecords(ctx, "find due reviews", query, userID, now, store.NormalizeDueLimit(limit))
}

// CountMasteredByUser implements store.MemoryRecordStore.
func (s *PostgresMemoryRecordStore) CountMasteredByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memory_records WHERE user_id = $1 AND status = $2`,
		userID, domain.MemoryStatusMastered,
	).Scan(&n)
	if err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

// CountTotalByUser implements store.MemoryRecordStore.
func (s *PostgresMemoryRecordStore) CountTotalByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM memory_records WHERE user_id = $1`,
		userID,
	).Scan(&n)
	if err != nil {
		return 0, MapError(err)
	}
	return n, nil
}

// Statistics implements store.MemoryRecordStore. The aggregation runs in SQL.
func (s *PostgresMemoryRecordStore) Statistics(
	ctx context.Context,
	userID uuid.UUID,
	now time.Time,
) (*domain.MemoryStatistics, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'MASTERED'),
			COUNT(*) FILTER (WHERE status = 'LEARNING'),
			COUNT(*) FILTER (WHERE status = 'FORGOTTEN'),
			COALESCE(SUM(review_count), 0),
			COALESCE(SUM(correct_count), 0),
			COALESCE(SUM(wrong_count), 0),
			COUNT(*) FILTER (WHERE next_review_at <= $2),
			COALESCE(AVG(mastery_level), 0)::float8
		FROM memory_records
		WHERE user_id = $1
	`
	stats := &domain.MemoryStatistics{UserID: userID}
	err := s.db.QueryRowContext(ctx, query, userID, now).Scan(
		&stats.TotalWords,
		&stats.MasteredWords,
		&stats.LearningWords,
		&stats.ForgottenWords,
		&stats.TotalReviews,
		&stats.CorrectCount,
		&stats.WrongCount,
		&stats.PendingReviews,
		&stats.AverageMastery,
	)
	if err != nil {
		log.Error("failed to compute memory statistics",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}

	stats.AccuracyRate = domain.AccuracyRate(stats.CorrectCount, stats.WrongCount)
	return stats, nil
}

// ListByUser implements store.MemoryRecordStore.
func (s *PostgresMemoryRecordStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*domain.MemoryRecord, error) {
	query := `SELECT ` + memoryRecordColumns + ` FROM memory_records WHERE user_id = $1 ORDER BY item_id`
	return s.queryRecords(ctx, "list memory records", query, userID)
}

// DeleteByUser implements store.MemoryRecordStore.
func (s *PostgresMemoryRecordStore) DeleteByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	result, err := s.db.ExecContext(ctx, `DELETE FROM memory_records WHERE user_id = $1`, userID)
	if err != nil {
		return 0, MapError(err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return int(n), nil
}

func (s *PostgresMemoryRecordStore) queryRecords(
	ctx context.Context,
	op string,
	query string,
	args ...any,
) ([]*domain.MemoryRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to "+op, slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	records := make([]*domain.MemoryRecord, 0)
	for rows.Next() {
		r, err := scanMemoryRecord(rows)
		if err != nil {
			return nil, MapError(err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, MapError(err)
	}
	return records, nil
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanMemoryRecord(row rowScanner) (*domain.MemoryRecord, error) {
	var (
		r            domain.MemoryRecord
		status       string
		lastReviewed sql.NullTime
	)
	err := row.Scan(
		&r.UserID,
		&r.ItemID,
		&r.MasteryLevel,
		&r.ReviewCount,
		&r.CorrectCount,
		&r.WrongCount,
		&r.ConsecutiveWrongCount,
		&lastReviewed,
		&r.NextReviewAt,
		&status,
		&r.Version,
		&r.CreatedAt,
		&r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Status = domain.MemoryStatus(status)
	if lastReviewed.Valid {
		r.LastReviewedAt = lastReviewed.Time
	}
	return &r, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}

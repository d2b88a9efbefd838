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

const upsertVocabularyQuery = `
	INSERT INTO vocabulary_items (id, word, translation, category, difficulty)
	VALUES (:id, :word, :translation, :category, :difficulty)
	ON CONFLICT (id) DO UPDATE SET
		word = EXCLUDED.word,
		translation = EXCLUDED.translation,
		category = EXCLUDED.category,
		difficulty = EXCLUDED.difficulty
`

// PostgresVocabularyStore implements store.VocabularyStore on PostgreSQL.
type PostgresVocabularyStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

var _ store.VocabularyStore = (*PostgresVocabularyStore)(nil)

// NewPostgresVocabularyStore creates a store over the pool db.
func NewPostgresVocabularyStore(db *sqlx.DB, logger *slog.Logger) *PostgresVocabularyStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &PostgresVocabularyStore{
		db:     db,
		logger: logger.With(slog.String("component", "vocabulary_store")),
	}
}

// UpsertMany implements store.VocabularyStore. All items are written in one
// transaction; a failure leaves the pool unchanged.
func (s *PostgresVocabularyStore) UpsertMany(ctx context.Context, items []domain.VocabularyItem) (int, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, item := range items {
		if item.ID == uuid.Nil {
			return 0, fmt.Errorf("%w: vocabulary item without ID", store.ErrInvalidEntity)
		}
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("%w: begin: %w", store.ErrTransactionFailed, err)
	}
	for _, item := range items {
		if _, err := tx.NamedExecContext(ctx, upsertVocabularyQuery, item); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Error("failed to roll back vocabulary import", slog.String("error", rbErr.Error()))
			}
			log.Error("failed to upsert vocabulary item",
				slog.String("error", err.Error()),
				slog.String("word", item.Word))
			return 0, MapError(err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("%w: commit: %w", store.ErrTransactionFailed, err)
	}

	log.Info("vocabulary items upserted", slog.Int("count", len(items)))
	return len(items), nil
}

// Get implements store.VocabularyStore.
func (s *PostgresVocabularyStore) Get(ctx context.Context, id uuid.UUID) (*domain.VocabularyItem, error) {
	var item domain.VocabularyItem
	err := s.db.GetContext(ctx, &item,
		`SELECT id, word, translation, category, difficulty FROM vocabulary_items WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrVocabularyItemNotFound
		}
		return nil, MapError(err)
	}
	return &item, nil
}

// List implements store.VocabularyStore.
func (s *PostgresVocabularyStore) List(ctx context.Context) ([]domain.VocabularyItem, error) {
	items := make([]domain.VocabularyItem, 0)
	err := s.db.SelectContext(ctx, &items, `
		SELECT id, word, translation, category, difficulty
		FROM vocabulary_items
		ORDER BY category, difficulty, word, id`)
	if err != nil {
		return nil, MapError(err)
	}
	return items, nil
}

package review

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/clock"
	"github.com/phrazzld/scry-lexicon/internal/content"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/phrazzld/scry-lexicon/internal/domain/srs"
	"github.com/phrazzld/scry-lexicon/internal/events"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/service"
	"github.com/phrazzld/scry-lexicon/internal/store"
)

// Verify interface compliance at compile time
var _ Service = (*serviceImpl)(nil)

// Dependencies groups the collaborators of the review service.
// Generator and Emitter may be nil.
type Dependencies struct {
	Records    store.MemoryRecordStore
	Activities store.ActivityStore
	Vocabulary store.VocabularyStore
	Engine     srs.Engine
	Emitter    events.EventEmitter
	Generator  content.Generator
	Clock      clock.Clock
}

type serviceImpl struct {
	records    store.MemoryRecordStore
	activities store.ActivityStore
	vocabulary store.VocabularyStore
	engine     srs.Engine
	emitter    events.EventEmitter
	generator  *content.Guard
	clock      clock.Clock
	config     Config
	logger     *slog.Logger
}

// NewService creates the review service. It panics when a required store or
// the engine is missing.
func NewService(deps Dependencies, config Config, logger *slog.Logger) Service {
	if deps.Records == nil {
		panic("records store cannot be nil")
	}
	if deps.Activities == nil {
		panic("activities store cannot be nil")
	}
	if deps.Vocabulary == nil {
		panic("vocabulary store cannot be nil")
	}
	if deps.Engine == nil {
		panic("srs engine cannot be nil")
	}
	if deps.Emitter == nil {
		deps.Emitter = events.NopEmitter{}
	}
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}

	defaults := DefaultConfig()
	if config.DefaultDueLimit <= 0 {
		config.DefaultDueLimit = defaults.DefaultDueLimit
	}
	if config.MaxConflictRetries < 0 {
		config.MaxConflictRetries = 0
	}

	return &serviceImpl{
		records:    deps.Records,
		activities: deps.Activities,
		vocabulary: deps.Vocabulary,
		engine:     deps.Engine,
		emitter:    deps.Emitter,
		generator:  content.NewGuard(deps.Generator, logger),
		clock:      deps.Clock,
		config:     config,
		logger:     logger.With(slog.String("component", "review_service")),
	}
}

// SubmitReview implements Service.
func (s *serviceImpl) SubmitReview(
	ctx context.Context,
	userID, itemID uuid.UUID,
	isCorrect bool,
) (*domain.MemoryRecord, error) {
	log := logger.FromContextOrDefault(ctx, s.logger).With(
		slog.String("user_id", userID.String()),
		slog.String("item_id", itemID.String()))

	if userID == uuid.Nil || itemID == uuid.Nil {
		return nil, service.NewServiceError(ServiceName, "submit_review",
			fmt.Errorf("%w: user and item IDs are required", domain.ErrInvalidID))
	}

	item, err := s.vocabulary.Get(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrVocabularyItemNotFound) {
			log.Warn("review submitted for unknown item")
			return nil, service.NewServiceError(ServiceName, "submit_review", service.ErrUnknownItem)
		}
		return nil, service.NewServiceError(ServiceName, "submit_review", err)
	}

	var updated *domain.MemoryRecord
	for attempt := 0; ; attempt++ {
		updated, err = s.applyReview(ctx, userID, itemID, isCorrect)
		if err == nil {
			break
		}
		if !store.IsConflictError(err) {
			log.Error("failed to store review", slog.String("error", err.Error()))
			return nil, service.NewServiceError(ServiceName, "submit_review", err)
		}
		if attempt >= s.config.MaxConflictRetries {
			log.Warn("review conflict retries exhausted", slog.Int("attempts", attempt+1))
			return nil, service.NewServiceError(ServiceName, "submit_review",
				fmt.Errorf("%w: %w", service.ErrTransient, err))
		}

		log.Debug("review conflicted, retrying", slog.Int("attempt", attempt+1))
		if err := s.backoff(ctx, attempt+1); err != nil {
			return nil, service.NewServiceError(ServiceName, "submit_review", err)
		}
	}

	s.recordActivity(ctx, log, updated, item.Category, isCorrect)
	s.publish(ctx, log, updated, isCorrect)

	log.Debug("review submitted",
		slog.Int("mastery", updated.MasteryLevel),
		slog.String("status", string(updated.Status)),
		slog.Time("next_review_at", updated.NextReviewAt))
	return updated, nil
}

// applyReview runs one read-modify-write cycle. A conflict, including losing
// the race to create the first record, is returned as store.ErrConcurrencyConflict.
func (s *serviceImpl) applyReview(
	ctx context.Context,
	userID, itemID uuid.UUID,
	isCorrect bool,
) (*domain.MemoryRecord, error) {
	now := s.clock.Now()

	current, err := s.records.Get(ctx, userID, itemID)
	created := false
	if err != nil {
		if !errors.Is(err, store.ErrMemoryRecordNotFound) {
			return nil, err
		}
		current, err = domain.NewMemoryRecord(userID, itemID, now)
		if err != nil {
			return nil, err
		}
		created = true
	}

	next, err := s.engine.Apply(current, isCorrect, now)
	if err != nil {
		return nil, err
	}

	if created {
		if err := s.records.Create(ctx, next); err != nil {
			if errors.Is(err, store.ErrMemoryRecordExists) {
				return nil, fmt.Errorf("%w: %w", store.ErrConcurrencyConflict, err)
			}
			return nil, err
		}
		return next, nil
	}

	if err := s.records.Update(ctx, next); err != nil {
		return nil, err
	}
	return next, nil
}

func (s *serviceImpl) backoff(ctx context.Context, attempt int) error {
	if s.config.RetryBackoff <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(time.Duration(attempt) * s.config.RetryBackoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// recordActivity appends the history entry for a stored review. The memory
// record is already committed, so a failure is only logged.
func (s *serviceImpl) recordActivity(
	ctx context.Context,
	log *slog.Logger,
	record *domain.MemoryRecord,
	topic string,
	isCorrect bool,
) {
	activity, err := domain.NewActivity(record, topic, isCorrect, record.LastReviewedAt)
	if err == nil {
		err = s.activities.Append(ctx, activity)
	}
	if err != nil {
		log.Error("failed to append review activity", slog.String("error", err.Error()))
	}
}

func (s *serviceImpl) publish(ctx context.Context, log *slog.Logger, record *domain.MemoryRecord, isCorrect bool) {
	event, err := events.NewEvent(events.TypeReviewCompleted, events.ReviewCompleted{
		UserID:       record.UserID,
		ItemID:       record.ItemID,
		Correct:      isCorrect,
		MasteryAfter: record.MasteryLevel,
		Status:       string(record.Status),
		OccurredAt:   record.LastReviewedAt,
	}, record.LastReviewedAt)
	if err == nil {
		err = s.emitter.EmitEvent(ctx, event)
	}
	if err != nil {
		log.Warn("failed to publish review event", slog.String("error", err.Error()))
	}
}

// GetDueReviews implements Service.
func (s *serviceImpl) GetDueReviews(ctx context.Context, userID uuid.UUID, limit int) ([]*domain.MemoryRecord, error) {
	if limit <= 0 {
		limit = s.config.DefaultDueLimit
	}

	due, err := s.records.FindDueReviews(ctx, userID, s.clock.Now(), limit)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to find due reviews",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, service.NewServiceError(ServiceName, "get_due_reviews", err)
	}
	return due, nil
}

// GetStatistics implements Service.
func (s *serviceImpl) GetStatistics(ctx context.Context, userID uuid.UUID) (*domain.MemoryStatistics, error) {
	stats, err := s.records.Statistics(ctx, userID, s.clock.Now())
	if err != nil {
		return nil, service.NewServiceError(ServiceName, "get_statistics", err)
	}
	return stats, nil
}

// PrepareExercise implements Service.
func (s *serviceImpl) PrepareExercise(
	ctx context.Context,
	itemID uuid.UUID,
	kind content.ExerciseKind,
) (*content.Exercise, error) {
	item, err := s.vocabulary.Get(ctx, itemID)
	if err != nil {
		if errors.Is(err, store.ErrVocabularyItemNotFound) {
			return nil, service.NewServiceError(ServiceName, "prepare_exercise", service.ErrUnknownItem)
		}
		return nil, service.NewServiceError(ServiceName, "prepare_exercise", err)
	}

	exercise, err := s.generator.GenerateExercise(ctx, *item, kind)
	if err != nil {
		return nil, service.NewServiceError(ServiceName, "prepare_exercise", err)
	}
	return exercise, nil
}

package content

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/domain"
)

// Common errors a Generator implementation may return.
var (
	// ErrGenerationFailed is returned when exercise generation fails for any general reason
	ErrGenerationFailed = errors.New("failed to generate exercise")

	// ErrInvalidResponse is returned when the collaborator's response is malformed
	ErrInvalidResponse = errors.New("invalid response from content generator")

	// ErrTransientFailure is returned for temporary errors that might resolve on retry
	ErrTransientFailure = errors.New("transient error during exercise generation")
)

// ExerciseKind is the kind of practice content.
type ExerciseKind string

// Supported exercise kinds.
const (
	ExerciseQuiz     ExerciseKind = "QUIZ"
	ExerciseDialogue ExerciseKind = "DIALOGUE"
)

// Exercise is generated practice content for one vocabulary item.
type Exercise struct {
	ItemID  uuid.UUID    `json:"item_id"`
	Kind    ExerciseKind `json:"kind"`
	Prompt  string       `json:"prompt"`
	Choices []string     `json:"choices,omitempty"`
	Answer  string       `json:"answer"`
}

// Generator produces practice content for a vocabulary item.
type Generator interface {
	GenerateExercise(ctx context.Context, item domain.VocabularyItem, kind ExerciseKind) (*Exercise, error)
}

// Guard wraps a Generator and maps every collaborator failure to
// domain.ErrUpstreamUnavailable. Cancellation of the caller's own context is
// passed through unchanged.
type Guard struct {
	next   Generator
	logger *slog.Logger
}

var _ Generator = (*Guard)(nil)

// NewGuard wraps next. If logger is nil, the default logger is used.
func NewGuard(next Generator, logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{next: next, logger: logger.With(slog.String("component", "content_guard"))}
}

// GenerateExercise implements Generator.
func (g *Guard) GenerateExercise(ctx context.Context, item domain.VocabularyItem, kind ExerciseKind) (*Exercise, error) {
	if g.next == nil {
		return nil, fmt.Errorf("%w: no content generator configured", domain.ErrUpstreamUnavailable)
	}

	exercise, err := g.next.GenerateExercise(ctx, item, kind)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		g.logger.Warn("content generator failed",
			slog.String("error", err.Error()),
			slog.String("item_id", item.ID.String()),
			slog.String("kind", string(kind)))
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, err)
	}
	if exercise == nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrUpstreamUnavailable, ErrInvalidResponse)
	}
	return exercise, nil
}

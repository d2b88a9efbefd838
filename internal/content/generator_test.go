package content_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/content"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockGenerator struct {
	mock.Mock
}

func (m *mockGenerator) GenerateExercise(
	ctx context.Context,
	item domain.VocabularyItem,
	kind content.ExerciseKind,
) (*content.Exercise, error) {
	args := m.Called(ctx, item, kind)
	exercise, _ := args.Get(0).(*content.Exercise)
	return exercise, args.Error(1)
}

func TestGuard_GenerateExercise(t *testing.T) {
	t.Parallel()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	item := domain.VocabularyItem{ID: uuid.New(), Word: "gare", Translation: "station", Category: "TRAVEL", Difficulty: 2}

	t.Run("success", func(t *testing.T) {
		gen := &mockGenerator{}
		want := &content.Exercise{ItemID: item.ID, Kind: content.ExerciseQuiz, Prompt: "gare?", Answer: "station"}
		gen.On("GenerateExercise", mock.Anything, item, content.ExerciseQuiz).Return(want, nil)

		got, err := content.NewGuard(gen, logger).GenerateExercise(context.Background(), item, content.ExerciseQuiz)
		require.NoError(t, err)
		assert.Equal(t, want, got)
		gen.AssertExpectations(t)
	})

	t.Run("failure_maps_to_upstream_unavailable", func(t *testing.T) {
		gen := &mockGenerator{}
		gen.On("GenerateExercise", mock.Anything, item, content.ExerciseDialogue).
			Return(nil, content.ErrTransientFailure)

		_, err := content.NewGuard(gen, logger).GenerateExercise(context.Background(), item, content.ExerciseDialogue)
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
		assert.ErrorIs(t, err, content.ErrTransientFailure)
	})

	t.Run("nil_exercise_is_invalid_response", func(t *testing.T) {
		gen := &mockGenerator{}
		gen.On("GenerateExercise", mock.Anything, item, content.ExerciseQuiz).Return(nil, nil)

		_, err := content.NewGuard(gen, logger).GenerateExercise(context.Background(), item, content.ExerciseQuiz)
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
		assert.ErrorIs(t, err, content.ErrInvalidResponse)
	})

	t.Run("no_generator", func(t *testing.T) {
		_, err := content.NewGuard(nil, logger).GenerateExercise(context.Background(), item, content.ExerciseQuiz)
		assert.ErrorIs(t, err, domain.ErrUpstreamUnavailable)
	})

	t.Run("caller_cancellation_passes_through", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		gen := &mockGenerator{}
		gen.On("GenerateExercise", mock.Anything, item, content.ExerciseQuiz).Return(nil, context.Canceled)

		_, err := content.NewGuard(gen, logger).GenerateExercise(ctx, item, content.ExerciseQuiz)
		assert.ErrorIs(t, err, context.Canceled)
		assert.NotErrorIs(t, err, domain.ErrUpstreamUnavailable)
	})
}

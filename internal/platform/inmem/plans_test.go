package inmem_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/phrazzld/scry-lexicon/internal/platform/inmem"
	"github.com/phrazzld/scry-lexicon/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newPlan(t *testing.T, userID uuid.UUID) *domain.StudyPlan {
	t.Helper()
	profile, err := domain.NewLearningProfile(userID, domain.LevelBeginner, domain.GoalTypeDaily,
		baseTime.AddDate(0, 1, 0), 300, baseTime)
	require.NoError(t, err)
	plan, err := domain.NewStudyPlan(profile, domain.LearningPath{GoalType: domain.GoalTypeDaily}, 20, baseTime)
	require.NoError(t, err)
	return plan
}

func TestProfileStore_Upsert(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := inmem.NewProfileStore()
	userID := uuid.New()

	_, err := s.Get(ctx, userID)
	assert.ErrorIs(t, err, store.ErrProfileNotFound)

	profile, err := domain.NewLearningProfile(userID, domain.LevelIntermediate, domain.GoalTypeExam,
		baseTime.AddDate(0, 2, 0), 1000, baseTime)
	require.NoError(t, err)
	require.NoError(t, s.Upsert(ctx, profile))

	updated := *profile
	updated.WeakAreas = []domain.WeakArea{{Topic: "FOOD", ErrorRate: 0.5}}
	updated.CreatedAt = baseTime.Add(time.Hour)
	updated.UpdatedAt = baseTime.Add(time.Hour)
	require.NoError(t, s.Upsert(ctx, &updated))

	got, err := s.Get(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, baseTime, got.CreatedAt)
	assert.Equal(t, baseTime.Add(time.Hour), got.UpdatedAt)
	assert.Equal(t, updated.WeakAreas, got.WeakAreas)

	err = s.Upsert(ctx, &domain.LearningProfile{})
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestPlanStore_ReplaceActive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := inmem.NewPlanStore()
	userID := uuid.New()

	_, err := s.GetActive(ctx, userID)
	assert.ErrorIs(t, err, store.ErrPlanNotFound)

	first := newPlan(t, userID)
	superseded, err := s.ReplaceActive(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, uuid.Nil, superseded)

	second := newPlan(t, userID)
	superseded, err = s.ReplaceActive(ctx, second)
	require.NoError(t, err)
	assert.Equal(t, first.ID, superseded)

	active, err := s.GetActive(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	_, err = s.ReplaceActive(ctx, second)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	third := newPlan(t, userID)
	third.Status = domain.PlanStatusCompleted
	_, err = s.ReplaceActive(ctx, third)
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestPlanStore_ConcurrentReplaceLeavesOneActive(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := inmem.NewPlanStore()
	userID := uuid.New()

	const writers = 10
	plans := make([]*domain.StudyPlan, writers)
	for i := range plans {
		plans[i] = newPlan(t, userID)
	}

	var wg sync.WaitGroup
	supersededIDs := make(chan uuid.UUID, writers)
	for _, p := range plans {
		wg.Add(1)
		go func(p *domain.StudyPlan) {
			defer wg.Done()
			id, err := s.ReplaceActive(ctx, p)
			assert.NoError(t, err)
			supersededIDs <- id
		}(p)
	}
	wg.Wait()
	close(supersededIDs)

	nils := 0
	for id := range supersededIDs {
		if id == uuid.Nil {
			nils++
		}
	}
	assert.Equal(t, 1, nils, "exactly one writer should have found no previous plan")

	ids, err := s.ListActiveUserIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{userID}, ids)
}

func TestPlanStore_Update(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := inmem.NewPlanStore()
	userID := uuid.New()
	plan := newPlan(t, userID)
	_, err := s.ReplaceActive(ctx, plan)
	require.NoError(t, err)

	plan.RecordAdjustment(25, "high completion", baseTime.Add(time.Hour))
	plan.CompletionRate = 1
	require.NoError(t, s.Update(ctx, plan))

	got, err := s.GetActive(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.DailyTaskCount)
	assert.Equal(t, 1.0, got.CompletionRate)
	require.Len(t, got.Adjustments, 1)
	assert.Equal(t, 20, got.Adjustments[0].OldCount)

	plan.Status = domain.PlanStatusCompleted
	require.NoError(t, s.Update(ctx, plan))
	_, err = s.GetActive(ctx, userID)
	assert.ErrorIs(t, err, store.ErrPlanNotFound)

	assert.ErrorIs(t, s.Update(ctx, newPlan(t, userID)), store.ErrPlanNotFound)
}

func TestPlanStore_UpdateRejectsStaleCopy(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := inmem.NewPlanStore()
	userID := uuid.New()
	_, err := s.ReplaceActive(ctx, newPlan(t, userID))
	require.NoError(t, err)

	adjusting, err := s.GetActive(ctx, userID)
	require.NoError(t, err)
	completing, err := s.GetActive(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), adjusting.Version)

	adjusting.RecordAdjustment(22, "completion rate 100%", baseTime.Add(time.Hour))
	adjusting.AdjustedOn = domain.StartOfDay(baseTime)
	require.NoError(t, s.Update(ctx, adjusting))
	assert.Equal(t, int64(2), adjusting.Version)

	completing.CompletionRate = 0.5
	err = s.Update(ctx, completing)
	assert.ErrorIs(t, err, store.ErrConcurrencyConflict)
	assert.Equal(t, int64(1), completing.Version)

	got, err := s.GetActive(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 22, got.DailyTaskCount)
	assert.Len(t, got.Adjustments, 1)
	assert.Equal(t, 0.0, got.CompletionRate)
	assert.True(t, got.AdjustedFor(baseTime))
}

func TestPlanStore_Tasks(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	s := inmem.NewPlanStore()
	plan := newPlan(t, uuid.New())
	_, err := s.ReplaceActive(ctx, plan)
	require.NoError(t, err)

	day := domain.StartOfDay(baseTime)
	review, err := domain.NewDailyTask(plan, day, domain.TaskTypeReview, nil, 0, baseTime)
	require.NoError(t, err)
	vocab, err := domain.NewDailyTask(plan, day, domain.TaskTypeVocabulary, []uuid.UUID{uuid.New()}, 1, baseTime)
	require.NoError(t, err)
	require.NoError(t, s.CreateTasks(ctx, []*domain.DailyTask{vocab, review}))

	dup, err := domain.NewDailyTask(plan, day, domain.TaskTypeReview, nil, 0, baseTime)
	require.NoError(t, err)
	weak, err := domain.NewDailyTask(plan, day, domain.TaskTypeWeakArea, nil, 0, baseTime)
	require.NoError(t, err)
	err = s.CreateTasks(ctx, []*domain.DailyTask{weak, dup})
	assert.ErrorIs(t, err, store.ErrDuplicate)

	tasks, err := s.ListTasks(ctx, plan.ID, day)
	require.NoError(t, err)
	require.Len(t, tasks, 2, "a rejected batch must not be partially written")
	assert.Equal(t, domain.TaskTypeReview, tasks[0].Type)
	assert.Equal(t, domain.TaskTypeVocabulary, tasks[1].Type)

	other, err := s.ListTasks(ctx, plan.ID, day.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Empty(t, other)

	require.NoError(t, vocab.Complete(1, baseTime.Add(time.Hour)))
	require.NoError(t, s.UpdateTask(ctx, vocab))

	got, err := s.GetTask(ctx, vocab.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, got.Status)
	require.NotNil(t, got.CompletedAt)
	assert.Equal(t, baseTime.Add(time.Hour), *got.CompletedAt)

	_, err = s.GetTask(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrTaskNotFound)

	orphan := newPlan(t, uuid.New())
	stray, err := domain.NewDailyTask(orphan, day, domain.TaskTypeReview, nil, 0, baseTime)
	require.NoError(t, err)
	assert.ErrorIs(t, s.CreateTasks(ctx, []*domain.DailyTask{stray}), store.ErrInvalidEntity)
}

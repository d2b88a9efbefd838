package planner

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func item(word, category string, difficulty int) domain.VocabularyItem {
	return domain.VocabularyItem{
		ID:          uuid.NewSHA1(uuid.NameSpaceOID, []byte(word)),
		Word:        word,
		Translation: word + "-t",
		Category:    category,
		Difficulty:  difficulty,
	}
}

func testPool() []domain.VocabularyItem {
	return []domain.VocabularyItem{
		item("hotel", "accommodation", 1),
		item("hello", "greeting", 1),
		item("goodbye", "greeting", 2),
		item("ticket", "transportation", 2),
		item("itinerary", "transportation", 4),
		item("recipe", "cooking", 1),
		item("invoice", "email", 2),
		item("menu", "dining", 1),
	}
}

func TestRemainingDays(t *testing.T) {
	t.Parallel()

	assert.Equal(t, 1, RemainingDays(testNow, testNow.Add(15*time.Hour)))
	assert.Equal(t, 0, RemainingDays(testNow, testNow.Add(time.Hour)))
	assert.Equal(t, 31, RemainingDays(testNow, testNow.AddDate(0, 1, 0)))
	assert.Equal(t, -1, RemainingDays(testNow, testNow.AddDate(0, 0, -1)))
}

func TestGenerateLearningPath(t *testing.T) {
	t.Parallel()
	engine := NewDefaultEngine()

	req := PathRequest{
		GoalType:     domain.GoalTypeTravel,
		TargetDate:   testNow.AddDate(0, 0, 30),
		CurrentLevel: domain.LevelBeginner,
		Now:          testNow,
		Pool:         testPool(),
		WeakAreas: []domain.WeakArea{
			{Topic: "transportation", ErrorRate: 0.5},
			{Topic: "email", ErrorRate: 0.7},
		},
	}

	path, err := engine.GenerateLearningPath(req)
	require.NoError(t, err)

	categories := make([]string, len(path.WordSets))
	for i, set := range path.WordSets {
		categories[i] = set.Category
		assert.Equal(t, i+1, set.Priority)
	}

	// goal & weak, goal (in goal order), weak, other
	assert.Equal(t, []string{"TRANSPORTATION", "GREETING", "ACCOMMODATION", "DINING", "EMAIL", "COOKING"}, categories)

	// itinerary is above the beginner cap
	assert.Equal(t, 7, path.TotalWords)
	assert.Len(t, path.WordSets[0].ItemIDs, 1)

	// greeting items ordered by difficulty then word
	greeting := path.WordSets[1]
	assert.Equal(t, []uuid.UUID{item("hello", "", 0).ID, item("goodbye", "", 0).ID}, greeting.ItemIDs)
}

func TestGenerateLearningPathIsDeterministic(t *testing.T) {
	t.Parallel()
	engine := NewDefaultEngine()

	pool := testPool()
	reversed := make([]domain.VocabularyItem, len(pool))
	for i := range pool {
		reversed[len(pool)-1-i] = pool[i]
	}

	req := PathRequest{
		GoalType:     domain.GoalTypeExam,
		TargetDate:   testNow.AddDate(0, 2, 0),
		CurrentLevel: domain.LevelAdvanced,
		Now:          testNow,
		Pool:         pool,
	}
	first, err := engine.GenerateLearningPath(req)
	require.NoError(t, err)

	req.Pool = reversed
	second, err := engine.GenerateLearningPath(req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestGenerateLearningPathCapsTotalWords(t *testing.T) {
	t.Parallel()
	engine := NewEngineWithParams(NewParams(ParamsConfig{MaxWordsPerDay: 3}))

	path, err := engine.GenerateLearningPath(PathRequest{
		GoalType:     domain.GoalTypeDaily,
		TargetDate:   testNow.AddDate(0, 0, 2),
		CurrentLevel: domain.LevelAdvanced,
		Now:          testNow,
		Pool:         testPool(),
	})
	require.NoError(t, err)
	assert.Equal(t, 6, path.TotalWords)
	assert.Len(t, path.ItemIDs(), 6)
}

func TestGenerateLearningPathRejectsInvalidInput(t *testing.T) {
	t.Parallel()
	engine := NewDefaultEngine()

	base := PathRequest{
		GoalType:     domain.GoalTypeTravel,
		TargetDate:   testNow.AddDate(0, 0, 10),
		CurrentLevel: domain.LevelBeginner,
		Now:          testNow,
	}

	passed := base
	passed.TargetDate = testNow.Add(2 * time.Hour)
	_, err := engine.GenerateLearningPath(passed)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	badGoal := base
	badGoal.GoalType = "SPACE"
	_, err = engine.GenerateLearningPath(badGoal)
	assert.ErrorIs(t, err, domain.ErrInvalidState)

	badLevel := base
	badLevel.CurrentLevel = "NATIVE"
	_, err = engine.GenerateLearningPath(badLevel)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestCalculateDailyTaskCount(t *testing.T) {
	t.Parallel()
	engine := NewDefaultEngine()

	analyzed := func(trend domain.SpeedTrend, accuracy float64) *domain.LearningProfile {
		return &domain.LearningProfile{SpeedTrend: trend, AverageAccuracy: accuracy, LastAnalyzedAt: testNow}
	}

	testCases := []struct {
		name     string
		profile  *domain.LearningProfile
		days     int
		target   int
		expected int
	}{
		{"40 words over 4 days", nil, 4, 40, 10},
		{"base rounds up", nil, 3, 100, 34},
		{"clamped low", nil, 30, 30, 10},
		{"clamped high", nil, 2, 1000, 50},
		{"zero target", nil, 5, 0, 10},
		{"unanalyzed profile ignored", &domain.LearningProfile{SpeedTrend: domain.SpeedTrendFast}, 1, 20, 20},
		{"fast learner", analyzed(domain.SpeedTrendFast, 0.9), 1, 20, 24},
		{"slow learner", analyzed(domain.SpeedTrendSlow, 0.9), 1, 29, 23},
		{"low accuracy", analyzed(domain.SpeedTrendNormal, 0.5), 1, 30, 27},
		{"slow with low accuracy", analyzed(domain.SpeedTrendSlow, 0.4), 1, 40, 28},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.CalculateDailyTaskCount(tc.profile, tc.days, tc.target)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}
}

func TestCalculateDailyTaskCountStaysInBounds(t *testing.T) {
	t.Parallel()
	engine := NewDefaultEngine()

	profiles := []*domain.LearningProfile{
		nil,
		{SpeedTrend: domain.SpeedTrendFast, AverageAccuracy: 1, LastAnalyzedAt: testNow},
		{SpeedTrend: domain.SpeedTrendSlow, AverageAccuracy: 0, LastAnalyzedAt: testNow},
	}
	for _, p := range profiles {
		for days := 1; days <= 60; days += 7 {
			for target := 0; target <= 5000; target += 137 {
				got, err := engine.CalculateDailyTaskCount(p, days, target)
				require.NoError(t, err)
				assert.GreaterOrEqual(t, got, 10)
				assert.LessOrEqual(t, got, 50)
			}
		}
	}
}

func TestCalculateDailyTaskCountRejectsInvalidInput(t *testing.T) {
	t.Parallel()
	engine := NewDefaultEngine()

	_, err := engine.CalculateDailyTaskCount(nil, 0, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = engine.CalculateDailyTaskCount(nil, -3, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
	_, err = engine.CalculateDailyTaskCount(nil, 3, -1)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestAdjustTaskDifficulty(t *testing.T) {
	t.Parallel()
	engine := NewDefaultEngine()

	testCases := []struct {
		name     string
		rate     float64
		current  int
		expected int
	}{
		{"under-challenged", 0.95, 20, 22},
		{"exactly at increase threshold", 0.9, 30, 33},
		{"overloaded", 0.3, 20, 16},
		{"steady", 0.7, 20, 20},
		{"exactly at decrease threshold", 0.5, 20, 20},
		{"increase re-clamped", 1.0, 50, 50},
		{"decrease re-clamped", 0.0, 11, 10},
		{"small count raised to minimum", 0.7, 5, 10},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := engine.AdjustTaskDifficulty(tc.rate, tc.current)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, got)
		})
	}

	for _, rate := range []float64{-0.1, 1.01} {
		_, err := engine.AdjustTaskDifficulty(rate, 20)
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	}
	_, err := engine.AdjustTaskDifficulty(0.5, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

func TestComposeDailyTasks(t *testing.T) {
	t.Parallel()
	engine := NewDefaultEngine()

	profile := &domain.LearningProfile{
		UserID:     uuid.New(),
		Level:      domain.LevelBeginner,
		GoalType:   domain.GoalTypeTravel,
		TargetDate: testNow.AddDate(0, 0, 30),
	}
	path, err := engine.GenerateLearningPath(PathRequest{
		GoalType:     profile.GoalType,
		TargetDate:   profile.TargetDate,
		CurrentLevel: profile.Level,
		Now:          testNow,
		Pool:         testPool(),
	})
	require.NoError(t, err)

	plan, err := domain.NewStudyPlan(profile, path, 10, testNow)
	require.NoError(t, err)

	ids := path.ItemIDs()
	seen := map[uuid.UUID]bool{ids[0]: true}
	due := []uuid.UUID{ids[0]}

	t.Run("without weak areas", func(t *testing.T) {
		tasks, err := engine.ComposeDailyTasks(DayRequest{
			Plan:       plan,
			Date:       domain.StartOfDay(testNow),
			Seen:       seen,
			DueItemIDs: due,
		}, testNow)
		require.NoError(t, err)
		require.Len(t, tasks, 2)

		assert.Equal(t, domain.TaskTypeVocabulary, tasks[0].Type)
		assert.Equal(t, ids[1:], tasks[0].ItemIDs)
		assert.Equal(t, len(ids)-1, tasks[0].TargetCount)

		assert.Equal(t, domain.TaskTypeReview, tasks[1].Type)
		assert.Equal(t, due, tasks[1].ItemIDs)
		for _, task := range tasks {
			assert.Equal(t, plan.ID, task.PlanID)
			assert.Equal(t, domain.TaskStatusPending, task.Status)
		}
	})

	t.Run("with weak areas", func(t *testing.T) {
		tasks, err := engine.ComposeDailyTasks(DayRequest{
			Plan:        plan,
			Date:        domain.StartOfDay(testNow),
			WeakItemIDs: ids,
			HasWeakArea: true,
		}, testNow)
		require.NoError(t, err)
		require.Len(t, tasks, 3)
		assert.Equal(t, domain.TaskTypeWeakArea, tasks[2].Type)
		assert.Equal(t, 5, tasks[2].TargetCount)
	})

	_, err = engine.ComposeDailyTasks(DayRequest{}, testNow)
	assert.ErrorIs(t, err, domain.ErrInvalidState)
}

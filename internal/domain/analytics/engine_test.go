package analytics

import (
	"math"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	wordA = uuid.MustParse("00000000-0000-0000-0000-00000000000a")
	wordB = uuid.MustParse("00000000-0000-0000-0000-00000000000b")
	wordC = uuid.MustParse("00000000-0000-0000-0000-00000000000c")
)

func at(day, hour int) time.Time {
	return time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
}

func activity(id uuid.UUID, topic string, correct bool, mastery int, when time.Time) domain.Activity {
	return domain.Activity{ItemID: id, Topic: topic, Correct: correct, MasteryAfter: mastery, OccurredAt: when}
}

func TestAnalyzeTimePreferences(t *testing.T) {
	t.Parallel()
	engine := NewEngine(time.UTC)

	assert.Equal(t, domain.TimePreferences{}, engine.AnalyzeTimePreferences(nil))

	prefs := engine.AnalyzeTimePreferences([]domain.Activity{
		{OccurredAt: at(1, 5)},
		{OccurredAt: at(1, 11)},
		{OccurredAt: at(1, 12)},
		{OccurredAt: at(1, 18)},
		{OccurredAt: at(1, 2)},
	})

	assert.InDelta(t, 0.4, prefs.Morning, 1e-9)
	assert.InDelta(t, 0.2, prefs.Afternoon, 1e-9)
	assert.InDelta(t, 0.4, prefs.Evening, 1e-9)
	assert.InDelta(t, 1.0, prefs.Morning+prefs.Afternoon+prefs.Evening, 1e-9)
}

func TestAnalyzeTimePreferencesUsesLocation(t *testing.T) {
	t.Parallel()
	tokyo := time.FixedZone("JST", 9*60*60)
	engine := NewEngine(tokyo)

	// 03:00 UTC is noon in Tokyo
	prefs := engine.AnalyzeTimePreferences([]domain.Activity{{OccurredAt: at(1, 3)}})
	assert.Equal(t, 1.0, prefs.Afternoon)
}

func TestAnalyzeTimePreferencesSumsToOne(t *testing.T) {
	t.Parallel()
	engine := NewEngine(time.UTC)

	for n := 1; n <= 50; n++ {
		activities := make([]domain.Activity, n)
		for i := range activities {
			activities[i] = domain.Activity{OccurredAt: at(1, 0).Add(time.Duration(i*7) * time.Hour)}
		}
		prefs := engine.AnalyzeTimePreferences(activities)
		sum := prefs.Morning + prefs.Afternoon + prefs.Evening
		assert.True(t, math.Abs(sum-1) < 1e-9, "n=%d sum=%f", n, sum)
	}
}

func TestIdentifyWeakAreas(t *testing.T) {
	t.Parallel()
	engine := NewEngine(time.UTC)

	activities := []domain.Activity{
		// dining: 2/3 wrong
		activity(wordA, "dining", false, 0, at(1, 9)),
		activity(wordA, "dining", false, 0, at(1, 9)),
		activity(wordA, "dining", true, 25, at(1, 9)),
		// greeting: 1/2 wrong
		activity(wordB, "greeting", false, 0, at(1, 9)),
		activity(wordB, "greeting", true, 25, at(1, 9)),
		// email: 1/2 wrong, ties with greeting
		activity(wordC, "Email", false, 0, at(1, 9)),
		activity(wordC, "email", true, 25, at(1, 9)),
		// hobbies: 2/5 wrong is not above the threshold
		activity(wordA, "hobbies", false, 0, at(1, 9)),
		activity(wordA, "hobbies", false, 0, at(1, 9)),
		activity(wordA, "hobbies", true, 0, at(1, 9)),
		activity(wordA, "hobbies", true, 0, at(1, 9)),
		activity(wordA, "hobbies", true, 0, at(1, 9)),
	}

	weak := engine.IdentifyWeakAreas(activities)
	require.Len(t, weak, 3)
	assert.Equal(t, "DINING", weak[0].Topic)
	assert.InDelta(t, 2.0/3.0, weak[0].ErrorRate, 1e-9)
	assert.Equal(t, "EMAIL", weak[1].Topic)
	assert.Equal(t, "GREETING", weak[2].Topic)

	assert.Empty(t, engine.IdentifyWeakAreas(nil))
}

func TestCalculateLearningSpeed(t *testing.T) {
	t.Parallel()
	engine := NewEngine(time.UTC)

	assert.Equal(t, 0.0, engine.CalculateLearningSpeed(nil))

	speed := engine.CalculateLearningSpeed([]domain.Activity{
		activity(wordA, "", true, 25, at(1, 9)),
		activity(wordB, "", true, 25, at(1, 20)),
		activity(wordA, "", true, 44, at(3, 9)),
		activity(wordC, "", true, 25, at(3, 10)),
	})
	// three distinct items over two active days
	assert.Equal(t, 1.5, speed)
}

func TestCalculateAccuracy(t *testing.T) {
	t.Parallel()
	engine := NewEngine(time.UTC)

	assert.Equal(t, 0.0, engine.CalculateAccuracy(nil))
	assert.Equal(t, 0.5, engine.CalculateAccuracy([]domain.Activity{
		{Correct: true}, {Correct: false},
	}))
}

func TestGenerateProgressCurve(t *testing.T) {
	t.Parallel()
	engine := NewEngine(time.UTC)
	now := at(5, 15)

	activities := []domain.Activity{
		// before the window
		activity(wordA, "", true, 85, at(1, 9)),
		// day 3
		activity(wordB, "", true, 25, at(3, 9)),
		activity(wordB, "", false, 20, at(3, 10)),
		// day 4: wordA drops below mastery, wordC mastered
		activity(wordA, "", false, 60, at(4, 8)),
		activity(wordC, "", true, 90, at(4, 9)),
		// day 5 (today)
		activity(wordA, "", true, 80, at(5, 9)),
		// after now's day, must not appear
		activity(wordB, "", true, 95, at(6, 9)),
	}

	curve, err := engine.GenerateProgressCurve(activities, 3, now)
	require.NoError(t, err)

	assert.Equal(t, []time.Time{at(3, 0), at(4, 0), at(5, 0)}, curve.Dates)
	assert.Equal(t, []int{2, 3, 3}, curve.WordsLearned)
	assert.Equal(t, []int{1, 1, 2}, curve.WordsMastered)
	assert.Equal(t, []float64{0.5, 0.5, 1.0}, curve.AccuracyTrend)
}

func TestGenerateProgressCurveEmpty(t *testing.T) {
	t.Parallel()
	engine := NewEngine(time.UTC)

	curve, err := engine.GenerateProgressCurve(nil, 7, at(10, 12))
	require.NoError(t, err)

	assert.Len(t, curve.Dates, 7)
	assert.Equal(t, at(4, 0), curve.Dates[0])
	assert.Equal(t, make([]int, 7), curve.WordsLearned)
	assert.Equal(t, make([]int, 7), curve.WordsMastered)
	assert.Equal(t, make([]float64, 7), curve.AccuracyTrend)
}

func TestGenerateProgressCurveRejectsNonPositiveDays(t *testing.T) {
	t.Parallel()
	engine := NewEngine(time.UTC)

	for _, days := range []int{0, -1} {
		_, err := engine.GenerateProgressCurve(nil, days, at(1, 0))
		assert.ErrorIs(t, err, domain.ErrInvalidState)
	}
}

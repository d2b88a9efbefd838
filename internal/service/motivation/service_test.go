package motivation_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/clock"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/phrazzld/scry-lexicon/internal/events"
	"github.com/phrazzld/scry-lexicon/internal/platform/inmem"
	"github.com/phrazzld/scry-lexicon/internal/service/motivation"
	"github.com/phrazzld/scry-lexicon/internal/task"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ task.ReviewActivityRecorder = (*motivation.Service)(nil)

// UTC-5 without daylight saving, so local days are easy to reason about.
var local = time.FixedZone("UTC-5", -5*60*60)

var baseTime = time.Date(2025, 3, 10, 15, 0, 0, 0, time.UTC)

type fixture struct {
	svc          *motivation.Service
	achievements *inmem.AchievementStore
	records      *inmem.MemoryRecordStore
	activities   *inmem.ActivityStore
	clock        *clock.Fixed
}

func newFixture() *fixture {
	f := &fixture{
		achievements: inmem.NewAchievementStore(),
		records:      inmem.NewMemoryRecordStore(),
		activities:   inmem.NewActivityStore(),
		clock:        clock.NewFixed(baseTime),
	}
	f.svc = motivation.NewService(f.achievements, f.records, f.activities, f.clock, local,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	return f
}

// seedAnswered creates n records for the user, each reviewed once.
func (f *fixture) seedAnswered(t *testing.T, userID uuid.UUID, n int, correct bool, status domain.MemoryStatus) {
	t.Helper()
	for i := 0; i < n; i++ {
		r, err := domain.NewMemoryRecord(userID, uuid.New(), baseTime)
		require.NoError(t, err)
		r.ReviewCount = 1
		if correct {
			r.CorrectCount = 1
			r.MasteryLevel = 85
		} else {
			r.WrongCount = 1
		}
		r.Status = status
		require.NoError(t, f.records.Create(context.Background(), r))
	}
}

// logActivity appends a review of a fresh item at the given time.
func (f *fixture) logActivity(t *testing.T, userID uuid.UUID, at time.Time) {
	t.Helper()
	r, err := domain.NewMemoryRecord(userID, uuid.New(), at)
	require.NoError(t, err)
	a, err := domain.NewActivity(r, "general", true, at)
	require.NoError(t, err)
	require.NoError(t, f.activities.Append(context.Background(), a))
}

func TestUpdateStreak(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	userID := uuid.New()

	streak, err := f.svc.UpdateStreak(ctx, userID, baseTime)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak)

	// 22:00 local is still the same local day
	streak, err = f.svc.UpdateStreak(ctx, userID, time.Date(2025, 3, 11, 3, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak)

	streak, err = f.svc.UpdateStreak(ctx, userID, baseTime.AddDate(0, 0, 1))
	require.NoError(t, err)
	assert.Equal(t, 2, streak.CurrentStreak)

	streak, err = f.svc.UpdateStreak(ctx, userID, baseTime.AddDate(0, 0, 4))
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak)
	assert.Equal(t, 2, streak.LongestStreak)

	stored, err := f.achievements.GetStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, streak, stored)
}

func TestUpdateStreak_EarlierDayHandledLate(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	userID := uuid.New()
	monday := baseTime
	tuesday := baseTime.AddDate(0, 0, 1)
	f.logActivity(t, userID, monday)
	f.logActivity(t, userID, tuesday)

	// tuesday's event is handled before monday's
	streak, err := f.svc.UpdateStreak(ctx, userID, tuesday)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak)

	streak, err = f.svc.UpdateStreak(ctx, userID, monday)
	require.NoError(t, err)
	assert.Equal(t, 2, streak.CurrentStreak)
	assert.Equal(t, 2, streak.LongestStreak)
	assert.True(t, streak.LastActiveDate.Equal(time.Date(2025, 3, 11, 0, 0, 0, 0, local)))

	// a duplicate late event changes nothing
	streak, err = f.svc.UpdateStreak(ctx, userID, monday)
	require.NoError(t, err)
	assert.Equal(t, 2, streak.CurrentStreak)

	stored, err := f.achievements.GetStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 2, stored.CurrentStreak)

	// the next day continues the rebuilt run
	streak, err = f.svc.UpdateStreak(ctx, userID, baseTime.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Equal(t, 3, streak.CurrentStreak)
}

func TestCheckAndGrant(t *testing.T) {
	t.Parallel()

	t.Run("milestones", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		ctx := context.Background()
		userID := uuid.New()
		f.seedAnswered(t, userID, 100, true, domain.MemoryStatusMastered)

		granted, err := f.svc.CheckAndGrant(ctx, userID)
		require.NoError(t, err)

		codes := make([]string, 0, len(granted))
		for _, a := range granted {
			codes = append(codes, a.Code)
		}
		assert.Equal(t, []string{"WORDS_100", "ACCURACY_90", "REVIEW_100"}, codes)

		// Never granted twice
		granted, err = f.svc.CheckAndGrant(ctx, userID)
		require.NoError(t, err)
		assert.Empty(t, granted)
	})

	t.Run("accuracy needs enough answers", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		userID := uuid.New()
		f.seedAnswered(t, userID, 49, true, domain.MemoryStatusMastered)

		granted, err := f.svc.CheckAndGrant(context.Background(), userID)
		require.NoError(t, err)
		assert.Empty(t, granted)
	})

	t.Run("accuracy below threshold", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		userID := uuid.New()
		f.seedAnswered(t, userID, 45, true, domain.MemoryStatusMastered)
		f.seedAnswered(t, userID, 10, false, domain.MemoryStatusLearning)

		granted, err := f.svc.CheckAndGrant(context.Background(), userID)
		require.NoError(t, err)
		assert.Empty(t, granted)
	})

	t.Run("streak", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		ctx := context.Background()
		userID := uuid.New()
		require.NoError(t, f.achievements.SaveStreak(ctx, &domain.LearningStreak{
			UserID: userID, CurrentStreak: 7, LongestStreak: 7, LastActiveDate: baseTime, UpdatedAt: baseTime,
		}))

		granted, err := f.svc.CheckAndGrant(ctx, userID)
		require.NoError(t, err)
		require.Len(t, granted, 1)
		assert.Equal(t, "STREAK_7", granted[0].Code)
	})
}

func TestAchievements(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	userID := uuid.New()

	none, err := f.svc.Achievements(ctx, userID)
	require.NoError(t, err)
	assert.Empty(t, none)

	_, err = f.achievements.Unlock(ctx, domain.UserAchievement{UserID: userID, Code: "REVIEW_100", UnlockedAt: baseTime})
	require.NoError(t, err)
	_, err = f.achievements.Unlock(ctx, domain.UserAchievement{UserID: userID, Code: "RETIRED", UnlockedAt: baseTime})
	require.NoError(t, err)

	unlocked, err := f.svc.Achievements(ctx, userID)
	require.NoError(t, err)
	require.Len(t, unlocked, 1)
	assert.Equal(t, "Diligent Reviewer", unlocked[0].Name)
	assert.Equal(t, baseTime, unlocked[0].UnlockedAt)
}

func TestProgress(t *testing.T) {
	t.Parallel()

	t.Run("new_user", func(t *testing.T) {
		t.Parallel()
		f := newFixture()

		p, err := f.svc.Progress(context.Background(), uuid.New())
		require.NoError(t, err)
		assert.Zero(t, p.CurrentStreak)
		assert.Nil(t, p.LastActiveDate)
		assert.Len(t, p.Achievements, len(domain.DefaultAchievements()))
		for _, a := range p.Achievements {
			assert.False(t, a.Unlocked, a.Code)
		}
		assert.Equal(t, motivation.AchievementSummary{Total: len(domain.DefaultAchievements())}, p.Summary)
		require.Len(t, p.Calendar, motivation.CalendarDays)
		for _, d := range p.Calendar {
			assert.False(t, d.Learned, d.Date)
		}
		assert.Zero(t, p.TotalWords)
		assert.Zero(t, p.MasteryProgress)
	})

	t.Run("active_user", func(t *testing.T) {
		t.Parallel()
		f := newFixture()
		ctx := context.Background()
		userID := uuid.New()
		f.seedAnswered(t, userID, 3, true, domain.MemoryStatusMastered)
		f.seedAnswered(t, userID, 1, false, domain.MemoryStatusLearning)

		f.logActivity(t, userID, baseTime.AddDate(0, 0, -1))
		f.logActivity(t, userID, baseTime)
		f.logActivity(t, userID, baseTime.Add(time.Hour))
		// older than the calendar window
		f.logActivity(t, userID, baseTime.AddDate(0, 0, -40))
		_, err := f.svc.UpdateStreak(ctx, userID, baseTime.AddDate(0, 0, -1))
		require.NoError(t, err)
		_, err = f.svc.UpdateStreak(ctx, userID, baseTime)
		require.NoError(t, err)
		_, err = f.achievements.Unlock(ctx, domain.UserAchievement{UserID: userID, Code: "REVIEW_100", UnlockedAt: baseTime})
		require.NoError(t, err)
		_, err = f.achievements.Unlock(ctx, domain.UserAchievement{UserID: userID, Code: "WORDS_100", UnlockedAt: baseTime})
		require.NoError(t, err)

		p, err := f.svc.Progress(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, 2, p.CurrentStreak)
		assert.Equal(t, 2, p.LongestStreak)
		require.NotNil(t, p.LastActiveDate)
		assert.True(t, p.LastActiveDate.Equal(time.Date(2025, 3, 10, 0, 0, 0, 0, local)))

		unlocked := map[string]bool{}
		for _, a := range p.Achievements {
			if a.Unlocked {
				unlocked[a.Code] = true
				require.NotNil(t, a.UnlockedAt)
			}
		}
		assert.Equal(t, map[string]bool{"REVIEW_100": true, "WORDS_100": true}, unlocked)
		assert.Equal(t, "STREAK_7", p.Achievements[0].Code)
		assert.Equal(t, domain.AchievementCategoryStreak, p.Achievements[0].Category)
		assert.Equal(t, 2, p.Summary.Unlocked)
		assert.InDelta(t, 2.0/float64(p.Summary.Total), p.Summary.Progress, 1e-9)

		require.Len(t, p.Calendar, motivation.CalendarDays)
		today := p.Calendar[len(p.Calendar)-1]
		assert.Equal(t, "2025-03-10", today.Date)
		assert.True(t, today.Learned)
		assert.Equal(t, 2, today.Reviews)
		yesterday := p.Calendar[len(p.Calendar)-2]
		assert.Equal(t, "2025-03-09", yesterday.Date)
		assert.Equal(t, 1, yesterday.Reviews)
		assert.Equal(t, "2025-02-09", p.Calendar[0].Date)
		learned := 0
		for _, d := range p.Calendar {
			if d.Learned {
				learned++
			}
		}
		assert.Equal(t, 2, learned)

		assert.Equal(t, 4, p.TotalWords)
		assert.Equal(t, 3, p.MasteredWords)
		assert.InDelta(t, 0.75, p.MasteryProgress, 1e-9)
	})
}

func TestRecordReviewActivity(t *testing.T) {
	t.Parallel()
	f := newFixture()
	ctx := context.Background()
	userID := uuid.New()
	f.seedAnswered(t, userID, 100, true, domain.MemoryStatusMastered)

	err := f.svc.RecordReviewActivity(ctx, events.ReviewCompleted{
		UserID:     userID,
		ItemID:     uuid.New(),
		Correct:    true,
		OccurredAt: baseTime,
	})
	require.NoError(t, err)

	streak, err := f.achievements.GetStreak(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, 1, streak.CurrentStreak)

	unlocked, err := f.svc.Achievements(ctx, userID)
	require.NoError(t, err)
	assert.Len(t, unlocked, 3)
}

package inmem

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/phrazzld/scry-lexicon/internal/store"
)

// ActivityStore implements store.ActivityStore in memory.
type ActivityStore struct {
	mu         sync.RWMutex
	activities map[uuid.UUID][]domain.Activity
}

var _ store.ActivityStore = (*ActivityStore)(nil)

// NewActivityStore creates an empty store.
func NewActivityStore() *ActivityStore {
	return &ActivityStore{activities: make(map[uuid.UUID][]domain.Activity)}
}

// Append implements store.ActivityStore.
func (s *ActivityStore) Append(_ context.Context, activity *domain.Activity) error {
	if activity.UserID == uuid.Nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrEmptyActivityUserID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.activities[activity.UserID] = append(s.activities[activity.UserID], *activity)
	return nil
}

// ListByUser implements store.ActivityStore.
func (s *ActivityStore) ListByUser(_ context.Context, userID uuid.UUID, since time.Time) ([]domain.Activity, error) {
	s.mu.RLock()
	out := make([]domain.Activity, 0, len(s.activities[userID]))
	for _, a := range s.activities[userID] {
		if since.IsZero() || !a.OccurredAt.Before(since) {
			out = append(out, a)
		}
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool { return out[i].OccurredAt.Before(out[j].OccurredAt) })
	return out, nil
}

// DeleteByUser implements store.ActivityStore.
func (s *ActivityStore) DeleteByUser(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.activities[userID])
	delete(s.activities, userID)
	return n, nil
}

// AchievementStore implements store.AchievementStore in memory.
type AchievementStore struct {
	mu       sync.RWMutex
	streaks  map[uuid.UUID]domain.LearningStreak
	unlocked map[uuid.UUID][]domain.UserAchievement
}

var _ store.AchievementStore = (*AchievementStore)(nil)

// NewAchievementStore creates an empty store.
func NewAchievementStore() *AchievementStore {
	return &AchievementStore{
		streaks:  make(map[uuid.UUID]domain.LearningStreak),
		unlocked: make(map[uuid.UUID][]domain.UserAchievement),
	}
}

// GetStreak implements store.AchievementStore.
func (s *AchievementStore) GetStreak(_ context.Context, userID uuid.UUID) (*domain.LearningStreak, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	streak, ok := s.streaks[userID]
	if !ok {
		return nil, store.ErrStreakNotFound
	}
	return &streak, nil
}

// SaveStreak implements store.AchievementStore.
func (s *AchievementStore) SaveStreak(_ context.Context, streak *domain.LearningStreak) error {
	if streak.UserID == uuid.Nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, domain.ErrEmptyStreakUserID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.streaks[streak.UserID] = *streak
	return nil
}

// Unlock implements store.AchievementStore.
func (s *AchievementStore) Unlock(_ context.Context, achievement domain.UserAchievement) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, a := range s.unlocked[achievement.UserID] {
		if a.Code == achievement.Code {
			return false, nil
		}
	}
	s.unlocked[achievement.UserID] = append(s.unlocked[achievement.UserID], achievement)
	return true, nil
}

// ListUnlocked implements store.AchievementStore.
func (s *AchievementStore) ListUnlocked(_ context.Context, userID uuid.UUID) ([]domain.UserAchievement, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := append([]domain.UserAchievement{}, s.unlocked[userID]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].UnlockedAt.Before(out[j].UnlockedAt) })
	return out, nil
}

// VocabularyStore implements store.VocabularyStore in memory.
type VocabularyStore struct {
	mu    sync.RWMutex
	items map[uuid.UUID]domain.VocabularyItem
}

var _ store.VocabularyStore = (*VocabularyStore)(nil)

// NewVocabularyStore creates an empty store.
func NewVocabularyStore() *VocabularyStore {
	return &VocabularyStore{items: make(map[uuid.UUID]domain.VocabularyItem)}
}

// UpsertMany implements store.VocabularyStore.
func (s *VocabularyStore) UpsertMany(_ context.Context, items []domain.VocabularyItem) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, item := range items {
		if item.ID == uuid.Nil {
			return 0, fmt.Errorf("%w: vocabulary item without ID", store.ErrInvalidEntity)
		}
	}
	for _, item := range items {
		s.items[item.ID] = item
	}
	return len(items), nil
}

// Get implements store.VocabularyStore.
func (s *VocabularyStore) Get(_ context.Context, id uuid.UUID) (*domain.VocabularyItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, ok := s.items[id]
	if !ok {
		return nil, store.ErrVocabularyItemNotFound
	}
	return &item, nil
}

// List implements store.VocabularyStore.
func (s *VocabularyStore) List(_ context.Context) ([]domain.VocabularyItem, error) {
	s.mu.RLock()
	out := make([]domain.VocabularyItem, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, item)
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Category != b.Category {
			return a.Category < b.Category
		}
		if a.Difficulty != b.Difficulty {
			return a.Difficulty < b.Difficulty
		}
		if a.Word != b.Word {
			return a.Word < b.Word
		}
		return a.ID.String() < b.ID.String()
	})
	return out, nil
}

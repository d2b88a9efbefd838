// Package inmem provides mutex-guarded in-memory implementations of the
// store interfaces. They follow the same contracts as the PostgreSQL stores
// and back the test suites and the CLI's --in-memory mode.
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

type recordKey struct {
	userID uuid.UUID
	itemID uuid.UUID
}

// MemoryRecordStore implements store.MemoryRecordStore in memory.
type MemoryRecordStore struct {
	mu      sync.RWMutex
	records map[recordKey]*domain.MemoryRecord
}

var _ store.MemoryRecordStore = (*MemoryRecordStore)(nil)

// NewMemoryRecordStore creates an empty store.
func NewMemoryRecordStore() *MemoryRecordStore {
	return &MemoryRecordStore{records: make(map[recordKey]*domain.MemoryRecord)}
}

// Create implements store.MemoryRecordStore.
func (s *MemoryRecordStore) Create(_ context.Context, record *domain.MemoryRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{record.UserID, record.ItemID}
	if _, exists := s.records[key]; exists {
		return store.ErrMemoryRecordExists
	}

	record.Version = 1
	s.records[key] = record.Clone()
	return nil
}

// Get implements store.MemoryRecordStore.
func (s *MemoryRecordStore) Get(_ context.Context, userID, itemID uuid.UUID) (*domain.MemoryRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[recordKey{userID, itemID}]
	if !ok {
		return nil, store.ErrMemoryRecordNotFound
	}
	return r.Clone(), nil
}

// Update implements store.MemoryRecordStore.
func (s *MemoryRecordStore) Update(_ context.Context, record *domain.MemoryRecord) error {
	if err := record.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := recordKey{record.UserID, record.ItemID}
	current, ok := s.records[key]
	if !ok {
		return store.ErrMemoryRecordNotFound
	}
	if current.Version != record.Version {
		return fmt.Errorf("%w: memory record version %d, stored %d",
			store.ErrConcurrencyConflict, record.Version, current.Version)
	}

	record.Version++
	s.records[key] = record.Clone()
	return nil
}

// FindDueReviews implements store.MemoryRecordStore.
func (s *MemoryRecordStore) FindDueReviews(
	_ context.Context,
	userID uuid.UUID,
	now time.Time,
	limit int,
) ([]*domain.MemoryRecord, error) {
	limit = store.NormalizeDueLimit(limit)

	s.mu.RLock()
	due := make([]*domain.MemoryRecord, 0)
	for key, r := range s.records {
		if key.userID == userID && r.IsDue(now) {
			due = append(due, r.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(due, func(i, j int) bool {
		a, b := due[i], due[j]
		if !a.NextReviewAt.Equal(b.NextReviewAt) {
			return a.NextReviewAt.Before(b.NextReviewAt)
		}
		if a.MasteryLevel != b.MasteryLevel {
			return a.MasteryLevel < b.MasteryLevel
		}
		return a.ItemID.String() < b.ItemID.String()
	})

	if len(due) > limit {
		due = due[:limit]
	}
	return due, nil
}

// CountMasteredByUser implements store.MemoryRecordStore.
func (s *MemoryRecordStore) CountMasteredByUser(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for key, r := range s.records {
		if key.userID == userID && r.Status == domain.MemoryStatusMastered {
			n++
		}
	}
	return n, nil
}

// CountTotalByUser implements store.MemoryRecordStore.
func (s *MemoryRecordStore) CountTotalByUser(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for key := range s.records {
		if key.userID == userID {
			n++
		}
	}
	return n, nil
}

// Statistics implements store.MemoryRecordStore.
func (s *MemoryRecordStore) Statistics(ctx context.Context, userID uuid.UUID, now time.Time) (*domain.MemoryStatistics, error) {
	records, err := s.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return domain.ComputeMemoryStatistics(userID, records, now), nil
}

// ListByUser implements store.MemoryRecordStore.
func (s *MemoryRecordStore) ListByUser(_ context.Context, userID uuid.UUID) ([]*domain.MemoryRecord, error) {
	s.mu.RLock()
	out := make([]*domain.MemoryRecord, 0)
	for key, r := range s.records {
		if key.userID == userID {
			out = append(out, r.Clone())
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		return out[i].ItemID.String() < out[j].ItemID.String()
	})
	return out, nil
}

// DeleteByUser implements store.MemoryRecordStore.
func (s *MemoryRecordStore) DeleteByUser(_ context.Context, userID uuid.UUID) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := 0
	for key := range s.records {
		if key.userID == userID {
			delete(s.records, key)
			n++
		}
	}
	return n, nil
}

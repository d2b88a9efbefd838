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

// ProfileStore implements store.ProfileStore in memory.
type ProfileStore struct {
	mu       sync.RWMutex
	profiles map[uuid.UUID]domain.LearningProfile
}

var _ store.ProfileStore = (*ProfileStore)(nil)

// NewProfileStore creates an empty store.
func NewProfileStore() *ProfileStore {
	return &ProfileStore{profiles: make(map[uuid.UUID]domain.LearningProfile)}
}

// Get implements store.ProfileStore.
func (s *ProfileStore) Get(_ context.Context, userID uuid.UUID) (*domain.LearningProfile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.profiles[userID]
	if !ok {
		return nil, store.ErrProfileNotFound
	}
	p.WeakAreas = append([]domain.WeakArea(nil), p.WeakAreas...)
	return &p, nil
}

// Upsert implements store.ProfileStore.
func (s *ProfileStore) Upsert(_ context.Context, profile *domain.LearningProfile) error {
	if err := profile.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	p := *profile
	p.WeakAreas = append([]domain.WeakArea(nil), profile.WeakAreas...)

	s.mu.Lock()
	defer s.mu.Unlock()
	if existing, ok := s.profiles[p.UserID]; ok {
		p.CreatedAt = existing.CreatedAt
	}
	s.profiles[p.UserID] = p
	return nil
}

type taskKey struct {
	planID   uuid.UUID
	day      int64 // Unix seconds of the task's local midnight
	taskType domain.TaskType
}

// PlanStore implements store.PlanStore in memory. A single mutex covers
// plans and tasks, which serializes ReplaceActive for every user.
type PlanStore struct {
	mu        sync.Mutex
	plans     map[uuid.UUID]*domain.StudyPlan
	active    map[uuid.UUID]uuid.UUID // user ID -> active plan ID
	tasks     map[uuid.UUID]*domain.DailyTask
	taskIndex map[taskKey]uuid.UUID
}

var _ store.PlanStore = (*PlanStore)(nil)

// NewPlanStore creates an empty store.
func NewPlanStore() *PlanStore {
	return &PlanStore{
		plans:     make(map[uuid.UUID]*domain.StudyPlan),
		active:    make(map[uuid.UUID]uuid.UUID),
		tasks:     make(map[uuid.UUID]*domain.DailyTask),
		taskIndex: make(map[taskKey]uuid.UUID),
	}
}

// GetActive implements store.PlanStore.
func (s *PlanStore) GetActive(_ context.Context, userID uuid.UUID) (*domain.StudyPlan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id, ok := s.active[userID]
	if !ok {
		return nil, store.ErrPlanNotFound
	}
	return clonePlan(s.plans[id]), nil
}

// ReplaceActive implements store.PlanStore.
func (s *PlanStore) ReplaceActive(_ context.Context, plan *domain.StudyPlan) (uuid.UUID, error) {
	if err := plan.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if plan.Status != domain.PlanStatusActive {
		return uuid.Nil, fmt.Errorf("%w: replacement plan must be ACTIVE", store.ErrInvalidEntity)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.plans[plan.ID]; exists {
		return uuid.Nil, fmt.Errorf("%w: study plan %s", store.ErrDuplicate, plan.ID)
	}

	superseded := uuid.Nil
	if prevID, ok := s.active[plan.UserID]; ok {
		prev := s.plans[prevID]
		prev.Status = domain.PlanStatusSuperseded
		prev.UpdatedAt = plan.CreatedAt
		superseded = prevID
	}

	plan.Version = 1
	s.plans[plan.ID] = clonePlan(plan)
	s.active[plan.UserID] = plan.ID
	return superseded, nil
}

// Update implements store.PlanStore.
func (s *PlanStore) Update(_ context.Context, plan *domain.StudyPlan) error {
	if err := plan.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.plans[plan.ID]
	if !ok {
		return store.ErrPlanNotFound
	}
	if current.Version != plan.Version {
		return fmt.Errorf("%w: study plan version %d, stored %d",
			store.ErrConcurrencyConflict, plan.Version, current.Version)
	}

	current.DailyTaskCount = plan.DailyTaskCount
	current.CompletionRate = plan.CompletionRate
	current.Adjustments = append([]domain.PlanAdjustment(nil), plan.Adjustments...)
	current.AdjustedOn = plan.AdjustedOn
	current.UpdatedAt = plan.UpdatedAt
	current.Version++
	plan.Version = current.Version

	if plan.Status != current.Status {
		current.Status = plan.Status
		if plan.Status != domain.PlanStatusActive && s.active[plan.UserID] == plan.ID {
			delete(s.active, plan.UserID)
		}
	}
	return nil
}

// ListActiveUserIDs implements store.PlanStore.
func (s *PlanStore) ListActiveUserIDs(_ context.Context) ([]uuid.UUID, error) {
	s.mu.Lock()
	ids := make([]uuid.UUID, 0, len(s.active))
	for userID := range s.active {
		ids = append(ids, userID)
	}
	s.mu.Unlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

// CreateTasks implements store.PlanStore.
func (s *PlanStore) CreateTasks(_ context.Context, tasks []*domain.DailyTask) error {
	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, t := range tasks {
		if _, ok := s.plans[t.PlanID]; !ok {
			return fmt.Errorf("%w: daily task references unknown plan", store.ErrInvalidEntity)
		}
		if _, dup := s.taskIndex[taskKey{t.PlanID, t.Date.Unix(), t.Type}]; dup {
			return fmt.Errorf("%w: %s task for %s", store.ErrDuplicate, t.Type, t.Date.Format(time.DateOnly))
		}
	}
	for _, t := range tasks {
		s.tasks[t.ID] = cloneTask(t)
		s.taskIndex[taskKey{t.PlanID, t.Date.Unix(), t.Type}] = t.ID
	}
	return nil
}

// ListTasks implements store.PlanStore.
func (s *PlanStore) ListTasks(_ context.Context, planID uuid.UUID, date time.Time) ([]*domain.DailyTask, error) {
	s.mu.Lock()
	out := make([]*domain.DailyTask, 0, 3)
	for _, t := range s.tasks {
		if t.PlanID == planID && t.Date.Equal(date) {
			out = append(out, cloneTask(t))
		}
	}
	s.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

// GetTask implements store.PlanStore.
func (s *PlanStore) GetTask(_ context.Context, taskID uuid.UUID) (*domain.DailyTask, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[taskID]
	if !ok {
		return nil, store.ErrTaskNotFound
	}
	return cloneTask(t), nil
}

// UpdateTask implements store.PlanStore.
func (s *PlanStore) UpdateTask(_ context.Context, task *domain.DailyTask) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, ok := s.tasks[task.ID]
	if !ok {
		return store.ErrTaskNotFound
	}
	current.CompletedCount = task.CompletedCount
	current.Status = task.Status
	current.CompletedAt = task.CompletedAt
	current.UpdatedAt = task.UpdatedAt
	return nil
}

func clonePlan(p *domain.StudyPlan) *domain.StudyPlan {
	c := *p
	c.Adjustments = append([]domain.PlanAdjustment(nil), p.Adjustments...)
	c.Path.WordSets = make([]domain.WordSet, len(p.Path.WordSets))
	for i, set := range p.Path.WordSets {
		set.ItemIDs = append([]uuid.UUID(nil), set.ItemIDs...)
		c.Path.WordSets[i] = set
	}
	return &c
}

func cloneTask(t *domain.DailyTask) *domain.DailyTask {
	c := *t
	c.ItemIDs = append([]uuid.UUID(nil), t.ItemIDs...)
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

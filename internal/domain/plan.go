package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// PlanStatus is the lifecycle state of a StudyPlan.
type PlanStatus string

// Plan lifecycle states. At most one plan per user is ACTIVE.
const (
	PlanStatusActive     PlanStatus = "ACTIVE"
	PlanStatusSuperseded PlanStatus = "SUPERSEDED"
	PlanStatusCompleted  PlanStatus = "COMPLETED"
)

// TaskType is the kind of work a DailyTask asks for.
type TaskType string

// Daily task types
const (
	TaskTypeVocabulary TaskType = "VOCABULARY"
	TaskTypeReview     TaskType = "REVIEW"
	TaskTypeWeakArea   TaskType = "WEAK_AREA"
)

// TaskStatus is the completion state of a DailyTask.
type TaskStatus string

// Daily task states
const (
	TaskStatusPending    TaskStatus = "PENDING"
	TaskStatusInProgress TaskStatus = "IN_PROGRESS"
	TaskStatusCompleted  TaskStatus = "COMPLETED"
)

// MaxPlanAdjustments is how many adjustment entries a plan retains.
const MaxPlanAdjustments = 10

// Common validation errors for StudyPlan and DailyTask
var (
	ErrEmptyPlanUserID    = errors.New("study plan user ID cannot be empty")
	ErrInvalidPlanStatus  = errors.New("invalid plan status")
	ErrInvalidTaskCount   = errors.New("daily task count must be positive")
	ErrEmptyTaskPlanID    = errors.New("daily task plan ID cannot be empty")
	ErrInvalidTaskType    = errors.New("invalid task type")
	ErrInvalidTaskStatus  = errors.New("invalid task status")
	ErrInvalidTaskTarget  = errors.New("task target count cannot be negative")
	ErrTaskAlreadyDone    = errors.New("daily task already completed")
	ErrInvalidTaskOutcome = errors.New("completed count cannot be negative")
)

// WordSet is one named group of vocabulary items within a LearningPath.
type WordSet struct {
	Name     string      `json:"name"`
	Category string      `json:"category"`
	Priority int         `json:"priority"` // 1 is studied first
	ItemIDs  []uuid.UUID `json:"item_ids"`
}

// LearningPath is the ordered partition of the vocabulary pool a plan follows.
type LearningPath struct {
	GoalType   GoalType  `json:"goal_type"`
	WordSets   []WordSet `json:"word_sets"`
	TotalWords int       `json:"total_words"`
}

// ItemIDs returns every item on the path in study order.
func (p LearningPath) ItemIDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, p.TotalWords)
	for _, set := range p.WordSets {
		ids = append(ids, set.ItemIDs...)
	}
	if len(ids) > p.TotalWords {
		ids = ids[:p.TotalWords]
	}
	return ids
}

// PlanAdjustment records one change to a plan's daily task count.
type PlanAdjustment struct {
	Date     time.Time `json:"date"`
	Reason   string    `json:"reason"`
	OldCount int       `json:"old_count"`
	NewCount int       `json:"new_count"`
}

// StudyPlan is a learner's multi-day plan toward their goal.
type StudyPlan struct {
	ID             uuid.UUID        `json:"id"`
	UserID         uuid.UUID        `json:"user_id"`
	GoalType       GoalType         `json:"goal_type"`
	TargetDate     time.Time        `json:"target_date"`
	DailyTaskCount int              `json:"daily_task_count"`
	Phase          ProficiencyLevel `json:"phase"`
	CompletionRate float64          `json:"completion_rate"`
	Status         PlanStatus       `json:"status"`
	Path           LearningPath     `json:"path"`
	Adjustments    []PlanAdjustment `json:"adjustments"` // newest first
	AdjustedOn     time.Time        `json:"adjusted_on"` // local midnight of the last adjustment run
	Version        int64            `json:"version"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}

// NewStudyPlan creates an ACTIVE plan for the given profile and path.
func NewStudyPlan(profile *LearningProfile, path LearningPath, dailyTaskCount int, now time.Time) (*StudyPlan, error) {
	plan := &StudyPlan{
		ID:             uuid.New(),
		UserID:         profile.UserID,
		GoalType:       profile.GoalType,
		TargetDate:     profile.TargetDate,
		DailyTaskCount: dailyTaskCount,
		Phase:          profile.Level,
		Status:         PlanStatusActive,
		Path:           path,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := plan.Validate(); err != nil {
		return nil, err
	}

	return plan, nil
}

// Validate checks if the StudyPlan has valid data.
func (p *StudyPlan) Validate() error {
	if p.UserID == uuid.Nil {
		return ErrEmptyPlanUserID
	}
	if !p.Status.IsValid() {
		return ErrInvalidPlanStatus
	}
	if p.DailyTaskCount <= 0 {
		return ErrInvalidTaskCount
	}
	return nil
}

// RecordAdjustment changes the daily task count and prepends an entry to the
// adjustment history, keeping at most MaxPlanAdjustments entries.
// Nothing is recorded when the count does not change.
func (p *StudyPlan) RecordAdjustment(newCount int, reason string, now time.Time) bool {
	if newCount == p.DailyTaskCount {
		return false
	}

	entry := PlanAdjustment{
		Date:     now,
		Reason:   reason,
		OldCount: p.DailyTaskCount,
		NewCount: newCount,
	}

	history := make([]PlanAdjustment, 0, MaxPlanAdjustments)
	history = append(history, entry)
	history = append(history, p.Adjustments...)
	if len(history) > MaxPlanAdjustments {
		history = history[:MaxPlanAdjustments]
	}

	p.Adjustments = history
	p.DailyTaskCount = newCount
	p.UpdatedAt = now
	return true
}

// AdjustedFor reports whether the daily load has already been adjusted on
// the calendar day of t.
func (p *StudyPlan) AdjustedFor(t time.Time) bool {
	return !p.AdjustedOn.IsZero() && p.AdjustedOn.Equal(StartOfDay(t))
}

// IsValid reports whether s is a known plan status.
func (s PlanStatus) IsValid() bool {
	switch s {
	case PlanStatusActive, PlanStatusSuperseded, PlanStatusCompleted:
		return true
	default:
		return false
	}
}

// DailyTask is one unit of work scheduled for a specific day of a plan.
type DailyTask struct {
	ID             uuid.UUID   `json:"id"`
	PlanID         uuid.UUID   `json:"plan_id"`
	UserID         uuid.UUID   `json:"user_id"`
	Date           time.Time   `json:"date"` // local midnight of the task's day
	Type           TaskType    `json:"type"`
	ItemIDs        []uuid.UUID `json:"item_ids"`
	TargetCount    int         `json:"target_count"`
	CompletedCount int         `json:"completed_count"`
	Status         TaskStatus  `json:"status"`
	CompletedAt    *time.Time  `json:"completed_at,omitempty"`
	CreatedAt      time.Time   `json:"created_at"`
	UpdatedAt      time.Time   `json:"updated_at"`
}

// NewDailyTask creates a PENDING task for the given plan and day.
func NewDailyTask(
	plan *StudyPlan,
	date time.Time,
	taskType TaskType,
	itemIDs []uuid.UUID,
	targetCount int,
	now time.Time,
) (*DailyTask, error) {
	task := &DailyTask{
		ID:          uuid.New(),
		PlanID:      plan.ID,
		UserID:      plan.UserID,
		Date:        date,
		Type:        taskType,
		ItemIDs:     itemIDs,
		TargetCount: targetCount,
		Status:      TaskStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the DailyTask has valid data.
func (t *DailyTask) Validate() error {
	if t.PlanID == uuid.Nil {
		return ErrEmptyTaskPlanID
	}
	if t.UserID == uuid.Nil {
		return ErrEmptyPlanUserID
	}
	switch t.Type {
	case TaskTypeVocabulary, TaskTypeReview, TaskTypeWeakArea:
	default:
		return ErrInvalidTaskType
	}
	switch t.Status {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
	default:
		return ErrInvalidTaskStatus
	}
	if t.TargetCount < 0 {
		return ErrInvalidTaskTarget
	}
	return nil
}

// Complete marks the task done with the number of items actually finished.
func (t *DailyTask) Complete(completedCount int, now time.Time) error {
	if t.Status == TaskStatusCompleted {
		return ErrTaskAlreadyDone
	}
	if completedCount < 0 {
		return ErrInvalidTaskOutcome
	}

	t.CompletedCount = completedCount
	t.Status = TaskStatusCompleted
	t.CompletedAt = &now
	t.UpdatedAt = now
	return nil
}

// CompletionRate returns the fraction of the day's tasks that were completed.
// An empty slice yields 0.
func CompletionRate(tasks []*DailyTask) float64 {
	if len(tasks) == 0 {
		return 0
	}
	done := 0
	for _, t := range tasks {
		if t.Status == TaskStatusCompleted {
			done++
		}
	}
	return float64(done) / float64(len(tasks))
}

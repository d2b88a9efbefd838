// Package srs implements the spaced-repetition engine: how a review answer
// moves an item's mastery, when the item should be seen again, and which
// memory status it is in.
//
// All functions are pure and the Engine holds no mutable state, so one
// Engine can be shared across goroutines.
package srs

import (
	"errors"
	"fmt"
	"time"

	"github.com/phrazzld/scry-lexicon/internal/domain"
)

// ErrNilRecord is returned when Apply is called without a record.
var ErrNilRecord = errors.New("memory record cannot be nil")

// Engine defines the spaced-repetition operations
type Engine interface {
	// UpdateMasteryLevel returns the mastery level after one answer
	UpdateMasteryLevel(current int, isCorrect bool) (int, error)

	// CalculateReviewInterval returns the hours until the next review
	CalculateReviewInterval(mastery, reviewCount, consecutiveWrong int) (int, error)

	// IsMastered reports whether a mastery level counts as mastered
	IsMastered(level int) bool

	// DetermineStatus returns the memory status for the given state
	DetermineStatus(level int, previous domain.MemoryStatus, consecutiveWrong int) (domain.MemoryStatus, error)

	// Apply computes the record that results from answering a review
	Apply(record *domain.MemoryRecord, isCorrect bool, now time.Time) (*domain.MemoryRecord, error)
}

// defaultEngine is the standard implementation of the Engine interface
type defaultEngine struct {
	params *Params
}

// NewDefaultEngine creates a new engine with default parameters
func NewDefaultEngine() Engine {
	return &defaultEngine{
		params: NewDefaultParams(),
	}
}

// NewEngineWithParams creates a new engine with custom parameters
func NewEngineWithParams(params *Params) Engine {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultEngine{
		params: params,
	}
}

// UpdateMasteryLevel implements Engine
func (e *defaultEngine) UpdateMasteryLevel(current int, isCorrect bool) (int, error) {
	if err := checkMastery(current); err != nil {
		return 0, err
	}
	return calculateNewMastery(current, isCorrect, e.params), nil
}

// CalculateReviewInterval implements Engine. reviewCount is the number of
// successful reviews the item has had.
func (e *defaultEngine) CalculateReviewInterval(mastery, reviewCount, consecutiveWrong int) (int, error) {
	if err := checkMastery(mastery); err != nil {
		return 0, err
	}
	if reviewCount < 0 || consecutiveWrong < 0 {
		return 0, fmt.Errorf("%w: review counters cannot be negative (reviews=%d, wrong streak=%d)",
			domain.ErrInvalidState, reviewCount, consecutiveWrong)
	}
	return calculateIntervalHours(mastery, reviewCount, consecutiveWrong, e.params), nil
}

// IsMastered implements Engine
func (e *defaultEngine) IsMastered(level int) bool {
	return level >= domain.MasteredThreshold
}

// DetermineStatus implements Engine
func (e *defaultEngine) DetermineStatus(
	level int,
	previous domain.MemoryStatus,
	consecutiveWrong int,
) (domain.MemoryStatus, error) {
	if err := checkMastery(level); err != nil {
		return "", err
	}
	if consecutiveWrong < 0 {
		return "", fmt.Errorf("%w: wrong streak cannot be negative", domain.ErrInvalidState)
	}
	if !previous.IsValid() {
		return "", fmt.Errorf("%w: unknown previous status %q", domain.ErrInvalidState, previous)
	}
	return determineStatus(level, previous, consecutiveWrong, e.params), nil
}

// Apply implements Engine. The input record is not modified; Version is left
// for the store to advance.
func (e *defaultEngine) Apply(
	record *domain.MemoryRecord,
	isCorrect bool,
	now time.Time,
) (*domain.MemoryRecord, error) {
	if record == nil {
		return nil, ErrNilRecord
	}
	if err := record.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidState, err)
	}

	next := record.Clone()
	next.MasteryLevel = calculateNewMastery(record.MasteryLevel, isCorrect, e.params)
	next.ReviewCount++
	if isCorrect {
		next.CorrectCount++
		next.ConsecutiveWrongCount = 0
	} else {
		next.WrongCount++
		next.ConsecutiveWrongCount++
	}

	next.Status = determineStatus(next.MasteryLevel, record.Status, next.ConsecutiveWrongCount, e.params)

	hours := calculateIntervalHours(next.MasteryLevel, next.CorrectCount, next.ConsecutiveWrongCount, e.params)
	next.LastReviewedAt = now
	next.NextReviewAt = now.Add(time.Duration(hours) * time.Hour)
	next.UpdatedAt = now

	return next, nil
}

func checkMastery(level int) error {
	if level < domain.MinMasteryLevel || level > domain.MaxMasteryLevel {
		return fmt.Errorf("%w: mastery level %d outside [%d,%d]",
			domain.ErrInvalidState, level, domain.MinMasteryLevel, domain.MaxMasteryLevel)
	}
	return nil
}

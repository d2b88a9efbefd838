package domain

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// MemoryStatus represents how well a user currently retains a vocabulary item.
type MemoryStatus string

// Possible memory status values
const (
	MemoryStatusLearning  MemoryStatus = "LEARNING"
	MemoryStatusMastered  MemoryStatus = "MASTERED"
	MemoryStatusForgotten MemoryStatus = "FORGOTTEN"
)

// Mastery bounds shared by the engines and the stores.
const (
	MinMasteryLevel   = 0
	MaxMasteryLevel   = 100
	MasteredThreshold = 80
)

// Common validation errors for MemoryRecord
var (
	ErrEmptyRecordUserID  = errors.New("memory record user ID cannot be empty")
	ErrEmptyRecordItemID  = errors.New("memory record item ID cannot be empty")
	ErrInvalidMastery     = fmt.Errorf("%w: mastery level must be between 0 and 100", ErrInvalidState)
	ErrInvalidCounter     = fmt.Errorf("%w: review counters cannot be negative", ErrInvalidState)
	ErrInvalidMemoryState = errors.New("invalid memory status")
)

// MemoryRecord tracks a user's retention of a single vocabulary item.
// Records are only mutated through the spaced-repetition engine, which
// returns new instances rather than modifying existing ones.
type MemoryRecord struct {
	UserID                uuid.UUID    `json:"user_id"`
	ItemID                uuid.UUID    `json:"item_id"`
	MasteryLevel          int          `json:"mastery_level"`           // 0..100
	ReviewCount           int          `json:"review_count"`            // Total number of reviews
	CorrectCount          int          `json:"correct_count"`           // Reviews answered correctly
	WrongCount            int          `json:"wrong_count"`             // Reviews answered incorrectly
	ConsecutiveWrongCount int          `json:"consecutive_wrong_count"` // Reset on any correct answer
	LastReviewedAt        time.Time    `json:"last_reviewed_at"`
	NextReviewAt          time.Time    `json:"next_review_at"`
	Status                MemoryStatus `json:"status"`
	Version               int64        `json:"version"` // Optimistic concurrency token
	CreatedAt             time.Time    `json:"created_at"`
	UpdatedAt             time.Time    `json:"updated_at"`
}

// NewMemoryRecord creates the record for a user's first exposure to an item.
// The item is immediately due for review.
func NewMemoryRecord(userID, itemID uuid.UUID, now time.Time) (*MemoryRecord, error) {
	record := &MemoryRecord{
		UserID:       userID,
		ItemID:       itemID,
		MasteryLevel: MinMasteryLevel,
		NextReviewAt: now,
		Status:       MemoryStatusLearning,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := record.Validate(); err != nil {
		return nil, err
	}

	return record, nil
}

// Validate checks if the MemoryRecord has valid data.
func (r *MemoryRecord) Validate() error {
	if r.UserID == uuid.Nil {
		return ErrEmptyRecordUserID
	}

	if r.ItemID == uuid.Nil {
		return ErrEmptyRecordItemID
	}

	if r.MasteryLevel < MinMasteryLevel || r.MasteryLevel > MaxMasteryLevel {
		return ErrInvalidMastery
	}

	if r.ReviewCount < 0 || r.CorrectCount < 0 || r.WrongCount < 0 || r.ConsecutiveWrongCount < 0 {
		return ErrInvalidCounter
	}

	if !r.Status.IsValid() {
		return ErrInvalidMemoryState
	}

	return nil
}

// IsDue reports whether the record should be reviewed at the given time.
func (r *MemoryRecord) IsDue(now time.Time) bool {
	return !r.NextReviewAt.After(now)
}

// Clone returns a copy of the record.
func (r *MemoryRecord) Clone() *MemoryRecord {
	c := *r
	return &c
}

// IsValid reports whether s is one of the known statuses.
func (s MemoryStatus) IsValid() bool {
	switch s {
	case MemoryStatusLearning, MemoryStatusMastered, MemoryStatusForgotten:
		return true
	default:
		return false
	}
}

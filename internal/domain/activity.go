package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// ErrEmptyActivityUserID is returned when an activity has no user.
var ErrEmptyActivityUserID = errors.New("activity user ID cannot be empty")

// Activity is one completed review, appended to a user's history.
// Only the outcome is kept, never the prompt content.
type Activity struct {
	ID           uuid.UUID `json:"id"            db:"id"`
	UserID       uuid.UUID `json:"user_id"       db:"user_id"`
	ItemID       uuid.UUID `json:"item_id"       db:"item_id"`
	Topic        string    `json:"topic"         db:"topic"`
	Correct      bool      `json:"correct"       db:"correct"`
	MasteryAfter int       `json:"mastery_after" db:"mastery_after"`
	OccurredAt   time.Time `json:"occurred_at"   db:"occurred_at"`
}

// NewActivity builds the history entry for a review of itemID.
func NewActivity(record *MemoryRecord, topic string, correct bool, now time.Time) (*Activity, error) {
	if record.UserID == uuid.Nil {
		return nil, ErrEmptyActivityUserID
	}
	return &Activity{
		ID:           uuid.New(),
		UserID:       record.UserID,
		ItemID:       record.ItemID,
		Topic:        topic,
		Correct:      correct,
		MasteryAfter: record.MasteryLevel,
		OccurredAt:   now,
	}, nil
}

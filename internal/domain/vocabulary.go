package domain

import (
	"strings"

	"github.com/google/uuid"
)

// Difficulty bounds for vocabulary items.
const (
	MinDifficulty = 1
	MaxDifficulty = 5
)

// VocabularyItem is one word in the shared pool the planner draws from.
type VocabularyItem struct {
	ID          uuid.UUID `json:"id"          db:"id"          validate:"required"`
	Word        string    `json:"word"        db:"word"        validate:"required"`
	Translation string    `json:"translation" db:"translation" validate:"required"`
	Category    string    `json:"category"    db:"category"    validate:"required"`
	Difficulty  int       `json:"difficulty"  db:"difficulty"  validate:"min=1,max=5"`
}

// NormalizeCategory returns the canonical form of a category label.
func NormalizeCategory(category string) string {
	c := strings.TrimSpace(category)
	c = strings.ReplaceAll(c, " ", "_")
	c = strings.ReplaceAll(c, "-", "_")
	return strings.ToUpper(c)
}

package domain

import (
	"time"

	"github.com/google/uuid"
)

// MemoryStatistics is the aggregate view of a user's memory records.
type MemoryStatistics struct {
	UserID         uuid.UUID `json:"user_id"`
	TotalWords     int       `json:"total_words"`
	MasteredWords  int       `json:"mastered_words"`
	LearningWords  int       `json:"learning_words"`
	ForgottenWords int       `json:"forgotten_words"`
	TotalReviews   int       `json:"total_reviews"`
	CorrectCount   int       `json:"correct_count"`
	WrongCount     int       `json:"wrong_count"`
	AccuracyRate   float64   `json:"accuracy_rate"` // 0..1
	PendingReviews int       `json:"pending_reviews"`
	AverageMastery float64   `json:"average_mastery"`
}

// ComputeMemoryStatistics folds a user's records into MemoryStatistics.
// Records with NextReviewAt <= now count as pending.
func ComputeMemoryStatistics(userID uuid.UUID, records []*MemoryRecord, now time.Time) *MemoryStatistics {
	stats := &MemoryStatistics{UserID: userID}
	if len(records) == 0 {
		return stats
	}

	masterySum := 0
	for _, r := range records {
		stats.TotalWords++
		switch r.Status {
		case MemoryStatusMastered:
			stats.MasteredWords++
		case MemoryStatusForgotten:
			stats.ForgottenWords++
		default:
			stats.LearningWords++
		}
		stats.TotalReviews += r.ReviewCount
		stats.CorrectCount += r.CorrectCount
		stats.WrongCount += r.WrongCount
		if r.IsDue(now) {
			stats.PendingReviews++
		}
		masterySum += r.MasteryLevel
	}

	stats.AccuracyRate = AccuracyRate(stats.CorrectCount, stats.WrongCount)
	stats.AverageMastery = float64(masterySum) / float64(stats.TotalWords)
	return stats
}

// AccuracyRate returns correct/(correct+wrong), or 0 when nothing was answered.
func AccuracyRate(correct, wrong int) float64 {
	answered := correct + wrong
	if answered <= 0 {
		return 0
	}
	return float64(correct) / float64(answered)
}

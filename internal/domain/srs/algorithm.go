package srs

import (
	"math"

	"github.com/phrazzld/scry-lexicon/internal/domain"
)

// calculateNewMastery moves a mastery level in response to one answer.
//
// Correct answers gain a quarter of the remaining distance to 100, so
// progress slows as the item approaches mastery. Wrong answers lose a share
// proportional to the current level, so well-known items fall further.
// Both movements have a floor (MinGain, MinLoss) so a review always counts,
// except that nothing is gained at 100 and nothing is lost at 0.
func calculateNewMastery(current int, isCorrect bool, params *Params) int {
	if isCorrect {
		gain := int(math.Round(float64(domain.MaxMasteryLevel-current) * params.GainRate))
		if gain < params.MinGain {
			gain = params.MinGain
		}
		next := current + gain
		if next > domain.MaxMasteryLevel {
			next = domain.MaxMasteryLevel
		}
		return next
	}

	loss := int(math.Round(float64(current) * params.LossRate))
	if loss < params.MinLoss {
		loss = params.MinLoss
	}
	next := current - loss
	if next < domain.MinMasteryLevel {
		next = domain.MinMasteryLevel
	}
	return next
}

// calculateIntervalHours determines how many hours until the next review.
//
// Algorithm behavior:
//   - Struggling items (consecutiveWrong >= StrugglingWrongStreak) come back
//     after StrugglingIntervalHours regardless of mastery
//   - Otherwise the interval starts at BaseIntervalHours and doubles every
//     MasteryBandWidth points of mastery
//   - Each successful review adds ReviewFactorStep to the multiplier, up to
//     ReviewFactorCap reviews
//   - The result is capped at MaxIntervalHours and is never below one hour
func calculateIntervalHours(mastery, successfulReviews, consecutiveWrong int, params *Params) int {
	if consecutiveWrong >= params.StrugglingWrongStreak {
		return params.StrugglingIntervalHours
	}

	reviews := successfulReviews
	if reviews > params.ReviewFactorCap {
		reviews = params.ReviewFactorCap
	}

	bands := float64(mastery) / float64(params.MasteryBandWidth)
	reviewFactor := 1 + params.ReviewFactorStep*float64(reviews)
	hours := int(math.Round(float64(params.BaseIntervalHours) * math.Pow(2, bands) * reviewFactor))

	if hours > params.MaxIntervalHours {
		hours = params.MaxIntervalHours
	}
	if hours < 1 {
		hours = 1
	}
	return hours
}

// determineStatus maps mastery and history to a status.
// FORGOTTEN requires evidence the item was once known: a previous MASTERED
// or FORGOTTEN status, or a run of wrong answers.
func determineStatus(mastery int, previous domain.MemoryStatus, consecutiveWrong int, params *Params) domain.MemoryStatus {
	if mastery >= domain.MasteredThreshold {
		return domain.MemoryStatusMastered
	}

	if mastery < params.ForgottenThreshold {
		wasKnown := previous == domain.MemoryStatusMastered || previous == domain.MemoryStatusForgotten
		if wasKnown || consecutiveWrong >= params.ForgottenWrongStreak {
			return domain.MemoryStatusForgotten
		}
	}

	return domain.MemoryStatusLearning
}

package domain

import "time"

// ProgressCurve holds three parallel day-by-day series, oldest day first.
// All slices have the same length.
type ProgressCurve struct {
	Dates         []time.Time `json:"dates"`
	WordsLearned  []int       `json:"words_learned"`  // cumulative distinct items seen
	WordsMastered []int       `json:"words_mastered"` // cumulative mastered items
	AccuracyTrend []float64   `json:"accuracy_trend"` // that day's accuracy, 0..1
}

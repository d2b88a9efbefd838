// Package analytics derives behavioral signals from a learner's activity
// history: when they study, which topics they struggle with, how fast they
// pick up new words, and how their progress evolves day by day.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/domain"
)

// WeakAreaThreshold is the error rate a topic must exceed to count as weak.
const WeakAreaThreshold = 0.40

// Local-time window boundaries. Morning is [05,12), afternoon [12,18),
// evening covers the rest of the day.
const (
	morningStartHour   = 5
	afternoonStartHour = 12
	eveningStartHour   = 18
)

// Engine defines the learning analytics operations. All operations are
// read-only over their input.
type Engine interface {
	AnalyzeTimePreferences(activities []domain.Activity) domain.TimePreferences
	IdentifyWeakAreas(activities []domain.Activity) []domain.WeakArea
	CalculateLearningSpeed(activities []domain.Activity) float64
	CalculateAccuracy(activities []domain.Activity) float64
	GenerateProgressCurve(activities []domain.Activity, days int, now time.Time) (*domain.ProgressCurve, error)
}

type defaultEngine struct {
	loc *time.Location
}

// NewEngine creates an analytics engine that buckets times in loc.
// A nil loc means UTC.
func NewEngine(loc *time.Location) Engine {
	if loc == nil {
		loc = time.UTC
	}
	return &defaultEngine{loc: loc}
}

// AnalyzeTimePreferences implements Engine
func (e *defaultEngine) AnalyzeTimePreferences(activities []domain.Activity) domain.TimePreferences {
	var prefs domain.TimePreferences
	if len(activities) == 0 {
		return prefs
	}

	var morning, afternoon, evening int
	for _, a := range activities {
		hour := a.OccurredAt.In(e.loc).Hour()
		switch {
		case hour >= morningStartHour && hour < afternoonStartHour:
			morning++
		case hour >= afternoonStartHour && hour < eveningStartHour:
			afternoon++
		default:
			evening++
		}
	}

	total := float64(len(activities))
	prefs.Morning = float64(morning) / total
	prefs.Afternoon = float64(afternoon) / total
	prefs.Evening = float64(evening) / total
	return prefs
}

// IdentifyWeakAreas implements Engine. Topics are compared in their
// normalized form; the result is sorted by error rate, highest first, with
// ties broken by topic name.
func (e *defaultEngine) IdentifyWeakAreas(activities []domain.Activity) []domain.WeakArea {
	type tally struct{ total, wrong int }
	byTopic := make(map[string]*tally)

	for _, a := range activities {
		topic := domain.NormalizeCategory(a.Topic)
		if topic == "" {
			continue
		}
		t, ok := byTopic[topic]
		if !ok {
			t = &tally{}
			byTopic[topic] = t
		}
		t.total++
		if !a.Correct {
			t.wrong++
		}
	}

	weak := make([]domain.WeakArea, 0)
	for topic, t := range byTopic {
		rate := float64(t.wrong) / float64(t.total)
		if rate > WeakAreaThreshold {
			weak = append(weak, domain.WeakArea{Topic: topic, ErrorRate: rate})
		}
	}

	sort.Slice(weak, func(i, j int) bool {
		if weak[i].ErrorRate != weak[j].ErrorRate {
			return weak[i].ErrorRate > weak[j].ErrorRate
		}
		return weak[i].Topic < weak[j].Topic
	})
	return weak
}

// CalculateLearningSpeed implements Engine. It returns the number of
// distinct items practiced divided by the number of distinct local days with
// any activity.
func (e *defaultEngine) CalculateLearningSpeed(activities []domain.Activity) float64 {
	if len(activities) == 0 {
		return 0
	}

	items := make(map[uuid.UUID]struct{})
	days := make(map[time.Time]struct{})
	for _, a := range activities {
		items[a.ItemID] = struct{}{}
		days[domain.StartOfDay(a.OccurredAt.In(e.loc))] = struct{}{}
	}

	return float64(len(items)) / float64(len(days))
}

// CalculateAccuracy implements Engine
func (e *defaultEngine) CalculateAccuracy(activities []domain.Activity) float64 {
	correct := 0
	for _, a := range activities {
		if a.Correct {
			correct++
		}
	}
	return domain.AccuracyRate(correct, len(activities)-correct)
}

// GenerateProgressCurve implements Engine.
//
// For each of the last days local calendar days ending with now's day,
// oldest first, it reports the number of distinct items seen so far, the
// number of items whose latest mastery by the end of that day is mastered,
// and the accuracy of that day's answers. Activity before the window counts
// toward the cumulative series.
func (e *defaultEngine) GenerateProgressCurve(
	activities []domain.Activity,
	days int,
	now time.Time,
) (*domain.ProgressCurve, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive, got %d", domain.ErrInvalidState, days)
	}

	sorted := make([]domain.Activity, len(activities))
	copy(sorted, activities)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].OccurredAt.Before(sorted[j].OccurredAt)
	})

	curve := &domain.ProgressCurve{
		Dates:         make([]time.Time, days),
		WordsLearned:  make([]int, days),
		WordsMastered: make([]int, days),
		AccuracyTrend: make([]float64, days),
	}

	today := domain.StartOfDay(now.In(e.loc))
	first := today.AddDate(0, 0, -(days - 1))

	seen := make(map[uuid.UUID]struct{})
	latestMastery := make(map[uuid.UUID]int)
	mastered := 0

	record := func(a domain.Activity) {
		seen[a.ItemID] = struct{}{}
		prev, had := latestMastery[a.ItemID]
		wasMastered := had && prev >= domain.MasteredThreshold
		isMastered := a.MasteryAfter >= domain.MasteredThreshold
		switch {
		case isMastered && !wasMastered:
			mastered++
		case !isMastered && wasMastered:
			mastered--
		}
		latestMastery[a.ItemID] = a.MasteryAfter
	}

	i := 0
	for ; i < len(sorted) && sorted[i].OccurredAt.In(e.loc).Before(first); i++ {
		record(sorted[i])
	}

	for d := 0; d < days; d++ {
		day := first.AddDate(0, 0, d)
		next := first.AddDate(0, 0, d+1)

		correct, answered := 0, 0
		for ; i < len(sorted) && sorted[i].OccurredAt.In(e.loc).Before(next); i++ {
			record(sorted[i])
			answered++
			if sorted[i].Correct {
				correct++
			}
		}

		curve.Dates[d] = day
		curve.WordsLearned[d] = len(seen)
		curve.WordsMastered[d] = mastered
		curve.AccuracyTrend[d] = domain.AccuracyRate(correct, answered-correct)
	}

	return curve, nil
}

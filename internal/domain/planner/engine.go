// Package planner turns a learner's goal and time budget into a learning
// path and daily workload, and adapts that workload to how much of it the
// learner actually completes.
package planner

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/domain"
)

// PathRequest carries everything GenerateLearningPath depends on.
type PathRequest struct {
	GoalType     domain.GoalType
	TargetDate   time.Time
	CurrentLevel domain.ProficiencyLevel
	Now          time.Time
	Pool         []domain.VocabularyItem
	WeakAreas    []domain.WeakArea
}

// DayRequest carries the inputs for composing one day's tasks.
type DayRequest struct {
	Plan        *domain.StudyPlan
	Date        time.Time          // local midnight of the day being planned
	Seen        map[uuid.UUID]bool // items the learner already has a memory record for
	DueItemIDs  []uuid.UUID        // due reviews, most urgent first
	WeakItemIDs []uuid.UUID        // items from weak topics, weakest first
	HasWeakArea bool
}

// Engine defines the plan optimization operations
type Engine interface {
	// GenerateLearningPath partitions the vocabulary pool into ordered word sets
	GenerateLearningPath(req PathRequest) (domain.LearningPath, error)

	// CalculateDailyTaskCount returns how many new items to assign per day
	CalculateDailyTaskCount(profile *domain.LearningProfile, remainingDays, targetWordCount int) (int, error)

	// AdjustTaskDifficulty moves the daily count in response to completion behavior
	AdjustTaskDifficulty(completionRate float64, currentTaskCount int) (int, error)

	// ComposeDailyTasks builds the tasks for one day of a plan
	ComposeDailyTasks(req DayRequest, now time.Time) ([]*domain.DailyTask, error)
}

type defaultEngine struct {
	params *Params
}

// NewDefaultEngine creates a new engine with default parameters
func NewDefaultEngine() Engine {
	return &defaultEngine{params: NewDefaultParams()}
}

// NewEngineWithParams creates a new engine with custom parameters
func NewEngineWithParams(params *Params) Engine {
	if params == nil {
		params = NewDefaultParams()
	}
	return &defaultEngine{params: params}
}

// RemainingDays counts calendar days from now's day until target's day,
// both taken in now's location. A target of tomorrow is 1 day away.
func RemainingDays(now, target time.Time) int {
	from := calendarDate(now)
	to := calendarDate(target.In(now.Location()))
	return int(to.Sub(from).Hours() / 24)
}

func calendarDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// GenerateLearningPath implements Engine.
//
// Categories are ordered in four tiers: goal-relevant and weak,
// goal-relevant, weak, other. Inside a tier weaker topics come first, then
// the goal's own ordering, then the category name. Items above the level's
// difficulty cap are left out.
func (e *defaultEngine) GenerateLearningPath(req PathRequest) (domain.LearningPath, error) {
	if !req.GoalType.IsValid() {
		return domain.LearningPath{}, fmt.Errorf("%w: unknown goal type %q", domain.ErrInvalidState, req.GoalType)
	}
	maxDifficulty, ok := e.params.DifficultyCaps[req.CurrentLevel]
	if !ok {
		return domain.LearningPath{}, fmt.Errorf("%w: unknown level %q", domain.ErrInvalidState, req.CurrentLevel)
	}
	remaining := RemainingDays(req.Now, req.TargetDate)
	if remaining <= 0 {
		return domain.LearningPath{}, fmt.Errorf("%w: target date %s is not after today",
			domain.ErrInvalidState, req.TargetDate.Format(time.DateOnly))
	}

	goalRank := make(map[string]int)
	for i, c := range goalCategories[req.GoalType] {
		goalRank[c] = i
	}
	weakRate := make(map[string]float64)
	for _, w := range req.WeakAreas {
		weakRate[domain.NormalizeCategory(w.Topic)] = w.ErrorRate
	}

	byCategory := make(map[string][]domain.VocabularyItem)
	for _, item := range req.Pool {
		if item.Difficulty > maxDifficulty {
			continue
		}
		cat := domain.NormalizeCategory(item.Category)
		byCategory[cat] = append(byCategory[cat], item)
	}

	categories := make([]string, 0, len(byCategory))
	for c := range byCategory {
		categories = append(categories, c)
	}

	tier := func(c string) int {
		_, relevant := goalRank[c]
		_, weak := weakRate[c]
		switch {
		case relevant && weak:
			return 0
		case relevant:
			return 1
		case weak:
			return 2
		default:
			return 3
		}
	}
	rank := func(c string) int {
		if r, ok := goalRank[c]; ok {
			return r
		}
		return len(goalRank)
	}

	sort.Slice(categories, func(i, j int) bool {
		a, b := categories[i], categories[j]
		if ta, tb := tier(a), tier(b); ta != tb {
			return ta < tb
		}
		if wa, wb := weakRate[a], weakRate[b]; wa != wb {
			return wa > wb
		}
		if ra, rb := rank(a), rank(b); ra != rb {
			return ra < rb
		}
		return a < b
	})

	path := domain.LearningPath{GoalType: req.GoalType}
	total := 0
	for i, c := range categories {
		items := byCategory[c]
		sort.Slice(items, func(x, y int) bool {
			if items[x].Difficulty != items[y].Difficulty {
				return items[x].Difficulty < items[y].Difficulty
			}
			if items[x].Word != items[y].Word {
				return items[x].Word < items[y].Word
			}
			return items[x].ID.String() < items[y].ID.String()
		})

		ids := make([]uuid.UUID, len(items))
		for k, item := range items {
			ids[k] = item.ID
		}

		path.WordSets = append(path.WordSets, domain.WordSet{
			Name:     fmt.Sprintf("%02d-%s", i+1, strings.ToLower(c)),
			Category: c,
			Priority: i + 1,
			ItemIDs:  ids,
		})
		total += len(ids)
	}

	if limit := remaining * e.params.MaxWordsPerDay; total > limit {
		total = limit
	}
	path.TotalWords = total

	return path, nil
}

// CalculateDailyTaskCount implements Engine.
//
// The base is ceil(target/remainingDays). An analyzed profile scales it:
// FAST learners get 20% more (rounded up), SLOW learners 20% less (rounded
// down), and accuracy below 60% takes another 10% off. The result is clamped
// to [MinDailyTasks, MaxDailyTasks].
func (e *defaultEngine) CalculateDailyTaskCount(
	profile *domain.LearningProfile,
	remainingDays int,
	targetWordCount int,
) (int, error) {
	if remainingDays <= 0 {
		return 0, fmt.Errorf("%w: remaining days must be positive, got %d", domain.ErrInvalidState, remainingDays)
	}
	if targetWordCount < 0 {
		return 0, fmt.Errorf("%w: target word count cannot be negative, got %d", domain.ErrInvalidState, targetWordCount)
	}

	count := (targetWordCount + remainingDays - 1) / remainingDays

	if profile != nil && !profile.LastAnalyzedAt.IsZero() {
		switch profile.SpeedTrend {
		case domain.SpeedTrendFast:
			count = ceilInt(float64(count) * e.params.FastMultiplier)
		case domain.SpeedTrendSlow:
			count = floorInt(float64(count) * e.params.SlowMultiplier)
		}
		if profile.AverageAccuracy < e.params.LowAccuracyThreshold {
			count = floorInt(float64(count) * e.params.LowAccuracyMultiplier)
		}
	}

	return e.clamp(count), nil
}

// AdjustTaskDifficulty implements Engine
func (e *defaultEngine) AdjustTaskDifficulty(completionRate float64, currentTaskCount int) (int, error) {
	if math.IsNaN(completionRate) || completionRate < 0 || completionRate > 1 {
		return 0, fmt.Errorf("%w: completion rate %v outside [0,1]", domain.ErrInvalidState, completionRate)
	}
	if currentTaskCount <= 0 {
		return 0, fmt.Errorf("%w: task count must be positive, got %d", domain.ErrInvalidState, currentTaskCount)
	}

	count := currentTaskCount
	switch {
	case completionRate >= e.params.IncreaseThreshold:
		count = int(math.Round(float64(currentTaskCount) * e.params.IncreaseFactor))
	case completionRate < e.params.DecreaseThreshold:
		count = int(math.Round(float64(currentTaskCount) * e.params.DecreaseFactor))
	}

	return e.clamp(count), nil
}

// ComposeDailyTasks implements Engine. A day always has a VOCABULARY task
// with the next unseen path items and a REVIEW task with the due items; a
// WEAK_AREA task is added when the learner has weak topics.
func (e *defaultEngine) ComposeDailyTasks(req DayRequest, now time.Time) ([]*domain.DailyTask, error) {
	if req.Plan == nil {
		return nil, fmt.Errorf("%w: plan is required", domain.ErrInvalidState)
	}
	count := req.Plan.DailyTaskCount

	fresh := make([]uuid.UUID, 0, count)
	for _, id := range req.Plan.Path.ItemIDs() {
		if len(fresh) == count {
			break
		}
		if !req.Seen[id] {
			fresh = append(fresh, id)
		}
	}

	due := req.DueItemIDs
	if len(due) > count {
		due = due[:count]
	}

	tasks := make([]*domain.DailyTask, 0, 3)

	vocab, err := domain.NewDailyTask(req.Plan, req.Date, domain.TaskTypeVocabulary, fresh, len(fresh), now)
	if err != nil {
		return nil, err
	}
	tasks = append(tasks, vocab)

	review, err := domain.NewDailyTask(req.Plan, req.Date, domain.TaskTypeReview, due, len(due), now)
	if err != nil {
		return nil, err
	}
	tasks = append(tasks, review)

	if req.HasWeakArea {
		weak := req.WeakItemIDs
		if limit := max(count/2, 1); len(weak) > limit {
			weak = weak[:limit]
		}
		task, err := domain.NewDailyTask(req.Plan, req.Date, domain.TaskTypeWeakArea, weak, len(weak), now)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, nil
}

func (e *defaultEngine) clamp(count int) int {
	if count < e.params.MinDailyTasks {
		return e.params.MinDailyTasks
	}
	if count > e.params.MaxDailyTasks {
		return e.params.MaxDailyTasks
	}
	return count
}

// ceilInt and floorInt tolerate float noise such as 10*1.2 = 12.000000000000002.
func ceilInt(x float64) int {
	return int(math.Ceil(x - 1e-9))
}

func floorInt(x float64) int {
	return int(math.Floor(x + 1e-9))
}

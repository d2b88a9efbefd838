package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/store"
)

const (
	planColumns = `id, user_id, goal_type, target_date, daily_task_count, phase, completion_rate,
		status, path, adjustments, adjusted_on, version, created_at, updated_at`
	taskColumns = `id, plan_id, user_id, task_date, task_type, item_ids, target_count,
		completed_count, status, completed_at, created_at, updated_at`
)

// PostgresPlanStore implements store.PlanStore on PostgreSQL.
//
// ReplaceActive takes a transaction-scoped advisory lock on the user ID, so
// concurrent replacements for one user run one after another. The partial
// unique index idx_study_plans_one_active backs this up at the schema level.
type PostgresPlanStore struct {
	db     store.DBTX
	txer   store.TxBeginner // nil when db is already a transaction
	logger *slog.Logger
}

var _ store.PlanStore = (*PostgresPlanStore)(nil)

// NewPostgresPlanStore creates a store over db. When db can begin
// transactions (a pool), multi-statement operations run in their own
// transaction; when db is a *sql.Tx they join it.
func NewPostgresPlanStore(db store.DBTX, logger *slog.Logger) *PostgresPlanStore {
	if db == nil {
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	s := &PostgresPlanStore{
		db:     db,
		logger: logger.With(slog.String("component", "plan_store")),
	}
	if txer, ok := db.(store.TxBeginner); ok {
		s.txer = txer
	}
	return s
}

func (s *PostgresPlanStore) withTx(ctx context.Context, fn func(ctx context.Context, q store.DBTX) error) error {
	if s.txer == nil {
		return fn(ctx, s.db)
	}
	return store.RunInTransaction(ctx, s.txer, func(ctx context.Context, tx *sql.Tx) error {
		return fn(ctx, tx)
	})
}

// GetActive implements store.PlanStore.
func (s *PostgresPlanStore) GetActive(ctx context.Context, userID uuid.UUID) (*domain.StudyPlan, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `SELECT ` + planColumns + ` FROM study_plans WHERE user_id = $1 AND status = 'ACTIVE'`
	plan, err := scanPlan(s.db.QueryRowContext(ctx, query, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrPlanNotFound
		}
		log.Error("failed to get active plan",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, MapError(err)
	}
	return plan, nil
}

// ReplaceActive implements store.PlanStore.
func (s *PostgresPlanStore) ReplaceActive(ctx context.Context, plan *domain.StudyPlan) (uuid.UUID, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := plan.Validate(); err != nil {
		return uuid.Nil, fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	if plan.Status != domain.PlanStatusActive {
		return uuid.Nil, fmt.Errorf("%w: replacement plan must be ACTIVE", store.ErrInvalidEntity)
	}

	path, adjustments, err := encodePlanJSON(plan)
	if err != nil {
		return uuid.Nil, err
	}
	plan.Version = 1

	superseded := uuid.Nil
	err = s.withTx(ctx, func(ctx context.Context, q store.DBTX) error {
		if _, err := q.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, plan.UserID.String()); err != nil {
			return MapError(err)
		}

		var prev uuid.UUID
		err := q.QueryRowContext(ctx,
			`SELECT id FROM study_plans WHERE user_id = $1 AND status = 'ACTIVE'`,
			plan.UserID,
		).Scan(&prev)
		switch {
		case errors.Is(err, sql.ErrNoRows):
		case err != nil:
			return MapError(err)
		default:
			if _, err := q.ExecContext(ctx,
				`UPDATE study_plans SET status = 'SUPERSEDED', updated_at = $2 WHERE id = $1`,
				prev, plan.CreatedAt,
			); err != nil {
				return MapError(err)
			}
			superseded = prev
		}

		_, err = q.ExecContext(ctx, `
			INSERT INTO study_plans (`+planColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
			plan.ID,
			plan.UserID,
			plan.GoalType,
			plan.TargetDate,
			plan.DailyTaskCount,
			plan.Phase,
			plan.CompletionRate,
			plan.Status,
			path,
			adjustments,
			nullTime(plan.AdjustedOn),
			plan.Version,
			plan.CreatedAt,
			plan.UpdatedAt,
		)
		return MapError(err)
	})
	if err != nil {
		log.Error("failed to replace active plan",
			slog.String("error", err.Error()),
			slog.String("user_id", plan.UserID.String()))
		plan.Version = 0
		return uuid.Nil, err
	}

	log.Info("study plan activated",
		slog.String("plan_id", plan.ID.String()),
		slog.String("superseded_plan_id", superseded.String()))
	return superseded, nil
}

// Update implements store.PlanStore.
func (s *PostgresPlanStore) Update(ctx context.Context, plan *domain.StudyPlan) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := plan.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}
	_, adjustments, err := encodePlanJSON(plan)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE study_plans
		SET daily_task_count = $2,
			completion_rate = $3,
			status = $4,
			adjustments = $5,
			adjusted_on = $6,
			updated_at = $7,
			version = version + 1
		WHERE id = $1 AND version = $8`,
		plan.ID,
		plan.DailyTaskCount,
		plan.CompletionRate,
		plan.Status,
		adjustments,
		nullTime(plan.AdjustedOn),
		plan.UpdatedAt,
		plan.Version,
	)
	if err != nil {
		return MapError(err)
	}

	if err := CheckRowsAffected(result, nil); err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}
		var exists bool
		if err := s.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM study_plans WHERE id = $1)`, plan.ID,
		).Scan(&exists); err != nil {
			return MapError(err)
		}
		if !exists {
			return store.ErrPlanNotFound
		}
		log.Debug("study plan version conflict",
			slog.String("plan_id", plan.ID.String()),
			slog.Int64("version", plan.Version))
		return fmt.Errorf("%w: study plan version %d is stale", store.ErrConcurrencyConflict, plan.Version)
	}

	plan.Version++
	return nil
}

// ListActiveUserIDs implements store.PlanStore.
func (s *PostgresPlanStore) ListActiveUserIDs(ctx context.Context) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id FROM study_plans WHERE status = 'ACTIVE' ORDER BY user_id`)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, MapError(err)
		}
		ids = append(ids, id)
	}
	return ids, MapError(rows.Err())
}

// CreateTasks implements store.PlanStore.
func (s *PostgresPlanStore) CreateTasks(ctx context.Context, tasks []*domain.DailyTask) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	for _, t := range tasks {
		if err := t.Validate(); err != nil {
			return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
		}
	}

	err := s.withTx(ctx, func(ctx context.Context, q store.DBTX) error {
		for _, t := range tasks {
			items, err := json.Marshal(nonNilIDs(t.ItemIDs))
			if err != nil {
				return fmt.Errorf("failed to encode task items: %w", err)
			}
			_, err = q.ExecContext(ctx, `
				INSERT INTO daily_tasks (`+taskColumns+`)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
				t.ID,
				t.PlanID,
				t.UserID,
				t.Date,
				t.Type,
				items,
				t.TargetCount,
				t.CompletedCount,
				t.Status,
				nullTimePtr(t.CompletedAt),
				t.CreatedAt,
				t.UpdatedAt,
			)
			if err != nil {
				return MapError(err)
			}
		}
		return nil
	})
	if err != nil && !store.IsDuplicateError(err) {
		log.Error("failed to create daily tasks", slog.String("error", err.Error()))
	}
	return err
}

// ListTasks implements store.PlanStore.
func (s *PostgresPlanStore) ListTasks(ctx context.Context, planID uuid.UUID, date time.Time) ([]*domain.DailyTask, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+taskColumns+`
		FROM daily_tasks
		WHERE plan_id = $1 AND task_date = $2
		ORDER BY task_type`,
		planID, date,
	)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	tasks := make([]*domain.DailyTask, 0, 3)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, MapError(err)
		}
		tasks = append(tasks, t)
	}
	return tasks, MapError(rows.Err())
}

// GetTask implements store.PlanStore.
func (s *PostgresPlanStore) GetTask(ctx context.Context, taskID uuid.UUID) (*domain.DailyTask, error) {
	t, err := scanTask(s.db.QueryRowContext(ctx,
		`SELECT `+taskColumns+` FROM daily_tasks WHERE id = $1`, taskID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, MapError(err)
	}
	return t, nil
}

// UpdateTask implements store.PlanStore.
func (s *PostgresPlanStore) UpdateTask(ctx context.Context, task *domain.DailyTask) error {
	if err := task.Validate(); err != nil {
		return fmt.Errorf("%w: %w", store.ErrInvalidEntity, err)
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE daily_tasks
		SET completed_count = $2, status = $3, completed_at = $4, updated_at = $5
		WHERE id = $1`,
		task.ID,
		task.CompletedCount,
		task.Status,
		nullTimePtr(task.CompletedAt),
		task.UpdatedAt,
	)
	if err != nil {
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrTaskNotFound)
}

func encodePlanJSON(plan *domain.StudyPlan) (path, adjustments []byte, err error) {
	path, err = json.Marshal(plan.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode learning path: %w", err)
	}
	adj := plan.Adjustments
	if adj == nil {
		adj = []domain.PlanAdjustment{}
	}
	adjustments, err = json.Marshal(adj)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode plan adjustments: %w", err)
	}
	return path, adjustments, nil
}

func scanPlan(row rowScanner) (*domain.StudyPlan, error) {
	var (
		p                         domain.StudyPlan
		goal, phase, status       string
		pathJSON, adjustmentsJSON []byte
		adjustedOn                sql.NullTime
	)
	err := row.Scan(
		&p.ID,
		&p.UserID,
		&goal,
		&p.TargetDate,
		&p.DailyTaskCount,
		&phase,
		&p.CompletionRate,
		&status,
		&pathJSON,
		&adjustmentsJSON,
		&adjustedOn,
		&p.Version,
		&p.CreatedAt,
		&p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	p.GoalType = domain.GoalType(goal)
	p.Phase = domain.ProficiencyLevel(phase)
	p.Status = domain.PlanStatus(status)
	if adjustedOn.Valid {
		p.AdjustedOn = adjustedOn.Time
	}
	if err := json.Unmarshal(pathJSON, &p.Path); err != nil {
		return nil, fmt.Errorf("failed to decode learning path: %w", err)
	}
	if err := json.Unmarshal(adjustmentsJSON, &p.Adjustments); err != nil {
		return nil, fmt.Errorf("failed to decode plan adjustments: %w", err)
	}
	return &p, nil
}

func scanTask(row rowScanner) (*domain.DailyTask, error) {
	var (
		t           domain.DailyTask
		taskType    string
		status      string
		itemsJSON   []byte
		completedAt sql.NullTime
	)
	err := row.Scan(
		&t.ID,
		&t.PlanID,
		&t.UserID,
		&t.Date,
		&taskType,
		&itemsJSON,
		&t.TargetCount,
		&t.CompletedCount,
		&status,
		&completedAt,
		&t.CreatedAt,
		&t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	t.Type = domain.TaskType(taskType)
	t.Status = domain.TaskStatus(status)
	if completedAt.Valid {
		at := completedAt.Time
		t.CompletedAt = &at
	}
	if err := json.Unmarshal(itemsJSON, &t.ItemIDs); err != nil {
		return nil, fmt.Errorf("failed to decode task items: %w", err)
	}
	return &t, nil
}

func nonNilIDs(ids []uuid.UUID) []uuid.UUID {
	if ids == nil {
		return []uuid.UUID{}
	}
	return ids
}

func nullTimePtr(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

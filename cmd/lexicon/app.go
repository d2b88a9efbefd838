package main

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/scry-lexicon/internal/clock"
	"github.com/phrazzld/scry-lexicon/internal/config"
	"github.com/phrazzld/scry-lexicon/internal/domain/analytics"
	"github.com/phrazzld/scry-lexicon/internal/domain/planner"
	"github.com/phrazzld/scry-lexicon/internal/domain/srs"
	"github.com/phrazzld/scry-lexicon/internal/events"
	"github.com/phrazzld/scry-lexicon/internal/platform/inmem"
	"github.com/phrazzld/scry-lexicon/internal/platform/postgres"
	"github.com/phrazzld/scry-lexicon/internal/redact"
	"github.com/phrazzld/scry-lexicon/internal/scheduler"
	"github.com/phrazzld/scry-lexicon/internal/service/motivation"
	"github.com/phrazzld/scry-lexicon/internal/service/planning"
	"github.com/phrazzld/scry-lexicon/internal/service/progress"
	"github.com/phrazzld/scry-lexicon/internal/service/review"
	"github.com/phrazzld/scry-lexicon/internal/store"
	"github.com/phrazzld/scry-lexicon/internal/task"
	"github.com/phrazzld/scry-lexicon/internal/vocabulary"
)

// stores groups the persistence ports shared by the services.
type stores struct {
	records      store.MemoryRecordStore
	profiles     store.ProfileStore
	plans        store.PlanStore
	activities   store.ActivityStore
	achievements store.AchievementStore
	vocabulary   store.VocabularyStore
}

func postgresStores(db *sqlx.DB, logger *slog.Logger) stores {
	return stores{
		records:      postgres.NewPostgresMemoryRecordStore(db, logger),
		profiles:     postgres.NewPostgresProfileStore(db, logger),
		plans:        postgres.NewPostgresPlanStore(db, logger),
		activities:   postgres.NewPostgresActivityStore(db, logger),
		achievements: postgres.NewPostgresAchievementStore(db, logger),
		vocabulary:   postgres.NewPostgresVocabularyStore(db, logger),
	}
}

func memoryStores() stores {
	return stores{
		records:      inmem.NewMemoryRecordStore(),
		profiles:     inmem.NewProfileStore(),
		plans:        inmem.NewPlanStore(),
		activities:   inmem.NewActivityStore(),
		achievements: inmem.NewAchievementStore(),
		vocabulary:   inmem.NewVocabularyStore(),
	}
}

// application holds all the shared application dependencies to simplify management
// and ensure proper cleanup on shutdown.
type application struct {
	config *config.Config
	logger *slog.Logger
	loc    *time.Location
	clock  clock.Clock

	// db is nil when running on the in-memory stores.
	db     *sqlx.DB
	stores stores

	eventEmitter *events.InMemoryEventEmitter
	taskRunner   *task.TaskRunner

	reviewService     review.Service
	planningService   *planning.Service
	progressService   *progress.Service
	motivationService *motivation.Service
}

// newApplication wires the services over db, or over in-memory stores when
// db is nil, and starts the task runner that processes review events.
func newApplication(cfg *config.Config, logger *slog.Logger, db *sqlx.DB, clk clock.Clock) (*application, error) {
	loc, err := cfg.Server.Location()
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", cfg.Server.Timezone, err)
	}
	if clk == nil {
		clk = clock.System{}
	}

	app := &application{
		config: cfg,
		logger: logger,
		loc:    loc,
		clock:  clk,
		db:     db,
	}
	if db != nil {
		app.stores = postgresStores(db, logger)
	} else {
		app.stores = memoryStores()
		logger.Warn("using in-memory stores; state is discarded on exit")
	}

	app.motivationService = motivation.NewService(
		app.stores.achievements,
		app.stores.records,
		app.stores.activities,
		clk,
		loc,
		logger,
	)

	app.taskRunner = task.NewTaskRunner(task.TaskRunnerConfig{
		WorkerCount: cfg.Task.WorkerCount,
		QueueSize:   cfg.Task.QueueSize,
	}, logger)
	app.taskRunner.SetErrorHandler(func(t task.Task, err error) {
		logger.Error("background task failed",
			slog.String("task_id", t.ID().String()),
			slog.String("task_type", t.Type()),
			slog.String("error", err.Error()))
	})

	app.eventEmitter = events.NewInMemoryEventEmitter(logger)
	app.eventEmitter.RegisterHandler(task.NewReviewEventHandler(app.motivationService, app.taskRunner, logger))

	reviewConfig := review.DefaultConfig()
	reviewConfig.DefaultDueLimit = cfg.Review.DefaultDueLimit
	reviewConfig.MaxConflictRetries = cfg.Review.MaxConflictRetries
	app.reviewService = review.NewService(review.Dependencies{
		Records:    app.stores.records,
		Activities: app.stores.activities,
		Vocabulary: app.stores.vocabulary,
		Engine:     srs.NewEngineWithParams(srs.NewParams(cfg.SRS)),
		Emitter:    app.eventEmitter,
		Clock:      clk,
	}, reviewConfig, logger)

	app.planningService = planning.NewService(planning.Dependencies{
		Profiles:   app.stores.profiles,
		Plans:      app.stores.plans,
		Records:    app.stores.records,
		Vocabulary: app.stores.vocabulary,
		Engine:     planner.NewEngineWithParams(planner.NewParams(cfg.Planner)),
		Clock:      clk,
	}, loc, logger)

	app.progressService = progress.NewService(progress.Dependencies{
		Records:      app.stores.records,
		Activities:   app.stores.activities,
		Profiles:     app.stores.profiles,
		Plans:        app.stores.plans,
		Achievements: app.stores.achievements,
		Engine:       analytics.NewEngine(loc),
		Clock:        clk,
		Motivation:   app.motivationService,
	}, loc, logger)

	app.taskRunner.Start()

	logger.Info("application initialized",
		slog.String("timezone", loc.String()),
		slog.Bool("in_memory", db == nil))
	return app, nil
}

// importer returns a vocabulary importer over the application's pool.
func (app *application) importer(cfg vocabulary.ImportConfig) *vocabulary.Importer {
	return vocabulary.NewImporter(app.stores.vocabulary, cfg, app.logger)
}

// newScheduler registers the daily maintenance jobs.
func (app *application) newScheduler() (*scheduler.Scheduler, error) {
	s := scheduler.New(app.loc, app.logger)
	if err := s.Daily(scheduler.JobPlanRefresh, app.config.Scheduler.DailyAt,
		scheduler.RefreshPlansJob(app.planningService)); err != nil {
		return nil, err
	}
	return s, nil
}

// openDatabase connects to the configured database unless inMemory is set.
func openDatabase(ctx context.Context, cfg *config.Config, inMemory bool) (*sqlx.DB, error) {
	if inMemory {
		return nil, nil
	}
	if cfg.Database.URL == "" {
		return nil, fmt.Errorf("database.url is not configured; set LEXICON_DATABASE_URL or use --in-memory")
	}
	db, err := postgres.Open(ctx, cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", redact.String(cfg.Database.URL), err)
	}
	return db, nil
}

// cleanup drains pending background work and closes the database.
func (app *application) cleanup() {
	if app.taskRunner != nil {
		app.taskRunner.Stop()
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("error closing database connection", slog.String("error", err.Error()))
		}
	}

	app.logger.Info("application shutdown completed")
}

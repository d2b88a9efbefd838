package config

import (
	"github.com/phrazzld/scry-lexicon/internal/domain/planner"
	"github.com/phrazzld/scry-lexicon/internal/domain/srs"
)

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server    ServerConfig         `mapstructure:"server"    validate:"required"`
	Database  DatabaseConfig       `mapstructure:"database"  validate:"required"`
	Review    ReviewConfig         `mapstructure:"review"    validate:"required"`
	SRS       srs.ParamsConfig     `mapstructure:"srs"`
	Planner   planner.ParamsConfig `mapstructure:"planner"`
	Task      TaskConfig           `mapstructure:"task"      validate:"required"`
	Scheduler SchedulerConfig      `mapstructure:"scheduler" validate:"required"`
}

// ServerConfig contains process-wide settings.
type ServerConfig struct {
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	// Timezone is the IANA zone used for calendar days and time-of-day buckets.
	Timezone string `mapstructure:"timezone"  validate:"required,timezone"`
}

// DatabaseConfig contains all database-related configuration settings.
type DatabaseConfig struct {
	URL          string `mapstructure:"url"            validate:"omitempty,url"`
	MaxOpenConns int    `mapstructure:"max_open_conns" validate:"gte=1"`
}

// ReviewConfig controls the review workflow.
type ReviewConfig struct {
	DefaultDueLimit    int `mapstructure:"default_due_limit"    validate:"gte=1,lte=200"`
	MaxConflictRetries int `mapstructure:"max_conflict_retries" validate:"gte=0,lte=10"`
}

// TaskConfig sizes the background worker pool.
type TaskConfig struct {
	WorkerCount int `mapstructure:"worker_count" validate:"gte=1"`
	QueueSize   int `mapstructure:"queue_size"   validate:"gte=1"`
}

// SchedulerConfig controls the daily plan maintenance job.
type SchedulerConfig struct {
	// DailyAt is the local HH:MM at which daily plan maintenance runs.
	DailyAt string `mapstructure:"daily_at" validate:"required,datetime=15:04"`
}

package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix is the prefix of every environment variable read by Load.
const EnvPrefix = "LEXICON"

// Options adjusts where Load looks for configuration.
type Options struct {
	// ConfigFile is an explicit YAML file. When empty, config.yaml is looked
	// up in the working directory and ignored if absent.
	ConfigFile string
	// EnvFile is a dotenv file loaded into the process environment before
	// reading. Existing environment variables win. Defaults to ".env"; a
	// missing file is not an error.
	EnvFile string
}

// Load configuration from environment variables and optionally config files.
// Environment variables take precedence over values from config files.
// Returns a populated Config struct or an error if loading/validation fails.
func Load() (*Config, error) {
	return LoadWithOptions(Options{})
}

// LoadWithOptions is Load with explicit file locations.
func LoadWithOptions(opts Options) (*Config, error) {
	envFile := opts.EnvFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
	}

	v := viper.New()
	setDefaults(v)

	v.SetConfigType("yaml")
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv only covers keys viper already knows about; bind the
	// ones without defaults explicitly.
	for _, key := range unboundKeys {
		if err := v.BindEnv(key); err != nil {
			return nil, fmt.Errorf("error binding environment variable for %s: %w", key, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Validate checks cfg against its struct tags.
func Validate(cfg *Config) error {
	validate := validator.New()
	if err := validate.Struct(cfg); err != nil {
		return fmt.Errorf("configuration validation failed: %w", err)
	}
	if cfg.Planner.MinDailyTasks > 0 && cfg.Planner.MaxDailyTasks > 0 &&
		cfg.Planner.MinDailyTasks > cfg.Planner.MaxDailyTasks {
		return fmt.Errorf("configuration validation failed: planner.min_daily_tasks %d exceeds planner.max_daily_tasks %d",
			cfg.Planner.MinDailyTasks, cfg.Planner.MaxDailyTasks)
	}
	return nil
}

// Location resolves the configured timezone.
func (c ServerConfig) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// unboundKeys have no default; zero means "use the engine default".
var unboundKeys = []string{
	"database.url",
	"srs.gain_rate",
	"srs.min_gain",
	"srs.loss_rate",
	"srs.min_loss",
	"srs.forgotten_threshold",
	"srs.forgotten_wrong_streak",
	"srs.base_interval_hours",
	"srs.mastery_band_width",
	"srs.review_factor_step",
	"srs.review_factor_cap",
	"srs.max_interval_hours",
	"srs.struggling_wrong_streak",
	"srs.struggling_interval_hours",
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.log_level", "info")
	v.SetDefault("server.timezone", "UTC")

	v.SetDefault("database.max_open_conns", 10)

	v.SetDefault("review.default_due_limit", 20)
	v.SetDefault("review.max_conflict_retries", 3)

	v.SetDefault("planner.min_daily_tasks", 10)
	v.SetDefault("planner.max_daily_tasks", 50)
	v.SetDefault("planner.max_words_per_day", 50)

	v.SetDefault("task.worker_count", 2)
	v.SetDefault("task.queue_size", 100)

	v.SetDefault("scheduler.daily_at", "00:05")
}

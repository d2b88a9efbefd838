package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/scry-lexicon/internal/clock"
	"github.com/phrazzld/scry-lexicon/internal/config"
	"github.com/phrazzld/scry-lexicon/internal/platform/logger"
	"github.com/phrazzld/scry-lexicon/internal/redact"
	"github.com/spf13/cobra"
)

// rootOptions are the persistent flags shared by every command.
type rootOptions struct {
	configFile string
	envFile    string
	inMemory   bool

	// clock overrides the system clock in tests.
	clock clock.Clock
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "lexicon",
		Short:         "Personalized vocabulary learning core",
		Long:          "lexicon schedules vocabulary reviews, builds adaptive study plans and reports learning progress.",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.configFile, "config", "", "Path to a YAML config file (default ./config.yaml if present)")
	flags.StringVar(&opts.envFile, "env-file", "", "Path to a dotenv file (default .env if present)")
	flags.BoolVar(&opts.inMemory, "in-memory", false, "Use in-memory stores instead of PostgreSQL")

	cmd.AddCommand(
		newMigrateCmd(opts),
		newImportCmd(opts),
		newReviewCmd(opts),
		newDueCmd(opts),
		newProfileCmd(opts),
		newPlanCmd(opts),
		newStatsCmd(opts),
		newAchievementsCmd(opts),
		newWorkerCmd(opts),
	)
	return cmd
}

// loadConfig reads configuration and installs the process logger.
func (o *rootOptions) loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.LoadWithOptions(config.Options{
		ConfigFile: o.configFile,
		EnvFile:    o.envFile,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	log, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to set up logger: %w", err)
	}
	log.Debug("configuration loaded",
		slog.String("log_level", cfg.Server.LogLevel),
		slog.String("timezone", cfg.Server.Timezone),
		slog.String("database_url", redact.String(cfg.Database.URL)))
	return cfg, log, nil
}

// withApp builds the application, runs fn and shuts the application down.
func (o *rootOptions) withApp(ctx context.Context, fn func(app *application) error) error {
	cfg, log, err := o.loadConfig()
	if err != nil {
		return err
	}

	db, err := openDatabase(ctx, cfg, o.inMemory)
	if err != nil {
		return err
	}

	app, err := newApplication(cfg, log, db, o.clock)
	if err != nil {
		if db != nil {
			_ = db.Close()
		}
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer app.cleanup()

	return fn(app)
}

func parseUUIDArg(name, value string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid %s %q: %w", name, value, err)
	}
	return id, nil
}

// printJSON writes v as indented JSON to the command's output.
func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/scry-lexicon/internal/scheduler"
	"github.com/spf13/cobra"
)

func newWorkerCmd(opts *rootOptions) *cobra.Command {
	var runNow bool

	cmd := &cobra.Command{
		Use:   "worker",
		Short: "Run the daily plan maintenance scheduler until interrupted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return opts.withApp(ctx, func(app *application) error {
				return app.runWorker(ctx, runNow)
			})
		},
	}

	cmd.Flags().BoolVar(&runNow, "run-now", false, "Also run plan maintenance once at startup")
	return cmd
}

// runWorker runs the scheduler until ctx is done.
func (app *application) runWorker(ctx context.Context, runNow bool) error {
	s, err := app.newScheduler()
	if err != nil {
		return err
	}
	s.Start()
	defer s.Stop()

	if runNow {
		if err := s.RunNow(scheduler.JobPlanRefresh); err != nil {
			return err
		}
	}

	if next, err := s.NextRun(scheduler.JobPlanRefresh); err == nil {
		app.logger.Info("worker running", slog.Time("next_plan_refresh", next))
	}

	<-ctx.Done()
	app.logger.Info("worker shutting down")
	return nil
}

package main

import (
	"time"

	"github.com/phrazzld/scry-lexicon/internal/service/progress"
	"github.com/spf13/cobra"
)

func newStatsCmd(opts *rootOptions) *cobra.Command {
	var (
		days    int
		analyze bool
	)

	cmd := &cobra.Command{
		Use:   "stats USER_ID",
		Short: "Print the user's progress dashboard",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUUIDArg("user ID", args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(app *application) error {
				if analyze {
					if _, err := app.progressService.AnalyzeProfile(cmd.Context(), userID); err != nil {
						return err
					}
				}
				dashboard, err := app.progressService.Dashboard(cmd.Context(), userID, days)
				if err != nil {
					return err
				}
				return printJSON(cmd, dashboard)
			})
		},
	}

	cmd.Flags().IntVar(&days, "days", int(progress.AnalysisWindow/(24*time.Hour)), "Days covered by the progress curve")
	cmd.Flags().BoolVar(&analyze, "analyze", false, "Refresh the profile's learning analysis first")
	return cmd
}

func newAchievementsCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "achievements USER_ID",
		Short: "Grant any newly earned achievements and show achievement progress",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUUIDArg("user ID", args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(app *application) error {
				if _, err := app.motivationService.CheckAndGrant(cmd.Context(), userID); err != nil {
					return err
				}
				overview, err := app.motivationService.Progress(cmd.Context(), userID)
				if err != nil {
					return err
				}
				return printJSON(cmd, overview)
			})
		},
	}
}

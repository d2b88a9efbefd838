package main

import (
	"fmt"
	"time"

	"github.com/phrazzld/scry-lexicon/internal/domain"
	"github.com/phrazzld/scry-lexicon/internal/service/planning"
	"github.com/spf13/cobra"
)

// planView is the printed form of a plan with the day's tasks.
type planView struct {
	Plan  *domain.StudyPlan   `json:"plan"`
	Tasks []*domain.DailyTask `json:"tasks"`
}

func newProfileCmd(opts *rootOptions) *cobra.Command {
	var (
		level      string
		goal       string
		targetDate string
		words      int
	)

	cmd := &cobra.Command{
		Use:   "profile USER_ID",
		Short: "Create or update a learning profile and regenerate the study plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUUIDArg("user ID", args[0])
			if err != nil {
				return err
			}

			return opts.withApp(cmd.Context(), func(app *application) error {
				target, err := time.ParseInLocation(time.DateOnly, targetDate, app.loc)
				if err != nil {
					return fmt.Errorf("invalid --target-date %q: %w", targetDate, err)
				}

				profile, err := app.planningService.UpdateProfile(cmd.Context(), userID, planning.ProfileInput{
					Level:           domain.ProficiencyLevel(level),
					GoalType:        domain.GoalType(goal),
					TargetDate:      target,
					TargetWordCount: words,
				})
				if err != nil {
					return err
				}
				return printJSON(cmd, profile)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&level, "level", string(domain.LevelBeginner), "Proficiency level: BEGINNER, INTERMEDIATE or ADVANCED")
	f.StringVar(&goal, "goal", string(domain.GoalTypeDaily), "Goal type: EXAM, TRAVEL, BUSINESS or DAILY")
	f.StringVar(&targetDate, "target-date", "", "Target date, YYYY-MM-DD")
	f.IntVar(&words, "words", 0, "Target word count (0 means the whole learning path)")
	_ = cmd.MarkFlagRequired("target-date")
	return cmd
}

func newPlanCmd(opts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Inspect and maintain study plans",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show USER_ID",
		Short: "Print the active plan and today's tasks, generating them if needed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUUIDArg("user ID", args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(app *application) error {
				plan, err := app.planningService.GetOrGeneratePlan(cmd.Context(), userID)
				if err != nil {
					return err
				}
				tasks, err := app.planningService.EnsureDailyTasks(cmd.Context(), userID)
				if err != nil {
					return err
				}
				return printJSON(cmd, planView{Plan: plan, Tasks: tasks})
			})
		},
	})

	var count int
	complete := &cobra.Command{
		Use:   "complete USER_ID TASK_ID",
		Short: "Record progress on one of today's tasks",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUUIDArg("user ID", args[0])
			if err != nil {
				return err
			}
			taskID, err := parseUUIDArg("task ID", args[1])
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(app *application) error {
				task, err := app.planningService.CompleteTask(cmd.Context(), userID, taskID, count)
				if err != nil {
					return err
				}
				return printJSON(cmd, task)
			})
		},
	}
	complete.Flags().IntVar(&count, "count", 0, "Number of items completed")
	_ = complete.MarkFlagRequired("count")
	cmd.AddCommand(complete)

	cmd.AddCommand(&cobra.Command{
		Use:   "adjust USER_ID",
		Short: "Adjust the daily load from yesterday's completion rate",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUUIDArg("user ID", args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(app *application) error {
				plan, err := app.planningService.AdjustPlan(cmd.Context(), userID)
				if err != nil {
					return err
				}
				return printJSON(cmd, plan)
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "refresh",
		Short: "Run the daily plan maintenance pass for every active plan",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withApp(cmd.Context(), func(app *application) error {
				summary, err := app.planningService.RefreshDaily(cmd.Context())
				if err != nil {
					return err
				}
				return printJSON(cmd, summary)
			})
		},
	})
	return cmd
}

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newReviewCmd(opts *rootOptions) *cobra.Command {
	var correct, wrong bool

	cmd := &cobra.Command{
		Use:   "review USER_ID ITEM_ID (--correct | --wrong)",
		Short: "Record one review answer and print the updated memory record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if correct == wrong {
				return fmt.Errorf("exactly one of --correct or --wrong is required")
			}
			userID, err := parseUUIDArg("user ID", args[0])
			if err != nil {
				return err
			}
			itemID, err := parseUUIDArg("item ID", args[1])
			if err != nil {
				return err
			}

			return opts.withApp(cmd.Context(), func(app *application) error {
				record, err := app.reviewService.SubmitReview(cmd.Context(), userID, itemID, correct)
				if err != nil {
					return err
				}
				return printJSON(cmd, record)
			})
		},
	}

	cmd.Flags().BoolVar(&correct, "correct", false, "The answer was correct")
	cmd.Flags().BoolVar(&wrong, "wrong", false, "The answer was wrong")
	return cmd
}

func newDueCmd(opts *rootOptions) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "due USER_ID",
		Short: "List the user's due reviews, most overdue first",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			userID, err := parseUUIDArg("user ID", args[0])
			if err != nil {
				return err
			}
			return opts.withApp(cmd.Context(), func(app *application) error {
				records, err := app.reviewService.GetDueReviews(cmd.Context(), userID, limit)
				if err != nil {
					return err
				}
				return printJSON(cmd, records)
			})
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of records (0 uses the configured default)")
	return cmd
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/terra-clan/skill-assessment/internal/assessment"
	"github.com/terra-clan/skill-assessment/internal/models"
	"github.com/terra-clan/skill-assessment/pkg/client"
)

var errUserRequired = errors.New("--user is required")

func newSubmitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "submit",
		Short: "Submit ratings to the server and store the assessment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _ := cmd.Flags().GetString("user")
			if user == "" {
				return errUserRequired
			}

			ratings, err := ratingsFromFlags(cmd)
			if err != nil {
				return err
			}
			quizID, _ := cmd.Flags().GetString("quiz-id")
			quizTitle, _ := cmd.Flags().GetString("quiz-title")

			sub, err := newClient(cmd).Submit(cmd.Context(), models.SubmitRequest{
				UserID:    user,
				Ratings:   ratings,
				QuizID:    quizID,
				QuizTitle: quizTitle,
			})
			if err != nil {
				if client.IsNoTopicRated(err) {
					return errors.New(assessment.NoTopicRatedMessage)
				}
				return err
			}

			out := cmd.OutOrStdout()
			printRecord(out, sub.Record)
			fmt.Fprintf(out, "\nNext: %s (%d matching quizzes)\n", sub.Navigation.Path, len(sub.Quizzes))
			for _, q := range sub.Quizzes {
				fmt.Fprintf(out, "  %-28s %-10s %s\n", q.ID, q.Difficulty, q.Title)
			}
			return nil
		},
	}

	addRatingFlags(cmd)
	cmd.Flags().String("user", "", "user to store the assessment for")
	cmd.Flags().String("quiz-id", "", "quiz the assessment was started from")
	cmd.Flags().String("quiz-title", "", "title of that quiz")
	return cmd
}

func newLatestCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "latest",
		Short: "Show a user's stored assessment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			user, _ := cmd.Flags().GetString("user")
			if user == "" {
				return errUserRequired
			}

			rec, err := newClient(cmd).Latest(cmd.Context(), user)
			if err != nil {
				return err
			}
			if rec == nil {
				fmt.Fprintf(cmd.OutOrStdout(), "No assessment stored for %s\n", user)
				return nil
			}

			if asJSON, _ := cmd.Flags().GetBool("json"); asJSON {
				return writeJSON(cmd.OutOrStdout(), rec)
			}
			printRecord(cmd.OutOrStdout(), rec)
			return nil
		},
	}

	cmd.Flags().String("user", "", "user to look up")
	cmd.Flags().Bool("json", false, "print the assessment record as JSON")
	return cmd
}

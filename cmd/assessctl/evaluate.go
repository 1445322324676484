package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/terra-clan/skill-assessment/internal/assessment"
	"github.com/terra-clan/skill-assessment/internal/catalog"
	"github.com/terra-clan/skill-assessment/internal/models"
)

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Preview the level for a set of ratings without contacting a server",
		Example: `  assessctl evaluate --html 3 --dsa 5
  assessctl evaluate --react 4 --catalog ./quizzes --json`,
		Args: cobra.NoArgs,
		RunE: runEvaluate,
	}

	addRatingFlags(cmd)
	cmd.Flags().String("catalog", "", "quiz catalog directory; lists quizzes matching the ratings")
	cmd.Flags().Bool("json", false, "print the assessment record as JSON")
	return cmd
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ratings, err := ratingsFromFlags(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	asJSON, _ := cmd.Flags().GetBool("json")

	rec, err := assessment.BuildAssessment(ratings, time.Now())
	if err != nil {
		// preview still works, it just cannot be submitted
		ev := assessment.Evaluate(ratings)
		if asJSON {
			return writeJSON(out, models.EvaluateResponse{
				Evaluation:      ev,
				SelectedTopics:  assessment.SelectedTopics(ratings),
				TopicDifficulty: assessment.TopicDifficultyMap(ratings),
			})
		}
		fmt.Fprintf(out, "Level: %s (average %.1f)\n%s\n", ev.Level, ev.AverageRating, assessment.NoTopicRatedMessage)
		return nil
	}

	var quizzes []*models.Quiz
	if dir, _ := cmd.Flags().GetString("catalog"); dir != "" {
		loader := catalog.NewLoader()
		if err := loader.LoadFromDir(dir); err != nil {
			return fmt.Errorf("failed to load catalog: %w", err)
		}
		quizzes = catalog.Filter(loader.ListQuizzes(), rec)
	}

	if asJSON {
		if quizzes != nil {
			return writeJSON(out, map[string]interface{}{"assessment": rec, "quizzes": quizzes})
		}
		return writeJSON(out, rec)
	}

	printRecord(out, rec)
	if quizzes != nil {
		fmt.Fprintf(out, "\nMatching quizzes (%d):\n", len(quizzes))
		for _, q := range quizzes {
			fmt.Fprintf(out, "  %-28s %-10s %s\n", q.ID, q.Difficulty, q.Title)
		}
	}
	return nil
}

func printRecord(out io.Writer, rec *assessment.Record) {
	fmt.Fprintf(out, "Level: %s (average %.1f)\n", rec.Level, rec.AverageRating)
	for _, t := range rec.SelectedTopics {
		fmt.Fprintf(out, "  %-12s %d  %s\n", t, rec.Ratings.Get(t), rec.DifficultyOf(t))
	}
	fmt.Fprintf(out, "Recorded at %s\n", rec.Timestamp)
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

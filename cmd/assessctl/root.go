package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/terra-clan/skill-assessment/internal/assessment"
	"github.com/terra-clan/skill-assessment/pkg/client"
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "assessctl",
		Short:         "Skill self-assessment tool",
		Long:          "assessctl rates the six web development topics, previews the resulting level offline and talks to a skill-assessment server.",
		SilenceUsage: true,
	}

	root.PersistentFlags().String("server", envOr("ASSESSCTL_SERVER", "http://localhost:8080"), "skill-assessment server URL (ASSESSCTL_SERVER)")
	root.PersistentFlags().String("api-key", os.Getenv("ASSESSCTL_API_KEY"), "API key (ASSESSCTL_API_KEY)")

	root.AddCommand(newTopicsCmd())
	root.AddCommand(newEvaluateCmd())
	root.AddCommand(newSubmitCmd())
	root.AddCommand(newLatestCmd())
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// newClient builds an SDK client from the persistent flags
func newClient(cmd *cobra.Command) *client.Client {
	server, _ := cmd.Flags().GetString("server")
	apiKey, _ := cmd.Flags().GetString("api-key")
	return client.NewClient(strings.TrimRight(server, "/"), apiKey)
}

// ratingFlag is the flag name for a topic, e.g. --javascript
func ratingFlag(t assessment.Topic) string {
	return strings.ToLower(t.String())
}

func addRatingFlags(cmd *cobra.Command) {
	for _, t := range assessment.Topics() {
		cmd.Flags().Int(ratingFlag(t), 0, fmt.Sprintf("%s rating (%d-%d)", t, assessment.MinRating, assessment.MaxRating))
	}
}

// ratingsFromFlags collects one rating per topic flag
func ratingsFromFlags(cmd *cobra.Command) (assessment.RatingMap, error) {
	var m assessment.RatingMap
	for _, t := range assessment.Topics() {
		v, err := cmd.Flags().GetInt(ratingFlag(t))
		if err != nil {
			return m, err
		}
		if err := m.Set(t, assessment.Rating(v)); err != nil {
			return m, err
		}
	}
	return m, nil
}

func newTopicsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "topics",
		Short: "List the rateable topics",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, t := range assessment.Topics() {
				fmt.Fprintf(out, "%-12s --%s\n", t, ratingFlag(t))
			}
			fmt.Fprintf(out, "\nRatings range from %d (not rated) to %d.\n", assessment.MinRating, assessment.MaxRating)
		},
	}
}

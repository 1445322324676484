package catalog

import (
	"sort"

	"github.com/terra-clan/skill-assessment/internal/assessment"
	"github.com/terra-clan/skill-assessment/internal/models"
)

// Filter keeps the quizzes matching a record: the quiz topic must be a
// selected topic and the quiz difficulty must equal that topic's label.
func Filter(quizzes []*models.Quiz, rec *assessment.Record) []*models.Quiz {
	out := make([]*models.Quiz, 0, len(quizzes))
	if rec == nil {
		return out
	}

	for _, q := range quizzes {
		want, ok := rec.TopicDifficulty[q.Topic]
		if !ok || want == assessment.DifficultyNone {
			continue
		}
		if q.Difficulty == want {
			out = append(out, q)
		}
	}
	sortQuizzes(out)
	return out
}

// sortQuizzes orders by topic declaration order, then ID
func sortQuizzes(quizzes []*models.Quiz) {
	sort.Slice(quizzes, func(i, j int) bool {
		if quizzes[i].Topic != quizzes[j].Topic {
			return quizzes[i].Topic < quizzes[j].Topic
		}
		return quizzes[i].ID < quizzes[j].ID
	})
}

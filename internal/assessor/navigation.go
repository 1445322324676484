package assessor

import (
	"github.com/terra-clan/skill-assessment/internal/assessment"
	"github.com/terra-clan/skill-assessment/internal/models"
)

// Navigate builds the instruction sent to the quiz list after a submission.
// quizID and quizTitle are carried through when the form was opened from a
// specific quiz.
func Navigate(rec *assessment.Record, quizID, quizTitle string) models.Navigation {
	return models.Navigation{
		Path: models.QuizListPath,
		State: models.NavigationState{
			Assessment:     rec,
			FromAssessment: true,
			FilterByTopics: true,
			QuizID:         quizID,
			QuizTitle:      quizTitle,
		},
	}
}

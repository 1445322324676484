package models

import (
	"github.com/terra-clan/skill-assessment/internal/assessment"
)

// QuizListPath is where a submission navigates to
const QuizListPath = "/quizzes"

// SubmitRequest represents a one-shot assessment submission
type SubmitRequest struct {
	UserID    string               `json:"user_id"`
	Ratings   assessment.RatingMap `json:"ratings"`
	QuizID    string               `json:"quiz_id,omitempty"`
	QuizTitle string               `json:"quiz_title,omitempty"`
}

// EvaluateRequest asks for a preview without persisting anything
type EvaluateRequest struct {
	Ratings assessment.RatingMap `json:"ratings"`
}

// EvaluateResponse is the preview of a rating map
type EvaluateResponse struct {
	assessment.Evaluation
	SelectedTopics  []assessment.Topic       `json:"selectedTopics"`
	TopicDifficulty assessment.DifficultyMap `json:"topicDifficulty"`
	CanSubmit       bool                     `json:"canSubmit"`
}

// NavigationState is handed to the quiz list
type NavigationState struct {
	Assessment     *assessment.Record `json:"assessment"`
	FromAssessment bool               `json:"fromAssessment"`
	FilterByTopics bool               `json:"filterByTopics"`
	QuizID         string             `json:"quizId,omitempty"`
	QuizTitle      string             `json:"quizTitle,omitempty"`
}

// Navigation tells the caller where to go after a submission
type Navigation struct {
	Path  string          `json:"path"`
	State NavigationState `json:"state"`
}

// Submission is the result of a successful submit
type Submission struct {
	Record     *assessment.Record `json:"assessment"`
	Navigation Navigation         `json:"navigation"`
	Quizzes    []*Quiz            `json:"quizzes"`
}

// TopicInfo describes one rateable topic
type TopicInfo struct {
	Name      assessment.Topic  `json:"name"`
	MinRating assessment.Rating `json:"minRating"`
	MaxRating assessment.Rating `json:"maxRating"`
	Quizzes   int               `json:"quizzes"`
}

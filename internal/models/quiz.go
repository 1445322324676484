package models

import (
	"github.com/terra-clan/skill-assessment/internal/assessment"
)

// TopicGroup is a catalog directory holding the quizzes of one topic
type TopicGroup struct {
	ID           string           `json:"id"` // directory name, e.g. "javascript"
	Topic        assessment.Topic `json:"topic"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	QuizzesCount int              `json:"quizzesCount"`
}

// Quiz represents a quiz in the catalog
type Quiz struct {
	ID            string                 `json:"id"`   // "javascript/closures"
	Code          string                 `json:"code"` // "closures"
	Title         string                 `json:"title"`
	Description   string                 `json:"description"`
	Topic         assessment.Topic       `json:"topic"`
	Difficulty    assessment.Difficulty  `json:"difficulty"`    // Easy | Medium | Hard
	RequiredLevel *assessment.SkillLevel `json:"requiredLevel"` // Beginner | Intermediate | Advanced | null
	TimeLimit     int                    `json:"timeLimit"`     // seconds
	Questions     int                    `json:"questions"`
	GroupID       string                 `json:"groupId"`
}

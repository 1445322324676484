package models

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/terra-clan/skill-assessment/internal/assessment"
)

// FormStatus represents the current state of an assessment form
type FormStatus string

const (
	FormOpen      FormStatus = "open"      // Accepting ratings
	FormSubmitted FormStatus = "submitted" // Record built and persisted
	FormExpired   FormStatus = "expired"   // TTL elapsed before submission
)

// Form is an in-progress self-assessment. Ratings change one topic at a time
// until the form is submitted.
type Form struct {
	ID          string               `json:"id"`
	Token       string               `json:"token"`
	UserID      string               `json:"user_id"`
	Status      FormStatus           `json:"status"`
	Ratings     assessment.RatingMap `json:"ratings"`
	QuizID      string               `json:"quiz_id,omitempty"`
	QuizTitle   string               `json:"quiz_title,omitempty"`
	CreatedAt   time.Time            `json:"created_at"`
	UpdatedAt   time.Time            `json:"updated_at"`
	SubmittedAt *time.Time           `json:"submitted_at,omitempty"`
	ExpiresAt   time.Time            `json:"expires_at"`
	CreatedBy   string               `json:"created_by,omitempty"`
}

// IsTerminal returns true if the form can no longer change
func (f *Form) IsTerminal() bool {
	return f.Status == FormSubmitted || f.Status == FormExpired
}

// IsOpen returns true if the form accepts ratings at now
func (f *Form) IsOpen(now time.Time) bool {
	return f.Status == FormOpen && !f.IsExpired(now)
}

// IsExpired checks if the form TTL has elapsed at now
func (f *Form) IsExpired(now time.Time) bool {
	return now.After(f.ExpiresAt)
}

// GenerateFormToken creates a cryptographically random 48-char hex token
func GenerateFormToken() (string, error) {
	bytes := make([]byte, 24)
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}

// CreateFormRequest represents a request to open a form
type CreateFormRequest struct {
	UserID    string `json:"user_id"`
	TTL       int    `json:"ttl,omitempty"` // seconds
	QuizID    string `json:"quiz_id,omitempty"`
	QuizTitle string `json:"quiz_title,omitempty"`
}

// SetRatingRequest carries one topic/rating change
type SetRatingRequest struct {
	Rating assessment.Rating `json:"rating"`
}

// FormState is returned after every form change
type FormState struct {
	Form       *Form                 `json:"form"`
	Evaluation assessment.Evaluation `json:"evaluation"`
	Selected   []assessment.Topic    `json:"selectedTopics"`
}

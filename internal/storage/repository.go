package storage

import (
	"context"
	"time"

	"github.com/terra-clan/skill-assessment/internal/assessment"
	"github.com/terra-clan/skill-assessment/internal/models"
)

// Repository defines the interface for form and client persistence
type Repository interface {
	// Forms
	CreateForm(ctx context.Context, f *models.Form) error
	GetFormByToken(ctx context.Context, token string) (*models.Form, error)
	UpdateForm(ctx context.Context, f *models.Form) error
	// SetFormRating changes one topic of an open, unexpired form in place and
	// returns the updated form, or nil when no such form matches.
	SetFormRating(ctx context.Context, token string, topic assessment.Topic, rating assessment.Rating, at time.Time) (*models.Form, error)
	// UpdateFormStatusIfOpen moves an open form to status and returns it, or
	// nil when the form is no longer open.
	UpdateFormStatusIfOpen(ctx context.Context, id string, status models.FormStatus, at time.Time) (*models.Form, error)
	ListForms(ctx context.Context, filters FormFilters) ([]*models.Form, error)
	GetExpiredForms(ctx context.Context) ([]*models.Form, error)

	// API Clients
	GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error)
	UpdateClientLastUsed(ctx context.Context, apiKey string) error

	// Health
	Ping(ctx context.Context) error
	Close() error
}

// FormFilters narrows ListForms
type FormFilters struct {
	UserID string
	Status models.FormStatus
	Limit  int
	Offset int
}

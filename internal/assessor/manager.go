// Package assessor hosts the assessment form workflow: it keeps forms,
// builds records on submission, hands them to the record stores and works
// out where the caller should navigate next.
package assessor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/terra-clan/skill-assessment/internal/assessment"
	"github.com/terra-clan/skill-assessment/internal/catalog"
	"github.com/terra-clan/skill-assessment/internal/models"
	"github.com/terra-clan/skill-assessment/internal/recordstore"
	"github.com/terra-clan/skill-assessment/internal/storage"
)

// Common errors
var (
	ErrFormNotFound = errors.New("form not found")
	ErrFormClosed   = errors.New("form is not open")
	ErrOwnerMissing = errors.New("user_id is required")
)

// DefaultFormTTL applies when neither the request nor WithFormTTL set one
const DefaultFormTTL = time.Hour

// Manager defines the assessment workflow
type Manager interface {
	// Evaluate previews a rating map without side effects
	Evaluate(ratings assessment.RatingMap) models.EvaluateResponse
	// Submit builds, persists and routes a one-shot submission
	Submit(ctx context.Context, req models.SubmitRequest) (*models.Submission, error)
	// Latest returns the owner's persisted record, or nil
	Latest(ctx context.Context, owner string) (*assessment.Record, error)
	// Quizzes lists the catalog, filtered by the owner's record when filter is set
	Quizzes(ctx context.Context, owner string, filter bool) ([]*models.Quiz, *assessment.Record, error)

	CreateForm(ctx context.Context, req models.CreateFormRequest, createdBy string) (*models.Form, error)
	GetForm(ctx context.Context, token string) (*models.Form, error)
	// OpenForm returns the form only while it still accepts changes
	OpenForm(ctx context.Context, token string) (*models.Form, error)
	SetRating(ctx context.Context, token string, topic assessment.Topic, rating assessment.Rating) (*models.Form, error)
	SubmitForm(ctx context.Context, token string) (*models.Submission, error)
	ListForms(ctx context.Context, filters storage.FormFilters) ([]*models.Form, error)

	GetExpired(ctx context.Context) ([]*models.Form, error)
	ExpireForm(ctx context.Context, f *models.Form) error

	Ping(ctx context.Context) error
}

// Option configures a FormManager
type Option func(*FormManager)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(m *FormManager) {
		m.now = now
	}
}

// WithFormTTL sets the TTL for forms opened without one
func WithFormTTL(ttl time.Duration) Option {
	return func(m *FormManager) {
		if ttl > 0 {
			m.formTTL = ttl
		}
	}
}

// FormManager implements Manager over a repository, record stores and the
// quiz catalog
type FormManager struct {
	repo    storage.Repository
	records *recordstore.Registry
	catalog *catalog.Loader
	now     func() time.Time
	formTTL time.Duration
}

// NewManager creates a new FormManager
func NewManager(repo storage.Repository, records *recordstore.Registry, loader *catalog.Loader, opts ...Option) *FormManager {
	m := &FormManager{
		repo:    repo,
		records: records,
		catalog: loader,
		now:     time.Now,
		formTTL: DefaultFormTTL,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ping checks the repository and every record store
func (m *FormManager) Ping(ctx context.Context) error {
	if err := m.repo.Ping(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	for name, err := range m.records.HealthCheckAll(ctx) {
		if err != nil {
			return fmt.Errorf("record store %s unhealthy: %w", name, err)
		}
	}
	return nil
}

// Evaluate previews a rating map
func (m *FormManager) Evaluate(ratings assessment.RatingMap) models.EvaluateResponse {
	return models.EvaluateResponse{
		Evaluation:      assessment.Evaluate(ratings),
		SelectedTopics:  assessment.SelectedTopics(ratings),
		TopicDifficulty: assessment.TopicDifficultyMap(ratings),
		CanSubmit:       !ratings.AllZero(),
	}
}

// Submit handles a one-shot submission
func (m *FormManager) Submit(ctx context.Context, req models.SubmitRequest) (*models.Submission, error) {
	if req.UserID == "" {
		return nil, ErrOwnerMissing
	}
	return m.submit(ctx, req.UserID, req.Ratings, req.QuizID, req.QuizTitle)
}

// submit builds the record, persists it and prepares navigation. Nothing is
// written when the ratings are all zero.
func (m *FormManager) submit(ctx context.Context, owner string, ratings assessment.RatingMap, quizID, quizTitle string) (*models.Submission, error) {
	rec, err := assessment.BuildAssessment(ratings, m.now())
	if err != nil {
		return nil, err
	}
	return m.persist(ctx, owner, rec, quizID, quizTitle)
}

// persist hands a built record to the record stores
func (m *FormManager) persist(ctx context.Context, owner string, rec *assessment.Record, quizID, quizTitle string) (*models.Submission, error) {
	if err := m.records.Put(ctx, owner, rec); err != nil {
		return nil, fmt.Errorf("failed to persist assessment: %w", err)
	}

	slog.Info("assessment submitted",
		"user", owner,
		"level", rec.Level,
		"average", rec.AverageRating,
		"topics", len(rec.SelectedTopics),
	)

	return &models.Submission{
		Record:     rec,
		Navigation: Navigate(rec, quizID, quizTitle),
		Quizzes:    catalog.Filter(m.catalog.ListQuizzes(), rec),
	}, nil
}

// Latest returns the owner's record
func (m *FormManager) Latest(ctx context.Context, owner string) (*assessment.Record, error) {
	if owner == "" {
		return nil, ErrOwnerMissing
	}
	rec, err := m.records.Latest(ctx, owner)
	if err != nil {
		return nil, fmt.Errorf("failed to read assessment: %w", err)
	}
	return rec, nil
}

// Quizzes lists quizzes. With filter set and a stored record for owner, only
// matching quizzes are returned; without a record the full list is returned.
func (m *FormManager) Quizzes(ctx context.Context, owner string, filter bool) ([]*models.Quiz, *assessment.Record, error) {
	all := m.catalog.ListQuizzes()
	if !filter {
		return all, nil, nil
	}

	rec, err := m.Latest(ctx, owner)
	if err != nil {
		return nil, nil, err
	}
	if rec == nil {
		return all, nil, nil
	}
	return catalog.Filter(all, rec), rec, nil
}

// --- Forms ---

// CreateForm opens a new form with every topic at 0
func (m *FormManager) CreateForm(ctx context.Context, req models.CreateFormRequest, createdBy string) (*models.Form, error) {
	if req.UserID == "" {
		return nil, ErrOwnerMissing
	}

	token, err := models.GenerateFormToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate token: %w", err)
	}

	ttl := m.formTTL
	if req.TTL > 0 {
		ttl = time.Duration(req.TTL) * time.Second
	}

	now := m.now().UTC()
	form := &models.Form{
		ID:        uuid.New().String(),
		Token:     token,
		UserID:    req.UserID,
		Status:    models.FormOpen,
		QuizID:    req.QuizID,
		QuizTitle: req.QuizTitle,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
		CreatedBy: createdBy,
	}

	if err := m.repo.CreateForm(ctx, form); err != nil {
		return nil, fmt.Errorf("failed to create form: %w", err)
	}

	slog.Info("form created", "id", form.ID, "user", form.UserID, "expires_at", form.ExpiresAt)
	return form, nil
}

// GetForm returns a form by token
func (m *FormManager) GetForm(ctx context.Context, token string) (*models.Form, error) {
	form, err := m.repo.GetFormByToken(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("failed to get form: %w", err)
	}
	if form == nil {
		return nil, ErrFormNotFound
	}
	return form, nil
}

// OpenForm returns a form that still accepts changes
func (m *FormManager) OpenForm(ctx context.Context, token string) (*models.Form, error) {
	form, err := m.GetForm(ctx, token)
	if err != nil {
		return nil, err
	}
	if !form.IsOpen(m.now()) {
		return nil, ErrFormClosed
	}
	return form, nil
}

// closedOrMissing explains why a conditional form update matched nothing
func (m *FormManager) closedOrMissing(ctx context.Context, token string) error {
	if _, err := m.GetForm(ctx, token); err != nil {
		return err
	}
	return ErrFormClosed
}

// SetRating applies one topic/rating change. The repository updates the
// single topic in place, so concurrent changes to other topics survive.
func (m *FormManager) SetRating(ctx context.Context, token string, topic assessment.Topic, rating assessment.Rating) (*models.Form, error) {
	var check assessment.RatingMap
	if err := check.Set(topic, rating); err != nil {
		return nil, err
	}

	form, err := m.repo.SetFormRating(ctx, token, topic, rating, m.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to update form: %w", err)
	}
	if form == nil {
		return nil, m.closedOrMissing(ctx, token)
	}

	slog.Debug("form rating set", "id", form.ID, "topic", topic, "rating", rating)
	return form, nil
}

// SubmitForm submits an open form. An all-zero form is rejected with
// assessment.ErrNoTopicRated and stays open. The form is claimed before the
// record is built, so concurrent submits produce a single record.
func (m *FormManager) SubmitForm(ctx context.Context, token string) (*models.Submission, error) {
	form, err := m.OpenForm(ctx, token)
	if err != nil {
		return nil, err
	}
	if form.Ratings.AllZero() {
		return nil, assessment.ErrNoTopicRated
	}

	claimed, err := m.repo.UpdateFormStatusIfOpen(ctx, form.ID, models.FormSubmitted, m.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("failed to claim form: %w", err)
	}
	if claimed == nil {
		return nil, ErrFormClosed
	}

	// ratings may have changed between the read above and the claim
	rec, err := assessment.BuildAssessment(claimed.Ratings, m.now())
	if err != nil {
		m.reopen(ctx, claimed)
		return nil, err
	}

	sub, err := m.persist(ctx, claimed.UserID, rec, claimed.QuizID, claimed.QuizTitle)
	if err != nil {
		m.reopen(ctx, claimed)
		return nil, err
	}
	return sub, nil
}

// reopen returns a claimed form to the open state after a failed submission
func (m *FormManager) reopen(ctx context.Context, f *models.Form) {
	f.Status = models.FormOpen
	f.SubmittedAt = nil
	f.UpdatedAt = m.now().UTC()
	if err := m.repo.UpdateForm(ctx, f); err != nil {
		slog.Error("failed to reopen form", "error", err, "id", f.ID)
	}
}

// ListForms returns forms matching filters
func (m *FormManager) ListForms(ctx context.Context, filters storage.FormFilters) ([]*models.Form, error) {
	forms, err := m.repo.ListForms(ctx, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list forms: %w", err)
	}
	return forms, nil
}

// GetExpired returns open forms past their TTL
func (m *FormManager) GetExpired(ctx context.Context) ([]*models.Form, error) {
	forms, err := m.repo.GetExpiredForms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get expired forms: %w", err)
	}
	return forms, nil
}

// ExpireForm closes an open form without building a record. A form that was
// submitted meanwhile is left alone.
func (m *FormManager) ExpireForm(ctx context.Context, f *models.Form) error {
	if f.IsTerminal() {
		return nil
	}
	expired, err := m.repo.UpdateFormStatusIfOpen(ctx, f.ID, models.FormExpired, m.now().UTC())
	if err != nil {
		return fmt.Errorf("failed to expire form: %w", err)
	}
	if expired != nil {
		*f = *expired
	}
	return nil
}

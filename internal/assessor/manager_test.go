package assessor

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/skill-assessment/internal/assessment"
	"github.com/terra-clan/skill-assessment/internal/catalog"
	"github.com/terra-clan/skill-assessment/internal/models"
	"github.com/terra-clan/skill-assessment/internal/recordstore"
	"github.com/terra-clan/skill-assessment/internal/storage"
)

// memRepo is an in-memory storage.Repository
type memRepo struct {
	mu      sync.Mutex
	forms   map[string]*models.Form
	updates int
	onRead  func()
}

func newMemRepo() *memRepo {
	return &memRepo{forms: make(map[string]*models.Form)}
}

func (r *memRepo) CreateForm(ctx context.Context, f *models.Form) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *f
	r.forms[f.Token] = &cp
	return nil
}

func (r *memRepo) GetFormByToken(ctx context.Context, token string) (*models.Form, error) {
	r.mu.Lock()
	f, ok := r.forms[token]
	hook := r.onRead
	if !ok {
		r.mu.Unlock()
		return nil, nil
	}
	cp := *f
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	return &cp, nil
}

func (r *memRepo) UpdateForm(ctx context.Context, f *models.Form) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.forms[f.Token]; !ok {
		return storage.ErrNotFound
	}
	cp := *f
	r.forms[f.Token] = &cp
	r.updates++
	return nil
}

func (r *memRepo) SetFormRating(ctx context.Context, token string, topic assessment.Topic, rating assessment.Rating, at time.Time) (*models.Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.forms[token]
	if !ok || f.Status != models.FormOpen || at.After(f.ExpiresAt) {
		return nil, nil
	}
	if err := f.Ratings.Set(topic, rating); err != nil {
		return nil, err
	}
	f.UpdatedAt = at
	cp := *f
	return &cp, nil
}

func (r *memRepo) UpdateFormStatusIfOpen(ctx context.Context, id string, status models.FormStatus, at time.Time) (*models.Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.forms {
		if f.ID != id {
			continue
		}
		if f.Status != models.FormOpen {
			return nil, nil
		}
		f.Status = status
		f.UpdatedAt = at
		if status == models.FormSubmitted {
			submitted := at
			f.SubmittedAt = &submitted
		}
		cp := *f
		return &cp, nil
	}
	return nil, nil
}

func (r *memRepo) ListForms(ctx context.Context, filters storage.FormFilters) ([]*models.Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Form
	for _, f := range r.forms {
		if filters.UserID != "" && f.UserID != filters.UserID {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

func (r *memRepo) GetExpiredForms(ctx context.Context) ([]*models.Form, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*models.Form
	for _, f := range r.forms {
		if f.Status == models.FormOpen && time.Now().After(f.ExpiresAt) {
			cp := *f
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *memRepo) GetClientByApiKey(ctx context.Context, apiKey string) (*models.ApiClient, error) {
	return nil, nil
}

func (r *memRepo) UpdateClientLastUsed(ctx context.Context, apiKey string) error { return nil }
func (r *memRepo) Ping(ctx context.Context) error                                { return nil }
func (r *memRepo) Close() error                                                  { return nil }

var testNow = time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC)

func newTestManager(t *testing.T) (*FormManager, *memRepo, *recordstore.MemoryStore) {
	t.Helper()

	loader := catalog.NewLoader()
	for _, q := range []*models.Quiz{
		{ID: "html/tags", Topic: assessment.HTML, Difficulty: assessment.DifficultyEasy},
		{ID: "html/forms", Topic: assessment.HTML, Difficulty: assessment.DifficultyMedium},
		{ID: "dsa/dp", Topic: assessment.DSA, Difficulty: assessment.DifficultyHard},
		{ID: "react/hooks", Topic: assessment.React, Difficulty: assessment.DifficultyMedium},
	} {
		loader.Add(q)
	}

	store := recordstore.NewMemoryStore()
	records := recordstore.NewRegistry()
	records.Register("memory", store)

	repo := newMemRepo()
	m := NewManager(repo, records, loader, WithClock(func() time.Time { return testNow }))
	return m, repo, store
}

func TestSubmitPersistsAndNavigates(t *testing.T) {
	m, _, store := newTestManager(t)
	ctx := context.Background()

	sub, err := m.Submit(ctx, models.SubmitRequest{
		UserID:    "u1",
		Ratings:   assessment.RatingMap{assessment.HTML: 3, assessment.DSA: 5},
		QuizID:    "dsa/dp",
		QuizTitle: "Dynamic Programming",
	})
	require.NoError(t, err)

	assert.Equal(t, assessment.Beginner, sub.Record.Level)
	assert.Equal(t, 1.3, sub.Record.AverageRating)
	assert.Equal(t, "2026-10-19T12:00:00.000Z", sub.Record.Timestamp)

	nav := sub.Navigation
	assert.Equal(t, "/quizzes", nav.Path)
	assert.True(t, nav.State.FromAssessment)
	assert.True(t, nav.State.FilterByTopics)
	assert.Equal(t, "dsa/dp", nav.State.QuizID)
	assert.Equal(t, "Dynamic Programming", nav.State.QuizTitle)
	assert.Same(t, sub.Record, nav.State.Assessment)

	ids := []string{}
	for _, q := range sub.Quizzes {
		ids = append(ids, q.ID)
	}
	assert.Equal(t, []string{"html/forms", "dsa/dp"}, ids)

	stored, err := store.Latest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, sub.Record, stored)
}

func TestSubmitAllZeroIsBlocked(t *testing.T) {
	m, _, store := newTestManager(t)
	ctx := context.Background()

	sub, err := m.Submit(ctx, models.SubmitRequest{UserID: "u1"})
	assert.ErrorIs(t, err, assessment.ErrNoTopicRated)
	assert.Nil(t, sub)

	stored, _ := store.Latest(ctx, "u1")
	assert.Nil(t, stored, "nothing persisted")

	_, err = m.Submit(ctx, models.SubmitRequest{Ratings: assessment.RatingMap{1}})
	assert.ErrorIs(t, err, ErrOwnerMissing)
}

func TestSubmitReplacesPreviousRecord(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.Submit(ctx, models.SubmitRequest{UserID: "u1", Ratings: assessment.RatingMap{assessment.HTML: 1}})
	require.NoError(t, err)
	_, err = m.Submit(ctx, models.SubmitRequest{UserID: "u1", Ratings: assessment.RatingMap{4, 4, 4, 4, 4, 4}})
	require.NoError(t, err)

	latest, err := m.Latest(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, assessment.Advanced, latest.Level)
}

func TestFormWorkflow(t *testing.T) {
	m, repo, store := newTestManager(t)
	ctx := context.Background()

	form, err := m.CreateForm(ctx, models.CreateFormRequest{UserID: "u2", QuizID: "react/hooks"}, "frontend")
	require.NoError(t, err)
	assert.Len(t, form.Token, 48)
	assert.Equal(t, models.FormOpen, form.Status)
	assert.Equal(t, testNow.Add(DefaultFormTTL), form.ExpiresAt)
	assert.Equal(t, "frontend", form.CreatedBy)

	// submitting an untouched form is blocked and leaves it open
	_, err = m.SubmitForm(ctx, form.Token)
	assert.ErrorIs(t, err, assessment.ErrNoTopicRated)
	unchanged, err := m.GetForm(ctx, form.Token)
	require.NoError(t, err)
	assert.Equal(t, models.FormOpen, unchanged.Status)
	assert.Equal(t, 0, repo.updates)

	_, err = m.SetRating(ctx, form.Token, assessment.React, 9)
	assert.ErrorIs(t, err, assessment.ErrInvalidRating)

	updated, err := m.SetRating(ctx, form.Token, assessment.React, 3)
	require.NoError(t, err)
	assert.Equal(t, assessment.Rating(3), updated.Ratings.Get(assessment.React))

	_, err = m.SetRating(ctx, form.Token, assessment.React, 0)
	require.NoError(t, err)
	_, err = m.SetRating(ctx, form.Token, assessment.React, 3)
	require.NoError(t, err)

	sub, err := m.SubmitForm(ctx, form.Token)
	require.NoError(t, err)
	assert.Equal(t, []assessment.Topic{assessment.React}, sub.Record.SelectedTopics)
	assert.Equal(t, "react/hooks", sub.Navigation.State.QuizID)

	stored, _ := store.Latest(ctx, "u2")
	assert.Equal(t, sub.Record, stored)

	closed, err := m.GetForm(ctx, form.Token)
	require.NoError(t, err)
	assert.Equal(t, models.FormSubmitted, closed.Status)
	require.NotNil(t, closed.SubmittedAt)

	_, err = m.SetRating(ctx, form.Token, assessment.HTML, 1)
	assert.ErrorIs(t, err, ErrFormClosed)
	_, err = m.SubmitForm(ctx, form.Token)
	assert.ErrorIs(t, err, ErrFormClosed)
}

func TestFormNotFoundAndExpiry(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	_, err := m.GetForm(ctx, "missing")
	assert.ErrorIs(t, err, ErrFormNotFound)

	form, err := m.CreateForm(ctx, models.CreateFormRequest{UserID: "u3", TTL: 60}, "")
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(time.Minute), form.ExpiresAt)

	later := NewManager(m.repo, m.records, m.catalog, WithClock(func() time.Time { return testNow.Add(2 * time.Minute) }))
	_, err = later.SetRating(ctx, form.Token, assessment.CSS, 2)
	assert.ErrorIs(t, err, ErrFormClosed)

	require.NoError(t, later.ExpireForm(ctx, form))
	expired, _ := m.GetForm(ctx, form.Token)
	assert.Equal(t, models.FormExpired, expired.Status)

	// expiring twice is a no-op
	require.NoError(t, later.ExpireForm(ctx, expired))
}

func TestWithFormTTL(t *testing.T) {
	m, _, _ := newTestManager(t)
	short := NewManager(m.repo, m.records, m.catalog,
		WithClock(func() time.Time { return testNow }),
		WithFormTTL(15*time.Minute),
	)

	form, err := short.CreateForm(context.Background(), models.CreateFormRequest{UserID: "u5"}, "")
	require.NoError(t, err)
	assert.Equal(t, testNow.Add(15*time.Minute), form.ExpiresAt)
}

func TestQuizzesFilter(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	all, rec, err := m.Quizzes(ctx, "nobody", true)
	require.NoError(t, err)
	assert.Nil(t, rec)
	assert.Len(t, all, 4)

	_, err = m.Submit(ctx, models.SubmitRequest{UserID: "u4", Ratings: assessment.RatingMap{assessment.HTML: 1}})
	require.NoError(t, err)

	filtered, rec, err := m.Quizzes(ctx, "u4", true)
	require.NoError(t, err)
	require.NotNil(t, rec)
	require.Len(t, filtered, 1)
	assert.Equal(t, "html/tags", filtered[0].ID)

	unfiltered, _, err := m.Quizzes(ctx, "u4", false)
	require.NoError(t, err)
	assert.Len(t, unfiltered, 4)
}

func TestEvaluatePreview(t *testing.T) {
	m, _, _ := newTestManager(t)

	preview := m.Evaluate(assessment.RatingMap{3, 3, 2, 2, 3, 3})
	assert.Equal(t, assessment.Intermediate, preview.Level)
	assert.Equal(t, 2.7, preview.AverageRating)
	assert.True(t, preview.CanSubmit)
	assert.Len(t, preview.SelectedTopics, 6)

	empty := m.Evaluate(assessment.RatingMap{})
	assert.False(t, empty.CanSubmit)
	assert.Equal(t, assessment.Beginner, empty.Level)
	assert.Empty(t, empty.TopicDifficulty)
}

func TestPing(t *testing.T) {
	m, _, _ := newTestManager(t)
	assert.NoError(t, m.Ping(context.Background()))
}

// readBarrier holds the first n readers until all of them have read
func readBarrier(n int32) func() {
	release := make(chan struct{})
	var arrived int32
	return func() {
		if atomic.AddInt32(&arrived, 1) == n {
			close(release)
		}
		<-release
	}
}

func TestConcurrentSetRatingKeepsEveryTopic(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	form, err := m.CreateForm(ctx, models.CreateFormRequest{UserID: "u6"}, "")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i, topic := range assessment.Topics() {
		wg.Add(1)
		go func(topic assessment.Topic, rating assessment.Rating) {
			defer wg.Done()
			_, err := m.SetRating(ctx, form.Token, topic, rating)
			assert.NoError(t, err)
		}(topic, assessment.Rating(i%5+1))
	}
	wg.Wait()

	got, err := m.GetForm(ctx, form.Token)
	require.NoError(t, err)
	assert.Equal(t, assessment.RatingMap{1, 2, 3, 4, 5, 1}, got.Ratings)
}

func TestConcurrentSubmitBuildsOneRecord(t *testing.T) {
	m, repo, store := newTestManager(t)
	ctx := context.Background()

	form, err := m.CreateForm(ctx, models.CreateFormRequest{UserID: "u7"}, "")
	require.NoError(t, err)
	_, err = m.SetRating(ctx, form.Token, assessment.CSS, 4)
	require.NoError(t, err)

	// both submits read the open form before either claims it
	repo.mu.Lock()
	repo.onRead = readBarrier(2)
	repo.mu.Unlock()

	var (
		wg        sync.WaitGroup
		succeeded int32
		errs      = make(chan error, 2)
	)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.SubmitForm(ctx, form.Token); err != nil {
				errs <- err
				return
			}
			atomic.AddInt32(&succeeded, 1)
		}()
	}
	wg.Wait()
	close(errs)

	assert.Equal(t, int32(1), succeeded)
	for err := range errs {
		assert.ErrorIs(t, err, ErrFormClosed)
	}

	stored, _ := store.Latest(ctx, "u7")
	require.NotNil(t, stored)
	assert.Equal(t, []assessment.Topic{assessment.CSS}, stored.SelectedTopics)
}

// brokenStore rejects every write
type brokenStore struct {
	recordstore.BaseStore
}

func (brokenStore) Put(ctx context.Context, owner string, rec *assessment.Record) error {
	return errors.New("database unavailable")
}

func (brokenStore) Latest(ctx context.Context, owner string) (*assessment.Record, error) {
	return nil, nil
}

func (brokenStore) HealthCheck(ctx context.Context) error { return nil }

func TestSubmitFormReopensWhenPersistFails(t *testing.T) {
	m, repo, _ := newTestManager(t)
	ctx := context.Background()

	records := recordstore.NewRegistry()
	records.Register("postgres", &brokenStore{})
	failing := NewManager(repo, records, m.catalog, WithClock(func() time.Time { return testNow }))

	form, err := failing.CreateForm(ctx, models.CreateFormRequest{UserID: "u8"}, "")
	require.NoError(t, err)
	_, err = failing.SetRating(ctx, form.Token, assessment.HTML, 2)
	require.NoError(t, err)

	_, err = failing.SubmitForm(ctx, form.Token)
	require.Error(t, err)

	reopened, err := failing.GetForm(ctx, form.Token)
	require.NoError(t, err)
	assert.Equal(t, models.FormOpen, reopened.Status)
	assert.Nil(t, reopened.SubmittedAt)
	assert.Equal(t, assessment.Rating(2), reopened.Ratings.Get(assessment.HTML))
}

func TestOpenFormUsesManagerClock(t *testing.T) {
	m, _, _ := newTestManager(t)
	ctx := context.Background()

	form, err := m.CreateForm(ctx, models.CreateFormRequest{UserID: "u9", TTL: 60}, "")
	require.NoError(t, err)

	open, err := m.OpenForm(ctx, form.Token)
	require.NoError(t, err)
	assert.Equal(t, form.ID, open.ID)

	later := NewManager(m.repo, m.records, m.catalog, WithClock(func() time.Time { return testNow.Add(time.Hour) }))
	_, err = later.OpenForm(ctx, form.Token)
	assert.ErrorIs(t, err, ErrFormClosed)

	_, err = m.OpenForm(ctx, "missing")
	assert.ErrorIs(t, err, ErrFormNotFound)

	_, err = later.SetRating(ctx, "missing", assessment.CSS, 1)
	assert.ErrorIs(t, err, ErrFormNotFound)
}

package client

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/skill-assessment/internal/assessment"
	"github.com/terra-clan/skill-assessment/internal/models"
)

var testTime = time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)

func writeEnvelope(w http.ResponseWriter, status int, data interface{}, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	body := map[string]interface{}{"success": status < 300}
	if data != nil {
		body["data"] = data
	}
	if code != "" {
		body["error"] = map[string]string{"code": code, "message": message}
	}
	json.NewEncoder(w).Encode(body)
}

func TestSubmitSendsRatingsAndKey(t *testing.T) {
	var gotAuth string
	var gotBody models.SubmitRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v1/assessments", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		gotAuth = r.Header.Get("Authorization")
		raw, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(raw, &gotBody))

		rec, err := assessment.BuildAssessment(gotBody.Ratings, testTime)
		require.NoError(t, err)
		writeEnvelope(w, http.StatusCreated, models.Submission{Record: rec}, "", "")
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test")
	sub, err := c.Submit(context.Background(), models.SubmitRequest{
		UserID:  "u1",
		Ratings: assessment.RatingMap{assessment.CSS: 4},
	})
	require.NoError(t, err)

	assert.Equal(t, "Bearer sk_test", gotAuth)
	assert.Equal(t, "u1", gotBody.UserID)
	assert.Equal(t, assessment.Rating(4), gotBody.Ratings.Get(assessment.CSS))
	assert.Equal(t, 0.7, sub.Record.AverageRating)
	assert.Equal(t, []assessment.Topic{assessment.CSS}, sub.Record.SelectedTopics)
}

func TestSubmitNoTopicRated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeEnvelope(w, http.StatusUnprocessableEntity, nil, "no_topic_rated", assessment.NoTopicRatedMessage)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").Submit(context.Background(), models.SubmitRequest{UserID: "u1"})
	require.Error(t, err)
	assert.True(t, IsNoTopicRated(err))

	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnprocessableEntity, apiErr.StatusCode)
	assert.Equal(t, assessment.NoTopicRatedMessage, apiErr.Message)
}

func TestLatest(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("user_id") {
		case "known":
			rec, _ := assessment.BuildAssessment(assessment.RatingMap{5, 5, 5, 5, 5, 5}, testTime)
			writeEnvelope(w, http.StatusOK, rec, "", "")
		case "broken":
			writeEnvelope(w, http.StatusInternalServerError, nil, "internal_error", "failed to get assessment")
		default:
			writeEnvelope(w, http.StatusNotFound, nil, "no_assessment", "no assessment recorded for user")
		}
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "sk_test")
	ctx := context.Background()

	rec, err := c.Latest(ctx, "known")
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, assessment.Advanced, rec.Level)

	rec, err = c.Latest(ctx, "nobody")
	require.NoError(t, err)
	assert.Nil(t, rec)

	_, err = c.Latest(ctx, "broken")
	assert.Error(t, err)
	assert.False(t, IsNoTopicRated(err))
}

func TestListQuizzesQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "u9", r.URL.Query().Get("user_id"))
		assert.Equal(t, "true", r.URL.Query().Get("filter_by_topics"))
		writeEnvelope(w, http.StatusOK, QuizList{
			Quizzes:  []*models.Quiz{{ID: "css/flexbox", Topic: assessment.CSS, Difficulty: assessment.DifficultyHard}},
			Total:    1,
			Filtered: true,
		}, "", "")
	}))
	defer srv.Close()

	list, err := NewClient(srv.URL, "").ListQuizzes(context.Background(), "u9", true)
	require.NoError(t, err)
	assert.True(t, list.Filtered)
	require.Len(t, list.Quizzes, 1)
	assert.Equal(t, assessment.DifficultyHard, list.Quizzes[0].Difficulty)
}

func TestSetRatingPath(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/v1/forms/tok123/ratings/JavaScript", r.URL.Path)
		writeEnvelope(w, http.StatusOK, models.FormState{Form: &models.Form{Token: "tok123"}}, "", "")
	}))
	defer srv.Close()

	state, err := NewClient(srv.URL, "").SetRating(context.Background(), "tok123", assessment.JavaScript, 2)
	require.NoError(t, err)
	assert.Equal(t, "tok123", state.Form.Token)
}

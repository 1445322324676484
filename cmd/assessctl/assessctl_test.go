package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/terra-clan/skill-assessment/internal/assessment"
	"github.com/terra-clan/skill-assessment/internal/models"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestTopics(t *testing.T) {
	out, err := run(t, "topics")
	require.NoError(t, err)
	assert.Contains(t, out, "JavaScript")
	assert.Contains(t, out, "--dsa")
}

func TestEvaluateOffline(t *testing.T) {
	out, err := run(t, "evaluate", "--html", "3", "--dsa", "5", "--json")
	require.NoError(t, err)

	var rec assessment.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, assessment.Beginner, rec.Level)
	assert.Equal(t, 1.3, rec.AverageRating)
	assert.Equal(t, []assessment.Topic{assessment.HTML, assessment.DSA}, rec.SelectedTopics)
	assert.Equal(t, assessment.DifficultyHard, rec.DifficultyOf(assessment.DSA))
}

func TestEvaluateNothingRated(t *testing.T) {
	out, err := run(t, "evaluate")
	require.NoError(t, err)
	assert.Contains(t, out, "Beginner")
	assert.Contains(t, out, assessment.NoTopicRatedMessage)
}

func TestEvaluateRejectsOutOfRange(t *testing.T) {
	_, err := run(t, "evaluate", "--css", "6")
	assert.ErrorIs(t, err, assessment.ErrInvalidRating)
}

func TestEvaluateWithCatalog(t *testing.T) {
	out, err := run(t, "evaluate", "--html", "3", "--catalog", "../../quizzes")
	require.NoError(t, err)
	assert.Contains(t, out, "html/forms-and-validation")
	assert.NotContains(t, out, "html/semantic-tags")
}

func TestSubmitAndLatestRemote(t *testing.T) {
	var stored *assessment.Record

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/api/v1/assessments":
			var req models.SubmitRequest
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			rec, err := assessment.BuildAssessment(req.Ratings, time.Now())
			if err != nil {
				w.WriteHeader(http.StatusUnprocessableEntity)
				json.NewEncoder(w).Encode(map[string]interface{}{
					"success": false,
					"error":   map[string]string{"code": "no_topic_rated", "message": assessment.NoTopicRatedMessage},
				})
				return
			}
			stored = rec
			w.WriteHeader(http.StatusCreated)
			json.NewEncoder(w).Encode(map[string]interface{}{
				"success": true,
				"data":    models.Submission{Record: rec, Navigation: models.Navigation{Path: models.QuizListPath}},
			})
		case "/api/v1/assessments/latest":
			json.NewEncoder(w).Encode(map[string]interface{}{"success": true, "data": stored})
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer srv.Close()

	_, err := run(t, "submit", "--server", srv.URL)
	assert.ErrorIs(t, err, errUserRequired)

	_, err = run(t, "submit", "--server", srv.URL, "--user", "u1")
	require.Error(t, err)
	assert.Equal(t, assessment.NoTopicRatedMessage, err.Error())

	out, err := run(t, "submit", "--server", srv.URL, "--user", "u1", "--react", "4")
	require.NoError(t, err)
	assert.Contains(t, out, "Next: /quizzes")

	out, err = run(t, "latest", "--server", srv.URL, "--user", "u1", "--json")
	require.NoError(t, err)
	var rec assessment.Record
	require.NoError(t, json.Unmarshal([]byte(out), &rec))
	assert.Equal(t, []assessment.Topic{assessment.React}, rec.SelectedTopics)
}

package assessment

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 19, 10, 0, 0, 0, time.UTC)

func TestBuildAssessmentRejectsAllZero(t *testing.T) {
	rec, err := BuildAssessment(RatingMap{}, fixedNow)
	assert.ErrorIs(t, err, ErrNoTopicRated)
	assert.Nil(t, rec)
}

func TestBuildAssessmentJSONShape(t *testing.T) {
	m := RatingMap{HTML: 3, DSA: 5}

	rec, err := BuildAssessment(m, fixedNow)
	require.NoError(t, err)

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	want := `{"ratings":{"HTML":3,"CSS":0,"JavaScript":0,"React":0,"Backend":0,"DSA":5},` +
		`"level":"Beginner","averageRating":1.3,"selectedTopics":["HTML","DSA"],` +
		`"topicDifficulty":{"HTML":"Medium","DSA":"Hard"},"timestamp":"2026-10-19T10:00:00.000Z"}`
	assert.Equal(t, want, string(data))
}

func TestBuildAssessmentIsDeterministic(t *testing.T) {
	m := RatingMap{5, 4, 3, 2, 1, 0}

	first, err := BuildAssessment(m, fixedNow)
	require.NoError(t, err)
	second, err := BuildAssessment(m, fixedNow)
	require.NoError(t, err)

	a, _ := json.Marshal(first)
	b, _ := json.Marshal(second)
	assert.Equal(t, string(a), string(b))

	later, err := BuildAssessment(m, fixedNow.Add(time.Minute))
	require.NoError(t, err)
	assert.NotEqual(t, first.Timestamp, later.Timestamp)
	later.Timestamp = first.Timestamp
	assert.Equal(t, first, later)
}

func TestRecordRoundTrip(t *testing.T) {
	rec, err := BuildAssessment(RatingMap{CSS: 2, React: 4}, fixedNow.In(time.FixedZone("CET", 3600)))
	require.NoError(t, err)
	assert.Equal(t, "2026-10-19T10:00:00.000Z", rec.Timestamp)

	data, err := json.Marshal(rec)
	require.NoError(t, err)

	var decoded Record
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *rec, decoded)

	ts, err := decoded.Time()
	require.NoError(t, err)
	assert.True(t, ts.Equal(fixedNow))
	assert.Equal(t, DifficultyHard, decoded.DifficultyOf(React))
	assert.Equal(t, DifficultyNone, decoded.DifficultyOf(HTML))
}

func TestRatingMapUnmarshal(t *testing.T) {
	var m RatingMap
	require.NoError(t, json.Unmarshal([]byte(`{"html":2,"Backend":5}`), &m))
	assert.Equal(t, RatingMap{HTML: 2, Backend: 5}, m)

	assert.ErrorIs(t, json.Unmarshal([]byte(`{"Go":2}`), &m), ErrUnknownTopic)
	assert.ErrorIs(t, json.Unmarshal([]byte(`{"CSS":9}`), &m), ErrInvalidRating)
	assert.Error(t, json.Unmarshal([]byte(`[1,2]`), &m))
	assert.Error(t, json.Unmarshal([]byte(`{"HTML":"high"}`), &m))
}

func TestRatingMapUnmarshalRejectsRepeatedTopic(t *testing.T) {
	var m RatingMap
	for _, body := range []string{
		`{"html":2,"HTML":5}`,
		`{"CSS":1,"CSS":1}`,
		`{"dsa":3,"React":1,"Dsa":4}`,
	} {
		err := json.Unmarshal([]byte(body), &m)
		assert.ErrorIs(t, err, ErrInvalidRating, body)
	}

	require.NoError(t, json.Unmarshal([]byte(`null`), &m))
	require.NoError(t, json.Unmarshal([]byte(`{}`), &m))
	assert.True(t, m.AllZero())
}

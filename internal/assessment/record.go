package assessment

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// TimestampLayout is ISO-8601 in UTC with millisecond precision
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// DifficultyMap labels selected topics with a difficulty
type DifficultyMap map[Topic]Difficulty

// Topics returns the keys in declaration order
func (d DifficultyMap) Topics() []Topic {
	keys := make([]Topic, 0, len(d))
	for _, t := range Topics() {
		if _, ok := d[t]; ok {
			keys = append(keys, t)
		}
	}
	return keys
}

// MarshalJSON writes keys in topic declaration order so equal maps encode
// to equal bytes
func (d DifficultyMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, t := range d.Topics() {
		if i > 0 {
			buf.WriteByte(',')
		}
		label, err := json.Marshal(d[t])
		if err != nil {
			return nil, err
		}
		fmt.Fprintf(&buf, "%q:", t.String())
		buf.Write(label)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler
func (d *DifficultyMap) UnmarshalJSON(data []byte) error {
	var raw map[string]Difficulty
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(DifficultyMap, len(raw))
	for name, label := range raw {
		t, err := ParseTopic(name)
		if err != nil {
			return err
		}
		out[t] = label
	}
	*d = out
	return nil
}

// Record is the immutable result of one submission
type Record struct {
	Ratings         RatingMap     `json:"ratings"`
	Level           SkillLevel    `json:"level"`
	AverageRating   float64       `json:"averageRating"`
	SelectedTopics  []Topic       `json:"selectedTopics"`
	TopicDifficulty DifficultyMap `json:"topicDifficulty"`
	Timestamp       string        `json:"timestamp"`
}

// BuildAssessment composes the full record. It fails with ErrNoTopicRated when
// every rating is zero and builds nothing in that case.
func BuildAssessment(m RatingMap, now time.Time) (*Record, error) {
	if m.AllZero() {
		return nil, ErrNoTopicRated
	}

	eval := Evaluate(m)
	return &Record{
		Ratings:         m,
		Level:           eval.Level,
		AverageRating:   eval.AverageRating,
		SelectedTopics:  SelectedTopics(m),
		TopicDifficulty: TopicDifficultyMap(m),
		Timestamp:       FormatTimestamp(now),
	}, nil
}

// FormatTimestamp renders t with TimestampLayout
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// Time parses the record timestamp
func (r *Record) Time() (time.Time, error) {
	return time.Parse(TimestampLayout, r.Timestamp)
}

// DifficultyOf returns the label for t, or DifficultyNone when t was not rated
func (r *Record) DifficultyOf(t Topic) Difficulty {
	if d, ok := r.TopicDifficulty[t]; ok {
		return d
	}
	return DifficultyNone
}

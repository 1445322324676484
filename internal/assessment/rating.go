package assessment

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
)

// Rating is a self-reported proficiency in [MinRating, MaxRating]. Zero means
// the topic was skipped.
type Rating int

const (
	MinRating Rating = 0
	MaxRating Rating = 5
)

// Valid reports whether r lies on the rating scale
func (r Rating) Valid() bool {
	return r >= MinRating && r <= MaxRating
}

// RatingMap holds one rating per topic. The zero value rates every topic 0.
type RatingMap [topicCount]Rating

// NewRatingMap builds a RatingMap from a sparse map, rejecting unknown topics
// and out-of-range ratings
func NewRatingMap(values map[Topic]Rating) (RatingMap, error) {
	var m RatingMap
	for t, r := range values {
		if err := m.Set(t, r); err != nil {
			return RatingMap{}, err
		}
	}
	return m, nil
}

// Get returns the rating for t
func (m *RatingMap) Get(t Topic) Rating {
	if !t.Valid() {
		return 0
	}
	return m[t]
}

// Set stores one topic/rating pair
func (m *RatingMap) Set(t Topic, r Rating) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownTopic, int(t))
	}
	if !r.Valid() {
		return fmt.Errorf("%w: %s=%d", ErrInvalidRating, t, int(r))
	}
	m[t] = r
	return nil
}

// AllZero reports whether no topic has been rated
func (m RatingMap) AllZero() bool {
	for _, r := range m {
		if r != 0 {
			return false
		}
	}
	return true
}

// Sum returns the total of all six ratings
func (m RatingMap) Sum() int {
	total := 0
	for _, r := range m {
		total += int(r)
	}
	return total
}

// MarshalJSON writes every topic in declaration order
func (m RatingMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, r := range m {
		if i > 0 {
			buf.WriteByte(',')
		}
		fmt.Fprintf(&buf, "%q:%d", topicNames[i], int(r))
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON accepts a topic→rating object. Missing topics default to 0.
// Topic names match case-insensitively and each topic may appear once.
func (m *RatingMap) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	if tok, err := dec.Token(); err != nil || tok != json.Delim('{') {
		return errRatingsShape
	}

	var out RatingMap
	var seen [topicCount]bool
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return fmt.Errorf("%w: %v", errRatingsShape, err)
		}
		name, _ := tok.(string)

		var v int
		if err := dec.Decode(&v); err != nil {
			return fmt.Errorf("%w: %v", errRatingsShape, err)
		}

		t, err := ParseTopic(name)
		if err != nil {
			return err
		}
		if seen[t] {
			return fmt.Errorf("%w: %s rated more than once", ErrInvalidRating, t)
		}
		seen[t] = true

		if err := out.Set(t, Rating(v)); err != nil {
			return err
		}
	}
	if _, err := dec.Token(); err != nil {
		return fmt.Errorf("%w: %v", errRatingsShape, err)
	}

	*m = out
	return nil
}

var errRatingsShape = errors.New("ratings must be an object of topic to integer")

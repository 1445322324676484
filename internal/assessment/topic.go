package assessment

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Topic is one of the fixed skill categories rated by the form
type Topic int

const (
	HTML Topic = iota
	CSS
	JavaScript
	React
	Backend
	DSA

	topicCount = iota
)

var topicNames = [topicCount]string{
	HTML:       "HTML",
	CSS:        "CSS",
	JavaScript: "JavaScript",
	React:      "React",
	Backend:    "Backend",
	DSA:        "DSA",
}

// Topics returns all topics in declaration order
func Topics() []Topic {
	out := make([]Topic, topicCount)
	for i := range out {
		out[i] = Topic(i)
	}
	return out
}

// Valid reports whether t is a declared topic
func (t Topic) Valid() bool {
	return t >= 0 && int(t) < topicCount
}

func (t Topic) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Topic(%d)", int(t))
	}
	return topicNames[t]
}

// ParseTopic resolves a topic name. Matching is case-insensitive so that
// URL path segments like "javascript" resolve.
func ParseTopic(name string) (Topic, error) {
	name = strings.TrimSpace(name)
	for i, n := range topicNames {
		if strings.EqualFold(n, name) {
			return Topic(i), nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownTopic, name)
}

// MarshalText implements encoding.TextMarshaler
func (t Topic) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTopic, int(t))
	}
	return []byte(topicNames[t]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (t *Topic) UnmarshalText(text []byte) error {
	parsed, err := ParseTopic(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalJSON implements json.Marshaler
func (t Topic) MarshalJSON() ([]byte, error) {
	text, err := t.MarshalText()
	if err != nil {
		return nil, err
	}
	return json.Marshal(string(text))
}

// UnmarshalJSON implements json.Unmarshaler
func (t *Topic) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("topic must be a string: %w", err)
	}
	return t.UnmarshalText([]byte(s))
}

// Package assessment derives skill levels and per-topic quiz difficulty from
// self-reported ratings. Every function here is pure.
package assessment

import (
	"errors"
	"math"
)

// Common errors
var (
	ErrNoTopicRated  = errors.New("no topic rated")
	ErrUnknownTopic  = errors.New("unknown topic")
	ErrInvalidRating = errors.New("rating out of range")
)

// NoTopicRatedMessage is shown to users when a submission has only zero ratings
const NoTopicRatedMessage = "Please rate at least one topic"

// Difficulty is the quiz difficulty implied by a rating
type Difficulty string

const (
	DifficultyNone   Difficulty = "None"
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// SkillLevel is the aggregate tier derived from the mean rating
type SkillLevel string

const (
	Beginner     SkillLevel = "Beginner"
	Intermediate SkillLevel = "Intermediate"
	Advanced     SkillLevel = "Advanced"
)

const (
	advancedThreshold     = 4.0
	intermediateThreshold = 2.5
)

// Evaluation is the aggregate part of an assessment
type Evaluation struct {
	Level         SkillLevel `json:"level"`
	AverageRating float64    `json:"averageRating"`
}

// DifficultyFor maps a rating to a difficulty label.
// Ratings outside the scale are not validated and yield DifficultyNone.
func DifficultyFor(r Rating) Difficulty {
	switch r {
	case 1, 2:
		return DifficultyEasy
	case 3:
		return DifficultyMedium
	case 4, 5:
		return DifficultyHard
	default:
		return DifficultyNone
	}
}

// SelectedTopics returns the rated topics in declaration order
func SelectedTopics(m RatingMap) []Topic {
	selected := make([]Topic, 0, topicCount)
	for _, t := range Topics() {
		if m[t] > 0 {
			selected = append(selected, t)
		}
	}
	return selected
}

// TopicDifficultyMap labels each selected topic. Unrated topics are absent.
func TopicDifficultyMap(m RatingMap) DifficultyMap {
	out := make(DifficultyMap)
	for _, t := range SelectedTopics(m) {
		out[t] = DifficultyFor(m[t])
	}
	return out
}

// Evaluate classifies the mean of all six ratings. Unrated topics count as 0,
// so a single 5 yields 0.8 and Beginner.
func Evaluate(m RatingMap) Evaluation {
	mean := float64(m.Sum()) / float64(topicCount)

	level := Beginner
	switch {
	case mean >= advancedThreshold:
		level = Advanced
	case mean >= intermediateThreshold:
		level = Intermediate
	}

	return Evaluation{
		Level:         level,
		AverageRating: roundOneDecimal(mean),
	}
}

func roundOneDecimal(v float64) float64 {
	return math.Round(v*10) / 10
}

package catalog

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/terra-clan/skill-assessment/internal/assessment"
	"github.com/terra-clan/skill-assessment/internal/models"
)

// Loader manages loading and caching of the quiz catalog
type Loader struct {
	mu      sync.RWMutex
	groups  map[string]*models.TopicGroup
	quizzes map[string]*models.Quiz
}

// NewLoader creates a new catalog loader
func NewLoader() *Loader {
	return &Loader{
		groups:  make(map[string]*models.TopicGroup),
		quizzes: make(map[string]*models.Quiz),
	}
}

// LoadFromDir scans dir for topic directories (those holding a topic.yaml)
// and loads their quizzes
func (l *Loader) LoadFromDir(dir string) error {
	slog.Info("loading quiz catalog", "dir", dir)

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read catalog directory: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		groupDir := filepath.Join(dir, entry.Name())
		if _, err := os.Stat(filepath.Join(groupDir, "topic.yaml")); os.IsNotExist(err) {
			continue // not a topic directory
		}

		group, err := l.loadGroup(entry.Name(), groupDir)
		if err != nil {
			slog.Warn("failed to load topic group", "dir", entry.Name(), "error", err)
			continue
		}

		l.mu.Lock()
		l.groups[group.ID] = group
		l.mu.Unlock()

		slog.Info("catalog topic loaded", "id", group.ID, "topic", group.Topic, "quizzes", group.QuizzesCount)
	}

	return nil
}

// Add programmatically registers a quiz
func (l *Loader) Add(quiz *models.Quiz) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.quizzes[quiz.ID] = quiz
}

// GetQuiz returns a quiz by ID (e.g. "javascript/closures")
func (l *Loader) GetQuiz(id string) *models.Quiz {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.quizzes[id]
}

// GetGroup returns a topic group by directory name
func (l *Loader) GetGroup(id string) *models.TopicGroup {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.groups[id]
}

// ListGroups returns topic groups in topic declaration order
func (l *Loader) ListGroups() []*models.TopicGroup {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.TopicGroup, 0, len(l.groups))
	for _, g := range l.groups {
		result = append(result, g)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Topic != result[j].Topic {
			return result[i].Topic < result[j].Topic
		}
		return result[i].ID < result[j].ID
	})
	return result
}

// ListQuizzes returns every quiz sorted by topic then ID
func (l *Loader) ListQuizzes() []*models.Quiz {
	l.mu.RLock()
	defer l.mu.RUnlock()

	result := make([]*models.Quiz, 0, len(l.quizzes))
	for _, q := range l.quizzes {
		result = append(result, q)
	}
	sortQuizzes(result)
	return result
}

// CountByTopic returns how many quizzes exist for t
func (l *Loader) CountByTopic(t assessment.Topic) int {
	l.mu.RLock()
	defer l.mu.RUnlock()

	n := 0
	for _, q := range l.quizzes {
		if q.Topic == t {
			n++
		}
	}
	return n
}

// loadGroup loads one topic directory and its quizzes/ subdirectory
func (l *Loader) loadGroup(id, dir string) (*models.TopicGroup, error) {
	data, err := os.ReadFile(filepath.Join(dir, "topic.yaml"))
	if err != nil {
		return nil, fmt.Errorf("failed to read topic.yaml: %w", err)
	}

	var tf topicFile
	if err := yaml.Unmarshal(data, &tf); err != nil {
		return nil, fmt.Errorf("failed to parse topic.yaml: %w", err)
	}

	topic, err := assessment.ParseTopic(tf.Topic)
	if err != nil {
		return nil, err
	}

	name := tf.Name
	if name == "" {
		name = topic.String()
	}

	group := &models.TopicGroup{
		ID:          id,
		Topic:       topic,
		Name:        name,
		Description: tf.Description,
	}

	quizzesDir := filepath.Join(dir, "quizzes")
	if _, err := os.Stat(quizzesDir); err == nil {
		quizzes, err := l.loadQuizzes(group, quizzesDir)
		if err != nil {
			slog.Warn("failed to load quizzes", "topic", id, "error", err)
		} else {
			group.QuizzesCount = len(quizzes)
		}
	}

	return group, nil
}

// loadQuizzes loads all quiz YAML files from a quizzes/ directory
func (l *Loader) loadQuizzes(group *models.TopicGroup, dir string) ([]*models.Quiz, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read quizzes dir: %w", err)
	}

	var quizzes []*models.Quiz

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		quiz, err := loadQuiz(group, filepath.Join(dir, entry.Name()))
		if err != nil {
			slog.Warn("failed to load quiz", "file", entry.Name(), "error", err)
			continue
		}

		l.Add(quiz)
		quizzes = append(quizzes, quiz)
	}

	return quizzes, nil
}

// loadQuiz loads a single quiz YAML file
func loadQuiz(group *models.TopicGroup, path string) (*models.Quiz, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read quiz file: %w", err)
	}

	var qf quizFile
	if err := yaml.Unmarshal(data, &qf); err != nil {
		return nil, fmt.Errorf("failed to parse quiz YAML: %w", err)
	}

	// Use code from YAML, fall back to filename without extension
	code := qf.Code
	if code == "" {
		base := filepath.Base(path)
		code = strings.TrimSuffix(base, filepath.Ext(base))
	}

	if qf.Title == "" {
		return nil, fmt.Errorf("quiz title is required")
	}

	difficulty, err := parseDifficulty(qf.Difficulty)
	if err != nil {
		return nil, err
	}

	var requiredLevel *assessment.SkillLevel
	if qf.RequiredLevel != "" {
		level, err := parseLevel(qf.RequiredLevel)
		if err != nil {
			return nil, err
		}
		requiredLevel = &level
	}

	return &models.Quiz{
		ID:            group.ID + "/" + code,
		Code:          code,
		Title:         qf.Title,
		Description:   qf.Description,
		Topic:         group.Topic,
		Difficulty:    difficulty,
		RequiredLevel: requiredLevel,
		TimeLimit:     qf.TimeLimit,
		Questions:     qf.Questions,
		GroupID:       group.ID,
	}, nil
}

func parseDifficulty(s string) (assessment.Difficulty, error) {
	for _, d := range []assessment.Difficulty{
		assessment.DifficultyEasy,
		assessment.DifficultyMedium,
		assessment.DifficultyHard,
	} {
		if strings.EqualFold(s, string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("invalid difficulty %q (want easy, medium or hard)", s)
}

func parseLevel(s string) (assessment.SkillLevel, error) {
	for _, lvl := range []assessment.SkillLevel{
		assessment.Beginner,
		assessment.Intermediate,
		assessment.Advanced,
	} {
		if strings.EqualFold(s, string(lvl)) {
			return lvl, nil
		}
	}
	return "", fmt.Errorf("invalid required_level %q", s)
}

// --- YAML file structs ---

// topicFile represents the YAML structure of a topic.yaml file
type topicFile struct {
	Topic       string `yaml:"topic"`
	Name        string `yaml:"name"`
	Description string `yaml:"description"`
}

// quizFile represents the YAML structure of a quiz file
type quizFile struct {
	Code          string `yaml:"code"`
	Title         string `yaml:"title"`
	Description   string `yaml:"description"`
	Difficulty    string `yaml:"difficulty"`
	RequiredLevel string `yaml:"required_level"`
	TimeLimit     int    `yaml:"time_limit"`
	Questions     int    `yaml:"questions"`
}

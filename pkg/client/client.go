package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/terra-clan/skill-assessment/internal/assessment"
	"github.com/terra-clan/skill-assessment/internal/models"
)

// Client is a Go SDK for the skill-assessment API
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// Option configures the client
type Option func(*Client)

// WithHTTPClient sets a custom HTTP client
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		c.httpClient = client
	}
}

// WithTimeout sets the client timeout
func WithTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// NewClient creates a new skill-assessment client
func NewClient(baseURL, apiKey string, opts ...Option) *Client {
	c := &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// APIError is returned for any non-2xx response
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d): %s - %s", e.StatusCode, e.Code, e.Message)
}

// IsNoTopicRated reports whether err is the server's all-zero submission error
func IsNoTopicRated(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == "no_topic_rated"
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *APIError       `json:"error"`
}

// QuizList is the result of ListQuizzes
type QuizList struct {
	Quizzes    []*models.Quiz     `json:"quizzes"`
	Total      int                `json:"total"`
	Filtered   bool               `json:"filtered"`
	Assessment *assessment.Record `json:"assessment,omitempty"`
}

// ListTopics returns the rateable topics
func (c *Client) ListTopics(ctx context.Context) ([]models.TopicInfo, error) {
	var data struct {
		Topics []models.TopicInfo `json:"topics"`
	}
	if err := c.call(ctx, http.MethodGet, "/api/v1/topics", nil, &data); err != nil {
		return nil, err
	}
	return data.Topics, nil
}

// Evaluate previews ratings without persisting them
func (c *Client) Evaluate(ctx context.Context, ratings assessment.RatingMap) (*models.EvaluateResponse, error) {
	var resp models.EvaluateResponse
	if err := c.call(ctx, http.MethodPost, "/api/v1/assessments/evaluate", models.EvaluateRequest{Ratings: ratings}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Submit stores an assessment for req.UserID
func (c *Client) Submit(ctx context.Context, req models.SubmitRequest) (*models.Submission, error) {
	var sub models.Submission
	if err := c.call(ctx, http.MethodPost, "/api/v1/assessments", req, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Latest returns the user's stored assessment, or nil when there is none
func (c *Client) Latest(ctx context.Context, userID string) (*assessment.Record, error) {
	var rec assessment.Record
	err := c.call(ctx, http.MethodGet, "/api/v1/assessments/latest?user_id="+url.QueryEscape(userID), nil, &rec)
	if err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Code == "no_assessment" {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// CreateForm opens an assessment form
func (c *Client) CreateForm(ctx context.Context, req models.CreateFormRequest) (*models.FormState, error) {
	var state models.FormState
	if err := c.call(ctx, http.MethodPost, "/api/v1/forms", req, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// GetForm returns a form by token
func (c *Client) GetForm(ctx context.Context, token string) (*models.FormState, error) {
	var state models.FormState
	if err := c.call(ctx, http.MethodGet, "/api/v1/forms/"+url.PathEscape(token), nil, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SetRating changes one topic on a form
func (c *Client) SetRating(ctx context.Context, token string, topic assessment.Topic, rating assessment.Rating) (*models.FormState, error) {
	path := fmt.Sprintf("/api/v1/forms/%s/ratings/%s", url.PathEscape(token), topic)

	var state models.FormState
	if err := c.call(ctx, http.MethodPut, path, models.SetRatingRequest{Rating: rating}, &state); err != nil {
		return nil, err
	}
	return &state, nil
}

// SubmitForm submits a form
func (c *Client) SubmitForm(ctx context.Context, token string) (*models.Submission, error) {
	var sub models.Submission
	if err := c.call(ctx, http.MethodPost, "/api/v1/forms/"+url.PathEscape(token)+"/submit", nil, &sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListQuizzes lists quizzes, optionally filtered by the user's assessment
func (c *Client) ListQuizzes(ctx context.Context, userID string, filterByTopics bool) (*QuizList, error) {
	q := url.Values{}
	if userID != "" {
		q.Set("user_id", userID)
	}
	if filterByTopics {
		q.Set("filter_by_topics", "true")
	}

	path := "/api/v1/quizzes"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}

	var list QuizList
	if err := c.call(ctx, http.MethodGet, path, nil, &list); err != nil {
		return nil, err
	}
	return &list, nil
}

// Health checks if the service is healthy
func (c *Client) Health(ctx context.Context) error {
	_, err := c.doRequest(ctx, http.MethodGet, "/health", nil)
	return err
}

// call sends in as JSON (when non-nil) and decodes the envelope data into out
func (c *Client) call(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("failed to marshal request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	resp, err := c.doRequest(ctx, method, path, body)
	if err != nil {
		return err
	}

	var env envelope
	if err := json.Unmarshal(resp, &env); err != nil {
		return fmt.Errorf("failed to unmarshal response: %w", err)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to unmarshal response data: %w", err)
	}
	return nil
}

// doRequest performs an HTTP request
func (c *Client) doRequest(ctx context.Context, method, path string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		var env envelope
		if json.Unmarshal(respBody, &env) == nil && env.Error != nil {
			env.Error.StatusCode = resp.StatusCode
			return nil, env.Error
		}
		return nil, &APIError{StatusCode: resp.StatusCode, Code: "http_error", Message: string(respBody)}
	}

	return respBody, nil
}

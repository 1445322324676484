package models

import (
	"strings"
	"time"
)

// Permissions understood by the API
const (
	PermAssessmentsRead  = "assessments:read"
	PermAssessmentsWrite = "assessments:write"
	PermFormsRead        = "forms:read"
	PermFormsWrite       = "forms:write"
	PermQuizzesRead      = "quizzes:read"
)

// ApiClient is a frontend or integration allowed to call the API
type ApiClient struct {
	ID          int               `json:"id"`
	Name        string            `json:"name"`
	ApiKey      string            `json:"-"`
	IsActive    bool              `json:"is_active"`
	CreatedAt   time.Time         `json:"created_at"`
	LastUsedAt  *time.Time        `json:"last_used_at,omitempty"`
	Permissions []string          `json:"permissions"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

// HasPermission checks the client's grants. "forms:*" covers every forms
// permission and "*" covers everything.
func (c *ApiClient) HasPermission(required string) bool {
	if c == nil || !c.IsActive {
		return false
	}

	for _, perm := range c.Permissions {
		if grants(perm, required) {
			return true
		}
	}
	return false
}

func grants(perm, required string) bool {
	switch {
	case perm == "*", perm == required:
		return true
	case strings.HasSuffix(perm, ":*"):
		return strings.HasPrefix(required, strings.TrimSuffix(perm, "*"))
	default:
		return false
	}
}

// MaskedApiKey returns first 8 characters of API key for logging
func (c *ApiClient) MaskedApiKey() string {
	return MaskKey(c.ApiKey)
}

// MaskKey shortens a secret for logs
func MaskKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:8] + "..."
}

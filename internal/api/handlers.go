package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/terra-clan/skill-assessment/internal/assessment"
	"github.com/terra-clan/skill-assessment/internal/assessor"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: false,
		Error: &apiError{
			Code:    code,
			Message: message,
		},
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("failed to encode error response", "error", err)
	}
}

// decodeBody decodes a JSON body, reporting rating and topic problems with
// their own message
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if isValidationError(err) {
			respondError(w, http.StatusBadRequest, "validation_error", err.Error())
			return false
		}
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

func isValidationError(err error) bool {
	return errors.Is(err, assessment.ErrInvalidRating) || errors.Is(err, assessment.ErrUnknownTopic)
}

// respondManagerError maps workflow errors onto HTTP responses. action is
// used in the log line and the generic 500 message.
func respondManagerError(w http.ResponseWriter, err error, action string) {
	errCode, status, message := classifyError(err)
	if status == http.StatusInternalServerError {
		slog.Error("failed to "+action, "error", err)
		message = "failed to " + action
	}
	respondError(w, status, errCode, message)
}

// classifyError returns the API error code, HTTP status and message for err
func classifyError(err error) (string, int, string) {
	switch {
	case errors.Is(err, assessment.ErrNoTopicRated):
		return "no_topic_rated", http.StatusUnprocessableEntity, assessment.NoTopicRatedMessage
	case isValidationError(err):
		return "validation_error", http.StatusBadRequest, err.Error()
	case errors.Is(err, assessor.ErrOwnerMissing):
		return "validation_error", http.StatusBadRequest, err.Error()
	case errors.Is(err, assessor.ErrFormNotFound):
		return "not_found", http.StatusNotFound, "form not found"
	case errors.Is(err, assessor.ErrFormClosed):
		return "form_closed", http.StatusConflict, "form is no longer accepting changes"
	default:
		return "internal_error", http.StatusInternalServerError, "internal server error"
	}
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if err := s.manager.Ping(r.Context()); err != nil {
		slog.Warn("readiness check failed", "error", err)
		respondError(w, http.StatusServiceUnavailable, "not_ready", "service not ready")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
	})
}

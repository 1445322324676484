package api

import (
	"net/http"

	"github.com/terra-clan/skill-assessment/internal/assessment"
	"github.com/terra-clan/skill-assessment/internal/models"
)

func (s *Server) handleListTopics(w http.ResponseWriter, r *http.Request) {
	topics := make([]models.TopicInfo, 0, len(assessment.Topics()))
	for _, t := range assessment.Topics() {
		topics = append(topics, models.TopicInfo{
			Name:      t,
			MinRating: assessment.MinRating,
			MaxRating: assessment.MaxRating,
			Quizzes:   s.catalog.CountByTopic(t),
		})
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"topics": topics,
		"total":  len(topics),
	})
}

func (s *Server) handleEvaluate(w http.ResponseWriter, r *http.Request) {
	var req models.EvaluateRequest
	if !decodeBody(w, r, &req) {
		return
	}

	respondJSON(w, http.StatusOK, s.manager.Evaluate(req.Ratings))
}

func (s *Server) handleSubmitAssessment(w http.ResponseWriter, r *http.Request) {
	var req models.SubmitRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "user_id is required")
		return
	}

	sub, err := s.manager.Submit(r.Context(), req)
	if err != nil {
		respondManagerError(w, err, "submit assessment")
		return
	}

	respondJSON(w, http.StatusCreated, sub)
}

func (s *Server) handleLatestAssessment(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "user_id is required")
		return
	}

	rec, err := s.manager.Latest(r.Context(), userID)
	if err != nil {
		respondManagerError(w, err, "get assessment")
		return
	}
	if rec == nil {
		respondError(w, http.StatusNotFound, "no_assessment", "no assessment recorded for user")
		return
	}

	respondJSON(w, http.StatusOK, rec)
}

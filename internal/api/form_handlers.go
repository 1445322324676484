package api

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/skill-assessment/internal/assessment"
	"github.com/terra-clan/skill-assessment/internal/models"
	"github.com/terra-clan/skill-assessment/internal/storage"
)

// --- Admin handlers (API key auth) ---

func (s *Server) handleCreateForm(w http.ResponseWriter, r *http.Request) {
	var req models.CreateFormRequest
	if !decodeBody(w, r, &req) {
		return
	}

	if req.UserID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "user_id is required")
		return
	}

	if req.TTL < 0 {
		respondError(w, http.StatusBadRequest, "validation_error", "ttl must not be negative (seconds)")
		return
	}

	createdBy := ""
	if client := ClientFromContext(r.Context()); client != nil {
		createdBy = client.Name
	}

	form, err := s.manager.CreateForm(r.Context(), req, createdBy)
	if err != nil {
		respondManagerError(w, err, "create form")
		return
	}

	respondJSON(w, http.StatusCreated, formState(form))
}

func (s *Server) handleListForms(w http.ResponseWriter, r *http.Request) {
	filters := storage.FormFilters{
		UserID: r.URL.Query().Get("user_id"),
		Status: models.FormStatus(r.URL.Query().Get("status")),
		Limit:  50,
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 {
			filters.Limit = l
		}
	}
	if offsetStr := r.URL.Query().Get("offset"); offsetStr != "" {
		if o, err := strconv.Atoi(offsetStr); err == nil && o >= 0 {
			filters.Offset = o
		}
	}

	forms, err := s.manager.ListForms(r.Context(), filters)
	if err != nil {
		respondManagerError(w, err, "list forms")
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"forms": forms,
		"total": len(forms),
	})
}

// --- Public handlers (form token = auth) ---

func (s *Server) handleGetForm(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	form, err := s.manager.GetForm(r.Context(), token)
	if err != nil {
		respondManagerError(w, err, "get form")
		return
	}

	respondJSON(w, http.StatusOK, formState(form))
}

func (s *Server) handleSetRating(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	topic, err := assessment.ParseTopic(chi.URLParam(r, "topic"))
	if err != nil {
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
		return
	}

	var req models.SetRatingRequest
	if !decodeBody(w, r, &req) {
		return
	}

	form, err := s.manager.SetRating(r.Context(), token, topic, req.Rating)
	if err != nil {
		respondManagerError(w, err, "set rating")
		return
	}

	respondJSON(w, http.StatusOK, formState(form))
}

func (s *Server) handleSubmitForm(w http.ResponseWriter, r *http.Request) {
	token := chi.URLParam(r, "token")

	sub, err := s.manager.SubmitForm(r.Context(), token)
	if err != nil {
		respondManagerError(w, err, "submit form")
		return
	}

	respondJSON(w, http.StatusOK, sub)
}

func formState(f *models.Form) models.FormState {
	return models.FormState{
		Form:       f,
		Evaluation: assessment.Evaluate(f.Ratings),
		Selected:   assessment.SelectedTopics(f.Ratings),
	}
}

package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
)

// handleListQuizzes lists the catalog. With filter_by_topics and a stored
// assessment for user_id, only quizzes matching the assessed difficulty of
// their topic are returned.
func (s *Server) handleListQuizzes(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user_id")

	filter := false
	if v := r.URL.Query().Get("filter_by_topics"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "validation_error", "filter_by_topics must be a boolean")
			return
		}
		filter = parsed
	}
	if filter && userID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "user_id is required when filtering by topics")
		return
	}

	quizzes, rec, err := s.manager.Quizzes(r.Context(), userID, filter)
	if err != nil {
		respondManagerError(w, err, "list quizzes")
		return
	}

	resp := map[string]interface{}{
		"quizzes":  quizzes,
		"total":    len(quizzes),
		"filtered": rec != nil,
	}
	if rec != nil {
		resp["assessment"] = rec
	}
	respondJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListGroups(w http.ResponseWriter, r *http.Request) {
	groups := s.catalog.ListGroups()
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"groups": groups,
		"total":  len(groups),
	})
}

func (s *Server) handleGetQuiz(w http.ResponseWriter, r *http.Request) {
	topic := strings.ToLower(chi.URLParam(r, "topic"))
	code := chi.URLParam(r, "code")

	quiz := s.catalog.GetQuiz(topic + "/" + code)
	if quiz == nil {
		respondError(w, http.StatusNotFound, "not_found", "quiz not found")
		return
	}
	respondJSON(w, http.StatusOK, quiz)
}

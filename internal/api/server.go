package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/terra-clan/skill-assessment/internal/assessor"
	"github.com/terra-clan/skill-assessment/internal/catalog"
	"github.com/terra-clan/skill-assessment/internal/config"
	"github.com/terra-clan/skill-assessment/internal/models"
	"github.com/terra-clan/skill-assessment/internal/storage"
)

// Server represents the HTTP API server
type Server struct {
	config         config.ServerConfig
	router         *chi.Mux
	manager        assessor.Manager
	catalog        *catalog.Loader
	authMiddleware *AuthMiddleware
}

// NewServer creates a new API server
func NewServer(
	cfg config.ServerConfig,
	manager assessor.Manager,
	loader *catalog.Loader,
	repo storage.Repository,
) *Server {
	s := &Server{
		config:         cfg,
		manager:        manager,
		catalog:        loader,
		authMiddleware: NewAuthMiddleware(repo),
	}
	s.setupRouter()
	return s
}

// Router returns the configured router
func (s *Server) Router() http.Handler {
	return s.router
}

func (s *Server) setupRouter() {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)

	origins := s.config.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check (outside versioned API - public)
	r.Get("/health", s.handleHealth)
	r.Get("/ready", s.handleReady)

	r.Route("/api/v1", func(r chi.Router) {
		// Form token = auth. The websocket is registered outside the
		// timeout middleware since it outlives a single request.
		r.Get("/forms/{token}/ws", s.handleFormWS)
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Get("/forms/{token}", s.handleGetForm)
			r.Put("/forms/{token}/ratings/{topic}", s.handleSetRating)
			r.Post("/forms/{token}/submit", s.handleSubmitForm)
		})

		// API key auth
		r.Group(func(r chi.Router) {
			r.Use(middleware.Timeout(60 * time.Second))
			r.Use(s.authMiddleware.Authenticate)

			r.With(s.authMiddleware.RequirePermission(models.PermAssessmentsRead)).Get("/topics", s.handleListTopics)

			r.Route("/assessments", func(r chi.Router) {
				r.With(s.authMiddleware.RequirePermission(models.PermAssessmentsRead)).Post("/evaluate", s.handleEvaluate)
				r.With(s.authMiddleware.RequirePermission(models.PermAssessmentsWrite)).Post("/", s.handleSubmitAssessment)
				r.With(s.authMiddleware.RequirePermission(models.PermAssessmentsRead)).Get("/latest", s.handleLatestAssessment)
			})

			r.With(s.authMiddleware.RequirePermission(models.PermFormsWrite)).Post("/forms", s.handleCreateForm)
			r.With(s.authMiddleware.RequirePermission(models.PermFormsRead)).Get("/forms", s.handleListForms)

			r.Route("/quizzes", func(r chi.Router) {
				r.Use(s.authMiddleware.RequirePermission(models.PermQuizzesRead))
				r.Get("/", s.handleListQuizzes)
				r.Get("/groups", s.handleListGroups)
				r.Get("/{topic}/{code}", s.handleGetQuiz)
			})
		})
	})

	s.router = r
}

// loggingMiddleware logs HTTP requests using slog
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			slog.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration_ms", time.Since(start).Milliseconds(),
				"request_id", middleware.GetReqID(r.Context()),
				"remote_addr", r.RemoteAddr,
			)
		}()

		next.ServeHTTP(ww, r)
	})
}

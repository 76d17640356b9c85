package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/squizzy-server/internal/domain"
	"github.com/squizzy-server/internal/service"
)

// Handler provides HTTP handlers for the quiz platform API
type Handler struct {
	service    *service.Service
	logger     *slog.Logger
	cookieName string
}

// NewHandler creates a new HTTP handler
func NewHandler(service *service.Service, cookieName string, logger *slog.Logger) *Handler {
	return &Handler{
		service:    service,
		logger:     logger,
		cookieName: cookieName,
	}
}

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// Router creates and configures the HTTP router
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(corsMiddleware)

	// Health check
	r.Get("/health", h.HealthCheck)
	r.Get("/ready", h.ReadyCheck)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Player surface
		r.Post("/answers", h.SubmitAnswer)
		r.Post("/players", h.JoinMatch)

		r.Route("/matches", func(r chi.Router) {
			r.Get("/pin/{pin}", h.ResolvePIN)
			r.Route("/{slug}", func(r chi.Router) {
				r.Get("/", h.GetMatchDetails)
				r.Get("/scoreboard", h.GetScoreboard)
				r.Delete("/players/{playerID}", h.WithdrawPlayer)
			})
		})

		// First-run setup
		r.Post("/setup", h.Setup)
		r.Get("/setup/status", h.SetupStatus)

		// Admin surface
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", h.Login)
			r.Post("/logout", h.Logout)
			r.Get("/auth-status", h.AuthStatus)

			r.Group(func(r chi.Router) {
				r.Use(h.requireSession)

				r.Route("/quizzes", func(r chi.Router) {
					r.Post("/", h.CreateQuiz)
					r.Get("/", h.ListQuizzes)
					r.Route("/{quizID}", func(r chi.Router) {
						r.Get("/", h.GetQuiz)
						r.Put("/", h.UpdateQuiz)
						r.Delete("/", h.DeleteQuiz)
						r.Get("/questions", h.ListQuestions)
					})
				})

				r.Route("/questions", func(r chi.Router) {
					r.Post("/", h.CreateQuestion)
					r.Put("/{questionID}", h.UpdateQuestion)
					r.Delete("/{questionID}", h.DeleteQuestion)
				})

				r.Route("/matches", func(r chi.Router) {
					r.Post("/", h.CreateMatch)
					r.Get("/", h.ListMatches)
					r.Route("/{matchID}", func(r chi.Router) {
						r.Get("/", h.GetMatch)
						r.Put("/", h.UpdateMatch)
						r.Delete("/", h.DeleteMatch)
						r.Post("/start", h.StartMatch)
						r.Post("/advance", h.AdvanceMatch)
						r.Post("/finish", h.FinishMatch)
						r.Get("/players", h.GetRoster)
						r.Delete("/players/{playerID}", h.KickPlayer)
					})
				})
			})
		})
	})

	return r
}

// corsMiddleware adds CORS headers
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-Request-ID")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// writeJSON writes a JSON response
func (h *Handler) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// writeSuccess writes a successful JSON response
func (h *Handler) writeSuccess(w http.ResponseWriter, data interface{}) {
	h.writeJSON(w, http.StatusOK, APIResponse{
		Success: true,
		Data:    data,
	})
}

// writeError writes an error JSON response
func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	h.writeJSON(w, status, APIResponse{
		Success: false,
		Error:   err.Error(),
	})
}

// respondError maps a domain error to an HTTP status. Unclassified errors
// are logged and reported as an opaque 500.
func (h *Handler) respondError(w http.ResponseWriter, err error, logMsg string) {
	switch {
	case domain.IsValidationError(err):
		h.writeError(w, http.StatusBadRequest, err)
	case errors.Is(err, domain.ErrInvalidCredentials), errors.Is(err, domain.ErrNotAuthenticated):
		h.writeError(w, http.StatusUnauthorized, err)
	case errors.Is(err, domain.ErrAlreadyInitialized):
		h.writeError(w, http.StatusConflict, err)
	case domain.IsNotFoundError(err):
		h.writeError(w, http.StatusNotFound, err)
	default:
		h.logger.Error(logMsg, "error", err)
		h.writeError(w, http.StatusInternalServerError, domain.ErrInternalError)
	}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "healthy"})
}

// ReadyCheck returns service readiness status
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	h.writeSuccess(w, map[string]string{"status": "ready"})
}

// SubmitAnswer handles answer submission. A resubmission for the same
// question replaces the previous answer; the response carries the
// persisted answer either way. An unknown slug is the client's mistake,
// not a missing resource, so it maps to 400.
func (h *Handler) SubmitAnswer(w http.ResponseWriter, r *http.Request) {
	var submission domain.AnswerSubmission
	if err := json.NewDecoder(r.Body).Decode(&submission); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	answer, err := h.service.SubmitAnswer(r.Context(), submission)
	if err != nil {
		if errors.Is(err, domain.ErrMatchNotFound) || errors.Is(err, domain.ErrParticipantNotFound) {
			h.writeError(w, http.StatusBadRequest, err)
			return
		}
		h.respondError(w, err, "failed to submit answer")
		return
	}
	h.writeSuccess(w, answer)
}

// JoinMatch registers a player in a match
func (h *Handler) JoinMatch(w http.ResponseWriter, r *http.Request) {
	var req domain.JoinMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	mp, err := h.service.Join(r.Context(), req)
	if err != nil {
		h.respondError(w, err, "failed to join match")
		return
	}
	h.writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: mp})
}

// ResolvePIN resolves an active match from its 4-digit join code
func (h *Handler) ResolvePIN(w http.ResponseWriter, r *http.Request) {
	match, err := h.service.JoinByPIN(r.Context(), chi.URLParam(r, "pin"))
	if err != nil {
		h.respondError(w, err, "failed to resolve pin")
		return
	}
	h.writeSuccess(w, match)
}

// GetMatchDetails returns the full match state clients poll for
func (h *Handler) GetMatchDetails(w http.ResponseWriter, r *http.Request) {
	details, err := h.service.MatchDetails(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.respondError(w, err, "failed to get match details")
		return
	}
	h.writeSuccess(w, details)
}

// GetScoreboard returns a match's ranked standings
func (h *Handler) GetScoreboard(w http.ResponseWriter, r *http.Request) {
	entries, err := h.service.Scoreboard(r.Context(), chi.URLParam(r, "slug"))
	if err != nil {
		h.respondError(w, err, "failed to get scoreboard")
		return
	}
	h.writeSuccess(w, entries)
}

// WithdrawPlayer removes a player from a match at their own request
func (h *Handler) WithdrawPlayer(w http.ResponseWriter, r *http.Request) {
	err := h.service.Withdraw(r.Context(), chi.URLParam(r, "slug"), chi.URLParam(r, "playerID"))
	if err != nil {
		h.respondError(w, err, "failed to withdraw player")
		return
	}
	h.writeSuccess(w, map[string]string{"status": "withdrawn"})
}

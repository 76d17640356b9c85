package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/squizzy-server/internal/domain"
)

// sessionToken extracts the session token from the cookie, falling back
// to a bearer Authorization header for non-browser clients.
func (h *Handler) sessionToken(r *http.Request) string {
	if cookie, err := r.Cookie(h.cookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	auth := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(auth) > len(prefix) && auth[:len(prefix)] == prefix {
		return auth[len(prefix):]
	}
	return ""
}

// requireSession guards admin routes behind a valid session
func (h *Handler) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if _, err := h.service.Authenticate(r.Context(), h.sessionToken(r)); err != nil {
			h.writeError(w, http.StatusUnauthorized, domain.ErrNotAuthenticated)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Login opens an admin session and sets the session cookie
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req domain.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	session, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.respondError(w, err, "failed to log in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    session.Token,
		Path:     "/",
		MaxAge:   int(h.service.SessionTTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.writeSuccess(w, session)
}

// Logout closes the admin session and clears the cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	if token := h.sessionToken(r); token != "" {
		if err := h.service.Logout(r.Context(), token); err != nil {
			h.respondError(w, err, "failed to log out")
			return
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.cookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	h.writeSuccess(w, map[string]string{"status": "logged out"})
}

// AuthStatus reports whether the caller holds a valid session
func (h *Handler) AuthStatus(w http.ResponseWriter, r *http.Request) {
	session, err := h.service.Authenticate(r.Context(), h.sessionToken(r))
	if err != nil {
		if errors.Is(err, domain.ErrNotAuthenticated) {
			h.writeSuccess(w, map[string]interface{}{"authenticated": false})
			return
		}
		h.respondError(w, err, "failed to check auth status")
		return
	}
	h.writeSuccess(w, map[string]interface{}{
		"authenticated": true,
		"username":      session.Username,
	})
}

// Setup performs first-run installation
func (h *Handler) Setup(w http.ResponseWriter, r *http.Request) {
	var req domain.SetupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	if err := h.service.Setup(r.Context(), req); err != nil {
		h.respondError(w, err, "failed to run setup")
		return
	}
	h.writeSuccess(w, map[string]string{"status": "initialized"})
}

// SetupStatus reports whether first-run setup has been completed
func (h *Handler) SetupStatus(w http.ResponseWriter, r *http.Request) {
	initialized, err := h.service.Initialized(r.Context())
	if err != nil {
		h.respondError(w, err, "failed to check setup status")
		return
	}
	h.writeSuccess(w, map[string]bool{"initialized": initialized})
}

// CreateQuiz creates a new quiz
func (h *Handler) CreateQuiz(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	quiz, err := h.service.CreateQuiz(r.Context(), req)
	if err != nil {
		h.respondError(w, err, "failed to create quiz")
		return
	}
	h.writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: quiz})
}

// ListQuizzes retrieves all quizzes
func (h *Handler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	quizzes, err := h.service.ListQuizzes(r.Context())
	if err != nil {
		h.respondError(w, err, "failed to list quizzes")
		return
	}
	h.writeSuccess(w, quizzes)
}

// GetQuiz retrieves a quiz with its questions
func (h *Handler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, questions, err := h.service.GetQuiz(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		h.respondError(w, err, "failed to get quiz")
		return
	}
	h.writeSuccess(w, map[string]interface{}{
		"quiz":      quiz,
		"questions": questions,
	})
}

// UpdateQuiz updates a quiz
func (h *Handler) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	quiz, err := h.service.UpdateQuiz(r.Context(), chi.URLParam(r, "quizID"), req)
	if err != nil {
		h.respondError(w, err, "failed to update quiz")
		return
	}
	h.writeSuccess(w, quiz)
}

// DeleteQuiz removes a quiz
func (h *Handler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteQuiz(r.Context(), chi.URLParam(r, "quizID")); err != nil {
		h.respondError(w, err, "failed to delete quiz")
		return
	}
	h.writeSuccess(w, map[string]string{"status": "deleted"})
}

// ListQuestions retrieves a quiz's questions with their choices
func (h *Handler) ListQuestions(w http.ResponseWriter, r *http.Request) {
	questions, err := h.service.ListQuestions(r.Context(), chi.URLParam(r, "quizID"))
	if err != nil {
		h.respondError(w, err, "failed to list questions")
		return
	}
	h.writeSuccess(w, questions)
}

// CreateQuestion appends a question to a quiz
func (h *Handler) CreateQuestion(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	question, err := h.service.CreateQuestion(r.Context(), req)
	if err != nil {
		h.respondError(w, err, "failed to create question")
		return
	}
	h.writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: question})
}

// UpdateQuestion updates a question, replacing its choices when provided
func (h *Handler) UpdateQuestion(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateQuestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	question, err := h.service.UpdateQuestion(r.Context(), chi.URLParam(r, "questionID"), req)
	if err != nil {
		h.respondError(w, err, "failed to update question")
		return
	}
	h.writeSuccess(w, question)
}

// DeleteQuestion removes a question
func (h *Handler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteQuestion(r.Context(), chi.URLParam(r, "questionID")); err != nil {
		h.respondError(w, err, "failed to delete question")
		return
	}
	h.writeSuccess(w, map[string]string{"status": "deleted"})
}

// CreateMatch hosts a new match for a quiz
func (h *Handler) CreateMatch(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	match, err := h.service.CreateMatch(r.Context(), req)
	if err != nil {
		h.respondError(w, err, "failed to create match")
		return
	}
	h.writeJSON(w, http.StatusCreated, APIResponse{Success: true, Data: match})
}

// ListMatches retrieves all matches
func (h *Handler) ListMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.service.ListMatches(r.Context())
	if err != nil {
		h.respondError(w, err, "failed to list matches")
		return
	}
	h.writeSuccess(w, matches)
}

// GetMatch retrieves a match by ID
func (h *Handler) GetMatch(w http.ResponseWriter, r *http.Request) {
	match, err := h.service.GetMatch(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		h.respondError(w, err, "failed to get match")
		return
	}
	h.writeSuccess(w, match)
}

// UpdateMatch applies a partial update to a match
func (h *Handler) UpdateMatch(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateMatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, domain.ErrInvalidRequest)
		return
	}

	match, err := h.service.UpdateMatch(r.Context(), chi.URLParam(r, "matchID"), req)
	if err != nil {
		h.respondError(w, err, "failed to update match")
		return
	}
	h.writeSuccess(w, match)
}

// DeleteMatch removes a match
func (h *Handler) DeleteMatch(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteMatch(r.Context(), chi.URLParam(r, "matchID")); err != nil {
		h.respondError(w, err, "failed to delete match")
		return
	}
	h.writeSuccess(w, map[string]string{"status": "deleted"})
}

// StartMatch starts a waiting match
func (h *Handler) StartMatch(w http.ResponseWriter, r *http.Request) {
	match, err := h.service.StartMatch(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		h.respondError(w, err, "failed to start match")
		return
	}
	h.writeSuccess(w, match)
}

// AdvanceMatch moves an in-progress match to its next question
func (h *Handler) AdvanceMatch(w http.ResponseWriter, r *http.Request) {
	match, err := h.service.AdvanceMatch(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		h.respondError(w, err, "failed to advance match")
		return
	}
	h.writeSuccess(w, match)
}

// FinishMatch completes a match
func (h *Handler) FinishMatch(w http.ResponseWriter, r *http.Request) {
	match, err := h.service.FinishMatch(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		h.respondError(w, err, "failed to finish match")
		return
	}
	h.writeSuccess(w, match)
}

// GetRoster returns a match's participants ranked by score
func (h *Handler) GetRoster(w http.ResponseWriter, r *http.Request) {
	players, err := h.service.Roster(r.Context(), chi.URLParam(r, "matchID"))
	if err != nil {
		h.respondError(w, err, "failed to get roster")
		return
	}
	h.writeSuccess(w, players)
}

// KickPlayer removes a participant on the admin's behalf
func (h *Handler) KickPlayer(w http.ResponseWriter, r *http.Request) {
	err := h.service.KickPlayer(r.Context(), chi.URLParam(r, "matchID"), chi.URLParam(r, "playerID"))
	if err != nil {
		h.respondError(w, err, "failed to kick player")
		return
	}
	h.writeSuccess(w, map[string]string{"status": "removed"})
}

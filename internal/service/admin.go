package service

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/squizzy-server/internal/domain"
)

// Login verifies admin credentials and opens a session. Unknown usernames
// and wrong passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.AdminSession, error) {
	if req.Username == "" {
		return nil, &domain.MissingFieldError{Field: "username"}
	}
	if req.Password == "" {
		return nil, &domain.MissingFieldError{Field: "password"}
	}

	admin, err := s.store.GetAdminByUsername(ctx, req.Username)
	if err != nil {
		if errors.Is(err, domain.ErrAdminNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(req.Password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	session := &domain.AdminSession{
		Token:     uuid.NewString(),
		AdminID:   admin.ID,
		Username:  admin.Username,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.cache.SaveSession(ctx, session, s.sessionTTL); err != nil {
		return nil, fmt.Errorf("opening session: %w", err)
	}
	return session, nil
}

// Logout closes an admin session
func (s *Service) Logout(ctx context.Context, token string) error {
	return s.cache.DeleteSession(ctx, token)
}

// Authenticate resolves a session token. Unknown and expired tokens
// report ErrNotAuthenticated.
func (s *Service) Authenticate(ctx context.Context, token string) (*domain.AdminSession, error) {
	if token == "" {
		return nil, domain.ErrNotAuthenticated
	}
	return s.cache.GetSession(ctx, token)
}

// SessionTTL returns the configured session lifetime, used for cookies
func (s *Service) SessionTTL() time.Duration {
	return s.sessionTTL
}

// Initialized reports whether first-run setup has been completed
func (s *Service) Initialized(ctx context.Context) (bool, error) {
	return s.store.Initialized(ctx)
}

// Setup performs first-run installation: it creates the initial admin
// account and optionally seeds sample content. Running it against an
// already initialized database is refused.
func (s *Service) Setup(ctx context.Context, req domain.SetupRequest) error {
	if req.AdminUsername == "" {
		return &domain.MissingFieldError{Field: "admin_username"}
	}
	if req.AdminPassword == "" {
		return &domain.MissingFieldError{Field: "admin_password"}
	}

	initialized, err := s.store.Initialized(ctx)
	if err != nil {
		return err
	}
	if initialized {
		return domain.ErrAlreadyInitialized
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.AdminPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hashing password: %w", err)
	}
	admin := &domain.Admin{
		ID:           uuid.NewString(),
		Username:     req.AdminUsername,
		PasswordHash: string(hash),
	}
	if err := s.store.UpsertAdmin(ctx, admin); err != nil {
		return err
	}

	if req.LoadSampleData {
		if err := s.seedSampleData(ctx); err != nil {
			return fmt.Errorf("seeding sample data: %w", err)
		}
	}
	return nil
}

// CreateQuiz creates a new quiz
func (s *Service) CreateQuiz(ctx context.Context, req domain.CreateQuizRequest) (*domain.Quiz, error) {
	if req.Title == "" {
		return nil, &domain.MissingFieldError{Field: "title"}
	}
	quiz := &domain.Quiz{
		ID:          uuid.NewString(),
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if err := s.store.CreateQuiz(ctx, quiz); err != nil {
		return nil, err
	}
	return quiz, nil
}

// GetQuiz retrieves a quiz together with its questions and choices
func (s *Service) GetQuiz(ctx context.Context, quizID string) (*domain.Quiz, []domain.Question, error) {
	quiz, err := s.store.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	questions, err := s.store.ListQuestions(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	return quiz, questions, nil
}

// ListQuizzes retrieves all quizzes
func (s *Service) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	return s.store.ListQuizzes(ctx)
}

// UpdateQuiz updates a quiz's title, description and image
func (s *Service) UpdateQuiz(ctx context.Context, quizID string, req domain.CreateQuizRequest) (*domain.Quiz, error) {
	if req.Title == "" {
		return nil, &domain.MissingFieldError{Field: "title"}
	}
	quiz := &domain.Quiz{
		ID:          quizID,
		Title:       req.Title,
		Description: req.Description,
		ImageURL:    req.ImageURL,
	}
	if err := s.store.UpdateQuiz(ctx, quiz); err != nil {
		return nil, err
	}
	return s.store.GetQuiz(ctx, quizID)
}

// DeleteQuiz removes a quiz and everything hanging off it
func (s *Service) DeleteQuiz(ctx context.Context, quizID string) error {
	return s.store.DeleteQuiz(ctx, quizID)
}

// CreateQuestion appends a question to a quiz
func (s *Service) CreateQuestion(ctx context.Context, req domain.CreateQuestionRequest) (*domain.Question, error) {
	if req.QuizID == "" {
		return nil, &domain.MissingFieldError{Field: "quiz_id"}
	}
	if req.QuestionText == "" {
		return nil, &domain.MissingFieldError{Field: "question_text"}
	}
	req.ApplyDefaults()

	if _, err := s.store.GetQuiz(ctx, req.QuizID); err != nil {
		return nil, err
	}

	question := &domain.Question{
		ID:           uuid.NewString(),
		QuizID:       req.QuizID,
		QuestionText: req.QuestionText,
		ImageURL:     req.ImageURL,
		TimeLimit:    req.TimeLimit,
		Points:       req.Points,
		Choices:      buildChoices(req.Choices),
	}
	if err := s.store.CreateQuestion(ctx, question); err != nil {
		return nil, err
	}
	return question, nil
}

// UpdateQuestion updates a question; a non-nil choice list replaces the
// existing choices wholesale.
func (s *Service) UpdateQuestion(ctx context.Context, questionID string, req domain.CreateQuestionRequest) (*domain.Question, error) {
	if req.QuestionText == "" {
		return nil, &domain.MissingFieldError{Field: "question_text"}
	}
	req.ApplyDefaults()

	question := &domain.Question{
		ID:           questionID,
		QuestionText: req.QuestionText,
		ImageURL:     req.ImageURL,
		TimeLimit:    req.TimeLimit,
		Points:       req.Points,
	}
	if req.Choices != nil {
		question.Choices = buildChoices(req.Choices)
	}
	if err := s.store.UpdateQuestion(ctx, question); err != nil {
		return nil, err
	}
	// Re-read so the response carries the stored row, not the request:
	// quiz id, order index and timestamps survive the update untouched.
	return s.store.GetQuestion(ctx, questionID)
}

// DeleteQuestion removes a question and its choices
func (s *Service) DeleteQuestion(ctx context.Context, questionID string) error {
	return s.store.DeleteQuestion(ctx, questionID)
}

// ListQuestions retrieves a quiz's questions with their choices
func (s *Service) ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error) {
	return s.store.ListQuestions(ctx, quizID)
}

func buildChoices(inputs []domain.ChoiceInput) []domain.Choice {
	choices := make([]domain.Choice, len(inputs))
	for i, in := range inputs {
		choices[i] = domain.Choice{
			ID:         uuid.NewString(),
			ChoiceText: in.ChoiceText,
			IsCorrect:  in.IsCorrect,
		}
	}
	return choices
}

// CreateMatch hosts a new match for a quiz under a unique slug, assigning
// a join PIN that is unique among matches still running.
func (s *Service) CreateMatch(ctx context.Context, req domain.CreateMatchRequest) (*domain.Match, error) {
	if req.QuizID == "" {
		return nil, &domain.MissingFieldError{Field: "quiz_id"}
	}
	if req.Slug == "" {
		return nil, &domain.MissingFieldError{Field: "slug"}
	}
	if !domain.ValidSlug(req.Slug) {
		return nil, domain.ErrInvalidSlug
	}

	taken, err := s.store.SlugInUse(ctx, req.Slug, "")
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, domain.ErrSlugTaken
	}

	if _, err := s.store.GetQuiz(ctx, req.QuizID); err != nil {
		return nil, err
	}

	pin, err := s.generatePIN(ctx)
	if err != nil {
		return nil, err
	}

	match := &domain.Match{
		ID:     uuid.NewString(),
		Slug:   req.Slug,
		PIN:    pin,
		QuizID: req.QuizID,
	}
	if err := s.store.CreateMatch(ctx, match); err != nil {
		return nil, err
	}
	return match, nil
}

// generatePIN draws random 4-digit codes until it finds one no running
// match holds. PINs are recycled once a match ends, so exhaustion only
// happens with thousands of simultaneously active matches.
func (s *Service) generatePIN(ctx context.Context) (string, error) {
	for i := 0; i < s.pinAttempts; i++ {
		pin := fmt.Sprintf("%04d", rand.Intn(10000))
		inUse, err := s.store.PINInUse(ctx, pin)
		if err != nil {
			return "", err
		}
		if !inUse {
			return pin, nil
		}
	}
	return "", domain.ErrPINExhausted
}

// ListMatches retrieves all matches with quiz info and player counts
func (s *Service) ListMatches(ctx context.Context) ([]domain.Match, error) {
	return s.store.ListMatches(ctx)
}

// GetMatch retrieves a match by ID
func (s *Service) GetMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	return s.store.GetMatch(ctx, matchID)
}

// UpdateMatch applies a partial update to a match
func (s *Service) UpdateMatch(ctx context.Context, matchID string, req domain.UpdateMatchRequest) (*domain.Match, error) {
	if req.Slug != nil {
		if !domain.ValidSlug(*req.Slug) {
			return nil, domain.ErrInvalidSlug
		}
		taken, err := s.store.SlugInUse(ctx, *req.Slug, matchID)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrSlugTaken
		}
	}
	if req.QuizID != nil {
		if _, err := s.store.GetQuiz(ctx, *req.QuizID); err != nil {
			return nil, err
		}
	}
	return s.store.UpdateMatch(ctx, matchID, req)
}

// DeleteMatch removes a match and drops its cached scoreboard
func (s *Service) DeleteMatch(ctx context.Context, matchID string) error {
	if err := s.store.DeleteMatch(ctx, matchID); err != nil {
		return err
	}
	if err := s.cache.DeleteScoreboard(ctx, matchID); err != nil {
		s.logger.Warn("failed to drop cached scoreboard", "match_id", matchID, "error", err)
	}
	return nil
}

// StartMatch moves a waiting match to in_progress on its first question
func (s *Service) StartMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	return s.store.StartMatch(ctx, matchID)
}

// AdvanceMatch moves an in-progress match to its next question
func (s *Service) AdvanceMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	return s.store.AdvanceMatch(ctx, matchID)
}

// FinishMatch completes a match. Scores stay readable; the PIN frees up.
func (s *Service) FinishMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	return s.store.FinishMatch(ctx, matchID)
}

// Roster returns a match's participants ranked by score
func (s *Service) Roster(ctx context.Context, matchID string) ([]domain.MatchPlayer, error) {
	return s.store.ListMatchPlayers(ctx, matchID)
}

// KickPlayer removes a participant from a match on the admin's behalf
func (s *Service) KickPlayer(ctx context.Context, matchID, playerID string) error {
	if err := s.store.WithdrawPlayer(ctx, matchID, playerID); err != nil {
		return err
	}
	if err := s.cache.RemoveScoreboardPlayer(ctx, matchID, playerID); err != nil {
		s.logger.Warn("failed to evict player from cached scoreboard",
			"match_id", matchID,
			"player_id", playerID,
			"error", err)
	}
	return nil
}

// seedSampleData loads a small demo quiz so a fresh install has something
// to host immediately.
func (s *Service) seedSampleData(ctx context.Context) error {
	quiz, err := s.CreateQuiz(ctx, domain.CreateQuizRequest{
		Title:       "General Knowledge Warm-up",
		Description: "A short starter quiz to try the platform with.",
	})
	if err != nil {
		return err
	}

	questions := []domain.CreateQuestionRequest{
		{
			QuizID:       quiz.ID,
			QuestionText: "Which planet is known as the Red Planet?",
			Choices: []domain.ChoiceInput{
				{ChoiceText: "Venus"},
				{ChoiceText: "Mars", IsCorrect: true},
				{ChoiceText: "Jupiter"},
				{ChoiceText: "Saturn"},
			},
		},
		{
			QuizID:       quiz.ID,
			QuestionText: "What is the largest ocean on Earth?",
			Choices: []domain.ChoiceInput{
				{ChoiceText: "Atlantic"},
				{ChoiceText: "Indian"},
				{ChoiceText: "Pacific", IsCorrect: true},
				{ChoiceText: "Arctic"},
			},
		},
		{
			QuizID:       quiz.ID,
			QuestionText: "How many continents are there?",
			Points:       200,
			Choices: []domain.ChoiceInput{
				{ChoiceText: "Five"},
				{ChoiceText: "Six"},
				{ChoiceText: "Seven", IsCorrect: true},
				{ChoiceText: "Eight"},
			},
		},
	}
	for _, q := range questions {
		if _, err := s.CreateQuestion(ctx, q); err != nil {
			return err
		}
	}
	return nil
}

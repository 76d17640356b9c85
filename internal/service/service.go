package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/squizzy-server/internal/config"
	"github.com/squizzy-server/internal/domain"
)

// Store is the persistent backend for quizzes, matches, players, answers
// and admin accounts. Satisfied by *postgres.Repository.
type Store interface {
	Initialized(ctx context.Context) (bool, error)

	CreateQuiz(ctx context.Context, quiz *domain.Quiz) error
	GetQuiz(ctx context.Context, quizID string) (*domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	UpdateQuiz(ctx context.Context, quiz *domain.Quiz) error
	DeleteQuiz(ctx context.Context, quizID string) error

	CreateQuestion(ctx context.Context, question *domain.Question) error
	GetQuestion(ctx context.Context, questionID string) (*domain.Question, error)
	UpdateQuestion(ctx context.Context, question *domain.Question) error
	DeleteQuestion(ctx context.Context, questionID string) error
	ListQuestions(ctx context.Context, quizID string) ([]domain.Question, error)

	CreateMatch(ctx context.Context, match *domain.Match) error
	GetMatch(ctx context.Context, matchID string) (*domain.Match, error)
	GetMatchBySlug(ctx context.Context, slug string) (*domain.Match, error)
	FindMatchByPIN(ctx context.Context, pin string) (*domain.Match, error)
	PINInUse(ctx context.Context, pin string) (bool, error)
	SlugInUse(ctx context.Context, slug, excludeID string) (bool, error)
	ListMatches(ctx context.Context) ([]domain.Match, error)
	UpdateMatch(ctx context.Context, matchID string, req domain.UpdateMatchRequest) (*domain.Match, error)
	DeleteMatch(ctx context.Context, matchID string) error
	StartMatch(ctx context.Context, matchID string) (*domain.Match, error)
	AdvanceMatch(ctx context.Context, matchID string) (*domain.Match, error)
	FinishMatch(ctx context.Context, matchID string) (*domain.Match, error)

	UpsertPlayer(ctx context.Context, player *domain.Player) error
	EnsureParticipation(ctx context.Context, matchID, playerID string) (*domain.MatchPlayer, error)
	WithdrawPlayer(ctx context.Context, matchID, playerID string) error
	ListMatchPlayers(ctx context.Context, matchID string) ([]domain.MatchPlayer, error)

	SubmitAnswer(ctx context.Context, match *domain.Match, playerID, questionID, choiceID string) (*domain.Answer, int, error)
	ListMatchAnswers(ctx context.Context, matchID string) ([]domain.Answer, error)

	UpsertAdmin(ctx context.Context, admin *domain.Admin) error
	GetAdminByUsername(ctx context.Context, username string) (*domain.Admin, error)
}

// Cache is the shared keyed store for admin sessions and per-match
// scoreboard caches. Satisfied by *redis.Store.
type Cache interface {
	SaveSession(ctx context.Context, session *domain.AdminSession, ttl time.Duration) error
	GetSession(ctx context.Context, token string) (*domain.AdminSession, error)
	DeleteSession(ctx context.Context, token string) error

	AdjustScore(ctx context.Context, matchID, playerID, name string, delta int) error
	SetScores(ctx context.Context, matchID string, players []domain.MatchPlayer) error
	GetScoreboard(ctx context.Context, matchID string) ([]domain.ScoreboardEntry, error)
	RemoveScoreboardPlayer(ctx context.Context, matchID, playerID string) error
	DeleteScoreboard(ctx context.Context, matchID string) error
}

// Service implements the application's use cases on top of the store and
// the cache. The store is the source of truth; every cache write here is
// best-effort and a cache miss falls back to the store.
type Service struct {
	store  Store
	cache  Cache
	logger *slog.Logger

	sessionTTL  time.Duration
	pinAttempts int
}

// NewService creates the application service
func NewService(store Store, cache Cache, cfg *config.Config, logger *slog.Logger) *Service {
	return &Service{
		store:       store,
		cache:       cache,
		logger:      logger,
		sessionTTL:  cfg.Session.TTL,
		pinAttempts: cfg.Match.PINAttempts,
	}
}

package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/squizzy-server/internal/config"
)

// Repository provides PostgreSQL-based data access
type Repository struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewRepository creates a new PostgreSQL repository
func NewRepository(cfg *config.PostgresConfig, logger *slog.Logger) (*Repository, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}

	poolConfig.MaxConns = int32(cfg.MaxConnections)
	poolConfig.MinConns = int32(cfg.MinConnections)
	poolConfig.MaxConnLifetime = cfg.MaxConnLifetime
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	pool, err := pgxpool.NewWithConfig(context.Background(), poolConfig)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	return &Repository{
		pool:   pool,
		logger: logger,
	}, nil
}

// Close closes the database connection pool
func (r *Repository) Close() {
	r.pool.Close()
}

// Pool returns the underlying connection pool
func (r *Repository) Pool() *pgxpool.Pool {
	return r.pool
}

// RunMigrations executes database migrations
func (r *Repository) RunMigrations(ctx context.Context) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS admins (
			id VARCHAR(64) PRIMARY KEY,
			username VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS quizzes (
			id VARCHAR(64) PRIMARY KEY,
			title VARCHAR(255) NOT NULL,
			description TEXT,
			image_url TEXT,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS questions (
			id VARCHAR(64) PRIMARY KEY,
			quiz_id VARCHAR(64) NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
			question_text TEXT NOT NULL,
			image_url TEXT,
			time_limit INT NOT NULL DEFAULT 20,
			points INT NOT NULL DEFAULT 100,
			order_index INT NOT NULL DEFAULT 0,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS choices (
			id VARCHAR(64) PRIMARY KEY,
			question_id VARCHAR(64) NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
			choice_text TEXT NOT NULL,
			is_correct BOOLEAN NOT NULL DEFAULT FALSE,
			order_index INT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS matches (
			id VARCHAR(64) PRIMARY KEY,
			slug VARCHAR(255) UNIQUE NOT NULL,
			pin VARCHAR(4),
			quiz_id VARCHAR(64) NOT NULL REFERENCES quizzes(id) ON DELETE CASCADE,
			status VARCHAR(20) NOT NULL DEFAULT 'waiting',
			current_question_index INT NOT NULL DEFAULT -1,
			started_at TIMESTAMP,
			ended_at TIMESTAMP,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS players (
			id VARCHAR(64) PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		)`,
		`CREATE TABLE IF NOT EXISTS match_players (
			id BIGSERIAL PRIMARY KEY,
			match_id VARCHAR(64) NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
			player_id VARCHAR(64) NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			score INT NOT NULL DEFAULT 0,
			joined_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(match_id, player_id)
		)`,
		`CREATE TABLE IF NOT EXISTS answers (
			id BIGSERIAL PRIMARY KEY,
			match_id VARCHAR(64) NOT NULL REFERENCES matches(id) ON DELETE CASCADE,
			player_id VARCHAR(64) NOT NULL REFERENCES players(id) ON DELETE CASCADE,
			question_id VARCHAR(64) NOT NULL REFERENCES questions(id) ON DELETE CASCADE,
			choice_id VARCHAR(64) NOT NULL REFERENCES choices(id) ON DELETE CASCADE,
			is_correct BOOLEAN NOT NULL,
			points_earned INT NOT NULL,
			submitted_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
			UNIQUE(match_id, player_id, question_id)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_questions_quiz ON questions(quiz_id, order_index)`,
		`CREATE INDEX IF NOT EXISTS idx_choices_question ON choices(question_id, order_index)`,
		`CREATE INDEX IF NOT EXISTS idx_matches_pin ON matches(pin) WHERE ended_at IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_match_players_match ON match_players(match_id, score DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_answers_match ON answers(match_id, submitted_at DESC)`,
	}

	for _, migration := range migrations {
		_, err := r.pool.Exec(ctx, migration)
		if err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}

	r.logger.Info("database migrations completed")
	return nil
}

// Initialized reports whether the schema has been created and at least
// one admin account exists, i.e. first-run setup already happened.
func (r *Repository) Initialized(ctx context.Context) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT FROM information_schema.tables
			WHERE table_schema = 'public' AND table_name = 'admins'
		)
	`).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking schema: %w", err)
	}
	if !exists {
		return false, nil
	}

	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM admins`).Scan(&count); err != nil {
		return false, fmt.Errorf("counting admins: %w", err)
	}
	return count > 0, nil
}

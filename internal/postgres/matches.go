package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/squizzy-server/internal/domain"
)

const matchColumns = `m.id, m.slug, COALESCE(m.pin, ''), m.quiz_id, m.status,
	m.current_question_index, m.started_at, m.ended_at, m.created_at`

func scanMatch(row pgx.Row) (*domain.Match, error) {
	var m domain.Match
	err := row.Scan(&m.ID, &m.Slug, &m.PIN, &m.QuizID, &m.Status,
		&m.CurrentQuestionIndex, &m.StartedAt, &m.EndedAt, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, fmt.Errorf("scanning match: %w", err)
	}
	return &m, nil
}

// CreateMatch inserts a new match in the waiting state
func (r *Repository) CreateMatch(ctx context.Context, match *domain.Match) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO matches (id, slug, pin, quiz_id, status)
		VALUES ($1, $2, $3, $4, 'waiting')
		RETURNING status, current_question_index, created_at
	`, match.ID, match.Slug, match.PIN, match.QuizID).Scan(&match.Status, &match.CurrentQuestionIndex, &match.CreatedAt)
	if err != nil {
		return fmt.Errorf("creating match: %w", err)
	}
	return nil
}

// GetMatchBySlug resolves a match by its routing slug
func (r *Repository) GetMatchBySlug(ctx context.Context, slug string) (*domain.Match, error) {
	match, err := scanMatch(r.pool.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM matches m WHERE m.slug = $1`, slug))
	if err != nil {
		if errors.Is(err, domain.ErrMatchNotFound) {
			return nil, &domain.UnknownMatchError{Slug: slug}
		}
		return nil, err
	}
	return match, nil
}

// GetMatch retrieves a match by ID
func (r *Repository) GetMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	return scanMatch(r.pool.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM matches m WHERE m.id = $1`, matchID))
}

// FindMatchByPIN resolves an active match by its join PIN. Matches that
// have ended no longer claim their PIN.
func (r *Repository) FindMatchByPIN(ctx context.Context, pin string) (*domain.Match, error) {
	return scanMatch(r.pool.QueryRow(ctx,
		`SELECT `+matchColumns+` FROM matches m WHERE m.pin = $1 AND m.ended_at IS NULL`, pin))
}

// PINInUse reports whether a PIN is claimed by any match that has not ended
func (r *Repository) PINInUse(ctx context.Context, pin string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM matches WHERE pin = $1 AND ended_at IS NULL)`, pin).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking pin: %w", err)
	}
	return exists, nil
}

// SlugInUse reports whether a slug is claimed by a match other than excludeID
func (r *Repository) SlugInUse(ctx context.Context, slug, excludeID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM matches WHERE slug = $1 AND id != $2)`, slug, excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking slug: %w", err)
	}
	return exists, nil
}

// ListMatches retrieves all matches with quiz info and player counts
func (r *Repository) ListMatches(ctx context.Context) ([]domain.Match, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+matchColumns+`,
		       q.id, q.title, COALESCE(q.description, ''),
		       COUNT(DISTINCT mp.player_id)
		FROM matches m
		JOIN quizzes q ON m.quiz_id = q.id
		LEFT JOIN match_players mp ON m.id = mp.match_id
		GROUP BY m.id, q.id
		ORDER BY m.created_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing matches: %w", err)
	}
	defer rows.Close()

	var matches []domain.Match
	for rows.Next() {
		var m domain.Match
		var quiz domain.Quiz
		err := rows.Scan(&m.ID, &m.Slug, &m.PIN, &m.QuizID, &m.Status,
			&m.CurrentQuestionIndex, &m.StartedAt, &m.EndedAt, &m.CreatedAt,
			&quiz.ID, &quiz.Title, &quiz.Description, &m.PlayerCount)
		if err != nil {
			return nil, fmt.Errorf("scanning match: %w", err)
		}
		m.Quiz = &quiz
		matches = append(matches, m)
	}
	return matches, rows.Err()
}

// UpdateMatch applies a partial update, emitting assignments only for the
// fields present in the request.
func (r *Repository) UpdateMatch(ctx context.Context, matchID string, req domain.UpdateMatchRequest) (*domain.Match, error) {
	assignments, values := buildMatchUpdate(req)
	if len(assignments) == 0 {
		return nil, domain.ErrInvalidRequest
	}

	values = append(values, matchID)
	query := fmt.Sprintf(`UPDATE matches SET %s WHERE id = $%d RETURNING `+
		strings.ReplaceAll(matchColumns, "m.", ""),
		strings.Join(assignments, ", "), len(values))
	return scanMatch(r.pool.QueryRow(ctx, query, values...))
}

// buildMatchUpdate maps the optional fields of an update request to SQL
// assignments, kept separate so the mapping is testable as a pure function.
func buildMatchUpdate(req domain.UpdateMatchRequest) ([]string, []any) {
	var assignments []string
	var values []any
	add := func(column string, value any) {
		values = append(values, value)
		assignments = append(assignments, fmt.Sprintf("%s = $%d", column, len(values)))
	}

	if req.Slug != nil {
		add("slug", *req.Slug)
	}
	if req.QuizID != nil {
		add("quiz_id", *req.QuizID)
	}
	if req.Status != nil {
		add("status", string(*req.Status))
	}
	return assignments, values
}

// DeleteMatch removes a match and its participation and answer rows
func (r *Repository) DeleteMatch(ctx context.Context, matchID string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM matches WHERE id = $1`, matchID)
	if err != nil {
		return fmt.Errorf("deleting match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMatchNotFound
	}
	return nil
}

// StartMatch moves a waiting match to in_progress and activates the first
// question. A match can only be started once.
func (r *Repository) StartMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	match, err := scanMatch(r.pool.QueryRow(ctx, `
		UPDATE matches m
		SET started_at = CURRENT_TIMESTAMP,
		    current_question_index = 0,
		    status = 'in_progress'
		WHERE m.id = $1 AND m.started_at IS NULL AND m.ended_at IS NULL
		RETURNING `+matchColumns, matchID))
	if err != nil {
		if errors.Is(err, domain.ErrMatchNotFound) {
			return nil, domain.ErrMatchAlreadyStarted
		}
		return nil, err
	}
	return match, nil
}

// AdvanceMatch moves an in-progress match to its next question
func (r *Repository) AdvanceMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	return scanMatch(r.pool.QueryRow(ctx, `
		UPDATE matches m
		SET current_question_index = current_question_index + 1
		WHERE m.id = $1 AND m.status = 'in_progress'
		RETURNING `+matchColumns, matchID))
}

// FinishMatch completes a match, freeing its PIN for reuse
func (r *Repository) FinishMatch(ctx context.Context, matchID string) (*domain.Match, error) {
	return scanMatch(r.pool.QueryRow(ctx, `
		UPDATE matches m
		SET ended_at = CURRENT_TIMESTAMP,
		    status = 'completed'
		WHERE m.id = $1
		RETURNING `+matchColumns, matchID))
}

// UpsertPlayer creates a player or refreshes the display name of an
// existing one.
func (r *Repository) UpsertPlayer(ctx context.Context, player *domain.Player) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO players (id, name)
		VALUES ($1, $2)
		ON CONFLICT (id) DO UPDATE SET name = $2, updated_at = CURRENT_TIMESTAMP
		RETURNING created_at, updated_at
	`, player.ID, player.Name).Scan(&player.CreatedAt, &player.UpdatedAt)
	if err != nil {
		return fmt.Errorf("upserting player: %w", err)
	}
	return nil
}

// EnsureParticipation records a player's presence in a match. Re-joining
// refreshes the join timestamp; the score survives.
func (r *Repository) EnsureParticipation(ctx context.Context, matchID, playerID string) (*domain.MatchPlayer, error) {
	var mp domain.MatchPlayer
	err := r.pool.QueryRow(ctx, `
		INSERT INTO match_players (match_id, player_id, score)
		VALUES ($1, $2, 0)
		ON CONFLICT (match_id, player_id) DO UPDATE SET joined_at = CURRENT_TIMESTAMP
		RETURNING id, match_id, player_id, score, joined_at
	`, matchID, playerID).Scan(&mp.ID, &mp.MatchID, &mp.PlayerID, &mp.Score, &mp.JoinedAt)
	if err != nil {
		return nil, fmt.Errorf("ensuring participation: %w", err)
	}
	return &mp, nil
}

// WithdrawPlayer removes a player from a match, whether they leave on
// their own or an admin kicks them. Their answer rows cascade away.
func (r *Repository) WithdrawPlayer(ctx context.Context, matchID, playerID string) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM match_players WHERE match_id = $1 AND player_id = $2`, matchID, playerID)
	if err != nil {
		return fmt.Errorf("withdrawing player: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrParticipantNotFound
	}
	return nil
}

// ListMatchPlayers returns a match's roster ordered by score, earliest
// joiner first on ties.
func (r *Repository) ListMatchPlayers(ctx context.Context, matchID string) ([]domain.MatchPlayer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT mp.id, mp.match_id, mp.player_id, p.name, mp.score, mp.joined_at
		FROM match_players mp
		JOIN players p ON mp.player_id = p.id
		WHERE mp.match_id = $1
		ORDER BY mp.score DESC, mp.joined_at ASC
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("listing match players: %w", err)
	}
	defer rows.Close()

	var players []domain.MatchPlayer
	for rows.Next() {
		var mp domain.MatchPlayer
		err := rows.Scan(&mp.ID, &mp.MatchID, &mp.PlayerID, &mp.Name, &mp.Score, &mp.JoinedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning match player: %w", err)
		}
		players = append(players, mp)
	}
	return players, rows.Err()
}

// ListActiveMatchIDs returns the ids of matches that have not ended,
// used by the scoreboard sync worker.
func (r *Repository) ListActiveMatchIDs(ctx context.Context) ([]string, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM matches WHERE ended_at IS NULL`)
	if err != nil {
		return nil, fmt.Errorf("listing active matches: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning match id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

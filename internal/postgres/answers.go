package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/squizzy-server/internal/domain"
)

// SubmitAnswer records one player's choice for one question of a match as a
// single transaction. A resubmission for the same (match, player, question)
// replaces the previous answer, and the participant's running score is
// adjusted by the delta between the newly awarded points and whatever the
// replaced answer had earned. The applied delta is returned so callers can
// mirror it into derived views. Everything commits or nothing does.
//
// The participant's match_players row is locked before the prior answer is
// read. Locking the answer row alone is not enough: on a player's first
// submission there is no row to lock, and two racing transactions would
// both read "no prior answer" and both apply their full delta. The
// participant lock serializes all of one player's submissions in a match
// while other players only contend on their own row.
func (r *Repository) SubmitAnswer(ctx context.Context, match *domain.Match, playerID, questionID, choiceID string) (*domain.Answer, int, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	// Re-read the match inside the transaction: completed matches stop
	// accepting answers no matter what the caller resolved earlier.
	var status string
	err = tx.QueryRow(ctx, `SELECT status FROM matches WHERE id = $1`, match.ID).Scan(&status)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, domain.ErrMatchNotFound
		}
		return nil, 0, fmt.Errorf("checking match status: %w", err)
	}
	if domain.MatchStatus(status) == domain.MatchStatusCompleted {
		return nil, 0, domain.ErrMatchEnded
	}

	// The join enforces that the choice belongs to this exact question.
	var isCorrect bool
	var questionPoints int
	err = tx.QueryRow(ctx, `
		SELECT c.is_correct, q.points
		FROM choices c
		JOIN questions q ON c.question_id = q.id
		WHERE c.id = $1 AND q.id = $2
	`, choiceID, questionID).Scan(&isCorrect, &questionPoints)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, domain.ErrInvalidChoice
		}
		return nil, 0, fmt.Errorf("validating choice: %w", err)
	}

	// Serialize this player's submissions before computing any delta.
	var currentScore int
	err = tx.QueryRow(ctx, `
		SELECT score FROM match_players
		WHERE match_id = $1 AND player_id = $2
		FOR UPDATE
	`, match.ID, playerID).Scan(&currentScore)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, 0, domain.ErrParticipantNotFound
		}
		return nil, 0, fmt.Errorf("locking participant: %w", err)
	}

	var prevPoints int
	err = tx.QueryRow(ctx, `
		SELECT points_earned FROM answers
		WHERE match_id = $1 AND player_id = $2 AND question_id = $3
	`, match.ID, playerID, questionID).Scan(&prevPoints)
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return nil, 0, fmt.Errorf("reading prior answer: %w", err)
	}

	awarded := domain.AwardedPoints(isCorrect, questionPoints)
	delta := domain.ScoreDelta(awarded, prevPoints)

	answer := &domain.Answer{
		MatchID:      match.ID,
		PlayerID:     playerID,
		QuestionID:   questionID,
		ChoiceID:     choiceID,
		IsCorrect:    isCorrect,
		PointsEarned: awarded,
	}
	err = tx.QueryRow(ctx, `
		INSERT INTO answers (match_id, player_id, question_id, choice_id, is_correct, points_earned)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (match_id, player_id, question_id)
		DO UPDATE SET
			choice_id = $4,
			is_correct = $5,
			points_earned = $6,
			submitted_at = CURRENT_TIMESTAMP
		RETURNING id, submitted_at
	`, match.ID, playerID, questionID, choiceID, isCorrect, awarded).Scan(&answer.ID, &answer.SubmittedAt)
	if err != nil {
		return nil, 0, fmt.Errorf("upserting answer: %w", err)
	}

	// Relative increment only. The score must never be overwritten with an
	// absolute value here or concurrent scoring of other answers is lost.
	if delta != 0 {
		_, err := tx.Exec(ctx, `
			UPDATE match_players
			SET score = score + $1
			WHERE match_id = $2 AND player_id = $3
		`, delta, match.ID, playerID)
		if err != nil {
			return nil, 0, fmt.Errorf("applying score delta: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, 0, fmt.Errorf("committing answer: %w", err)
	}
	return answer, delta, nil
}

// ListMatchAnswers returns all answers recorded for a match, newest first.
func (r *Repository) ListMatchAnswers(ctx context.Context, matchID string) ([]domain.Answer, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT a.id, a.match_id, a.player_id, a.question_id, a.choice_id,
		       a.is_correct, a.points_earned, a.submitted_at, p.name
		FROM answers a
		JOIN players p ON a.player_id = p.id
		WHERE a.match_id = $1
		ORDER BY a.submitted_at DESC
	`, matchID)
	if err != nil {
		return nil, fmt.Errorf("listing answers: %w", err)
	}
	defer rows.Close()

	var answers []domain.Answer
	for rows.Next() {
		var a domain.Answer
		err := rows.Scan(&a.ID, &a.MatchID, &a.PlayerID, &a.QuestionID, &a.ChoiceID,
			&a.IsCorrect, &a.PointsEarned, &a.SubmittedAt, &a.PlayerName)
		if err != nil {
			return nil, fmt.Errorf("scanning answer: %w", err)
		}
		answers = append(answers, a)
	}
	return answers, rows.Err()
}

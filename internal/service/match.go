package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/squizzy-server/internal/domain"
)

// SubmitAnswer validates a submission, resolves the match by slug and runs
// the scoring transaction. Resubmitting the same question replaces the
// previous answer; the score moves by the difference, so sending the same
// answer twice changes nothing.
func (s *Service) SubmitAnswer(ctx context.Context, sub domain.AnswerSubmission) (*domain.Answer, error) {
	if err := sub.Validate(); err != nil {
		return nil, err
	}

	match, err := s.store.GetMatchBySlug(ctx, sub.MatchSlug)
	if err != nil {
		return nil, err
	}
	if match.Ended() {
		return nil, domain.ErrMatchEnded
	}

	answer, delta, err := s.store.SubmitAnswer(ctx, match, sub.PlayerID, sub.QuestionID, sub.ChoiceID)
	if err != nil {
		return nil, err
	}

	if delta != 0 {
		if err := s.cache.AdjustScore(ctx, match.ID, sub.PlayerID, "", delta); err != nil {
			s.logger.Warn("failed to adjust cached scoreboard",
				"match_id", match.ID,
				"player_id", sub.PlayerID,
				"error", err)
		}
	}
	return answer, nil
}

// JoinByPIN resolves an active match from its 4-digit join code
func (s *Service) JoinByPIN(ctx context.Context, pin string) (*domain.Match, error) {
	if !domain.ValidPIN(pin) {
		return nil, domain.ErrInvalidPIN
	}
	return s.store.FindMatchByPIN(ctx, pin)
}

// GetMatchBySlug resolves a match by its routing slug
func (s *Service) GetMatchBySlug(ctx context.Context, slug string) (*domain.Match, error) {
	return s.store.GetMatchBySlug(ctx, slug)
}

// Join registers a player in a match. The player identity is upserted so
// a rejoin under the same id refreshes the name but keeps the score.
func (s *Service) Join(ctx context.Context, req domain.JoinMatchRequest) (*domain.MatchPlayer, error) {
	if req.Name == "" {
		return nil, &domain.MissingFieldError{Field: "name"}
	}
	if req.MatchSlug == "" {
		return nil, &domain.MissingFieldError{Field: "match_slug"}
	}
	if req.PlayerID == "" {
		req.PlayerID = uuid.NewString()
	}

	match, err := s.store.GetMatchBySlug(ctx, req.MatchSlug)
	if err != nil {
		return nil, err
	}
	if match.Ended() {
		return nil, domain.ErrMatchEnded
	}

	player := &domain.Player{ID: req.PlayerID, Name: req.Name}
	if err := s.store.UpsertPlayer(ctx, player); err != nil {
		return nil, err
	}

	mp, err := s.store.EnsureParticipation(ctx, match.ID, req.PlayerID)
	if err != nil {
		return nil, err
	}
	mp.Name = player.Name

	// Seed the cached board so the player shows up before their first answer.
	if err := s.cache.AdjustScore(ctx, match.ID, req.PlayerID, player.Name, 0); err != nil {
		s.logger.Warn("failed to seed cached scoreboard",
			"match_id", match.ID,
			"player_id", req.PlayerID,
			"error", err)
	}
	return mp, nil
}

// Withdraw removes a player from a match along with their answers and score
func (s *Service) Withdraw(ctx context.Context, slug, playerID string) error {
	match, err := s.store.GetMatchBySlug(ctx, slug)
	if err != nil {
		return err
	}
	if err := s.store.WithdrawPlayer(ctx, match.ID, playerID); err != nil {
		return err
	}
	if err := s.cache.RemoveScoreboardPlayer(ctx, match.ID, playerID); err != nil {
		s.logger.Warn("failed to evict player from cached scoreboard",
			"match_id", match.ID,
			"player_id", playerID,
			"error", err)
	}
	return nil
}

// MatchDetails assembles the full state a client polls for: the match, its
// quiz's questions, the roster and all recorded answers.
func (s *Service) MatchDetails(ctx context.Context, slug string) (*domain.MatchDetails, error) {
	match, err := s.store.GetMatchBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	questions, err := s.store.ListQuestions(ctx, match.QuizID)
	if err != nil {
		return nil, err
	}
	players, err := s.store.ListMatchPlayers(ctx, match.ID)
	if err != nil {
		return nil, err
	}
	answers, err := s.store.ListMatchAnswers(ctx, match.ID)
	if err != nil {
		return nil, err
	}

	details := &domain.MatchDetails{
		Match:     *match,
		Questions: questions,
		Players:   players,
		Answers:   answers,
	}
	if i := match.CurrentQuestionIndex; i >= 0 && i < len(questions) {
		details.CurrentQuestionKey = questions[i].ID
	}
	return details, nil
}

// Scoreboard returns a match's ranked standings. The cached board is
// served when present; otherwise it is rebuilt from the database.
func (s *Service) Scoreboard(ctx context.Context, slug string) ([]domain.ScoreboardEntry, error) {
	match, err := s.store.GetMatchBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}

	entries, err := s.cache.GetScoreboard(ctx, match.ID)
	if err != nil {
		s.logger.Warn("failed to read cached scoreboard", "match_id", match.ID, "error", err)
	}
	if len(entries) > 0 {
		return entries, nil
	}

	players, err := s.store.ListMatchPlayers(ctx, match.ID)
	if err != nil {
		return nil, fmt.Errorf("rebuilding scoreboard: %w", err)
	}
	if len(players) == 0 {
		return nil, nil
	}

	if err := s.cache.SetScores(ctx, match.ID, players); err != nil {
		s.logger.Warn("failed to rebuild cached scoreboard", "match_id", match.ID, "error", err)
	}

	entries = make([]domain.ScoreboardEntry, len(players))
	for i, mp := range players {
		entries[i] = domain.ScoreboardEntry{
			Rank:     int64(i + 1),
			PlayerID: mp.PlayerID,
			Name:     mp.Name,
			Score:    mp.Score,
		}
	}
	return entries, nil
}

package domain

import "time"

// Answer is the record of one player's submitted choice for one question
// within one match. There is at most one per (match, player, question);
// a resubmission replaces the previous record rather than accumulating.
type Answer struct {
	ID           int64     `json:"id"`
	MatchID      string    `json:"match_id"`
	PlayerID     string    `json:"player_id"`
	QuestionID   string    `json:"question_id"`
	ChoiceID     string    `json:"choice_id"`
	IsCorrect    bool      `json:"is_correct"`
	PointsEarned int       `json:"points_earned"`
	SubmittedAt  time.Time `json:"submitted_at"`

	// PlayerName is populated by detail queries only.
	PlayerName string `json:"player_name,omitempty"`
}

// AnswerSubmission is the wire payload for submitting an answer. The
// match is addressed by slug; resolution happens before the scoring
// transaction runs.
type AnswerSubmission struct {
	PlayerID   string `json:"player_id"`
	MatchSlug  string `json:"match_slug"`
	QuestionID string `json:"question_id"`
	ChoiceID   string `json:"choice_id"`
}

// Validate checks that all required fields are present.
func (s *AnswerSubmission) Validate() error {
	switch {
	case s.PlayerID == "":
		return &MissingFieldError{Field: "player_id"}
	case s.MatchSlug == "":
		return &MissingFieldError{Field: "match_slug"}
	case s.QuestionID == "":
		return &MissingFieldError{Field: "question_id"}
	case s.ChoiceID == "":
		return &MissingFieldError{Field: "choice_id"}
	}
	return nil
}

// AwardedPoints returns the points credited for a single answer: the full
// question value when the choice is correct, zero otherwise.
func AwardedPoints(correct bool, questionPoints int) int {
	if correct {
		return questionPoints
	}
	return 0
}

// ScoreDelta returns the signed adjustment to apply to a participant's
// running score when an answer is inserted or replaced. The previous
// awarded points default to zero when no prior answer existed.
func ScoreDelta(awarded, previouslyAwarded int) int {
	return awarded - previouslyAwarded
}

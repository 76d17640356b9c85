package domain

import (
	"regexp"
	"time"
)

// MatchStatus represents the lifecycle state of a match
type MatchStatus string

const (
	MatchStatusWaiting    MatchStatus = "waiting"
	MatchStatusInProgress MatchStatus = "in_progress"
	MatchStatusCompleted  MatchStatus = "completed"
)

// Match is one live instance of a quiz being played by a group of players.
// The slug is the routing key; the PIN is a short join code that is only
// required to be unique among matches that have not ended.
type Match struct {
	ID                   string      `json:"id"`
	Slug                 string      `json:"slug"`
	PIN                  string      `json:"pin"`
	QuizID               string      `json:"quiz_id"`
	Status               MatchStatus `json:"status"`
	CurrentQuestionIndex int         `json:"current_question_index"`
	StartedAt            *time.Time  `json:"started_at,omitempty"`
	EndedAt              *time.Time  `json:"ended_at,omitempty"`
	CreatedAt            time.Time   `json:"created_at"`

	// Populated by list/detail queries only.
	Quiz        *Quiz `json:"quiz,omitempty"`
	PlayerCount int   `json:"player_count,omitempty"`
}

// Ended reports whether the match no longer accepts answers.
func (m *Match) Ended() bool {
	return m.Status == MatchStatusCompleted || m.EndedAt != nil
}

// Player is a participant identity, upserted by id. Re-using an id
// refreshes the display name.
type Player struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MatchPlayer records a player's presence in one match and their running
// score. The score is derived state: its sole legitimate mutator is the
// answer-scoring transaction.
type MatchPlayer struct {
	ID       int64     `json:"id"`
	MatchID  string    `json:"match_id"`
	PlayerID string    `json:"player_id"`
	Name     string    `json:"name,omitempty"`
	Score    int       `json:"score"`
	JoinedAt time.Time `json:"joined_at"`
}

// MatchDetails is the polling target: the full state a client needs to
// render a match, refetched on an interval.
type MatchDetails struct {
	Match              Match         `json:"match"`
	Questions          []Question    `json:"questions"`
	Players            []MatchPlayer `json:"players"`
	Answers            []Answer      `json:"answers"`
	CurrentQuestionKey string        `json:"current_question_key,omitempty"`
}

// CreateMatchRequest is the admin payload for hosting a new match.
type CreateMatchRequest struct {
	QuizID string `json:"quiz_id"`
	Slug   string `json:"slug"`
}

// UpdateMatchRequest is a partial update over a fixed set of optional
// fields; only fields that are present are applied.
type UpdateMatchRequest struct {
	Slug   *string      `json:"slug,omitempty"`
	QuizID *string      `json:"quiz_id,omitempty"`
	Status *MatchStatus `json:"status,omitempty"`
}

// JoinMatchRequest registers (or refreshes) a player in a match.
type JoinMatchRequest struct {
	PlayerID  string `json:"player_id"`
	Name      string `json:"name"`
	MatchSlug string `json:"match_slug"`
}

var (
	slugPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
	pinPattern  = regexp.MustCompile(`^\d{4}$`)
)

// ValidSlug reports whether s is a well-formed match slug.
func ValidSlug(s string) bool {
	return slugPattern.MatchString(s)
}

// ValidPIN reports whether s is a well-formed 4-digit join PIN.
func ValidPIN(s string) bool {
	return pinPattern.MatchString(s)
}

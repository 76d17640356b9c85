package domain

// ScoreboardEntry is a ranked view of one participant's score within a
// match, ordered by score descending with earlier joiners ranked first
// on ties.
type ScoreboardEntry struct {
	Rank     int64  `json:"rank"`
	PlayerID string `json:"player_id"`
	Name     string `json:"name,omitempty"`
	Score    int    `json:"score"`
}

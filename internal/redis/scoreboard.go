package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"github.com/squizzy-server/internal/domain"
)

// AdjustScore applies a score delta to a player in a match's cached
// scoreboard and remembers the display name for ranked reads.
func (s *Store) AdjustScore(ctx context.Context, matchID, playerID, name string, delta int) error {
	pipe := s.client.Pipeline()
	pipe.ZIncrBy(ctx, s.scoreboardKey(matchID), float64(delta), playerID)
	if name != "" {
		pipe.HSet(ctx, s.playerNamesKey(matchID), playerID, name)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("adjusting score: %w", err)
	}
	return nil
}

// SetScores replaces a match's cached scoreboard with the given players,
// used when rebuilding the cache from the database.
func (s *Store) SetScores(ctx context.Context, matchID string, players []domain.MatchPlayer) error {
	key := s.scoreboardKey(matchID)
	namesKey := s.playerNamesKey(matchID)

	pipe := s.client.Pipeline()
	pipe.Del(ctx, key)
	for _, mp := range players {
		pipe.ZAdd(ctx, key, redis.Z{
			Score:  float64(mp.Score),
			Member: mp.PlayerID,
		})
		if mp.Name != "" {
			pipe.HSet(ctx, namesKey, mp.PlayerID, mp.Name)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("setting scores: %w", err)
	}
	return nil
}

// GetScoreboard returns a match's cached scoreboard ranked by score
// descending. A missing key yields an empty board, not an error.
func (s *Store) GetScoreboard(ctx context.Context, matchID string) ([]domain.ScoreboardEntry, error) {
	results, err := s.client.ZRevRangeWithScores(ctx, s.scoreboardKey(matchID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("getting scoreboard: %w", err)
	}
	if len(results) == 0 {
		return nil, nil
	}

	names, err := s.client.HGetAll(ctx, s.playerNamesKey(matchID)).Result()
	if err != nil {
		return nil, fmt.Errorf("getting player names: %w", err)
	}

	entries := make([]domain.ScoreboardEntry, len(results))
	for i, result := range results {
		playerID := result.Member.(string)
		entries[i] = domain.ScoreboardEntry{
			Rank:     int64(i + 1),
			PlayerID: playerID,
			Name:     names[playerID],
			Score:    int(result.Score),
		}
	}
	return entries, nil
}

// RemoveScoreboardPlayer drops a player from a match's cached scoreboard
func (s *Store) RemoveScoreboardPlayer(ctx context.Context, matchID, playerID string) error {
	pipe := s.client.Pipeline()
	pipe.ZRem(ctx, s.scoreboardKey(matchID), playerID)
	pipe.HDel(ctx, s.playerNamesKey(matchID), playerID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("removing scoreboard player: %w", err)
	}
	return nil
}

// DeleteScoreboard removes a match's cached scoreboard entirely
func (s *Store) DeleteScoreboard(ctx context.Context, matchID string) error {
	pipe := s.client.Pipeline()
	pipe.Del(ctx, s.scoreboardKey(matchID))
	pipe.Del(ctx, s.playerNamesKey(matchID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("deleting scoreboard: %w", err)
	}
	return nil
}

package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/squizzy-server/internal/domain"
)

// SaveSession stores an admin session under its token with the given TTL.
// Expiry is handled by Redis; nothing sweeps sessions in-process, so the
// store works unchanged across multiple server instances.
func (s *Store) SaveSession(ctx context.Context, session *domain.AdminSession, ttl time.Duration) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("marshaling session: %w", err)
	}
	if err := s.client.Set(ctx, s.sessionKey(session.Token), data, ttl).Err(); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return nil
}

// GetSession looks up an admin session by token. Expired or unknown
// tokens report ErrNotAuthenticated.
func (s *Store) GetSession(ctx context.Context, token string) (*domain.AdminSession, error) {
	data, err := s.client.Get(ctx, s.sessionKey(token)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, domain.ErrNotAuthenticated
		}
		return nil, fmt.Errorf("getting session: %w", err)
	}

	var session domain.AdminSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("unmarshaling session: %w", err)
	}
	return &session, nil
}

// DeleteSession removes an admin session (logout)
func (s *Store) DeleteSession(ctx context.Context, token string) error {
	if err := s.client.Del(ctx, s.sessionKey(token)).Err(); err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	return nil
}

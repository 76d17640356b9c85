package redis

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"github.com/squizzy-server/internal/config"
)

// Store provides Redis-backed shared state: admin sessions with TTL and
// per-match scoreboard caches.
type Store struct {
	client *redis.Client
	logger *slog.Logger
}

// NewStore creates a new Redis store
func NewStore(cfg *config.RedisConfig, logger *slog.Logger) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     cfg.PoolSize,
		MinIdleConns: cfg.MinIdleConns,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	})

	ctx := context.Background()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connecting to redis: %w", err)
	}

	return &Store{
		client: client,
		logger: logger,
	}, nil
}

// NewStoreWithClient wraps an existing client, used by tests
func NewStoreWithClient(client *redis.Client, logger *slog.Logger) *Store {
	return &Store{client: client, logger: logger}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) scoreboardKey(matchID string) string {
	return fmt.Sprintf("match:%s:scoreboard", matchID)
}

func (s *Store) playerNamesKey(matchID string) string {
	return fmt.Sprintf("match:%s:players", matchID)
}

func (s *Store) sessionKey(token string) string {
	return "admin:session:" + token
}

package worker

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/squizzy-server/internal/config"
	"github.com/squizzy-server/internal/domain"
)

// MatchSource lists the matches and rosters to mirror. Satisfied by
// *postgres.Repository.
type MatchSource interface {
	ListActiveMatchIDs(ctx context.Context) ([]string, error)
	ListMatchPlayers(ctx context.Context, matchID string) ([]domain.MatchPlayer, error)
}

// BoardCache holds the mirrored scoreboards. Satisfied by *redis.Store.
type BoardCache interface {
	SetScores(ctx context.Context, matchID string, players []domain.MatchPlayer) error
}

// SyncWorker periodically rebuilds the cached scoreboards from the
// database. The database is the source of truth for scores; the cache
// only ever loses increments (missed best-effort writes), so a periodic
// full rebuild converges it.
type SyncWorker struct {
	source  MatchSource
	cache   BoardCache
	config  *config.SyncConfig
	logger  *slog.Logger
	stopCh  chan struct{}
	doneCh  chan struct{}
	mu      sync.Mutex
	running bool
}

// NewSyncWorker creates a new sync worker
func NewSyncWorker(source MatchSource, cache BoardCache, cfg *config.SyncConfig, logger *slog.Logger) *SyncWorker {
	return &SyncWorker{
		source: source,
		cache:  cache,
		config: cfg,
		logger: logger,
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background sync process
func (w *SyncWorker) Start(ctx context.Context) error {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return nil
	}
	w.running = true
	w.mu.Unlock()

	w.logger.Info("sync worker started", "interval", w.config.Interval)

	go w.run(ctx)
	return nil
}

// Stop stops the background sync process
func (w *SyncWorker) Stop() error {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return nil
	}
	w.mu.Unlock()

	close(w.stopCh)
	<-w.doneCh

	w.mu.Lock()
	w.running = false
	w.mu.Unlock()

	w.logger.Info("sync worker stopped")
	return nil
}

// run is the main worker loop
func (w *SyncWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.syncAll(ctx)
		}
	}
}

// syncAll rebuilds the cached scoreboard of every active match
func (w *SyncWorker) syncAll(ctx context.Context) {
	startTime := time.Now()

	matchIDs, err := w.source.ListActiveMatchIDs(ctx)
	if err != nil {
		w.logger.Error("failed to list active matches for sync", "error", err)
		return
	}

	syncedCount := 0
	errorCount := 0

	for _, matchID := range matchIDs {
		if err := w.SyncMatch(ctx, matchID); err != nil {
			w.logger.Error("failed to sync scoreboard",
				"match_id", matchID,
				"error", err,
			)
			errorCount++
		} else {
			syncedCount++
		}
	}

	w.logger.Info("sync cycle completed",
		"duration", time.Since(startTime),
		"synced", syncedCount,
		"errors", errorCount,
	)
}

// SyncMatch rebuilds one match's cached scoreboard from the database
func (w *SyncWorker) SyncMatch(ctx context.Context, matchID string) error {
	players, err := w.source.ListMatchPlayers(ctx, matchID)
	if err != nil {
		return err
	}
	if len(players) == 0 {
		return nil
	}

	if err := w.cache.SetScores(ctx, matchID, players); err != nil {
		return err
	}

	w.logger.Debug("synced scoreboard",
		"match_id", matchID,
		"player_count", len(players),
	)
	return nil
}

// SyncAllFromDatabase rebuilds every active match's cached scoreboard,
// used on startup so a cold or flushed cache recovers before traffic.
func (w *SyncWorker) SyncAllFromDatabase(ctx context.Context) error {
	w.logger.Info("rebuilding cached scoreboards from database")

	matchIDs, err := w.source.ListActiveMatchIDs(ctx)
	if err != nil {
		return err
	}

	for _, matchID := range matchIDs {
		if err := w.SyncMatch(ctx, matchID); err != nil {
			w.logger.Error("failed to rebuild scoreboard",
				"match_id", matchID,
				"error", err,
			)
			// Continue with other matches
		}
	}

	w.logger.Info("completed scoreboard rebuild", "count", len(matchIDs))
	return nil
}

// IsRunning returns whether the worker is currently running
func (w *SyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// RunOnce runs a single sync cycle (useful for manual triggers)
func (w *SyncWorker) RunOnce(ctx context.Context) {
	w.syncAll(ctx)
}

package core

// scheduler.go runs history retention in the background.
//
// Each run deletes entries older than the retention window from the history
// store, once on start and then every CheckInterval. A failed run is logged
// and retried on the next tick; it never stops the server.

import (
	"context"
	"time"
)

// HistoryPruner is implemented by history stores that can drop old entries.
type HistoryPruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

var _ HistoryPruner = (*MemoryHistory)(nil)

// RetentionConfig holds configuration for the retention scheduler.
type RetentionConfig struct {
	MaxAge        time.Duration // Entries older than this are pruned; zero disables pruning
	CheckInterval time.Duration // How often to run (default: 24h)
}

// StartHistoryPruner prunes expired history until ctx is cancelled. It
// returns at once when retention is disabled or the store cannot prune.
func (s *Service) StartHistoryPruner(ctx context.Context) {
	cfg := s.retention
	pruner, ok := s.history.(HistoryPruner)
	if !ok || cfg.MaxAge <= 0 {
		s.logger.Info("history pruning disabled")
		return
	}
	if cfg.CheckInterval <= 0 {
		cfg.CheckInterval = 24 * time.Hour
	}

	s.logger.Info("history pruner started",
		"max_age", cfg.MaxAge,
		"interval", cfg.CheckInterval,
	)

	s.pruneHistory(ctx, pruner, cfg.MaxAge)

	ticker := time.NewTicker(cfg.CheckInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("history pruner stopped")
			return
		case <-ticker.C:
			s.pruneHistory(ctx, pruner, cfg.MaxAge)
		}
	}
}

// pruneHistory performs one retention pass.
func (s *Service) pruneHistory(ctx context.Context, pruner HistoryPruner, maxAge time.Duration) {
	start := s.now()
	pruned, err := pruner.Prune(ctx, start.Add(-maxAge))
	if err != nil {
		s.logger.Error("history prune failed", "error", err)
		return
	}
	s.logger.Info("pruned parse history",
		"entries_pruned", pruned,
		"duration_ms", s.now().Sub(start).Milliseconds(),
	)
}

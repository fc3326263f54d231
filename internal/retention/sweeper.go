// Package retention enforces the rolling data-retention window with a
// periodic prune over the point store.
package retention

import (
	"context"
	"log/slog"
	"time"

	"firewatch-backend/internal/storage"
)

// Sweeper prunes points older than the retention window on a fixed
// cadence. Purely time-driven; ingestion volume never triggers a run.
type Sweeper struct {
	points    *storage.PointStore
	logger    *slog.Logger
	retention time.Duration
	interval  time.Duration
	now       func() time.Time
}

func NewSweeper(points *storage.PointStore, logger *slog.Logger, retention, interval time.Duration) *Sweeper {
	return &Sweeper{
		points:    points,
		logger:    logger,
		retention: retention,
		interval:  interval,
		now:       time.Now,
	}
}

// Start runs the sweep loop until ctx is cancelled. A failed sweep is
// logged and retried on the next scheduled tick, never immediately.
func (s *Sweeper) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.RunOnce(s.now())
		case <-ctx.Done():
			return
		}
	}
}

// RunOnce executes a single sweep with the given reference time. Running
// twice with no intervening writes removes nothing the second time.
func (s *Sweeper) RunOnce(now time.Time) {
	cutoff := now.UTC().Add(-s.retention)
	removed, err := s.points.Prune(cutoff)
	if err != nil {
		s.logger.Error("retention sweep failed",
			slog.String("error", err.Error()))
		return
	}
	s.logger.Info("retention sweep completed",
		slog.Int("removed", removed),
		slog.Time("cutoff", cutoff))
}

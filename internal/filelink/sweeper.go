package filelink

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper periodically purges link records that can never be active again.
type Sweeper struct {
	purger   Purger
	interval time.Duration
	now      func() time.Time
	logger   *slog.Logger
}

// NewSweeper returns a Sweeper that runs every interval. A non-positive
// interval yields a Sweeper whose Run returns immediately.
func NewSweeper(p Purger, interval time.Duration, logger *slog.Logger) *Sweeper {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sweeper{
		purger:   p,
		interval: interval,
		now:      time.Now,
		logger:   logger,
	}
}

// Run sweeps on every tick until ctx is cancelled. Failed sweeps are logged
// and retried on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	if s.interval <= 0 || s.purger == nil {
		return
	}

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.InfoContext(ctx, "expired link sweeper started", "interval", s.interval.String())

	for {
		select {
		case <-ctx.Done():
			s.logger.InfoContext(ctx, "expired link sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep performs a single purge and returns the number of records removed.
func (s *Sweeper) Sweep(ctx context.Context) int64 {
	n, err := s.purger.DeleteExpired(ctx, s.now())
	if err != nil {
		s.logger.ErrorContext(ctx, "expired link sweep failed", "error", err.Error())
		return 0
	}
	if n > 0 {
		s.logger.InfoContext(ctx, "expired links purged", "count", n)
	}
	return n
}

package notification

import (
	"context"
	"log/slog"
	"time"
)

type Purger interface {
	PurgeExpired(ctx context.Context, now time.Time) (int64, error)
}

// Sweeper purges expired notifications once at start and then on every tick
// until its context is cancelled.
type Sweeper struct {
	purger   Purger
	interval time.Duration
	logger   *slog.Logger
	now      func() time.Time
}

func NewSweeper(purger Purger, interval time.Duration, logger *slog.Logger) *Sweeper {
	if interval <= 0 {
		interval = 24 * time.Hour
	}
	return &Sweeper{
		purger:   purger,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Sweeper) Run(ctx context.Context) {
	s.logger.Info("notification sweeper started", "interval", s.interval)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.sweep(ctx)
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("notification sweeper stopped")
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *Sweeper) sweep(ctx context.Context) {
	if _, err := s.purger.PurgeExpired(ctx, s.now()); err != nil {
		s.logger.Warn("sweep failed, retrying next tick", "error", err)
	}
}

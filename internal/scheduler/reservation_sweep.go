package scheduler

import (
	"context"
	"time"

	"funnel_backend/platform/logger"
)

const defaultReservationSweepInterval = 30 * time.Second

// ReservationExpirer purges reservations older than their TTL.
type ReservationExpirer interface {
	ExpireStale(ctx context.Context, now time.Time) (int, error)
}

// ReservationSweep periodically purges stale reservations so shared stores
// stay small between requests.
type ReservationSweep struct {
	expirer  ReservationExpirer
	log      *logger.Logger
	interval time.Duration
}

func NewReservationSweep(expirer ReservationExpirer, log *logger.Logger, interval time.Duration) *ReservationSweep {
	if interval <= 0 {
		interval = defaultReservationSweepInterval
	}
	return &ReservationSweep{expirer: expirer, log: log, interval: interval}
}

func (s *ReservationSweep) Run(ctx context.Context) {
	if s == nil || s.expirer == nil {
		return
	}

	s.sweep(ctx)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.sweep(ctx)
		}
	}
}

func (s *ReservationSweep) sweep(ctx context.Context) {
	removed, err := s.expirer.ExpireStale(ctx, time.Now())
	if err != nil {
		s.log.Warn("reservation sweep failed", "error", err)
		return
	}
	if removed > 0 {
		s.log.Info("reservation sweep removed stale holds", "removed", removed)
	}
}

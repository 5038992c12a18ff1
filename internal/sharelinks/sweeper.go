package sharelinks

import (
	"context"
	"time"

	"portfolio-backend/internal/shared/telemetry"
)

// DefaultSweepInterval is used when no interval is configured.
const DefaultSweepInterval = 15 * time.Minute

// Sweeper periodically removes expired snapshots. Resolve already refuses
// expired links, so the sweeper only reclaims storage.
type Sweeper struct {
	Manager  *Manager
	Interval time.Duration
}

func NewSweeper(m *Manager, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = DefaultSweepInterval
	}
	return &Sweeper{Manager: m, Interval: interval}
}

// Start runs the sweep loop in a goroutine until ctx is done.
func (s *Sweeper) Start(ctx context.Context) {
	go s.run(ctx)
}

func (s *Sweeper) run(ctx context.Context) {
	ticker := time.NewTicker(s.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			telemetry.Info("share.sweeper_stopped", nil)
			return
		case <-ticker.C:
			s.sweepOnce(ctx)
		}
	}
}

func (s *Sweeper) sweepOnce(ctx context.Context) {
	n, err := s.Manager.Sweep(ctx)
	if err != nil {
		telemetry.Error("share.sweep_failed", map[string]any{"error": err})
		return
	}
	if n > 0 {
		telemetry.Info("share.swept", map[string]any{"deleted": n})
	}
}

package workers

import (
	"context"
	"log/slog"
	"time"

	"orai-chat/presence"
)

// HeartbeatWorker is the single shared scheduler behind channel liveness:
// one ticker sweeps every local channel, so connection count never
// translates into timer or goroutine count.
type HeartbeatWorker struct {
	log      *slog.Logger
	registry *presence.Registry
	interval time.Duration
}

func NewHeartbeatWorker(log *slog.Logger, registry *presence.Registry, interval time.Duration) *HeartbeatWorker {
	return &HeartbeatWorker{log: log, registry: registry, interval: interval}
}

// Run pushes keep-alive frames on a fixed cadence until the context ends.
// Failed writes and expired lifetimes are cleaned up by the sweep itself.
func (w *HeartbeatWorker) Run(ctx context.Context) error {
	w.log.Info("Starting presence heartbeat worker", "interval", w.interval)
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			w.registry.Sweep(ctx, now)
		}
	}
}

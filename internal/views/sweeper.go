package views

import (
	"context"
	"log/slog"
	"time"
)

// EvictCallback is called for each tab the sweeper releases.
type EvictCallback func(tabID string)

// StartIdleSweeper runs a background goroutine that periodically releases
// tabs whose view has not been used for ttl.
func StartIdleSweeper(ctx context.Context, r *Registry, interval, ttl time.Duration, onEvict EvictCallback) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		slog.Info("Idle tab sweeper started", "interval", interval, "ttl", ttl)

		for {
			select {
			case <-ticker.C:
				sweepIdleTabs(r, ttl, onEvict)
			case <-ctx.Done():
				slog.Info("Idle tab sweeper shutting down", "reason", ctx.Err())
				return
			}
		}
	}()
}

func sweepIdleTabs(r *Registry, ttl time.Duration, onEvict EvictCallback) int {
	evicted := r.EvictIdle(r.now().Add(-ttl))
	if len(evicted) == 0 {
		return 0
	}
	slog.Info("Released idle tabs", "count", len(evicted), "ttl", ttl)
	for _, tabID := range evicted {
		if onEvict != nil {
			onEvict(tabID)
		}
	}
	return len(evicted)
}

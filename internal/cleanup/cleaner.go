package cleanup

import (
	"context"
	"log/slog"
	"time"

	"github.com/terra-clan/skill-assessment/internal/assessor"
)

// Cleaner periodically expires forms that were never submitted
type Cleaner struct {
	manager  assessor.Manager
	interval time.Duration
}

// NewCleaner creates a new cleanup worker
func NewCleaner(manager assessor.Manager, interval time.Duration) *Cleaner {
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	return &Cleaner{
		manager:  manager,
		interval: interval,
	}
}

// Start begins the cleanup worker in a goroutine
func (c *Cleaner) Start(ctx context.Context) {
	go c.run(ctx)
}

func (c *Cleaner) run(ctx context.Context) {
	slog.Info("cleanup worker started", "interval", c.interval)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	// Run immediately on start
	c.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("cleanup worker stopped")
			return
		case <-ticker.C:
			c.RunOnce(ctx)
		}
	}
}

// RunOnce expires every stale form and returns how many were expired
func (c *Cleaner) RunOnce(ctx context.Context) int {
	slog.Debug("running cleanup cycle")

	expired, err := c.manager.GetExpired(ctx)
	if err != nil {
		slog.Error("failed to get expired forms", "error", err)
		return 0
	}

	if len(expired) == 0 {
		slog.Debug("no expired forms found")
		return 0
	}

	slog.Info("found expired forms", "count", len(expired))

	done := 0
	for _, f := range expired {
		if err := c.manager.ExpireForm(ctx, f); err != nil {
			slog.Error("failed to expire form", "error", err, "id", f.ID)
			continue
		}
		slog.Info("form expired", "id", f.ID, "user", f.UserID, "expired_at", f.ExpiresAt)
		done++
	}
	return done
}

package app

import (
	"context"
	"log/slog"
	"time"
)

// Sweeper runs one cleanup pass
type Sweeper interface {
	Sweep(ctx context.Context) error
}

// Janitor periodically asks the coordinator to clean up idle rooms and
// players. It never touches room state itself.
type Janitor struct {
	target   Sweeper
	interval time.Duration
	logger   *slog.Logger
}

// NewJanitor creates a janitor that sweeps every interval
func NewJanitor(target Sweeper, interval time.Duration, logger *slog.Logger) *Janitor {
	return &Janitor{
		target:   target,
		interval: interval,
		logger:   logger,
	}
}

// Run sweeps until ctx is cancelled
func (j *Janitor) Run(ctx context.Context) error {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := j.target.Sweep(ctx); err != nil && ctx.Err() == nil {
				j.logger.Warn("janitor sweep not queued", "error", err)
			}
		}
	}
}

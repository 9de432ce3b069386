package worker

import (
	"context"
	"time"

	"fashionstock-dashboard/internal/util"

	"go.uber.org/zap"
)

// Sweeper closes idle carts
type Sweeper interface {
	Sweep(maxIdle time.Duration) int
}

// CartJanitor closes carts abandoned at the till
type CartJanitor struct {
	carts    Sweeper
	interval time.Duration
	maxIdle  time.Duration
	logger   *zap.Logger
}

func NewCartJanitor(carts Sweeper, interval, maxIdle time.Duration) *CartJanitor {
	return &CartJanitor{carts: carts, interval: interval, maxIdle: maxIdle, logger: util.GetLogger()}
}

// Run sweeps on every tick until ctx is done
func (j *CartJanitor) Run(ctx context.Context) {
	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := j.carts.Sweep(j.maxIdle); n > 0 {
				j.logger.Info("Closed idle carts", zap.Int("count", n), zap.Duration("max_idle", j.maxIdle))
			}
		}
	}
}

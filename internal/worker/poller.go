package worker

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"fashionstock-dashboard/internal/service"
	"fashionstock-dashboard/internal/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const refreshLockKey = "dashboard-refresh"

// Refresher rebuilds the dashboard summary
type Refresher interface {
	Refresh(ctx context.Context) *service.Dashboard
}

// Locker is a lease shared by every replica
type Locker interface {
	AcquireLock(ctx context.Context, key, token string, ttl time.Duration) (bool, error)
	ReleaseLock(ctx context.Context, key, token string) error
}

// DashboardPoller refreshes the dashboard on a fixed interval. A tick that
// fires while the previous refresh is still running is skipped.
type DashboardPoller struct {
	dashboard Refresher
	locker    Locker
	interval  time.Duration
	lockTTL   time.Duration
	busy      atomic.Bool
	logger    *zap.Logger
}

// NewDashboardPoller creates a poller. locker may be nil for a single replica.
func NewDashboardPoller(dashboard Refresher, locker Locker, interval time.Duration) *DashboardPoller {
	return &DashboardPoller{
		dashboard: dashboard,
		locker:    locker,
		interval:  interval,
		lockTTL:   interval,
		logger:    util.GetLogger(),
	}
}

// Run refreshes once immediately and then on every tick until ctx is done.
// It waits for an in-flight refresh before returning.
func (p *DashboardPoller) Run(ctx context.Context) {
	p.logger.Info("Starting dashboard poller", zap.Duration("interval", p.interval))

	var wg sync.WaitGroup
	defer wg.Wait()

	launch := func() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.Tick(ctx)
		}()
	}

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	launch()
	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Stopping dashboard poller")
			return
		case <-ticker.C:
			launch()
		}
	}
}

// Tick runs one refresh and reports whether it happened.
func (p *DashboardPoller) Tick(ctx context.Context) bool {
	if !p.busy.CompareAndSwap(false, true) {
		util.PollerTicksSkipped.Inc()
		p.logger.Debug("Previous dashboard refresh still running, skipping tick")
		return false
	}
	defer p.busy.Store(false)

	if p.locker != nil {
		token := uuid.New().String()
		ok, err := p.locker.AcquireLock(ctx, refreshLockKey, token, p.lockTTL)
		if err != nil {
			p.logger.Warn("Refresh lock unavailable, refreshing anyway", zap.Error(err))
		} else if !ok {
			p.logger.Debug("Another replica holds the refresh lock")
			return false
		} else {
			defer func() {
				if err := p.locker.ReleaseLock(context.Background(), refreshLockKey, token); err != nil {
					p.logger.Warn("Failed to release refresh lock", zap.Error(err))
				}
			}()
		}
	}

	d := p.dashboard.Refresh(ctx)
	p.logger.Debug("Dashboard refreshed", zap.Bool("live", d.Live))
	return true
}

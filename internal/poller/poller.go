// Package poller keeps the dashboard summary warm with a fixed-interval
// background refresh.
package poller

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"washdesk/internal/metrics"
	"washdesk/internal/models"
)

// FetchFunc retrieves a fresh dashboard summary from the backend.
type FetchFunc func(ctx context.Context) (*models.DashboardSummary, error)

// Poller refreshes the dashboard snapshot on a fixed interval. A tick that
// fires while the previous fetch is still running is skipped, so a slow
// backend never stacks concurrent requests.
type Poller struct {
	fetch    FetchFunc
	interval time.Duration
	logger   zerolog.Logger

	running  atomic.Bool
	snapshot atomic.Pointer[models.DashboardSummary]
	wg       sync.WaitGroup
}

func New(fetch FetchFunc, interval time.Duration, logger *zerolog.Logger) *Poller {
	if interval <= 0 {
		interval = time.Duration(models.DefaultDashboardRefreshMinutes) * time.Minute
	}
	return &Poller{
		fetch:    fetch,
		interval: interval,
		logger:   logger.With().Str("component", "poller").Logger(),
	}
}

// Start refreshes once immediately, then on every interval until ctx is done.
func (p *Poller) Start(ctx context.Context) {
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()

		p.logger.Info().Dur("interval", p.interval).Msg("dashboard poller started")
		defer p.logger.Info().Msg("dashboard poller stopped")

		p.tick(ctx)

		ticker := time.NewTicker(p.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				p.tick(ctx)
			}
		}
	}()
}

// Wait blocks until the polling goroutine has exited.
func (p *Poller) Wait() {
	p.wg.Wait()
}

// Snapshot returns the most recent summary, or nil before the first
// successful refresh.
func (p *Poller) Snapshot() *models.DashboardSummary {
	return p.snapshot.Load()
}

// Refresh forces a fetch outside the schedule, for the manual reload button.
// It reports false when a fetch is already running.
func (p *Poller) Refresh(ctx context.Context) bool {
	return p.tick(ctx)
}

func (p *Poller) tick(ctx context.Context) bool {
	if !p.running.CompareAndSwap(false, true) {
		metrics.PollerTick("skipped")
		p.logger.Debug().Msg("previous refresh still in flight, tick skipped")
		return false
	}
	defer p.running.Store(false)

	summary, err := p.fetch(ctx)
	if err != nil {
		metrics.PollerTick("error")
		// Last good snapshot stays visible.
		p.logger.Error().Err(err).Msg("dashboard refresh failed")
		return true
	}

	p.snapshot.Store(summary)
	metrics.PollerTick("ok")
	p.logger.Debug().Msg("dashboard refreshed")
	return true
}

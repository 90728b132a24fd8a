package syncer

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/admin-sync/pkg/util"
)

// ConnStater reports push channel connectivity. Satisfied by bridge.Bridge.
type ConnStater interface {
	Connected() bool
}

// Scheduler runs RefreshAll on a fixed cadence. While the push channel
// is down it shortens the interval; it never stops ticking either way,
// because push delivery is not assumed reliable even when nominally
// connected. A tick that lands while a refresh is in flight is skipped.
type Scheduler struct {
	syncer   *Syncer
	conn     ConnStater
	interval time.Duration
	degraded time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	stopCh  chan struct{}
	done    chan struct{}
	running bool
}

// NewScheduler constructs a stopped scheduler.
func NewScheduler(s *Syncer, conn ConnStater, interval, degraded time.Duration, logger *zap.Logger) *Scheduler {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	if degraded <= 0 || degraded > interval {
		degraded = interval
	}
	return &Scheduler{
		syncer:   s,
		conn:     conn,
		interval: interval,
		degraded: degraded,
		logger:   logger,
	}
}

// Start launches the tick loop. No-op when already running.
func (sch *Scheduler) Start(ctx context.Context) {
	sch.mu.Lock()
	if sch.running {
		sch.mu.Unlock()
		return
	}
	sch.running = true
	sch.stopCh = make(chan struct{})
	sch.done = make(chan struct{})
	stopCh, done := sch.stopCh, sch.done
	sch.mu.Unlock()

	go sch.loop(ctx, stopCh, done)
}

// Stop halts the tick loop and waits for it to exit. Mandatory teardown:
// an orphaned scheduler keeps refreshing a store no longer observed.
func (sch *Scheduler) Stop() {
	sch.mu.Lock()
	if !sch.running {
		sch.mu.Unlock()
		return
	}
	sch.running = false
	close(sch.stopCh)
	done := sch.done
	sch.mu.Unlock()

	<-done
}

func (sch *Scheduler) loop(ctx context.Context, stopCh, done chan struct{}) {
	defer close(done)

	timer := time.NewTimer(sch.nextInterval())
	defer timer.Stop()

	for {
		select {
		case <-stopCh:
			return
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		if err := sch.syncer.RefreshAll(ctx); err != nil {
			if errors.Is(err, util.ErrRefreshInFlight) {
				sch.logger.Debug("scheduled refresh skipped, one already in flight")
			} else {
				sch.logger.Warn("scheduled refresh incomplete", zap.Error(err))
			}
		}

		timer.Reset(sch.nextInterval())
	}
}

func (sch *Scheduler) nextInterval() time.Duration {
	if sch.conn != nil && !sch.conn.Connected() {
		return sch.degraded
	}
	return sch.interval
}

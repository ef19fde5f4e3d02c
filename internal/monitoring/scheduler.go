// internal/monitoring/scheduler.go - Poll and retention timers
package monitoring

import (
    "context"
    "sync"
    "sync/atomic"
    "time"

    "github.com/sirupsen/logrus"
    "piwatch/internal/store"
)

const (
    defaultPollIntervalSec = 15
    retentionInterval      = 3600 * time.Second
)

// Scheduler owns the two periodic triggers of the monitoring core: the poll
// timer and the retention timer. Both start together and stop together.
type Scheduler struct {
    store   store.Store
    poller  *Poller
    sweeper *Sweeper
    clock   Clock

    mu      sync.Mutex
    running bool
    stop    chan struct{}

    // inFlight guards against overlapping poll cycles: a tick that fires
    // while the previous cycle is still running is skipped.
    inFlight atomic.Bool
}

func NewScheduler(st store.Store, poller *Poller, sweeper *Sweeper, clock Clock) *Scheduler {
    if clock == nil {
        clock = realClock{}
    }
    return &Scheduler{
        store:   st,
        poller:  poller,
        sweeper: sweeper,
        clock:   clock,
    }
}

// Start launches both timers. The poll interval is read from settings once
// here; a changed poll_interval takes effect only after a restart. This is a
// known limitation, not an oversight. Start is idempotent.
func (s *Scheduler) Start(ctx context.Context) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    if s.running {
        return nil
    }
    s.running = true
    s.stop = make(chan struct{})

    interval := s.pollInterval(ctx)

    logrus.WithFields(logrus.Fields{
        "poll_interval":      interval,
        "retention_interval": retentionInterval,
    }).Info("Starting scheduler")

    go s.runPollLoop(ctx, interval)
    go s.runRetentionLoop(ctx)

    return nil
}

// Stop halts both timers. Idempotent.
func (s *Scheduler) Stop() {
    s.mu.Lock()
    defer s.mu.Unlock()

    if !s.running {
        return
    }

    logrus.Info("Stopping scheduler")
    close(s.stop)
    s.running = false
}

func (s *Scheduler) pollInterval(ctx context.Context) time.Duration {
    settings, err := s.store.GetSettings(ctx)
    if err != nil {
        logrus.WithError(err).Warn("Failed to read settings, using default poll interval")
        settings = store.Settings{}
    }

    sec := settings.Int(store.SettingPollInterval, defaultPollIntervalSec)
    if sec < 1 {
        sec = defaultPollIntervalSec
    }
    return time.Duration(sec) * time.Second
}

func (s *Scheduler) runPollLoop(ctx context.Context, interval time.Duration) {
    // First cycle fires immediately on start.
    s.triggerCycle(ctx)

    ticker := s.clock.NewTicker(interval)
    defer ticker.Stop()

    for {
        select {
        case <-ctx.Done():
            return
        case <-s.stop:
            return
        case <-ticker.Chan():
            s.triggerCycle(ctx)
        }
    }
}

// triggerCycle starts one poll cycle unless the previous one is still in
// flight, in which case the tick is skipped to keep slow networks from
// piling up concurrent cycles.
func (s *Scheduler) triggerCycle(ctx context.Context) {
    if !s.inFlight.CompareAndSwap(false, true) {
        logrus.Warn("Previous poll cycle still running, skipping tick")
        return
    }

    go func() {
        defer s.inFlight.Store(false)
        s.poller.PollAll(ctx)
    }()
}

func (s *Scheduler) runRetentionLoop(ctx context.Context) {
    ticker := s.clock.NewTicker(retentionInterval)
    defer ticker.Stop()

    for {
        select {
        case <-ctx.Done():
            return
        case <-s.stop:
            return
        case <-ticker.Chan():
            s.sweeper.Sweep(ctx)
        }
    }
}

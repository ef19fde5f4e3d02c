// internal/monitoring/engine.go - Monitoring core wiring
package monitoring

import (
    "context"
    "sync"

    "github.com/sirupsen/logrus"
    "piwatch/internal/agent"
    "piwatch/internal/config"
    "piwatch/internal/events"
    "piwatch/internal/metrics"
    "piwatch/internal/store"
)

// Engine assembles the monitoring core: agent client, poller, evaluator,
// sweeper and scheduler, sharing one store and one broadcaster with the web
// layer.
type Engine struct {
    store       store.Store
    agent       *agent.Client
    poller      *Poller
    evaluator   *Evaluator
    sweeper     *Sweeper
    scheduler   *Scheduler
    broadcaster *events.Broadcaster

    mu      sync.Mutex
    running bool
    cancel  context.CancelFunc
}

func NewEngine(cfg *config.Config, st store.Store, broadcaster *events.Broadcaster, collector *metrics.Collector) *Engine {
    client := agent.NewClient(cfg.Agent.Timeout)
    evaluator := NewEvaluator(st, broadcaster, collector)
    poller := NewPoller(st, client, evaluator, broadcaster, collector, cfg.Agent.Workers)
    sweeper := NewSweeper(st, collector)
    scheduler := NewScheduler(st, poller, sweeper, realClock{})

    return &Engine{
        store:       st,
        agent:       client,
        poller:      poller,
        evaluator:   evaluator,
        sweeper:     sweeper,
        scheduler:   scheduler,
        broadcaster: broadcaster,
    }
}

// Agent exposes the shared client for the web layer's proxy endpoints.
func (e *Engine) Agent() *agent.Client {
    return e.agent
}

// Start brings the scheduler up. Idempotent.
func (e *Engine) Start() error {
    e.mu.Lock()
    defer e.mu.Unlock()

    if e.running {
        return nil
    }

    ctx, cancel := context.WithCancel(context.Background())
    e.cancel = cancel

    if err := e.scheduler.Start(ctx); err != nil {
        cancel()
        return err
    }

    e.running = true
    logrus.Info("Monitoring engine started")
    return nil
}

// Stop halts the scheduler and cancels any in-flight poll cycle. Idempotent.
func (e *Engine) Stop() {
    e.mu.Lock()
    defer e.mu.Unlock()

    if !e.running {
        return
    }

    e.scheduler.Stop()
    e.cancel()
    e.running = false

    logrus.Info("Monitoring engine stopped")
}

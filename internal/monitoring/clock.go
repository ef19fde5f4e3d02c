// internal/monitoring/clock.go
package monitoring

import "time"

// Clock abstracts time for the scheduler so tests can drive ticks directly.
type Clock interface {
    Now() time.Time
    NewTicker(d time.Duration) Ticker
}

type Ticker interface {
    Chan() <-chan time.Time
    Stop()
}

type realClock struct{}

func (realClock) Now() time.Time {
    return time.Now()
}

func (realClock) NewTicker(d time.Duration) Ticker {
    return &realTicker{ticker: time.NewTicker(d)}
}

type realTicker struct {
    ticker *time.Ticker
}

func (t *realTicker) Chan() <-chan time.Time {
    return t.ticker.C
}

func (t *realTicker) Stop() {
    t.ticker.Stop()
}

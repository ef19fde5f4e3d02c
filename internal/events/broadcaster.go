// internal/events/broadcaster.go
package events

import (
    "encoding/json"
    "sync"

    "github.com/sirupsen/logrus"
)

// Event names pushed to live subscribers.
const (
    EventDeviceUpdate  = "device_update"
    EventMetricsUpdate = "metrics_update"
    EventAlert         = "alert"
    EventDeviceOffline = "device_offline"
)

// Subscriber is one live connection. Push must not block; a transport that
// cannot accept the event returns an error and is dropped from the registry.
type Subscriber interface {
    Push(event string, data []byte) error
}

// Broadcaster fans named events out to every registered subscriber. There is
// no per-subscriber health check: a failed push is the removal signal.
type Broadcaster struct {
    mu   sync.RWMutex
    subs map[string]Subscriber
}

func NewBroadcaster() *Broadcaster {
    return &Broadcaster{
        subs: make(map[string]Subscriber),
    }
}

func (b *Broadcaster) Subscribe(id string, sub Subscriber) {
    b.mu.Lock()
    b.subs[id] = sub
    b.mu.Unlock()

    logrus.WithField("subscriber", id).Debug("Subscriber registered")
}

func (b *Broadcaster) Unsubscribe(id string) {
    b.mu.Lock()
    delete(b.subs, id)
    b.mu.Unlock()

    logrus.WithField("subscriber", id).Debug("Subscriber removed")
}

// Count returns the number of registered subscribers.
func (b *Broadcaster) Count() int {
    b.mu.RLock()
    defer b.mu.RUnlock()
    return len(b.subs)
}

// Broadcast serializes payload once and delivers it to every subscriber.
// Delivery is best effort: a slow subscriber misses events rather than
// stalling the poll cycle that triggered the broadcast.
func (b *Broadcaster) Broadcast(event string, payload interface{}) {
    data, err := json.Marshal(payload)
    if err != nil {
        logrus.WithError(err).WithField("event", event).Error("Failed to serialize event payload")
        return
    }

    b.mu.RLock()
    targets := make(map[string]Subscriber, len(b.subs))
    for id, sub := range b.subs {
        targets[id] = sub
    }
    b.mu.RUnlock()

    var failed []string
    for id, sub := range targets {
        if err := sub.Push(event, data); err != nil {
            failed = append(failed, id)
        }
    }

    for _, id := range failed {
        b.Unsubscribe(id)
    }

    if len(failed) > 0 {
        logrus.WithFields(logrus.Fields{
            "event":   event,
            "dropped": len(failed),
        }).Debug("Dropped unresponsive subscribers")
    }
}

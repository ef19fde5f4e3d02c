// internal/monitoring/sweeper.go - Raw metric retention
package monitoring

import (
    "context"
    "time"

    "github.com/sirupsen/logrus"
    "piwatch/internal/metrics"
    "piwatch/internal/store"
)

const defaultRetentionDays = 7

// Sweeper enforces the raw retention window. The hourly/daily retention
// settings are reserved for rollups and drive no cleanup here.
type Sweeper struct {
    store   store.Store
    metrics *metrics.Collector
}

func NewSweeper(st store.Store, collector *metrics.Collector) *Sweeper {
    return &Sweeper{
        store:   st,
        metrics: collector,
    }
}

// Sweep deletes samples older than retention_raw_days. The predicate is
// purely age-based, so running concurrently with inserts is safe and
// repeated sweeps are idempotent.
func (s *Sweeper) Sweep(ctx context.Context) {
    settings, err := s.store.GetSettings(ctx)
    if err != nil {
        logrus.WithError(err).Warn("Failed to read settings for retention sweep, using defaults")
        settings = store.Settings{}
    }

    days := settings.Int(store.SettingRetentionRawDays, defaultRetentionDays)
    if days < 1 {
        days = defaultRetentionDays
    }
    cutoff := time.Now().AddDate(0, 0, -days)

    deleted, err := s.store.DeleteMetricsBefore(ctx, cutoff)
    if err != nil {
        logrus.WithError(err).Error("Retention sweep failed")
        return
    }

    s.metrics.RecordSweep(deleted)

    if deleted > 0 {
        logrus.WithFields(logrus.Fields{
            "deleted":        deleted,
            "retention_days": days,
        }).Info("Retention sweep completed")
    }
}

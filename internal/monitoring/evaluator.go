// internal/monitoring/evaluator.go - Threshold alerting
package monitoring

import (
    "context"
    "fmt"
    "time"

    "github.com/sirupsen/logrus"
    "piwatch/internal/events"
    "piwatch/internal/metrics"
    "piwatch/internal/store"
)

// dedupWindow suppresses repeat alerts of the same (device, type) pair. At a
// 15-second poll cadence a persistent breach would otherwise raise an alert
// per cycle.
const dedupWindow = 5 * time.Minute

type Evaluator struct {
    store       store.Store
    broadcaster *events.Broadcaster
    metrics     *metrics.Collector
}

func NewEvaluator(st store.Store, broadcaster *events.Broadcaster, collector *metrics.Collector) *Evaluator {
    return &Evaluator{
        store:       st,
        broadcaster: broadcaster,
        metrics:     collector,
    }
}

type thresholdCheck struct {
    alertType string
    value     *float64
    threshold float64
    message   string
}

// Evaluate compares one persisted sample against the thresholds in the
// settings snapshot and raises alerts for strict breaches. A nil value means
// the reading is unknown and never triggers.
func (e *Evaluator) Evaluate(ctx context.Context, device *store.Device, sample *store.Metric, settings store.Settings) {
    checks := buildChecks(sample, settings)

    for _, check := range checks {
        if check.value == nil || *check.value <= check.threshold {
            continue
        }

        suppressed, err := e.recentUnresolvedExists(ctx, device.ID, check.alertType)
        if err != nil {
            logrus.WithError(err).WithFields(logrus.Fields{
                "device": device.Name,
                "type":   check.alertType,
            }).Error("Failed to query alerts for dedup")
            continue
        }
        if suppressed {
            continue
        }

        threshold := check.threshold
        alert := &store.Alert{
            DeviceID:  device.ID,
            Type:      check.alertType,
            Message:   check.message,
            Value:     check.value,
            Threshold: &threshold,
        }

        if err := e.store.CreateAlert(ctx, alert); err != nil {
            logrus.WithError(err).WithFields(logrus.Fields{
                "device": device.Name,
                "type":   check.alertType,
            }).Error("Failed to store alert")
            continue
        }

        logrus.WithFields(logrus.Fields{
            "device":    device.Name,
            "type":      check.alertType,
            "value":     *check.value,
            "threshold": check.threshold,
        }).Info("Alert raised")

        e.metrics.RecordAlert(device.Name, check.alertType)
        e.broadcaster.Broadcast(events.EventAlert, alert)
    }
}

func buildChecks(sample *store.Metric, settings store.Settings) []thresholdCheck {
    var checks []thresholdCheck

    if sample.CPUUsage != nil {
        checks = append(checks, thresholdCheck{
            alertType: store.AlertHighCPU,
            value:     sample.CPUUsage,
            threshold: settings.Float(store.SettingCPUThreshold, 90),
            message:   fmt.Sprintf("CPU usage at %.1f%%", *sample.CPUUsage),
        })
    }
    if sample.CPUTemp != nil {
        checks = append(checks, thresholdCheck{
            alertType: store.AlertHighTemp,
            value:     sample.CPUTemp,
            threshold: settings.Float(store.SettingTempThreshold, 70),
            message:   fmt.Sprintf("Temperature at %.1f°C", *sample.CPUTemp),
        })
    }
    if sample.MemoryUsage != nil {
        checks = append(checks, thresholdCheck{
            alertType: store.AlertHighMemory,
            value:     sample.MemoryUsage,
            threshold: settings.Float(store.SettingMemoryThreshold, 90),
            message:   fmt.Sprintf("Memory usage at %.1f%%", *sample.MemoryUsage),
        })
    }
    if sample.DiskUsage != nil {
        checks = append(checks, thresholdCheck{
            alertType: store.AlertLowDisk,
            value:     sample.DiskUsage,
            threshold: settings.Float(store.SettingDiskThreshold, 90),
            message:   fmt.Sprintf("Disk usage at %.1f%%", *sample.DiskUsage),
        })
    }

    return checks
}

// recentUnresolvedExists reports whether an unresolved alert of the same
// (device, type) pair was created inside the dedup window.
func (e *Evaluator) recentUnresolvedExists(ctx context.Context, deviceID, alertType string) (bool, error) {
    since := time.Now().Add(-dedupWindow)
    existing, err := e.store.GetAlerts(ctx, store.AlertFilters{
        DeviceID:   deviceID,
        Type:       alertType,
        Unresolved: true,
        Since:      &since,
        Limit:      1,
    })
    if err != nil {
        return false, err
    }
    return len(existing) > 0, nil
}

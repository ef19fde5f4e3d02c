// internal/metrics/prometheus.go
package metrics

import (
    "context"
    "time"

    "github.com/prometheus/client_golang/prometheus"
    "github.com/prometheus/client_golang/prometheus/promauto"
    "piwatch/internal/store"
)

// Prometheus metrics
var (
    PollDuration = promauto.NewHistogramVec(
        prometheus.HistogramOpts{
            Name:    "piwatch_poll_duration_seconds",
            Help:    "Time spent polling a device agent",
            Buckets: prometheus.DefBuckets,
        },
        []string{"device", "result"},
    )

    PollTotal = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "piwatch_polls_total",
            Help: "Total number of device polls executed",
        },
        []string{"device", "result"},
    )

    DeviceUp = promauto.NewGaugeVec(
        prometheus.GaugeOpts{
            Name: "piwatch_device_up",
            Help: "Current device reachability (1=online, 0=offline)",
        },
        []string{"device"},
    )

    AlertsTotal = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "piwatch_alerts_total",
            Help: "Total number of alerts raised",
        },
        []string{"device", "type"},
    )

    RegisteredDevices = promauto.NewGauge(
        prometheus.GaugeOpts{
            Name: "piwatch_registered_devices_total",
            Help: "Number of registered devices",
        },
    )

    Subscribers = promauto.NewGauge(
        prometheus.GaugeOpts{
            Name: "piwatch_subscribers_active",
            Help: "Number of active live-update subscribers",
        },
    )

    SweptSamples = promauto.NewCounter(
        prometheus.CounterOpts{
            Name: "piwatch_swept_samples_total",
            Help: "Metric samples removed by the retention sweeper",
        },
    )

    StoreOperations = promauto.NewCounterVec(
        prometheus.CounterOpts{
            Name: "piwatch_store_operations_total",
            Help: "Total store operations performed",
        },
        []string{"operation", "status"},
    )
)

type Collector struct {
    store store.Store
}

func NewCollector(st store.Store) *Collector {
    return &Collector{store: st}
}

func (c *Collector) RecordPoll(device string, online bool, duration time.Duration) {
    result := "online"
    up := 1.0
    if !online {
        result = "offline"
        up = 0.0
    }
    PollDuration.WithLabelValues(device, result).Observe(duration.Seconds())
    PollTotal.WithLabelValues(device, result).Inc()
    DeviceUp.WithLabelValues(device).Set(up)
}

func (c *Collector) RecordAlert(device, alertType string) {
    AlertsTotal.WithLabelValues(device, alertType).Inc()
}

func (c *Collector) RecordSweep(deleted int) {
    SweptSamples.Add(float64(deleted))
}

func (c *Collector) RecordSubscribers(count int) {
    Subscribers.Set(float64(count))
}

func (c *Collector) UpdateSystemMetrics(ctx context.Context) error {
    devices, err := c.store.GetDevices(ctx)
    if err != nil {
        StoreOperations.WithLabelValues("get_devices", "error").Inc()
        return err
    }
    StoreOperations.WithLabelValues("get_devices", "success").Inc()

    RegisteredDevices.Set(float64(len(devices)))
    return nil
}

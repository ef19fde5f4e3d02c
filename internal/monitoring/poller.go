// internal/monitoring/poller.go - Per-device polling with failure isolation
package monitoring

import (
    "context"
    "strings"
    "sync"
    "time"

    "github.com/sirupsen/logrus"
    "piwatch/internal/agent"
    "piwatch/internal/events"
    "piwatch/internal/metrics"
    "piwatch/internal/store"
)

type Poller struct {
    store       store.Store
    agent       *agent.Client
    evaluator   *Evaluator
    broadcaster *events.Broadcaster
    metrics     *metrics.Collector
    workers     int
}

func NewPoller(st store.Store, client *agent.Client, evaluator *Evaluator, broadcaster *events.Broadcaster, collector *metrics.Collector, workers int) *Poller {
    if workers < 1 {
        workers = 1
    }
    return &Poller{
        store:       st,
        agent:       client,
        evaluator:   evaluator,
        broadcaster: broadcaster,
        metrics:     collector,
        workers:     workers,
    }
}

// metricsUpdate is the metrics_update event payload.
type metricsUpdate struct {
    DeviceID string         `json:"device_id"`
    Metrics  metricsSummary `json:"metrics"`
}

type metricsSummary struct {
    CPUUsage    *float64 `json:"cpu_usage"`
    CPUTemp     *float64 `json:"cpu_temp"`
    MemoryUsage *float64 `json:"memory_usage"`
    DiskUsage   *float64 `json:"disk_usage"`
    NetworkRx   *int64   `json:"network_rx"`
    NetworkTx   *int64   `json:"network_tx"`
}

type deviceOffline struct {
    DeviceID string `json:"device_id"`
}

// PollAll runs one full-fleet cycle, fanning devices out across a bounded
// worker pool. One device's failure never aborts or delays another's poll.
func (p *Poller) PollAll(ctx context.Context) {
    devices, err := p.store.GetDevices(ctx)
    if err != nil {
        logrus.WithError(err).Error("Failed to list devices for poll cycle")
        return
    }
    if len(devices) == 0 {
        return
    }

    // One snapshot per cycle keeps threshold decisions consistent.
    settings, err := p.store.GetSettings(ctx)
    if err != nil {
        logrus.WithError(err).Warn("Failed to read settings for poll cycle, using defaults")
        settings = store.Settings{}
    }

    workerCount := p.workers
    if workerCount > len(devices) {
        workerCount = len(devices)
    }

    jobs := make(chan store.Device)
    var wg sync.WaitGroup

    for i := 0; i < workerCount; i++ {
        wg.Add(1)
        go func() {
            defer wg.Done()
            for device := range jobs {
                p.pollDevice(ctx, &device, settings)
            }
        }()
    }

    for _, device := range devices {
        jobs <- device
    }
    close(jobs)
    wg.Wait()

    logrus.WithField("devices", len(devices)).Debug("Poll cycle completed")
}

// pollDevice runs the two-phase poll protocol for one device: health first,
// then metrics. Either call failing marks the device offline and ends its
// turn for this cycle with no sample recorded.
func (p *Poller) pollDevice(ctx context.Context, device *store.Device, settings store.Settings) {
    start := time.Now()

    health, err := p.agent.Health(ctx, device)
    if err != nil {
        p.markOffline(ctx, device, "health", err)
        p.metrics.RecordPoll(device.Name, false, time.Since(start))
        return
    }

    payload, raw, err := p.agent.Metrics(ctx, device)
    if err != nil {
        p.markOffline(ctx, device, "metrics", err)
        p.metrics.RecordPoll(device.Name, false, time.Since(start))
        return
    }

    now := time.Now()
    status := &store.DeviceStatus{
        DeviceID:      device.ID,
        Status:        store.StatusOnline,
        LastSeen:      &now,
        Hostname:      &health.Hostname,
        Model:         health.Model,
        OSInfo:        osInfo(health),
        UptimeSeconds: &health.UptimeSeconds,
        AgentVersion:  &health.AgentVersion,
        IPAddress:     &health.IPAddress,
    }

    if err := p.store.UpsertDeviceStatus(ctx, status); err != nil {
        logrus.WithError(err).WithField("device", device.Name).Error("Failed to update device status")
        return
    }

    sample := Normalize(device.ID, now, payload, raw)
    if err := p.store.InsertMetric(ctx, sample); err != nil {
        logrus.WithError(err).WithField("device", device.Name).Error("Failed to store metric sample")
        return
    }

    p.evaluator.Evaluate(ctx, device, sample, settings)
    p.metrics.RecordPoll(device.Name, true, time.Since(start))

    p.broadcaster.Broadcast(events.EventDeviceUpdate, &store.DeviceWithStatus{
        Device: *device,
        Status: status,
    })
    p.broadcaster.Broadcast(events.EventMetricsUpdate, &metricsUpdate{
        DeviceID: device.ID,
        Metrics: metricsSummary{
            CPUUsage:    sample.CPUUsage,
            CPUTemp:     sample.CPUTemp,
            MemoryUsage: sample.MemoryUsage,
            DiskUsage:   sample.DiskUsage,
            NetworkRx:   sample.NetworkRx,
            NetworkTx:   sample.NetworkTx,
        },
    })
}

// markOffline records the transition and emits device_offline. The previous
// last_seen and info fields survive; only the status flips.
func (p *Poller) markOffline(ctx context.Context, device *store.Device, phase string, cause error) {
    logrus.WithError(cause).WithFields(logrus.Fields{
        "device": device.Name,
        "phase":  phase,
    }).Warn("Device poll failed, marking offline")

    if err := p.store.MarkDeviceOffline(ctx, device.ID); err != nil {
        logrus.WithError(err).WithField("device", device.Name).Error("Failed to mark device offline")
    }

    p.broadcaster.Broadcast(events.EventDeviceOffline, &deviceOffline{DeviceID: device.ID})
}

// osInfo joins the agent's OS name and version; empty becomes nil so the
// column stays null rather than holding an empty string.
func osInfo(health *agent.Health) *string {
    var parts []string
    if health.OSName != nil && *health.OSName != "" {
        parts = append(parts, *health.OSName)
    }
    if health.OSVersion != nil && *health.OSVersion != "" {
        parts = append(parts, *health.OSVersion)
    }
    if len(parts) == 0 {
        return nil
    }
    joined := strings.Join(parts, " ")
    return &joined
}

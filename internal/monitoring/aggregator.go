// internal/monitoring/aggregator.go - Agent payload normalization
package monitoring

import (
    "encoding/json"
    "time"

    "piwatch/internal/agent"
    "piwatch/internal/store"
)

// Normalize flattens an agent metrics payload into one sample row. Fields
// the agent did not report stay nil; they are never defaulted to zero, so a
// missing reading stays distinguishable from a genuine zero.
func Normalize(deviceID string, ts time.Time, payload *agent.MetricsPayload, raw []byte) *store.Metric {
    metric := &store.Metric{
        DeviceID:  deviceID,
        Timestamp: ts,
        RawData:   json.RawMessage(raw),
    }

    if payload.CPU != nil {
        metric.CPUUsage = payload.CPU.UsagePercent
        if payload.CPU.LoadAvg != nil {
            metric.LoadAvg1 = payload.CPU.LoadAvg.Min1
            metric.LoadAvg5 = payload.CPU.LoadAvg.Min5
            metric.LoadAvg15 = payload.CPU.LoadAvg.Min15
        }
    }

    if payload.Temperature != nil {
        metric.CPUTemp = payload.Temperature.CPUCelsius
    }

    if payload.Memory != nil && payload.Memory.RAM != nil {
        metric.MemoryUsage = payload.Memory.RAM.Percent
        metric.MemoryTotal = payload.Memory.RAM.TotalBytes
    }

    if part := selectPartition(payload.Disk); part != nil {
        metric.DiskUsage = part.Percent
        metric.DiskTotal = part.TotalBytes
    }

    if payload.Network != nil && payload.Network.Interfaces != nil {
        var rx, tx int64
        for _, iface := range payload.Network.Interfaces {
            rx += iface.BytesRecv
            tx += iface.BytesSent
        }
        metric.NetworkRx = &rx
        metric.NetworkTx = &tx
    }

    return metric
}

// selectPartition picks the root partition, falling back to the first one
// listed.
func selectPartition(parts []agent.DiskPartition) *agent.DiskPartition {
    if len(parts) == 0 {
        return nil
    }
    for i := range parts {
        if parts[i].Mountpoint == "/" {
            return &parts[i]
        }
    }
    return &parts[0]
}

// internal/agent/payload.go - Agent payload variant adapter
package agent

import (
    "bytes"
    "encoding/json"
    "fmt"
)

// Agents before v0.4 reported a flat metrics document with a bare number in
// the cpu field. Newer agents nest per-subsystem objects. The variants are
// distinguished by inspecting cpu: an object selects the current shape, a
// number selects the legacy one.
type legacyMetricsPayload struct {
    Timestamp        string    `json:"timestamp"`
    CPUPercent       *float64  `json:"cpu"`
    CPUTempCelsius   *float64  `json:"cpu_temp"`
    MemoryPercent    *float64  `json:"memory_percent"`
    MemoryTotalBytes *int64    `json:"memory_total_bytes"`
    DiskPercent      *float64  `json:"disk_percent"`
    DiskTotalBytes   *int64    `json:"disk_total_bytes"`
    NetworkRxBytes   *int64    `json:"network_rx_bytes"`
    NetworkTxBytes   *int64    `json:"network_tx_bytes"`
    LoadAvg          []float64 `json:"load_avg"`
}

// ParseMetricsPayload decodes either metrics variant into the canonical
// shape.
func ParseMetricsPayload(data []byte) (*MetricsPayload, error) {
    var probe struct {
        CPU json.RawMessage `json:"cpu"`
    }
    if err := json.Unmarshal(data, &probe); err != nil {
        return nil, fmt.Errorf("malformed metrics payload: %w", err)
    }

    if isLegacyCPUField(probe.CPU) {
        var legacy legacyMetricsPayload
        if err := json.Unmarshal(data, &legacy); err != nil {
            return nil, fmt.Errorf("malformed legacy metrics payload: %w", err)
        }
        return legacy.canonical(), nil
    }

    var payload MetricsPayload
    if err := json.Unmarshal(data, &payload); err != nil {
        return nil, fmt.Errorf("malformed metrics payload: %w", err)
    }
    return &payload, nil
}

func isLegacyCPUField(raw json.RawMessage) bool {
    trimmed := bytes.TrimSpace(raw)
    if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
        return false
    }
    return trimmed[0] != '{'
}

func (l *legacyMetricsPayload) canonical() *MetricsPayload {
    payload := &MetricsPayload{Timestamp: l.Timestamp}

    if l.CPUPercent != nil || len(l.LoadAvg) == 3 {
        cpu := &CPUMetrics{UsagePercent: l.CPUPercent}
        if len(l.LoadAvg) == 3 {
            cpu.LoadAvg = &LoadAvg{
                Min1:  &l.LoadAvg[0],
                Min5:  &l.LoadAvg[1],
                Min15: &l.LoadAvg[2],
            }
        }
        payload.CPU = cpu
    }

    if l.CPUTempCelsius != nil {
        payload.Temperature = &TemperatureMetrics{CPUCelsius: l.CPUTempCelsius}
    }

    if l.MemoryPercent != nil || l.MemoryTotalBytes != nil {
        payload.Memory = &MemoryMetrics{
            RAM: &MemoryBank{
                TotalBytes: l.MemoryTotalBytes,
                Percent:    l.MemoryPercent,
            },
        }
    }

    if l.DiskPercent != nil || l.DiskTotalBytes != nil {
        payload.Disk = []DiskPartition{{
            Mountpoint: "/",
            TotalBytes: l.DiskTotalBytes,
            Percent:    l.DiskPercent,
        }}
    }

    if l.NetworkRxBytes != nil || l.NetworkTxBytes != nil {
        iface := NetworkInterface{}
        if l.NetworkRxBytes != nil {
            iface.BytesRecv = *l.NetworkRxBytes
        }
        if l.NetworkTxBytes != nil {
            iface.BytesSent = *l.NetworkTxBytes
        }
        payload.Network = &NetworkMetrics{
            Interfaces: map[string]NetworkInterface{"total": iface},
        }
    }

    return payload
}

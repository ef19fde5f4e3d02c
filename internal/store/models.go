// internal/store/models.go
package store

import (
    "encoding/json"
    "time"
)

// Device is a registered agent endpoint. Registration itself is driven by
// the web API; the monitoring core only reads these records.
type Device struct {
    ID        string    `json:"id"`
    Name      string    `json:"name"`
    Host      string    `json:"host"`
    Port      int       `json:"port"`
    Token     *string   `json:"token"`
    CreatedAt time.Time `json:"created_at"`
    UpdatedAt time.Time `json:"updated_at"`
}

// Device status values.
const (
    StatusOnline  = "online"
    StatusOffline = "offline"
    StatusUnknown = "unknown"
)

// DeviceStatus is the 1:1 companion row of a Device, mutated only by the
// poller. Info fields are nil until the first successful health poll.
type DeviceStatus struct {
    DeviceID      string     `json:"device_id"`
    Status        string     `json:"status"`
    LastSeen      *time.Time `json:"last_seen"`
    Hostname      *string    `json:"hostname"`
    Model         *string    `json:"model"`
    OSInfo        *string    `json:"os_info"`
    UptimeSeconds *int64     `json:"uptime_seconds"`
    AgentVersion  *string    `json:"agent_version"`
    IPAddress     *string    `json:"ip_address"`
}

// Metric is one normalized sample. Nil means the agent did not report the
// field; consumers must not conflate nil with a zero reading.
type Metric struct {
    ID          string          `json:"id"`
    DeviceID    string          `json:"device_id"`
    Timestamp   time.Time       `json:"timestamp"`
    CPUUsage    *float64        `json:"cpu_usage"`
    CPUTemp     *float64        `json:"cpu_temp"`
    MemoryUsage *float64        `json:"memory_usage"`
    MemoryTotal *int64          `json:"memory_total"`
    DiskUsage   *float64        `json:"disk_usage"`
    DiskTotal   *int64          `json:"disk_total"`
    NetworkRx   *int64          `json:"network_rx"`
    NetworkTx   *int64          `json:"network_tx"`
    LoadAvg1    *float64        `json:"load_avg_1"`
    LoadAvg5    *float64        `json:"load_avg_5"`
    LoadAvg15   *float64        `json:"load_avg_15"`
    RawData     json.RawMessage `json:"raw_data,omitempty"`
}

// Alert types.
const (
    AlertHighCPU    = "high_cpu"
    AlertHighTemp   = "high_temp"
    AlertHighMemory = "high_memory"
    AlertLowDisk    = "low_disk"
)

type Alert struct {
    ID         string     `json:"id"`
    DeviceID   string     `json:"device_id"`
    Type       string     `json:"type"`
    Message    string     `json:"message"`
    Value      *float64   `json:"value"`
    Threshold  *float64   `json:"threshold"`
    CreatedAt  time.Time  `json:"created_at"`
    ResolvedAt *time.Time `json:"resolved_at"`
}

// DeviceWithStatus is the joined view served by the device API and carried
// by device_update events.
type DeviceWithStatus struct {
    Device
    Status        *DeviceStatus `json:"status"`
    LatestMetrics *Metric       `json:"latest_metrics,omitempty"`
}

type MetricFilters struct {
    DeviceID string
    Since    *time.Time
    Limit    int
}

type AlertFilters struct {
    DeviceID   string
    Type       string
    Unresolved bool
    Since      *time.Time
    Limit      int
}

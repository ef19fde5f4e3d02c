// internal/agent/types.go
package agent

// Health is the response of the agent's /health endpoint.
type Health struct {
    Hostname      string  `json:"hostname"`
    UptimeSeconds int64   `json:"uptime_seconds"`
    AgentVersion  string  `json:"agent_version"`
    IPAddress     string  `json:"ip_address"`
    Model         *string `json:"model"`
    OSName        *string `json:"os_name"`
    OSVersion     *string `json:"os_version"`
    Kernel        *string `json:"kernel"`
    Architecture  *string `json:"architecture"`
    Timestamp     string  `json:"timestamp"`
}

// MetricsPayload is the canonical agent metrics shape. Both supported wire
// variants are parsed into this struct; nothing downstream sees a partially
// converted payload. Nil pointers mean the agent did not report the field.
type MetricsPayload struct {
    Timestamp   string              `json:"timestamp"`
    CPU         *CPUMetrics         `json:"cpu"`
    Memory      *MemoryMetrics      `json:"memory"`
    Disk        []DiskPartition     `json:"disk"`
    Temperature *TemperatureMetrics `json:"temperature"`
    Network     *NetworkMetrics     `json:"network"`
}

type CPUMetrics struct {
    UsagePercent *float64 `json:"usage_percent"`
    LoadAvg      *LoadAvg `json:"load_avg"`
}

type LoadAvg struct {
    Min1  *float64 `json:"1min"`
    Min5  *float64 `json:"5min"`
    Min15 *float64 `json:"15min"`
}

type MemoryMetrics struct {
    RAM  *MemoryBank `json:"ram"`
    Swap *MemoryBank `json:"swap"`
}

type MemoryBank struct {
    TotalBytes *int64   `json:"total_bytes"`
    UsedBytes  *int64   `json:"used_bytes"`
    Percent    *float64 `json:"percent"`
}

type DiskPartition struct {
    Device     string   `json:"device"`
    Mountpoint string   `json:"mountpoint"`
    Fstype     string   `json:"fstype"`
    TotalBytes *int64   `json:"total_bytes"`
    UsedBytes  *int64   `json:"used_bytes"`
    FreeBytes  *int64   `json:"free_bytes"`
    Percent    *float64 `json:"percent"`
}

type TemperatureMetrics struct {
    CPUCelsius *float64 `json:"cpu_celsius"`
    GPUCelsius *float64 `json:"gpu_celsius"`
}

type NetworkMetrics struct {
    DefaultIP  string                      `json:"default_ip"`
    Interfaces map[string]NetworkInterface `json:"interfaces"`
}

type NetworkInterface struct {
    BytesSent   int64 `json:"bytes_sent"`
    BytesRecv   int64 `json:"bytes_recv"`
    PacketsSent int64 `json:"packets_sent"`
    PacketsRecv int64 `json:"packets_recv"`
}

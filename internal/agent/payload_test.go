// internal/agent/payload_test.go
package agent

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestParseMetricsPayloadModern(t *testing.T) {
    data := []byte(`{
        "timestamp": "2026-01-10T12:00:00Z",
        "cpu": {"usage_percent": 42.5, "load_avg": {"1min": 0.5, "5min": 0.7, "15min": 0.9}},
        "memory": {"ram": {"total_bytes": 8589934592, "percent": 61.2}},
        "disk": [{"mountpoint": "/", "total_bytes": 32000000000, "percent": 71.0}],
        "temperature": {"cpu_celsius": 55.1},
        "network": {"interfaces": {"eth0": {"bytes_sent": 100, "bytes_recv": 200}}}
    }`)

    payload, err := ParseMetricsPayload(data)
    require.NoError(t, err)

    require.NotNil(t, payload.CPU)
    assert.Equal(t, 42.5, *payload.CPU.UsagePercent)
    require.NotNil(t, payload.CPU.LoadAvg)
    assert.Equal(t, 0.5, *payload.CPU.LoadAvg.Min1)

    require.NotNil(t, payload.Memory)
    require.NotNil(t, payload.Memory.RAM)
    assert.Equal(t, 61.2, *payload.Memory.RAM.Percent)

    require.Len(t, payload.Disk, 1)
    assert.Equal(t, "/", payload.Disk[0].Mountpoint)

    require.NotNil(t, payload.Temperature)
    assert.Equal(t, 55.1, *payload.Temperature.CPUCelsius)

    require.NotNil(t, payload.Network)
    assert.Equal(t, int64(200), payload.Network.Interfaces["eth0"].BytesRecv)
}

func TestParseMetricsPayloadLegacy(t *testing.T) {
    data := []byte(`{
        "timestamp": "2026-01-10T12:00:00Z",
        "cpu": 42.5,
        "cpu_temp": 55.1,
        "memory_percent": 61.2,
        "memory_total_bytes": 8589934592,
        "disk_percent": 71.0,
        "disk_total_bytes": 32000000000,
        "network_rx_bytes": 200,
        "network_tx_bytes": 100,
        "load_avg": [0.5, 0.7, 0.9]
    }`)

    payload, err := ParseMetricsPayload(data)
    require.NoError(t, err)

    require.NotNil(t, payload.CPU)
    assert.Equal(t, 42.5, *payload.CPU.UsagePercent)
    require.NotNil(t, payload.CPU.LoadAvg)
    assert.Equal(t, 0.9, *payload.CPU.LoadAvg.Min15)

    require.NotNil(t, payload.Temperature)
    assert.Equal(t, 55.1, *payload.Temperature.CPUCelsius)

    require.NotNil(t, payload.Memory)
    require.NotNil(t, payload.Memory.RAM)
    assert.Equal(t, int64(8589934592), *payload.Memory.RAM.TotalBytes)

    // Legacy disk readings become a single root partition.
    require.Len(t, payload.Disk, 1)
    assert.Equal(t, "/", payload.Disk[0].Mountpoint)
    assert.Equal(t, 71.0, *payload.Disk[0].Percent)

    // Legacy network counters become one pseudo-interface.
    require.NotNil(t, payload.Network)
    total, ok := payload.Network.Interfaces["total"]
    require.True(t, ok)
    assert.Equal(t, int64(200), total.BytesRecv)
    assert.Equal(t, int64(100), total.BytesSent)
}

func TestParseMetricsPayloadLegacyPartial(t *testing.T) {
    // A legacy agent that only reports CPU leaves everything else nil.
    payload, err := ParseMetricsPayload([]byte(`{"cpu": 10.0}`))
    require.NoError(t, err)

    require.NotNil(t, payload.CPU)
    assert.Equal(t, 10.0, *payload.CPU.UsagePercent)
    assert.Nil(t, payload.CPU.LoadAvg)
    assert.Nil(t, payload.Memory)
    assert.Nil(t, payload.Disk)
    assert.Nil(t, payload.Temperature)
    assert.Nil(t, payload.Network)
}

func TestParseMetricsPayloadNullCPUIsModern(t *testing.T) {
    // cpu: null must not select the legacy decoder.
    payload, err := ParseMetricsPayload([]byte(`{"cpu": null, "temperature": {"cpu_celsius": 40.0}}`))
    require.NoError(t, err)

    assert.Nil(t, payload.CPU)
    require.NotNil(t, payload.Temperature)
    assert.Equal(t, 40.0, *payload.Temperature.CPUCelsius)
}

func TestParseMetricsPayloadAbsentCPUIsModern(t *testing.T) {
    payload, err := ParseMetricsPayload([]byte(`{"memory": {"ram": {"percent": 50.0}}}`))
    require.NoError(t, err)

    assert.Nil(t, payload.CPU)
    require.NotNil(t, payload.Memory)
}

func TestParseMetricsPayloadMalformed(t *testing.T) {
    _, err := ParseMetricsPayload([]byte(`not json`))
    assert.Error(t, err)

    _, err = ParseMetricsPayload([]byte(`{"cpu": "high"`))
    assert.Error(t, err)
}

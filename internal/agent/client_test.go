// internal/agent/client_test.go
package agent

import (
    "context"
    "net"
    "net/http"
    "net/http/httptest"
    "strconv"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "piwatch/internal/store"
)

func testDevice(t *testing.T, server *httptest.Server, token *string) *store.Device {
    t.Helper()

    host, portStr, err := net.SplitHostPort(server.Listener.Addr().String())
    require.NoError(t, err)
    port, err := strconv.Atoi(portStr)
    require.NoError(t, err)

    return &store.Device{
        ID:    "dev-1",
        Name:  "test-device",
        Host:  host,
        Port:  port,
        Token: token,
    }
}

func TestClientHealth(t *testing.T) {
    server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        assert.Equal(t, "/health", r.URL.Path)
        w.Write([]byte(`{"hostname": "pi-kitchen", "uptime_seconds": 3600, "agent_version": "0.5.0", "ip_address": "192.168.1.10"}`))
    }))
    defer server.Close()

    client := NewClient(time.Second)
    health, err := client.Health(context.Background(), testDevice(t, server, nil))
    require.NoError(t, err)

    assert.Equal(t, "pi-kitchen", health.Hostname)
    assert.Equal(t, int64(3600), health.UptimeSeconds)
    assert.Equal(t, "0.5.0", health.AgentVersion)
}

func TestClientSendsBearerToken(t *testing.T) {
    var gotAuth string
    server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        gotAuth = r.Header.Get("Authorization")
        w.Write([]byte(`{"hostname": "pi"}`))
    }))
    defer server.Close()

    token := "secret-token"
    client := NewClient(time.Second)
    _, err := client.Health(context.Background(), testDevice(t, server, &token))
    require.NoError(t, err)

    assert.Equal(t, "Bearer secret-token", gotAuth)
}

func TestClientNoTokenNoHeader(t *testing.T) {
    var gotAuth string
    server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        gotAuth = r.Header.Get("Authorization")
        w.Write([]byte(`{"hostname": "pi"}`))
    }))
    defer server.Close()

    client := NewClient(time.Second)
    _, err := client.Health(context.Background(), testDevice(t, server, nil))
    require.NoError(t, err)

    assert.Empty(t, gotAuth)
}

func TestClientNon2xxIsError(t *testing.T) {
    server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        w.WriteHeader(http.StatusInternalServerError)
    }))
    defer server.Close()

    client := NewClient(time.Second)
    _, err := client.Health(context.Background(), testDevice(t, server, nil))
    assert.Error(t, err)
}

func TestClientMetricsReturnsRawBody(t *testing.T) {
    body := `{"cpu": {"usage_percent": 12.5}}`
    server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        assert.Equal(t, "/metrics", r.URL.Path)
        w.Write([]byte(body))
    }))
    defer server.Close()

    client := NewClient(time.Second)
    payload, raw, err := client.Metrics(context.Background(), testDevice(t, server, nil))
    require.NoError(t, err)

    assert.Equal(t, body, string(raw))
    require.NotNil(t, payload.CPU)
    assert.Equal(t, 12.5, *payload.CPU.UsagePercent)
}

func TestClientTimeout(t *testing.T) {
    server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        time.Sleep(300 * time.Millisecond)
        w.Write([]byte(`{"hostname": "pi"}`))
    }))
    defer server.Close()

    client := NewClient(50 * time.Millisecond)
    _, err := client.Health(context.Background(), testDevice(t, server, nil))
    assert.Error(t, err)
}

func TestClientReboot(t *testing.T) {
    var gotMethod, gotPath string
    server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
        gotMethod = r.Method
        gotPath = r.URL.Path
        w.Write([]byte(`{"status": "rebooting"}`))
    }))
    defer server.Close()

    client := NewClient(time.Second)
    err := client.Reboot(context.Background(), testDevice(t, server, nil))
    require.NoError(t, err)

    assert.Equal(t, http.MethodPost, gotMethod)
    assert.Equal(t, "/reboot", gotPath)
}

func TestProbeHealthDeadHost(t *testing.T) {
    server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
    host, portStr, err := net.SplitHostPort(server.Listener.Addr().String())
    require.NoError(t, err)
    port, _ := strconv.Atoi(portStr)
    server.Close()

    client := NewClient(time.Second)
    _, err = client.ProbeHealth(context.Background(), host, port)
    assert.Error(t, err)
}

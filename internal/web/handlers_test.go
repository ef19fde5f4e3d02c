// internal/web/handlers_test.go
package web

import (
    "context"
    "encoding/json"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "piwatch/internal/config"
    "piwatch/internal/events"
    "piwatch/internal/metrics"
    "piwatch/internal/monitoring"
    "piwatch/internal/store"
)

func newTestServer(t *testing.T) (*Server, *store.MemStore) {
    t.Helper()

    cfg, err := config.Load("")
    require.NoError(t, err)

    st := store.NewMemStore()
    broadcaster := events.NewBroadcaster()
    collector := metrics.NewCollector(st)
    engine := monitoring.NewEngine(cfg, st, broadcaster, collector)

    return NewServer(cfg, st, engine, broadcaster, collector), st
}

func doRequest(s *Server, method, path, body string) *httptest.ResponseRecorder {
    var reader *strings.Reader
    if body == "" {
        reader = strings.NewReader("")
    } else {
        reader = strings.NewReader(body)
    }

    req := httptest.NewRequest(method, path, reader)
    if body != "" {
        req.Header.Set("Content-Type", "application/json")
    }

    w := httptest.NewRecorder()
    s.router.ServeHTTP(w, req)
    return w
}

func TestCreateAndListDevices(t *testing.T) {
    s, _ := newTestServer(t)

    w := doRequest(s, http.MethodPost, "/api/devices", `{"name": "pi-kitchen", "host": "192.168.1.10"}`)
    require.Equal(t, http.StatusCreated, w.Code)

    var created struct {
        Data store.Device `json:"data"`
    }
    require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
    assert.NotEmpty(t, created.Data.ID)
    // Port defaults to the standard agent port when omitted.
    assert.Equal(t, 9100, created.Data.Port)

    w = doRequest(s, http.MethodGet, "/api/devices", "")
    require.Equal(t, http.StatusOK, w.Code)

    var listed struct {
        Data  []store.DeviceWithStatus `json:"data"`
        Count int                      `json:"count"`
    }
    require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
    require.Equal(t, 1, listed.Count)
    assert.Equal(t, "pi-kitchen", listed.Data[0].Name)
    // A never-polled device still carries its seeded status row.
    require.NotNil(t, listed.Data[0].Status)
    assert.Equal(t, store.StatusUnknown, listed.Data[0].Status.Status)
    assert.Nil(t, listed.Data[0].LatestMetrics)
}

func TestCreateDeviceValidation(t *testing.T) {
    s, _ := newTestServer(t)

    w := doRequest(s, http.MethodPost, "/api/devices", `{"host": "192.168.1.10"}`)
    assert.Equal(t, http.StatusBadRequest, w.Code)

    w = doRequest(s, http.MethodPost, "/api/devices", `{"name": "pi"}`)
    assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetDeviceNotFound(t *testing.T) {
    s, _ := newTestServer(t)

    w := doRequest(s, http.MethodGet, "/api/devices/missing", "")
    assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestUpdateAndDeleteDevice(t *testing.T) {
    s, st := newTestServer(t)

    device := &store.Device{Name: "pi", Host: "10.0.0.1", Port: 9100}
    require.NoError(t, st.CreateDevice(context.Background(), device))

    w := doRequest(s, http.MethodPut, "/api/devices/"+device.ID, `{"name": "pi-renamed", "host": "10.0.0.2"}`)
    require.Equal(t, http.StatusOK, w.Code)

    updated, err := st.GetDevice(context.Background(), device.ID)
    require.NoError(t, err)
    assert.Equal(t, "pi-renamed", updated.Name)
    assert.Equal(t, "10.0.0.2", updated.Host)

    w = doRequest(s, http.MethodDelete, "/api/devices/"+device.ID, "")
    require.Equal(t, http.StatusOK, w.Code)

    _, err = st.GetDevice(context.Background(), device.ID)
    assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestGetDeviceMetricsRange(t *testing.T) {
    s, st := newTestServer(t)
    ctx := context.Background()

    device := &store.Device{Name: "pi", Host: "10.0.0.1", Port: 9100}
    require.NoError(t, st.CreateDevice(ctx, device))

    usage := 42.5
    require.NoError(t, st.InsertMetric(ctx, &store.Metric{
        DeviceID:  device.ID,
        Timestamp: time.Now().Add(-10 * time.Minute),
        CPUUsage:  &usage,
    }))
    require.NoError(t, st.InsertMetric(ctx, &store.Metric{
        DeviceID:  device.ID,
        Timestamp: time.Now().Add(-3 * time.Hour),
    }))

    w := doRequest(s, http.MethodGet, "/api/devices/"+device.ID+"/metrics?range=1h", "")
    require.Equal(t, http.StatusOK, w.Code)

    var resp struct {
        Data  []store.Metric `json:"data"`
        Count int            `json:"count"`
    }
    require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
    assert.Equal(t, 1, resp.Count)

    w = doRequest(s, http.MethodGet, "/api/devices/"+device.ID+"/metrics?range=6h", "")
    require.Equal(t, http.StatusOK, w.Code)
    require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
    assert.Equal(t, 2, resp.Count)

    w = doRequest(s, http.MethodGet, "/api/devices/"+device.ID+"/metrics?range=2w", "")
    assert.Equal(t, http.StatusBadRequest, w.Code)

    w = doRequest(s, http.MethodGet, "/api/devices/missing/metrics", "")
    assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestAlertsListAndResolve(t *testing.T) {
    s, st := newTestServer(t)
    ctx := context.Background()

    alert := &store.Alert{DeviceID: "dev-1", Type: store.AlertHighCPU, Message: "CPU usage at 95.0%"}
    require.NoError(t, st.CreateAlert(ctx, alert))

    w := doRequest(s, http.MethodGet, "/api/alerts?unresolved=true", "")
    require.Equal(t, http.StatusOK, w.Code)

    var listed struct {
        Count int `json:"count"`
    }
    require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
    assert.Equal(t, 1, listed.Count)

    w = doRequest(s, http.MethodPost, "/api/alerts/"+alert.ID+"/resolve", "")
    require.Equal(t, http.StatusOK, w.Code)

    w = doRequest(s, http.MethodGet, "/api/alerts?unresolved=true", "")
    require.NoError(t, json.Unmarshal(w.Body.Bytes(), &listed))
    assert.Zero(t, listed.Count)

    w = doRequest(s, http.MethodPost, "/api/alerts/missing/resolve", "")
    assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestSettingsRoundTrip(t *testing.T) {
    s, _ := newTestServer(t)

    w := doRequest(s, http.MethodGet, "/api/settings", "")
    require.Equal(t, http.StatusOK, w.Code)

    var resp struct {
        Data map[string]string `json:"data"`
    }
    require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
    assert.Equal(t, "15", resp.Data[store.SettingPollInterval])

    w = doRequest(s, http.MethodPut, "/api/settings", `{"poll_interval": "30", "cpu_threshold": "75"}`)
    require.Equal(t, http.StatusOK, w.Code)

    require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
    assert.Equal(t, "30", resp.Data[store.SettingPollInterval])
    assert.Equal(t, "75", resp.Data[store.SettingCPUThreshold])
}

func TestSettingsValidation(t *testing.T) {
    s, st := newTestServer(t)

    w := doRequest(s, http.MethodPut, "/api/settings", `{"unknown_key": "1"}`)
    assert.Equal(t, http.StatusBadRequest, w.Code)

    w = doRequest(s, http.MethodPut, "/api/settings", `{"poll_interval": "fast"}`)
    assert.Equal(t, http.StatusBadRequest, w.Code)

    w = doRequest(s, http.MethodPut, "/api/settings", `{"poll_interval": "-5"}`)
    assert.Equal(t, http.StatusBadRequest, w.Code)

    // A rejected request leaves the store untouched.
    settings, err := st.GetSettings(context.Background())
    require.NoError(t, err)
    assert.Equal(t, "15", settings[store.SettingPollInterval])
}

func TestHealthEndpoint(t *testing.T) {
    s, _ := newTestServer(t)

    w := doRequest(s, http.MethodGet, "/api/health", "")
    require.Equal(t, http.StatusOK, w.Code)
    assert.Contains(t, w.Body.String(), "healthy")
    assert.Contains(t, w.Body.String(), config.Version)
}

func TestCORSPreflight(t *testing.T) {
    s, _ := newTestServer(t)

    w := doRequest(s, http.MethodOptions, "/api/devices", "")
    assert.Equal(t, http.StatusNoContent, w.Code)
    assert.Equal(t, "*", w.Header().Get("Access-Control-Allow-Origin"))
}

// internal/agent/client.go
package agent

import (
    "context"
    "encoding/json"
    "fmt"
    "io"
    "net/http"
    "time"

    "piwatch/internal/store"
)

const (
    // DefaultTimeout bounds every poll-path agent call so an unreachable
    // device cannot stall its slot in the cycle.
    DefaultTimeout = 5 * time.Second

    // ProbeTimeout bounds discovery probes, which sweep whole subnets.
    ProbeTimeout = 2 * time.Second

    // DefaultPort is the port agents listen on unless a device says
    // otherwise.
    DefaultPort = 9100

    maxBodySize = 4 << 20
)

// Client talks to the HTTP agents running on monitored devices.
type Client struct {
    httpClient *http.Client
    timeout    time.Duration
}

func NewClient(timeout time.Duration) *Client {
    if timeout <= 0 {
        timeout = DefaultTimeout
    }
    return &Client{
        httpClient: &http.Client{},
        timeout:    timeout,
    }
}

// Health fetches /health. Any transport error, timeout or non-2xx response
// comes back as an error; callers treat them all the same way.
func (c *Client) Health(ctx context.Context, device *store.Device) (*Health, error) {
    body, err := c.get(ctx, device, "/health")
    if err != nil {
        return nil, err
    }

    var health Health
    if err := json.Unmarshal(body, &health); err != nil {
        return nil, fmt.Errorf("malformed health payload: %w", err)
    }
    return &health, nil
}

// Metrics fetches /metrics and returns both the canonical payload and the
// raw body, which is persisted verbatim alongside the normalized sample.
func (c *Client) Metrics(ctx context.Context, device *store.Device) (*MetricsPayload, []byte, error) {
    body, err := c.get(ctx, device, "/metrics")
    if err != nil {
        return nil, nil, err
    }

    payload, err := ParseMetricsPayload(body)
    if err != nil {
        return nil, nil, err
    }
    return payload, body, nil
}

// Cron fetches the agent's cron listing, passed through to the API
// unmodified.
func (c *Client) Cron(ctx context.Context, device *store.Device) (json.RawMessage, error) {
    body, err := c.get(ctx, device, "/cron")
    if err != nil {
        return nil, err
    }
    return json.RawMessage(body), nil
}

// Reboot asks the agent to reboot its host.
func (c *Client) Reboot(ctx context.Context, device *store.Device) error {
    ctx, cancel := context.WithTimeout(ctx, c.timeout)
    defer cancel()

    url := fmt.Sprintf("http://%s:%d/reboot", device.Host, device.Port)
    req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, nil)
    if err != nil {
        return err
    }
    setAuth(req, device)

    resp, err := c.httpClient.Do(req)
    if err != nil {
        return err
    }
    defer resp.Body.Close()
    io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        return fmt.Errorf("agent returned status %d", resp.StatusCode)
    }
    return nil
}

// ProbeHealth checks a single host:port for a live agent with the short
// discovery timeout. Used by the subnet sweep, not the poll path.
func (c *Client) ProbeHealth(ctx context.Context, host string, port int) (*Health, error) {
    ctx, cancel := context.WithTimeout(ctx, ProbeTimeout)
    defer cancel()

    url := fmt.Sprintf("http://%s:%d/health", host, port)
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    if err != nil {
        return nil, err
    }

    resp, err := c.httpClient.Do(req)
    if err != nil {
        return nil, err
    }
    defer resp.Body.Close()

    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        return nil, fmt.Errorf("agent returned status %d", resp.StatusCode)
    }

    body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
    if err != nil {
        return nil, err
    }

    var health Health
    if err := json.Unmarshal(body, &health); err != nil {
        return nil, fmt.Errorf("malformed health payload: %w", err)
    }
    return &health, nil
}

func (c *Client) get(ctx context.Context, device *store.Device, path string) ([]byte, error) {
    ctx, cancel := context.WithTimeout(ctx, c.timeout)
    defer cancel()

    url := fmt.Sprintf("http://%s:%d%s", device.Host, device.Port, path)
    req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
    if err != nil {
        return nil, err
    }
    setAuth(req, device)

    resp, err := c.httpClient.Do(req)
    if err != nil {
        return nil, err
    }
    defer resp.Body.Close()

    if resp.StatusCode < 200 || resp.StatusCode > 299 {
        return nil, fmt.Errorf("agent returned status %d", resp.StatusCode)
    }

    return io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
}

func setAuth(req *http.Request, device *store.Device) {
    if device.Token != nil && *device.Token != "" {
        req.Header.Set("Authorization", "Bearer "+*device.Token)
    }
}

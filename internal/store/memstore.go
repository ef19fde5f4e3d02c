// internal/store/memstore.go - In-memory Store for tests
package store

import (
    "context"
    "sort"
    "sync"
    "time"

    "github.com/google/uuid"
)

// MemStore is a map-backed Store used by tests in place of BoltDB.
type MemStore struct {
    mu       sync.RWMutex
    devices  map[string]Device
    statuses map[string]DeviceStatus
    metrics  []Metric
    alerts   map[string]Alert
    settings map[string]string
}

func NewMemStore() *MemStore {
    settings := make(map[string]string, len(SettingDefaults))
    for k, v := range SettingDefaults {
        settings[k] = v
    }
    return &MemStore{
        devices:  make(map[string]Device),
        statuses: make(map[string]DeviceStatus),
        alerts:   make(map[string]Alert),
        settings: settings,
    }
}

func (s *MemStore) GetDevices(ctx context.Context) ([]Device, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()

    devices := make([]Device, 0, len(s.devices))
    for _, d := range s.devices {
        devices = append(devices, d)
    }
    sort.Slice(devices, func(i, j int) bool { return devices[i].Name < devices[j].Name })
    return devices, nil
}

func (s *MemStore) GetDevice(ctx context.Context, id string) (*Device, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()

    d, ok := s.devices[id]
    if !ok {
        return nil, ErrNotFound
    }
    return &d, nil
}

func (s *MemStore) CreateDevice(ctx context.Context, device *Device) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    if device.ID == "" {
        device.ID = uuid.New().String()
    }
    device.CreatedAt = time.Now()
    device.UpdatedAt = time.Now()

    s.devices[device.ID] = *device
    s.statuses[device.ID] = DeviceStatus{DeviceID: device.ID, Status: StatusUnknown}
    return nil
}

func (s *MemStore) UpdateDevice(ctx context.Context, device *Device) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    if _, ok := s.devices[device.ID]; !ok {
        return ErrNotFound
    }
    device.UpdatedAt = time.Now()
    s.devices[device.ID] = *device
    return nil
}

func (s *MemStore) DeleteDevice(ctx context.Context, id string) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    if _, ok := s.devices[id]; !ok {
        return ErrNotFound
    }
    delete(s.devices, id)
    delete(s.statuses, id)

    kept := s.metrics[:0]
    for _, m := range s.metrics {
        if m.DeviceID != id {
            kept = append(kept, m)
        }
    }
    s.metrics = kept

    for alertID, a := range s.alerts {
        if a.DeviceID == id {
            delete(s.alerts, alertID)
        }
    }
    return nil
}

func (s *MemStore) GetDeviceStatus(ctx context.Context, deviceID string) (*DeviceStatus, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()

    st, ok := s.statuses[deviceID]
    if !ok {
        return nil, ErrNotFound
    }
    return &st, nil
}

func (s *MemStore) UpsertDeviceStatus(ctx context.Context, status *DeviceStatus) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    s.statuses[status.DeviceID] = *status
    return nil
}

func (s *MemStore) MarkDeviceOffline(ctx context.Context, deviceID string) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    st, ok := s.statuses[deviceID]
    if !ok {
        st = DeviceStatus{DeviceID: deviceID}
    }
    st.Status = StatusOffline
    s.statuses[deviceID] = st
    return nil
}

func (s *MemStore) InsertMetric(ctx context.Context, metric *Metric) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    if metric.ID == "" {
        metric.ID = uuid.New().String()
    }
    if metric.Timestamp.IsZero() {
        metric.Timestamp = time.Now()
    }
    s.metrics = append(s.metrics, *metric)
    return nil
}

func (s *MemStore) GetMetrics(ctx context.Context, filters MetricFilters) ([]Metric, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()

    var metrics []Metric
    for _, m := range s.metrics {
        if filters.DeviceID != "" && m.DeviceID != filters.DeviceID {
            continue
        }
        if filters.Since != nil && !m.Timestamp.After(*filters.Since) {
            continue
        }
        metrics = append(metrics, m)
    }
    sort.Slice(metrics, func(i, j int) bool { return metrics[i].Timestamp.Before(metrics[j].Timestamp) })
    if filters.Limit > 0 && len(metrics) > filters.Limit {
        metrics = metrics[:filters.Limit]
    }
    return metrics, nil
}

func (s *MemStore) GetLatestMetric(ctx context.Context, deviceID string) (*Metric, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()

    var latest *Metric
    for i := range s.metrics {
        m := &s.metrics[i]
        if m.DeviceID != deviceID {
            continue
        }
        if latest == nil || m.Timestamp.After(latest.Timestamp) {
            latest = m
        }
    }
    if latest == nil {
        return nil, ErrNotFound
    }
    out := *latest
    return &out, nil
}

func (s *MemStore) DeleteMetricsBefore(ctx context.Context, cutoff time.Time) (int, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    kept := s.metrics[:0]
    deleted := 0
    for _, m := range s.metrics {
        if m.Timestamp.Before(cutoff) {
            deleted++
            continue
        }
        kept = append(kept, m)
    }
    s.metrics = kept
    return deleted, nil
}

func (s *MemStore) CreateAlert(ctx context.Context, alert *Alert) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    if alert.ID == "" {
        alert.ID = uuid.New().String()
    }
    if alert.CreatedAt.IsZero() {
        alert.CreatedAt = time.Now()
    }
    s.alerts[alert.ID] = *alert
    return nil
}

func (s *MemStore) GetAlerts(ctx context.Context, filters AlertFilters) ([]Alert, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()

    var alerts []Alert
    for _, a := range s.alerts {
        if filters.DeviceID != "" && a.DeviceID != filters.DeviceID {
            continue
        }
        if filters.Type != "" && a.Type != filters.Type {
            continue
        }
        if filters.Unresolved && a.ResolvedAt != nil {
            continue
        }
        if filters.Since != nil && !a.CreatedAt.After(*filters.Since) {
            continue
        }
        alerts = append(alerts, a)
    }
    sort.Slice(alerts, func(i, j int) bool { return alerts[i].CreatedAt.After(alerts[j].CreatedAt) })
    if filters.Limit > 0 && len(alerts) > filters.Limit {
        alerts = alerts[:filters.Limit]
    }
    return alerts, nil
}

func (s *MemStore) ResolveAlert(ctx context.Context, id string) (*Alert, error) {
    s.mu.Lock()
    defer s.mu.Unlock()

    a, ok := s.alerts[id]
    if !ok {
        return nil, ErrNotFound
    }
    if a.ResolvedAt == nil {
        now := time.Now()
        a.ResolvedAt = &now
    }
    s.alerts[id] = a
    return &a, nil
}

func (s *MemStore) GetSettings(ctx context.Context) (Settings, error) {
    s.mu.RLock()
    defer s.mu.RUnlock()

    settings := make(Settings, len(s.settings))
    for k, v := range s.settings {
        settings[k] = v
    }
    return settings, nil
}

func (s *MemStore) PutSetting(ctx context.Context, key, value string) error {
    s.mu.Lock()
    defer s.mu.Unlock()

    s.settings[key] = value
    return nil
}

func (s *MemStore) Close() error {
    return nil
}

// internal/store/store.go
package store

import (
    "context"
    "errors"
    "time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the persistence interface shared by the monitoring core and
// the web API.
type Store interface {
    // Device operations
    GetDevices(ctx context.Context) ([]Device, error)
    GetDevice(ctx context.Context, id string) (*Device, error)
    CreateDevice(ctx context.Context, device *Device) error
    UpdateDevice(ctx context.Context, device *Device) error
    DeleteDevice(ctx context.Context, id string) error

    // Device status operations
    GetDeviceStatus(ctx context.Context, deviceID string) (*DeviceStatus, error)
    UpsertDeviceStatus(ctx context.Context, status *DeviceStatus) error
    MarkDeviceOffline(ctx context.Context, deviceID string) error

    // Metric operations (append-only time series)
    InsertMetric(ctx context.Context, metric *Metric) error
    GetMetrics(ctx context.Context, filters MetricFilters) ([]Metric, error)
    GetLatestMetric(ctx context.Context, deviceID string) (*Metric, error)
    DeleteMetricsBefore(ctx context.Context, cutoff time.Time) (int, error)

    // Alert operations
    CreateAlert(ctx context.Context, alert *Alert) error
    GetAlerts(ctx context.Context, filters AlertFilters) ([]Alert, error)
    ResolveAlert(ctx context.Context, id string) (*Alert, error)

    // Settings operations
    GetSettings(ctx context.Context) (Settings, error)
    PutSetting(ctx context.Context, key, value string) error

    // Close the database connection
    Close() error
}

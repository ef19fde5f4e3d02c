// internal/store/boltstore.go - BoltDB implementation
package store

import (
    "context"
    "encoding/json"
    "fmt"
    "os"
    "path/filepath"
    "strings"
    "time"

    "github.com/google/uuid"
    "go.etcd.io/bbolt"
)

var (
    DevicesBucket  = []byte("devices")
    StatusBucket   = []byte("device_status")
    MetricsBucket  = []byte("metrics")
    AlertsBucket   = []byte("alerts")
    SettingsBucket = []byte("settings")
)

type BoltStore struct {
    db   *bbolt.DB
    path string
}

func NewBoltStore(path string) (Store, error) {
    // Create directory if it doesn't exist
    if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
        return nil, fmt.Errorf("failed to create data directory: %w", err)
    }

    db, err := bbolt.Open(path, 0600, &bbolt.Options{
        Timeout: 1 * time.Second,
    })
    if err != nil {
        return nil, fmt.Errorf("failed to open BoltDB: %w", err)
    }

    store := &BoltStore{db: db, path: path}

    if err := store.initBuckets(); err != nil {
        db.Close()
        return nil, fmt.Errorf("failed to initialize buckets: %w", err)
    }

    if err := store.seedSettings(); err != nil {
        db.Close()
        return nil, fmt.Errorf("failed to seed settings: %w", err)
    }

    return store, nil
}

func (s *BoltStore) initBuckets() error {
    return s.db.Update(func(tx *bbolt.Tx) error {
        buckets := [][]byte{DevicesBucket, StatusBucket, MetricsBucket, AlertsBucket, SettingsBucket}
        for _, bucket := range buckets {
            if _, err := tx.CreateBucketIfNotExists(bucket); err != nil {
                return fmt.Errorf("failed to create bucket %s: %w", bucket, err)
            }
        }
        return nil
    })
}

func (s *BoltStore) seedSettings() error {
    return s.db.Update(func(tx *bbolt.Tx) error {
        b := tx.Bucket(SettingsBucket)
        for key, value := range SettingDefaults {
            if b.Get([]byte(key)) == nil {
                if err := b.Put([]byte(key), []byte(value)); err != nil {
                    return err
                }
            }
        }
        return nil
    })
}

func (s *BoltStore) GetDevices(ctx context.Context) ([]Device, error) {
    var devices []Device

    err := s.db.View(func(tx *bbolt.Tx) error {
        b := tx.Bucket(DevicesBucket)
        return b.ForEach(func(k, v []byte) error {
            var device Device
            if err := json.Unmarshal(v, &device); err != nil {
                return fmt.Errorf("failed to unmarshal device %s: %w", k, err)
            }
            devices = append(devices, device)
            return nil
        })
    })

    return devices, err
}

func (s *BoltStore) GetDevice(ctx context.Context, id string) (*Device, error) {
    var device Device

    err := s.db.View(func(tx *bbolt.Tx) error {
        b := tx.Bucket(DevicesBucket)
        v := b.Get([]byte(id))
        if v == nil {
            return ErrNotFound
        }
        return json.Unmarshal(v, &device)
    })

    if err != nil {
        return nil, err
    }
    return &device, nil
}

// CreateDevice stores the device and seeds its status row with status
// "unknown"; the poller flips it on the next cycle.
func (s *BoltStore) CreateDevice(ctx context.Context, device *Device) error {
    if device.ID == "" {
        device.ID = uuid.New().String()
    }
    device.CreatedAt = time.Now()
    device.UpdatedAt = time.Now()

    return s.db.Update(func(tx *bbolt.Tx) error {
        b := tx.Bucket(DevicesBucket)

        data, err := json.Marshal(device)
        if err != nil {
            return fmt.Errorf("failed to marshal device: %w", err)
        }
        if err := b.Put([]byte(device.ID), data); err != nil {
            return err
        }

        status := DeviceStatus{
            DeviceID: device.ID,
            Status:   StatusUnknown,
        }
        statusData, err := json.Marshal(&status)
        if err != nil {
            return fmt.Errorf("failed to marshal device status: %w", err)
        }
        return tx.Bucket(StatusBucket).Put([]byte(device.ID), statusData)
    })
}

func (s *BoltStore) UpdateDevice(ctx context.Context, device *Device) error {
    device.UpdatedAt = time.Now()

    return s.db.Update(func(tx *bbolt.Tx) error {
        b := tx.Bucket(DevicesBucket)
        if b.Get([]byte(device.ID)) == nil {
            return ErrNotFound
        }

        data, err := json.Marshal(device)
        if err != nil {
            return fmt.Errorf("failed to marshal device: %w", err)
        }

        return b.Put([]byte(device.ID), data)
    })
}

// DeleteDevice removes the device along with its status row, metric history
// and alerts.
func (s *BoltStore) DeleteDevice(ctx context.Context, id string) error {
    return s.db.Update(func(tx *bbolt.Tx) error {
        b := tx.Bucket(DevicesBucket)
        if b.Get([]byte(id)) == nil {
            return ErrNotFound
        }
        if err := b.Delete([]byte(id)); err != nil {
            return err
        }
        if err := tx.Bucket(StatusBucket).Delete([]byte(id)); err != nil {
            return err
        }

        mb := tx.Bucket(MetricsBucket)
        prefix := id + ":"
        var keysToDelete [][]byte
        c := mb.Cursor()
        for k, _ := c.Seek([]byte(prefix)); k != nil && strings.HasPrefix(string(k), prefix); k, _ = c.Next() {
            keysToDelete = append(keysToDelete, copyBytes(k))
        }
        for _, key := range keysToDelete {
            if err := mb.Delete(key); err != nil {
                return err
            }
        }

        ab := tx.Bucket(AlertsBucket)
        var alertKeys [][]byte
        err := ab.ForEach(func(k, v []byte) error {
            var alert Alert
            if err := json.Unmarshal(v, &alert); err != nil {
                return nil
            }
            if alert.DeviceID == id {
                alertKeys = append(alertKeys, copyBytes(k))
            }
            return nil
        })
        if err != nil {
            return err
        }
        for _, key := range alertKeys {
            if err := ab.Delete(key); err != nil {
                return err
            }
        }
        return nil
    })
}

func (s *BoltStore) GetDeviceStatus(ctx context.Context, deviceID string) (*DeviceStatus, error) {
    var status DeviceStatus

    err := s.db.View(func(tx *bbolt.Tx) error {
        b := tx.Bucket(StatusBucket)
        v := b.Get([]byte(deviceID))
        if v == nil {
            return ErrNotFound
        }
        return json.Unmarshal(v, &status)
    })

    if err != nil {
        return nil, err
    }
    return &status, nil
}

func (s *BoltStore) UpsertDeviceStatus(ctx context.Context, status *DeviceStatus) error {
    return s.db.Update(func(tx *bbolt.Tx) error {
        b := tx.Bucket(StatusBucket)

        data, err := json.Marshal(status)
        if err != nil {
            return fmt.Errorf("failed to marshal device status: %w", err)
        }

        return b.Put([]byte(status.DeviceID), data)
    })
}

// MarkDeviceOffline flips only the status field; last_seen and the info
// fields keep their values from the last successful poll.
func (s *BoltStore) MarkDeviceOffline(ctx context.Context, deviceID string) error {
    return s.db.Update(func(tx *bbolt.Tx) error {
        b := tx.Bucket(StatusBucket)

        status := DeviceStatus{DeviceID: deviceID, Status: StatusOffline}
        if v := b.Get([]byte(deviceID)); v != nil {
            if err := json.Unmarshal(v, &status); err != nil {
                return fmt.Errorf("failed to unmarshal device status: %w", err)
            }
            status.Status = StatusOffline
        }

        data, err := json.Marshal(&status)
        if err != nil {
            return fmt.Errorf("failed to marshal device status: %w", err)
        }

        return b.Put([]byte(deviceID), data)
    })
}

// metricKey orders samples per device by timestamp; the zero-padded
// nanosecond component keeps bolt's byte ordering chronological.
func metricKey(deviceID string, ts time.Time) []byte {
    return []byte(fmt.Sprintf("%s:%020d", deviceID, ts.UnixNano()))
}

func (s *BoltStore) InsertMetric(ctx context.Context, metric *Metric) error {
    if metric.ID == "" {
        metric.ID = uuid.New().String()
    }
    if metric.Timestamp.IsZero() {
        metric.Timestamp = time.Now()
    }

    return s.db.Update(func(tx *bbolt.Tx) error {
        b := tx.Bucket(MetricsBucket)

        data, err := json.Marshal(metric)
        if err != nil {
            return fmt.Errorf("failed to marshal metric: %w", err)
        }

        return b.Put(metricKey(metric.DeviceID, metric.Timestamp), data)
    })
}

func (s *BoltStore) GetMetrics(ctx context.Context, filters MetricFilters) ([]Metric, error) {
    var metrics []Metric

    err := s.db.View(func(tx *bbolt.Tx) error {
        b := tx.Bucket(MetricsBucket)
        c := b.Cursor()

        prefix := filters.DeviceID + ":"

        for k, v := c.Seek([]byte(prefix)); k != nil && strings.HasPrefix(string(k), prefix); k, v = c.Next() {
            var metric Metric
            if err := json.Unmarshal(v, &metric); err != nil {
                continue
            }

            if filters.Since != nil && !metric.Timestamp.After(*filters.Since) {
                continue
            }

            metrics = append(metrics, metric)

            if filters.Limit > 0 && len(metrics) >= filters.Limit {
                return nil
            }
        }

        return nil
    })

    return metrics, err
}

func (s *BoltStore) GetLatestMetric(ctx context.Context, deviceID string) (*Metric, error) {
    var metric Metric
    found := false

    err := s.db.View(func(tx *bbolt.Tx) error {
        b := tx.Bucket(MetricsBucket)
        c := b.Cursor()

        prefix := deviceID + ":"

        // Keys are chronological within the prefix, so the last match wins.
        for k, v := c.Seek([]byte(prefix)); k != nil && strings.HasPrefix(string(k), prefix); k, v = c.Next() {
            if err := json.Unmarshal(v, &metric); err != nil {
                continue
            }
            found = true
        }

        return nil
    })

    if err != nil {
        return nil, err
    }
    if !found {
        return nil, ErrNotFound
    }
    return &metric, nil
}

// DeleteMetricsBefore removes every sample older than cutoffTime across all
// devices and returns the number removed.
func (s *BoltStore) DeleteMetricsBefore(ctx context.Context, cutoffTime time.Time) (int, error) {
    deletedCount := 0

    err := s.db.Update(func(tx *bbolt.Tx) error {
        b := tx.Bucket(MetricsBucket)

        var keysToDelete [][]byte
        c := b.Cursor()

        for k, v := c.First(); k != nil; k, v = c.Next() {
            var metric Metric
            if err := json.Unmarshal(v, &metric); err != nil {
                continue
            }
            if metric.Timestamp.Before(cutoffTime) {
                keysToDelete = append(keysToDelete, copyBytes(k))
            }
        }

        for _, key := range keysToDelete {
            if err := b.Delete(key); err != nil {
                return fmt.Errorf("failed to delete metric: %w", err)
            }
            deletedCount++
        }

        return nil
    })

    return deletedCount, err
}

func (s *BoltStore) CreateAlert(ctx context.Context, alert *Alert) error {
    if alert.ID == "" {
        alert.ID = uuid.New().String()
    }
    if alert.CreatedAt.IsZero() {
        alert.CreatedAt = time.Now()
    }

    return s.db.Update(func(tx *bbolt.Tx) error {
        b := tx.Bucket(AlertsBucket)

        data, err := json.Marshal(alert)
        if err != nil {
            return fmt.Errorf("failed to marshal alert: %w", err)
        }

        return b.Put([]byte(alert.ID), data)
    })
}

func (s *BoltStore) GetAlerts(ctx context.Context, filters AlertFilters) ([]Alert, error) {
    var alerts []Alert

    err := s.db.View(func(tx *bbolt.Tx) error {
        b := tx.Bucket(AlertsBucket)
        return b.ForEach(func(k, v []byte) error {
            var alert Alert
            if err := json.Unmarshal(v, &alert); err != nil {
                return nil // Skip malformed entries
            }

            // Apply filters
            if filters.DeviceID != "" && alert.DeviceID != filters.DeviceID {
                return nil
            }
            if filters.Type != "" && alert.Type != filters.Type {
                return nil
            }
            if filters.Unresolved && alert.ResolvedAt != nil {
                return nil
            }
            if filters.Since != nil && !alert.CreatedAt.After(*filters.Since) {
                return nil
            }

            alerts = append(alerts, alert)

            if filters.Limit > 0 && len(alerts) >= filters.Limit {
                return fmt.Errorf("limit_reached")
            }

            return nil
        })
    })

    if err != nil && err.Error() == "limit_reached" {
        err = nil
    }

    return alerts, err
}

// ResolveAlert stamps resolved_at. Resolution is a manual operation; the
// evaluator never resolves alerts itself.
func (s *BoltStore) ResolveAlert(ctx context.Context, id string) (*Alert, error) {
    var alert Alert

    err := s.db.Update(func(tx *bbolt.Tx) error {
        b := tx.Bucket(AlertsBucket)
        v := b.Get([]byte(id))
        if v == nil {
            return ErrNotFound
        }
        if err := json.Unmarshal(v, &alert); err != nil {
            return fmt.Errorf("failed to unmarshal alert: %w", err)
        }

        if alert.ResolvedAt == nil {
            now := time.Now()
            alert.ResolvedAt = &now
        }

        data, err := json.Marshal(&alert)
        if err != nil {
            return fmt.Errorf("failed to marshal alert: %w", err)
        }
        return b.Put([]byte(id), data)
    })

    if err != nil {
        return nil, err
    }
    return &alert, nil
}

func (s *BoltStore) GetSettings(ctx context.Context) (Settings, error) {
    settings := make(Settings)

    err := s.db.View(func(tx *bbolt.Tx) error {
        b := tx.Bucket(SettingsBucket)
        return b.ForEach(func(k, v []byte) error {
            settings[string(k)] = string(v)
            return nil
        })
    })

    return settings, err
}

func (s *BoltStore) PutSetting(ctx context.Context, key, value string) error {
    return s.db.Update(func(tx *bbolt.Tx) error {
        return tx.Bucket(SettingsBucket).Put([]byte(key), []byte(value))
    })
}

func (s *BoltStore) Close() error {
    return s.db.Close()
}

func copyBytes(b []byte) []byte {
    out := make([]byte, len(b))
    copy(out, b)
    return out
}

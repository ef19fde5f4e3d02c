// internal/monitoring/sweeper_test.go
package monitoring

import (
    "context"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "piwatch/internal/metrics"
    "piwatch/internal/store"
)

func insertSampleAt(t *testing.T, st store.Store, deviceID string, ts time.Time) {
    t.Helper()
    err := st.InsertMetric(context.Background(), &store.Metric{
        DeviceID:  deviceID,
        Timestamp: ts,
    })
    require.NoError(t, err)
}

func TestSweepDeletesOnlyExpiredSamples(t *testing.T) {
    st := store.NewMemStore()
    sweeper := NewSweeper(st, metrics.NewCollector(st))

    now := time.Now()
    insertSampleAt(t, st, "dev-1", now.AddDate(0, 0, -8))
    insertSampleAt(t, st, "dev-1", now.AddDate(0, 0, -6))
    insertSampleAt(t, st, "dev-1", now)

    sweeper.Sweep(context.Background())

    remaining, err := st.GetMetrics(context.Background(), store.MetricFilters{DeviceID: "dev-1"})
    require.NoError(t, err)
    assert.Len(t, remaining, 2)
}

func TestSweepHonorsRetentionSetting(t *testing.T) {
    st := store.NewMemStore()
    require.NoError(t, st.PutSetting(context.Background(), store.SettingRetentionRawDays, "3"))

    sweeper := NewSweeper(st, metrics.NewCollector(st))

    now := time.Now()
    insertSampleAt(t, st, "dev-1", now.AddDate(0, 0, -4))
    insertSampleAt(t, st, "dev-1", now.AddDate(0, 0, -2))

    sweeper.Sweep(context.Background())

    remaining, err := st.GetMetrics(context.Background(), store.MetricFilters{DeviceID: "dev-1"})
    require.NoError(t, err)
    assert.Len(t, remaining, 1)
}

func TestSweepInvalidSettingFallsBack(t *testing.T) {
    st := store.NewMemStore()
    require.NoError(t, st.PutSetting(context.Background(), store.SettingRetentionRawDays, "0"))

    sweeper := NewSweeper(st, metrics.NewCollector(st))

    now := time.Now()
    insertSampleAt(t, st, "dev-1", now.AddDate(0, 0, -6))

    // Falls back to the 7-day default, so a 6-day-old sample survives.
    sweeper.Sweep(context.Background())

    remaining, err := st.GetMetrics(context.Background(), store.MetricFilters{DeviceID: "dev-1"})
    require.NoError(t, err)
    assert.Len(t, remaining, 1)
}

func TestSweepIsIdempotent(t *testing.T) {
    st := store.NewMemStore()
    sweeper := NewSweeper(st, metrics.NewCollector(st))

    now := time.Now()
    insertSampleAt(t, st, "dev-1", now.AddDate(0, 0, -8))
    insertSampleAt(t, st, "dev-1", now)

    sweeper.Sweep(context.Background())
    sweeper.Sweep(context.Background())

    remaining, err := st.GetMetrics(context.Background(), store.MetricFilters{DeviceID: "dev-1"})
    require.NoError(t, err)
    assert.Len(t, remaining, 1)
}

// internal/store/settings.go
package store

import "strconv"

// Recognized settings keys.
const (
    SettingPollInterval        = "poll_interval"
    SettingTempThreshold       = "temp_threshold"
    SettingCPUThreshold        = "cpu_threshold"
    SettingMemoryThreshold     = "memory_threshold"
    SettingDiskThreshold       = "disk_threshold"
    SettingRetentionRawDays    = "retention_raw_days"
    SettingRetentionHourlyDays = "retention_hourly_days"
    SettingRetentionDailyDays  = "retention_daily_days"
)

// Defaults seeded on first open and substituted for absent or unparsable
// values. The hourly/daily retention windows are stored and served but no
// rollup logic consumes them yet.
var SettingDefaults = map[string]string{
    SettingPollInterval:        "15",
    SettingTempThreshold:       "70",
    SettingCPUThreshold:        "90",
    SettingMemoryThreshold:     "90",
    SettingDiskThreshold:       "90",
    SettingRetentionRawDays:    "7",
    SettingRetentionHourlyDays: "30",
    SettingRetentionDailyDays:  "365",
}

// Settings is a snapshot of the settings bucket. A poll or sweep cycle reads
// one snapshot up front so its decisions stay internally consistent.
type Settings map[string]string

// Float returns the value for key, or def if the key is absent or does not
// parse as a number.
func (s Settings) Float(key string, def float64) float64 {
    raw, ok := s[key]
    if !ok {
        return def
    }
    v, err := strconv.ParseFloat(raw, 64)
    if err != nil {
        return def
    }
    return v
}

// Int returns the value for key, or def if the key is absent or unparsable.
func (s Settings) Int(key string, def int) int {
    raw, ok := s[key]
    if !ok {
        return def
    }
    v, err := strconv.Atoi(raw)
    if err != nil {
        return def
    }
    return v
}

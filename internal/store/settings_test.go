// internal/store/settings_test.go
package store

import (
    "testing"

    "github.com/stretchr/testify/assert"
)

func TestSettingsFloat(t *testing.T) {
    settings := Settings{
        "good": "72.5",
        "bad":  "not-a-number",
    }

    assert.Equal(t, 72.5, settings.Float("good", 90))
    assert.Equal(t, 90.0, settings.Float("bad", 90))
    assert.Equal(t, 90.0, settings.Float("absent", 90))
}

func TestSettingsInt(t *testing.T) {
    settings := Settings{
        "good": "30",
        "bad":  "thirty",
    }

    assert.Equal(t, 30, settings.Int("good", 15))
    assert.Equal(t, 15, settings.Int("bad", 15))
    assert.Equal(t, 15, settings.Int("absent", 15))
}

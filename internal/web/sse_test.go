// internal/web/sse_test.go
package web

import (
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestSSEClientPushBuffers(t *testing.T) {
    client := &sseClient{id: "c-1", frames: make(chan sseFrame, 2)}

    require.NoError(t, client.Push("metrics_update", []byte(`{"device_id":"dev-1"}`)))

    frame := <-client.frames
    assert.Equal(t, "metrics_update", frame.event)
    assert.Equal(t, `{"device_id":"dev-1"}`, string(frame.data))
}

func TestSSEClientPushFullBufferErrors(t *testing.T) {
    client := &sseClient{id: "c-1", frames: make(chan sseFrame, 1)}

    require.NoError(t, client.Push("alert", []byte(`{}`)))
    // Second push finds the buffer full and must fail instead of blocking.
    assert.Error(t, client.Push("alert", []byte(`{}`)))
}

// internal/web/sse.go - Server-sent events transport
package web

import (
    "fmt"
    "net/http"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/google/uuid"
    "github.com/sirupsen/logrus"
)

const sseBufferSize = 64

type sseFrame struct {
    event string
    data  []byte
}

// sseClient buffers broadcast events for one SSE connection. Push never
// blocks: a full buffer means the client is not keeping up, and the returned
// error gets it dropped from the broadcaster.
type sseClient struct {
    id     string
    frames chan sseFrame
}

func (c *sseClient) Push(event string, data []byte) error {
    select {
    case c.frames <- sseFrame{event: event, data: data}:
        return nil
    default:
        return fmt.Errorf("subscriber %s buffer full", c.id)
    }
}

func (s *Server) handleSSE(c *gin.Context) {
    flusher, ok := c.Writer.(http.Flusher)
    if !ok {
        c.JSON(http.StatusInternalServerError, gin.H{"error": "Streaming not supported"})
        return
    }

    client := &sseClient{
        id:     uuid.New().String(),
        frames: make(chan sseFrame, sseBufferSize),
    }

    s.broadcaster.Subscribe(client.id, client)
    defer s.broadcaster.Unsubscribe(client.id)

    c.Header("Content-Type", "text/event-stream")
    c.Header("Cache-Control", "no-cache")
    c.Header("Connection", "keep-alive")
    c.Header("X-Accel-Buffering", "no")

    // Tell the client its subscription is live before any event fires.
    fmt.Fprintf(c.Writer, "event: connected\ndata: {\"client_id\":\"%s\"}\n\n", client.id)
    flusher.Flush()

    logrus.WithField("client", client.id).Debug("SSE client connected")

    keepalive := time.NewTicker(30 * time.Second)
    defer keepalive.Stop()

    for {
        select {
        case <-c.Request.Context().Done():
            logrus.WithField("client", client.id).Debug("SSE client disconnected")
            return
        case frame := <-client.frames:
            fmt.Fprintf(c.Writer, "event: %s\ndata: %s\n\n", frame.event, frame.data)
            flusher.Flush()
        case <-keepalive.C:
            // Comment line keeps proxies from timing the connection out.
            fmt.Fprint(c.Writer, ": keepalive\n\n")
            flusher.Flush()
        }
    }
}

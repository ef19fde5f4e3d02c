// internal/web/websocket.go - WebSocket transport
package web

import (
    "encoding/json"
    "fmt"
    "net/http"
    "time"

    "github.com/gin-gonic/gin"
    "github.com/google/uuid"
    "github.com/gorilla/websocket"
    "github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
    CheckOrigin: func(r *http.Request) bool {
        return true // Allow all origins in development
    },
}

type wsMessage struct {
    Type string          `json:"type"`
    Data json.RawMessage `json:"data"`
}

// wsClient carries the same event stream as SSE over a WebSocket, for
// clients behind proxies that mishandle long-lived HTTP responses.
type wsClient struct {
    id   string
    conn *websocket.Conn
    send chan wsMessage
}

func (c *wsClient) Push(event string, data []byte) error {
    select {
    case c.send <- wsMessage{Type: event, Data: data}:
        return nil
    default:
        return fmt.Errorf("subscriber %s buffer full", c.id)
    }
}

func (s *Server) handleWebSocket(c *gin.Context) {
    conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
    if err != nil {
        logrus.WithError(err).Error("Failed to upgrade websocket")
        return
    }

    client := &wsClient{
        id:   uuid.New().String(),
        conn: conn,
        send: make(chan wsMessage, 256),
    }

    s.broadcaster.Subscribe(client.id, client)

    go client.writePump(s)
    go client.readPump(s)
}

func (c *wsClient) writePump(s *Server) {
    ticker := time.NewTicker(54 * time.Second)
    defer func() {
        ticker.Stop()
        c.conn.Close()
        s.broadcaster.Unsubscribe(c.id)
    }()

    for {
        select {
        case message := <-c.send:
            c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
            if err := c.conn.WriteJSON(message); err != nil {
                return
            }

        case <-ticker.C:
            c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
            if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
                return
            }
        }
    }
}

func (c *wsClient) readPump(s *Server) {
    defer func() {
        c.conn.Close()
        s.broadcaster.Unsubscribe(c.id)
    }()

    c.conn.SetReadLimit(512)
    c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
    c.conn.SetPongHandler(func(string) error {
        c.conn.SetReadDeadline(time.Now().Add(60 * time.Second))
        return nil
    })

    for {
        _, _, err := c.conn.ReadMessage()
        if err != nil {
            break
        }
    }
}

package websocket

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

const writeWait = 10 * time.Second

// Connection 表示一个WebSocket连接
type Connection struct {
	ID string
	// Metadata is fixed at upgrade time.
	Metadata map[string]string
	hub      *Hub
	conn     *websocket.Conn
	send     chan []byte
}

// newUpgrader 根据配置创建WebSocket升级器
func newUpgrader(cfg *Config) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  cfg.ReadBufferSize,
		WriteBufferSize: cfg.WriteBufferSize,
		CheckOrigin: func(r *http.Request) bool {
			return true
		},
		EnableCompression: cfg.EnableCompression,
	}
}

// Serve upgrades the request and hands the connection to the hub.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request, metadata map[string]string) {
	upgrader := newUpgrader(h.config)
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logrus.Errorf("websocket upgrade failed: %v", err)
		return
	}

	c := &Connection{
		ID:       "conn_" + uuid.NewString(),
		Metadata: metadata,
		hub:      h,
		conn:     conn,
		send:     make(chan []byte, h.config.MessageBufferSize),
	}
	select {
	case h.register <- c:
	case <-h.ctx.Done():
		conn.Close()
		return
	}

	go c.writePump()
	go c.readPump()
}

// readPump 读取消息的协程
func (c *Connection) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.ctx.Done():
		}
		c.conn.Close()
	}()

	timeout := c.hub.config.ConnectionTimeout
	c.conn.SetReadLimit(int64(c.hub.config.MaxMessageSize))
	_ = c.conn.SetReadDeadline(time.Now().Add(timeout))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(timeout))
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logrus.Errorf("websocket read error: %v", err)
			}
			return
		}
		_ = c.conn.SetReadDeadline(time.Now().Add(timeout))

		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			_ = c.hub.Reply(c, MessageTypeError, "invalid message")
			continue
		}
		if msg.Type == MessageTypePing {
			_ = c.hub.Reply(c, MessageTypePong, nil)
			continue
		}
		c.hub.handler(c, msg)
	}
}

// writePump 发送消息的协程
func (c *Connection) writePump() {
	interval := c.hub.config.HeartbeatInterval
	if interval <= 0 {
		interval = 30 * time.Second
	}
	ticker := time.NewTicker(interval)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

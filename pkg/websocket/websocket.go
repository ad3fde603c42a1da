package websocket

import (
	"AapdaMitra/pkg/util"
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
)

var ErrHubClosed = errors.New("websocket: hub closed")

// Message 定义WebSocket消息结构
type Message struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

// Config WebSocket配置
type Config struct {
	// 最大连接数
	MaxConnections int64
	// 心跳间隔
	HeartbeatInterval time.Duration
	// 连接超时时间
	ConnectionTimeout time.Duration
	// 每个连接的发送缓冲区大小
	MessageBufferSize int
	ReadBufferSize    int
	WriteBufferSize   int
	// 最大入站消息大小
	MaxMessageSize    int
	EnableCompression bool
}

// DefaultConfig 默认配置
func DefaultConfig() *Config {
	return &Config{
		MaxConnections:    1000,
		HeartbeatInterval: 30 * time.Second,
		ConnectionTimeout: 60 * time.Second,
		MessageBufferSize: 64,
		ReadBufferSize:    1024,
		WriteBufferSize:   1024,
		MaxMessageSize:    2048,
	}
}

// LoadConfigFromEnv 从环境变量加载WebSocket配置
func LoadConfigFromEnv() *Config {
	config := DefaultConfig()
	if n := util.GetIntEnv(EnvWebSocketMaxConnections); n > 0 {
		config.MaxConnections = n
	}
	config.HeartbeatInterval = util.GetDurationEnv(EnvWebSocketHeartbeatInterval, config.HeartbeatInterval)
	config.ConnectionTimeout = util.GetDurationEnv(EnvWebSocketConnectionTimeout, config.ConnectionTimeout)
	if n := util.GetIntEnv(EnvWebSocketMessageBufferSize); n > 0 {
		config.MessageBufferSize = int(n)
	}
	if n := util.GetIntEnv(EnvWebSocketMaxMessageSize); n > 0 {
		config.MaxMessageSize = int(n)
	}
	config.EnableCompression = util.GetBoolEnv(EnvWebSocketEnableCompression)
	return config
}

// MessageHandler receives every inbound message other than ping.
type MessageHandler func(c *Connection, msg Message)

type directMessage struct {
	conn *Connection
	data []byte
}

// Hub tracks every WebSocket connection. New connections receive the last
// broadcast.
type Hub struct {
	config  *Config
	handler MessageHandler

	connections map[string]*Connection
	last        []byte

	register   chan *Connection
	unregister chan *Connection
	broadcast  chan []byte
	direct     chan directMessage

	connectionCount int64

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewHub 创建新的Hub实例
func NewHub(config *Config, handler MessageHandler) *Hub {
	if config == nil {
		config = DefaultConfig()
	}
	if handler == nil {
		handler = func(*Connection, Message) {}
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		config:      config,
		handler:     handler,
		connections: make(map[string]*Connection),
		register:    make(chan *Connection),
		unregister:  make(chan *Connection),
		broadcast:   make(chan []byte),
		direct:      make(chan directMessage),
		ctx:         ctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}
	go h.run()
	return h
}

// run is the hub loop. Only run sends on or closes a connection's send channel.
func (h *Hub) run() {
	defer close(h.done)
	for {
		select {
		case <-h.ctx.Done():
			for id, c := range h.connections {
				close(c.send)
				delete(h.connections, id)
			}
			atomic.StoreInt64(&h.connectionCount, 0)
			return
		case c := <-h.register:
			if atomic.LoadInt64(&h.connectionCount) >= h.config.MaxConnections {
				logrus.Warnf("websocket connection limit reached: %d", h.config.MaxConnections)
				close(c.send)
				continue
			}
			h.connections[c.ID] = c
			atomic.AddInt64(&h.connectionCount, 1)
			if h.last != nil {
				h.trySend(c, h.last)
			}
			logrus.Debugf("websocket connection registered: %s", c.ID)
		case c := <-h.unregister:
			if _, ok := h.connections[c.ID]; ok {
				delete(h.connections, c.ID)
				atomic.AddInt64(&h.connectionCount, -1)
				close(c.send)
				logrus.Debugf("websocket connection unregistered: %s", c.ID)
			}
		case data := <-h.broadcast:
			h.last = data
			for _, c := range h.connections {
				h.trySend(c, data)
			}
		case m := <-h.direct:
			if _, ok := h.connections[m.conn.ID]; ok {
				h.trySend(m.conn, m.data)
			}
		}
	}
}

// trySend drops the message when the connection's buffer is full.
func (h *Hub) trySend(c *Connection, data []byte) {
	select {
	case c.send <- data:
	default:
		logrus.Warnf("websocket send buffer full, dropping message for %s", c.ID)
	}
}

func encode(typ string, data interface{}) ([]byte, error) {
	return json.Marshal(Message{Type: typ, Data: data, Timestamp: time.Now().Unix()})
}

// Broadcast sends a message to every connection.
func (h *Hub) Broadcast(typ string, data interface{}) error {
	b, err := encode(typ, data)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- b:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	}
}

// Reply sends a message to one connection.
func (h *Hub) Reply(c *Connection, typ string, data interface{}) error {
	b, err := encode(typ, data)
	if err != nil {
		return err
	}
	select {
	case h.direct <- directMessage{conn: c, data: b}:
		return nil
	case <-h.ctx.Done():
		return ErrHubClosed
	}
}

func (h *Hub) GetConnectionCount() int64 {
	return atomic.LoadInt64(&h.connectionCount)
}

// Close closes every connection and stops the hub.
func (h *Hub) Close() {
	h.cancel()
	<-h.done
}

package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Client struct {
	id   string
	ch   chan string
	done chan struct{}
}

func (c *Client) ID() string { return c.id }

// Hub fans events out to every connected stream. The most recent event is
// kept and replayed to clients that connect later.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]*Client
	last     string
	seq      uint64
	closed   bool
	interval time.Duration
	retryMs  int
}

func NewHub(interval time.Duration) *Hub {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Hub{clients: make(map[string]*Client), interval: interval, retryMs: 5000}
}

func (h *Hub) AddClient(id string) *Client {
	h.mu.Lock()
	defer h.mu.Unlock()
	c := &Client{id: id, ch: make(chan string, 64), done: make(chan struct{})}
	if h.closed {
		close(c.done)
		return c
	}
	h.clients[id] = c
	if h.last != "" {
		c.ch <- h.last
	}
	return c
}

func (h *Hub) RemoveClient(id string) {
	h.mu.Lock()
	if c, ok := h.clients[id]; ok {
		close(c.done)
		delete(h.clients, id)
	}
	h.mu.Unlock()
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Close disconnects every client; later clients are closed on arrival.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	for id, c := range h.clients {
		close(c.done)
		delete(h.clients, id)
	}
}

// BroadcastJSON sends v as a named event to every client.
func (h *Hub) BroadcastJSON(event string, v interface{}) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	h.mu.Lock()
	h.seq++
	msg := formatEvent(h.seq, event, string(b))
	h.last = msg
	for _, c := range h.clients {
		select {
		case c.ch <- msg:
		default: // slow client, drop
		}
	}
	h.mu.Unlock()
	return nil
}

func formatEvent(id uint64, event, data string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "id: %d\n", id)
	if event != "" {
		fmt.Fprintf(&b, "event: %s\n", event)
	}
	fmt.Fprintf(&b, "data: %s\n\n", data)
	return b.String()
}

// Serve streams events to the request until the client goes away or the hub closes.
func (h *Hub) Serve(c *gin.Context) {
	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)
	fmt.Fprintf(c.Writer, "retry: %d\n\n", h.retryMs)
	flusher.Flush()

	client := h.AddClient(uuid.NewString())
	defer h.RemoveClient(client.id)

	ping := time.NewTicker(h.interval)
	defer ping.Stop()

	for {
		select {
		case <-client.done:
			return
		case <-c.Request.Context().Done():
			return
		case <-ping.C:
			fmt.Fprintf(c.Writer, "event: ping\ndata: {}\n\n")
			flusher.Flush()
		case msg := <-client.ch:
			_, _ = c.Writer.Write([]byte(msg))
			flusher.Flush()
		}
	}
}

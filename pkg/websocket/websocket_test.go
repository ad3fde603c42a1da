package websocket

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dial(t *testing.T, srv *httptest.Server, query ...string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + strings.Join(query, "")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func serveFunc(hub *Hub) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		hub.Serve(w, r, map[string]string{"lang": r.URL.Query().Get("lang")})
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func TestNewHubDefaults(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()
	assert.Equal(t, int64(1000), hub.config.MaxConnections)
	assert.Equal(t, 30*time.Second, hub.config.HeartbeatInterval)
	assert.Zero(t, hub.GetConnectionCount())
}

func TestLoadConfigFromEnv(t *testing.T) {
	t.Setenv(EnvWebSocketMaxConnections, "5")
	t.Setenv(EnvWebSocketHeartbeatInterval, "5s")
	cfg := LoadConfigFromEnv()
	assert.Equal(t, int64(5), cfg.MaxConnections)
	assert.Equal(t, 5*time.Second, cfg.HeartbeatInterval)
	assert.Equal(t, 60*time.Second, cfg.ConnectionTimeout)
}

func TestNewConnectionReceivesLastBroadcast(t *testing.T) {
	hub := NewHub(nil, nil)
	defer hub.Close()
	srv := httptest.NewServer(serveFunc(hub))
	defer srv.Close()

	require.NoError(t, hub.Broadcast("snapshot", map[string]string{"state": "idle"}))
	require.NoError(t, hub.Broadcast("snapshot", map[string]string{"state": "ready"}))

	conn := dial(t, srv)
	msg := readMessage(t, conn)
	assert.Equal(t, "snapshot", msg.Type)
	assert.Equal(t, map[string]interface{}{"state": "ready"}, msg.Data)
	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 1 }, time.Second, 5*time.Millisecond)
}

func TestPingAndHandler(t *testing.T) {
	var hub *Hub
	hub = NewHub(nil, func(c *Connection, msg Message) {
		_ = hub.Reply(c, "echo", c.Metadata["lang"]+":"+msg.Data.(string))
	})
	defer hub.Close()
	srv := httptest.NewServer(serveFunc(hub))
	defer srv.Close()

	conn := dial(t, srv, "?lang=hi")
	require.NoError(t, conn.WriteJSON(Message{Type: MessageTypePing}))
	assert.Equal(t, MessageTypePong, readMessage(t, conn).Type)

	require.NoError(t, conn.WriteJSON(Message{Type: "sos", Data: "help"}))
	msg := readMessage(t, conn)
	assert.Equal(t, "echo", msg.Type)
	assert.Equal(t, "hi:help", msg.Data)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("not json")))
	assert.Equal(t, MessageTypeError, readMessage(t, conn).Type)
}

func TestConnectionLimit(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MaxConnections = 1
	hub := NewHub(cfg, nil)
	defer hub.Close()
	srv := httptest.NewServer(serveFunc(hub))
	defer srv.Close()

	dial(t, srv)
	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	second := dial(t, srv)
	require.NoError(t, second.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := second.ReadMessage()
	assert.Error(t, err)
	assert.Equal(t, int64(1), hub.GetConnectionCount())
}

func TestCloseDisconnectsClients(t *testing.T) {
	hub := NewHub(nil, nil)
	srv := httptest.NewServer(serveFunc(hub))
	defer srv.Close()

	conn := dial(t, srv)
	require.Eventually(t, func() bool { return hub.GetConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	hub.Close()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
	assert.Zero(t, hub.GetConnectionCount())
	assert.ErrorIs(t, hub.Broadcast("snapshot", nil), ErrHubClosed)
}

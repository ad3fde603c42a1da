package handlers

import (
	"AapdaMitra/internal/auth"
	"AapdaMitra/internal/chat"
	"AapdaMitra/internal/guide"
	"AapdaMitra/internal/models"
	"AapdaMitra/internal/store"
	"AapdaMitra/pkg/cache"
	"AapdaMitra/pkg/i18n"
	"AapdaMitra/pkg/llm"
	"AapdaMitra/pkg/mesh"
	"AapdaMitra/pkg/sse"
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubOracle struct {
	guideErr error
	chatErr  error
}

func (o *stubOracle) GenerateSurvivalGuide(ctx context.Context, disasterType string) (string, error) {
	if o.guideErr != nil {
		return "", o.guideErr
	}
	return "### Before the " + disasterType, nil
}

func (o *stubOracle) ChatResponse(ctx context.Context, history []llm.Turn, message string) (string, error) {
	if o.chatErr != nil {
		return "", o.chatErr
	}
	return "echo: " + message, nil
}

type envelope struct {
	Code   int             `json:"code"`
	Msg    string          `json:"msg"`
	Data   json.RawMessage `json:"data"`
	Notice *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
		TTLMs   int    `json:"ttl_ms"`
	} `json:"notice"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
	store  *store.Store
	mesh   *mesh.Simulator
	oracle *stubOracle
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	s, err := store.Open(ctx, "sqlite", filepath.Join(t.TempDir(), "api.db"))
	require.NoError(t, err)
	_, err = s.SeedIfEmpty(ctx)
	require.NoError(t, err)

	support, err := i18n.NewI18nSupport("en")
	require.NoError(t, err)

	oracle := &stubOracle{}
	sim := mesh.New(mesh.Config{
		Sleeper:  mesh.SleeperFunc(func(ctx context.Context, d time.Duration) error { return ctx.Err() }),
		Shuffler: func([]mesh.Peer) {},
	})
	hub := sse.NewHub(time.Minute)
	t.Cleanup(func() {
		hub.Close()
		sim.Close()
		_ = s.Close()
	})

	h := NewHandlers(Deps{
		Store:     s,
		Guides:    guide.NewService(s.Guides, cache.NewLRUCache(cache.LocalConfig{MaxSize: 8, DefaultExpiration: time.Minute}), oracle, time.Minute),
		Chat:      chat.NewService(oracle),
		Auth:      auth.NewService(),
		Mesh:      sim,
		Events:    hub,
		I18n:      support,
		RateLimit: "1000-M",
	})
	t.Cleanup(h.Close)
	engine := gin.New()
	engine.Use(gin.Recovery())
	h.Register(engine)
	return &testServer{t: t, engine: engine, store: s, mesh: sim, oracle: oracle}
}

func (ts *testServer) do(method, path string, body interface{}) (*httptest.ResponseRecorder, envelope) {
	ts.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(ts.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	ts.engine.ServeHTTP(w, req)

	var env envelope
	if w.Body.Len() > 0 && w.Header().Get("Content-Type") != "" {
		_ = json.Unmarshal(w.Body.Bytes(), &env)
	}
	return w, env
}

func TestAuthRoutes(t *testing.T) {
	ts := newTestServer(t)
	user := gin.H{"name": "Asha", "email": "asha@example.com", "password": "secret"}

	w, env := ts.do(http.MethodPost, "/api/auth/signup", user)
	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "Signed up successfully.", env.Notice.Message)

	w, env = ts.do(http.MethodPost, "/api/auth/signup", user)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "User with this email already exists.", env.Notice.Message)

	w, _ = ts.do(http.MethodPost, "/api/auth/signup", gin.H{"email": "x@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(http.MethodPost, "/api/auth/signin", gin.H{"email": "asha@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, env = ts.do(http.MethodPost, "/api/auth/signin", gin.H{"email": "asha@example.com", "password": "wrong"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Equal(t, "Invalid email or password.", env.Notice.Message)

	w, _ = ts.do(http.MethodPost, "/api/auth/signin", gin.H{"email": "asha@example.com", "password": "secret"})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestSignUpLongPassword(t *testing.T) {
	ts := newTestServer(t)
	long := strings.Repeat("p", 80)

	w, _ := ts.do(http.MethodPost, "/api/auth/signup", gin.H{"name": "Asha", "email": "a@x.in", "password": long})
	assert.Equal(t, http.StatusCreated, w.Code)

	w, _ = ts.do(http.MethodPost, "/api/auth/signup", gin.H{"name": "Asha", "email": "a@x.in", "password": long + "x"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, _ = ts.do(http.MethodPost, "/api/auth/signin", gin.H{"email": "a@x.in", "password": long})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestProfileRoutes(t *testing.T) {
	ts := newTestServer(t)

	w, env := ts.do(http.MethodGet, "/api/profile", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var p models.UserProfile
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, models.DefaultProfile(), p)

	w, env = ts.do(http.MethodPut, "/api/profile", gin.H{"name": "Meera", "age": 40})
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &p))
	assert.Equal(t, "Meera", p.Name)
	assert.Equal(t, 40, p.Age)
	assert.Equal(t, "1234567890", p.Phone)
	assert.Equal(t, "Profile updated successfully!", env.Notice.Message)

	w, env = ts.do(http.MethodPut, "/api/profile", gin.H{"gender": "Robot"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	require.NotNil(t, env.Notice)
	assert.Equal(t, "error", env.Notice.Type)
	assert.Equal(t, 3000, env.Notice.TTLMs)
}

func TestContactRoutes(t *testing.T) {
	ts := newTestServer(t)

	w, env := ts.do(http.MethodPost, "/api/contacts", gin.H{"name": " Ravi ", "number": "9876543210"})
	require.Equal(t, http.StatusCreated, w.Code)
	var created models.PersonalContact
	require.NoError(t, json.Unmarshal(env.Data, &created))
	assert.NotZero(t, created.ID)
	assert.Equal(t, "Ravi", created.Name)

	w, env = ts.do(http.MethodPost, "/api/contacts", gin.H{"name": "No number"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please provide a name and a number.", env.Notice.Message)

	_, env = ts.do(http.MethodGet, "/api/contacts", nil)
	var list []models.PersonalContact
	require.NoError(t, json.Unmarshal(env.Data, &list))
	require.Len(t, list, 1)

	w, _ = ts.do(http.MethodDelete, "/api/contacts/"+jsonNumber(created.ID), nil)
	assert.Equal(t, http.StatusOK, w.Code)
	w, _ = ts.do(http.MethodDelete, "/api/contacts/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(http.MethodGet, "/api/contacts", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), "Ravi")
}

func jsonNumber(id uint) string {
	b, _ := json.Marshal(id)
	return string(b)
}

func TestIncidentListedFirst(t *testing.T) {
	ts := newTestServer(t)

	w, env := ts.do(http.MethodPost, "/api/incidents", gin.H{"description": "Road washed out"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Please capture a photo and provide a description.", env.Notice.Message)

	w, _ = ts.do(http.MethodPost, "/api/incidents?lang=hi", gin.H{"image": "data:image/jpeg;base64,AAAA"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "कृपया फ़ोटो लें")

	w, _ = ts.do(http.MethodPost, "/api/incidents", gin.H{
		"description": "Road washed out",
		"image":       "data:image/jpeg;base64,AAAA",
		"lat":         26.14452,
		"lon":         91.73622,
	})
	require.Equal(t, http.StatusCreated, w.Code)

	_, env = ts.do(http.MethodGet, "/api/alerts", nil)
	var alerts []alertView
	require.NoError(t, json.Unmarshal(env.Data, &alerts))
	require.Len(t, alerts, len(models.InitialAlerts())+1)
	first := alerts[0]
	assert.Equal(t, models.AlertTypeUserReport, first.Type)
	assert.Equal(t, models.SeverityHigh, first.Severity)
	assert.Equal(t, "Just now", first.Time)
	assert.Equal(t, "Lat: 26.1445, Lon: 91.7362", first.Area)
	assert.Equal(t, "user-report", first.Style)
	assert.Equal(t, "high", alerts[len(alerts)-1].Style)
}

func TestIncidentDefaultArea(t *testing.T) {
	ts := newTestServer(t)
	w, env := ts.do(http.MethodPost, "/api/incidents", gin.H{"description": "Tree down", "image": "data:x"})
	require.Equal(t, http.StatusCreated, w.Code)
	var a alertView
	require.NoError(t, json.Unmarshal(env.Data, &a))
	assert.Equal(t, "Location Reported by User", a.Area)
}

func TestShelters(t *testing.T) {
	ts := newTestServer(t)
	w, env := ts.do(http.MethodGet, "/api/shelters", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var shelters []models.Shelter
	require.NoError(t, json.Unmarshal(env.Data, &shelters))
	assert.Len(t, shelters, len(models.InitialShelters()))
	assert.NotContains(t, string(env.Data), `"overbooked":true`)

	_, err := ts.store.Shelters.Put(context.Background(), &models.Shelter{Name: "Temple Hall", Capacity: 10, Available: 25})
	require.NoError(t, err)
	_, env = ts.do(http.MethodGet, "/api/shelters", nil)
	var views []struct {
		Name       string `json:"name"`
		Overbooked bool   `json:"overbooked"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &views))
	require.Len(t, views, len(models.InitialShelters())+1)
	last := views[len(views)-1]
	assert.Equal(t, "Temple Hall", last.Name)
	assert.True(t, last.Overbooked)
}

func TestGuideRoutes(t *testing.T) {
	ts := newTestServer(t)

	w, env := ts.do(http.MethodGet, "/api/guides/Meteor", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Unknown disaster type: Meteor.", env.Notice.Message)

	w, env = ts.do(http.MethodGet, "/api/guides/flood", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res guide.Result
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.Equal(t, "### Before the Flood", res.Guide)
	assert.False(t, res.Cached)

	ts.oracle.guideErr = stderrors.New("offline")
	w, env = ts.do(http.MethodPost, "/api/guides/Flood/refresh", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.True(t, res.Stale)
	assert.Equal(t, "Could not connect to the server. Displaying offline version.", env.Notice.Message)

	w, _ = ts.do(http.MethodGet, "/api/guides/Tsunami", nil)
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestChatRoutes(t *testing.T) {
	ts := newTestServer(t)

	_, env := ts.do(http.MethodGet, "/api/chat/greeting", nil)
	var greeting models.ChatMessage
	require.NoError(t, json.Unmarshal(env.Data, &greeting))
	assert.Equal(t, chat.GreetingText, greeting.Text)

	w, env := ts.do(http.MethodPost, "/api/chat", gin.H{"message": "hi", "history": []models.ChatMessage{greeting}})
	require.Equal(t, http.StatusOK, w.Code)
	var reply models.ChatMessage
	require.NoError(t, json.Unmarshal(env.Data, &reply))
	assert.Equal(t, "echo: hi", reply.Text)

	ts.oracle.chatErr = stderrors.New("down")
	_, env = ts.do(http.MethodPost, "/api/chat", gin.H{"message": "hi"})
	require.NoError(t, json.Unmarshal(env.Data, &reply))
	assert.Equal(t, chat.FallbackText, reply.Text)

	w, _ = ts.do(http.MethodPost, "/api/chat", gin.H{"message": "  "})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMeshRoutes(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(http.MethodPost, "/api/mesh/sos", gin.H{"message": "help"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w, env := ts.do(http.MethodPost, "/api/mesh/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var snap mesh.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.True(t, snap.Enabled)
	require.Eventually(t, func() bool { return ts.mesh.Snapshot().State == mesh.StateReady }, time.Second, time.Millisecond)

	w, _ = ts.do(http.MethodPost, "/api/mesh/sos", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w, _ = ts.do(http.MethodPut, "/api/mesh/message", gin.H{"message": "Trapped near the bridge"})
	require.Equal(t, http.StatusOK, w.Code)

	w, env = ts.do(http.MethodPost, "/api/mesh/sos", nil)
	require.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "success", env.Notice.Type)
	require.Eventually(t, func() bool { return ts.mesh.Snapshot().Outcome == mesh.OutcomeDelivered }, time.Second, time.Millisecond)

	_, env = ts.do(http.MethodGet, "/api/mesh", nil)
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, `Sending SOS: "Trapped near the bridge"`, snap.Log[2])
	assert.Equal(t, "Path: You -> Device 7C:B8 -> Device A1:4F -> Device 3D:E2 -> Emergency Services", snap.Log[len(snap.Log)-1])

	_, env = ts.do(http.MethodPost, "/api/mesh/toggle", nil)
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.False(t, snap.Enabled)
	assert.Empty(t, snap.Log)
}

func TestSystemRoutes(t *testing.T) {
	ts := newTestServer(t)

	w, _ := ts.do(http.MethodGet, "/api/system/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")

	w, _ = ts.do(http.MethodGet, "/metrics", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "http_requests_total")
}

func TestMeshControlChannel(t *testing.T) {
	ts := newTestServer(t)
	srv := httptest.NewServer(ts.engine)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/mesh/ws?lang=hi"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	type message struct {
		Type string          `json:"type"`
		Data json.RawMessage `json:"data"`
	}
	read := func() message {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		var m message
		require.NoError(t, conn.ReadJSON(&m))
		return m
	}

	require.NoError(t, conn.WriteJSON(gin.H{"type": "toggle"}))
	var snap mesh.Snapshot
	for snap.State != mesh.StateReady {
		m := read()
		require.Equal(t, "snapshot", m.Type)
		snap = mesh.Snapshot{}
		require.NoError(t, json.Unmarshal(m.Data, &snap))
	}
	assert.Len(t, snap.Peers, 4)

	require.NoError(t, conn.WriteJSON(gin.H{"type": "sos", "data": " "}))
	m := read()
	require.Equal(t, "error", m.Type)
	assert.Contains(t, string(m.Data), "SOS")

	require.NoError(t, conn.WriteJSON(gin.H{"type": "sos", "data": "Water rising"}))
	for snap.Outcome != mesh.OutcomeDelivered {
		m := read()
		if m.Type == "snapshot" {
			snap = mesh.Snapshot{}
			require.NoError(t, json.Unmarshal(m.Data, &snap))
		}
	}
	assert.Contains(t, snap.Log, `Sending SOS: "Water rising"`)
}

package handlers

import (
	"AapdaMitra/internal/auth"
	"AapdaMitra/internal/chat"
	"AapdaMitra/internal/guide"
	"AapdaMitra/internal/store"
	"AapdaMitra/pkg/i18n"
	"AapdaMitra/pkg/mesh"
	"AapdaMitra/pkg/metrics"
	"AapdaMitra/pkg/middleware"
	"AapdaMitra/pkg/sse"
	"AapdaMitra/pkg/websocket"

	"github.com/gin-gonic/gin"
)

type Deps struct {
	APIPrefix string
	Store     *store.Store
	Guides    *guide.Service
	Chat      *chat.Service
	Auth      *auth.Service
	Mesh      *mesh.Simulator
	Events    *sse.Hub
	I18n      *i18n.I18nSupport
	// RateLimit is the default request rate, e.g. "30-M".
	RateLimit string
	// WebSocket configures the mesh control channel; nil uses the defaults.
	WebSocket *websocket.Config
}

type Handlers struct {
	prefix  string
	store   *store.Store
	guides  *guide.Service
	chat    *chat.Service
	auth    *auth.Service
	mesh    *mesh.Simulator
	events  *sse.Hub
	i18n    *i18n.I18nSupport
	limiter *middleware.RateLimiter
	control *websocket.Hub
}

// NewHandlers wires the services to HTTP. Mesh changes are streamed to
// the event hub from here on.
func NewHandlers(d Deps) *Handlers {
	h := &Handlers{
		prefix: d.APIPrefix,
		store:  d.Store,
		guides: d.Guides,
		chat:   d.Chat,
		auth:   d.Auth,
		mesh:   d.Mesh,
		events: d.Events,
		i18n:   d.I18n,
	}
	if h.prefix == "" {
		h.prefix = "/api"
	}
	h.limiter = middleware.NewRateLimiter(middleware.RateLimiterConfig{
		Rate:       d.RateLimit,
		Identifier: "ip",
		AddHeaders: true,
		SkipPaths:  []string{h.prefix + "/system", h.prefix + "/mesh/events", h.prefix + "/mesh/ws"},
		// generation and broadcast routes are the expensive ones
		PerRouteRates: map[string]string{
			h.prefix + "/mesh/sos":             "6-M",
			h.prefix + "/chat":                 "20-M",
			h.prefix + "/guides/:type/refresh": "6-M",
		},
	}, nil).
		WithObserver(middleware.NewPrometheusObserver()).
		WithDenyHandler(func(c *gin.Context) { h.abort(c, 429, "notice.rate_limited", nil) })

	h.control = websocket.NewHub(d.WebSocket, h.handleControlMessage)
	if h.mesh != nil {
		h.mesh.OnChange(func(s mesh.Snapshot) {
			if h.events != nil {
				_ = h.events.BroadcastJSON(controlSnapshot, s)
			}
			_ = h.control.Broadcast(controlSnapshot, s)
		})
	}
	return h
}

// Close disconnects the mesh control channel.
func (h *Handlers) Close() {
	h.control.Close()
}

func (h *Handlers) Register(engine *gin.Engine) {
	engine.Use(metrics.MonitorMiddleware())
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	r := engine.Group(h.prefix)
	r.Use(middleware.LanguageMiddleware(h.i18n), h.limiter.Middleware())

	h.registerSystemRoutes(r)
	h.registerAuthRoutes(r)
	h.registerProfileRoutes(r)
	h.registerAlertRoutes(r)
	h.registerGuideRoutes(r)
	h.registerMeshRoutes(r)
}

func (h *Handlers) registerSystemRoutes(r *gin.RouterGroup) {
	system := r.Group("system")
	{
		system.GET("/health", h.HealthCheck)
	}
}

func (h *Handlers) registerAuthRoutes(r *gin.RouterGroup) {
	authGroup := r.Group("auth")
	{
		authGroup.POST("/signup", h.handleSignup)

		authGroup.POST("/signin", h.handleSignin)
	}
}

func (h *Handlers) registerProfileRoutes(r *gin.RouterGroup) {
	r.GET("/profile", h.handleGetProfile)
	r.PUT("/profile", h.handleUpdateProfile)

	contacts := r.Group("contacts")
	{
		contacts.GET("", h.handleListContacts)

		contacts.POST("", h.handleCreateContact)

		contacts.DELETE("/:id", h.handleDeleteContact)
	}
	r.GET("/helplines", h.handleListHelplines)
}

func (h *Handlers) registerAlertRoutes(r *gin.RouterGroup) {
	r.GET("/alerts", h.handleListAlerts)
	r.POST("/incidents", h.handleReportIncident)
	r.GET("/shelters", h.handleListShelters)
}

func (h *Handlers) registerGuideRoutes(r *gin.RouterGroup) {
	guides := r.Group("guides")
	{
		guides.GET("/:type", h.handleGetGuide)

		guides.POST("/:type/refresh", h.handleRefreshGuide)
	}

	r.GET("/chat/greeting", h.handleChatGreeting)
	r.POST("/chat", h.handleChat)
}

func (h *Handlers) registerMeshRoutes(r *gin.RouterGroup) {
	m := r.Group("mesh")
	{
		m.GET("", h.handleMeshSnapshot)

		m.POST("/toggle", h.handleMeshToggle)

		m.PUT("/message", h.handleMeshMessage)

		m.POST("/sos", h.handleMeshSOS)

		m.GET("/events", h.handleMeshEvents)

		m.GET("/ws", h.handleMeshControl)
	}
}

package middleware

import (
	"AapdaMitra/pkg/i18n"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestLanguageMiddleware(t *testing.T) {
	support, err := i18n.NewI18nSupport("en")
	require.NoError(t, err)

	r := gin.New()
	r.Use(LanguageMiddleware(support))
	r.GET("/lang", func(c *gin.Context) { c.String(http.StatusOK, Lang(c)) })

	tests := []struct {
		name   string
		url    string
		accept string
		want   string
	}{
		{"default", "/lang", "", "en"},
		{"query", "/lang?lang=hi", "", "hi"},
		{"unsupported query", "/lang?lang=xx", "hi-IN,hi;q=0.9", "hi"},
		{"query without locale file", "/lang?lang=ta", "hi-IN,hi;q=0.9", "hi"},
		{"accept header", "/lang", "hi-IN,en;q=0.8", "hi"},
		{"unknown header", "/lang", "fr-FR", "en"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.url, nil)
			if tt.accept != "" {
				req.Header.Set("Accept-Language", tt.accept)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Body.String())
		})
	}
}

func TestRateLimiterDenies(t *testing.T) {
	rl := NewRateLimiter(RateLimiterConfig{
		Rate:          "100-M",
		PerRouteRates: map[string]string{"/sos": "2-M"},
		SkipPaths:     []string{"/health"},
		AddHeaders:    true,
	}, nil).WithDenyHandler(func(c *gin.Context) {
		c.JSON(http.StatusTooManyRequests, gin.H{"notice": "slow down"})
	})

	r := gin.New()
	r.Use(rl.Middleware())
	r.POST("/sos", func(c *gin.Context) { c.Status(http.StatusAccepted) })
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	send := func(method, path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(method, path, nil)
		req.RemoteAddr = "10.1.2.3:5555"
		r.ServeHTTP(w, req)
		return w
	}

	assert.Equal(t, http.StatusAccepted, send(http.MethodPost, "/sos").Code)
	w := send(http.MethodPost, "/sos")
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Equal(t, "2", w.Header().Get("X-RateLimit-Limit"))

	w = send(http.MethodPost, "/sos")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.Contains(t, w.Body.String(), "slow down")
	assert.NotEmpty(t, w.Header().Get("Retry-After"))

	for i := 0; i < 5; i++ {
		assert.Equal(t, http.StatusOK, send(http.MethodGet, "/health").Code)
	}
}

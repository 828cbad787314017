package security

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func corsRouter(allowedOrigins []string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(CORS(allowedOrigins))
	router.GET("/api/health", func(c *gin.Context) { c.Status(200) })
	return router
}

func TestCORS(t *testing.T) {
	t.Run("白名单Origin带Credentials", func(t *testing.T) {
		router := corsRouter([]string{"https://app.example.com"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "https://app.example.com")
		router.ServeHTTP(w, req)

		assert.Equal(t, "https://app.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "true", w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("通配符放行任意来源但不带Credentials", func(t *testing.T) {
		router := corsRouter([]string{"*"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "https://candidate-site.example.com")
		router.ServeHTTP(w, req)

		assert.Equal(t, "https://candidate-site.example.com", w.Header().Get("Access-Control-Allow-Origin"))
		assert.Empty(t, w.Header().Get("Access-Control-Allow-Credentials"))
	})

	t.Run("未知来源不放行", func(t *testing.T) {
		router := corsRouter([]string{"https://app.example.com"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
		req.Header.Set("Origin", "https://evil.example.com")
		router.ServeHTTP(w, req)

		assert.Empty(t, w.Header().Get("Access-Control-Allow-Origin"))
	})

	t.Run("预检请求直接204", func(t *testing.T) {
		router := corsRouter([]string{"*"})
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodOptions, "/api/health", nil)
		req.Header.Set("Origin", "https://candidate-site.example.com")
		router.ServeHTTP(w, req)

		assert.Equal(t, 204, w.Code)
	})
}

func TestRateLimiter(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(RateLimiter(1, time.Minute))
	router.GET("/api/forms", func(c *gin.Context) { c.Status(200) })
	router.GET("/metrics", func(c *gin.Context) { c.Status(200) })
	router.GET("/api/health", func(c *gin.Context) { c.Status(200) })

	do := func(path string) int {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.RemoteAddr = "203.0.113.7:1234"
		router.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("超过配额返回429", func(t *testing.T) {
		assert.Equal(t, 200, do("/api/forms"))
		assert.Equal(t, 429, do("/api/forms"))
	})

	t.Run("监控抓取与探活不计入配额", func(t *testing.T) {
		for i := 0; i < 5; i++ {
			assert.Equal(t, 200, do("/metrics"))
			assert.Equal(t, 200, do("/api/health"))
		}
	})
}

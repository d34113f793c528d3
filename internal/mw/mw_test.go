package mw

import (
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"golang.org/x/time/rate"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestCache(t *testing.T) {
	var version atomic.Uint64
	version.Store(1)
	var calls atomic.Int32

	r := gin.New()
	r.Use(Cache(cache.New(time.Minute, time.Minute), time.Minute, version.Load))
	r.GET("/api/stats", func(c *gin.Context) {
		n := calls.Add(1)
		c.JSON(http.StatusOK, gin.H{"calls": n})
	})
	r.GET("/api/broken", func(c *gin.Context) {
		calls.Add(1)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to load data"})
	})

	get := func(path string) *httptest.ResponseRecorder {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, path, nil)
		r.ServeHTTP(w, req)
		return w
	}

	first := get("/api/stats")
	assert.Equal(t, http.StatusOK, first.Code)
	assert.JSONEq(t, `{"calls":1}`, first.Body.String())

	second := get("/api/stats")
	assert.JSONEq(t, `{"calls":1}`, second.Body.String())
	assert.Equal(t, "HIT", second.Header().Get("X-Cache"))
	assert.Equal(t, int32(1), calls.Load())

	version.Store(2)
	third := get("/api/stats")
	assert.JSONEq(t, `{"calls":2}`, third.Body.String(), "a new snapshot bypasses the old entry")

	get("/api/broken")
	get("/api/broken")
	assert.Equal(t, int32(4), calls.Load(), "errors are not cached")
}

func TestCache_BypassedBeforeFirstSnapshot(t *testing.T) {
	var version atomic.Uint64
	var calls atomic.Int32

	r := gin.New()
	r.Use(Cache(cache.New(time.Minute, time.Minute), time.Minute, version.Load))
	r.GET("/api/floors", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"calls": calls.Add(1)})
	})

	tests := []struct {
		name      string
		version   uint64
		wantCalls int32
		wantHit   string
	}{
		{name: "nothing loaded", version: 0, wantCalls: 1},
		{name: "still nothing loaded", version: 0, wantCalls: 2},
		{name: "first snapshot", version: 1, wantCalls: 3},
		{name: "replayed", version: 1, wantCalls: 3, wantHit: "HIT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			version.Store(tt.version)
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/api/floors?x=1", nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.wantCalls, calls.Load())
			assert.Equal(t, tt.wantHit, w.Header().Get("X-Cache"))
			assert.Contains(t, w.Header().Get("Content-Type"), "application/json")
		})
	}
}

func TestRateLimiter(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 2, time.Minute)
	r := gin.New()
	r.Use(RateLimiter(limiter))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	var codes []int
	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code, "limits are per client")
	assert.Equal(t, 2, limiter.Len())
}

func TestIPRateLimiter_Evicts(t *testing.T) {
	limiter := NewIPRateLimiter(rate.Limit(1), 1, 20*time.Millisecond)
	first := limiter.GetLimiter("10.0.0.1")
	assert.Same(t, first, limiter.GetLimiter("10.0.0.1"))

	time.Sleep(50 * time.Millisecond)
	assert.NotSame(t, first, limiter.GetLimiter("10.0.0.1"))
}

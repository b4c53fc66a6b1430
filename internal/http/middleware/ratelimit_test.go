package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
)

func init() { gin.SetMode(gin.TestMode) }

func rateLimitedRouter(rps float64, burst int) *gin.Engine {
	r := gin.New()
	rl := NewRateLimiter(rps, burst, KeyByClientIP())
	r.Use(rl.Handler())
	r.GET("/ping", func(c *gin.Context) { c.String(http.StatusOK, "pong") })
	return r
}

func hit(r *gin.Engine, remoteAddr string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/ping", nil)
	req.RemoteAddr = remoteAddr
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_AllowsWithinBurst(t *testing.T) {
	r := rateLimitedRouter(1, 3)
	for i := 0; i < 3; i++ {
		if w := hit(r, "203.0.113.7:1234"); w.Code != http.StatusOK {
			t.Fatalf("request %d status = %d", i, w.Code)
		}
	}
}

func TestRateLimiter_RejectsBeyondBurst(t *testing.T) {
	r := rateLimitedRouter(0.001, 1)
	if w := hit(r, "203.0.113.7:1234"); w.Code != http.StatusOK {
		t.Fatalf("first request status = %d", w.Code)
	}

	w := hit(r, "203.0.113.7:1234")
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("second request status = %d, want 429", w.Code)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Fatalf("Retry-After header missing")
	}
	var body map[string]string
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["code"] != "rate_limited" {
		t.Fatalf("body = %v", body)
	}
}

func TestRateLimiter_BucketsPerClientIP(t *testing.T) {
	r := rateLimitedRouter(0.001, 1)
	if w := hit(r, "203.0.113.7:1234"); w.Code != http.StatusOK {
		t.Fatalf("first client status = %d", w.Code)
	}
	// A different client gets its own bucket.
	if w := hit(r, "198.51.100.9:5678"); w.Code != http.StatusOK {
		t.Fatalf("second client status = %d", w.Code)
	}
}

func TestKeyByClientIP(t *testing.T) {
	var got string
	r := gin.New()
	key := KeyByClientIP()
	r.GET("/", func(c *gin.Context) {
		got = key(c)
		c.Status(http.StatusOK)
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "203.0.113.7:1234"
	r.ServeHTTP(w, req)

	if got != "ip:203.0.113.7" {
		t.Fatalf("key = %q", got)
	}
}

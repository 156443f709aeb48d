package httpmiddleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func init() { gin.SetMode(gin.TestMode) }

func TestTokenBucketRefills(t *testing.T) {
	at := time.Date(2024, 3, 20, 8, 0, 0, 0, time.UTC)
	l := NewSimpleTokenBucket(2, 60)
	l.now = func() time.Time { return at }

	if !l.allow("a") || !l.allow("a") {
		t.Fatal("first two requests must pass")
	}
	if l.allow("a") {
		t.Fatal("third request should be limited")
	}
	if !l.allow("b") {
		t.Fatal("buckets are per key")
	}

	at = at.Add(time.Second)
	if !l.allow("a") {
		t.Fatal("one token should refill after a second at 60/min")
	}
	if l.allow("a") {
		t.Fatal("only one token refilled")
	}
}

func TestMiddlewareChain(t *testing.T) {
	l := NewSimpleTokenBucket(1, 1)
	r := gin.New()
	r.Use(RequestID(), SecurityHeaders(), l.GinMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "abc")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d", w.Code)
	}
	if w.Header().Get(RequestIDHeader) != "abc" {
		t.Fatalf("request id = %q", w.Header().Get(RequestIDHeader))
	}
	if w.Header().Get("X-Frame-Options") != "DENY" {
		t.Fatal("security headers missing")
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", w.Code)
	}
	if w.Header().Get(RequestIDHeader) == "" {
		t.Fatal("generated request id missing")
	}
}

func TestZeroRateDisablesLimit(t *testing.T) {
	l := NewSimpleTokenBucket(0, 0)
	r := gin.New()
	r.Use(l.GinMiddleware())
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusNoContent) })
	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		if w.Code != http.StatusNoContent {
			t.Fatalf("request %d status = %d", i, w.Code)
		}
	}
}

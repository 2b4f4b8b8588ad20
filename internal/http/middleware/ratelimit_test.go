package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(1, 2)
	defer rl.Close()
	now := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	if !rl.Allow("10.0.0.1") || !rl.Allow("10.0.0.1") {
		t.Fatal("burst requests should pass")
	}
	if rl.Allow("10.0.0.1") {
		t.Fatal("third request should be limited")
	}
	if !rl.Allow("10.0.0.2") {
		t.Fatal("other clients have their own bucket")
	}

	now = now.Add(time.Second)
	if !rl.Allow("10.0.0.1") {
		t.Fatal("bucket should refill after a second")
	}

	now = now.Add(20 * time.Minute)
	rl.evictBefore(now.Add(-10 * time.Minute))
	if len(rl.buckets) != 0 {
		t.Fatalf("expected stale buckets evicted, have %d", len(rl.buckets))
	}
}

func TestRateLimitMiddlewareIgnoresPort(t *testing.T) {
	rl := NewRateLimiter(0.5, 1)
	defer rl.Close()
	handler := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/payments/orders", nil)
	req.RemoteAddr = "203.0.113.9:40001"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	req.RemoteAddr = "203.0.113.9:40002"
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "2" {
		t.Fatalf("unexpected Retry-After %q", rec.Header().Get("Retry-After"))
	}
}

package middleware

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

// ============================================================================
// RateLimiter Tests
// ============================================================================

func TestNewRateLimiter_Defaults(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{})
	defer rl.Stop()

	if rl.burst != 10 {
		t.Errorf("expected burst 10, got %d", rl.burst)
	}
	if rl.idle != 10*time.Minute {
		t.Errorf("expected idle 10m, got %v", rl.idle)
	}
	if rl.limit != 1 {
		t.Errorf("expected 1 token/s, got %v", rl.limit)
	}
}

func TestRateLimiter_Reserve_ExhaustsBurst(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{Rate: 60, Window: time.Minute, Burst: 3})
	defer rl.Stop()

	now := time.Now()
	for i := range 3 {
		if ok, _ := rl.Reserve("10.0.0.1", now); !ok {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}

	ok, wait := rl.Reserve("10.0.0.1", now)
	if ok {
		t.Fatal("fourth request should be limited")
	}
	if wait <= 0 || wait > time.Second {
		t.Errorf("expected wait within one token interval, got %v", wait)
	}

	// a refused reservation gives its token back
	if ok, _ := rl.Reserve("10.0.0.1", now.Add(time.Second)); !ok {
		t.Error("a token should be available after one second")
	}
}

func TestRateLimiter_Reserve_ClientsAreIndependent(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{Burst: 1})
	defer rl.Stop()

	now := time.Now()
	if ok, _ := rl.Reserve("a", now); !ok {
		t.Fatal("first client should be allowed")
	}
	if ok, _ := rl.Reserve("b", now); !ok {
		t.Error("second client has its own bucket")
	}
}

func TestRateLimiter_ForgetIdle(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{Idle: time.Minute})
	defer rl.Stop()

	now := time.Now()
	rl.Reserve("old", now.Add(-2*time.Minute))
	rl.Reserve("new", now)

	rl.forgetIdle(now)

	rl.mu.Lock()
	defer rl.mu.Unlock()
	if _, ok := rl.clients["old"]; ok {
		t.Error("idle client should be forgotten")
	}
	if _, ok := rl.clients["new"]; !ok {
		t.Error("active client should be kept")
	}
}

// ============================================================================
// RateLimit Middleware Tests
// ============================================================================

func TestRateLimit_ReadsAreNeverLimited(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{Burst: 1})
	defer rl.Stop()

	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	for i := range 5 {
		req := httptest.NewRequest(http.MethodGet, "/v1/classes", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, req)
		if rr.Code != http.StatusOK {
			t.Fatalf("GET %d: expected 200, got %d", i+1, rr.Code)
		}
	}
}

func TestRateLimit_WritesOverBurst_Returns429(t *testing.T) {
	t.Parallel()
	rl := NewRateLimiter(RateLimitConfig{Rate: 1, Window: time.Hour, Burst: 2})
	defer rl.Stop()

	handler := RateLimit(rl)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	var last *httptest.ResponseRecorder
	for i := range 3 {
		req := httptest.NewRequest(http.MethodPut, "/v1/classes/a/students", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		last = httptest.NewRecorder()
		handler.ServeHTTP(last, req)
		if i < 2 && last.Code != http.StatusOK {
			t.Fatalf("write %d: expected 200, got %d", i+1, last.Code)
		}
	}

	if last.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", last.Code)
	}
	if last.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
	if last.Header().Get("X-RateLimit-Limit") != "2" {
		t.Errorf("expected X-RateLimit-Limit 2, got %q", last.Header().Get("X-RateLimit-Limit"))
	}
	if !strings.Contains(last.Body.String(), "rate-limited") {
		t.Errorf("expected rate-limited problem type, got %q", last.Body.String())
	}
}

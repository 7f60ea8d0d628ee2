package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterAllow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !rl.Allow("a") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("a") {
		t.Error("request over the limit should be rejected")
	}
	if !rl.Allow("b") {
		t.Error("other keys have their own window")
	}
}

func TestRateLimiterWindowResets(t *testing.T) {
	rl := NewRateLimiter(1, 20*time.Millisecond)

	if !rl.Allow("a") {
		t.Fatal("first request should pass")
	}
	if rl.Allow("a") {
		t.Fatal("second request in the window should fail")
	}

	time.Sleep(30 * time.Millisecond)
	if !rl.Allow("a") {
		t.Error("request after the window should pass")
	}
}

func TestRateLimiterCleanup(t *testing.T) {
	rl := NewRateLimiter(1, 10*time.Millisecond)
	rl.Allow("stale")
	rl.Allow("fresh")

	time.Sleep(20 * time.Millisecond)
	rl.Allow("fresh") // starts a new window, fresh bucket survives
	rl.Cleanup()

	rl.mu.Lock()
	_, staleLives := rl.buckets["stale"]
	_, freshLives := rl.buckets["fresh"]
	rl.mu.Unlock()

	if staleLives {
		t.Error("expired bucket should be dropped")
	}
	if !freshLives {
		t.Error("live bucket should survive cleanup")
	}
}

func TestRateLimiterMiddleware(t *testing.T) {
	rl := NewRateLimiter(1, time.Minute)
	h := rl.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	req.RemoteAddr = "203.0.113.9:51000"

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("first request status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request status = %d, want 429", rec.Code)
	}

	// A different client is not affected.
	other := httptest.NewRequest(http.MethodPost, "/api/login", nil)
	other.RemoteAddr = "203.0.113.10:51000"
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, other)
	if rec.Code != http.StatusOK {
		t.Errorf("other client status = %d, want 200", rec.Code)
	}
}

func TestRealIP(t *testing.T) {
	tests := []struct {
		name       string
		xff        string
		realIP     string
		remoteAddr string
		want       string
	}{
		{"forwarded chain", "198.51.100.1, 10.0.0.1", "", "10.0.0.2:80", "198.51.100.1"},
		{"single forwarded", "198.51.100.2", "", "10.0.0.2:80", "198.51.100.2"},
		{"real ip header", "", "198.51.100.3", "10.0.0.2:80", "198.51.100.3"},
		{"remote addr", "", "", "203.0.113.7:44321", "203.0.113.7"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.RemoteAddr = tt.remoteAddr
			if tt.xff != "" {
				req.Header.Set("X-Forwarded-For", tt.xff)
			}
			if tt.realIP != "" {
				req.Header.Set("X-Real-IP", tt.realIP)
			}
			if got := RealIP(req); got != tt.want {
				t.Errorf("RealIP = %q, want %q", got, tt.want)
			}
		})
	}
}

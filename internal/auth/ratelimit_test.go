package auth

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestRateLimiterWindow(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 3; i++ {
		if !rl.Allow("1.2.3.4") {
			t.Fatalf("request %d should be allowed", i+1)
		}
	}
	if rl.Allow("1.2.3.4") {
		t.Fatal("fourth request should be limited")
	}
	if !rl.Allow("5.6.7.8") {
		t.Fatal("other IPs are independent")
	}
	if !rl.Blocked("1.2.3.4") {
		t.Error("expected Blocked to report the limit")
	}

	now = now.Add(61 * time.Second)
	if rl.Blocked("1.2.3.4") {
		t.Error("limit should reset after the window")
	}
	if !rl.Allow("1.2.3.4") {
		t.Error("request after window should be allowed")
	}
}

func TestClientIP(t *testing.T) {
	r := httptest.NewRequest("GET", "/", nil)
	r.RemoteAddr = "10.0.0.1:5555"
	if got := ClientIP(r); got != "10.0.0.1" {
		t.Errorf("ClientIP = %q, want 10.0.0.1", got)
	}

	r.Header.Set("X-Forwarded-For", "203.0.113.7")
	if got := ClientIP(r); got != "10.0.0.1" {
		t.Errorf("ClientIP = %q, want header ignored", got)
	}
}

func TestTrustProxy(t *testing.T) {
	var got string
	handler := TrustProxy(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = ClientIP(r)
	}))

	tests := []struct {
		name string
		xff  string
		want string
	}{
		{"no header", "", "10.0.0.1"},
		{"single hop", "203.0.113.7", "203.0.113.7"},
		{"client-supplied prefix", "1.1.1.1, 203.0.113.7", "203.0.113.7"},
		{"garbage", "not-an-ip", "10.0.0.1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/", nil)
			r.RemoteAddr = "10.0.0.1:5555"
			if tt.xff != "" {
				r.Header.Set("X-Forwarded-For", tt.xff)
			}
			handler.ServeHTTP(httptest.NewRecorder(), r)
			if got != tt.want {
				t.Errorf("ClientIP = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestRateLimiterEvictsIdleKeys(t *testing.T) {
	rl := NewRateLimiter(3, time.Minute)
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	rl.now = func() time.Time { return now }

	for i := 0; i < 100; i++ {
		rl.Allow(fmt.Sprintf("198.51.100.%d", i))
	}
	if rl.Len() != 100 {
		t.Fatalf("Len = %d, want 100", rl.Len())
	}

	now = now.Add(2 * time.Minute)
	rl.Allow("203.0.113.1")
	if rl.Len() != 1 {
		t.Errorf("Len = %d, want 1 after idle keys expire", rl.Len())
	}
}

func TestRateLimitIgnoresForwardedFor(t *testing.T) {
	handler := RateLimit(NewRateLimiter(30, time.Minute), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	limited := 0
	for i := 0; i < 200; i++ {
		r := httptest.NewRequest("POST", "/api/chat", nil)
		r.RemoteAddr = "198.51.100.7:5555"
		r.Header.Set("X-Forwarded-For", fmt.Sprintf("10.%d.%d.1", i/256, i%256))
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, r)
		if w.Code == http.StatusTooManyRequests {
			limited++
		}
	}
	if limited != 170 {
		t.Errorf("limited = %d, want 170", limited)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	handler := RateLimit(NewRateLimiter(30, time.Minute), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	for i := 0; i < 30; i++ {
		w := httptest.NewRecorder()
		handler.ServeHTTP(w, httptest.NewRequest("POST", "/api/chat", nil))
		if w.Code != http.StatusOK {
			t.Fatalf("request %d: status = %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("POST", "/api/chat", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want 429", w.Code)
	}
}

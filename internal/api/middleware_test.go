package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"
)

func TestGenerateRequestIDUnique(t *testing.T) {
	a := GenerateRequestID()
	b := GenerateRequestID()
	if a == b {
		t.Error("expected distinct request ids")
	}
	if len(a) != 16 {
		t.Errorf("expected 16 hex chars, got %d (%s)", len(a), a)
	}
}

func TestRequestIDMiddlewareSetsHeader(t *testing.T) {
	mw := RequestIDMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header to be set")
	}
}

func TestRequestLimiterAllowsWithinBudget(t *testing.T) {
	limiter := NewRequestLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("client-a") {
			t.Fatalf("expected request %d to be allowed", i)
		}
	}
	if limiter.Allow("client-a") {
		t.Error("expected 4th request to be rejected")
	}
}

func TestRequestLimiterPerClientIsolation(t *testing.T) {
	limiter := NewRequestLimiter(1, time.Minute)

	if !limiter.Allow("client-a") {
		t.Fatal("expected first request from client-a to be allowed")
	}
	if !limiter.Allow("client-b") {
		t.Error("expected client-b to have its own budget")
	}
}

func TestRateLimitMiddlewareRejectsOverBudget(t *testing.T) {
	limiter := NewRequestLimiter(1, time.Minute)
	mw := RateLimitMiddleware(limiter)
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req1 := httptest.NewRequest(http.MethodPost, "/api/optimize", nil)
	req1.RemoteAddr = "10.0.0.1:1234"
	rr1 := httptest.NewRecorder()
	handler.ServeHTTP(rr1, req1)
	if rr1.Code != http.StatusOK {
		t.Fatalf("expected first request to pass, got %d", rr1.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/api/optimize", nil)
	req2.RemoteAddr = "10.0.0.1:1234"
	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, req2)
	if rr2.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr2.Code)
	}
}

func TestSecurityMiddlewareAddsHeaders(t *testing.T) {
	mw := SecurityMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/objectives", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Error("expected X-Content-Type-Options header")
	}
	if rr.Header().Get("X-Frame-Options") != "DENY" {
		t.Error("expected X-Frame-Options header")
	}
}

func TestSecurityMiddlewareShortCircuitsOptions(t *testing.T) {
	mw := SecurityMiddleware()
	called := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))

	req := httptest.NewRequest(http.MethodOptions, "/api/optimize", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if called {
		t.Error("expected OPTIONS to short-circuit before reaching the next handler")
	}
	if rr.Code != http.StatusOK {
		t.Errorf("expected 200 for preflight, got %d", rr.Code)
	}
}

func TestGetClientIPPrefersForwardedFor(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	req.RemoteAddr = "10.0.0.1:5555"

	if ip := getClientIP(req); ip != "203.0.113.5" {
		t.Errorf("expected 203.0.113.5, got %s", ip)
	}
}

func TestGetClientIPFallsBackToRemoteAddr(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "192.0.2.1:4321"

	if ip := getClientIP(req); ip != "192.0.2.1" {
		t.Errorf("expected 192.0.2.1, got %s", ip)
	}
}

func TestAPIKeyMiddlewareRequiresKeyOnAPIRoutes(t *testing.T) {
	os.Setenv("OPTIMIZER_API_KEY", "secret-123")
	defer os.Unsetenv("OPTIMIZER_API_KEY")

	mw := APIKeyMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/optimize", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without key, got %d", rr.Code)
	}

	req2 := httptest.NewRequest(http.MethodPost, "/api/optimize", nil)
	req2.Header.Set("X-API-Key", "secret-123")
	rr2 := httptest.NewRecorder()
	handler.ServeHTTP(rr2, req2)
	if rr2.Code != http.StatusOK {
		t.Fatalf("expected 200 with correct key, got %d", rr2.Code)
	}
}

func TestAPIKeyMiddlewareBypassesNonAPIRoutes(t *testing.T) {
	os.Setenv("OPTIMIZER_API_KEY", "secret-123")
	defer os.Unsetenv("OPTIMIZER_API_KEY")

	mw := APIKeyMiddleware()
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Fatalf("expected /healthz to bypass api key check, got %d", rr.Code)
	}
}

package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/runeforge/optimizer/internal/log"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// RequestIDMiddleware stamps every request with a short hex id, used to
// correlate the logged search_builds call with its JSON response.
func RequestIDMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := GenerateRequestID()

			w.Header().Set("X-Request-ID", requestID)
			ctx := context.WithValue(r.Context(), requestIDKey, requestID)

			log.Info("request started",
				"request_id", requestID,
				"method", r.Method,
				"path", r.URL.Path,
				"remote_addr", r.RemoteAddr)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GenerateRequestID returns a random 16-character hex identifier.
func GenerateRequestID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

func requestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return id
	}
	return GenerateRequestID()
}

// RequestLimiter implements per-client token bucket rate limiting in front
// of search_builds, since one call can run an exhaustive DFS over a large
// inventory.
type RequestLimiter struct {
	mu      sync.Mutex
	clients map[string]*tokenBucket
	maxReqs int
	window  time.Duration
	cleanup time.Duration
}

type tokenBucket struct {
	tokens     int
	lastRefill time.Time
	capacity   int
}

// NewRequestLimiter creates a new rate limiter allowing maxReqs requests per window.
func NewRequestLimiter(maxReqs int, window time.Duration) *RequestLimiter {
	rl := &RequestLimiter{
		clients: make(map[string]*tokenBucket),
		maxReqs: maxReqs,
		window:  window,
		cleanup: 5 * time.Minute,
	}
	go rl.cleanupRoutine()
	return rl
}

// Allow reports whether clientID may proceed under the current window.
func (rl *RequestLimiter) Allow(clientID string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	bucket, exists := rl.clients[clientID]
	if !exists {
		rl.clients[clientID] = &tokenBucket{
			tokens:     rl.maxReqs - 1,
			lastRefill: time.Now(),
			capacity:   rl.maxReqs,
		}
		return true
	}

	now := time.Now()
	if now.Sub(bucket.lastRefill) >= rl.window {
		bucket.tokens = bucket.capacity
		bucket.lastRefill = now
	}

	if bucket.tokens > 0 {
		bucket.tokens--
		return true
	}
	return false
}

func (rl *RequestLimiter) cleanupRoutine() {
	ticker := time.NewTicker(rl.cleanup)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for clientID, bucket := range rl.clients {
			if now.Sub(bucket.lastRefill) > rl.window*2 {
				delete(rl.clients, clientID)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimitMiddleware enforces limiter, returning a StandardError-shaped 429
// rather than a bare text error.
func RateLimitMiddleware(limiter *RequestLimiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			clientID := getClientIP(r)

			if !limiter.Allow(clientID) {
				log.Warn("rate limit exceeded",
					"client_ip", clientID,
					"path", r.URL.Path,
					"max_requests", limiter.maxReqs,
					"window", limiter.window)

				w.Header().Set("Retry-After", strconv.Itoa(int(limiter.window.Seconds())))
				w.Header().Set("X-RateLimit-Limit", strconv.Itoa(limiter.maxReqs))
				writeStandardErrorResponse(w, r, "RATE_LIMITED",
					"too many search_builds requests, slow down",
					http.StatusTooManyRequests, nil, intPtr(int(limiter.window.Seconds())))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		for i, c := range xff {
			if c == ',' || c == ' ' {
				return xff[:i]
			}
		}
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	for i := len(r.RemoteAddr) - 1; i >= 0; i-- {
		if r.RemoteAddr[i] == ':' {
			return r.RemoteAddr[:i]
		}
	}
	return r.RemoteAddr
}

// SecurityMiddleware adds baseline security headers and CORS handling.
func SecurityMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("X-Content-Type-Options", "nosniff")
			w.Header().Set("X-Frame-Options", "DENY")
			w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

			allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
			if allowedOrigins == "" {
				allowedOrigins = "*"
			}
			w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-API-Key")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// APIKeyMiddleware optionally requires X-API-Key on /api/ routes when
// OPTIMIZER_API_KEY is set; absent that env var it's a no-op.
func APIKeyMiddleware() func(http.Handler) http.Handler {
	requiredKey := os.Getenv("OPTIMIZER_API_KEY")

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if requiredKey == "" || !strings.HasPrefix(r.URL.Path, "/api/") {
				next.ServeHTTP(w, r)
				return
			}

			providedKey := r.Header.Get("X-API-Key")
			if providedKey != requiredKey {
				log.Warn("api key authentication failed", "path", r.URL.Path, "remote_addr", r.RemoteAddr)
				writeStandardErrorResponse(w, r, "UNAUTHORIZED", "valid API key required", http.StatusUnauthorized, nil, nil)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func intPtr(v int) *int { return &v }

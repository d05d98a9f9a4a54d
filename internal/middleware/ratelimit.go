package middleware

import (
	"fmt"
	"math"
	"net/http"
	"sync"
	"time"

	"go.uber.org/zap"
)

// RateLimiter is a fixed-window request counter shared by all clients
type RateLimiter struct {
	mu          sync.Mutex
	requests    int
	limit       int
	window      time.Duration
	windowStart time.Time
	now         func() time.Time
}

// NewRateLimiter allows limit requests per window
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	if limit < 1 {
		limit = 100
	}
	if window <= 0 {
		window = 1 * time.Minute
	}

	return &RateLimiter{
		limit:       limit,
		window:      window,
		windowStart: time.Now(),
		now:         time.Now,
	}
}

// Allow counts the request and reports whether it fits the current window.
// When it does not, retryAfter is the time left until the window resets.
func (rl *RateLimiter) Allow() (ok bool, retryAfter time.Duration) {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.windowStart) >= rl.window {
		rl.windowStart = now
		rl.requests = 0
	}

	if rl.requests >= rl.limit {
		return false, rl.window - now.Sub(rl.windowStart)
	}
	rl.requests++
	return true, 0
}

// RateLimitMiddleware limits request rate
func RateLimitMiddleware(limiter *RateLimiter, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ok, retryAfter := limiter.Allow()
			if !ok {
				requestID := GetRequestID(r.Context())

				logger.Warn("rate limit exceeded",
					zap.String("request_id", requestID),
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
				)

				w.Header().Set("Retry-After", fmt.Sprintf("%.0f", math.Ceil(retryAfter.Seconds())))
				WriteError(w, http.StatusTooManyRequests, "Too many requests, please try again later", requestID)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

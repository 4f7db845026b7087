package middleware

import (
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/kiranshivaraju/dandi/internal/api/response"
	"github.com/kiranshivaraju/dandi/internal/cache"
)

const (
	defaultRequestsPerMinute = 60
	rateLimitWindow          = 60 * time.Second
)

// RateLimit is a fixed-window request limiter per presented API key, backed by Redis.
type RateLimit struct {
	cache          cache.Cache
	requestsPerMin int
	window         time.Duration
	now            func() time.Time
}

// NewRateLimit creates a new RateLimit middleware.
func NewRateLimit(c cache.Cache, requestsPerMin int) *RateLimit {
	if requestsPerMin <= 0 {
		requestsPerMin = defaultRequestsPerMinute
	}
	return &RateLimit{cache: c, requestsPerMin: requestsPerMin, window: rateLimitWindow, now: time.Now}
}

// WithWindow overrides the counting window.
func (rl *RateLimit) WithWindow(d time.Duration) *RateLimit {
	if d > 0 {
		rl.window = d
	}
	return rl
}

// Limit counts requests against a fingerprint of the x-api-key header. It runs
// before the gate so throttled requests never touch the usage counter.
// Requests without a key are left for the gate to reject.
func (rl *RateLimit) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		presented := strings.TrimSpace(r.Header.Get(APIKeyHeader))
		if presented == "" {
			next.ServeHTTP(w, r)
			return
		}

		key := cache.RateLimitKey(cache.KeyFingerprint(presented))
		count, err := rl.cache.IncrWithExpiry(r.Context(), key, rl.window)
		if err != nil {
			// Fail open.
			slog.Warn("rate limit check failed", "error", err)
			next.ServeHTTP(w, r)
			return
		}

		remaining := rl.requestsPerMin - int(count)
		if remaining < 0 {
			remaining = 0
		}
		resetTime := rl.now().Add(rl.window).Unix()

		w.Header().Set("X-RateLimit-Limit", strconv.Itoa(rl.requestsPerMin))
		w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(remaining))
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(resetTime, 10))

		if count > int64(rl.requestsPerMin) {
			w.Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(rl.window.Seconds()))))
			response.Error(w, http.StatusTooManyRequests,
				"RATE_LIMIT_EXCEEDED", "Too many requests", nil)
			return
		}

		next.ServeHTTP(w, r)
	})
}

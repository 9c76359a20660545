package middleware

import (
	"encoding/json"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/time/rate"

	"github.com/socialchef/leftovers/internal/config"
	"github.com/socialchef/leftovers/internal/errors"
)

const (
	maxBuckets = 50000
	bucketIdle = 10 * time.Minute
)

// UserRateLimiter keeps one token bucket per caller. Callers with a user id
// are keyed by it; callers whose id was minted on this request are keyed by
// client IP so dropping the cookie does not buy a fresh bucket. Idle buckets
// are dropped after bucketIdle, long after they would have refilled.
type UserRateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	buckets *expirable.LRU[string, *rate.Limiter]
}

// NewUserRateLimiter returns nil when the limit is disabled.
func NewUserRateLimiter(cfg config.RateLimitConfig) *UserRateLimiter {
	if cfg.RequestsPerMinute <= 0 {
		return nil
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}
	return &UserRateLimiter{
		limit:   rate.Limit(cfg.RequestsPerMinute) / 60,
		burst:   burst,
		buckets: expirable.NewLRU[string, *rate.Limiter](maxBuckets, nil, bucketIdle),
	}
}

// Allow consumes a token from the bucket for key.
func (l *UserRateLimiter) Allow(key string) bool {
	l.mu.Lock()
	limiter, ok := l.buckets.Get(key)
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
	}
	l.buckets.Add(key, limiter)
	l.mu.Unlock()
	return limiter.Allow()
}

// bucketKey picks the identity a request is charged to. It must run after
// Identity; RemoteAddr is expected to be rewritten by chi's RealIP upstream.
func bucketKey(r *http.Request) string {
	userID, ok := GetUserID(r.Context())
	if ok && userID != "" && !IsIssued(r.Context()) {
		return "user:" + userID
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	return "ip:" + host
}

// Handler rejects requests over the caller's budget with a 429 AppError. A
// nil limiter passes everything through.
func (l *UserRateLimiter) Handler(next http.Handler) http.Handler {
	if l == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if l.Allow(bucketKey(r)) {
			next.ServeHTTP(w, r)
			return
		}

		appErr := errors.NewRateLimitError("Too many requests.", "RATE_LIMITED", "Wait a minute before asking again.")
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Retry-After", "60")
		w.WriteHeader(appErr.StatusCode)
		json.NewEncoder(w).Encode(appErr)
	})
}

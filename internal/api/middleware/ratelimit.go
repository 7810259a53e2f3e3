package middleware

import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/phrazzld/capsule-api/internal/api/shared"
)

// RateLimiter applies a per-client-IP token bucket to a set of routes.
// Idle client entries are evicted after idleTTL to bound memory.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	lastSeen map[string]time.Time

	limit   rate.Limit
	burst   int
	idleTTL time.Duration
	done    chan struct{}
}

// NewRateLimiter creates a RateLimiter allowing requestsPerMinute sustained
// requests per client IP, with a matching burst. A zero or negative rate
// disables limiting.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	rl := &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		lastSeen: make(map[string]time.Time),
		burst:    requestsPerMinute,
		idleTTL:  10 * time.Minute,
		done:     make(chan struct{}),
	}
	if requestsPerMinute > 0 {
		rl.limit = rate.Every(time.Minute / time.Duration(requestsPerMinute))
		go rl.cleanup()
	}
	return rl
}

// Stop terminates the background cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.done)
}

func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
			rl.mu.Lock()
			for ip, seen := range rl.lastSeen {
				if time.Since(seen) > rl.idleTTL {
					delete(rl.limiters, ip)
					delete(rl.lastSeen, ip)
				}
			}
			rl.mu.Unlock()
		}
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	limiter, ok := rl.limiters[ip]
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.limiters[ip] = limiter
	}
	rl.lastSeen[ip] = time.Now()
	return limiter.Allow()
}

// clientIP resolves the caller address, preferring the last hop in
// X-Forwarded-For when a proxy set it.
func clientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return strings.TrimSpace(ips[len(ips)-1])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

// Limit rejects requests over the per-IP rate with 429 Too Many Requests.
func (rl *RateLimiter) Limit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if rl.limit == 0 {
			next.ServeHTTP(w, r)
			return
		}

		if !rl.allow(clientIP(r)) {
			shared.RespondWithError(w, r, http.StatusTooManyRequests,
				"Too many requests, try again later")
			return
		}
		next.ServeHTTP(w, r)
	})
}

package httpserver

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type userLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

// RateLimiter enforces a per-user token bucket on write endpoints. Entries
// for idle users are evicted in the background.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*userLimiter

	stopCh chan struct{}
}

// NewRateLimiter builds a limiter allowing perMinute requests per user with
// the given burst and starts its cleanup goroutine.
func NewRateLimiter(perMinute, burst int) *RateLimiter {
	rl := &RateLimiter{
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    burst,
		limiters: make(map[string]*userLimiter),
		stopCh:   make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

// Stop terminates the cleanup goroutine.
func (rl *RateLimiter) Stop() {
	close(rl.stopCh)
}

// Allow reports whether userID may make another request now.
func (rl *RateLimiter) Allow(userID string) bool {
	return rl.get(userID).Allow()
}

// Count reports how many users currently hold a limiter.
func (rl *RateLimiter) Count() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) get(userID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	if ul, ok := rl.limiters[userID]; ok {
		ul.lastAccess = time.Now()
		return ul.limiter
	}
	limiter := rate.NewLimiter(rl.limit, rl.burst)
	rl.limiters[userID] = &userLimiter{limiter: limiter, lastAccess: time.Now()}
	return limiter
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			rl.cleanup(10 * time.Minute)
		case <-rl.stopCh:
			return
		}
	}
}

func (rl *RateLimiter) cleanup(ttl time.Duration) {
	now := time.Now()
	rl.mu.Lock()
	for userID, ul := range rl.limiters {
		if now.Sub(ul.lastAccess) > ttl {
			delete(rl.limiters, userID)
		}
	}
	rl.mu.Unlock()
}

// limitWrites wraps write handlers with the per-user rate limit. It must run
// after requireAuth.
func (s *Server) limitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := userIDFromContext(r.Context())
		if !ok {
			s.respondError(w, http.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid authentication information")
			return
		}
		if !s.limiter.Allow(userID) {
			retryAfter := int(math.Ceil(1.0 / float64(s.limiter.limit)))
			if retryAfter < 1 {
				retryAfter = 1
			}
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			s.respondError(w, http.StatusTooManyRequests, "RATE_LIMITED", "Too many requests, slow down")
			return
		}
		next.ServeHTTP(w, r)
	})
}

package middleware

import (
	"context"
	"net/http"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/anugrahsy/monolog-food-orders-app/internal/logger"
)

type clientLimiter struct {
	limiter *rate.Limiter
	mu      sync.Mutex
	last    time.Time
}

// RateLimiter applies a token bucket per client IP.
type RateLimiter struct {
	rps     rate.Limit
	burst   int
	clients sync.Map // map[string]*clientLimiter
}

// NewRateLimiter returns a limiter allowing rps sustained requests with the given
// burst. A non-positive rps disables limiting.
func NewRateLimiter(rps float64, burst int) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{rps: rate.Limit(rps), burst: burst}
}

// Allow reports whether the client may make a request now.
func (l *RateLimiter) Allow(client string) bool {
	if l == nil || l.rps <= 0 {
		return true
	}

	v, _ := l.clients.LoadOrStore(client, &clientLimiter{
		limiter: rate.NewLimiter(l.rps, l.burst),
	})
	cl := v.(*clientLimiter)

	cl.mu.Lock()
	cl.last = time.Now()
	cl.mu.Unlock()

	return cl.limiter.Allow()
}

// Limit rejects requests over the client's budget with 429.
func (l *RateLimiter) Limit(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if !l.Allow(logger.GetClientIP(r)) {
			WriteAPIError(w, r, http.StatusTooManyRequests, "rate_limit_exceeded",
				"Too many requests. Please wait before trying again.", "")
			return
		}
		next.ServeHTTP(w, r)
	}
}

// Forget drops limiters idle for longer than idle and returns how many went.
func (l *RateLimiter) Forget(idle time.Duration) int {
	removed := 0
	cutoff := time.Now().Add(-idle)
	l.clients.Range(func(key, val any) bool {
		cl := val.(*clientLimiter)
		cl.mu.Lock()
		stale := cl.last.Before(cutoff)
		cl.mu.Unlock()
		if stale {
			l.clients.Delete(key)
			removed++
		}
		return true
	})
	return removed
}

// StartCleanup forgets idle clients every interval until ctx is done.
func (l *RateLimiter) StartCleanup(ctx context.Context, interval, idle time.Duration) {
	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				l.Forget(idle)
			}
		}
	}()
}

// Package api
package api

import (
	"sync"
	"time"

	"github.com/labstack/echo"
	"golang.org/x/time/rate"
)

const limiterIdleEviction = 10 * time.Minute

// ipRateLimiter hands out one token bucket per client IP. Stale buckets are
// evicted so the map does not grow with every IP ever seen.
type ipRateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*ipLimiterEntry
	limit    rate.Limit
	burst    int
}

type ipLimiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// newIPRateLimiter allows perMinute requests per IP, with bursts up to the
// same size.
func newIPRateLimiter(perMinute int) *ipRateLimiter {
	l := &ipRateLimiter{
		limiters: make(map[string]*ipLimiterEntry),
		limit:    rate.Limit(float64(perMinute) / 60.0),
		burst:    perMinute,
	}
	go l.evictLoop()
	return l
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	entry, ok := l.limiters[ip]
	if !ok {
		entry = &ipLimiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.limiters[ip] = entry
	}
	entry.lastSeen = time.Now()
	l.mu.Unlock()
	return entry.limiter.Allow()
}

func (l *ipRateLimiter) evictLoop() {
	t := time.NewTicker(time.Minute)
	defer t.Stop()
	for range t.C {
		l.mu.Lock()
		for ip, entry := range l.limiters {
			if time.Since(entry.lastSeen) > limiterIdleEviction {
				delete(l.limiters, ip)
			}
		}
		l.mu.Unlock()
	}
}

func rateLimitMiddleware(perMinute int) echo.MiddlewareFunc {
	limiter := newIPRateLimiter(perMinute)
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if !limiter.allow(c.RealIP()) {
				return BuildResponse(c).TooManyRequests()
			}
			return next(c)
		}
	}
}

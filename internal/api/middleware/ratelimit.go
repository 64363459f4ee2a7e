package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	// The public endpoint accepts arbitrary slugs, so the limiter map
	// is capped and idle entries are evicted once it fills up.
	maxLimiterEntries = 4096
	limiterIdleTTL    = 10 * time.Minute
)

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

type slugLimiters struct {
	mu       sync.Mutex
	rps      float64
	burst    int
	entries  map[string]*limiterEntry
	overflow *rate.Limiter
}

func newSlugLimiters(rps float64, burst int) *slugLimiters {
	return &slugLimiters{
		rps:     rps,
		burst:   burst,
		entries: make(map[string]*limiterEntry),
		// Shared bucket for new keys while the map is at capacity.
		overflow: rate.NewLimiter(rate.Limit(rps), burst),
	}
}

func (s *slugLimiters) get(key string, now time.Time) *rate.Limiter {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		if len(s.entries) >= maxLimiterEntries {
			s.evictIdle(now)
		}
		if len(s.entries) >= maxLimiterEntries {
			return s.overflow
		}
		e = &limiterEntry{limiter: rate.NewLimiter(rate.Limit(s.rps), s.burst)}
		s.entries[key] = e
	}
	e.lastSeen = now
	return e.limiter
}

// evictIdle drops entries not seen within limiterIdleTTL. Caller holds
// the lock.
func (s *slugLimiters) evictIdle(now time.Time) {
	for key, e := range s.entries {
		if now.Sub(e.lastSeen) > limiterIdleTTL {
			delete(s.entries, key)
		}
	}
}

// RateLimit bounds the public submission surface per form slug.
func RateLimit(rps float64, burst int) gin.HandlerFunc {
	limiters := newSlugLimiters(rps, burst)

	return func(c *gin.Context) {
		key := c.Param("slug")
		if key == "" {
			key = c.ClientIP()
		}

		if !limiters.get(key, time.Now()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests"})
			c.Abort()
			return
		}

		c.Next()
	}
}

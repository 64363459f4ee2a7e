package middleware

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func TestRateLimitPerSlug(t *testing.T) {
	r := gin.New()
	r.POST("/forms/:slug/responses", RateLimit(1, 2), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	hit := func(slug string) int {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/forms/"+slug+"/responses", nil))
		return w.Code
	}

	// Burst of 2 per slug, then throttled.
	assert.Equal(t, http.StatusOK, hit("acme"))
	assert.Equal(t, http.StatusOK, hit("acme"))
	assert.Equal(t, http.StatusTooManyRequests, hit("acme"))

	// A different slug has its own budget.
	assert.Equal(t, http.StatusOK, hit("globex"))
}

func TestSlugLimitersBoundedUnderUnknownSlugs(t *testing.T) {
	s := newSlugLimiters(1, 1)
	t0 := time.Now()

	for i := 0; i < maxLimiterEntries; i++ {
		s.get(fmt.Sprintf("slug-%d", i), t0)
	}
	assert.Len(t, s.entries, maxLimiterEntries)

	// At capacity with nothing idle, new keys share the overflow bucket
	// instead of allocating.
	l := s.get("fresh-slug", t0)
	assert.Same(t, s.overflow, l)
	assert.Len(t, s.entries, maxLimiterEntries)
}

func TestSlugLimitersEvictsIdleEntries(t *testing.T) {
	s := newSlugLimiters(1, 1)
	t0 := time.Now()

	for i := 0; i < maxLimiterEntries; i++ {
		s.get(fmt.Sprintf("slug-%d", i), t0)
	}

	// Once every entry has gone idle, a new key reclaims the map.
	later := t0.Add(limiterIdleTTL + time.Second)
	l := s.get("fresh-slug", later)
	assert.NotSame(t, s.overflow, l)
	assert.Len(t, s.entries, 1)
}

func TestSlugLimitersKeepsActiveEntries(t *testing.T) {
	s := newSlugLimiters(1, 1)
	t0 := time.Now()

	s.get("acme", t0)
	busy := s.get("acme", t0.Add(limiterIdleTTL))

	s.evictIdle(t0.Add(limiterIdleTTL + time.Minute))
	assert.Same(t, busy, s.get("acme", t0.Add(limiterIdleTTL+time.Minute)))
	assert.Len(t, s.entries, 1)
}

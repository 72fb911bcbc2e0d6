package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

const (
	limiterIdleTTL   = 10 * time.Minute
	limiterSweepSize = 1024
)

// RateLimiter throttles hold acquisition per owner so a single client cannot
// spray speculative holds across the calendar. Availability reads are not
// limited.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
}

type client struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func NewRateLimiter(perMinute int) *RateLimiter {
	if perMinute <= 0 {
		perMinute = 1
	}
	return &RateLimiter{
		clients: make(map[string]*client),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
	}
}

func (r *RateLimiter) LimitHoldCreation() gin.HandlerFunc {
	return func(c *gin.Context) {
		owner, ok := GetOwner(c)
		key := c.ClientIP()
		if ok {
			key = string(owner.Kind()) + ":" + owner.ID()
		}

		if !r.allow(key) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Too many hold requests, slow down",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

func (r *RateLimiter) allow(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	cl, ok := r.clients[key]
	if !ok {
		cl = &client{limiter: rate.NewLimiter(r.limit, r.burst)}
		r.clients[key] = cl
		if len(r.clients) > limiterSweepSize {
			r.sweepLocked()
		}
	}
	cl.lastSeen = time.Now()
	return cl.limiter.Allow()
}

func (r *RateLimiter) sweepLocked() {
	cutoff := time.Now().Add(-limiterIdleTTL)
	for key, cl := range r.clients {
		if cl.lastSeen.Before(cutoff) {
			delete(r.clients, key)
		}
	}
}

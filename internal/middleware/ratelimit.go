package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiter throttles the public auth endpoints per client IP. This sits
// in front of the per-email resend cooldown, which stays the authoritative
// check against the persisted last-sent timestamp.
type RateLimiter struct {
	r     rate.Limit
	burst int

	mu       sync.Mutex
	limiters map[string]*ipLimiter
}

type ipLimiter struct {
	limiter    *rate.Limiter
	lastAccess time.Time
}

func NewRateLimiter(perMinute float64, burst int) *RateLimiter {
	rl := &RateLimiter{
		r:        rate.Limit(perMinute / 60.0),
		burst:    burst,
		limiters: make(map[string]*ipLimiter),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code": "throttle_active", "error": "too many requests, try later",
			})
			return
		}
		c.Next()
	}
}

func (rl *RateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	l, ok := rl.limiters[ip]
	if !ok {
		l = &ipLimiter{limiter: rate.NewLimiter(rl.r, rl.burst)}
		rl.limiters[ip] = l
	}
	l.lastAccess = time.Now()
	rl.mu.Unlock()
	return l.limiter.Allow()
}

func (rl *RateLimiter) cleanupLoop() {
	for range time.Tick(5 * time.Minute) {
		cutoff := time.Now().Add(-15 * time.Minute)
		rl.mu.Lock()
		for ip, l := range rl.limiters {
			if l.lastAccess.Before(cutoff) {
				delete(rl.limiters, ip)
			}
		}
		rl.mu.Unlock()
	}
}

package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimiterConfig tunes the per-client request budget.
type RateLimiterConfig struct {
	RequestsPerSecond float64
	Burst             int
}

type clientLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	config   RateLimiterConfig
}

func newClientLimiters(config RateLimiterConfig) *clientLimiters {
	cl := &clientLimiters{
		limiters: make(map[string]*rate.Limiter),
		config:   config,
	}
	go cl.cleanup()
	return cl
}

func (cl *clientLimiters) limiter(ip string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	l, ok := cl.limiters[ip]
	if !ok {
		l = rate.NewLimiter(rate.Limit(cl.config.RequestsPerSecond), cl.config.Burst)
		cl.limiters[ip] = l
	}
	return l
}

// cleanup caps the limiter map so long uptimes do not leak memory.
func (cl *clientLimiters) cleanup() {
	ticker := time.NewTicker(10 * time.Minute)
	defer ticker.Stop()
	for range ticker.C {
		cl.mu.Lock()
		if len(cl.limiters) > 1000 {
			cl.limiters = make(map[string]*rate.Limiter)
		}
		cl.mu.Unlock()
	}
}

// RateLimiter rejects clients that exceed their per-IP request budget.
func RateLimiter(config RateLimiterConfig) gin.HandlerFunc {
	clients := newClientLimiters(config)
	return func(c *gin.Context) {
		if !clients.limiter(c.ClientIP()).Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error": "Rate limit exceeded. Please try again later.",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

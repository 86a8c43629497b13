package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

type callerLimiters struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func (cl *callerLimiters) get(key string) *rate.Limiter {
	cl.mu.Lock()
	defer cl.mu.Unlock()
	l, ok := cl.limiters[key]
	if !ok {
		l = rate.NewLimiter(cl.limit, cl.burst)
		cl.limiters[key] = l
	}
	return l
}

// RateLimiter throttles requests per caller. Authenticated requests are
// keyed by the user id header so shared NATs do not starve each other;
// anonymous requests fall back to the client IP.
func RateLimiter(limit rate.Limit, burst int) gin.HandlerFunc {
	cl := &callerLimiters{
		limiters: make(map[string]*rate.Limiter),
		limit:    limit,
		burst:    burst,
	}
	return func(c *gin.Context) {
		key := c.GetHeader(headerUserID)
		if key == "" {
			key = c.ClientIP()
		}
		if !cl.get(key).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}

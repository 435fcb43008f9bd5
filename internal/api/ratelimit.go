package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const maxTrackedClients = 4096

// RateLimitMiddleware allows each client IP rps requests per second with an
// equal burst. Long-lived stream connections count once, on connect.
func RateLimitMiddleware(rps int) gin.HandlerFunc {
	limiters, _ := lru.New[string, *rate.Limiter](maxTrackedClients)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		limiter, ok := limiters.Get(ip)
		if !ok {
			limiter = rate.NewLimiter(rate.Limit(rps), rps)
			if prev, found, _ := limiters.PeekOrAdd(ip, limiter); found {
				limiter = prev
			}
		}

		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": "rate limit exceeded",
			})
			return
		}
		c.Next()
	}
}

package middleware

import (
	"fmt"
	"net/http"

	"eventboard/internal/logger"
	"eventboard/internal/ratelimit"

	"github.com/gin-gonic/gin"
)

// RateLimit throttles per client IP. A limiter failure lets the request through.
func RateLimit(limiter ratelimit.Limiter, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		allowed, err := limiter.Allow(c.Request.Context(), c.ClientIP())
		if err != nil {
			log.Error("RATE_LIMIT", fmt.Sprintf("Limiter unavailable: %v", err))
			c.Next()
			return
		}
		if !allowed {
			log.LogSecurity("RATE_LIMITED", fmt.Sprintf("%s %s from %s", c.Request.Method, c.Request.URL.Path, c.ClientIP()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error_message": "Too many requests"})
			return
		}
		c.Next()
	}
}

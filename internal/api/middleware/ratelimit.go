package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/homeride/backend/internal/api/dto"
	"github.com/homeride/backend/pkg/cache"
	"github.com/homeride/backend/pkg/logger"
	"github.com/redis/go-redis/v9"
)

// RateLimit allows each caller limit requests per minute on the routes it
// wraps. Counters live in Redis; when Redis is unreachable requests pass.
func RateLimit(client *redis.Client, name string, limit int, log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || limit <= 0 {
			c.Next()
			return
		}

		who := CallerEmail(c)
		if who == "" {
			who = c.ClientIP()
		}

		count, err := cache.IncrWindow(c.Request.Context(), client, cache.Key("ratelimit", name, who), time.Minute)
		if err != nil {
			log.Warn("Rate limiter unavailable", logger.String("limit", name), logger.Err(err))
			c.Next()
			return
		}

		if count > int64(limit) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Code:    "RATE_LIMITED",
				Message: "Too many requests, please try again in a minute",
			})
			return
		}
		c.Next()
	}
}

package middleware

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/malamapl09/Picker-Scheduler/pkg/redis"
	"github.com/malamapl09/Picker-Scheduler/pkg/response"
)

// RateLimit a Redis sliding window per client IP and route. A nil client or
// a Redis error lets the request through, as JWTAuth does.
func RateLimit(rdb *redis.Client, limit int, window time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if rdb == nil || limit <= 0 {
			c.Next()
			return
		}

		key := fmt.Sprintf("rate_limit:%s:%s", c.ClientIP(), c.FullPath())
		allowed, err := rdb.CheckRateLimit(c.Request.Context(), key, limit, window)
		if err != nil {
			c.Next()
			return
		}

		if !allowed {
			response.TooManyRequests(c, 10005, "too many requests, retry later")
			c.Abort()
			return
		}

		c.Next()
	}
}

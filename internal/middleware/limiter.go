package middleware

import (
	"github.com/penflow/penflow-sync-service/pkg/app"
	"github.com/penflow/penflow-sync-service/pkg/code"
	"github.com/penflow/penflow-sync-service/pkg/limiter"

	"github.com/gin-gonic/gin"
)

// RateLimiter applies the matched token bucket before the handler runs.
func RateLimiter(l limiter.LimiterIface) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := l.Key(c)
		if bucket, ok := l.GetBucket(key); ok {
			count := bucket.TakeAvailable(1)
			if count == 0 {
				response := app.NewResponse(c)
				response.ToResponse(code.ErrorTooManyRequests)
				c.Abort()
				return
			}
		}

		c.Next()
	}
}

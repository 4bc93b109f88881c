package middleware

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"eatlens-backend-go/internal/cache"
)

// Limiter takes one token for key.
type Limiter interface {
	Take(ctx context.Context, key string) (cache.RateResult, error)
}

// RateLimit throttles callers per user, or per client IP when anonymous.
// If the limiter itself fails the request is let through.
func RateLimit(limiter Limiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if uid := c.GetString(ContextUserID); uid != "" {
			key = "user:" + uid
		}

		res, err := limiter.Take(c.Request.Context(), key)
		if err != nil {
			logger.Warn("Rate limiter unavailable; allowing request", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Remaining", strconv.FormatInt(res.Remaining, 10))
		if !res.Allowed {
			c.Header("Retry-After", res.RetryAfterSeconds())
			c.AbortWithStatusJSON(http.StatusTooManyRequests, ErrorResponse{Error: "Too many requests"})
			return
		}
		c.Next()
	}
}

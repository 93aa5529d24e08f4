package middleware

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/padel-arena/padel-arena-backend/pkg/ratelimit"
	"go.uber.org/zap"
)

// RateLimitConfig holds rate limit configuration
type RateLimitConfig struct {
	Limiter  ratelimit.Limiter
	KeyFunc  func(*gin.Context) string // Function to extract rate limit key
	Fallback ratelimit.Limiter         // Redis 오류 시 사용할 limiter (없으면 허용)
	Logger   *zap.Logger
}

// DefaultKeyFunc uses user ID if authenticated, otherwise IP address
func DefaultKeyFunc(c *gin.Context) string {
	if userID := UserID(c); userID != "" {
		return fmt.Sprintf("user:%s", userID)
	}
	return IPKeyFunc(c)
}

// IPKeyFunc uses only IP address (for public endpoints)
func IPKeyFunc(c *gin.Context) string {
	return fmt.Sprintf("ip:%s", c.ClientIP())
}

// UserKeyFunc uses only user ID (requires authentication)
func UserKeyFunc(c *gin.Context) string {
	if userID := UserID(c); userID != "" {
		return fmt.Sprintf("user:%s", userID)
	}
	return ""
}

// RateLimit key별 요청 제한. limiter 오류는 fallback으로, 그것도 없으면 통과 (fail-open).
func RateLimit(config RateLimitConfig) gin.HandlerFunc {
	if config.KeyFunc == nil {
		config.KeyFunc = DefaultKeyFunc
	}
	if config.Logger == nil {
		config.Logger = zap.NewNop()
	}

	return func(c *gin.Context) {
		key := config.KeyFunc(c)
		if key == "" {
			unauthenticated(c)
			return
		}

		decision, err := config.Limiter.Allow(c.Request.Context(), key)
		if err != nil && config.Fallback != nil {
			config.Logger.Warn("Rate limiter unavailable, using fallback", zap.String("key", key), zap.Error(err))
			decision, err = config.Fallback.Allow(c.Request.Context(), key)
		}
		if err != nil {
			config.Logger.Warn("Rate limit check failed, allowing request", zap.String("key", key), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(decision.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(decision.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(decision.ResetAt.Unix(), 10))

		if !decision.Allowed {
			retryAfter := int(decision.RetryAfter(time.Now()).Seconds())
			c.Header("Retry-After", strconv.Itoa(retryAfter))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"ok":         false,
				"error":      "RATE_LIMITED",
				"retryAfter": retryAfter,
			})
			return
		}

		c.Next()
	}
}

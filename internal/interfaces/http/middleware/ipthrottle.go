package middleware

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/quotagate/quotagate/internal/shared/utils"
)

// IPThrottle provides Redis-backed per-IP throttling using a fixed-window
// counter, in front of the entitlement limiter. Each IP gets a counter key
// with TTL equal to the window duration, so multiple instances sharing
// Redis enforce a single budget. It shields the counter store and the
// subscription provider from unauthenticated floods.
type IPThrottle struct {
	redisClient *redis.Client
	limit       int
	window      time.Duration
}

// defaultThrottleWindow applies when the configured window is not positive.
// The window seconds divide the clock into buckets, so zero is unusable.
const defaultThrottleWindow = time.Minute

// NewIPThrottle creates a new Redis-backed IP throttle. limit is the
// maximum number of requests allowed per window. Windows shorter than a
// second would truncate to a zero-length bucket and fall back to one minute.
func NewIPThrottle(redisClient *redis.Client, limit int, window time.Duration) *IPThrottle {
	if window < time.Second {
		window = defaultThrottleWindow
	}
	return &IPThrottle{
		redisClient: redisClient,
		limit:       limit,
		window:      window,
	}
}

// Limit returns a Gin middleware that enforces the throttle per client IP.
func (t *IPThrottle) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		windowBucket := time.Now().Unix() / int64(t.window.Seconds())
		key := fmt.Sprintf("throttle:ip:%s:%d", clientIP, windowBucket)

		ctx := context.Background()

		// INCR atomically counts this request and tells us if it opened the window
		count, err := t.redisClient.Incr(ctx, key).Result()
		if err != nil {
			// If Redis is unavailable, allow the request to avoid blocking all traffic
			c.Next()
			return
		}

		if count == 1 {
			t.redisClient.Expire(ctx, key, t.window+time.Second)
		}

		if count > int64(t.limit) {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "too many requests from this address, please try again later")
			c.Abort()
			return
		}

		c.Next()
	}
}

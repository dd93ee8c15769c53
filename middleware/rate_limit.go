package middleware

import (
	"math"
	"net/http"
	"strconv"

	"github.com/KOMKZ/yogan-market/errcode"
	"github.com/KOMKZ/yogan-market/limiter"
	"github.com/gin-gonic/gin"
)

// RateLimit answers 429 once the caller's bucket is empty.
// With KeyByUser it must run after JWT; requests without a user fall back to the client IP.
func RateLimit(l *limiter.Limiter) gin.HandlerFunc {
	keyBy := l.Config().KeyBy

	return func(c *gin.Context) {
		if !l.IsEnabled() {
			c.Next()
			return
		}

		key := "ip:" + c.ClientIP()
		if keyBy == limiter.KeyByUser {
			if userID, ok := GetUserID(c); ok {
				key = "user:" + userID
			}
		}

		resp := l.Allow(c.Request.Context(), key)
		c.Header("X-RateLimit-Limit", strconv.FormatInt(resp.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(resp.Remaining, 10))

		if !resp.Allowed {
			c.Header("Retry-After", strconv.Itoa(int(math.Ceil(resp.RetryAfter.Seconds()))))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, errcode.ErrTooManyRequests.Body())
			return
		}
		c.Next()
	}
}

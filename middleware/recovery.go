package middleware

import (
	"net/http"
	"runtime/debug"

	"github.com/KOMKZ/yogan-market/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Recovery catches handler panics, logs the stack and answers 500
// without exposing it.
func Recovery(log *logger.CtxZapLogger) gin.HandlerFunc {
	if log == nil {
		log = logger.GetLogger("http")
	}

	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.ErrorCtx(c.Request.Context(), "Panic recovered",
					zap.Any("error", err),
					zap.String("method", c.Request.Method),
					zap.String("path", c.Request.URL.Path),
					zap.String("client_ip", c.ClientIP()),
					zap.String("stack", string(debug.Stack())))

				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"error":   "InternalServerError",
					"message": "internal server error",
				})
			}
		}()

		c.Next()
	}
}

package middleware

import (
	"time"

	"github.com/KOMKZ/yogan-market/logger"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLogConfig HTTP request log configuration
type RequestLogConfig struct {
	// SkipPaths paths never logged (health probes)
	SkipPaths []string
	Logger    *logger.CtxZapLogger
}

// RequestLog structured access log; level follows the status code
// (5xx error, 4xx warn, otherwise info)
func RequestLog(cfg RequestLogConfig) gin.HandlerFunc {
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, path := range cfg.SkipPaths {
		skip[path] = true
	}
	log := cfg.Logger
	if log == nil {
		log = logger.GetLogger("http")
	}

	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		fields := []zap.Field{
			zap.Int("status", status),
			zap.Duration("latency", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("body_size", c.Writer.Size()),
		}
		if errs := c.Errors.ByType(gin.ErrorTypePrivate).String(); errs != "" {
			fields = append(fields, zap.String("error", errs))
		}

		ctx := c.Request.Context()
		switch {
		case status >= 500:
			log.ErrorCtx(ctx, "HTTP 请求", fields...)
		case status >= 400:
			log.WarnCtx(ctx, "HTTP 请求", fields...)
		default:
			log.InfoCtx(ctx, "HTTP 请求", fields...)
		}
	}
}

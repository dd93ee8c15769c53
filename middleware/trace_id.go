package middleware

import (
	"github.com/KOMKZ/yogan-market/logger"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

const (
	// TraceIDKeyDefault key of the trace id in gin.Context
	TraceIDKeyDefault = "trace_id"

	// TraceIDHeaderDefault HTTP header carrying the trace id
	TraceIDHeaderDefault = "X-Trace-ID"
)

// TraceConfig Trace middleware configuration
type TraceConfig struct {
	TraceIDHeader        string
	EnableResponseHeader bool
	Generator            func() string
}

// DefaultTraceConfig default configuration
func DefaultTraceConfig() TraceConfig {
	return TraceConfig{
		TraceIDHeader:        TraceIDHeaderDefault,
		EnableResponseHeader: true,
		Generator:            uuid.NewString,
	}
}

// TraceID extracts or generates a trace id and stores it in both the
// request context (picked up by logger.*Ctx) and gin.Context.
// An active OpenTelemetry span wins over the header.
func TraceID(cfg TraceConfig) gin.HandlerFunc {
	if cfg.TraceIDHeader == "" {
		cfg.TraceIDHeader = TraceIDHeaderDefault
	}
	if cfg.Generator == nil {
		cfg.Generator = uuid.NewString
	}

	return func(c *gin.Context) {
		var traceID string
		if span := trace.SpanFromContext(c.Request.Context()); span.SpanContext().IsValid() {
			traceID = span.SpanContext().TraceID().String()
		} else {
			traceID = c.GetHeader(cfg.TraceIDHeader)
			if traceID == "" {
				traceID = cfg.Generator()
			}
			c.Request = c.Request.WithContext(logger.WithTraceID(c.Request.Context(), traceID))
		}

		c.Set(TraceIDKeyDefault, traceID)

		if cfg.EnableResponseHeader {
			c.Writer.Header().Set(cfg.TraceIDHeader, traceID)
		}

		c.Next()
	}
}

// GetTraceID retrieves the trace id from gin.Context
func GetTraceID(c *gin.Context) string {
	return c.GetString(TraceIDKeyDefault)
}

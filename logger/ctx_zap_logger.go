package logger

import (
	"context"

	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

type traceIDKey struct{}

// CtxZapLogger Context-Aware 的 Zap Logger 包装器
// module is bound at creation, callers only pass ctx.
type CtxZapLogger struct {
	base   *zap.Logger
	module string
	config *ManagerConfig
}

// FromZap wraps an existing zap logger (tests, third-party integration).
// Trace IDs are extracted with the default field name.
func FromZap(base *zap.Logger, module string) *CtxZapLogger {
	cfg := DefaultManagerConfig()
	return &CtxZapLogger{
		base:   base.With(zap.String("module", module)),
		module: module,
		config: &cfg,
	}
}

// InfoCtx 记录 Info 级别日志（自动提取 TraceID）
func (l *CtxZapLogger) InfoCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Info(msg, l.enrichFields(ctx, fields)...)
}

// ErrorCtx 记录 Error 级别日志
func (l *CtxZapLogger) ErrorCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Error(msg, l.enrichFields(ctx, fields)...)
}

// DebugCtx 记录 Debug 级别日志
func (l *CtxZapLogger) DebugCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Debug(msg, l.enrichFields(ctx, fields)...)
}

// WarnCtx 记录 Warn 级别日志
func (l *CtxZapLogger) WarnCtx(ctx context.Context, msg string, fields ...zap.Field) {
	l.base.Warn(msg, l.enrichFields(ctx, fields)...)
}

// With returns a logger carrying preset fields
func (l *CtxZapLogger) With(fields ...zap.Field) *CtxZapLogger {
	return &CtxZapLogger{
		base:   l.base.With(fields...),
		module: l.module,
		config: l.config,
	}
}

// Module returns the bound module name
func (l *CtxZapLogger) Module() string {
	return l.module
}

// GetZapLogger exposes the underlying *zap.Logger (third-party integration)
func (l *CtxZapLogger) GetZapLogger() *zap.Logger {
	return l.base
}

// enrichFields adds app_name and trace id
func (l *CtxZapLogger) enrichFields(ctx context.Context, fields []zap.Field) []zap.Field {
	enriched := make([]zap.Field, 0, len(fields)+2)

	if l.config != nil {
		enriched = append(enriched, zap.String("app_name", l.config.AppName))

		if l.config.EnableTraceID {
			if traceID := TraceIDFromContext(ctx); traceID != "" {
				fieldName := l.config.TraceIDFieldName
				if fieldName == "" {
					fieldName = "trace_id"
				}
				enriched = append(enriched, zap.String(fieldName, traceID))
			}
		}
	}

	return append(enriched, fields...)
}

// WithTraceID stores a trace id in ctx
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey{}, traceID)
}

// TraceIDFromContext 🎯 优先级：OpenTelemetry Span > context value
func TraceIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}

	if span := trace.SpanFromContext(ctx); span.SpanContext().IsValid() {
		return span.SpanContext().TraceID().String()
	}

	if traceID, ok := ctx.Value(traceIDKey{}).(string); ok {
		return traceID
	}

	return ""
}

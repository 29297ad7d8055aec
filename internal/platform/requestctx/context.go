package requestctx

import (
	"context"

	"go.uber.org/zap"
)

type contextKey string

const (
	loggerKey  contextKey = "github.com/Team-synvo/jb-ai/requestctx/logger"
	traceKey   contextKey = "github.com/Team-synvo/jb-ai/requestctx/trace"
	visitorKey contextKey = "github.com/Team-synvo/jb-ai/requestctx/visitor"
)

var noopLogger = zap.NewNop()

// TraceInfo is the subset of span metadata surfaced to logs and error payloads.
type TraceInfo struct {
	TraceID string
	SpanID  string
	Sampled bool
}

// Visitor identifies the browser that issued the request.
type Visitor struct {
	ID string
	// Returning is set when the request carried a valid visitor cookie.
	Returning bool
	// Counted is set once the visitor has been added to the visit total.
	Counted bool
}

// WithLogger stores the logger in context for downstream consumers.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	if logger == nil {
		logger = noopLogger
	}
	return context.WithValue(ctx, loggerKey, logger)
}

// Logger returns the request logger or a no-op logger.
func Logger(ctx context.Context) *zap.Logger {
	if ctx == nil {
		return noopLogger
	}
	if logger, ok := ctx.Value(loggerKey).(*zap.Logger); ok && logger != nil {
		return logger
	}
	return noopLogger
}

// NoopLogger exposes the shared no-op logger.
func NoopLogger() *zap.Logger { return noopLogger }

// WithTrace stores trace metadata on the context.
func WithTrace(ctx context.Context, info TraceInfo) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, traceKey, info)
}

// Trace retrieves trace metadata when present.
func Trace(ctx context.Context) (TraceInfo, bool) {
	if ctx == nil {
		return TraceInfo{}, false
	}
	info, ok := ctx.Value(traceKey).(TraceInfo)
	return info, ok
}

// TraceID extracts the trace identifier from context, or "".
func TraceID(ctx context.Context) string {
	info, _ := Trace(ctx)
	return info.TraceID
}

// WithVisitor attaches the resolved visitor to the context.
func WithVisitor(ctx context.Context, v Visitor) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, visitorKey, v)
}

// VisitorFrom returns the visitor resolved by the cookie middleware.
func VisitorFrom(ctx context.Context) (Visitor, bool) {
	if ctx == nil {
		return Visitor{}, false
	}
	v, ok := ctx.Value(visitorKey).(Visitor)
	return v, ok
}

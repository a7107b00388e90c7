package logger

import "context"

type contextKey int

const (
	loggerKey contextKey = iota
	requestIDKey
	traceIDKey
	sessionKey
)

// sessionScope identifies the account and device a log line belongs to.
type sessionScope struct {
	username string
	deviceID string
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts the logger from context, or the default logger.
func FromContext(ctx context.Context) Logger {
	if l, ok := ctx.Value(loggerKey).(Logger); ok {
		return l
	}
	return Default()
}

// WithSession scopes every line logged through L(ctx) to one account on one
// device. A later call replaces the earlier scope.
func WithSession(ctx context.Context, username, deviceID string) context.Context {
	return context.WithValue(ctx, sessionKey, sessionScope{username: username, deviceID: deviceID})
}

// SessionFromContext returns the scope set by WithSession.
func SessionFromContext(ctx context.Context) (username, deviceID string) {
	s, _ := ctx.Value(sessionKey).(sessionScope)
	return s.username, s.deviceID
}

// WithRequestID adds the id of one platform request to the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext extracts the request ID from context.
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// WithTraceID adds the id of one establish or login flow to the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	return context.WithValue(ctx, traceIDKey, traceID)
}

// TraceIDFromContext extracts the trace ID from context.
func TraceIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(traceIDKey).(string)
	return id
}

// L returns the context logger bound to ctx, with the session scope and the
// flow and request ids attached. Empty values are left out.
func L(ctx context.Context) Logger {
	var args []any
	if username, deviceID := SessionFromContext(ctx); username != "" || deviceID != "" {
		args = append(args, sessionArgs(username, deviceID)...)
	}
	if id := TraceIDFromContext(ctx); id != "" {
		args = append(args, "trace_id", id)
	}
	if id := RequestIDFromContext(ctx); id != "" {
		args = append(args, "request_id", id)
	}

	l := FromContext(ctx)
	if len(args) > 0 {
		l = l.With(args...)
	}
	return l.WithContext(ctx)
}

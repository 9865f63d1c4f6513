// Package logging carries request-scoped logging context between the HTTP
// layer and the employee service.
package logging

import (
	"context"

	"go.uber.org/zap"
)

// RequestIDField is the log field name of the request ID.
const RequestIDField = "request_id"

type requestIDKey struct{}

// WithRequestID returns a copy of ctx carrying the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// RequestID returns the request ID carried by ctx, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

// FromContext returns logger annotated with the request ID carried by ctx.
// Without a request ID the logger is returned unchanged.
func FromContext(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if id := RequestID(ctx); id != "" {
		return logger.With(zap.String(RequestIDField, id))
	}
	return logger
}

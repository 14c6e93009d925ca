package courseapp

import (
	"context"

	internalaudit "github.com/albi2/CourseAppApi/internal/audit"
)

// WithClientIP attaches the caller's IP address to ctx. The Engine records it
// on audit events.
func WithClientIP(ctx context.Context, ip string) context.Context {
	return internalaudit.WithClientIP(ctx, ip)
}

// WithRequestID attaches a request correlation id to ctx. The Engine records it
// on audit events and log entries.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return internalaudit.WithRequestID(ctx, requestID)
}

// RequestIDFromContext returns the id set by WithRequestID, or "".
func RequestIDFromContext(ctx context.Context) string {
	return internalaudit.RequestID(ctx)
}

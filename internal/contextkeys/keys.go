// Package contextkeys provides shared context key definitions used across medqa packages.
// It lets the log handler read values set by the QA service without importing it.
package contextkeys

import "context"

// Key is the type for all medqa context keys.
type Key string

const (
	// RequestID stores the identifier of the question being answered.
	RequestID Key = "medqa.request_id"
)

// WithRequestID returns a new context with the request ID set.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, RequestID, requestID)
}

// GetRequestID retrieves the request ID from context.
// Returns empty string if not set.
func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestID).(string); ok {
		return v
	}
	return ""
}

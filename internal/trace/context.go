package trace

import (
	"context"
	"crypto/rand"
	"encoding/hex"
)

type contextKey string

const requestIDKey contextKey = "request_id"

// GenerateRequestID generates a unique request ID in format "req-XXXXXX"
func GenerateRequestID() string {
	b := make([]byte, 3)
	if _, err := rand.Read(b); err != nil {
		return "req-000000"
	}
	return "req-" + hex.EncodeToString(b)
}

// WithRequestID adds request ID to context
func WithRequestID(ctx context.Context, reqID string) context.Context {
	return context.WithValue(ctx, requestIDKey, reqID)
}

// GetRequestID retrieves request ID from context
func GetRequestID(ctx context.Context) string {
	if v := ctx.Value(requestIDKey); v != nil {
		return v.(string)
	}
	return ""
}

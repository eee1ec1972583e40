package common

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Context keys for storing values in context
type contextKey string

const (
	ContextKeyRequestID contextKey = "request_id"
	ContextKeyFilename  contextKey = "filename"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ContextKeyRequestID, requestID)
}

// NewRequestContext tags ctx with a fresh request ID and returns it.
func NewRequestContext(ctx context.Context) (context.Context, string) {
	id := uuid.NewString()
	return WithRequestID(ctx, id), id
}

// RequestIDFromContext extracts the request ID from context
func RequestIDFromContext(ctx context.Context) string {
	if requestID, ok := ctx.Value(ContextKeyRequestID).(string); ok {
		return requestID
	}
	return ""
}

// WithFilename adds the request filename being handled to the context
func WithFilename(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, ContextKeyFilename, name)
}

// FilenameFromContext extracts the request filename from context
func FilenameFromContext(ctx context.Context) string {
	if name, ok := ctx.Value(ContextKeyFilename).(string); ok {
		return name
	}
	return ""
}

// ContextLogger returns base tagged with the request ID and filename carried by ctx, if any.
func ContextLogger(ctx context.Context, base *slog.Logger) *slog.Logger {
	var attrs []any
	if id := RequestIDFromContext(ctx); id != "" {
		attrs = append(attrs, "request_id", id)
	}
	if name := FilenameFromContext(ctx); name != "" {
		attrs = append(attrs, "file", name)
	}
	if len(attrs) == 0 {
		return base
	}
	return base.With(attrs...)
}

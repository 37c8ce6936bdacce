/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"

	"github.com/acronis/go-crptapi/log"
)

type ctxKey int

const (
	ctxKeyRequestType ctxKey = iota
	ctxKeyRequestID
	ctxKeyLogger
)

func getStringFromContext(ctx context.Context, key ctxKey) string {
	if s, ok := ctx.Value(key).(string); ok {
		return s
	}
	return ""
}

// NewContextWithRequestType creates a new context with request type.
func NewContextWithRequestType(ctx context.Context, requestType string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestType, requestType)
}

// GetRequestTypeFromContext extracts request type from the context.
func GetRequestTypeFromContext(ctx context.Context) string {
	return getStringFromContext(ctx, ctxKeyRequestType)
}

// NewContextWithRequestID creates a new context with request id.
// RequestIDRoundTripper sends it in the X-Request-ID header.
func NewContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// GetRequestIDFromContext extracts request id from the context.
func GetRequestIDFromContext(ctx context.Context) string {
	return getStringFromContext(ctx, ctxKeyRequestID)
}

// NewContextWithLogger creates a new context with logger.
func NewContextWithLogger(ctx context.Context, logger log.FieldLogger) context.Context {
	return context.WithValue(ctx, ctxKeyLogger, logger)
}

// GetLoggerFromContext extracts logger from the context. Nil is returned if there is no logger.
func GetLoggerFromContext(ctx context.Context) log.FieldLogger {
	value, _ := ctx.Value(ctxKeyLogger).(log.FieldLogger)
	return value
}

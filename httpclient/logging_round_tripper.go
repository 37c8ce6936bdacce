/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"net/http"
	"time"

	"github.com/acronis/go-crptapi/log"
)

// LoggingMode represents a mode of logging.
type LoggingMode string

// Logging modes.
const (
	LoggingModeNone   LoggingMode = "none"
	LoggingModeAll    LoggingMode = "all"
	LoggingModeFailed LoggingMode = "failed"
)

// IsValid checks if the logger mode is valid.
func (lm LoggingMode) IsValid() bool {
	switch lm {
	case LoggingModeNone, LoggingModeAll, LoggingModeFailed:
		return true
	}
	return false
}

// LoggingRoundTripper implements http.RoundTripper for logging requests.
type LoggingRoundTripper struct {
	// Delegate is the next RoundTripper in the chain.
	Delegate http.RoundTripper

	// ReqType is a type of request, e.g. an action "create-document".
	ReqType string

	// Opts are the options for the logging round tripper.
	Opts LoggingRoundTripperOpts
}

// LoggingRoundTripperOpts represents an options for LoggingRoundTripper.
type LoggingRoundTripperOpts struct {
	// LoggerProvider is a function that provides a context-specific logger.
	// GetLoggerFromContext is used by default.
	LoggerProvider func(ctx context.Context) log.FieldLogger

	// Mode of logging: none, all, failed. LoggingModeAll is used if empty.
	Mode LoggingMode

	// SlowRequestThreshold is a threshold for slow requests.
	// In LoggingModeFailed requests that take longer are logged even if they succeeded.
	SlowRequestThreshold time.Duration
}

// NewLoggingRoundTripper creates an HTTP transport that log requests.
func NewLoggingRoundTripper(delegate http.RoundTripper, reqType string) http.RoundTripper {
	return NewLoggingRoundTripperWithOpts(delegate, reqType, LoggingRoundTripperOpts{})
}

// NewLoggingRoundTripperWithOpts creates an HTTP transport that log requests with options.
func NewLoggingRoundTripperWithOpts(
	delegate http.RoundTripper, reqType string, opts LoggingRoundTripperOpts,
) http.RoundTripper {
	if reqType == "" {
		reqType = DefaultRequestType
	}
	if opts.Mode == "" {
		opts.Mode = LoggingModeAll
	}
	return &LoggingRoundTripper{
		Delegate: delegate,
		ReqType:  reqType,
		Opts:     opts,
	}
}

func (rt *LoggingRoundTripper) getLogger(ctx context.Context) log.FieldLogger {
	if rt.Opts.LoggerProvider != nil {
		return rt.Opts.LoggerProvider(ctx)
	}
	return GetLoggerFromContext(ctx)
}

// RoundTrip adds logging capabilities to the HTTP transport.
func (rt *LoggingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if rt.Opts.Mode == LoggingModeNone {
		return rt.Delegate.RoundTrip(r)
	}

	logger := rt.getLogger(r.Context())
	if logger == nil {
		return rt.Delegate.RoundTrip(r)
	}

	start := time.Now()
	resp, err := rt.Delegate.RoundTrip(r)
	elapsed := time.Since(start)

	failed := err != nil || (resp != nil && resp.StatusCode >= http.StatusBadRequest)
	slow := rt.Opts.SlowRequestThreshold > 0 && elapsed >= rt.Opts.SlowRequestThreshold
	if rt.Opts.Mode == LoggingModeFailed && !failed && !slow {
		return resp, err
	}

	fields := []log.Field{
		log.String("method", r.Method),
		log.String("url", r.URL.String()),
		log.String("request_type", rt.ReqType),
		log.Int64("duration_ms", elapsed.Milliseconds()),
	}
	if requestID := r.Header.Get(RequestIDHeader); requestID != "" {
		fields = append(fields, log.String("request_id", requestID))
	}
	if resp != nil {
		fields = append(fields, log.Int("status", resp.StatusCode))
	}
	if slow {
		fields = append(fields, log.Bool("slow", true))
	}

	switch {
	case err != nil:
		logger.Error("client http request failed", append(fields, log.Error(err))...)
	case failed:
		logger.Warn("client http request done with error status", fields...)
	default:
		logger.Info("client http request done", fields...)
	}
	return resp, err
}

/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package httpclient provides an http.Client for outbound calls built from a chain of round trippers:
// request id, user agent, client-side rate limiting, per-request timeout, metrics and logging.
package httpclient

import (
	"context"
	"fmt"
	"net/http"

	"github.com/acronis/go-crptapi/log"
	"github.com/acronis/go-crptapi/ratelimit"
)

// DefaultRequestType is used in logs and metrics when no request type is specified.
const DefaultRequestType = "outbound"

// CloneHTTPRequest creates a shallow copy of the request along with a deep copy of the Headers.
func CloneHTTPRequest(req *http.Request) *http.Request {
	r := new(http.Request)
	*r = *req
	r.Header = CloneHTTPHeader(req.Header)
	return r
}

// CloneHTTPHeader creates a deep copy of an http.Header.
func CloneHTTPHeader(in http.Header) http.Header {
	out := make(http.Header, len(in))
	for key, values := range in {
		newValues := make([]string, len(values))
		copy(newValues, values)
		out[key] = newValues
	}
	return out
}

// Opts provides options for NewWithOpts and MustWithOpts functions.
type Opts struct {
	// UserAgent is a user agent string. User-Agent header is not touched if empty.
	UserAgent string

	// RequestType is a type of request, e.g. an action "create-document", used in logs and metrics.
	RequestType string

	// Delegate is the next RoundTripper in the chain. A clone of http.DefaultTransport is used if nil.
	Delegate http.RoundTripper

	// RateLimiter admits outgoing requests. Requests are not rate limited if nil.
	RateLimiter ratelimit.Acquirer

	// LoggerProvider is a function that provides a context-specific logger.
	LoggerProvider func(ctx context.Context) log.FieldLogger

	// RequestIDProvider is a function that provides a request ID.
	RequestIDProvider func(ctx context.Context) string

	// MetricsCollector is a metrics collector. Required if metrics are enabled in the Config.
	MetricsCollector MetricsCollector
}

// New creates a new http.Client configured by cfg without rate limiting.
func New(cfg *Config) (*http.Client, error) {
	return NewWithOpts(cfg, Opts{})
}

// Must creates a new http.Client configured by cfg and panics if any error occurs.
func Must(cfg *Config) *http.Client {
	return MustWithOpts(cfg, Opts{})
}

// NewWithOpts creates a new http.Client which transport is wrapped (from outer to inner) with
// request id, user agent, rate limiting, timeout, metrics and logging round trippers.
// cfg.Timeout starts counting once the rate limiter has admitted the request.
// The wait for a permit is bounded by cfg.WaitTimeout and the request context only.
// Round trippers are added only when they are enabled by cfg or opts.
func NewWithOpts(cfg *Config, opts Opts) (*http.Client, error) {
	delegate := opts.Delegate
	if delegate == nil {
		delegate = http.DefaultTransport.(*http.Transport).Clone()
	}

	if cfg.Logger.Enabled {
		logOpts := cfg.Logger.TransportOpts()
		logOpts.LoggerProvider = opts.LoggerProvider
		delegate = NewLoggingRoundTripperWithOpts(delegate, opts.RequestType, logOpts)
	}

	if cfg.Metrics.Enabled {
		if opts.MetricsCollector == nil {
			return nil, fmt.Errorf("metrics are enabled but metrics collector is not specified")
		}
		delegate = NewMetricsRoundTripperWithOpts(delegate, MetricsRoundTripperOpts{
			RequestType: opts.RequestType,
			Collector:   opts.MetricsCollector,
		})
	}

	delegate = NewTimeoutRoundTripper(delegate, cfg.Timeout)

	if opts.RateLimiter != nil {
		var err error
		if delegate, err = NewRateLimitingRoundTripperWithOpts(
			delegate, opts.RateLimiter, RateLimitingRoundTripperOpts{WaitTimeout: cfg.WaitTimeout},
		); err != nil {
			return nil, fmt.Errorf("create rate limiting round tripper: %w", err)
		}
	}

	if opts.UserAgent != "" {
		delegate = NewUserAgentRoundTripper(delegate, opts.UserAgent)
	}

	delegate = NewRequestIDRoundTripperWithOpts(delegate, RequestIDRoundTripperOpts{
		RequestIDProvider: opts.RequestIDProvider,
	})

	return &http.Client{Transport: delegate}, nil
}

// MustWithOpts calls NewWithOpts and panics if any error occurs.
func MustWithOpts(cfg *Config, opts Opts) *http.Client {
	client, err := NewWithOpts(cfg, opts)
	if err != nil {
		panic(err)
	}
	return client
}

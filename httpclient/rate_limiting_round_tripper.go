/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/acronis/go-crptapi/ratelimit"
)

// RateLimitingRoundTripperOpts represents an options for RateLimitingRoundTripper.
type RateLimitingRoundTripperOpts struct {
	// WaitTimeout bounds the wait for a permit. Zero means the wait is bounded only by the request context.
	WaitTimeout time.Duration
}

// RateLimitingRoundTripper wraps implementing http.RoundTripper interface object
// and makes every outgoing request acquire a permit from the rate limiter first.
type RateLimitingRoundTripper struct {
	Delegate    http.RoundTripper
	Limiter     ratelimit.Acquirer
	WaitTimeout time.Duration
}

// NewRateLimitingRoundTripper creates a new RateLimitingRoundTripper that waits for a permit as long as the request lives.
func NewRateLimitingRoundTripper(delegate http.RoundTripper, limiter ratelimit.Acquirer) (*RateLimitingRoundTripper, error) {
	return NewRateLimitingRoundTripperWithOpts(delegate, limiter, RateLimitingRoundTripperOpts{})
}

// NewRateLimitingRoundTripperWithOpts creates a new RateLimitingRoundTripper with specified options.
func NewRateLimitingRoundTripperWithOpts(
	delegate http.RoundTripper, limiter ratelimit.Acquirer, opts RateLimitingRoundTripperOpts,
) (*RateLimitingRoundTripper, error) {
	if limiter == nil {
		return nil, fmt.Errorf("rate limiter must be specified")
	}
	if opts.WaitTimeout < 0 {
		return nil, fmt.Errorf("wait timeout cannot be negative")
	}
	return &RateLimitingRoundTripper{
		Delegate:    delegate,
		Limiter:     limiter,
		WaitTimeout: opts.WaitTimeout,
	}, nil
}

// RoundTrip executes a single HTTP transaction, returning a Response for the provided Request.
func (rt *RateLimitingRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	ctx := r.Context()
	if rt.WaitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, rt.WaitTimeout)
		defer cancel()
	}

	if err := rt.Limiter.Acquire(ctx); err != nil {
		if r.Body != nil {
			_ = r.Body.Close() // Per RoundTripper contract.
		}
		return nil, &RateLimitingWaitError{Inner: err}
	}

	return rt.Delegate.RoundTrip(r)
}

// RateLimitingWaitError is returned in RoundTrip method of RateLimitingRoundTripper
// when a permit cannot be acquired (wait timeout, canceled request or the limiter is shut down).
type RateLimitingWaitError struct {
	Inner error
}

func (e *RateLimitingWaitError) Error() string {
	return fmt.Sprintf("wait due to client side rate limiting: %s", e.Inner.Error())
}

// Unwrap returns the next error in the error chain.
func (e *RateLimitingWaitError) Unwrap() error {
	return e.Inner
}

// IsShutdown reports whether the wait failed because the rate limiter was shut down.
func (e *RateLimitingWaitError) IsShutdown() bool {
	return errors.Is(e.Inner, ratelimit.ErrShutdown)
}

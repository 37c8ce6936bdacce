/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// TimeoutRoundTripper bounds a single HTTP exchange, from sending the request until the response body is closed.
// In the client chain it sits inside RateLimitingRoundTripper, so the time spent waiting for a permit is not counted.
type TimeoutRoundTripper struct {
	Delegate http.RoundTripper
	Timeout  time.Duration
}

// NewTimeoutRoundTripper creates a new TimeoutRoundTripper. Zero timeout disables the bound.
func NewTimeoutRoundTripper(delegate http.RoundTripper, timeout time.Duration) *TimeoutRoundTripper {
	return &TimeoutRoundTripper{Delegate: delegate, Timeout: timeout}
}

// RoundTrip executes a single HTTP transaction, returning a Response for the provided Request.
func (rt *TimeoutRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if rt.Timeout <= 0 {
		return rt.Delegate.RoundTrip(r)
	}
	parentCtx := r.Context()
	ctx, cancel := context.WithTimeout(parentCtx, rt.Timeout)
	resp, err := rt.Delegate.RoundTrip(r.WithContext(ctx))
	if err != nil {
		cancel()
		if errors.Is(err, context.DeadlineExceeded) && parentCtx.Err() == nil {
			return nil, fmt.Errorf("request timeout %s exceeded: %w", rt.Timeout, err)
		}
		return nil, err
	}
	resp.Body = &cancelOnCloseBody{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

// cancelOnCloseBody keeps the request context alive while the caller reads the body.
type cancelOnCloseBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnCloseBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

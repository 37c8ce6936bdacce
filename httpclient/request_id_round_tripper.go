/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import (
	"context"
	"net/http"

	"github.com/rs/xid"
)

// RequestIDHeader is the name of the HTTP header that carries the request id.
const RequestIDHeader = "X-Request-ID"

// RequestIDRoundTripper sets X-Request-ID header in outgoing requests.
type RequestIDRoundTripper struct {
	Delegate http.RoundTripper
	Opts     RequestIDRoundTripperOpts
}

// RequestIDRoundTripperOpts represents an options for RequestIDRoundTripper.
type RequestIDRoundTripperOpts struct {
	// RequestIDProvider is a function that provides a request ID.
	// GetRequestIDFromContext is used by default.
	// A new unique id is generated if the provider returns an empty string.
	RequestIDProvider func(ctx context.Context) string
}

// NewRequestIDRoundTripper creates an HTTP transport with X-Request-ID header support.
func NewRequestIDRoundTripper(delegate http.RoundTripper) http.RoundTripper {
	return NewRequestIDRoundTripperWithOpts(delegate, RequestIDRoundTripperOpts{})
}

// NewRequestIDRoundTripperWithOpts creates an HTTP transport with X-Request-ID header support with options.
func NewRequestIDRoundTripperWithOpts(delegate http.RoundTripper, opts RequestIDRoundTripperOpts) http.RoundTripper {
	return &RequestIDRoundTripper{Delegate: delegate, Opts: opts}
}

func (rt *RequestIDRoundTripper) getRequestID(r *http.Request) string {
	var requestID string
	if rt.Opts.RequestIDProvider != nil {
		requestID = rt.Opts.RequestIDProvider(r.Context())
	} else {
		requestID = GetRequestIDFromContext(r.Context())
	}
	if requestID == "" {
		requestID = xid.New().String()
	}
	return requestID
}

// RoundTrip adds X-Request-ID header to the request if it is not set yet.
func (rt *RequestIDRoundTripper) RoundTrip(r *http.Request) (*http.Response, error) {
	if r.Header.Get(RequestIDHeader) != "" {
		return rt.Delegate.RoundTrip(r)
	}
	r = CloneHTTPRequest(r) // Per RoundTripper contract.
	r.Header.Set(RequestIDHeader, rt.getRequestID(r))
	return rt.Delegate.RoundTrip(r)
}

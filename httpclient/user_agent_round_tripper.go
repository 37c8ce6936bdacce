/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package httpclient

import "net/http"

// UserAgentUpdateStrategy represents a strategy for updating User-Agent HTTP header.
type UserAgentUpdateStrategy int

// User-Agent update strategies.
const (
	UserAgentUpdateStrategySetIfEmpty UserAgentUpdateStrategy = iota
	UserAgentUpdateStrategyAppend
	UserAgentUpdateStrategyPrepend
)

// UserAgentRoundTripper implements http.RoundTripper interface
// and sets User-Agent HTTP header in all outgoing requests.
type UserAgentRoundTripper struct {
	Delegate       http.RoundTripper
	UserAgent      string
	UpdateStrategy UserAgentUpdateStrategy
}

// UserAgentRoundTripperOpts represents an options for UserAgentRoundTripper.
type UserAgentRoundTripperOpts struct {
	UpdateStrategy UserAgentUpdateStrategy
}

// NewUserAgentRoundTripper creates a new UserAgentRoundTripper that sets User-Agent only when the request has none.
func NewUserAgentRoundTripper(delegate http.RoundTripper, userAgent string) *UserAgentRoundTripper {
	return NewUserAgentRoundTripperWithOpts(delegate, userAgent, UserAgentRoundTripperOpts{})
}

// NewUserAgentRoundTripperWithOpts creates a new UserAgentRoundTripper with specified options.
func NewUserAgentRoundTripperWithOpts(
	delegate http.RoundTripper, userAgent string, opts UserAgentRoundTripperOpts,
) *UserAgentRoundTripper {
	return &UserAgentRoundTripper{Delegate: delegate, UserAgent: userAgent, UpdateStrategy: opts.UpdateStrategy}
}

// RoundTrip executes a single HTTP transaction, returning a Response for the provided Request.
func (rt *UserAgentRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	current := req.Header.Get("User-Agent")
	userAgent := rt.buildUserAgent(current)
	if userAgent == current {
		return rt.Delegate.RoundTrip(req)
	}
	req = CloneHTTPRequest(req) // Per RoundTripper contract.
	req.Header.Set("User-Agent", userAgent)
	return rt.Delegate.RoundTrip(req)
}

func (rt *UserAgentRoundTripper) buildUserAgent(current string) string {
	if current == "" {
		return rt.UserAgent
	}
	switch rt.UpdateStrategy {
	case UserAgentUpdateStrategyAppend:
		return current + " " + rt.UserAgent
	case UserAgentUpdateStrategyPrepend:
		return rt.UserAgent + " " + current
	default:
		return current
	}
}

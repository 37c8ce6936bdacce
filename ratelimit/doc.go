/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package ratelimit provides a client-side blocking rate limiter for outbound calls.
//
// WindowLimiter admits at most Capacity operations per fixed Window. When the budget of the current
// window is exhausted, callers of Acquire wait in a FIFO queue instead of failing. On every window tick
// the budget is reset to full capacity (unused permits are not banked) and the queued callers are
// served in arrival order.
//
// A limiter has an explicit lifecycle: it starts ticking on construction and stops on Shutdown,
// which releases every waiting caller with ErrShutdown and makes further Acquire calls fail fast.
package ratelimit

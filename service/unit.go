/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package service provides building blocks for background work with an explicit lifecycle:
// workers, a fixed-rate periodic worker and a unit that starts a worker and stops it within a grace period.
package service

// Unit represents a component that can be started and stopped.
type Unit interface {
	// Start begins the unit's operation and may block the calling goroutine for the unit's lifetime.
	// Stop may be called regardless of whether Start succeeded, failed, is still running or was never called.
	// If Start fails, the error is written to fatalErr. The channel must not be used after Start returns.
	Start(fatalErr chan<- error)

	// Stop halts the unit. If gracefully is true, the unit waits for its work to finish.
	Stop(gracefully bool) error
}

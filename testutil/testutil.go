/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package testutil contains assertion helpers shared by the module's tests:
// Prometheus metric samples and error chains.
package testutil

type tHelper interface {
	Helper()
}

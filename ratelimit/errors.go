/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is matched (via errors.Is) by every construction error.
var ErrInvalidConfig = errors.New("invalid rate limiter configuration")

// ErrShutdown is returned by Acquire when the limiter is shut down while the caller waits or before the call.
var ErrShutdown = errors.New("rate limiter is shut down")

// ErrShutdownTimeout is returned by Shutdown when the window ticker did not stop within the grace period.
var ErrShutdownTimeout = errors.New("rate limiter shutdown timeout exceeded")

// ConfigError describes an invalid construction parameter.
type ConfigError struct {
	Param  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%s: %s %s", ErrInvalidConfig.Error(), e.Param, e.Reason)
}

// Unwrap returns ErrInvalidConfig.
func (e *ConfigError) Unwrap() error {
	return ErrInvalidConfig
}

/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stretchr/testify/require"
)

// RequireNoErrorInChannel fails the test if a non-nil error is already buffered in c.
// It never blocks, so it suits fatal error channels of units that are expected to stay healthy.
func RequireNoErrorInChannel(t require.TestingT, c <-chan error, msgAndArgs ...interface{}) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	select {
	case err := <-c:
		require.NoError(t, err, msgAndArgs...)
	default:
	}
}

// RequireErrorFromChannel waits at most timeout for a value from c and returns it (nil included).
// The test fails if nothing is received in time.
func RequireErrorFromChannel(t require.TestingT, c <-chan error, timeout time.Duration, msgAndArgs ...interface{}) error {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case err := <-c:
		return err
	case <-timer.C:
		require.FailNow(t, fmt.Sprintf("Nothing was received from the channel within %s", timeout), msgAndArgs...)
		return nil
	}
}

// RequireErrorIsAny fails the test unless errors.Is(err, target) holds for at least one of targets.
func RequireErrorIsAny(t require.TestingT, err error, targets []error, msgAndArgs ...interface{}) {
	if h, ok := t.(tHelper); ok {
		h.Helper()
	}
	for _, target := range targets {
		if errors.Is(err, target) {
			return
		}
	}
	quoted := make([]string, len(targets))
	for i, target := range targets {
		quoted[i] = fmt.Sprintf("%q", target.Error())
	}
	require.FailNow(t, fmt.Sprintf("None of the target errors is in the chain:\n"+
		"targets: [%s]\n"+
		"chain:   %s", strings.Join(quoted, ", "), strings.Join(errorChain(err), " -> "),
	), msgAndArgs...)
}

// errorChain returns messages of err and of every error it wraps via errors.Unwrap.
func errorChain(err error) []string {
	var chain []string
	for ; err != nil; err = errors.Unwrap(err) {
		chain = append(chain, fmt.Sprintf("%q", err.Error()))
	}
	if len(chain) == 0 {
		return []string{"<nil>"}
	}
	return chain
}

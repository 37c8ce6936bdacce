/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package testutil

import "fmt"

// MockT records failures reported through require.TestingT without stopping the calling goroutine.
type MockT struct {
	Failed   bool
	Messages []string
}

func (t *MockT) FailNow() {
	t.Failed = true
}

func (t *MockT) Errorf(format string, args ...interface{}) {
	t.Messages = append(t.Messages, fmt.Sprintf(format, args...))
}

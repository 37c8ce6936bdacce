/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

// Package logtest provides log.FieldLogger implementations for tests:
// a recorder that keeps logged entries for later inspection and a plain JSON logger writing to any io.Writer.
package logtest

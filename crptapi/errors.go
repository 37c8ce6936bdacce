/*
Copyright © 2024 Acronis International GmbH.

Released under MIT license.
*/

package crptapi

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidDocument is matched (via errors.Is) by *ValidationError.
var ErrInvalidDocument = errors.New("invalid document")

// ErrUnexpectedStatusCode is matched (via errors.Is) by *UnexpectedStatusError.
var ErrUnexpectedStatusCode = errors.New("unexpected HTTP status code")

// FieldError represents a single validation error for a specific field.
type FieldError struct {
	Field string `json:"field"`
	Err   string `json:"error"`
}

// ValidationError is returned when a document or a signature is invalid.
// No request is sent and no rate limiting permit is consumed in this case.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Field + ": " + f.Err
	}
	return ErrInvalidDocument.Error() + ": " + strings.Join(parts, "; ")
}

// Unwrap returns ErrInvalidDocument.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidDocument
}

// UnexpectedStatusError is returned when the API responds with a status other than 200 OK.
// Body holds the beginning of the response body.
type UnexpectedStatusError struct {
	StatusCode int
	Body       string
}

func (e *UnexpectedStatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %d", ErrUnexpectedStatusCode.Error(), e.StatusCode)
	}
	return fmt.Sprintf("%s %d: %s", ErrUnexpectedStatusCode.Error(), e.StatusCode, e.Body)
}

// Unwrap returns ErrUnexpectedStatusCode.
func (e *UnexpectedStatusError) Unwrap() error {
	return ErrUnexpectedStatusCode
}

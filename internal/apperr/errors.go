// Package apperr holds the error types shared by the engine, the stores and
// the HTTP layer.
package apperr

import (
	"errors"
	"fmt"
)

// ValidationError reports malformed input. Operations that return it have
// not mutated any state.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "invalid input: " + e.Message
	}
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Message)
}

// Invalid is shorthand for building a ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// NotFoundError reports a missing entity by kind and id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.ID)
}

// NotFound is shorthand for building a NotFoundError.
func NotFound(kind, id string) error {
	return &NotFoundError{Kind: kind, ID: id}
}

// IsValidation reports whether err wraps a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// IsNotFound reports whether err wraps a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}

package geometry

import (
	"errors"
	"fmt"
)

// ValidationError reports an input that violates the engine's invariants:
// a non-positive belt width, a negative envelope, a zero-length straight
// segment, an unresolvable curve radius. Recoverable degeneracies (the inner
// radius floor, the minimum roller count) are normalized instead of raising
// it. The error never carries partial output; a failed build yields nothing.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid geometry input: %s %s", e.Field, e.Reason)
}

func invalidInput(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}

// IsValidationError reports whether err is (or wraps) a ValidationError, for
// callers that map engine failures to API error codes.
func IsValidationError(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

// ABOUTME: Registry error taxonomy: not-found sentinels and handler validation failures.
// ABOUTME: The HTTP boundary maps these onto 404 and 400 responses.

package registry

import "errors"

// ErrActionNotFound indicates an unregistered action name.
var ErrActionNotFound = errors.New("action not found")

// ErrSignalNotFound indicates an unregistered signal name.
var ErrSignalNotFound = errors.New("signal not found")

// ValidationError reports a malformed or missing payload field. Handlers fail
// fast with it before performing any side effect, keeping partial-failure
// semantics trivial: an early validation failure has touched nothing.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError builds a ValidationError with the given message.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

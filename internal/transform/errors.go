package transform

import "fmt"

const (
	wrappedValidationErrorTemplateConstant = "%s: %v"
)

// ValidationError reports a user-actionable failure: a misconfigured
// collaborator, a reference failing its shape check, or a wrapped repository
// access failure. It aborts the message rewrite for the current invocation.
type ValidationError struct {
	Message string
	Cause   error
}

// NewValidationError constructs a ValidationError from a format string.
func NewValidationError(format string, arguments ...any) ValidationError {
	return ValidationError{Message: fmt.Sprintf(format, arguments...)}
}

// WrapValidationError normalizes a lower-level failure into the validation
// error channel while preserving the cause.
func WrapValidationError(cause error, message string) ValidationError {
	return ValidationError{Message: message, Cause: cause}
}

// Error describes the validation failure.
func (validationError ValidationError) Error() string {
	if validationError.Cause == nil {
		return validationError.Message
	}
	return fmt.Sprintf(wrappedValidationErrorTemplateConstant, validationError.Message, validationError.Cause)
}

// Unwrap exposes the underlying cause when present.
func (validationError ValidationError) Unwrap() error {
	return validationError.Cause
}

package domain

import "errors"

// ValidationError is a deterministic rejection of caller input. The
// reason is written for humans and safe to surface as-is. A validation
// failure must abort the enclosing transaction before any write of the
// failing unit lands.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string { return e.Reason }

// Invalid builds a ValidationError from a reason string.
func Invalid(reason string) error { return &ValidationError{Reason: reason} }

// IsValidation reports whether err is (or wraps) a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

package domain

import (
	"errors"
	"fmt"
)

// ValidationKind classifies why an input was rejected.
type ValidationKind string

const (
	KindInvalidFormat  ValidationKind = "invalid_format"
	KindTooShort       ValidationKind = "too_short"
	KindTooWeak        ValidationKind = "too_weak"
	KindMissingField   ValidationKind = "missing_field"
	KindDuplicateEmail ValidationKind = "duplicate_email"
)

// ValidationError is a recoverable input error. Its message is safe to show to
// clients and never carries derivation parameters.
type ValidationError struct {
	Kind    ValidationKind
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// Is matches any ValidationError with the same kind and field, so callers can
// compare against the sentinels below with errors.Is.
func (e *ValidationError) Is(target error) bool {
	var t *ValidationError
	if !errors.As(target, &t) {
		return false
	}
	return e.Kind == t.Kind && e.Field == t.Field
}

func newValidationError(kind ValidationKind, field, format string, args ...any) *ValidationError {
	return &ValidationError{Kind: kind, Field: field, Message: fmt.Sprintf(format, args...)}
}

var (
	ErrInvalidEmail     = newValidationError(KindInvalidFormat, "email", "email has an invalid format")
	ErrInvalidRole      = newValidationError(KindInvalidFormat, "role", "role is not recognised")
	ErrPasswordTooShort = newValidationError(KindTooShort, "password", "password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooWeak  = newValidationError(KindTooWeak, "password", "password must contain at least one letter and one digit")
	ErrMissingName      = newValidationError(KindMissingField, "name", "name is required")
	ErrDuplicateEmail   = newValidationError(KindDuplicateEmail, "email", "email is already registered")
)

// IsValidation reports whether err is, or wraps, a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var (
	// ErrInvalidCredentials is the only failure login reports, whatever the cause.
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrIdentityNotFound   = errors.New("identity not found")
	ErrForbidden          = errors.New("access forbidden")

	// ErrCorruptIdentity marks a stored identity that no longer maps onto the
	// domain types.
	ErrCorruptIdentity = errors.New("stored identity is corrupt")

	ErrMissingSecret = errors.New("token signing secret is not configured")
	ErrWeakSecret    = fmt.Errorf("token signing secret must be at least %d bytes", MinSecretLength)
)

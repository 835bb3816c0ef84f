// Package common defines shared constants and sentinel errors used across
// client and server layers of Safe Locker. Callers should use errors.Is to
// match these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound      = errors.New("not found")
	ErrorAlreadyExists = errors.New("already exists")

	// Service-level errors (generic/internal flow control).
	ErrorInternal     = errors.New("internal error")
	ErrorUnauthorized = errors.New("unauthorized")

	// ErrValidation marks input rejected before any side effect took place.
	ErrValidation = errors.New("validation error")

	// Auth errors (invalid or malformed token).
	ErrInvalidToken = errors.New("invalid token")

	// Token lifecycle errors.
	ErrTokenExpired        = errors.New("token expired")
	ErrRefreshTokenExpired = errors.New("refresh token expired")

	// Account lifecycle errors.
	ErrInvalidCode      = errors.New("invalid or expired code")
	ErrUserNotConfirmed = errors.New("user is not confirmed")
)

// Invalid returns a validation error carrying a user-facing message. Error
// returns msg verbatim and errors.Is matches ErrValidation.
func Invalid(msg string) error {
	return &validationError{msg: msg}
}

type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

func (e *validationError) Unwrap() error { return ErrValidation }

// WithMessage returns an error of class kind whose text is msg. It is used to
// carry a message meant for the end user alongside a sentinel.
func WithMessage(kind error, msg string) error {
	return &messageError{kind: kind, msg: msg}
}

type messageError struct {
	kind error
	msg  string
}

func (e *messageError) Error() string { return e.msg }

func (e *messageError) Unwrap() error { return e.kind }

// Message returns the user-facing text carried by err, or fallback when err
// carries none.
func Message(err error, fallback string) string {
	var m *messageError
	if errors.As(err, &m) && m.msg != "" {
		return m.msg
	}
	var v *validationError
	if errors.As(err, &v) && v.msg != "" {
		return v.msg
	}
	return fallback
}

package core

import (
	"fmt"

	"github.com/pkg/errors"
)

// FieldError is used to indicate an error with a specific struct field.
type FieldError struct {
	Field string
	Error string
}

type ValidationError struct {
	Err    error
	Fields []FieldError
}

func NewValidationError(err error, flds ...FieldError) error {
	return &ValidationError{err, flds}
}

func (err ValidationError) Error() string {
	if err.Err == nil {
		return ""
	}
	return err.Err.Error()
}

// ConflictError signals a uniqueness violation (duplicate email, humanId, mobile...).
type ConflictError struct {
	Err error
}

func NewConflictError(msg string) error { return &ConflictError{errors.New(msg)} }
func (err ConflictError) Error() string { return err.Err.Error() }
func (err ConflictError) Unwrap() error { return err.Err }

// AuthError signals failed authentication or insufficient permissions.
type AuthError struct {
	Err       error
	Forbidden bool
}

func NewAuthError(msg string) error { return &AuthError{Err: errors.New(msg)} }

// NewForbiddenError flags a permission failure for an otherwise authenticated caller.
func NewForbiddenError(msg string) error { return &AuthError{Err: errors.New(msg), Forbidden: true} }
func (err AuthError) Error() string      { return err.Err.Error() }
func (err AuthError) Unwrap() error      { return err.Err }

// RateLimitedError signals OTP throttling; RetryAfterMinutes hints when to retry.
type RateLimitedError struct {
	Err               error
	RetryAfterMinutes int
}

func NewRateLimitedError(minutes int) error {
	return &RateLimitedError{
		Err:               fmt.Errorf("too many OTP requests, try again in %d min", minutes),
		RetryAfterMinutes: minutes,
	}
}
func (err RateLimitedError) Error() string { return err.Err.Error() }
func (err RateLimitedError) Unwrap() error { return err.Err }

// NotFoundError signals a missing record.
type NotFoundError struct {
	Err error
}

func NewNotFoundError(msg string) error { return &NotFoundError{errors.New(msg)} }
func (err NotFoundError) Error() string { return err.Err.Error() }
func (err NotFoundError) Unwrap() error { return err.Err }

// UpstreamError signals a mail/storage capability failure; surfaced generically
// to the caller, logged with detail internally.
type UpstreamError struct {
	Err error
}

func NewUpstreamError(err error, msg string) error {
	return &UpstreamError{errors.Wrap(err, msg)}
}
func (err UpstreamError) Error() string { return err.Err.Error() }
func (err UpstreamError) Unwrap() error { return err.Err }

type shutdown struct {
	message string
}

func NewShutdownError(msg string) error {
	return &shutdown{message: msg}
}

func (s shutdown) Error() string {
	return s.message
}

func IsShutdown(err error) bool {
	_, ok := errors.Cause(err).(*shutdown)
	return ok
}

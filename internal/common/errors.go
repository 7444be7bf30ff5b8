// Package common provides shared utilities and types used across the application.
package common

import (
	"context"
	"errors"
	"fmt"
)

// Common application errors.
var (
	// Storage errors.
	ErrNotFound       = errors.New("not found")
	ErrDuplicateEntry = errors.New("duplicate entry")
	ErrStoreBusy      = errors.New("store busy")

	// Input errors.
	ErrInvalidInput = errors.New("invalid input")

	// Review and reconciliation errors.
	ErrInvalidTransition = errors.New("invalid review transition")
	ErrAlreadyMatched    = errors.New("transaction already matched")
	ErrAmbiguousMatch    = errors.New("multiple matching candidates")
	ErrObligationClosed  = errors.New("obligation already settled")
	ErrDirectionMismatch = errors.New("transaction direction does not fit obligation kind")
	ErrOwnerMismatch     = errors.New("records belong to different owners")
	ErrNoTransactions    = errors.New("no transactions parsed")
	ErrUnsupportedFormat = errors.New("unsupported statement format")

	// Configuration errors.
	ErrInvalidConfig = errors.New("invalid configuration")
)

// UserError represents an error that should be shown to the user.
type UserError struct {
	Err         error
	UserMessage string
}

func (e *UserError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.UserMessage, e.Err)
	}
	return e.UserMessage
}

func (e *UserError) Unwrap() error {
	return e.Err
}

// NewUserError creates a new user-friendly error.
func NewUserError(userMessage string, err error) error {
	return &UserError{
		UserMessage: userMessage,
		Err:         err,
	}
}

// Invalid wraps ErrInvalidInput with a description of the offending field.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// IsRetryable reports whether err is a transient store condition.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrStoreBusy) || errors.Is(err, context.DeadlineExceeded)
}

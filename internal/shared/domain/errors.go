package domain

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by aggregates, domain services and application services.
// Boundary layers map them to distinct responses with errors.Is.
var (
	ErrNotFound           = errors.New("not found")
	ErrInvariantViolation = errors.New("invariant violation")
)

// NotFoundf returns an error of kind ErrNotFound with a formatted message.
func NotFoundf(format string, args ...any) error {
	return &kindError{kind: ErrNotFound, msg: fmt.Sprintf(format, args...)}
}

// Invariantf returns an error of kind ErrInvariantViolation with a formatted message.
func Invariantf(format string, args ...any) error {
	return &kindError{kind: ErrInvariantViolation, msg: fmt.Sprintf(format, args...)}
}

// IsNotFound reports whether err is of kind ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsInvariantViolation reports whether err is of kind ErrInvariantViolation.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}

type kindError struct {
	kind error
	msg  string
}

// Error returns only the message so it can be shown to API clients as-is.
func (e *kindError) Error() string { return e.msg }

func (e *kindError) Unwrap() error { return e.kind }

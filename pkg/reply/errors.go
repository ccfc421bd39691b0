package reply

import (
	"errors"
	"fmt"
)

var (
	// ErrTransient marks failures worth retrying (rate limits, server errors, timeouts).
	ErrTransient = errors.New("transient reply failure")
	// ErrPermanent marks failures that will not go away on retry.
	ErrPermanent = errors.New("permanent reply failure")
)

// Error is a classified reply failure.
type Error struct {
	Kind   error
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("%v (status %d): %v", e.Kind, e.Status, e.Err)
	}
	return fmt.Sprintf("%v: %v", e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) Is(target error) bool {
	return target == e.Kind
}

// Transient wraps err as a retryable failure.
func Transient(err error) error {
	return &Error{Kind: ErrTransient, Err: err}
}

// Permanent wraps err as a non-retryable failure.
func Permanent(err error) error {
	return &Error{Kind: ErrPermanent, Err: err}
}

// classifyStatus maps an HTTP status to a failure kind.
func classifyStatus(status int) error {
	if status == 429 || status == 408 || status >= 500 {
		return ErrTransient
	}
	return ErrPermanent
}

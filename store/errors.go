package store

import (
	"errors"
	"fmt"
)

// Sentinel errors for store failure classification.
// Use errors.Is(err, ErrXxx) for typed assertions.
var (
	// ErrStoreUnavailable indicates the database could not be opened or a
	// statement or transaction could not complete. Not retried here.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrInvariantViolation indicates persisted state is missing required
	// keys or cannot be decoded. The operation aborts without side effects.
	ErrInvariantViolation = errors.New("persistence invariant violated")

	// ErrArchiveNotFound indicates no archive record has the requested id.
	ErrArchiveNotFound = errors.New("archive not found")

	// ErrClosed indicates the store was used after Close.
	ErrClosed = errors.New("store closed")
)

// StoreError wraps an underlying error with a classification and the
// operation that failed.
type StoreError struct {
	// Kind is the sentinel error for classification.
	Kind error
	// Op is the store operation (e.g. "append_live", "archive").
	Op string
	// Err is the underlying error.
	Err error
}

func (e *StoreError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error {
	return e.Err
}

// Is reports whether the error matches the target sentinel.
func (e *StoreError) Is(target error) bool {
	return errors.Is(e.Kind, target)
}

func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Kind: ErrStoreUnavailable, Op: op, Err: err}
}

func invariant(op, format string, args ...any) error {
	return &StoreError{Kind: ErrInvariantViolation, Op: op, Err: fmt.Errorf(format, args...)}
}

// IsUnavailable reports whether err is a store availability failure.
func IsUnavailable(err error) bool {
	return errors.Is(err, ErrStoreUnavailable)
}

// IsInvariantViolation reports whether err is a persisted-state violation.
func IsInvariantViolation(err error) bool {
	return errors.Is(err, ErrInvariantViolation)
}

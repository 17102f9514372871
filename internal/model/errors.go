package model

import (
	"errors"
	"fmt"
)

// ErrNotFound marks lookups for rows that do not exist.
var ErrNotFound = errors.New("not found")

// ValidationError rejects a request before any storage or broadcast attempt.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

func Invalidf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// StorageError wraps a persistence or query failure. It is surfaced to the
// caller, never swallowed, and a write that failed is never broadcast.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string { return e.Op + ": " + e.Err.Error() }

func (e *StorageError) Unwrap() error { return e.Err }

func Storagef(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}

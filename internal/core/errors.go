package core

import (
	"errors"
	"fmt"
)

// ErrOutOfScope matches any *OutOfScopeError via errors.Is.
var ErrOutOfScope = errors.New("rule out of scope")

// ValidationError represents a caller precondition failure.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// OutOfScopeError reports a rule the generator refuses to process.
// It is an outcome rather than a fault.
type OutOfScopeError struct {
	Message string
}

func (e *OutOfScopeError) Error() string {
	return e.Message
}

func (e *OutOfScopeError) Is(target error) bool {
	return target == ErrOutOfScope
}

// LockError represents a file locking error.
type LockError struct {
	Operation string
	Message   string
	Err       error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("lock %s: %s", e.Operation, e.Message)
}

func (e *LockError) Unwrap() error {
	return e.Err
}

// StorageError represents a repository read or write failure.
type StorageError struct {
	Operation string
	Path      string
	Err       error
}

func (e *StorageError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("storage %s %s: %v", e.Operation, e.Path, e.Err)
	}
	return fmt.Sprintf("storage %s: %v", e.Operation, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

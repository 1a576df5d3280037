package store

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned by update operations when no record has the given id.
var ErrNotFound = errors.New("record not found")

// StoreError wraps a failure reading or writing one collection.
type StoreError struct {
	// Op is the operation that failed (e.g., "list", "update").
	Op string

	// Key is the collection key in the key-value store.
	Key string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store: %s %s failed: %v", e.Op, e.Key, e.Err)
}

// Unwrap returns the underlying error for error unwrapping.
func (e *StoreError) Unwrap() error {
	return e.Err
}

func wrap(op, key string, err error) error {
	if err == nil {
		return nil
	}
	var se *StoreError
	if errors.As(err, &se) {
		return err
	}
	return &StoreError{Op: op, Key: key, Err: err}
}

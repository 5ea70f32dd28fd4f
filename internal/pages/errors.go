package pages

import (
	"errors"
	"fmt"
)

// ErrURLNotFound is returned when no stored URL has the requested ID
var ErrURLNotFound = errors.New("url not found")

// PersistenceError wraps a storage failure. The operation was aborted and
// nothing was written.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

package core

import (
	"errors"
	"fmt"
)

// ErrNoEmailFound is returned when a text holds no valid email address.
// Its message is sent back to the user as is.
var ErrNoEmailFound = errors.New("Input contains no valid email address")

// LookupError is returned by BreachLookup implementations when the breach
// service could not be queried or answered with something unusable
type LookupError struct {
	Email      string
	StatusCode int
	Err        error
}

func (e *LookupError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("breach lookup for %s failed with status %d: %v", e.Email, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("breach lookup for %s failed: %v", e.Email, e.Err)
}

func (e *LookupError) Unwrap() error {
	return e.Err
}

package manifest

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a manifest file does not exist.
var ErrNotFound = errors.New("manifest not found")

// ParseError reports a manifest that could not be read or parsed.
type ParseError struct {
	Source string
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parse manifest %s: %v", e.Source, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err is or wraps a *ParseError.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

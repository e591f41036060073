package engine

import (
	"errors"
	"fmt"
)

// ErrorClass classifies a failure for the degrade-or-abort decision.
type ErrorClass string

const (
	// ErrorClassManifestParse indicates a manifest that could not be read or
	// parsed. Recovered locally: the manifest is treated as absent.
	ErrorClassManifestParse ErrorClass = "manifest_parse"

	// ErrorClassDaemonUnavailable indicates a daemon call that failed or
	// exited nonzero for a reason other than a missing or busy resource.
	ErrorClassDaemonUnavailable ErrorClass = "daemon_unavailable"

	// ErrorClassResourceNotFound indicates the daemon has no such resource.
	// Expected during speculative removal.
	ErrorClassResourceNotFound ErrorClass = "resource_not_found"

	// ErrorClassResourceInUse indicates the resource is still referenced.
	// Expected during speculative removal.
	ErrorClassResourceInUse ErrorClass = "resource_in_use"
)

// EngineError is a classified error with context.
// nolint:revive // EngineError is intentionally named to distinguish from standard errors
type EngineError struct {
	// Class is the error classification.
	Class ErrorClass `json:"class"`

	// Message is the human-readable error message.
	Message string `json:"message"`

	// Code is an optional error code for programmatic handling.
	Code string `json:"code,omitempty"`

	// Resource is the resource identifier involved, if any.
	Resource string `json:"resource,omitempty"`

	// Operation is the daemon operation being performed.
	Operation string `json:"operation,omitempty"`

	// Err is the underlying error.
	Err error `json:"-"`

	// Details contains additional context-specific information.
	Details map[string]interface{} `json:"details,omitempty"`
}

// Error implements the error interface.
func (e *EngineError) Error() string {
	if e.Resource != "" && e.Operation != "" {
		return fmt.Sprintf("[%s] %s (resource=%s, operation=%s): %s",
			e.Class, e.Message, e.Resource, e.Operation, e.unwrapMessage())
	}
	if e.Resource != "" {
		return fmt.Sprintf("[%s] %s (resource=%s): %s",
			e.Class, e.Message, e.Resource, e.unwrapMessage())
	}
	if e.Operation != "" {
		return fmt.Sprintf("[%s] %s (operation=%s): %s",
			e.Class, e.Message, e.Operation, e.unwrapMessage())
	}
	return fmt.Sprintf("[%s] %s: %s", e.Class, e.Message, e.unwrapMessage())
}

// Unwrap returns the underlying error for error chain inspection.
func (e *EngineError) Unwrap() error {
	return e.Err
}

func (e *EngineError) unwrapMessage() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return ""
}

// Is implements error equality checking for errors.Is.
func (e *EngineError) Is(target error) bool {
	t, ok := target.(*EngineError)
	if !ok {
		return false
	}
	return e.Class == t.Class && e.Code == t.Code
}

// NewManifestParseError creates a manifest parse error.
func NewManifestParseError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassManifestParse,
		Message: message,
		Err:     err,
	}
}

// NewDaemonUnavailableError creates a daemon unavailable error.
func NewDaemonUnavailableError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassDaemonUnavailable,
		Message: message,
		Err:     err,
	}
}

// NewNotFoundError creates a resource not found error.
func NewNotFoundError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassResourceNotFound,
		Message: message,
		Err:     err,
	}
}

// NewInUseError creates a resource in use error.
func NewInUseError(message string, err error) *EngineError {
	return &EngineError{
		Class:   ErrorClassResourceInUse,
		Message: message,
		Err:     err,
	}
}

// WithResource adds resource context to an error.
func (e *EngineError) WithResource(resource string) *EngineError {
	e.Resource = resource
	return e
}

// WithOperation adds operation context to an error.
func (e *EngineError) WithOperation(operation string) *EngineError {
	e.Operation = operation
	return e
}

// WithCode adds an error code to an error.
func (e *EngineError) WithCode(code string) *EngineError {
	e.Code = code
	return e
}

// WithDetail adds a detail field to the error context.
func (e *EngineError) WithDetail(key string, value interface{}) *EngineError {
	if e.Details == nil {
		e.Details = make(map[string]interface{})
	}
	e.Details[key] = value
	return e
}

// ClassOf returns the class of err, or "" when err is not classified.
func ClassOf(err error) ErrorClass {
	var e *EngineError
	if errors.As(err, &e) {
		return e.Class
	}
	return ""
}

// IsNotFound returns true if the daemon reported a missing resource.
func IsNotFound(err error) bool {
	return ClassOf(err) == ErrorClassResourceNotFound
}

// IsInUse returns true if the daemon reported a resource still in use.
func IsInUse(err error) bool {
	return ClassOf(err) == ErrorClassResourceInUse
}

// Common error codes.
const (
	ErrCodeNotFound   = "NOT_FOUND"
	ErrCodeInUse      = "IN_USE"
	ErrCodeExitStatus = "EXIT_STATUS"
	ErrCodeExecFailed = "EXEC_FAILED"
)

package errors

import (
	"fmt"
	"net/http"
)

// Error is the HTTP-facing error carried through handlers and middleware.
type Error struct {
	Message string `json:"message"`
	Status  int    `json:"status"`
}

func (e *Error) Error() string {
	return e.Message
}

func New(message string, status int) *Error {
	return &Error{
		Message: message,
		Status:  status,
	}
}

var (
	InActiveUserError = New("user inactive", http.StatusUnauthorized)
	ErrNotFound       = New("record not found", http.StatusNotFound)
	ErrInternalServer = New("internal server error", http.StatusInternalServerError)
)

// ValidationError means the input was malformed. Never retried.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// AttachmentTooLargeError is raised when an attachment exceeds the configured
// per-image size bound.
type AttachmentTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *AttachmentTooLargeError) Error() string {
	return fmt.Sprintf("attachment of %d bytes exceeds limit of %d bytes", e.Size, e.Limit)
}

// PermissionError means the actor is not authorized for the requested
// transition. Never retried.
type PermissionError struct {
	Message string
}

func (e *PermissionError) Error() string {
	return e.Message
}

func NewPermissionError(message string) *PermissionError {
	return &PermissionError{Message: message}
}

// InvalidTransitionError is a state machine rule violation, including acting
// on a record already in a terminal state. No mutation occurs.
type InvalidTransitionError struct {
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid transition from %q to %q", e.From, e.To)
}

// StaleStateError means a conditional write lost to a concurrent transition.
// The caller must re-read current state before acting again; the same
// transition is never retried blindly.
type StaleStateError struct {
	Message string
}

func (e *StaleStateError) Error() string {
	return e.Message
}

func NewStaleStateError(message string) *StaleStateError {
	return &StaleStateError{Message: message}
}

// TimeoutError is a write that did not acknowledge within the configured
// bound. Retryable by the caller.
type TimeoutError struct {
	Op  string
	Err error
}

func (e *TimeoutError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s timed out: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s timed out", e.Op)
}

func (e *TimeoutError) Unwrap() error {
	return e.Err
}

// TransientStoreError wraps a retryable store failure. The propagation layer
// retries these with bounded backoff before surfacing them.
type TransientStoreError struct {
	Op  string
	Err error
}

func (e *TransientStoreError) Error() string {
	return fmt.Sprintf("transient store error in %s: %v", e.Op, e.Err)
}

func (e *TransientStoreError) Unwrap() error {
	return e.Err
}

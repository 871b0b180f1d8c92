// errors.go - Structured errors for OCR uploads
package upload

import (
	"errors"
	"fmt"
)

// Causes of KindValidation errors.
var (
	ErrNoDocument         = errors.New("no document selected")
	ErrFileTypeNotAllowed = errors.New("file type not allowed")
	ErrFileTooLarge       = errors.New("file too large")
)

// Kind classifies an upload failure.
type Kind string

const (
	KindValidation Kind = "VALIDATION_ERROR"
	KindStatus     Kind = "HTTP_STATUS"
	KindTransport  Kind = "TRANSPORT_ERROR"
	KindDecode     Kind = "DECODE_ERROR"
)

// Error represents a failed upload
type Error struct {
	Kind    Kind   `json:"code"`
	Status  int    `json:"status,omitempty"`
	Message string `json:"message"`
	Body    string `json:"body,omitempty"` // raw response text for KindStatus
	Details string `json:"details,omitempty"`
	cause   error
}

// Error implements the error interface
func (e *Error) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s", e.Kind, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the underlying cause, if any
func (e *Error) Unwrap() error {
	return e.cause
}

// Error constructors for consistent error handling

// NewValidationError creates an error for a request rejected before sending
func NewValidationError(message string, cause error) *Error {
	return &Error{
		Kind:    KindValidation,
		Message: message,
		cause:   cause,
	}
}

// NewStatusError creates an error for any non-200 response, keeping the body verbatim
func NewStatusError(status int, body string) *Error {
	return &Error{
		Kind:    KindStatus,
		Status:  status,
		Message: fmt.Sprintf("server responded with status %d", status),
		Body:    body,
	}
}

// NewTransportError creates an error for a request that never got a response
func NewTransportError(message string, cause error) *Error {
	err := &Error{
		Kind:    KindTransport,
		Message: message,
		cause:   cause,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// NewDecodeError creates an error for a 200 response whose body cannot be read
func NewDecodeError(status int, cause error) *Error {
	err := &Error{
		Kind:    KindDecode,
		Status:  status,
		Message: "failed to decode response body",
		cause:   cause,
	}
	if cause != nil {
		err.Details = cause.Error()
	}
	return err
}

// IsKind reports whether err is an upload *Error of the given kind
func IsKind(err error, kind Kind) bool {
	var uploadErr *Error
	if errors.As(err, &uploadErr) {
		return uploadErr.Kind == kind
	}
	return false
}
